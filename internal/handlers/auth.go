package handlers

import (
	"errors"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/millbrook-county/civic-portal/backend/internal/accounts"
	"github.com/millbrook-county/civic-portal/backend/internal/models"
	"github.com/millbrook-county/civic-portal/backend/internal/registry"
	"github.com/millbrook-county/civic-portal/backend/internal/verify"
)

// noMatchMessage is the only thing a failed verification reveals. It never
// says which field mismatched, and it points at the manual escape hatch.
const noMatchMessage = "We couldn't find a matching voter record. Please check your details, or contact the County Clerk's office to correct your registration."

type AuthHandler struct {
	accounts *accounts.Service
	verifier *verify.Verifier
}

func NewAuthHandler(accountService *accounts.Service, verifier *verify.Verifier) *AuthHandler {
	return &AuthHandler{accounts: accountService, verifier: verifier}
}

// VerifyIdentity checks a claimed identity against the voter roll without
// creating anything. The UI calls it before showing the signup form.
func (h *AuthHandler) VerifyIdentity(c *gin.Context) {
	var input models.VerifyIdentityRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": err.Error()})
		return
	}

	// Either factor is enough: try the DOB first, and on a miss fall back
	// to the address fragment. A request may carry both.
	var factors []string
	if input.DOB != "" {
		factors = append(factors, input.DOB)
	}
	if input.Address != "" {
		factors = append(factors, input.Address)
	}

	var result *verify.Result
	err := verify.ErrNoMatch
	for _, factor := range factors {
		result, err = h.verifier.Verify(c.Request.Context(), input.VoterID, input.LastName, factor)
		if !errors.Is(err, verify.ErrNoMatch) {
			break
		}
	}
	if errors.Is(err, verify.ErrNoMatch) {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": noMatchMessage})
		return
	}
	if errors.Is(err, registry.ErrUnavailable) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Voter registry is temporarily unavailable, please try again"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Verification failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"district": result.District,
		"fullName": result.FullName,
	})
}

// Register handles account creation gated on identity verification
func (h *AuthHandler) Register(c *gin.Context) {
	var input models.RegisterRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, err := h.accounts.SignUp(c.Request.Context(), input)
	switch {
	case errors.Is(err, accounts.ErrIdentityNotVerified):
		c.JSON(http.StatusUnauthorized, gin.H{"error": noMatchMessage})
		return
	case errors.Is(err, accounts.ErrUsernameTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "Username already exists"})
		return
	case errors.Is(err, accounts.ErrVoterAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": "An account already exists for this voter"})
		return
	case errors.Is(err, registry.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Voter registry is temporarily unavailable, please try again"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account registered successfully",
		"account": gin.H{
			"id":        account.ID,
			"username":  account.Username,
			"full_name": account.FullName,
			"district":  account.District,
			"avatar":    account.Avatar,
		},
	})
}

// Login handles user login
func (h *AuthHandler) Login(c *gin.Context) {
	var input models.LoginRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	account, token, err := h.accounts.LogIn(c.Request.Context(), input.Username, input.Password)
	if errors.Is(err, accounts.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"account": gin.H{
			"id":        account.ID,
			"username":  account.Username,
			"full_name": account.FullName,
			"district":  account.District,
			"avatar":    account.Avatar,
			"is_admin":  account.IsAdmin,
		},
	})
}

// ResetPassword re-verifies the voter's identity and rotates the password to
// a temporary credential delivered out of band. The credential is echoed in
// the response only when DEV_ECHO_TEMP_CREDENTIAL=true, a development-only
// shortcut that must stay off in production.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var input models.ResetPasswordRequest
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	temp, err := h.accounts.RequestPasswordReset(c.Request.Context(), input.LastName, input.VoterID, input.Verifier)
	switch {
	case errors.Is(err, accounts.ErrIdentityNotVerified):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": noMatchMessage})
		return
	case errors.Is(err, accounts.ErrNoAccountForVoter):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "No account exists for this voter"})
		return
	case errors.Is(err, registry.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Voter registry is temporarily unavailable, please try again"})
		return
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Password reset failed"})
		return
	}

	resp := gin.H{
		"success": true,
		"message": "A temporary password has been sent to you",
	}
	if os.Getenv("DEV_ECHO_TEMP_CREDENTIAL") == "true" {
		resp["tempCredential"] = temp
	}

	c.JSON(http.StatusOK, resp)
}

// GetMe returns the current authenticated account
func (h *AuthHandler) GetMe(c *gin.Context) {
	accountID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	account, err := h.accounts.GetByID(c.Request.Context(), accountID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Account not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           account.ID,
		"username":     account.Username,
		"full_name":    account.FullName,
		"district":     account.District,
		"avatar":       account.Avatar,
		"notify_email": account.NotifyEmail,
		"notify_phone": account.NotifyPhone,
		"sms_opt_in":   account.SMSOptIn,
		"is_admin":     account.IsAdmin,
		"created_at":   account.CreatedAt,
	})
}
