package handlers

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/millbrook-county/civic-portal/backend/internal/accounts"
	"github.com/millbrook-county/civic-portal/backend/internal/admin"
	"github.com/millbrook-county/civic-portal/backend/internal/notify"
	"github.com/millbrook-county/civic-portal/backend/internal/polls"
	"github.com/millbrook-county/civic-portal/backend/internal/registry"
	"github.com/millbrook-county/civic-portal/backend/internal/verify"
)

// Handler combines all handler types
type Handler struct {
	Auth  *AuthHandler
	Poll  *PollHandler
	Admin *AdminHandler
}

// NewHandler wires the service graph over one gorm connection and creates a
// unified handler with all sub-handlers.
func NewHandler(db *gorm.DB) *Handler {
	registryStore := registry.NewStore(db)
	verifier := verify.NewVerifier(registryStore)
	accountService := accounts.NewService(db, verifier, notify.NewFromEnv())
	pollService := polls.NewService(db)
	adminService := admin.NewService(db)

	return &Handler{
		Auth:  NewAuthHandler(accountService, verifier),
		Poll:  NewPollHandler(pollService),
		Admin: NewAdminHandler(adminService),
	}
}

// extractUserID reads the account id placed on the context by the auth
// middleware.
func extractUserID(c *gin.Context) (int, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case int:
		return v, true
	case uint:
		return int(v), true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}
