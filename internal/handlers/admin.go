package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/millbrook-county/civic-portal/backend/internal/admin"
	"github.com/millbrook-county/civic-portal/backend/internal/models"
)

type AdminHandler struct {
	admin *admin.Service
}

func NewAdminHandler(adminService *admin.Service) *AdminHandler {
	return &AdminHandler{admin: adminService}
}

// Admin actions accepted by the admin-action dispatch endpoint.
const (
	ActionCreatePoll      = "CREATE_POLL"
	ActionClosePoll       = "CLOSE_POLL"
	ActionBanUser         = "BAN_USER"
	ActionModerateComment = "MODERATE_COMMENT"
)

type adminActionRequest struct {
	Action  string          `json:"action" binding:"required"`
	Payload json.RawMessage `json:"payload"`
}

// AdminAction dispatches a privileged operation. The caller is identified by
// bearer token; the gateway re-checks the admin flag in storage before every
// action.
func (h *AdminHandler) AdminAction(c *gin.Context) {
	accountID, ok := extractUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "User not authenticated"})
		return
	}

	var req adminActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	switch req.Action {
	case ActionCreatePoll:
		var payload models.CreatePollRequest
		if err := json.Unmarshal(req.Payload, &payload); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid CREATE_POLL payload"})
			return
		}
		poll, err := h.admin.CreatePoll(ctx, accountID, payload)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "poll": poll})

	case ActionClosePoll:
		var payload struct {
			PollID int `json:"poll_id" binding:"required"`
		}
		if err := json.Unmarshal(req.Payload, &payload); err != nil || payload.PollID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid CLOSE_POLL payload"})
			return
		}
		if err := h.admin.ClosePoll(ctx, accountID, payload.PollID); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Poll closed"})

	case ActionBanUser:
		var payload struct {
			AccountID int  `json:"account_id" binding:"required"`
			Banned    bool `json:"banned"`
		}
		if err := json.Unmarshal(req.Payload, &payload); err != nil || payload.AccountID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid BAN_USER payload"})
			return
		}
		if err := h.admin.BanUser(ctx, accountID, payload.AccountID, payload.Banned); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Ban flag updated"})

	case ActionModerateComment:
		var payload struct {
			CommentID int  `json:"comment_id" binding:"required"`
			Hidden    bool `json:"hidden"`
		}
		if err := json.Unmarshal(req.Payload, &payload); err != nil || payload.CommentID == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid MODERATE_COMMENT payload"})
			return
		}
		if err := h.admin.HideComment(ctx, accountID, payload.CommentID, payload.Hidden); err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "Comment moderation updated"})

	default:
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid action"})
	}
}

func (h *AdminHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, admin.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "Administrator privileges required"})
	case errors.Is(err, admin.ErrInvalidPollDefinition):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "A poll needs at least 2 non-empty options"})
	case errors.Is(err, admin.ErrAccountNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Account not found"})
	case errors.Is(err, admin.ErrCommentNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "Comment not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Internal error"})
	}
}
