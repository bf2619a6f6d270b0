package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/millbrook-county/civic-portal/backend/internal/models"
)

var (
	ErrForbidden             = errors.New("administrator privileges required")
	ErrInvalidPollDefinition = errors.New("a poll needs at least 2 non-empty options")
	ErrAccountNotFound       = errors.New("account not found")
	ErrCommentNotFound       = errors.New("comment not found")
)

// Service is the gateway for privileged operations. Every call re-checks the
// caller's admin flag against storage; a stale token alone is not enough.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) requireAdmin(ctx context.Context, accountID int) error {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, accountID).Error; err != nil {
		return ErrForbidden
	}
	if !account.IsAdmin || account.IsBanned {
		return ErrForbidden
	}
	return nil
}

// CreatePoll creates a poll and its options in one transaction. If any
// option insert fails the poll row is rolled back with it, so a poll can
// never exist with fewer than 2 options.
func (s *Service) CreatePoll(ctx context.Context, adminID int, req models.CreatePollRequest) (*models.Poll, error) {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	var options []string
	for _, opt := range req.Options {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			options = append(options, trimmed)
		}
	}
	if len(options) < 2 {
		return nil, ErrInvalidPollDefinition
	}

	var expiresAt *time.Time
	if req.ExpiresAt != nil && *req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, *req.ExpiresAt)
		if err != nil {
			return nil, fmt.Errorf("%w: bad expires_at", ErrInvalidPollDefinition)
		}
		expiresAt = &t
	}

	poll := models.Poll{
		Question:    req.Question,
		Description: req.Description,
		Status:      models.PollStatusOpen,
		ExpiresAt:   expiresAt,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&poll).Error; err != nil {
			return fmt.Errorf("creating poll: %w", err)
		}
		for i, text := range options {
			option := models.PollOption{
				PollID:   poll.ID,
				Text:     text,
				Position: i,
			}
			if err := tx.Create(&option).Error; err != nil {
				return fmt.Errorf("creating option %d: %w", i, err)
			}
			poll.Options = append(poll.Options, option)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &poll, nil
}

// ClosePoll marks a poll closed. The transition is terminal; there is no
// reopen.
func (s *Service) ClosePoll(ctx context.Context, adminID, pollID int) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&models.Poll{}).
		Where("id = ?", pollID).
		Update("status", models.PollStatusClosed)
	if result.Error != nil {
		return fmt.Errorf("closing poll: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return errors.New("poll not found")
	}
	return nil
}

// BanUser flips the soft-disable flag. Accounts are never deleted; a banned
// account keeps its history but can no longer vote or comment.
func (s *Service) BanUser(ctx context.Context, adminID, accountID int, banned bool) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("is_banned", banned)
	if result.Error != nil {
		return fmt.Errorf("updating ban flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// HideComment flips a comment's hidden flag. Hidden comments stay in storage
// for auditability and reappear if unhidden.
func (s *Service) HideComment(ctx context.Context, adminID, commentID int, hidden bool) error {
	if err := s.requireAdmin(ctx, adminID); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&models.Comment{}).
		Where("id = ?", commentID).
		Update("is_hidden", hidden)
	if result.Error != nil {
		return fmt.Errorf("updating hidden flag: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrCommentNotFound
	}
	return nil
}
