package polls

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/millbrook-county/civic-portal/backend/internal/models"
)

// PostComment appends a comment to a poll's thread. Commenting is allowed on
// closed polls; only voting is gated on poll status.
func (s *Service) PostComment(ctx context.Context, pollID, accountID int, content string) (*models.Comment, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, accountID).Error; err != nil {
		return nil, ErrNotAuthenticated
	}
	if account.IsBanned {
		return nil, ErrAccountBanned
	}

	var poll models.Poll
	if err := s.db.WithContext(ctx).First(&poll, pollID).Error; err != nil {
		return nil, ErrPollNotFound
	}

	comment := models.Comment{
		PollID:    pollID,
		AccountID: accountID,
		Content:   content,
	}
	if err := s.db.WithContext(ctx).Create(&comment).Error; err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.db.WithContext(ctx).Preload("Account").First(&comment, comment.ID)
	comment.Author = comment.Account.PublicAuthor()
	return &comment, nil
}

// ListComments returns a poll's comment thread oldest first. Hidden comments
// stay in storage for audit but are excluded from voter-facing reads.
func (s *Service) ListComments(ctx context.Context, pollID int) ([]models.Comment, error) {
	var poll models.Poll
	if err := s.db.WithContext(ctx).First(&poll, pollID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPollNotFound
		}
		return nil, fmt.Errorf("loading poll: %w", err)
	}

	var comments []models.Comment
	err := s.db.WithContext(ctx).
		Where("poll_id = ? AND is_hidden = ?", pollID, false).
		Preload("Account").
		Order("created_at asc").
		Find(&comments).Error
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}

	for i := range comments {
		comments[i].Author = comments[i].Account.PublicAuthor()
	}
	return comments, nil
}
