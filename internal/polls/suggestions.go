package polls

import (
	"context"
	"fmt"

	"github.com/millbrook-county/civic-portal/backend/internal/models"
)

// CreateSuggestion appends a citizen suggestion. Suggestions are independent
// of any poll and are never edited after creation.
func (s *Service) CreateSuggestion(ctx context.Context, accountID int, req models.CreateSuggestionRequest) (*models.Suggestion, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, accountID).Error; err != nil {
		return nil, ErrNotAuthenticated
	}
	if account.IsBanned {
		return nil, ErrAccountBanned
	}

	suggestion := models.Suggestion{
		AccountID:   accountID,
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	}
	if err := s.db.WithContext(ctx).Create(&suggestion).Error; err != nil {
		return nil, fmt.Errorf("creating suggestion: %w", err)
	}

	s.db.WithContext(ctx).Preload("Account").First(&suggestion, suggestion.ID)
	suggestion.Author = suggestion.Account.PublicAuthor()
	return &suggestion, nil
}

// ListSuggestions returns all suggestions newest first. The list is public.
func (s *Service) ListSuggestions(ctx context.Context) ([]models.Suggestion, error) {
	var suggestions []models.Suggestion
	err := s.db.WithContext(ctx).
		Preload("Account").
		Order("created_at desc").
		Find(&suggestions).Error
	if err != nil {
		return nil, fmt.Errorf("listing suggestions: %w", err)
	}
	for i := range suggestions {
		suggestions[i].Author = suggestions[i].Account.PublicAuthor()
	}
	return suggestions, nil
}
