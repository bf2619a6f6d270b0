package registry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/millbrook-county/civic-portal/backend/internal/models"
)

var (
	// ErrNotFound means no registry row matched the claimed identity.
	ErrNotFound = errors.New("voter not found in registry")
	// ErrUnavailable means the registry could not be reached in time.
	ErrUnavailable = errors.New("voter registry temporarily unavailable")
)

const lookupTimeout = 5 * time.Second

// Store is the read-only view of the county voter roll. The application
// never writes through it; the roll is maintained by an external
// administrative process (see cmd/seed-registry for loading reference data).
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindByVoterIDAndLastName looks up a registry entry by voter ID and
// case-insensitive exact last name. Lookups run under a bounded timeout and
// report ErrUnavailable rather than hanging.
func (s *Store) FindByVoterIDAndLastName(ctx context.Context, voterID, lastName string) (*models.VoterRegistryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, lookupTimeout)
	defer cancel()

	var entry models.VoterRegistryEntry
	err := s.db.WithContext(ctx).
		Where("voter_id = ? AND LOWER(last_name) = LOWER(?)", voterID, lastName).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return nil, fmt.Errorf("registry lookup timed out: %w", ErrUnavailable)
		}
		return nil, fmt.Errorf("registry lookup failed: %w", ErrUnavailable)
	}

	return &entry, nil
}
