package verify

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/millbrook-county/civic-portal/backend/internal/models"
	"github.com/millbrook-county/civic-portal/backend/internal/registry"
)

// retryBackoff is the pause before the one retry of a failed registry
// lookup. The lookup is a read, so retrying it is safe.
const retryBackoff = 200 * time.Millisecond

// ErrNoMatch is the single denial error for every failed verification.
// Callers must not learn which field mismatched, so registry misses and
// secondary-factor mismatches are indistinguishable.
var ErrNoMatch = errors.New("no matching voter registry record")

// Registry is the lookup surface the verifier needs from the voter roll.
type Registry interface {
	FindByVoterIDAndLastName(ctx context.Context, voterID, lastName string) (*models.VoterRegistryEntry, error)
}

// Result is what a successful verification yields: the registry's view of
// the voter, never the caller's claimed values.
type Result struct {
	District string
	FullName string
}

// Verifier matches a claimed identity against the voter roll. It is a pure
// read; it never mutates registry or account state.
type Verifier struct {
	registry Registry
}

func NewVerifier(reg Registry) *Verifier {
	return &Verifier{registry: reg}
}

// Verify accepts a claimed (voterID, lastName) pair plus one secondary
// factor. The factor matches if it equals the registered date of birth
// exactly, or if it is a case-insensitive substring of the registered street
// address. The substring rule is intentionally loose to allow partial
// address entry; tightening it is a product decision, not a code fix.
func (v *Verifier) Verify(ctx context.Context, voterID, lastName, secondaryFactor string) (*Result, error) {
	entry, err := v.registry.FindByVoterIDAndLastName(ctx, voterID, lastName)
	if errors.Is(err, registry.ErrUnavailable) {
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(retryBackoff):
		}
		entry, err = v.registry.FindByVoterIDAndLastName(ctx, voterID, lastName)
	}
	if errors.Is(err, registry.ErrNotFound) {
		return nil, ErrNoMatch
	}
	if err != nil {
		return nil, err
	}

	if !factorMatches(entry, secondaryFactor) {
		return nil, ErrNoMatch
	}

	return &Result{District: entry.District, FullName: entry.LastName}, nil
}

func factorMatches(entry *models.VoterRegistryEntry, factor string) bool {
	factor = strings.TrimSpace(factor)
	if factor == "" {
		return false
	}
	if factor == entry.DateOfBirth {
		return true
	}
	return strings.Contains(
		strings.ToLower(entry.StreetAddress),
		strings.ToLower(factor),
	)
}
