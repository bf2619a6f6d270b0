package polls

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/millbrook-county/civic-portal/backend/internal/models"
)

var (
	ErrPollNotFound     = errors.New("poll not found")
	ErrPollClosed       = errors.New("poll is closed")
	ErrUnknownOption    = errors.New("option does not belong to this poll")
	ErrNotAuthenticated = errors.New("account not found")
	ErrAccountBanned    = errors.New("account is banned")
)

// Service owns polls, options, votes, comments and suggestions.
type Service struct {
	db *gorm.DB

	// now is swappable in tests to pin poll-expiry behavior.
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now}
}

// ListPolls returns all polls newest first, with options in display order and
// the status derived from expiry at read time.
func (s *Service) ListPolls(ctx context.Context) ([]models.Poll, error) {
	var polls []models.Poll
	err := s.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Order("created_at desc").
		Find(&polls).Error
	if err != nil {
		return nil, fmt.Errorf("listing polls: %w", err)
	}

	now := s.now()
	for i := range polls {
		polls[i].Status = polls[i].EffectiveStatus(now)
	}
	return polls, nil
}

// GetPoll returns one poll with its options in display order.
func (s *Service) GetPoll(ctx context.Context, pollID int) (*models.Poll, error) {
	var poll models.Poll
	err := s.db.WithContext(ctx).
		Preload("Options", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		First(&poll, pollID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPollNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading poll: %w", err)
	}

	poll.Status = poll.EffectiveStatus(s.now())
	return &poll, nil
}

// CastVote records or replaces the voter's vote on a poll. The vote is
// keyed by (poll_id, account_id) through an upsert on the storage layer's
// unique constraint, so two concurrent casts from the same account can never
// produce two rows, even across server instances. Re-voting replaces both
// the option and the anonymity flag; casting the same vote twice is a no-op.
func (s *Service) CastVote(ctx context.Context, pollID, accountID, optionID int, isAnonymous bool) error {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, accountID).Error; err != nil {
		return ErrNotAuthenticated
	}
	if account.IsBanned {
		return ErrAccountBanned
	}

	poll, err := s.GetPoll(ctx, pollID)
	if err != nil {
		return err
	}
	if !poll.IsOpen(s.now()) {
		return ErrPollClosed
	}

	valid := false
	for _, opt := range poll.Options {
		if opt.ID == optionID {
			valid = true
			break
		}
	}
	if !valid {
		return ErrUnknownOption
	}

	vote := models.Vote{
		PollID:      pollID,
		AccountID:   accountID,
		OptionID:    optionID,
		IsAnonymous: isAnonymous,
	}

	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "poll_id"}, {Name: "account_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"option_id", "is_anonymous", "updated_at"}),
	}).Create(&vote).Error
	if err != nil {
		return fmt.Errorf("casting vote: %w", err)
	}

	return nil
}

// Tally counts votes per option. Each percentage is rounded independently,
// so the rounded values may not sum to exactly 100; that is expected and
// matches how the results are displayed.
func (s *Service) Tally(ctx context.Context, pollID int) (*models.PollResults, error) {
	poll, err := s.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	type countRow struct {
		OptionID int
		Count    int
	}
	var rows []countRow
	err = s.db.WithContext(ctx).Model(&models.Vote{}).
		Select("option_id, count(*) as count").
		Where("poll_id = ?", pollID).
		Group("option_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting votes: %w", err)
	}

	counts := make(map[int]int, len(rows))
	total := 0
	for _, row := range rows {
		counts[row.OptionID] = row.Count
		total += row.Count
	}

	results := &models.PollResults{PollID: pollID, TotalVotes: total}
	for _, opt := range poll.Options {
		count := counts[opt.ID]
		percent := 0
		if total > 0 {
			percent = int(math.Round(100 * float64(count) / float64(total)))
		}
		results.Options = append(results.Options, models.OptionResult{
			OptionID: opt.ID,
			Text:     opt.Text,
			Count:    count,
			Percent:  percent,
		})
	}

	return results, nil
}

// ListVoters returns who voted for an option. The district is always shown;
// the name and avatar are projected only when that particular vote was not
// anonymous. The flag is per vote, so the same voter may appear named on one
// poll and anonymous on another, and no caller privilege overrides it.
func (s *Service) ListVoters(ctx context.Context, pollID, optionID int) ([]models.VoterListEntry, error) {
	poll, err := s.GetPoll(ctx, pollID)
	if err != nil {
		return nil, err
	}

	valid := false
	for _, opt := range poll.Options {
		if opt.ID == optionID {
			valid = true
			break
		}
	}
	if !valid {
		return nil, ErrUnknownOption
	}

	var votes []models.Vote
	err = s.db.WithContext(ctx).
		Where("poll_id = ? AND option_id = ?", pollID, optionID).
		Order("created_at asc").
		Find(&votes).Error
	if err != nil {
		return nil, fmt.Errorf("listing votes: %w", err)
	}

	entries := []models.VoterListEntry{}
	for _, vote := range votes {
		var account models.Account
		if err := s.db.WithContext(ctx).First(&account, vote.AccountID).Error; err != nil {
			continue
		}

		entry := models.VoterListEntry{
			District:    account.District,
			IsAnonymous: vote.IsAnonymous,
		}
		if !vote.IsAnonymous {
			entry.FullName = account.FullName
			entry.Avatar = account.Avatar
		}
		entries = append(entries, entry)
	}

	return entries, nil
}
