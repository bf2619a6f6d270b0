package polls

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/millbrook-county/civic-portal/backend/internal/models"
	"github.com/millbrook-county/civic-portal/backend/internal/testutil"
)

func createAccount(t *testing.T, db *gorm.DB, username, district string) *models.Account {
	t.Helper()
	account := &models.Account{
		VoterID:      "V-" + username,
		Username:     username,
		PasswordHash: "x",
		FullName:     "Voter " + username,
		District:     district,
		Avatar:       "3",
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func createPoll(t *testing.T, db *gorm.DB, question string, optionTexts []string, expiresAt *time.Time) *models.Poll {
	t.Helper()
	poll := &models.Poll{
		Question:  question,
		Status:    models.PollStatusOpen,
		ExpiresAt: expiresAt,
	}
	require.NoError(t, db.Create(poll).Error)
	for i, text := range optionTexts {
		opt := models.PollOption{PollID: poll.ID, Text: text, Position: i}
		require.NoError(t, db.Create(&opt).Error)
		poll.Options = append(poll.Options, opt)
	}
	return poll
}

func TestCastVoteUpsert(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	voter := createAccount(t, db, "alice", "4")
	poll := createPoll(t, db, "Build the new library?", []string{"Yes", "No"}, nil)

	require.NoError(t, svc.CastVote(ctx, poll.ID, voter.ID, poll.Options[0].ID, false))
	require.NoError(t, svc.CastVote(ctx, poll.ID, voter.ID, poll.Options[1].ID, true))
	require.NoError(t, svc.CastVote(ctx, poll.ID, voter.ID, poll.Options[1].ID, true))

	var votes []models.Vote
	require.NoError(t, db.Where("poll_id = ?", poll.ID).Find(&votes).Error)
	require.Len(t, votes, 1, "re-voting must replace, not append")
	assert.Equal(t, poll.Options[1].ID, votes[0].OptionID)
	assert.True(t, votes[0].IsAnonymous, "anonymity flag follows the last cast")
}

func TestCastVoteExpiredPollIsClosed(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)

	voter := createAccount(t, db, "bob", "2")
	expired := time.Now().Add(-time.Hour)
	poll := createPoll(t, db, "Old question", []string{"A", "B"}, &expired)

	// No explicit close was ever recorded; expiry alone closes the poll.
	err := svc.CastVote(context.Background(), poll.ID, voter.ID, poll.Options[0].ID, false)
	assert.ErrorIs(t, err, ErrPollClosed)
}

func TestCastVoteExplicitlyClosedPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)

	voter := createAccount(t, db, "carol", "1")
	poll := createPoll(t, db, "Closed question", []string{"A", "B"}, nil)
	require.NoError(t, db.Model(poll).Update("status", models.PollStatusClosed).Error)

	err := svc.CastVote(context.Background(), poll.ID, voter.ID, poll.Options[0].ID, false)
	assert.ErrorIs(t, err, ErrPollClosed)
}

func TestCastVoteValidation(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	voter := createAccount(t, db, "dave", "3")
	banned := createAccount(t, db, "mallory", "3")
	require.NoError(t, db.Model(banned).Update("is_banned", true).Error)

	poll := createPoll(t, db, "Question", []string{"A", "B"}, nil)
	other := createPoll(t, db, "Other", []string{"C", "D"}, nil)

	err := svc.CastVote(ctx, poll.ID, voter.ID, other.Options[0].ID, false)
	assert.ErrorIs(t, err, ErrUnknownOption, "option from another poll is rejected")

	err = svc.CastVote(ctx, 99999, voter.ID, poll.Options[0].ID, false)
	assert.ErrorIs(t, err, ErrPollNotFound)

	err = svc.CastVote(ctx, poll.ID, 99999, poll.Options[0].ID, false)
	assert.ErrorIs(t, err, ErrNotAuthenticated)

	err = svc.CastVote(ctx, poll.ID, banned.ID, poll.Options[0].ID, false)
	assert.ErrorIs(t, err, ErrAccountBanned)
}

func TestTallyRounding(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	poll := createPoll(t, db, "Pick one", []string{"A", "B"}, nil)
	for i, optIdx := range []int{0, 0, 1} {
		voter := createAccount(t, db, fmt.Sprintf("tally-voter-%d", i), "1")
		require.NoError(t, svc.CastVote(ctx, poll.ID, voter.ID, poll.Options[optIdx].ID, false))
	}

	results, err := svc.Tally(ctx, poll.ID)
	require.NoError(t, err)

	assert.Equal(t, 3, results.TotalVotes)
	require.Len(t, results.Options, 2)
	assert.Equal(t, 2, results.Options[0].Count)
	assert.Equal(t, 67, results.Options[0].Percent)
	assert.Equal(t, 1, results.Options[1].Count)
	assert.Equal(t, 33, results.Options[1].Percent)
	// Independently rounded; the sum deliberately lands on 100 ± a point.
	assert.Equal(t, 100, results.Options[0].Percent+results.Options[1].Percent)
}

func TestTallyEmptyPoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)

	poll := createPoll(t, db, "Nobody voted", []string{"A", "B"}, nil)

	results, err := svc.Tally(context.Background(), poll.ID)
	require.NoError(t, err)

	assert.Equal(t, 0, results.TotalVotes)
	for _, opt := range results.Options {
		assert.Equal(t, 0, opt.Count)
		assert.Equal(t, 0, opt.Percent)
	}
}

func TestListVotersAnonymityProjection(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	named := createAccount(t, db, "named", "4")
	anon := createAccount(t, db, "anon", "7")
	poll := createPoll(t, db, "Question", []string{"A", "B"}, nil)

	require.NoError(t, svc.CastVote(ctx, poll.ID, named.ID, poll.Options[0].ID, false))
	require.NoError(t, svc.CastVote(ctx, poll.ID, anon.ID, poll.Options[0].ID, true))

	entries, err := svc.ListVoters(ctx, poll.ID, poll.Options[0].ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byDistrict := map[string]models.VoterListEntry{}
	for _, e := range entries {
		byDistrict[e.District] = e
	}

	require.Contains(t, byDistrict, "4")
	assert.Equal(t, "Voter named", byDistrict["4"].FullName)

	require.Contains(t, byDistrict, "7", "district is shown even for anonymous votes")
	assert.Empty(t, byDistrict["7"].FullName, "anonymous votes never expose the name")
	assert.Empty(t, byDistrict["7"].Avatar)
}

func TestAnonymityIsPerVoteNotPerAccount(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	voter := createAccount(t, db, "sometimes-anon", "5")
	pollA := createPoll(t, db, "Poll A", []string{"A", "B"}, nil)
	pollB := createPoll(t, db, "Poll B", []string{"C", "D"}, nil)

	require.NoError(t, svc.CastVote(ctx, pollA.ID, voter.ID, pollA.Options[0].ID, false))
	require.NoError(t, svc.CastVote(ctx, pollB.ID, voter.ID, pollB.Options[0].ID, true))

	entriesA, err := svc.ListVoters(ctx, pollA.ID, pollA.Options[0].ID)
	require.NoError(t, err)
	entriesB, err := svc.ListVoters(ctx, pollB.ID, pollB.Options[0].ID)
	require.NoError(t, err)

	require.Len(t, entriesA, 1)
	require.Len(t, entriesB, 1)
	assert.NotEmpty(t, entriesA[0].FullName)
	assert.Empty(t, entriesB[0].FullName)
}

func TestCommentsAllowedOnClosedPolls(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	voter := createAccount(t, db, "commenter", "1")
	expired := time.Now().Add(-time.Hour)
	poll := createPoll(t, db, "Expired poll", []string{"A", "B"}, &expired)

	comment, err := svc.PostComment(ctx, poll.ID, voter.ID, "Still worth discussing")
	require.NoError(t, err, "commenting is not gated on poll status")
	assert.Equal(t, "Still worth discussing", comment.Content)

	_, err = svc.PostComment(ctx, 99999, voter.ID, "nope")
	assert.ErrorIs(t, err, ErrPollNotFound)
}

func TestListCommentsExcludesHidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	voter := createAccount(t, db, "poster", "1")
	poll := createPoll(t, db, "Question", []string{"A", "B"}, nil)

	visible, err := svc.PostComment(ctx, poll.ID, voter.ID, "visible")
	require.NoError(t, err)
	hidden, err := svc.PostComment(ctx, poll.ID, voter.ID, "hidden")
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Comment{}).Where("id = ?", hidden.ID).Update("is_hidden", true).Error)

	comments, err := svc.ListComments(ctx, poll.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, visible.ID, comments[0].ID)

	// The hidden comment is retained in storage, not deleted.
	var count int64
	require.NoError(t, db.Model(&models.Comment{}).Where("poll_id = ?", poll.ID).Count(&count).Error)
	assert.EqualValues(t, 2, count)
}

func TestSuggestions(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	ctx := context.Background()

	voter := createAccount(t, db, "suggester", "2")

	created, err := svc.CreateSuggestion(ctx, voter.ID, models.CreateSuggestionRequest{
		Title:       "Fix the Main St potholes",
		Description: "Between 3rd and 5th",
		Category:    "roads",
	})
	require.NoError(t, err)
	assert.Equal(t, voter.ID, created.AccountID)

	list, err := svc.ListSuggestions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Fix the Main St potholes", list[0].Title)
}

func TestListPollsDerivesStatus(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)

	expired := time.Now().Add(-time.Minute)
	createPoll(t, db, "Expired", []string{"A", "B"}, &expired)
	createPoll(t, db, "Live", []string{"A", "B"}, nil)

	list, err := svc.ListPolls(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)

	byQuestion := map[string]string{}
	for _, p := range list {
		byQuestion[p.Question] = p.Status
	}
	assert.Equal(t, models.PollStatusClosed, byQuestion["Expired"])
	assert.Equal(t, models.PollStatusOpen, byQuestion["Live"])
}

func TestPollClosesTheMomentItExpires(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)

	expiry := time.Now().Add(time.Hour)
	voter := createAccount(t, db, "deadline-voter", "1")
	poll := createPoll(t, db, "Closes soon", []string{"A", "B"}, &expiry)

	require.NoError(t, svc.CastVote(context.Background(), poll.ID, voter.ID, poll.Options[0].ID, false))

	// Advance the service clock past the expiry; no stored status changed.
	svc.now = func() time.Time { return expiry.Add(time.Second) }

	err := svc.CastVote(context.Background(), poll.ID, voter.ID, poll.Options[1].ID, false)
	assert.ErrorIs(t, err, ErrPollClosed)

	got, err := svc.GetPoll(context.Background(), poll.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PollStatusClosed, got.Status)
}
