package admin

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/millbrook-county/civic-portal/backend/internal/models"
	"github.com/millbrook-county/civic-portal/backend/internal/polls"
	"github.com/millbrook-county/civic-portal/backend/internal/testutil"
)

func createAccount(t *testing.T, db *gorm.DB, username string, isAdmin bool) *models.Account {
	t.Helper()
	account := &models.Account{
		VoterID:      "V-" + username,
		Username:     username,
		PasswordHash: "x",
		FullName:     "User " + username,
		IsAdmin:      isAdmin,
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

func validPollRequest() models.CreatePollRequest {
	return models.CreatePollRequest{
		Question:    "Should the county fund a new park?",
		Description: "FY2027 parks budget",
		Options:     []string{"Yes", "No", "Undecided"},
	}
}

func TestCreatePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	adminUser := createAccount(t, db, "admin", true)

	poll, err := svc.CreatePoll(context.Background(), adminUser.ID, validPollRequest())
	require.NoError(t, err)

	require.Len(t, poll.Options, 3)
	// Insertion order is the display order.
	assert.Equal(t, "Yes", poll.Options[0].Text)
	assert.Equal(t, 0, poll.Options[0].Position)
	assert.Equal(t, "Undecided", poll.Options[2].Text)
	assert.Equal(t, 2, poll.Options[2].Position)
	assert.Equal(t, models.PollStatusOpen, poll.Status)
}

func TestCreatePollRequiresAdmin(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	regular := createAccount(t, db, "regular", false)

	_, err := svc.CreatePoll(context.Background(), regular.ID, validPollRequest())
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.CreatePoll(context.Background(), 99999, validPollRequest())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreatePollBannedAdminIsForbidden(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	adminUser := createAccount(t, db, "exadmin", true)
	require.NoError(t, db.Model(adminUser).Update("is_banned", true).Error)

	_, err := svc.CreatePoll(context.Background(), adminUser.ID, validPollRequest())
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCreatePollInvalidDefinition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	adminUser := createAccount(t, db, "admin", true)
	ctx := context.Background()

	tests := []struct {
		name    string
		options []string
	}{
		{"no options", nil},
		{"one option", []string{"Yes"}},
		{"blank options do not count", []string{"Yes", "   ", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validPollRequest()
			req.Options = tt.options

			_, err := svc.CreatePoll(ctx, adminUser.ID, req)
			assert.ErrorIs(t, err, ErrInvalidPollDefinition)
		})
	}

	// No orphaned poll rows were left behind by the rejected attempts.
	var count int64
	require.NoError(t, db.Model(&models.Poll{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCreatePollBadExpiry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	adminUser := createAccount(t, db, "admin", true)

	bad := "not-a-timestamp"
	req := validPollRequest()
	req.ExpiresAt = &bad

	_, err := svc.CreatePoll(context.Background(), adminUser.ID, req)
	assert.ErrorIs(t, err, ErrInvalidPollDefinition)
}

func TestClosePoll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	pollSvc := polls.NewService(db)
	adminUser := createAccount(t, db, "admin", true)
	voter := createAccount(t, db, "voter", false)
	ctx := context.Background()

	poll, err := svc.CreatePoll(ctx, adminUser.ID, validPollRequest())
	require.NoError(t, err)

	require.NoError(t, svc.ClosePoll(ctx, adminUser.ID, poll.ID))

	err = pollSvc.CastVote(ctx, poll.ID, voter.ID, poll.Options[0].ID, false)
	assert.ErrorIs(t, err, polls.ErrPollClosed)
}

func TestBanUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	adminUser := createAccount(t, db, "admin", true)
	target := createAccount(t, db, "target", false)
	ctx := context.Background()

	require.NoError(t, svc.BanUser(ctx, adminUser.ID, target.ID, true))

	var reloaded models.Account
	require.NoError(t, db.First(&reloaded, target.ID).Error)
	assert.True(t, reloaded.IsBanned)

	// Unban flips it back; the account row itself is never deleted.
	require.NoError(t, svc.BanUser(ctx, adminUser.ID, target.ID, false))
	require.NoError(t, db.First(&reloaded, target.ID).Error)
	assert.False(t, reloaded.IsBanned)

	assert.ErrorIs(t, svc.BanUser(ctx, adminUser.ID, 99999, true), ErrAccountNotFound)
	assert.ErrorIs(t, svc.BanUser(ctx, target.ID, adminUser.ID, true), ErrForbidden)
}

func TestHideComment(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	pollSvc := polls.NewService(db)
	adminUser := createAccount(t, db, "admin", true)
	voter := createAccount(t, db, "voter", false)
	ctx := context.Background()

	poll, err := svc.CreatePoll(ctx, adminUser.ID, validPollRequest())
	require.NoError(t, err)
	comment, err := pollSvc.PostComment(ctx, poll.ID, voter.ID, "spam")
	require.NoError(t, err)

	require.NoError(t, svc.HideComment(ctx, adminUser.ID, comment.ID, true))

	visible, err := pollSvc.ListComments(ctx, poll.ID)
	require.NoError(t, err)
	assert.Empty(t, visible)

	// Soft delete: the row survives for audit, and unhiding restores it.
	require.NoError(t, svc.HideComment(ctx, adminUser.ID, comment.ID, false))
	visible, err = pollSvc.ListComments(ctx, poll.ID)
	require.NoError(t, err)
	assert.Len(t, visible, 1)

	assert.ErrorIs(t, svc.HideComment(ctx, adminUser.ID, 99999, true), ErrCommentNotFound)
	assert.ErrorIs(t, svc.HideComment(ctx, voter.ID, comment.ID, true), ErrForbidden)
}

func TestCreatePollWithExpiry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewService(db)
	adminUser := createAccount(t, db, "admin", true)

	expiry := time.Now().Add(24 * time.Hour).UTC().Format(time.RFC3339)
	req := validPollRequest()
	req.ExpiresAt = &expiry

	poll, err := svc.CreatePoll(context.Background(), adminUser.ID, req)
	require.NoError(t, err)
	require.NotNil(t, poll.ExpiresAt)
	assert.Equal(t, models.PollStatusOpen, poll.EffectiveStatus(time.Now()))
	assert.Equal(t, models.PollStatusClosed, poll.EffectiveStatus(time.Now().Add(48*time.Hour)))
}
