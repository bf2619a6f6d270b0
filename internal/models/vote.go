package models

import "time"

// Vote is keyed by (poll_id, account_id): one vote per voter per poll,
// enforced by the composite unique index. Re-voting replaces the row.
// Anonymity is chosen per vote, not per account.
type Vote struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	PollID      int       `gorm:"uniqueIndex:idx_votes_poll_account;not null" json:"poll_id"`
	AccountID   int       `gorm:"uniqueIndex:idx_votes_poll_account;not null" json:"account_id"`
	OptionID    int       `gorm:"not null" json:"option_id"`
	IsAnonymous bool      `json:"is_anonymous"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CastVoteRequest struct {
	OptionID    int  `json:"option_id" binding:"required"`
	IsAnonymous bool `json:"is_anonymous"`
}

// VoterListEntry is the anonymity projection of one vote: district is always
// shown, name and avatar only when the vote was not cast anonymously.
type VoterListEntry struct {
	District    string `json:"district"`
	IsAnonymous bool   `json:"is_anonymous"`
	FullName    string `json:"full_name,omitempty"`
	Avatar      string `json:"avatar,omitempty"`
}
