package models

import "time"

const (
	PollStatusOpen   = "open"
	PollStatusClosed = "closed"
)

type Poll struct {
	ID          int          `gorm:"primaryKey" json:"id"`
	Question    string       `gorm:"not null" json:"question"`
	Description string       `json:"description"`
	Status      string       `gorm:"default:open" json:"status"`
	Options     []PollOption `gorm:"foreignKey:PollID" json:"options"`
	CreatedAt   time.Time    `json:"created_at"`
	ExpiresAt   *time.Time   `json:"expires_at,omitempty"`
}

// PollOption rows are immutable after poll creation; Position preserves the
// admin's insertion order, which is the displayed order.
type PollOption struct {
	ID       int    `gorm:"primaryKey" json:"id"`
	PollID   int    `gorm:"index;not null" json:"poll_id"`
	Text     string `gorm:"not null" json:"text"`
	Position int    `json:"position"`
}

// EffectiveStatus derives the poll status at read time. A poll whose
// expiry has passed counts as closed even if no close was ever recorded,
// so no background job is needed to flip the stored field.
func (p *Poll) EffectiveStatus(now time.Time) string {
	if p.Status == PollStatusClosed {
		return PollStatusClosed
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		return PollStatusClosed
	}
	return PollStatusOpen
}

func (p *Poll) IsOpen(now time.Time) bool {
	return p.EffectiveStatus(now) == PollStatusOpen
}

type CreatePollRequest struct {
	Question    string   `json:"question" binding:"required"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
	ExpiresAt   *string  `json:"expires_at,omitempty"` // RFC 3339
}

// OptionResult is one row of a tally. Percentages are rounded independently
// per option, so they may not sum to exactly 100.
type OptionResult struct {
	OptionID int    `json:"option_id"`
	Text     string `json:"text"`
	Count    int    `json:"count"`
	Percent  int    `json:"percent"`
}

type PollResults struct {
	PollID     int            `json:"poll_id"`
	TotalVotes int            `json:"total_votes"`
	Options    []OptionResult `json:"options"`
}
