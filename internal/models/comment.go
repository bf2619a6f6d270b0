package models

import "time"

type Comment struct {
	ID        int       `gorm:"primaryKey" json:"id"`
	PollID    int       `gorm:"index;not null" json:"poll_id"`
	AccountID int         `json:"account_id"`
	Account   Account     `gorm:"foreignKey:AccountID" json:"-"`
	Author    *AuthorView `gorm:"-" json:"author,omitempty"`
	Content   string      `gorm:"not null" json:"content"`
	IsHidden  bool        `json:"is_hidden"`
	CreatedAt time.Time   `json:"created_at"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}
