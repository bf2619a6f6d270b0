package models

import "time"

type Suggestion struct {
	ID          int       `gorm:"primaryKey" json:"id"`
	AccountID   int         `json:"account_id"`
	Account     Account     `gorm:"foreignKey:AccountID" json:"-"`
	Author      *AuthorView `gorm:"-" json:"author,omitempty"`
	Title       string      `gorm:"not null" json:"title"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	CreatedAt   time.Time   `json:"created_at"`
}

type CreateSuggestionRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
}
