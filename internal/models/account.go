package models

import "time"

type Account struct {
	ID           int    `gorm:"primaryKey" json:"id"`
	VoterID      string `gorm:"uniqueIndex;not null" json:"voter_id"`
	Username     string `gorm:"uniqueIndex;not null" json:"username"`
	PasswordHash string `gorm:"not null" json:"-"`
	FullName     string `json:"full_name"`
	District     string `json:"district"` // copied from the registry at verification time
	Avatar       string `json:"avatar"`   // stores avatar ID (1-6) or URL

	// Notification preferences
	NotifyEmail string `json:"notify_email"`
	NotifyPhone string `json:"notify_phone"`
	SMSOptIn    bool   `json:"sms_opt_in"`

	IsAdmin  bool `json:"is_admin"`
	IsBanned bool `json:"is_banned"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AuthorView is the public shape of an account when it appears as the
// author of a comment or suggestion. It carries attribution only, none
// of the fields that feed verification or account recovery.
type AuthorView struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Avatar   string `json:"avatar"`
	District string `json:"district"`
}

func (a *Account) PublicAuthor() *AuthorView {
	return &AuthorView{
		Username: a.Username,
		FullName: a.FullName,
		Avatar:   a.Avatar,
		District: a.District,
	}
}

type RegisterRequest struct {
	FullName        string `json:"full_name" binding:"required"`
	VoterID         string `json:"voter_id" binding:"required"`
	Username        string `json:"username" binding:"required"`
	Password        string `json:"password" binding:"required,min=6"`
	SecondaryFactor string `json:"secondary_factor" binding:"required"` // DOB or address fragment
	NotifyEmail     string `json:"notify_email"`
	NotifyPhone     string `json:"notify_phone"`
	SMSOptIn        bool   `json:"sms_opt_in"`
	Avatar          string `json:"avatar"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type VerifyIdentityRequest struct {
	LastName string `json:"lastName" binding:"required"`
	VoterID  string `json:"voterId" binding:"required"`
	DOB      string `json:"dob"`
	Address  string `json:"address"`
}

type ResetPasswordRequest struct {
	LastName string `json:"lastName" binding:"required"`
	VoterID  string `json:"voterId" binding:"required"`
	Verifier string `json:"verifier" binding:"required"`
}

type AuthResponse struct {
	Token   string  `json:"token"`
	Account Account `json:"account"`
	Message string  `json:"message"`
}
