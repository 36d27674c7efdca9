package domain

import "time"

type User struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	Login        string `gorm:"size:64;uniqueIndex;not null" json:"login"`
	Email        string `gorm:"size:256;uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"size:128;not null" json:"-"`
	PasswordSalt string `gorm:"size:64;not null" json:"-"`

	EmailConfirmed        bool       `gorm:"not null;default:false" json:"email_confirmed"`
	ConfirmationCode      *string    `gorm:"size:64;index" json:"-"`
	ConfirmationExpiresAt *time.Time `json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
