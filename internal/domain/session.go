package domain

import "time"

// Session is one logged-in device. DeviceID is minted at login and survives
// refreshes; the fingerprint always tracks the currently valid refresh token.
type Session struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"index;not null" json:"user_id"`
	DeviceID           string    `gorm:"size:64;uniqueIndex;not null" json:"device_id"`
	DeviceName         string    `gorm:"size:512" json:"device_name"`
	IP                 string    `gorm:"size:64" json:"ip"`
	RefreshFingerprint string    `gorm:"size:128;not null" json:"-"`
	IssuedAt           time.Time `gorm:"not null" json:"issued_at"`
	ExpiresAt          time.Time `gorm:"index;not null" json:"expires_at"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
