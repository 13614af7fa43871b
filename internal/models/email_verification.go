package models

import "time"

// EmailVerification holds a one-time registration code for an email.
// Only one code per (email, type) is live: sending a new code deletes
// prior rows for the pair, and the verified row is deleted when the
// registration that consumed it commits.
type EmailVerification struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Email     string    `gorm:"size:255;not null;index:idx_email_type" json:"email"`
	Code      string    `gorm:"size:6;not null" json:"-"`
	Type      string    `gorm:"size:20;not null;index:idx_email_type" json:"type"`
	ExpiresAt time.Time `gorm:"not null" json:"expires_at"`
	Verified  bool      `gorm:"default:false" json:"verified"`
	CreatedAt time.Time `gorm:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName specifies the table name for EmailVerification model
func (EmailVerification) TableName() string {
	return "email_verifications"
}
