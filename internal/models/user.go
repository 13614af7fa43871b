package models

import "time"

// User represents the users table
type User struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	LoginID       string     `gorm:"uniqueIndex;not null;size:50" json:"login_id"`
	PasswordHash  string     `gorm:"not null;size:255" json:"-"`
	Email         string     `gorm:"size:255;not null" json:"email"`
	Name          string     `gorm:"size:100;not null" json:"name"`
	Role          string     `gorm:"size:20;default:'hospital'" json:"role"`
	HospitalID    uint       `gorm:"not null;index" json:"hospital_id"`
	IsActive      bool       `gorm:"default:false" json:"is_active"`
	LoginAttempts int        `gorm:"default:0" json:"-"`
	LockedUntil   *time.Time `json:"-"`
	LastLogin     *time.Time `json:"last_login,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`

	// Relationships
	Hospital Hospital `gorm:"foreignKey:HospitalID" json:"hospital,omitempty"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}
