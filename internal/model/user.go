package model

import "time"

// User represents a registered account in the system.
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Username     string    `json:"username" gorm:"size:50;not null"`
	Email        string    `json:"email" gorm:"uniqueIndex;size:250;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Confirmed    bool      `json:"-" gorm:"default:false"`
	RefreshToken *string   `json:"-" gorm:"size:255"` // Single live refresh token, nil when revoked
	Avatar       *string   `json:"avatar,omitempty" gorm:"size:255"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"-"`

	// Relations
	Contacts []Contact `json:"-" gorm:"many2many:user_contacts;"`
}
