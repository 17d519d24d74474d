package model

import "time"

// Contact represents an address book entry. Ownership is a many-to-many
// relation so a contact can be shared, though every contact starts with
// exactly one owner (its creator).
type Contact struct {
	ID             uint       `json:"id" gorm:"primaryKey"`
	Name           string     `json:"name" gorm:"size:255;not null;index"`
	Surname        string     `json:"surname" gorm:"size:255;index"`
	Email          *string    `json:"email,omitempty" gorm:"size:255"`
	Phone          string     `json:"phone" gorm:"size:50;not null"`
	Birthday       *time.Time `json:"birthday,omitempty" gorm:"type:date"`
	AdditionalData *string    `json:"additional_data,omitempty" gorm:"size:255"`
	CreatedAt      time.Time  `json:"created_at"`

	// Relations
	Users []User `json:"-" gorm:"many2many:user_contacts;"`
}
