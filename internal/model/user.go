package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User represents an identity known to the system.
type User struct {
	ID               uuid.UUID      `json:"id" gorm:"type:char(36);primaryKey"`
	Email            string         `json:"email" gorm:"uniqueIndex;size:255;not null"`
	PasswordHash     string         `json:"-" gorm:"size:255;not null"` // Never expose in JSON
	Metadata         datatypes.JSON `json:"metadata,omitempty"`
	EmailConfirmedAt *time.Time     `json:"email_confirmed_at,omitempty"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	// Relations
	Profile *Profile `json:"profile,omitempty" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// BeforeCreate sets UUID before creating the record.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Confirmed reports whether the user verified their email address.
func (u *User) Confirmed() bool {
	return u.EmailConfirmedAt != nil
}

// Profile holds the user's display details.
type Profile struct {
	UserID    uuid.UUID `json:"user_id" gorm:"type:char(36);primaryKey"`
	FirstName string    `json:"first_name" gorm:"size:100"`
	LastName  string    `json:"last_name" gorm:"size:100"`
	Phone     string    `json:"phone,omitempty" gorm:"size:50"`
	Company   string    `json:"company,omitempty" gorm:"size:255"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FullName joins first and last name.
func (p *Profile) FullName() string {
	if p == nil {
		return ""
	}
	switch {
	case p.FirstName == "":
		return p.LastName
	case p.LastName == "":
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
