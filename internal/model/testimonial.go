package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Testimonial is a customer quote shown on the public site when published.
type Testimonial struct {
	ID         uuid.UUID  `json:"id" gorm:"type:char(36);primaryKey"`
	Name       string     `json:"name" gorm:"size:255;not null"`
	Role       string     `json:"role,omitempty" gorm:"size:255"`
	Company    string     `json:"company,omitempty" gorm:"size:255"`
	Content    string     `json:"content" gorm:"type:text;not null"`
	Rating     *int       `json:"rating,omitempty"`
	ImageURL   string     `json:"image_url,omitempty" gorm:"size:512"`
	Published  bool       `json:"published" gorm:"default:false;index"`
	IsFeatured bool       `json:"is_featured" gorm:"default:false;index"`
	CourseID   *uuid.UUID `json:"course_id,omitempty" gorm:"type:char(36);index"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (t *Testimonial) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
