package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Course is either a scheduled course instance or a template used to stamp instances out.
type Course struct {
	ID          uuid.UUID       `json:"id" gorm:"type:char(36);primaryKey"`
	Slug        string          `json:"slug" gorm:"uniqueIndex;size:191;not null"`
	Title       string          `json:"title" gorm:"size:255;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Content     string          `json:"content" gorm:"type:text"`
	Category    string          `json:"category" gorm:"size:100;index"`
	Level       string          `json:"level" gorm:"size:50;index"`
	Price       decimal.Decimal `json:"price" gorm:"type:decimal(10,2);not null;default:0"`
	Duration    string          `json:"duration" gorm:"size:100"`
	Location    string          `json:"location" gorm:"size:255"`
	Capacity    int             `json:"capacity" gorm:"not null;default:0"` // 0 means unlimited
	ImageURL    string          `json:"image_url,omitempty" gorm:"size:512"`
	StartDate   *time.Time      `json:"start_date,omitempty" gorm:"index"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	IsPublished bool            `json:"is_published" gorm:"default:false;index"`
	IsTemplate  bool            `json:"is_template" gorm:"default:false;index"`
	TemplateID  *uuid.UUID      `json:"template_id,omitempty" gorm:"type:char(36);index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// BeforeCreate sets UUID before creating the record.
func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// OpenForRegistration reports whether visitors may sign up for the course.
func (c *Course) OpenForRegistration() bool {
	return c.IsPublished && !c.IsTemplate
}
