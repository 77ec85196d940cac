package model

import (
	"time"

	"gorm.io/datatypes"
)

// SiteSetting is one row of the flat key-value settings table.
type SiteSetting struct {
	Key         string         `json:"key" gorm:"primaryKey;size:191"`
	Value       datatypes.JSON `json:"value"`
	Description string         `json:"description,omitempty" gorm:"size:512"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
