package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RegistrationStatus is the booking state of a registration.
type RegistrationStatus string

const (
	RegistrationStatusPending   RegistrationStatus = "pending"
	RegistrationStatusConfirmed RegistrationStatus = "confirmed"
	RegistrationStatusWaitlist  RegistrationStatus = "waitlist"
	RegistrationStatusCancelled RegistrationStatus = "cancelled"
)

// Valid reports whether s is a known status.
func (s RegistrationStatus) Valid() bool {
	switch s {
	case RegistrationStatusPending, RegistrationStatusConfirmed, RegistrationStatusWaitlist, RegistrationStatusCancelled:
		return true
	}
	return false
}

// PaymentStatus is the payment state of a registration.
type PaymentStatus string

const (
	PaymentStatusUnpaid        PaymentStatus = "unpaid"
	PaymentStatusPartiallyPaid PaymentStatus = "partially-paid"
	PaymentStatusPaid          PaymentStatus = "paid"
	PaymentStatusRefunded      PaymentStatus = "refunded"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentStatusUnpaid, PaymentStatusPartiallyPaid, PaymentStatusPaid, PaymentStatusRefunded:
		return true
	}
	return false
}

// CourseRegistration is one participant's booking for one course.
// Group bookings are N rows sharing GroupReference; there is no group entity.
type CourseRegistration struct {
	ID             uuid.UUID          `json:"id" gorm:"type:char(36);primaryKey"`
	CourseID       uuid.UUID          `json:"course_id" gorm:"type:char(36);not null;index;uniqueIndex:idx_registration_course_user"`
	UserID         *uuid.UUID         `json:"user_id" gorm:"type:char(36);uniqueIndex:idx_registration_course_user"`
	Status         RegistrationStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	PaymentStatus  PaymentStatus      `json:"payment_status" gorm:"type:varchar(20);not null;default:'unpaid'"`
	IsGroup        bool               `json:"is_group" gorm:"default:false"`
	GroupReference string             `json:"group_reference,omitempty" gorm:"size:255;index"`
	Metadata       datatypes.JSON     `json:"metadata"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`

	// Relations
	Course *Course `json:"course,omitempty" gorm:"foreignKey:CourseID;constraint:OnDelete:CASCADE"`
	User   *User   `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// BeforeCreate sets UUID before creating the record.
func (r *CourseRegistration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// HasOwner reports whether the row belongs to a real user rather than a guest or group placeholder.
func (r *CourseRegistration) HasOwner() bool {
	return r.UserID != nil && *r.UserID != uuid.Nil
}

// StatusCounts is a client-side fold over a loaded registration list.
type StatusCounts struct {
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Waitlist  int `json:"waitlist"`
	Cancelled int `json:"cancelled"`
	Total     int `json:"total"`
}

// RegistrationMetadata is the free-form participant data stored in the metadata column.
type RegistrationMetadata struct {
	FirstName       string        `json:"first_name"`
	LastName        string        `json:"last_name"`
	Email           string        `json:"email"`
	Phone           string        `json:"phone,omitempty"`
	Company         string        `json:"company,omitempty"`
	SpecialRequests string        `json:"special_requests,omitempty"`
	GroupContact    *GroupContact `json:"group_contact,omitempty"`
}

// GroupContact is the person who submitted a group booking on behalf of a company.
type GroupContact struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Details decodes the metadata column.
func (r *CourseRegistration) Details() (RegistrationMetadata, error) {
	var meta RegistrationMetadata
	if len(r.Metadata) == 0 {
		return meta, nil
	}
	err := json.Unmarshal(r.Metadata, &meta)
	return meta, err
}
