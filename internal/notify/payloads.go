package notify

import (
	"github.com/google/uuid"

	"agilecoach/internal/model"
)

// RegistrationPayload is the body of course-registration-notification.
type RegistrationPayload struct {
	Registration   model.RegistrationMetadata `json:"registration"`
	CourseID       uuid.UUID                  `json:"course_id"`
	CourseTitle    string                     `json:"course_title"`
	RegistrationID uuid.UUID                  `json:"registration_id"`
}

// GroupRegistrationPayload is the body of group-registration-notification.
type GroupRegistrationPayload struct {
	GroupRegistration GroupRegistration `json:"groupRegistration"`
	CourseID          uuid.UUID         `json:"course_id"`
	CourseTitle       string            `json:"course_title"`
	RegistrationIDs   []uuid.UUID       `json:"registration_ids"`
}

// GroupRegistration summarises a company booking.
type GroupRegistration struct {
	Company      string                       `json:"company"`
	Contact      model.GroupContact           `json:"contact"`
	Participants []model.RegistrationMetadata `json:"participants"`
}

// LinkPayload is the body of the auth mails that carry a one-time link.
type LinkPayload struct {
	Email string `json:"email"`
	Link  string `json:"link"`
}
