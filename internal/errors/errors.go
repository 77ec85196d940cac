package errors

import (
	"errors"
	"net/http"
)

var (
	// ErrCourseNotFound is returned when a course does not exist or is not open for registration.
	ErrCourseNotFound = errors.New("course not found")
	// ErrRegistrationNotFound is returned when a registration does not exist.
	ErrRegistrationNotFound = errors.New("registration not found")
	// ErrAlreadyRegistered is returned when the store rejects a duplicate registration.
	ErrAlreadyRegistered = errors.New("already registered for this course")
	// ErrCourseFull is returned when capacity enforcement rejects a registration.
	ErrCourseFull = errors.New("course is fully booked")
	// ErrGuestRegistrationDisabled is returned for anonymous sign-ups when guests are not allowed.
	ErrGuestRegistrationDisabled = errors.New("sign in to register for this course")
	// ErrInvalidStatus is returned when a status or payment status is outside its enum.
	ErrInvalidStatus = errors.New("invalid status")
	// ErrSlugTaken is returned when a course slug is already in use.
	ErrSlugTaken = errors.New("slug already in use")
	// ErrNotATemplate is returned when instantiating from a course that is not a template.
	ErrNotATemplate = errors.New("course is not a template")
	// ErrTestimonialNotFound is returned when a testimonial does not exist.
	ErrTestimonialNotFound = errors.New("testimonial not found")
	// ErrUserNotFound is returned when a user does not exist.
	ErrUserNotFound = errors.New("user not found")
	// ErrInvalidRole is returned for unknown role names.
	ErrInvalidRole = errors.New("invalid role")
	// ErrSessionRequired is returned by operations that need a signed-in user.
	ErrSessionRequired = errors.New("an active session is required")
	// ErrObjectExists is returned when uploading over an existing object without upsert.
	ErrObjectExists = errors.New("object already exists")
	// ErrInvalidObjectPath is returned for storage paths escaping their bucket.
	ErrInvalidObjectPath = errors.New("invalid object path")
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ValidationError carries field-level failures; it never reaches persistence.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

// NewValidationError creates a validation error for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// MapErrorToHTTP maps domain errors to HTTP errors. Unknown errors become a generic 500.
func MapErrorToHTTP(err error) *HTTPError {
	var verr *ValidationError
	if errors.As(err, &verr) {
		httpErr := NewHTTPError(http.StatusBadRequest, verr.Error(), "VALIDATION_ERROR")
		httpErr.Fields = verr.Fields
		return httpErr
	}

	switch {
	case errors.Is(err, ErrCourseNotFound):
		return NewHTTPError(http.StatusNotFound, ErrCourseNotFound.Error(), "COURSE_NOT_FOUND")
	case errors.Is(err, ErrRegistrationNotFound):
		return NewHTTPError(http.StatusNotFound, ErrRegistrationNotFound.Error(), "REGISTRATION_NOT_FOUND")
	case errors.Is(err, ErrTestimonialNotFound):
		return NewHTTPError(http.StatusNotFound, ErrTestimonialNotFound.Error(), "TESTIMONIAL_NOT_FOUND")
	case errors.Is(err, ErrUserNotFound):
		return NewHTTPError(http.StatusNotFound, ErrUserNotFound.Error(), "USER_NOT_FOUND")
	case errors.Is(err, ErrAlreadyRegistered):
		return NewHTTPError(http.StatusConflict, ErrAlreadyRegistered.Error(), "ALREADY_REGISTERED")
	case errors.Is(err, ErrCourseFull):
		return NewHTTPError(http.StatusConflict, ErrCourseFull.Error(), "COURSE_FULL")
	case errors.Is(err, ErrSlugTaken):
		return NewHTTPError(http.StatusConflict, ErrSlugTaken.Error(), "SLUG_TAKEN")
	case errors.Is(err, ErrObjectExists):
		return NewHTTPError(http.StatusConflict, ErrObjectExists.Error(), "OBJECT_EXISTS")
	case errors.Is(err, ErrGuestRegistrationDisabled), errors.Is(err, ErrSessionRequired):
		return NewHTTPError(http.StatusUnauthorized, err.Error(), "SESSION_REQUIRED")
	case errors.Is(err, ErrInvalidStatus):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidStatus.Error(), "INVALID_STATUS")
	case errors.Is(err, ErrInvalidRole):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidRole.Error(), "INVALID_ROLE")
	case errors.Is(err, ErrNotATemplate):
		return NewHTTPError(http.StatusBadRequest, ErrNotATemplate.Error(), "NOT_A_TEMPLATE")
	case errors.Is(err, ErrInvalidObjectPath):
		return NewHTTPError(http.StatusBadRequest, ErrInvalidObjectPath.Error(), "INVALID_PATH")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
