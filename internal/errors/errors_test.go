package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{name: "wrapped duplicate", err: fmt.Errorf("register: %w", ErrAlreadyRegistered), status: http.StatusConflict, code: "ALREADY_REGISTERED"},
		{name: "course full", err: ErrCourseFull, status: http.StatusConflict, code: "COURSE_FULL"},
		{name: "missing course", err: ErrCourseNotFound, status: http.StatusNotFound, code: "COURSE_NOT_FOUND"},
		{name: "session required", err: ErrSessionRequired, status: http.StatusUnauthorized, code: "SESSION_REQUIRED"},
		{name: "bad status", err: ErrInvalidStatus, status: http.StatusBadRequest, code: "INVALID_STATUS"},
		{name: "unknown", err: fmt.Errorf("dial tcp: refused"), status: http.StatusInternalServerError, code: "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.status, httpErr.StatusCode)
			assert.Equal(t, tt.code, httpErr.Code)
		})
	}
}

func TestMapErrorToHTTP_ValidationCarriesFields(t *testing.T) {
	err := fmt.Errorf("register: %w", NewValidationError("email", "must be a valid email address"))

	httpErr := MapErrorToHTTP(err)

	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.Equal(t, "VALIDATION_ERROR", httpErr.Code)
	assert.Equal(t, "must be a valid email address", httpErr.ToErrorResponse().Fields["email"])
}

func TestMapErrorToHTTP_GenericMessageHidesInternals(t *testing.T) {
	httpErr := MapErrorToHTTP(fmt.Errorf("password for user root rejected"))
	assert.Equal(t, "internal server error", httpErr.Message)
}
