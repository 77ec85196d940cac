package handler

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"agilecoach/internal/errors"
	"agilecoach/internal/model"
	"agilecoach/internal/repository"
	"agilecoach/internal/service"
	"agilecoach/internal/session"
)

func participant(n int) service.Participant {
	return service.Participant{
		FirstName: "P",
		LastName:  fmt.Sprint(n),
		Email:     fmt.Sprintf("p%d@example.com", n),
	}
}

func TestRegistrationHandler_RegisterIndividual(t *testing.T) {
	courseID := uuid.New()

	t.Run("guest registration has no owner", func(t *testing.T) {
		svc := new(MockRegistrationService)
		reg := &model.CourseRegistration{ID: uuid.New(), CourseID: courseID}
		svc.On("RegisterIndividual", mock.Anything, courseID, participant(1), (*uuid.UUID)(nil)).Return(reg, nil)

		c, rec := newContext(http.MethodPost, "/", participant(1))
		c.SetParamNames("id")
		c.SetParamValues(courseID.String())
		require.NoError(t, NewRegistrationHandler(svc, nil).RegisterIndividual(c))

		assert.Equal(t, http.StatusCreated, rec.Code)
		svc.AssertExpectations(t)
	})

	t.Run("signed-in user becomes the owner", func(t *testing.T) {
		svc := new(MockRegistrationService)
		user := &model.User{ID: uuid.New()}
		svc.On("RegisterIndividual", mock.Anything, courseID, participant(1), &user.ID).
			Return(&model.CourseRegistration{ID: uuid.New()}, nil)

		c, _ := newContext(http.MethodPost, "/", participant(1))
		c.SetParamNames("id")
		c.SetParamValues(courseID.String())
		session.Set(c, &session.Session{User: user, Role: model.RoleStudent})
		require.NoError(t, NewRegistrationHandler(svc, nil).RegisterIndividual(c))
		svc.AssertExpectations(t)
	})

	t.Run("duplicate is a conflict", func(t *testing.T) {
		svc := new(MockRegistrationService)
		svc.On("RegisterIndividual", mock.Anything, courseID, participant(1), (*uuid.UUID)(nil)).
			Return(nil, errors.ErrAlreadyRegistered)

		c, _ := newContext(http.MethodPost, "/", participant(1))
		c.SetParamNames("id")
		c.SetParamValues(courseID.String())
		assertHTTPError(t, NewRegistrationHandler(svc, nil).RegisterIndividual(c), http.StatusConflict, "ALREADY_REGISTERED")
	})

	t.Run("bad course id", func(t *testing.T) {
		c, _ := newContext(http.MethodPost, "/", participant(1))
		c.SetParamNames("id")
		c.SetParamValues("not-a-uuid")
		assertHTTPError(t, NewRegistrationHandler(nil, nil).RegisterIndividual(c), http.StatusBadRequest, "INVALID_UUID")
	})
}

func TestRegistrationHandler_RegisterGroupPartialFailure(t *testing.T) {
	courseID := uuid.New()
	form := service.GroupForm{
		Company:      "Acme",
		Contact:      service.GroupContact{Name: "Lead", Email: "lead@acme.example"},
		Participants: []service.Participant{participant(1), participant(2), participant(3)},
	}
	stored := []model.CourseRegistration{{ID: uuid.New()}, {ID: uuid.New()}}

	svc := new(MockRegistrationService)
	svc.On("RegisterGroup", mock.Anything, courseID, form, (*uuid.UUID)(nil)).
		Return(stored, fmt.Errorf("participant 3: %w", errors.ErrAlreadyRegistered))

	c, rec := newContext(http.MethodPost, "/", form)
	c.SetParamNames("id")
	c.SetParamValues(courseID.String())
	require.NoError(t, NewRegistrationHandler(svc, nil).RegisterGroup(c))

	assert.Equal(t, http.StatusConflict, rec.Code)
	var body GroupFailureResponse
	decode(t, rec, &body)
	assert.Equal(t, "ALREADY_REGISTERED", body.Code)
	assert.Len(t, body.Registrations, 2)
}

func TestRegistrationHandler_RegisterGroupValidation(t *testing.T) {
	svc := new(MockRegistrationService)
	courseID := uuid.New()
	form := service.GroupForm{
		Company:      "Acme",
		Contact:      service.GroupContact{Name: "Lead", Email: "lead@acme.example"},
		Participants: []service.Participant{participant(1), {FirstName: "No", LastName: "Mail"}},
	}

	c, _ := newContext(http.MethodPost, "/", form)
	c.SetParamNames("id")
	c.SetParamValues(courseID.String())
	body := assertHTTPError(t, NewRegistrationHandler(svc, nil).RegisterGroup(c), http.StatusBadRequest, "VALIDATION_ERROR")
	assert.Contains(t, body.Fields, "participants[1].email")
	svc.AssertNotCalled(t, "RegisterGroup", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRegistrationHandler_MyRegistrations(t *testing.T) {
	c, _ := newContext(http.MethodGet, "/api/me/registrations", nil)
	assertHTTPError(t, NewRegistrationHandler(new(MockRegistrationService), nil).MyRegistrations(c), http.StatusUnauthorized, "SESSION_REQUIRED")

	svc := new(MockRegistrationService)
	user := &model.User{ID: uuid.New()}
	svc.On("ListForUser", mock.Anything, user.ID).Return([]model.CourseRegistration{{ID: uuid.New()}}, nil)

	c, rec := newContext(http.MethodGet, "/api/me/registrations", nil)
	session.Set(c, &session.Session{User: user})
	require.NoError(t, NewRegistrationHandler(svc, nil).MyRegistrations(c))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegistrationHandler_ListForCourseIncludesCounts(t *testing.T) {
	admin := new(MockRegistrationAdminService)
	courseID := uuid.New()
	admin.On("ListForCourse", mock.Anything, courseID).Return([]model.CourseRegistration{
		{Status: model.RegistrationStatusPending},
		{Status: model.RegistrationStatusConfirmed},
		{Status: model.RegistrationStatusConfirmed},
	}, nil)

	c, rec := newContext(http.MethodGet, "/", nil)
	c.SetParamNames("id")
	c.SetParamValues(courseID.String())
	require.NoError(t, NewRegistrationHandler(nil, admin).ListForCourse(c))

	var body CourseRegistrationsResponse
	decode(t, rec, &body)
	assert.Len(t, body.Registrations, 3)
	assert.Equal(t, model.StatusCounts{Pending: 1, Confirmed: 2, Total: 3}, body.Counts)
}

func TestRegistrationHandler_UpdateStatus(t *testing.T) {
	admin := new(MockRegistrationAdminService)
	id := uuid.New()
	confirmed := model.RegistrationStatusConfirmed
	update := service.StatusUpdate{Status: &confirmed}
	admin.On("UpdateStatus", mock.Anything, id, update).Return(&model.CourseRegistration{ID: id, Status: confirmed}, nil)

	c, rec := newContext(http.MethodPatch, "/", map[string]string{"status": "confirmed"})
	c.SetParamNames("id")
	c.SetParamValues(id.String())
	require.NoError(t, NewRegistrationHandler(nil, admin).UpdateStatus(c))

	assert.Equal(t, http.StatusOK, rec.Code)
	admin.AssertExpectations(t)
}

func TestRegistrationHandler_ListAllFilters(t *testing.T) {
	t.Run("builds the filter", func(t *testing.T) {
		admin := new(MockRegistrationAdminService)
		courseID := uuid.New()
		admin.On("ListAll", mock.Anything, repository.RegistrationFilter{
			CourseID: &courseID,
			Status:   model.RegistrationStatusWaitlist,
			Limit:    25,
		}).Return([]model.CourseRegistration{}, nil)

		c, rec := newContext(http.MethodGet, "/api/admin/registrations?course_id="+courseID.String()+"&status=waitlist&limit=25", nil)
		require.NoError(t, NewRegistrationHandler(nil, admin).ListAll(c))
		assert.Equal(t, http.StatusOK, rec.Code)
		admin.AssertExpectations(t)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		c, _ := newContext(http.MethodGet, "/api/admin/registrations?status=maybe", nil)
		assertHTTPError(t, NewRegistrationHandler(nil, new(MockRegistrationAdminService)).ListAll(c), http.StatusBadRequest, "INVALID_STATUS")
	})

	t.Run("rejects oversized limit", func(t *testing.T) {
		c, _ := newContext(http.MethodGet, "/api/admin/registrations?limit=100000", nil)
		assertHTTPError(t, NewRegistrationHandler(nil, new(MockRegistrationAdminService)).ListAll(c), http.StatusBadRequest, "INVALID_QUERY")
	})
}
