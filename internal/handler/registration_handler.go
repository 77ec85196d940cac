package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"agilecoach/internal/errors"
	"agilecoach/internal/model"
	"agilecoach/internal/repository"
	"agilecoach/internal/service"
	"agilecoach/internal/session"
)

const maxListLimit = 500

// RegistrationHandler handles course sign-ups and their administration.
type RegistrationHandler struct {
	registrations service.RegistrationService
	admin         service.RegistrationAdminService
}

// NewRegistrationHandler creates a new registration handler.
func NewRegistrationHandler(registrations service.RegistrationService, admin service.RegistrationAdminService) *RegistrationHandler {
	return &RegistrationHandler{registrations: registrations, admin: admin}
}

// CourseRegistrationsResponse is a course's participant list with per-status totals.
type CourseRegistrationsResponse struct {
	Registrations []model.CourseRegistration `json:"registrations"`
	Counts        model.StatusCounts         `json:"counts"`
}

// GroupFailureResponse reports a failed group booking together with the rows
// that were already stored before the failure.
type GroupFailureResponse struct {
	errors.ErrorResponse
	Registrations []model.CourseRegistration `json:"registrations"`
}

// RegisterIndividual godoc
// @Summary Register one participant for a course
// @Description Guests may register when enabled; a signed-in user becomes the owner.
// @Tags registrations
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param request body service.Participant true "Participant"
// @Success 201 {object} model.CourseRegistration
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /courses/{id}/registrations [post]
func (h *RegistrationHandler) RegisterIndividual(c echo.Context) error {
	courseID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req service.Participant
	if err := bind(c, &req); err != nil {
		return err
	}

	reg, err := h.registrations.RegisterIndividual(c.Request().Context(), courseID, req, sessionUserID(c))
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, reg)
}

// RegisterGroup godoc
// @Summary Register a company group for a course
// @Tags registrations
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param request body service.GroupForm true "Group booking"
// @Success 201 {array} model.CourseRegistration
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} GroupFailureResponse
// @Router /courses/{id}/group-registrations [post]
func (h *RegistrationHandler) RegisterGroup(c echo.Context) error {
	courseID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req service.GroupForm
	if err := bind(c, &req); err != nil {
		return err
	}

	regs, err := h.registrations.RegisterGroup(c.Request().Context(), courseID, req, sessionUserID(c))
	if err != nil {
		if len(regs) == 0 {
			return errorResponse(err)
		}
		httpErr := errors.MapErrorToHTTP(err)
		return c.JSON(httpErr.StatusCode, GroupFailureResponse{
			ErrorResponse: httpErr.ToErrorResponse(),
			Registrations: regs,
		})
	}
	return c.JSON(http.StatusCreated, regs)
}

// MyRegistrations godoc
// @Summary List the signed-in user's registrations
// @Tags registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.CourseRegistration
// @Failure 401 {object} errors.ErrorResponse
// @Router /me/registrations [get]
func (h *RegistrationHandler) MyRegistrations(c echo.Context) error {
	userID := sessionUserID(c)
	if userID == nil {
		return errorResponse(errors.ErrSessionRequired)
	}
	regs, err := h.registrations.ListForUser(c.Request().Context(), *userID)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, regs)
}

// ListForCourse godoc
// @Summary List a course's registrations with status counts
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} CourseRegistrationsResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/courses/{id}/registrations [get]
func (h *RegistrationHandler) ListForCourse(c echo.Context) error {
	courseID, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	regs, err := h.admin.ListForCourse(c.Request().Context(), courseID)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, CourseRegistrationsResponse{
		Registrations: regs,
		Counts:        service.CountByStatus(regs),
	})
}

// UpdateStatus godoc
// @Summary Change a registration's status or payment status
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Param request body service.StatusUpdate true "New values"
// @Success 200 {object} model.CourseRegistration
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/registrations/{id} [patch]
func (h *RegistrationHandler) UpdateStatus(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req service.StatusUpdate
	if err := bind(c, &req); err != nil {
		return err
	}
	reg, err := h.admin.UpdateStatus(c.Request().Context(), id, req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, reg)
}

// Delete godoc
// @Summary Delete a registration
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Registration ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/registrations/{id} [delete]
func (h *RegistrationHandler) Delete(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.admin.Delete(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListAll godoc
// @Summary List registrations across courses
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param course_id query string false "Course ID"
// @Param status query string false "Registration status"
// @Param limit query int false "Maximum rows"
// @Success 200 {array} model.CourseRegistration
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/registrations [get]
func (h *RegistrationHandler) ListAll(c echo.Context) error {
	var filter repository.RegistrationFilter
	if raw := c.QueryParam("course_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return badRequest("INVALID_UUID", "invalid course_id")
		}
		filter.CourseID = &id
	}
	if raw := c.QueryParam("status"); raw != "" {
		status := model.RegistrationStatus(raw)
		if !status.Valid() {
			return errorResponse(errors.ErrInvalidStatus)
		}
		filter.Status = status
	}
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 || limit > maxListLimit {
			return badRequest("INVALID_QUERY", "limit must be between 1 and "+strconv.Itoa(maxListLimit))
		}
		filter.Limit = limit
	}

	regs, err := h.admin.ListAll(c.Request().Context(), filter)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, regs)
}

func sessionUserID(c echo.Context) *uuid.UUID {
	s := session.FromContext(c)
	if !s.SignedIn() {
		return nil
	}
	id := s.User.ID
	return &id
}
