package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"agilecoach/internal/repository"
	"agilecoach/internal/service"
)

// CourseHandler serves the public catalog and the admin course editor.
type CourseHandler struct {
	courseService service.CourseService
}

// NewCourseHandler creates a new course handler.
func NewCourseHandler(courseService service.CourseService) *CourseHandler {
	return &CourseHandler{courseService: courseService}
}

// PublishRequest toggles catalog visibility.
type PublishRequest struct {
	Published bool `json:"published"`
}

// ListPublished godoc
// @Summary List published courses
// @Tags courses
// @Produce json
// @Param category query string false "Category filter"
// @Param level query string false "Level filter"
// @Success 200 {array} model.Course
// @Failure 500 {object} errors.ErrorResponse
// @Router /courses [get]
func (h *CourseHandler) ListPublished(c echo.Context) error {
	courses, err := h.courseService.ListPublished(c.Request().Context(), c.QueryParam("category"), c.QueryParam("level"))
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, courses)
}

// GetBySlug godoc
// @Summary Get a published course
// @Tags courses
// @Produce json
// @Param slug path string true "Course slug"
// @Success 200 {object} model.Course
// @Failure 404 {object} errors.ErrorResponse
// @Router /courses/{slug} [get]
func (h *CourseHandler) GetBySlug(c echo.Context) error {
	course, err := h.courseService.GetBySlug(c.Request().Context(), c.Param("slug"))
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, course)
}

// List godoc
// @Summary List all courses
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param templates query bool false "Only templates (true) or only instances (false)"
// @Param category query string false "Category filter"
// @Param level query string false "Level filter"
// @Success 200 {array} model.Course
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/courses [get]
func (h *CourseHandler) List(c echo.Context) error {
	filter := repository.CourseFilter{
		Category: c.QueryParam("category"),
		Level:    c.QueryParam("level"),
	}
	if raw := c.QueryParam("templates"); raw != "" {
		templates, err := strconv.ParseBool(raw)
		if err != nil {
			return badRequest("INVALID_QUERY", "templates must be true or false")
		}
		filter.Templates = &templates
	}

	courses, err := h.courseService.List(c.Request().Context(), filter)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, courses)
}

// Get godoc
// @Summary Get any course
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 200 {object} model.Course
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/courses/{id} [get]
func (h *CourseHandler) Get(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	course, err := h.courseService.Get(c.Request().Context(), id)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, course)
}

// Create godoc
// @Summary Create a course or template
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.CourseInput true "Course"
// @Success 201 {object} model.Course
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/courses [post]
func (h *CourseHandler) Create(c echo.Context) error {
	var req service.CourseInput
	if err := bind(c, &req); err != nil {
		return err
	}
	course, err := h.courseService.Create(c.Request().Context(), req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, course)
}

// CreateFromTemplate godoc
// @Summary Schedule a course from a template
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Template ID"
// @Param request body service.Schedule true "Schedule"
// @Success 201 {object} model.Course
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/courses/{id}/from-template [post]
func (h *CourseHandler) CreateFromTemplate(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req service.Schedule
	if err := bind(c, &req); err != nil {
		return err
	}
	course, err := h.courseService.CreateFromTemplate(c.Request().Context(), id, req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, course)
}

// Update godoc
// @Summary Replace a course's editable fields
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param request body service.CourseInput true "Course"
// @Success 200 {object} model.Course
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/courses/{id} [put]
func (h *CourseHandler) Update(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req service.CourseInput
	if err := bind(c, &req); err != nil {
		return err
	}
	course, err := h.courseService.Update(c.Request().Context(), id, req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, course)
}

// Publish godoc
// @Summary Publish or unpublish a course
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Param request body PublishRequest true "Visibility"
// @Success 200 {object} model.Course
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/courses/{id}/publish [post]
func (h *CourseHandler) Publish(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req PublishRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	course, err := h.courseService.SetPublished(c.Request().Context(), id, req.Published)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, course)
}

// Delete godoc
// @Summary Delete a course
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Course ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/courses/{id} [delete]
func (h *CourseHandler) Delete(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.courseService.Delete(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}
