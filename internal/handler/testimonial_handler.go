package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"agilecoach/internal/service"
)

// TestimonialHandler serves customer quotes.
type TestimonialHandler struct {
	testimonials service.TestimonialService
}

// NewTestimonialHandler creates a new testimonial handler.
func NewTestimonialHandler(testimonials service.TestimonialService) *TestimonialHandler {
	return &TestimonialHandler{testimonials: testimonials}
}

// ListPublished godoc
// @Summary List published testimonials
// @Tags testimonials
// @Produce json
// @Param featured query bool false "Only featured testimonials"
// @Success 200 {array} model.Testimonial
// @Failure 400 {object} errors.ErrorResponse
// @Router /testimonials [get]
func (h *TestimonialHandler) ListPublished(c echo.Context) error {
	featured := false
	if raw := c.QueryParam("featured"); raw != "" {
		var err error
		if featured, err = strconv.ParseBool(raw); err != nil {
			return badRequest("INVALID_QUERY", "featured must be true or false")
		}
	}
	items, err := h.testimonials.ListPublished(c.Request().Context(), featured)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, items)
}

// List godoc
// @Summary List all testimonials
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Testimonial
// @Router /admin/testimonials [get]
func (h *TestimonialHandler) List(c echo.Context) error {
	items, err := h.testimonials.List(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, items)
}

// Create godoc
// @Summary Create a testimonial
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.TestimonialInput true "Testimonial"
// @Success 201 {object} model.Testimonial
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/testimonials [post]
func (h *TestimonialHandler) Create(c echo.Context) error {
	var req service.TestimonialInput
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.testimonials.Create(c.Request().Context(), req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, item)
}

// Update godoc
// @Summary Replace a testimonial
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Testimonial ID"
// @Param request body service.TestimonialInput true "Testimonial"
// @Success 200 {object} model.Testimonial
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/testimonials/{id} [put]
func (h *TestimonialHandler) Update(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	var req service.TestimonialInput
	if err := bind(c, &req); err != nil {
		return err
	}
	item, err := h.testimonials.Update(c.Request().Context(), id, req)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, item)
}

// Delete godoc
// @Summary Delete a testimonial
// @Tags admin
// @Security BearerAuth
// @Param id path string true "Testimonial ID"
// @Success 204
// @Failure 404 {object} errors.ErrorResponse
// @Router /admin/testimonials/{id} [delete]
func (h *TestimonialHandler) Delete(c echo.Context) error {
	id, err := pathUUID(c, "id")
	if err != nil {
		return err
	}
	if err := h.testimonials.Delete(c.Request().Context(), id); err != nil {
		return errorResponse(err)
	}
	return c.NoContent(http.StatusNoContent)
}
