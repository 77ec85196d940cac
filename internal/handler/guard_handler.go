package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"agilecoach/internal/guard"
	"agilecoach/internal/session"
)

// GuardHandler lets the frontend ask whether the current session may open a screen.
type GuardHandler struct{}

// NewGuardHandler creates a new guard handler.
func NewGuardHandler() *GuardHandler {
	return &GuardHandler{}
}

// Check godoc
// @Summary Evaluate access to a frontend screen
// @Description Returns allow, loading, redirect_login or redirect_dashboard for the given path.
// @Tags auth
// @Produce json
// @Param path query string true "Screen path, e.g. /admin/courses"
// @Success 200 {object} guard.Decision
// @Failure 400 {object} errors.ErrorResponse
// @Router /guard [get]
func (h *GuardHandler) Check(c echo.Context) error {
	p := c.QueryParam("path")
	if p == "" || p[0] != '/' {
		return badRequest("INVALID_QUERY", "path must be an absolute screen path")
	}
	return c.JSON(http.StatusOK, guard.EvaluatePath(session.FromContext(c), p))
}
