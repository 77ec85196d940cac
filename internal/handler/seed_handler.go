package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"

	"agilecoach/internal/seed"
)

// CatalogSeeder applies seed catalogs.
type CatalogSeeder interface {
	Apply(ctx context.Context, cat seed.Catalog) (seed.Result, error)
}

// SeedHandler handles seed data endpoints.
type SeedHandler struct {
	seeder CatalogSeeder
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(seeder CatalogSeeder) *SeedHandler {
	return &SeedHandler{seeder: seeder}
}

// SeedResponse represents the seed response.
type SeedResponse struct {
	Message string      `json:"message"`
	Result  seed.Result `json:"result"`
}

// Seed godoc
// @Summary Seed courses, settings and testimonials
// @Description Applies the posted catalog, or the built-in starter catalog when the body is empty. Existing rows are skipped.
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body seed.Catalog false "Catalog"
// @Success 200 {object} SeedResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /admin/seed [post]
func (h *SeedHandler) Seed(c echo.Context) error {
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxUploadBytes))
	if err != nil {
		return badRequest("INVALID_REQUEST", "cannot read request body")
	}

	var cat seed.Catalog
	if len(body) == 0 {
		cat, err = seed.Default()
	} else {
		cat, err = seed.Parse(body)
	}
	if err != nil {
		return badRequest("INVALID_CATALOG", err.Error())
	}

	res, err := h.seeder.Apply(c.Request().Context(), cat)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, SeedResponse{
		Message: "catalog seeded successfully",
		Result:  res,
	})
}
