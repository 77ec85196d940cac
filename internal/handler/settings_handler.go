package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"agilecoach/internal/errors"
	"agilecoach/internal/model"
)

// SettingsService is the part of the settings store the HTTP layer needs.
type SettingsService interface {
	GetAll(ctx context.Context) (map[string]json.RawMessage, error)
	Upsert(ctx context.Context, key string, value json.RawMessage, description *string) (*model.SiteSetting, error)
}

// SettingsHandler exposes site-wide settings.
type SettingsHandler struct {
	settings SettingsService
}

// NewSettingsHandler creates a new settings handler.
func NewSettingsHandler(settings SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

// UpsertSettingRequest is the new value of one setting key.
type UpsertSettingRequest struct {
	Value       json.RawMessage `json:"value" swaggertype:"object"`
	Description *string         `json:"description,omitempty"`
}

// GetAll godoc
// @Summary All site settings keyed by name
// @Tags settings
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 500 {object} errors.ErrorResponse
// @Router /settings [get]
func (h *SettingsHandler) GetAll(c echo.Context) error {
	values, err := h.settings.GetAll(c.Request().Context())
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, values)
}

// Upsert godoc
// @Summary Create or replace a site setting
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param key path string true "Setting key"
// @Param request body UpsertSettingRequest true "Value"
// @Success 200 {object} model.SiteSetting
// @Failure 400 {object} errors.ErrorResponse
// @Router /admin/settings/{key} [put]
func (h *SettingsHandler) Upsert(c echo.Context) error {
	var req UpsertSettingRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	if len(req.Value) == 0 {
		return errorResponse(errors.NewValidationError("value", "is required"))
	}

	setting, err := h.settings.Upsert(c.Request().Context(), c.Param("key"), req.Value, req.Description)
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusOK, setting)
}
