package handler

import (
	stderrors "errors"
	"net/http"
	"net/url"
	"path"
	"strconv"

	"github.com/labstack/echo/v4"

	"agilecoach/internal/errors"
	"agilecoach/internal/storage"
)

const (
	defaultMediaBucket = "media"
	maxUploadBytes     = 10 << 20
)

// MediaHandler uploads and serves stored objects.
type MediaHandler struct {
	store storage.Store
}

// NewMediaHandler creates a new media handler.
func NewMediaHandler(store storage.Store) *MediaHandler {
	return &MediaHandler{store: store}
}

// Upload godoc
// @Summary Upload an object
// @Description Stores the file under bucket/path. Existing objects are only replaced with upsert=true.
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File"
// @Param bucket formData string false "Bucket (default media)"
// @Param path formData string false "Object path (default file name)"
// @Param upsert formData bool false "Replace an existing object"
// @Param cache_control formData string false "Cache-Control served with the object"
// @Success 201 {object} storage.Object
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /admin/media [post]
func (h *MediaHandler) Upload(c echo.Context) error {
	file, err := c.FormFile("file")
	if err != nil {
		return errorResponse(errors.NewValidationError("file", "is required"))
	}
	if file.Size > maxUploadBytes {
		return errorResponse(errors.NewValidationError("file", "must be at most 10 MB"))
	}

	bucket := c.FormValue("bucket")
	if bucket == "" {
		bucket = defaultMediaBucket
	}
	objectPath := c.FormValue("path")
	if objectPath == "" {
		objectPath = path.Base(file.Filename)
	}
	upsert := false
	if raw := c.FormValue("upsert"); raw != "" {
		if upsert, err = strconv.ParseBool(raw); err != nil {
			return errorResponse(errors.NewValidationError("upsert", "must be true or false"))
		}
	}

	src, err := file.Open()
	if err != nil {
		return badRequest("INVALID_FILE", "cannot read uploaded file")
	}
	defer src.Close()

	obj, err := h.store.Upload(c.Request().Context(), bucket, objectPath, src, storage.UploadOptions{
		CacheControl: c.FormValue("cache_control"),
		ContentType:  file.Header.Get(echo.HeaderContentType),
		Upsert:       upsert,
	})
	if err != nil {
		return errorResponse(err)
	}
	return c.JSON(http.StatusCreated, obj)
}

// Serve godoc
// @Summary Download a public object
// @Tags storage
// @Param bucket path string true "Bucket"
// @Param path path string true "Object path"
// @Success 200
// @Failure 404 {object} errors.ErrorResponse
// @Router /storage/{bucket}/{path} [get]
func (h *MediaHandler) Serve(c echo.Context) error {
	objectPath := c.Param("*")
	if unescaped, err := url.PathUnescape(objectPath); err == nil {
		objectPath = unescaped
	}

	f, obj, err := h.store.Open(c.Request().Context(), c.Param("bucket"), objectPath)
	if err != nil {
		if stderrors.Is(err, storage.ErrNotFound) || stderrors.Is(err, errors.ErrInvalidObjectPath) {
			return echo.NewHTTPError(http.StatusNotFound, errors.ErrorResponse{
				Error: "object not found",
				Code:  "OBJECT_NOT_FOUND",
			})
		}
		return errorResponse(err)
	}
	defer f.Close()

	header := c.Response().Header()
	header.Set("Cache-Control", obj.CacheControl)
	if obj.ContentType != "" {
		header.Set(echo.HeaderContentType, obj.ContentType)
	}
	http.ServeContent(c.Response(), c.Request(), path.Base(obj.Path), obj.UpdatedAt, f)
	return nil
}
