package handler

import (
	"log"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"agilecoach/internal/auth"
	"agilecoach/internal/errors"
)

// MessageResponse is returned by endpoints that have nothing else to report.
type MessageResponse struct {
	Message string `json:"message"`
}

func errorResponse(err error) error {
	httpErr := errors.MapErrorToHTTP(err)
	if httpErr.StatusCode >= http.StatusInternalServerError {
		log.Printf("handler: %v", err)
	}
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func badRequest(code, message string) error {
	return echo.NewHTTPError(http.StatusBadRequest, errors.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// bind decodes the request and runs the echo validator when one is registered.
func bind(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return badRequest("INVALID_REQUEST", "invalid request body")
	}
	if err := c.Validate(req); err != nil {
		if err == echo.ErrValidatorNotRegistered {
			return nil
		}
		return errorResponse(err)
	}
	return nil
}

func pathUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, badRequest("INVALID_UUID", "invalid "+name)
	}
	return id, nil
}

// accessClaims returns the claims of a valid access token parsed by echo-jwt, if any.
func accessClaims(c echo.Context) *auth.Claims {
	token, ok := c.Get("user").(*jwt.Token)
	if !ok || !token.Valid {
		return nil
	}
	claims, ok := token.Claims.(*auth.Claims)
	if !ok || claims.Type != auth.TokenAccess {
		return nil
	}
	return claims
}
