package handler

import (
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"agilecoach/internal/auth"
	"agilecoach/internal/errors"
	"agilecoach/internal/model"
	"agilecoach/internal/service"
	"agilecoach/internal/session"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// SignUpRequest represents a sign-up form.
type SignUpRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required,min=8,max=72"`
	FirstName  string `json:"first_name" validate:"omitempty,max=100"`
	LastName   string `json:"last_name" validate:"omitempty,max=100"`
	Phone      string `json:"phone" validate:"omitempty,max=50"`
	Company    string `json:"company" validate:"omitempty,max=255"`
	RedirectTo string `json:"redirect_to"`
}

// SignUpResponse reports the new account and whether it still needs confirming.
type SignUpResponse struct {
	User                 *model.User `json:"user"`
	ConfirmationRequired bool        `json:"confirmation_required"`
}

// ConfirmRequest carries the token from a confirmation link.
type ConfirmRequest struct {
	Token string `json:"token" query:"token" validate:"required"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// LogoutRequest represents a logout request. The bearer access token, when
// present, is revoked as well.
type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// ResetPasswordRequest asks for a recovery link.
type ResetPasswordRequest struct {
	Email      string `json:"email" validate:"required,email"`
	RedirectTo string `json:"redirect_to"`
}

// RecoverRequest exchanges a link token for a session. Either the raw token or
// the full URL the link landed on may be sent.
type RecoverRequest struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
}

// AuthResponse represents an authentication response.
type AuthResponse struct {
	*service.TokenPair
	User *model.User `json:"user,omitempty"`
}

// RefreshResponse carries a new access token.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// SignUp godoc
// @Summary Create an account
// @Description Creates an unconfirmed account and mails a confirmation link.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignUpRequest true "Sign-up data"
// @Success 201 {object} SignUpResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req SignUpRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	meta := service.UserMetadata{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Company:   req.Company,
	}
	user, err := h.authService.SignUp(c.Request().Context(), req.Email, req.Password, meta, req.RedirectTo)
	if err != nil {
		return authError(err)
	}

	return c.JSON(http.StatusCreated, SignUpResponse{
		User:                 user,
		ConfirmationRequired: !user.Confirmed(),
	})
}

// Confirm godoc
// @Summary Confirm an email address
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ConfirmRequest true "Confirmation token"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/confirm [post]
func (h *AuthHandler) Confirm(c echo.Context) error {
	var req ConfirmRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.ConfirmEmail(c.Request().Context(), req.Token)
	if err != nil {
		return authError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// Login godoc
// @Summary Login user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	pair, user, err := h.authService.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return authError(err)
	}
	return c.JSON(http.StatusOK, AuthResponse{TokenPair: pair, User: user})
}

// Refresh godoc
// @Summary Refresh access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} RefreshResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	accessToken, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return authError(err)
	}
	return c.JSON(http.StatusOK, RefreshResponse{
		AccessToken: accessToken,
		TokenType:   "Bearer",
		ExpiresIn:   int64(auth.AccessTokenExpiry.Seconds()),
	})
}

// Logout godoc
// @Summary Logout user
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body LogoutRequest false "Refresh token"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	var req LogoutRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.authService.SignOut(c.Request().Context(), req.RefreshToken, accessClaims(c)); err != nil {
		return authError(err)
	}
	session.Set(c, session.Anonymous())
	return c.JSON(http.StatusOK, MessageResponse{Message: "logged out successfully"})
}

// ResetPassword godoc
// @Summary Request a password reset link
// @Description Always succeeds for a well-formed address so account existence is not revealed.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body ResetPasswordRequest true "Account email"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req ResetPasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.authService.ResetPasswordForEmail(c.Request().Context(), req.Email, req.RedirectTo); err != nil {
		return authError(err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "if the address is registered, a reset link is on its way"})
}

// Recover godoc
// @Summary Exchange a recovery or magic link for a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RecoverRequest true "Link token or landing URL"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 503 {object} errors.ErrorResponse
// @Router /auth/recover [post]
func (h *AuthHandler) Recover(c echo.Context) error {
	var req RecoverRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	token := req.Token
	if token == "" && req.RedirectURL != "" {
		tokens, err := auth.ParseRedirectTokens(req.RedirectURL)
		if err != nil {
			return badRequest("INVALID_LINK", "link carries no access token")
		}
		token = tokens.AccessToken
	}
	if token == "" {
		return errorResponse(errors.NewValidationError("token", "is required"))
	}

	pair, user, err := h.authService.SetSession(c.Request().Context(), token)
	if err != nil {
		return authError(err)
	}
	return c.JSON(http.StatusOK, AuthResponse{TokenPair: pair, User: user})
}

// Me godoc
// @Summary Current session
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} session.Session
// @Failure 401 {object} errors.ErrorResponse
// @Router /me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, session.FromContext(c))
}

// UpdateMe godoc
// @Summary Update the signed-in user
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.UserUpdate true "Fields to change"
// @Success 200 {object} model.User
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /me [put]
func (h *AuthHandler) UpdateMe(c echo.Context) error {
	s := session.FromContext(c)
	if !s.SignedIn() {
		return errorResponse(errors.ErrSessionRequired)
	}

	var req service.UserUpdate
	if err := bind(c, &req); err != nil {
		return err
	}

	user, err := h.authService.UpdateUser(c.Request().Context(), s.User.ID, req)
	if err != nil {
		return authError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// authError maps identity failures, falling back to the shared domain mapping.
func authError(err error) error {
	var status int
	var code string
	switch {
	case stderrors.Is(err, service.ErrInvalidCredentials):
		status, code = http.StatusUnauthorized, "INVALID_CREDENTIALS"
	case stderrors.Is(err, service.ErrUserAlreadyExists):
		status, code = http.StatusConflict, "USER_ALREADY_EXISTS"
	case stderrors.Is(err, service.ErrEmailNotConfirmed):
		status, code = http.StatusForbidden, "EMAIL_NOT_CONFIRMED"
	case stderrors.Is(err, service.ErrInvalidRefreshToken):
		status, code = http.StatusUnauthorized, "INVALID_REFRESH_TOKEN"
	case stderrors.Is(err, service.ErrInvalidLink):
		status, code = http.StatusUnauthorized, "INVALID_LINK"
	case stderrors.Is(err, service.ErrRecoveryUnavailable):
		status, code = http.StatusServiceUnavailable, "RECOVERY_UNAVAILABLE"
	default:
		return errorResponse(err)
	}
	return echo.NewHTTPError(status, errors.ErrorResponse{Error: err.Error(), Code: code})
}
