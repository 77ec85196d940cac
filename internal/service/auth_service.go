package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"agilecoach/internal/auth"
	"agilecoach/internal/db"
	apperrors "agilecoach/internal/errors"
	"agilecoach/internal/model"
	"agilecoach/internal/notify"
	"agilecoach/internal/repository"
)

const bcryptCost = 10

var (
	// ErrInvalidCredentials is returned when email or password is incorrect.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrUserAlreadyExists is returned when trying to register an existing user.
	ErrUserAlreadyExists = errors.New("user already exists")
	// ErrInvalidRefreshToken is returned when refresh token is invalid or expired.
	ErrInvalidRefreshToken = errors.New("invalid or expired refresh token")
	// ErrEmailNotConfirmed is returned when signing in before confirming the address.
	ErrEmailNotConfirmed = errors.New("email address not confirmed")
	// ErrInvalidLink is returned for expired or tampered confirmation and recovery links.
	ErrInvalidLink = errors.New("link is invalid or has expired")
	// ErrRecoveryUnavailable is returned when a recovery link cannot be marked as used.
	ErrRecoveryUnavailable = errors.New("password recovery is temporarily unavailable")
)

// TokenPair is what a successful sign-in hands back.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// UserMetadata is the sign-up form beyond credentials.
type UserMetadata struct {
	FirstName string `json:"first_name" validate:"omitempty,max=100"`
	LastName  string `json:"last_name" validate:"omitempty,max=100"`
	Phone     string `json:"phone" validate:"omitempty,max=50"`
	Company   string `json:"company" validate:"omitempty,max=255"`
}

// UserUpdate changes the signed-in user. Nil fields are left alone.
type UserUpdate struct {
	Password *string        `json:"password" validate:"omitempty,min=8,max=72"`
	Metadata map[string]any `json:"metadata"`
	Profile  *UserMetadata  `json:"profile"`
}

type credentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// AuthOptions configure the identity flows.
type AuthOptions struct {
	PublicBaseURL            string
	RequireEmailConfirmation bool
}

// AuthService handles authentication operations.
type AuthService interface {
	SignUp(ctx context.Context, email, password string, meta UserMetadata, redirectTo string) (*model.User, error)
	ConfirmEmail(ctx context.Context, token string) (*model.User, error)
	SignIn(ctx context.Context, email, password string) (*TokenPair, *model.User, error)
	SignOut(ctx context.Context, refreshToken string, access *auth.Claims) error
	Refresh(ctx context.Context, refreshToken string) (string, error)
	ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error
	SetSession(ctx context.Context, token string) (*TokenPair, *model.User, error)
	UpdateUser(ctx context.Context, userID uuid.UUID, update UserUpdate) (*model.User, error)
	GetSession(ctx context.Context, accessToken string) (*model.User, error)
	OnAuthStateChange(listener auth.Listener) (unsubscribe func())
}

type authService struct {
	userRepo   repository.UserRepository
	jwtService *auth.JWTService
	tokenStore auth.TokenStore
	events     *auth.Broadcaster
	notifier   notify.Notifier
	opts       AuthOptions
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	userRepo repository.UserRepository,
	jwtService *auth.JWTService,
	tokenStore auth.TokenStore,
	events *auth.Broadcaster,
	notifier notify.Notifier,
	opts AuthOptions,
) AuthService {
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &authService{
		userRepo:   userRepo,
		jwtService: jwtService,
		tokenStore: tokenStore,
		events:     events,
		notifier:   notifier,
		opts:       opts,
	}
}

// SignUp creates an unconfirmed user and mails the confirmation link. No tokens are issued.
func (s *authService) SignUp(ctx context.Context, email, password string, meta UserMetadata, redirectTo string) (*model.User, error) {
	email = normalizeEmail(email)
	if err := ValidateStruct(credentials{Email: email, Password: password}); err != nil {
		return nil, err
	}
	if err := ValidateStruct(meta); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, ErrUserAlreadyExists
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("check user existence: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("encode metadata: %w", err)
	}

	user := &model.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		Metadata:     datatypes.JSON(rawMeta),
	}
	user.Profile = &model.Profile{
		UserID:    user.ID,
		FirstName: meta.FirstName,
		LastName:  meta.LastName,
		Phone:     meta.Phone,
		Company:   meta.Company,
	}
	if !s.opts.RequireEmailConfirmation {
		now := time.Now()
		user.EmailConfirmedAt = &now
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrUserAlreadyExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if s.opts.RequireEmailConfirmation {
		token, err := s.jwtService.GenerateConfirmToken(user.ID, user.Email)
		if err != nil {
			return nil, fmt.Errorf("generate confirmation token: %w", err)
		}
		s.mailLink(ctx, notify.FunctionConfirmEmail, user.Email, s.redirectBase(redirectTo, "/auth/confirm"), token, auth.TokenConfirm)
	}
	return user, nil
}

// ConfirmEmail marks the address behind a confirmation token as verified.
func (s *authService) ConfirmEmail(ctx context.Context, token string) (*model.User, error) {
	claims, err := s.jwtService.ValidateTokenOfType(token, auth.TokenConfirm)
	if err != nil {
		return nil, ErrInvalidLink
	}
	user, err := s.loadUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user.Confirmed() {
		return user, nil
	}
	now := time.Now()
	user.EmailConfirmedAt = &now
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("confirm user: %w", err)
	}
	s.publish(ctx, auth.EventUserUpdated, user.ID)
	return user, nil
}

// SignIn authenticates a user and returns access and refresh tokens.
func (s *authService) SignIn(ctx context.Context, email, password string) (*TokenPair, *model.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, ErrInvalidCredentials
	}
	if s.opts.RequireEmailConfirmation && !user.Confirmed() {
		return nil, nil, ErrEmailNotConfirmed
	}

	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	s.publish(ctx, auth.EventSignedIn, user.ID)
	return pair, user, nil
}

// SignOut deletes the refresh token and revokes the presented access token.
// Access token revocation needs redis; without it the token stays valid until expiry.
func (s *authService) SignOut(ctx context.Context, refreshToken string, access *auth.Claims) error {
	var userID uuid.UUID
	if refreshToken != "" {
		claims, err := s.jwtService.ValidateTokenOfType(refreshToken, auth.TokenRefresh)
		if err != nil {
			return ErrInvalidRefreshToken
		}
		if err := s.tokenStore.DeleteRefreshToken(ctx, claims.ID); err != nil {
			return fmt.Errorf("delete refresh token: %w", err)
		}
		userID = claims.UserID
	}
	if access != nil && access.ID != "" {
		if err := s.tokenStore.Revoke(ctx, access.ID, access.RemainingTTL()); err != nil {
			log.Printf("auth: revoke access token %s: %v", access.ID, err)
		}
		if userID == uuid.Nil {
			userID = access.UserID
		}
	}
	if userID == uuid.Nil {
		return apperrors.ErrSessionRequired
	}
	s.publish(ctx, auth.EventSignedOut, userID)
	return nil
}

// Refresh validates a refresh token and returns a new access token.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtService.ValidateTokenOfType(refreshToken, auth.TokenRefresh)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	grant, err := s.tokenStore.RefreshToken(ctx, claims.ID)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	if grant.UserID != claims.UserID || grant.Email != claims.Email {
		return "", ErrInvalidRefreshToken
	}

	accessToken, err := s.jwtService.GenerateAccessToken(claims.UserID, claims.Email)
	if err != nil {
		return "", fmt.Errorf("generate access token: %w", err)
	}
	s.publish(ctx, auth.EventTokenRefreshed, claims.UserID)
	return accessToken, nil
}

// ResetPasswordForEmail mails a recovery link when the account exists. The
// result is the same either way so account existence is not revealed.
func (s *authService) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	email = normalizeEmail(email)
	if err := ValidateStruct(struct {
		Email string `json:"email" validate:"required,email"`
	}{email}); err != nil {
		return err
	}

	user, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("auth: password reset lookup failed: %v", err)
		}
		return nil
	}
	token, err := s.jwtService.GenerateRecoveryToken(user.ID, user.Email)
	if err != nil {
		log.Printf("auth: generate recovery token: %v", err)
		return nil
	}
	s.mailLink(ctx, notify.FunctionPasswordReset, user.Email, s.redirectBase(redirectTo, "/reset-password"), token, auth.TokenRecovery)
	return nil
}

// SetSession exchanges a link token (access or recovery) for a fresh token
// pair. A recovery token is consumed before anything is issued, and is refused
// when its use cannot be recorded.
func (s *authService) SetSession(ctx context.Context, token string) (*TokenPair, *model.User, error) {
	claims, err := s.jwtService.ValidateToken(token)
	if err != nil {
		return nil, nil, ErrInvalidLink
	}
	if claims.Type != auth.TokenAccess && claims.Type != auth.TokenRecovery {
		return nil, nil, ErrInvalidLink
	}
	if claims.Type == auth.TokenRecovery {
		first, err := s.tokenStore.Consume(ctx, claims.ID, claims.RemainingTTL())
		if err != nil {
			log.Printf("auth: consume recovery token %s: %v", claims.ID, err)
			return nil, nil, ErrRecoveryUnavailable
		}
		if !first {
			return nil, nil, ErrInvalidLink
		}
	} else if revoked, _ := s.tokenStore.IsRevoked(ctx, claims.ID); revoked {
		return nil, nil, ErrInvalidLink
	}

	user, err := s.loadUser(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	pair, err := s.issue(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	if claims.Type == auth.TokenRecovery {
		s.publish(ctx, auth.EventPasswordRecovery, user.ID)
	} else {
		s.publish(ctx, auth.EventSignedIn, user.ID)
	}
	return pair, user, nil
}

// UpdateUser changes the password, metadata or profile of a signed-in user.
func (s *authService) UpdateUser(ctx context.Context, userID uuid.UUID, update UserUpdate) (*model.User, error) {
	if userID == uuid.Nil {
		return nil, apperrors.ErrSessionRequired
	}
	if err := ValidateStruct(update); err != nil {
		return nil, err
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	changed := false
	if update.Password != nil {
		hashed, err := bcrypt.GenerateFromPassword([]byte(*update.Password), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = string(hashed)
		changed = true
	}
	if update.Metadata != nil {
		merged := map[string]any{}
		if len(user.Metadata) > 0 {
			_ = json.Unmarshal(user.Metadata, &merged)
		}
		for k, v := range update.Metadata {
			merged[k] = v
		}
		raw, err := json.Marshal(merged)
		if err != nil {
			return nil, apperrors.NewValidationError("metadata", "must be a JSON object")
		}
		user.Metadata = datatypes.JSON(raw)
		changed = true
	}
	if changed {
		if err := s.userRepo.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("update user: %w", err)
		}
	}

	if p := update.Profile; p != nil {
		profile := &model.Profile{
			UserID:    user.ID,
			FirstName: p.FirstName,
			LastName:  p.LastName,
			Phone:     p.Phone,
			Company:   p.Company,
		}
		if err := s.userRepo.UpsertProfile(ctx, profile); err != nil {
			return nil, fmt.Errorf("update profile: %w", err)
		}
		user.Profile = profile
	}

	s.publish(ctx, auth.EventUserUpdated, user.ID)
	return user, nil
}

// GetSession returns the user behind a valid, non-revoked access token.
func (s *authService) GetSession(ctx context.Context, accessToken string) (*model.User, error) {
	claims, err := s.jwtService.ValidateTokenOfType(accessToken, auth.TokenAccess)
	if err != nil {
		return nil, apperrors.ErrSessionRequired
	}
	if revoked, _ := s.tokenStore.IsRevoked(ctx, claims.ID); revoked {
		return nil, apperrors.ErrSessionRequired
	}
	return s.loadUser(ctx, claims.UserID)
}

// OnAuthStateChange subscribes to sign-in, sign-out, refresh, recovery and update events.
func (s *authService) OnAuthStateChange(listener auth.Listener) func() {
	return s.events.Subscribe(listener)
}

func (s *authService) issue(ctx context.Context, user *model.User) (*TokenPair, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}
	tokenID, refreshToken, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	if err := s.tokenStore.SaveRefreshToken(ctx, tokenID, auth.RefreshGrant{UserID: user.ID, Email: user.Email}, auth.RefreshTokenExpiry); err != nil {
		return nil, fmt.Errorf("store refresh token: %w", err)
	}
	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(auth.AccessTokenExpiry.Seconds()),
	}, nil
}

func (s *authService) loadUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (s *authService) publish(ctx context.Context, event auth.AuthEvent, userID uuid.UUID) {
	if s.events == nil {
		return
	}
	s.events.Publish(ctx, auth.StateChange{Event: event, UserID: userID})
}

func (s *authService) mailLink(ctx context.Context, function, email, base, token string, typ auth.TokenType) {
	link, err := auth.BuildRedirectURL(base, auth.RedirectTokens{AccessToken: token, Type: string(typ)})
	if err != nil {
		log.Printf("auth: build %s link: %v", function, err)
		return
	}
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Invoke(ctx, function, notify.LinkPayload{Email: email, Link: link}); err != nil {
		log.Printf("auth: %s not sent: %v", function, err)
	}
}

// redirectBase keeps links on the public site; foreign redirect targets fall back to path.
func (s *authService) redirectBase(redirectTo, path string) string {
	if redirectTo != "" && (redirectTo == s.opts.PublicBaseURL || strings.HasPrefix(redirectTo, s.opts.PublicBaseURL+"/")) {
		return redirectTo
	}
	return s.opts.PublicBaseURL + path
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
