package session

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"agilecoach/internal/auth"
	"agilecoach/internal/cache"
	"agilecoach/internal/model"
	"agilecoach/internal/repository"
)

const (
	contextKey    = "session"
	roleKeyPrefix = "role:"
	roleCacheTTL  = 10 * time.Minute
)

// Session is the per-request view of who is signed in and what they may do.
type Session struct {
	User         *model.User `json:"user"`
	Role         model.Role  `json:"role,omitempty"`
	IsLoading    bool        `json:"is_loading"`
	IsAdmin      bool        `json:"is_admin"`
	IsInstructor bool        `json:"is_instructor"`

	// TokenID is the jti of the access token that produced this session.
	TokenID string `json:"-"`
	// TokenTTL is how long that access token stays valid.
	TokenTTL time.Duration `json:"-"`
}

// SignedIn reports whether a user is attached to the session.
func (s *Session) SignedIn() bool {
	return s != nil && s.User != nil
}

// Anonymous is the logged-out, settled session.
func Anonymous() *Session {
	return &Session{}
}

func withRole(user *model.User, role model.Role) *Session {
	return &Session{
		User:         user,
		Role:         role,
		IsAdmin:      role == model.RoleAdmin,
		IsInstructor: role == model.RoleInstructor,
	}
}

// Resolver turns parsed token claims into a Session.
type Resolver interface {
	Resolve(ctx context.Context, claims *auth.Claims) *Session
}

// Provider resolves sessions against the user store and the role table.
type Provider struct {
	users  repository.UserRepository
	roles  repository.RoleRepository
	tokens auth.TokenStore
	cache  *cache.Client
}

var _ Resolver = (*Provider)(nil)

// NewProvider creates a provider. cache may be nil.
func NewProvider(users repository.UserRepository, roles repository.RoleRepository, tokens auth.TokenStore, c *cache.Client) *Provider {
	return &Provider{users: users, roles: roles, tokens: tokens, cache: c}
}

// Resolve builds the session for an access token. Anything other than a valid,
// non-revoked access token yields a logged-out session. A store outage while
// loading the user leaves the session loading.
func (p *Provider) Resolve(ctx context.Context, claims *auth.Claims) *Session {
	if claims == nil || claims.Type != auth.TokenAccess || claims.UserID == uuid.Nil {
		return Anonymous()
	}
	if revoked, _ := p.tokens.IsRevoked(ctx, claims.ID); revoked {
		return Anonymous()
	}

	user, err := p.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Anonymous()
		}
		log.Printf("session: load user %s: %v", claims.UserID, err)
		return &Session{IsLoading: true}
	}

	s := withRole(user, p.RoleFor(ctx, user.ID))
	s.TokenID = claims.ID
	s.TokenTTL = claims.RemainingTTL()
	return s
}

// RoleFor returns the user's role, reading through the redis role cache.
// A missing row or a lookup error means student.
func (p *Provider) RoleFor(ctx context.Context, userID uuid.UUID) model.Role {
	key := roleKeyPrefix + userID.String()
	if cached, _ := p.cache.Get(ctx, key); cached != nil {
		if role := model.Role(cached); role.Valid() {
			return role
		}
	}
	return p.derive(ctx, userID)
}

func (p *Provider) derive(ctx context.Context, userID uuid.UUID) model.Role {
	role, err := p.roles.FindRole(ctx, userID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		role = model.RoleStudent
	case err != nil:
		log.Printf("session: role lookup for %s: %v", userID, err)
		// Not cached, so the next request retries the lookup.
		return model.RoleStudent
	case !role.Valid():
		role = model.RoleStudent
	}
	_ = p.cache.Set(ctx, roleKeyPrefix+userID.String(), []byte(role), roleCacheTTL)
	return role
}

// Listen re-derives the role of every user an auth event names. Sign-outs
// drop the cached role instead. The returned func unsubscribes.
func (p *Provider) Listen(events *auth.Broadcaster) func() {
	return events.Subscribe(func(ctx context.Context, change auth.StateChange) {
		if change.UserID == uuid.Nil {
			return
		}
		if change.Event == auth.EventSignedOut {
			_ = p.cache.Delete(ctx, roleKeyPrefix+change.UserID.String())
			return
		}
		p.derive(ctx, change.UserID)
	})
}

type stub struct{}

// NewStub returns the resolver used when the identity service is not configured.
// Every request sees a logged-out, settled session.
func NewStub() Resolver {
	log.Println("WARNING: auth is not configured (JWT_SECRET empty); all requests are anonymous")
	return stub{}
}

func (stub) Resolve(context.Context, *auth.Claims) *Session {
	return Anonymous()
}

// Middleware attaches the Session for the request. It expects echo-jwt to have
// stored the parsed token under "user" when a bearer token was sent.
func Middleware(r Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var claims *auth.Claims
			if token, ok := c.Get("user").(*jwt.Token); ok && token.Valid {
				claims, _ = token.Claims.(*auth.Claims)
			}
			c.Set(contextKey, r.Resolve(c.Request().Context(), claims))
			return next(c)
		}
	}
}

// FromContext returns the request's Session, or an anonymous one.
func FromContext(c echo.Context) *Session {
	if s, ok := c.Get(contextKey).(*Session); ok && s != nil {
		return s
	}
	return Anonymous()
}

// Set stores s on the request; used by tests and by handlers that sign users in.
func Set(c echo.Context, s *Session) {
	c.Set(contextKey, s)
}
