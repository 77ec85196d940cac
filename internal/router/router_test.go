package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agilecoach/internal/auth"
	"agilecoach/internal/handler"
	"agilecoach/internal/model"
	"agilecoach/internal/service"
	"agilecoach/internal/session"
)

const testSecret = "router-test-secret"

type resolverFunc func(ctx context.Context, claims *auth.Claims) *session.Session

func (f resolverFunc) Resolve(ctx context.Context, claims *auth.Claims) *session.Session {
	return f(ctx, claims)
}

// roleByEmail signs users in with a role chosen from their token email.
func roleByEmail(roles map[string]model.Role) session.Resolver {
	return resolverFunc(func(_ context.Context, claims *auth.Claims) *session.Session {
		if claims == nil || claims.Type != auth.TokenAccess {
			return session.Anonymous()
		}
		role := roles[claims.Email]
		return &session.Session{
			User:         &model.User{ID: claims.UserID, Email: claims.Email},
			Role:         role,
			IsAdmin:      role == model.RoleAdmin,
			IsInstructor: role == model.RoleInstructor,
		}
	})
}

type stubUsers struct{}

func (stubUsers) GetUser(context.Context, uuid.UUID) (*model.User, error) { return &model.User{}, nil }

func (stubUsers) List(context.Context) ([]service.UserSummary, error) {
	return []service.UserSummary{{User: model.User{Email: "ada@example.com"}, Role: model.RoleAdmin}}, nil
}

func (stubUsers) SetRole(context.Context, uuid.UUID, model.Role) error { return nil }

func newTestServer(resolver session.Resolver) *echo.Echo {
	e := echo.New()
	Register(e, Handlers{
		Auth:          handler.NewAuthHandler(nil),
		Courses:       handler.NewCourseHandler(nil),
		Registrations: handler.NewRegistrationHandler(nil, nil),
		Settings:      handler.NewSettingsHandler(nil),
		Testimonials:  handler.NewTestimonialHandler(nil),
		Users:         handler.NewUserHandler(stubUsers{}),
		Media:         handler.NewMediaHandler(nil),
		Guard:         handler.NewGuardHandler(),
		Seed:          handler.NewSeedHandler(nil),
	}, Options{
		SigningKey: []byte(testSecret),
		Resolver:   resolver,
	})
	return e
}

func bearer(t *testing.T, secret, email string) string {
	t.Helper()
	token, err := auth.NewJWTService(secret).GenerateAccessToken(uuid.New(), email)
	require.NoError(t, err)
	return "Bearer " + token
}

func do(e *echo.Echo, method, target, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if authorization != "" {
		req.Header.Set(echo.HeaderAuthorization, authorization)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Healthz(t *testing.T) {
	rec := do(newTestServer(session.NewStub()), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}

func TestRouter_AdminRoutesAreGuarded(t *testing.T) {
	e := newTestServer(roleByEmail(map[string]model.Role{
		"admin@example.com":   model.RoleAdmin,
		"student@example.com": model.RoleStudent,
	}))

	t.Run("anonymous is sent to login", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/admin/users", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "UNAUTHENTICATED", body["code"])
		assert.Equal(t, "/login?redirect=%2Fapi%2Fadmin%2Fusers", body["redirect"])
	})

	t.Run("student is sent to the dashboard", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/admin/users", bearer(t, testSecret, "student@example.com"))
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Contains(t, rec.Body.String(), `"redirect":"/dashboard"`)
	})

	t.Run("admin gets through", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/admin/users", bearer(t, testSecret, "admin@example.com"))
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "ada@example.com")
	})

	t.Run("forged token is anonymous, not an error", func(t *testing.T) {
		rec := do(e, http.MethodGet, "/api/admin/users", bearer(t, "some-other-secret", "admin@example.com"))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "UNAUTHENTICATED")
	})
}

func TestRouter_LoadingSessionIsRetryable(t *testing.T) {
	e := newTestServer(resolverFunc(func(context.Context, *auth.Claims) *session.Session {
		return &session.Session{IsLoading: true}
	}))

	rec := do(e, http.MethodGet, "/api/me", bearer(t, testSecret, "anyone@example.com"))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "SESSION_LOADING")
}

func TestRouter_GuardEndpointSeesSession(t *testing.T) {
	e := newTestServer(roleByEmail(map[string]model.Role{"teach@example.com": model.RoleInstructor}))

	rec := do(e, http.MethodGet, "/api/guard?path=/instructor/courses", bearer(t, testSecret, "teach@example.com"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"outcome":"allow"`)
}

func TestCustomValidator(t *testing.T) {
	err := (&CustomValidator{}).Validate(&handler.LoginRequest{Email: "bad"})
	require.Error(t, err)
}
