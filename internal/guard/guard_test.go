package guard

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agilecoach/internal/model"
	"agilecoach/internal/session"
)

func signedIn(admin, instructor bool) *session.Session {
	return &session.Session{
		User:         &model.User{ID: uuid.New()},
		IsAdmin:      admin,
		IsInstructor: instructor,
	}
}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name     string
		session  *session.Session
		req      Requirement
		outcome  Outcome
		redirect string
	}{
		{"loading wins over everything", &session.Session{IsLoading: true}, RequireAdmin, Loading, ""},
		{"no user goes to login", session.Anonymous(), RequireUser, RedirectLogin, "/login?redirect=%2Fadmin%2Fcourses"},
		{"nil session goes to login", nil, RequireUser, RedirectLogin, "/login?redirect=%2Fadmin%2Fcourses"},
		{"student on admin", signedIn(false, false), RequireAdmin, RedirectDashboard, "/dashboard"},
		{"instructor on admin", signedIn(false, true), RequireAdmin, RedirectDashboard, "/dashboard"},
		{"student on instructor", signedIn(false, false), RequireInstructor, RedirectDashboard, "/dashboard"},
		{"admin on instructor", signedIn(true, false), RequireInstructor, Allow, ""},
		{"instructor on instructor", signedIn(false, true), RequireInstructor, Allow, ""},
		{"admin on admin", signedIn(true, false), RequireAdmin, Allow, ""},
		{"student on user", signedIn(false, false), RequireUser, Allow, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(tt.session, tt.req, "/admin/courses")
			assert.Equal(t, tt.outcome, d.Outcome)
			assert.Equal(t, tt.redirect, d.Redirect)
		})
	}
}

func TestEvaluate_LoginCarriesRequestedPath(t *testing.T) {
	d := Evaluate(session.Anonymous(), RequireUser, "/dashboard/registrations")
	assert.Equal(t, "/dashboard/registrations", d.From)
}

func TestRequire(t *testing.T) {
	tests := []struct {
		name     string
		session  *session.Session
		status   int
		redirect string
	}{
		{"loading", &session.Session{IsLoading: true}, http.StatusServiceUnavailable, ""},
		{"anonymous", session.Anonymous(), http.StatusUnauthorized, "/login?redirect=%2Fapi%2Fadmin%2Fusers"},
		{"student", signedIn(false, false), http.StatusForbidden, "/dashboard"},
		{"admin", signedIn(true, false), http.StatusOK, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/admin/users", nil), rec)
			session.Set(c, tt.session)

			h := Require(RequireAdmin)(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			require.NoError(t, h(c))

			assert.Equal(t, tt.status, rec.Code)
			if tt.redirect != "" {
				var body map[string]string
				require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
				assert.Equal(t, tt.redirect, body["redirect"])
			}
		})
	}
}

func TestEvaluatePath(t *testing.T) {
	assert.Equal(t, Allow, EvaluatePath(session.Anonymous(), "/courses/scrum").Outcome)
	assert.Equal(t, RedirectLogin, EvaluatePath(session.Anonymous(), "/dashboard").Outcome)
	assert.Equal(t, RedirectDashboard, EvaluatePath(signedIn(false, false), "/admin/settings").Outcome)
	assert.Equal(t, Allow, EvaluatePath(signedIn(false, true), "/instructor").Outcome)
	assert.Equal(t, Allow, EvaluatePath(signedIn(false, false), "/administrator-bio").Outcome)
}
