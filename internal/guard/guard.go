package guard

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "agilecoach/internal/errors"
	"agilecoach/internal/session"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

// Requirement is the minimum standing a route asks for.
type Requirement string

const (
	RequireUser       Requirement = "user"
	RequireInstructor Requirement = "instructor"
	RequireAdmin      Requirement = "admin"
)

// Outcome is the result of evaluating a requirement against a session.
type Outcome string

const (
	Loading           Outcome = "loading"
	RedirectLogin     Outcome = "redirect_login"
	RedirectDashboard Outcome = "redirect_dashboard"
	Allow             Outcome = "allow"
)

// Decision is what a protected route should do for the current session.
type Decision struct {
	Outcome  Outcome `json:"outcome"`
	Redirect string  `json:"redirect,omitempty"`
	// From is the originally requested path, kept for post-login return.
	From string `json:"from,omitempty"`
}

// Evaluate decides access. It is pure; callers re-evaluate on every request.
func Evaluate(s *session.Session, req Requirement, requestedPath string) Decision {
	switch {
	case s != nil && s.IsLoading:
		return Decision{Outcome: Loading}
	case !s.SignedIn():
		return Decision{
			Outcome:  RedirectLogin,
			Redirect: LoginPath + "?redirect=" + url.QueryEscape(requestedPath),
			From:     requestedPath,
		}
	case req == RequireAdmin && !s.IsAdmin:
		return Decision{Outcome: RedirectDashboard, Redirect: DashboardPath}
	case req == RequireInstructor && !s.IsInstructor && !s.IsAdmin:
		return Decision{Outcome: RedirectDashboard, Redirect: DashboardPath}
	}
	return Decision{Outcome: Allow}
}

// Require rejects requests whose session does not satisfy req.
func Require(req Requirement) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			d := Evaluate(session.FromContext(c), req, c.Request().URL.RequestURI())
			switch d.Outcome {
			case Loading:
				return c.JSON(http.StatusServiceUnavailable, apperrors.ErrorResponse{
					Error: "session is still loading, retry shortly",
					Code:  "SESSION_LOADING",
				})
			case RedirectLogin:
				return c.JSON(http.StatusUnauthorized, redirectBody{
					ErrorResponse: apperrors.ErrorResponse{Error: "sign in required", Code: "UNAUTHENTICATED"},
					Redirect:      d.Redirect,
				})
			case RedirectDashboard:
				return c.JSON(http.StatusForbidden, redirectBody{
					ErrorResponse: apperrors.ErrorResponse{Error: "insufficient role", Code: "FORBIDDEN"},
					Redirect:      d.Redirect,
				})
			}
			return next(c)
		}
	}
}

type redirectBody struct {
	apperrors.ErrorResponse
	Redirect string `json:"redirect"`
}

// Screen binds a frontend path prefix to the standing it needs.
type Screen struct {
	Prefix      string
	Requirement Requirement
}

// Screens lists the protected areas of the site, most specific first.
var Screens = []Screen{
	{Prefix: "/admin", Requirement: RequireAdmin},
	{Prefix: "/instructor", Requirement: RequireInstructor},
	{Prefix: "/dashboard", Requirement: RequireUser},
	{Prefix: "/profile", Requirement: RequireUser},
}

// ForPath finds the requirement for a screen path; public paths report false.
func ForPath(p string) (Requirement, bool) {
	for _, s := range Screens {
		if p == s.Prefix || strings.HasPrefix(p, s.Prefix+"/") {
			return s.Requirement, true
		}
	}
	return "", false
}

// EvaluatePath decides access to a frontend screen.
func EvaluatePath(s *session.Session, p string) Decision {
	req, ok := ForPath(p)
	if !ok {
		if s != nil && s.IsLoading {
			return Decision{Outcome: Loading}
		}
		return Decision{Outcome: Allow}
	}
	return Evaluate(s, req, p)
}
