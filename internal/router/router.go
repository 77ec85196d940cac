package router

import (
	"net/http"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"agilecoach/internal/auth"
	"agilecoach/internal/guard"
	"agilecoach/internal/handler"
	"agilecoach/internal/service"
	"agilecoach/internal/session"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth          *handler.AuthHandler
	Courses       *handler.CourseHandler
	Registrations *handler.RegistrationHandler
	Settings      *handler.SettingsHandler
	Testimonials  *handler.TestimonialHandler
	Users         *handler.UserHandler
	Media         *handler.MediaHandler
	Guard         *handler.GuardHandler
	Seed          *handler.SeedHandler
}

// Options configure the cross-cutting middleware.
type Options struct {
	// SigningKey verifies bearer tokens. Empty disables token parsing.
	SigningKey         []byte
	Resolver           session.Resolver
	Limiter            Counter
	RateLimitPerMinute int
	AllowOrigins       []string
}

// Register wires routes and middleware.
func Register(e *echo.Echo, h Handlers, opts Options) {
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("12M"))
	if len(opts.AllowOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: opts.AllowOrigins,
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		}))
	}

	e.Validator = &CustomValidator{}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/storage/:bucket/*", h.Media.Serve)

	api := e.Group("/api")
	if len(opts.SigningKey) > 0 {
		api.Use(Authenticate(opts.SigningKey))
	}
	api.Use(session.Middleware(opts.Resolver))

	authLimit := RateLimit(opts.Limiter, "auth", opts.RateLimitPerMinute)
	registrationLimit := RateLimit(opts.Limiter, "registration", opts.RateLimitPerMinute)

	// Public routes
	authGroup := api.Group("/auth")
	authGroup.POST("/signup", h.Auth.SignUp, authLimit)
	authGroup.POST("/confirm", h.Auth.Confirm)
	authGroup.GET("/confirm", h.Auth.Confirm)
	authGroup.POST("/login", h.Auth.Login, authLimit)
	authGroup.POST("/refresh", h.Auth.Refresh)
	authGroup.POST("/logout", h.Auth.Logout)
	authGroup.POST("/reset-password", h.Auth.ResetPassword, authLimit)
	authGroup.POST("/recover", h.Auth.Recover, authLimit)

	api.GET("/courses", h.Courses.ListPublished)
	api.GET("/courses/:slug", h.Courses.GetBySlug)
	api.POST("/courses/:id/registrations", h.Registrations.RegisterIndividual, registrationLimit)
	api.POST("/courses/:id/group-registrations", h.Registrations.RegisterGroup, registrationLimit)
	api.GET("/testimonials", h.Testimonials.ListPublished)
	api.GET("/settings", h.Settings.GetAll)
	api.GET("/guard", h.Guard.Check)

	// Signed-in routes
	me := api.Group("/me", guard.Require(guard.RequireUser))
	me.GET("", h.Auth.Me)
	me.PUT("", h.Auth.UpdateMe)
	me.GET("/registrations", h.Registrations.MyRegistrations)

	// Instructor routes
	instructor := api.Group("/instructor", guard.Require(guard.RequireInstructor))
	instructor.GET("/courses/:id/registrations", h.Registrations.ListForCourse)

	// Admin routes
	admin := api.Group("/admin", guard.Require(guard.RequireAdmin))
	admin.GET("/courses", h.Courses.List)
	admin.POST("/courses", h.Courses.Create)
	admin.GET("/courses/:id", h.Courses.Get)
	admin.PUT("/courses/:id", h.Courses.Update)
	admin.DELETE("/courses/:id", h.Courses.Delete)
	admin.POST("/courses/:id/from-template", h.Courses.CreateFromTemplate)
	admin.POST("/courses/:id/publish", h.Courses.Publish)
	admin.GET("/courses/:id/registrations", h.Registrations.ListForCourse)

	admin.GET("/registrations", h.Registrations.ListAll)
	admin.PATCH("/registrations/:id", h.Registrations.UpdateStatus)
	admin.DELETE("/registrations/:id", h.Registrations.Delete)

	admin.GET("/testimonials", h.Testimonials.List)
	admin.POST("/testimonials", h.Testimonials.Create)
	admin.PUT("/testimonials/:id", h.Testimonials.Update)
	admin.DELETE("/testimonials/:id", h.Testimonials.Delete)

	admin.GET("/users", h.Users.ListUsers)
	admin.GET("/users/:id", h.Users.GetUser)
	admin.PUT("/users/:id/role", h.Users.SetRole)

	admin.PUT("/settings/:key", h.Settings.Upsert)
	admin.POST("/media", h.Media.Upload)
	admin.POST("/seed", h.Seed.Seed)
}

// Authenticate parses a bearer access token when one is sent. Missing or
// invalid tokens leave the request anonymous; route guards decide what that means.
func Authenticate(signingKey []byte) echo.MiddlewareFunc {
	return echojwt.WithConfig(echojwt.Config{
		SigningKey:  signingKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return nil
		},
		ContinueOnIgnoredError: true,
	})
}

// CustomValidator adapts the service validator to echo.
type CustomValidator struct{}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return service.ValidateStruct(i)
}
