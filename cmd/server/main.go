package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"

	"agilecoach/docs"
	"agilecoach/internal/auth"
	"agilecoach/internal/cache"
	"agilecoach/internal/config"
	"agilecoach/internal/db"
	"agilecoach/internal/handler"
	"agilecoach/internal/model"
	"agilecoach/internal/notify"
	"agilecoach/internal/repository"
	"agilecoach/internal/router"
	"agilecoach/internal/seed"
	"agilecoach/internal/service"
	"agilecoach/internal/session"
	"agilecoach/internal/storage"
)

const shutdownTimeout = 10 * time.Second

// @title Agile Coach API
// @version 1.0
// @description Course catalog, registrations and back-office administration for an agile coaching business.
// @host localhost:8080
// @BasePath /api
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	cfg := config.Load()
	if cfg.SwaggerHost != "" {
		docs.SwaggerInfo.Host = cfg.SwaggerHost
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("database init: %v", err)
	}

	tables := []interface{}{
		&model.User{},
		&model.Profile{},
		&model.UserRole{},
		&model.Course{},
		&model.CourseRegistration{},
		&model.SiteSetting{},
		&model.Testimonial{},
	}
	if cfg.ResetDB {
		log.Println("RESET_DB=true detected, dropping all tables...")
		for i := len(tables) - 1; i >= 0; i-- {
			if err := gormDB.Migrator().DropTable(tables[i]); err != nil {
				log.Printf("Warning: Failed to drop table (may not exist): %v", err)
			}
		}
	}
	if err := gormDB.AutoMigrate(tables...); err != nil {
		log.Fatalf("auto-migrate: %v", err)
	}

	cacheClient := cache.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	defer cacheClient.Close()
	if err := cacheClient.Ping(ctx); err != nil {
		log.Printf("redis unavailable, continuing without cache: %v", err)
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(gormDB)
	roleRepo := repository.NewRoleRepository(gormDB)
	courseRepo := repository.NewCourseRepository(gormDB)
	registrationRepo := repository.NewRegistrationRepository(gormDB)
	settingRepo := repository.NewSettingRepository(gormDB)
	testimonialRepo := repository.NewTestimonialRepository(gormDB)

	settings := service.NewSettingsStore(settingRepo, cfg.AdminEmail)
	if _, err := settings.GetAll(ctx); err != nil {
		log.Printf("settings: initial load failed: %v", err)
	}

	// Notifications
	var sender notify.Sender = notify.LogSender{}
	if cfg.SendGridAPIKey != "" {
		sender = notify.NewSendGridSender(cfg.SendGridAPIKey, cfg.MailFrom, settings.AdminRecipient)
	} else {
		log.Println("SENDGRID_API_KEY not set, notifications are logged only")
	}
	dispatcher := notify.NewDispatcher(sender, 0)
	dispatcher.Start(context.Background())

	// Initialize auth components
	events := auth.NewBroadcaster()
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	tokenStore := auth.NewTokenStore(cacheClient)

	var (
		resolver   session.Resolver
		signingKey []byte
	)
	if cfg.AuthConfigured() {
		provider := session.NewProvider(userRepo, roleRepo, tokenStore, cacheClient)
		unsubscribe := provider.Listen(events)
		defer unsubscribe()
		resolver = provider
		signingKey = jwtService.SigningKey()
	} else {
		resolver = session.NewStub()
	}

	// Initialize services
	authService := service.NewAuthService(userRepo, jwtService, tokenStore, events, dispatcher, service.AuthOptions{
		PublicBaseURL:            cfg.PublicBaseURL,
		RequireEmailConfirmation: cfg.RequireEmailConfirmation,
	})
	userService := service.NewUserService(userRepo, roleRepo, events, cacheClient)
	courseService := service.NewCourseService(courseRepo)
	registrationService := service.NewRegistrationService(courseRepo, registrationRepo, cacheClient, dispatcher, service.RegistrationOptions{
		GroupPolicy:     cfg.GroupPolicy,
		EnforceCapacity: cfg.EnforceCapacity,
		AllowGuests:     cfg.AllowGuestRegistration,
	})
	registrationAdmin := service.NewRegistrationAdminService(registrationRepo, cacheClient)
	testimonialService := service.NewTestimonialService(testimonialRepo)
	store := storage.NewFileStore(cfg.StorageRoot, cfg.PublicBaseURL+"/storage")
	defer store.Close()

	// Register routes
	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		Courses:       handler.NewCourseHandler(courseService),
		Registrations: handler.NewRegistrationHandler(registrationService, registrationAdmin),
		Settings:      handler.NewSettingsHandler(settings),
		Testimonials:  handler.NewTestimonialHandler(testimonialService),
		Users:         handler.NewUserHandler(userService),
		Media:         handler.NewMediaHandler(store),
		Guard:         handler.NewGuardHandler(),
		Seed:          handler.NewSeedHandler(seed.NewSeeder(courseService, settings, testimonialService)),
	}, router.Options{
		SigningKey:         signingKey,
		Resolver:           resolver,
		Limiter:            cacheClient,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		AllowOrigins:       []string{cfg.PublicBaseURL},
	})

	log.Printf("Swagger documentation available at: http://%s/swagger/index.html", docs.SwaggerInfo.Host)

	go func() {
		addr := ":" + cfg.ServerPort
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server start: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	dispatcher.Close()
}
