package main

import (
	"context"
	"log"
	"os"

	"agilecoach/internal/config"
	"agilecoach/internal/db"
	"agilecoach/internal/model"
	"agilecoach/internal/repository"
	"agilecoach/internal/seed"
	"agilecoach/internal/service"
)

// Usage: seed [catalog.json | https://host/catalog.json]
// SEED_ADMIN_EMAIL and SEED_ADMIN_PASSWORD optionally create an admin account.
func main() {
	log.Println("Starting seed script...")
	ctx := context.Background()

	// Load configuration
	cfg := config.Load()

	// Connect to database
	gormDB, err := db.Open(cfg.DBDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("Connected to database")

	// Run migrations to ensure schema is up to date
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Profile{},
		&model.UserRole{},
		&model.Course{},
		&model.CourseRegistration{},
		&model.SiteSetting{},
		&model.Testimonial{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations completed")

	source := ""
	if len(os.Args) > 1 {
		source = os.Args[1]
	}
	catalog, err := seed.Load(ctx, source)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}
	log.Printf("Loaded catalog: %d courses, %d settings, %d testimonials",
		len(catalog.Courses), len(catalog.Settings), len(catalog.Testimonials))

	settings := service.NewSettingsStore(repository.NewSettingRepository(gormDB), cfg.AdminEmail)
	seeder := seed.NewSeeder(
		service.NewCourseService(repository.NewCourseRepository(gormDB)),
		settings,
		service.NewTestimonialService(repository.NewTestimonialRepository(gormDB)),
	)
	res, err := seeder.Apply(ctx, catalog)
	if err != nil {
		log.Fatalf("Failed to seed catalog: %v", err)
	}

	if email := os.Getenv("SEED_ADMIN_EMAIL"); email != "" {
		user, created, err := seed.EnsureAdmin(ctx,
			repository.NewUserRepository(gormDB),
			repository.NewRoleRepository(gormDB),
			email, os.Getenv("SEED_ADMIN_PASSWORD"))
		if err != nil {
			log.Fatalf("Failed to seed admin: %v", err)
		}
		if created {
			log.Printf("Created admin %s", user.Email)
		} else {
			log.Printf("Granted admin role to existing user %s", user.Email)
		}
	}

	log.Printf("Seed completed: %d courses, %d settings, %d testimonials inserted, %d skipped",
		res.Courses, res.Settings, res.Testimonials, res.Skipped)
}
