package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

// Group insert policies for multi-participant registrations.
const (
	GroupPolicyAtomic     = "atomic"
	GroupPolicySequential = "sequential"
)

// Config holds application level configuration loaded from environment variables
// and an optional app.env file in the working directory.
type Config struct {
	ServerPort    string
	DBDriver      string
	DatabaseDSN   string
	RedisAddr     string
	RedisDB       int
	RedisPass     string
	JWTSecret     string
	SwaggerHost   string
	PublicBaseURL string
	StorageRoot   string

	SendGridAPIKey string
	MailFrom       string
	AdminEmail     string

	GroupPolicy              string
	EnforceCapacity          bool
	AllowGuestRegistration   bool
	RequireEmailConfirmation bool
	RateLimitPerMinute       int
	ResetDB                  bool
}

// Load builds Config with sensible defaults.
func Load() *Config {
	return LoadFrom(".")
}

// LoadFrom reads app.env from path when present; environment variables win.
func LoadFrom(path string) *Config {
	v := viper.New()
	v.AddConfigPath(path)
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AutomaticEnv()

	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DATABASE_DSN", "user:password@tcp(localhost:3306)/agilecoach?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("SWAGGER_HOST", "")
	v.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	v.SetDefault("STORAGE_ROOT", "./data/storage")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("MAIL_FROM", "no-reply@agilecoach.local")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("REGISTRATION_GROUP_POLICY", GroupPolicyAtomic)
	v.SetDefault("ENFORCE_CAPACITY", false)
	v.SetDefault("ALLOW_GUEST_REGISTRATION", true)
	v.SetDefault("REQUIRE_EMAIL_CONFIRMATION", true)
	v.SetDefault("RATE_LIMIT_PER_MINUTE", 30)
	v.SetDefault("RESET_DB", false)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("config: ignoring unreadable app.env: %v", err)
		}
	}

	policy := strings.ToLower(v.GetString("REGISTRATION_GROUP_POLICY"))
	if policy != GroupPolicySequential {
		policy = GroupPolicyAtomic
	}

	return &Config{
		ServerPort:    v.GetString("SERVER_PORT"),
		DBDriver:      strings.ToLower(v.GetString("DB_DRIVER")),
		DatabaseDSN:   v.GetString("DATABASE_DSN"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisDB:       v.GetInt("REDIS_DB"),
		RedisPass:     v.GetString("REDIS_PASSWORD"),
		JWTSecret:     v.GetString("JWT_SECRET"),
		SwaggerHost:   v.GetString("SWAGGER_HOST"),
		PublicBaseURL: strings.TrimRight(v.GetString("PUBLIC_BASE_URL"), "/"),
		StorageRoot:   v.GetString("STORAGE_ROOT"),

		SendGridAPIKey: v.GetString("SENDGRID_API_KEY"),
		MailFrom:       v.GetString("MAIL_FROM"),
		AdminEmail:     v.GetString("ADMIN_EMAIL"),

		GroupPolicy:              policy,
		EnforceCapacity:          v.GetBool("ENFORCE_CAPACITY"),
		AllowGuestRegistration:   v.GetBool("ALLOW_GUEST_REGISTRATION"),
		RequireEmailConfirmation: v.GetBool("REQUIRE_EMAIL_CONFIRMATION"),
		RateLimitPerMinute:       v.GetInt("RATE_LIMIT_PER_MINUTE"),
		ResetDB:                  v.GetBool("RESET_DB"),
	}
}

// AuthConfigured reports whether the identity layer has what it needs to issue tokens.
func (c *Config) AuthConfigured() bool {
	return c.JWTSecret != ""
}
