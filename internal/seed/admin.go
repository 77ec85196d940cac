package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"agilecoach/internal/model"
	"agilecoach/internal/repository"
)

// EnsureAdmin creates a confirmed account for email when none exists and
// grants it the admin role. An existing account keeps its password.
func EnsureAdmin(ctx context.Context, users repository.UserRepository, roles repository.RoleRepository, email, password string) (*model.User, bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, false, errors.New("admin email is required")
	}

	created := false
	user, err := users.FindByEmail(ctx, email)
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		if len(password) < 8 {
			return nil, false, errors.New("admin password must be at least 8 characters")
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, false, fmt.Errorf("hash password: %w", err)
		}
		now := time.Now()
		user = &model.User{
			ID:               uuid.New(),
			Email:            email,
			PasswordHash:     string(hash),
			EmailConfirmedAt: &now,
		}
		if err := users.Create(ctx, user); err != nil {
			return nil, false, fmt.Errorf("create admin: %w", err)
		}
		created = true
	default:
		return nil, false, fmt.Errorf("find admin: %w", err)
	}

	if err := roles.SetRole(ctx, user.ID, model.RoleAdmin); err != nil {
		return nil, created, fmt.Errorf("grant admin role: %w", err)
	}
	return user, created, nil
}
