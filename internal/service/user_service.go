package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"agilecoach/internal/auth"
	"agilecoach/internal/cache"
	apperrors "agilecoach/internal/errors"
	"agilecoach/internal/model"
	"agilecoach/internal/repository"
)

const userCacheTTL = 5 * time.Minute

// UserSummary is a user with their authoritative role.
type UserSummary struct {
	model.User
	Role model.Role `json:"role"`
}

// UserService exposes user and role administration.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	List(ctx context.Context) ([]UserSummary, error)
	SetRole(ctx context.Context, id uuid.UUID, role model.Role) error
}

type userService struct {
	repo   repository.UserRepository
	roles  repository.RoleRepository
	events *auth.Broadcaster
	cache  *cache.Client
}

// NewUserService builds a UserService with repositories and cache. Cached
// users are dropped whenever an auth event names them.
func NewUserService(repo repository.UserRepository, roles repository.RoleRepository, events *auth.Broadcaster, cache *cache.Client) UserService {
	s := &userService{repo: repo, roles: roles, events: events, cache: cache}
	if events != nil {
		events.Subscribe(func(ctx context.Context, change auth.StateChange) {
			_ = s.cache.Delete(ctx, s.cacheKey(change.UserID))
		})
	}
	return s
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return fmt.Sprintf("user:%s", id)
}

// GetUser reads through the cache. Cached copies never hold the password hash.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	if data, _ := s.cache.Get(ctx, s.cacheKey(id)); data != nil {
		var cached model.User
		if err := json.Unmarshal(data, &cached); err == nil {
			return &cached, nil
		}
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}

	if payload, err := json.Marshal(user); err == nil {
		_ = s.cache.Set(ctx, s.cacheKey(id), payload, userCacheTTL)
	}
	return user, nil
}

// List returns every user with profile and role; users without a role row are students.
func (s *userService) List(ctx context.Context) ([]UserSummary, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	ids := make([]uuid.UUID, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	roles, err := s.roles.ListRoles(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	out := make([]UserSummary, len(users))
	for i, u := range users {
		role, ok := roles[u.ID]
		if !ok || !role.Valid() {
			role = model.RoleStudent
		}
		out[i] = UserSummary{User: u, Role: role}
	}
	return out, nil
}

// SetRole changes a user's role and tells session listeners to re-derive it.
func (s *userService) SetRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	if !role.Valid() {
		return apperrors.ErrInvalidRole
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrUserNotFound
		}
		return fmt.Errorf("find user: %w", err)
	}
	if err := s.roles.SetRole(ctx, id, role); err != nil {
		return fmt.Errorf("set role: %w", err)
	}
	_ = s.cache.Delete(ctx, s.cacheKey(id))
	if s.events != nil {
		s.events.Publish(ctx, auth.StateChange{Event: auth.EventUserUpdated, UserID: id})
	}
	return nil
}
