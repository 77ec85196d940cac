package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"agilecoach/internal/cache"
)

const (
	refreshKeyPrefix  = "auth:refresh:"
	revokedKeyPrefix  = "auth:revoked:"
	consumedKeyPrefix = "auth:consumed:"
)

// ErrRefreshNotFound means the refresh token was never issued, expired or was signed out.
var ErrRefreshNotFound = errors.New("refresh token not found")

// RefreshGrant is what a live refresh token is bound to.
type RefreshGrant struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
}

// TokenStore tracks live refresh tokens, revoked access tokens and spent
// one-time links. Revoke, IsRevoked and Consume report redis failures so
// callers decide whether to fail open or closed.
type TokenStore interface {
	SaveRefreshToken(ctx context.Context, tokenID string, grant RefreshGrant, ttl time.Duration) error
	RefreshToken(ctx context.Context, tokenID string) (RefreshGrant, error)
	DeleteRefreshToken(ctx context.Context, tokenID string) error
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
	Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error)
}

// RedisTokenStore keeps tokens in redis through the fail-safe cache client.
type RedisTokenStore struct {
	cache *cache.Client
}

var _ TokenStore = (*RedisTokenStore)(nil)

func NewTokenStore(c *cache.Client) *RedisTokenStore {
	return &RedisTokenStore{cache: c}
}

func (s *RedisTokenStore) SaveRefreshToken(ctx context.Context, tokenID string, grant RefreshGrant, ttl time.Duration) error {
	payload, err := json.Marshal(grant)
	if err != nil {
		return fmt.Errorf("marshal refresh grant: %w", err)
	}
	return s.cache.Set(ctx, refreshKeyPrefix+tokenID, payload, ttl)
}

func (s *RedisTokenStore) RefreshToken(ctx context.Context, tokenID string) (RefreshGrant, error) {
	var grant RefreshGrant
	data, err := s.cache.Get(ctx, refreshKeyPrefix+tokenID)
	if err != nil {
		return grant, fmt.Errorf("load refresh grant: %w", err)
	}
	if data == nil {
		return grant, ErrRefreshNotFound
	}
	if err := json.Unmarshal(data, &grant); err != nil {
		return grant, fmt.Errorf("unmarshal refresh grant: %w", err)
	}
	if grant.UserID == uuid.Nil {
		return grant, ErrRefreshNotFound
	}
	return grant, nil
}

func (s *RedisTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	return s.cache.Delete(ctx, refreshKeyPrefix+tokenID)
}

// Revoke marks tokenID as unusable for ttl, normally the token's remaining lifetime.
func (s *RedisTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	return s.cache.Put(ctx, revokedKeyPrefix+tokenID, []byte("1"), ttl)
}

func (s *RedisTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	return s.cache.Exists(ctx, revokedKeyPrefix+tokenID)
}

// Consume marks a one-time token as used. Only the first call returns true.
func (s *RedisTokenStore) Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		return false, nil
	}
	return s.cache.Claim(ctx, consumedKeyPrefix+tokenID, ttl)
}
