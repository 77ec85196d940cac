package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	apperrors "agilecoach/internal/errors"
	"agilecoach/internal/model"
	"agilecoach/internal/repository"
)

// Well-known setting keys.
const (
	SettingContactInfo  = "contact_info"
	SettingMailSettings = "mail_settings"
	SettingSocialLinks  = "social_links"
)

// ContactInfo is the contact_info setting.
type ContactInfo struct {
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// MailSettings is the mail_settings setting.
type MailSettings struct {
	AdminEmail string `json:"admin_email"`
	SenderName string `json:"sender_name"`
}

// SocialLinks is the social_links setting.
type SocialLinks struct {
	LinkedIn string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	YouTube  string `json:"youtube,omitempty"`
}

// SettingsStore materializes the site_settings table into a flat map.
// Get never fetches; call GetAll to (re)load.
type SettingsStore struct {
	repo         repository.SettingRepository
	defaultAdmin string

	mu     sync.RWMutex
	values map[string]json.RawMessage
}

// NewSettingsStore creates a store. defaultAdmin is used when mail_settings has no admin_email.
func NewSettingsStore(repo repository.SettingRepository, defaultAdmin string) *SettingsStore {
	return &SettingsStore{repo: repo, defaultAdmin: defaultAdmin}
}

// GetAll fetches every setting and replaces the previous materialization.
func (s *SettingsStore) GetAll(ctx context.Context) (map[string]json.RawMessage, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	values := make(map[string]json.RawMessage, len(rows))
	for _, row := range rows {
		values[row.Key] = json.RawMessage(row.Value)
	}

	s.mu.Lock()
	s.values = values
	s.mu.Unlock()

	out := make(map[string]json.RawMessage, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out, nil
}

// Get returns the materialized value for key, or def when it is absent.
func (s *SettingsStore) Get(key string, def json.RawMessage) json.RawMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v
	}
	return def
}

// Upsert writes key, keeping the stored description when none is supplied,
// and drops the materialization so the next GetAll sees the change.
func (s *SettingsStore) Upsert(ctx context.Context, key string, value json.RawMessage, description *string) (*model.SiteSetting, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperrors.NewValidationError("key", "is required")
	}
	if !json.Valid(value) {
		return nil, apperrors.NewValidationError("value", "must be valid JSON")
	}

	setting := &model.SiteSetting{Key: key}
	existing, err := s.repo.FindByKey(ctx, key)
	switch {
	case err == nil:
		setting.Description = existing.Description
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, fmt.Errorf("find setting: %w", err)
	}
	if description != nil {
		setting.Description = *description
	}
	setting.Value = datatypes.JSON(value)

	if err := s.repo.Upsert(ctx, setting); err != nil {
		return nil, fmt.Errorf("upsert setting: %w", err)
	}

	s.mu.Lock()
	s.values = nil
	s.mu.Unlock()
	return setting, nil
}

// Decode unmarshals the materialized value of key into out. It reports false
// when the key is absent or malformed.
func (s *SettingsStore) Decode(key string, out interface{}) bool {
	raw := s.Get(key, nil)
	if raw == nil {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (s *SettingsStore) ContactInfo() ContactInfo {
	var v ContactInfo
	s.Decode(SettingContactInfo, &v)
	return v
}

func (s *SettingsStore) MailSettings() MailSettings {
	var v MailSettings
	s.Decode(SettingMailSettings, &v)
	return v
}

func (s *SettingsStore) SocialLinks() SocialLinks {
	var v SocialLinks
	s.Decode(SettingSocialLinks, &v)
	return v
}

// AdminRecipient is where registration notifications go. It loads the
// settings when nothing is materialized yet.
func (s *SettingsStore) AdminRecipient(ctx context.Context) string {
	s.mu.RLock()
	loaded := s.values != nil
	s.mu.RUnlock()
	if !loaded {
		_, _ = s.GetAll(ctx)
	}
	if email := s.MailSettings().AdminEmail; email != "" {
		return email
	}
	return s.defaultAdmin
}
