package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agilecoach/internal/model"
)

// SettingRepository defines site settings persistence operations.
type SettingRepository interface {
	List(ctx context.Context) ([]model.SiteSetting, error)
	FindByKey(ctx context.Context, key string) (*model.SiteSetting, error)
	Upsert(ctx context.Context, setting *model.SiteSetting) error
}

type settingRepository struct {
	db *gorm.DB
}

// NewSettingRepository creates a new settings repository.
func NewSettingRepository(db *gorm.DB) SettingRepository {
	return &settingRepository{db: db}
}

func (r *settingRepository) List(ctx context.Context) ([]model.SiteSetting, error) {
	var settings []model.SiteSetting
	if err := r.db.WithContext(ctx).Order(clause.OrderByColumn{Column: clause.Column{Name: "key"}}).Find(&settings).Error; err != nil {
		return nil, err
	}
	return settings, nil
}

func (r *settingRepository) FindByKey(ctx context.Context, key string) (*model.SiteSetting, error) {
	var setting model.SiteSetting
	if err := r.db.WithContext(ctx).Where(&model.SiteSetting{Key: key}).First(&setting).Error; err != nil {
		return nil, err
	}
	return &setting, nil
}

// Upsert inserts or overwrites the row keyed on key.
func (r *settingRepository) Upsert(ctx context.Context, setting *model.SiteSetting) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_at"}),
	}).Create(setting).Error
}
