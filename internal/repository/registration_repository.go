package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"agilecoach/internal/model"
)

// RegistrationFilter narrows the admin registration overview.
type RegistrationFilter struct {
	CourseID *uuid.UUID
	Status   model.RegistrationStatus
	Limit    int
}

// RegistrationRepository defines course registration persistence operations.
type RegistrationRepository interface {
	Create(ctx context.Context, reg *model.CourseRegistration) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.CourseRegistration, error)
	ListForCourse(ctx context.Context, courseID uuid.UUID) ([]model.CourseRegistration, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.CourseRegistration, error)
	List(ctx context.Context, filter RegistrationFilter) ([]model.CourseRegistration, error)
	CountActiveForCourse(ctx context.Context, courseID uuid.UUID) (int64, error)
	UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error
	Delete(ctx context.Context, id uuid.UUID) error
	// Transaction methods
	WithTransaction(ctx context.Context, fn func(ctx context.Context, repo RegistrationRepository) error) error
	LockCourse(ctx context.Context, courseID uuid.UUID) (*model.Course, error)
}

type registrationRepository struct {
	db *gorm.DB
}

// NewRegistrationRepository creates a new registration repository.
func NewRegistrationRepository(db *gorm.DB) RegistrationRepository {
	return &registrationRepository{db: db}
}

// Create inserts one registration row.
func (r *registrationRepository) Create(ctx context.Context, reg *model.CourseRegistration) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(reg).Error
}

// FindByID finds a registration by ID.
func (r *registrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.CourseRegistration, error) {
	var reg model.CourseRegistration
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&reg).Error; err != nil {
		return nil, err
	}
	return &reg, nil
}

// ListForCourse lists a course's registrations with the owning user's profile when there is one.
func (r *registrationRepository) ListForCourse(ctx context.Context, courseID uuid.UUID) ([]model.CourseRegistration, error) {
	var regs []model.CourseRegistration
	if err := r.db.WithContext(ctx).
		Preload("User.Profile").
		Where("course_id = ?", courseID).
		Order("created_at ASC").
		Find(&regs).Error; err != nil {
		return nil, err
	}
	return regs, nil
}

// ListForUser lists a user's registrations with their course.
func (r *registrationRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.CourseRegistration, error) {
	var regs []model.CourseRegistration
	if err := r.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&regs).Error; err != nil {
		return nil, err
	}
	return regs, nil
}

// List lists registrations across courses, newest first.
func (r *registrationRepository) List(ctx context.Context, filter RegistrationFilter) ([]model.CourseRegistration, error) {
	q := r.db.WithContext(ctx).Preload("Course").Preload("User.Profile")
	if filter.CourseID != nil {
		q = q.Where("course_id = ?", *filter.CourseID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	var regs []model.CourseRegistration
	if err := q.Order("created_at DESC").Find(&regs).Error; err != nil {
		return nil, err
	}
	return regs, nil
}

// CountActiveForCourse counts registrations that hold a seat.
func (r *registrationRepository) CountActiveForCourse(ctx context.Context, courseID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.CourseRegistration{}).
		Where("course_id = ? AND status <> ?", courseID, model.RegistrationStatusCancelled).
		Count(&count).Error
	return count, err
}

// UpdateFields applies a partial update.
func (r *registrationRepository) UpdateFields(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	return r.db.WithContext(ctx).Model(&model.CourseRegistration{}).
		Where("id = ?", id).
		Updates(fields).Error
}

// Delete hard-deletes a registration.
func (r *registrationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.CourseRegistration{}).Error
}

// WithTransaction executes a function within a database transaction.
func (r *registrationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo RegistrationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txRepo := &registrationRepository{db: tx}
		return fn(ctx, txRepo)
	})
}

// LockCourse loads a course with a row-level lock; only meaningful inside WithTransaction.
// SQLite has no row locks and already serializes writers.
func (r *registrationRepository) LockCourse(ctx context.Context, courseID uuid.UUID) (*model.Course, error) {
	var course model.Course
	q := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := q.Where("id = ?", courseID).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}
