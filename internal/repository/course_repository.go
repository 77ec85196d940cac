package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"agilecoach/internal/model"
)

// CourseFilter narrows course listings.
type CourseFilter struct {
	PublishedOnly bool
	Templates     *bool
	Category      string
	Level         string
}

// CourseRepository defines course persistence operations.
type CourseRepository interface {
	Create(ctx context.Context, course *model.Course) error
	Update(ctx context.Context, course *model.Course) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error)
	FindBySlug(ctx context.Context, slug string) (*model.Course, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter CourseFilter) ([]model.Course, error)
	SetPublished(ctx context.Context, id uuid.UUID, published bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type courseRepository struct {
	db *gorm.DB
}

// NewCourseRepository creates a new course repository.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db}
}

func (r *courseRepository) Create(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Create(course).Error
}

func (r *courseRepository) Update(ctx context.Context, course *model.Course) error {
	return r.db.WithContext(ctx).Save(course).Error
}

func (r *courseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) FindBySlug(ctx context.Context, slug string) (*model.Course, error) {
	var course model.Course
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&course).Error; err != nil {
		return nil, err
	}
	return &course, nil
}

func (r *courseRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Course{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// List orders scheduled courses by start date, undated ones last.
func (r *courseRepository) List(ctx context.Context, filter CourseFilter) ([]model.Course, error) {
	q := r.db.WithContext(ctx)
	if filter.PublishedOnly {
		q = q.Where("is_published = ? AND is_template = ?", true, false)
	}
	if filter.Templates != nil {
		q = q.Where("is_template = ?", *filter.Templates)
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.Level != "" {
		q = q.Where("level = ?", filter.Level)
	}
	var courses []model.Course
	if err := q.Order("start_date IS NULL, start_date ASC, title ASC").Find(&courses).Error; err != nil {
		return nil, err
	}
	return courses, nil
}

func (r *courseRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	res := r.db.WithContext(ctx).Model(&model.Course{}).Where("id = ?", id).Update("is_published", published)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// MySQL reports zero for unchanged rows, so confirm existence before failing.
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *courseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Course{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
