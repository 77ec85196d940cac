package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"agilecoach/internal/model"
)

// TestimonialRepository defines testimonial persistence operations.
type TestimonialRepository interface {
	Create(ctx context.Context, t *model.Testimonial) error
	Update(ctx context.Context, t *model.Testimonial) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Testimonial, error)
	List(ctx context.Context, publishedOnly, featuredOnly bool) ([]model.Testimonial, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type testimonialRepository struct {
	db *gorm.DB
}

// NewTestimonialRepository creates a new testimonial repository.
func NewTestimonialRepository(db *gorm.DB) TestimonialRepository {
	return &testimonialRepository{db: db}
}

func (r *testimonialRepository) Create(ctx context.Context, t *model.Testimonial) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *testimonialRepository) Update(ctx context.Context, t *model.Testimonial) error {
	return r.db.WithContext(ctx).Save(t).Error
}

func (r *testimonialRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Testimonial, error) {
	var t model.Testimonial
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *testimonialRepository) List(ctx context.Context, publishedOnly, featuredOnly bool) ([]model.Testimonial, error) {
	q := r.db.WithContext(ctx)
	if publishedOnly {
		q = q.Where("published = ?", true)
	}
	if featuredOnly {
		q = q.Where("is_featured = ?", true)
	}
	var list []model.Testimonial
	if err := q.Order("is_featured DESC, created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *testimonialRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Testimonial{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
