package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	apperrors "agilecoach/internal/errors"
	"agilecoach/internal/model"
	"agilecoach/internal/repository"
)

// TestimonialInput is the editable part of a testimonial.
type TestimonialInput struct {
	Name       string     `json:"name" validate:"required,max=255"`
	Role       string     `json:"role" validate:"omitempty,max=255"`
	Company    string     `json:"company" validate:"omitempty,max=255"`
	Content    string     `json:"content" validate:"required"`
	Rating     *int       `json:"rating" validate:"omitempty,min=1,max=5"`
	ImageURL   string     `json:"image_url" validate:"omitempty,max=512"`
	Published  bool       `json:"published"`
	IsFeatured bool       `json:"is_featured"`
	CourseID   *uuid.UUID `json:"course_id"`
}

// TestimonialService manages customer quotes.
type TestimonialService interface {
	ListPublished(ctx context.Context, featuredOnly bool) ([]model.Testimonial, error)
	List(ctx context.Context) ([]model.Testimonial, error)
	Create(ctx context.Context, in TestimonialInput) (*model.Testimonial, error)
	Update(ctx context.Context, id uuid.UUID, in TestimonialInput) (*model.Testimonial, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type testimonialService struct {
	repo repository.TestimonialRepository
}

// NewTestimonialService creates a new testimonial service.
func NewTestimonialService(repo repository.TestimonialRepository) TestimonialService {
	return &testimonialService{repo: repo}
}

func (s *testimonialService) ListPublished(ctx context.Context, featuredOnly bool) ([]model.Testimonial, error) {
	items, err := s.repo.List(ctx, true, featuredOnly)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	return items, nil
}

func (s *testimonialService) List(ctx context.Context) ([]model.Testimonial, error) {
	items, err := s.repo.List(ctx, false, false)
	if err != nil {
		return nil, fmt.Errorf("list testimonials: %w", err)
	}
	return items, nil
}

func (s *testimonialService) Create(ctx context.Context, in TestimonialInput) (*model.Testimonial, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	t := &model.Testimonial{}
	applyTestimonialInput(t, in)
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, fmt.Errorf("create testimonial: %w", err)
	}
	return t, nil
}

func (s *testimonialService) Update(ctx context.Context, id uuid.UUID, in TestimonialInput) (*model.Testimonial, error) {
	if err := ValidateStruct(in); err != nil {
		return nil, err
	}
	t, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTestimonialNotFound
		}
		return nil, fmt.Errorf("find testimonial: %w", err)
	}
	applyTestimonialInput(t, in)
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, fmt.Errorf("update testimonial: %w", err)
	}
	return t, nil
}

func (s *testimonialService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrTestimonialNotFound
		}
		return fmt.Errorf("delete testimonial: %w", err)
	}
	return nil
}

func applyTestimonialInput(t *model.Testimonial, in TestimonialInput) {
	t.Name = in.Name
	t.Role = in.Role
	t.Company = in.Company
	t.Content = in.Content
	t.Rating = in.Rating
	t.ImageURL = in.ImageURL
	t.Published = in.Published
	t.IsFeatured = in.IsFeatured
	t.CourseID = in.CourseID
}
