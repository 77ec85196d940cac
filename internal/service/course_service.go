package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"agilecoach/internal/db"
	apperrors "agilecoach/internal/errors"
	"agilecoach/internal/model"
	"agilecoach/internal/repository"
)

const maxSlugAttempts = 50

// CourseInput is the editable part of a course.
type CourseInput struct {
	Slug        string          `json:"slug" validate:"omitempty,max=191"`
	Title       string          `json:"title" validate:"required,max=255"`
	Description string          `json:"description"`
	Content     string          `json:"content"`
	Category    string          `json:"category" validate:"omitempty,max=100"`
	Level       string          `json:"level" validate:"omitempty,max=50"`
	Price       decimal.Decimal `json:"price"`
	Duration    string          `json:"duration" validate:"omitempty,max=100"`
	Location    string          `json:"location" validate:"omitempty,max=255"`
	Capacity    int             `json:"capacity" validate:"min=0"`
	ImageURL    string          `json:"image_url" validate:"omitempty,max=512"`
	StartDate   *time.Time      `json:"start_date"`
	EndDate     *time.Time      `json:"end_date"`
	IsPublished bool            `json:"is_published"`
	IsTemplate  bool            `json:"is_template"`
}

// Schedule turns a template into a dated course instance.
type Schedule struct {
	Slug      string     `json:"slug" validate:"omitempty,max=191"`
	StartDate *time.Time `json:"start_date" validate:"required"`
	EndDate   *time.Time `json:"end_date"`
	Location  string     `json:"location" validate:"omitempty,max=255"`
	Capacity  *int       `json:"capacity" validate:"omitempty,min=0"`
}

// CourseService manages the course catalog and templates.
type CourseService interface {
	ListPublished(ctx context.Context, category, level string) ([]model.Course, error)
	GetBySlug(ctx context.Context, slug string) (*model.Course, error)
	List(ctx context.Context, filter repository.CourseFilter) ([]model.Course, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Course, error)
	Create(ctx context.Context, in CourseInput) (*model.Course, error)
	CreateFromTemplate(ctx context.Context, templateID uuid.UUID, schedule Schedule) (*model.Course, error)
	Update(ctx context.Context, id uuid.UUID, in CourseInput) (*model.Course, error)
	SetPublished(ctx context.Context, id uuid.UUID, published bool) (*model.Course, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type courseService struct {
	repo repository.CourseRepository
}

// NewCourseService creates a new course service.
func NewCourseService(repo repository.CourseRepository) CourseService {
	return &courseService{repo: repo}
}

// ListPublished returns the public catalog.
func (s *courseService) ListPublished(ctx context.Context, category, level string) ([]model.Course, error) {
	return s.List(ctx, repository.CourseFilter{PublishedOnly: true, Category: category, Level: level})
}

// GetBySlug returns a published course; drafts and templates are not found.
func (s *courseService) GetBySlug(ctx context.Context, slug string) (*model.Course, error) {
	course, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, courseLookupError(err)
	}
	if !course.OpenForRegistration() {
		return nil, apperrors.ErrCourseNotFound
	}
	return course, nil
}

func (s *courseService) List(ctx context.Context, filter repository.CourseFilter) ([]model.Course, error) {
	courses, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

func (s *courseService) Get(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, courseLookupError(err)
	}
	return course, nil
}

func (s *courseService) Create(ctx context.Context, in CourseInput) (*model.Course, error) {
	if err := validateCourse(in); err != nil {
		return nil, err
	}
	course := &model.Course{}
	applyCourseInput(course, in)

	slug, err := s.slugFor(ctx, in.Slug, in.Title, uuid.Nil)
	if err != nil {
		return nil, err
	}
	course.Slug = slug

	if err := s.repo.Create(ctx, course); err != nil {
		return nil, courseWriteError(err)
	}
	return course, nil
}

// CreateFromTemplate copies a template's content into a new unpublished course.
func (s *courseService) CreateFromTemplate(ctx context.Context, templateID uuid.UUID, schedule Schedule) (*model.Course, error) {
	if err := ValidateStruct(schedule); err != nil {
		return nil, err
	}
	if schedule.EndDate != nil && schedule.EndDate.Before(*schedule.StartDate) {
		return nil, apperrors.NewValidationError("end_date", "must not be before start_date")
	}

	tmpl, err := s.repo.FindByID(ctx, templateID)
	if err != nil {
		return nil, courseLookupError(err)
	}
	if !tmpl.IsTemplate {
		return nil, apperrors.ErrNotATemplate
	}

	id := tmpl.ID
	course := &model.Course{
		Title:       tmpl.Title,
		Description: tmpl.Description,
		Content:     tmpl.Content,
		Category:    tmpl.Category,
		Level:       tmpl.Level,
		Price:       tmpl.Price,
		Duration:    tmpl.Duration,
		Location:    tmpl.Location,
		Capacity:    tmpl.Capacity,
		ImageURL:    tmpl.ImageURL,
		StartDate:   schedule.StartDate,
		EndDate:     schedule.EndDate,
		TemplateID:  &id,
	}
	if schedule.Location != "" {
		course.Location = schedule.Location
	}
	if schedule.Capacity != nil {
		course.Capacity = *schedule.Capacity
	}

	base := schedule.Slug
	if base == "" {
		base = tmpl.Slug + "-" + schedule.StartDate.Format("2006-01-02")
	}
	slug, err := s.slugFor(ctx, schedule.Slug, base, uuid.Nil)
	if err != nil {
		return nil, err
	}
	course.Slug = slug

	if err := s.repo.Create(ctx, course); err != nil {
		return nil, courseWriteError(err)
	}
	return course, nil
}

func (s *courseService) Update(ctx context.Context, id uuid.UUID, in CourseInput) (*model.Course, error) {
	if err := validateCourse(in); err != nil {
		return nil, err
	}
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, courseLookupError(err)
	}
	applyCourseInput(course, in)

	if in.Slug != "" && in.Slug != course.Slug {
		slug, err := s.slugFor(ctx, in.Slug, in.Title, course.ID)
		if err != nil {
			return nil, err
		}
		course.Slug = slug
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, courseWriteError(err)
	}
	return course, nil
}

func (s *courseService) SetPublished(ctx context.Context, id uuid.UUID, published bool) (*model.Course, error) {
	if err := s.repo.SetPublished(ctx, id, published); err != nil {
		return nil, courseLookupError(err)
	}
	return s.Get(ctx, id)
}

func (s *courseService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return courseLookupError(err)
	}
	return nil
}

// slugFor returns explicit when it is free, or derives a unique slug from base.
func (s *courseService) slugFor(ctx context.Context, explicit, base string, self uuid.UUID) (string, error) {
	if explicit != "" {
		slug := Slugify(explicit)
		if slug == "" {
			return "", apperrors.NewValidationError("slug", "must contain letters or digits")
		}
		taken, err := s.slugTaken(ctx, slug, self)
		if err != nil {
			return "", err
		}
		if taken {
			return "", apperrors.ErrSlugTaken
		}
		return slug, nil
	}

	root := Slugify(base)
	if root == "" {
		root = "course"
	}
	for i := 1; i <= maxSlugAttempts; i++ {
		slug := root
		if i > 1 {
			slug = fmt.Sprintf("%s-%d", root, i)
		}
		taken, err := s.slugTaken(ctx, slug, self)
		if err != nil {
			return "", err
		}
		if !taken {
			return slug, nil
		}
	}
	return "", apperrors.ErrSlugTaken
}

func (s *courseService) slugTaken(ctx context.Context, slug string, self uuid.UUID) (bool, error) {
	if self != uuid.Nil {
		existing, err := s.repo.FindBySlug(ctx, slug)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("check slug: %w", err)
		}
		return existing.ID != self, nil
	}
	taken, err := s.repo.SlugExists(ctx, slug)
	if err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return taken, nil
}

// Slugify lowercases s and joins its letter and digit runs with dashes.
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if r > unicode.MaxASCII {
				continue
			}
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(r)
			continue
		}
		dash = true
	}
	return b.String()
}

func validateCourse(in CourseInput) error {
	if err := ValidateStruct(in); err != nil {
		return err
	}
	if in.Price.IsNegative() {
		return apperrors.NewValidationError("price", "must not be negative")
	}
	if in.StartDate != nil && in.EndDate != nil && in.EndDate.Before(*in.StartDate) {
		return apperrors.NewValidationError("end_date", "must not be before start_date")
	}
	return nil
}

func applyCourseInput(c *model.Course, in CourseInput) {
	c.Title = in.Title
	c.Description = in.Description
	c.Content = in.Content
	c.Category = in.Category
	c.Level = in.Level
	c.Price = in.Price
	c.Duration = in.Duration
	c.Location = in.Location
	c.Capacity = in.Capacity
	c.ImageURL = in.ImageURL
	c.StartDate = in.StartDate
	c.EndDate = in.EndDate
	c.IsPublished = in.IsPublished
	c.IsTemplate = in.IsTemplate
}

func courseLookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.ErrCourseNotFound
	}
	return fmt.Errorf("find course: %w", err)
}

func courseWriteError(err error) error {
	if db.IsUniqueViolation(err) {
		return apperrors.ErrSlugTaken
	}
	return fmt.Errorf("save course: %w", err)
}
