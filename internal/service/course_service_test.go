package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	apperrors "agilecoach/internal/errors"
	"agilecoach/internal/model"
	"agilecoach/internal/repository"
)

func TestSlugify(t *testing.T) {
	tests := map[string]string{
		"Professional Scrum Master": "professional-scrum-master",
		"  Kanban -- 101!! ":        "kanban-101",
		"SAFe® 6.0 Agilist":         "safe-6-0-agilist",
		"Über Coaching":             "ber-coaching",
		"!!!":                       "",
		"psm-2026-03-01":            "psm-2026-03-01",
	}
	for in, want := range tests {
		assert.Equal(t, want, Slugify(in), in)
	}
}

func TestCourseService_CreateDerivesUniqueSlug(t *testing.T) {
	repo := new(MockCourseRepository)
	repo.On("SlugExists", mock.Anything, "scrum-foundations").Return(true, nil)
	repo.On("SlugExists", mock.Anything, "scrum-foundations-2").Return(false, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Course")).Return(nil)

	course, err := NewCourseService(repo).Create(context.Background(), CourseInput{
		Title: "Scrum Foundations",
		Price: decimal.RequireFromString("1295.00"),
	})

	require.NoError(t, err)
	assert.Equal(t, "scrum-foundations-2", course.Slug)
	assert.True(t, course.Price.Equal(decimal.NewFromInt(1295)))
	repo.AssertExpectations(t)
}

func TestCourseService_CreateRejects(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	before := start.Add(-24 * time.Hour)

	tests := []struct {
		name  string
		in    CourseInput
		field string
	}{
		{"missing title", CourseInput{}, "title"},
		{"negative price", CourseInput{Title: "x", Price: decimal.NewFromInt(-1)}, "price"},
		{"negative capacity", CourseInput{Title: "x", Capacity: -1}, "capacity"},
		{"ends before start", CourseInput{Title: "x", StartDate: &start, EndDate: &before}, "end_date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockCourseRepository)
			_, err := NewCourseService(repo).Create(context.Background(), tt.in)

			var verr *apperrors.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.field)
			repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		})
	}
}

func TestCourseService_ExplicitSlugTaken(t *testing.T) {
	repo := new(MockCourseRepository)
	repo.On("SlugExists", mock.Anything, "psm").Return(true, nil)

	_, err := NewCourseService(repo).Create(context.Background(), CourseInput{Title: "PSM", Slug: "PSM"})

	assert.ErrorIs(t, err, apperrors.ErrSlugTaken)
}

func TestCourseService_CreateFromTemplate(t *testing.T) {
	tmpl := &model.Course{
		ID:          uuid.New(),
		Slug:        "psm",
		Title:       "Professional Scrum Master",
		Description: "Two days",
		Category:    "scrum",
		Level:       "beginner",
		Price:       decimal.NewFromInt(1200),
		Duration:    "2 days",
		Location:    "Amsterdam",
		Capacity:    12,
		IsTemplate:  true,
	}
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	capacity := 16

	repo := new(MockCourseRepository)
	repo.On("FindByID", mock.Anything, tmpl.ID).Return(tmpl, nil)
	repo.On("SlugExists", mock.Anything, "psm-2026-03-02").Return(false, nil)
	repo.On("Create", mock.Anything, mock.AnythingOfType("*model.Course")).Return(nil)

	course, err := NewCourseService(repo).CreateFromTemplate(context.Background(), tmpl.ID, Schedule{
		StartDate: &start,
		Location:  "Utrecht",
		Capacity:  &capacity,
	})

	require.NoError(t, err)
	assert.Equal(t, "psm-2026-03-02", course.Slug)
	assert.Equal(t, tmpl.Title, course.Title)
	assert.Equal(t, "scrum", course.Category)
	assert.True(t, course.Price.Equal(tmpl.Price))
	assert.Equal(t, "Utrecht", course.Location)
	assert.Equal(t, 16, course.Capacity)
	require.NotNil(t, course.TemplateID)
	assert.Equal(t, tmpl.ID, *course.TemplateID)
	assert.False(t, course.IsTemplate)
	assert.False(t, course.IsPublished)
}

func TestCourseService_CreateFromTemplateRequiresTemplate(t *testing.T) {
	plain := &model.Course{ID: uuid.New(), Slug: "psm-1"}
	start := time.Now()
	repo := new(MockCourseRepository)
	repo.On("FindByID", mock.Anything, plain.ID).Return(plain, nil)

	_, err := NewCourseService(repo).CreateFromTemplate(context.Background(), plain.ID, Schedule{StartDate: &start})
	assert.ErrorIs(t, err, apperrors.ErrNotATemplate)

	var verr *apperrors.ValidationError
	_, err = NewCourseService(repo).CreateFromTemplate(context.Background(), plain.ID, Schedule{})
	assert.ErrorAs(t, err, &verr)
}

func TestCourseService_GetBySlugHidesDraftsAndTemplates(t *testing.T) {
	repo := new(MockCourseRepository)
	repo.On("FindBySlug", mock.Anything, "live").Return(&model.Course{Slug: "live", IsPublished: true}, nil)
	repo.On("FindBySlug", mock.Anything, "draft").Return(&model.Course{Slug: "draft"}, nil)
	repo.On("FindBySlug", mock.Anything, "template").Return(&model.Course{Slug: "template", IsPublished: true, IsTemplate: true}, nil)
	repo.On("FindBySlug", mock.Anything, "gone").Return(nil, gorm.ErrRecordNotFound)
	svc := NewCourseService(repo)

	course, err := svc.GetBySlug(context.Background(), "live")
	require.NoError(t, err)
	assert.Equal(t, "live", course.Slug)

	for _, slug := range []string{"draft", "template", "gone"} {
		_, err := svc.GetBySlug(context.Background(), slug)
		assert.ErrorIs(t, err, apperrors.ErrCourseNotFound, slug)
	}
}

func TestCourseService_ListPublishedFilters(t *testing.T) {
	repo := new(MockCourseRepository)
	want := repository.CourseFilter{PublishedOnly: true, Category: "kanban", Level: "advanced"}
	repo.On("List", mock.Anything, want).Return([]model.Course{{Slug: "kmp"}}, nil)

	courses, err := NewCourseService(repo).ListPublished(context.Background(), "kanban", "advanced")

	require.NoError(t, err)
	assert.Len(t, courses, 1)
}

func TestCourseService_UpdateKeepsOwnSlug(t *testing.T) {
	existing := &model.Course{ID: uuid.New(), Slug: "psm", Title: "PSM"}
	repo := new(MockCourseRepository)
	repo.On("FindByID", mock.Anything, existing.ID).Return(existing, nil)
	repo.On("FindBySlug", mock.Anything, "psm-advanced").Return(&model.Course{ID: uuid.New()}, nil)
	repo.On("Update", mock.Anything, existing).Return(nil)
	svc := NewCourseService(repo)

	updated, err := svc.Update(context.Background(), existing.ID, CourseInput{Title: "PSM II", Slug: "psm"})
	require.NoError(t, err)
	assert.Equal(t, "psm", updated.Slug)
	assert.Equal(t, "PSM II", updated.Title)

	_, err = svc.Update(context.Background(), existing.ID, CourseInput{Title: "PSM II", Slug: "psm-advanced"})
	assert.ErrorIs(t, err, apperrors.ErrSlugTaken)
}

func TestCourseService_SetPublishedAndDelete(t *testing.T) {
	id := uuid.New()
	repo := new(MockCourseRepository)
	repo.On("SetPublished", mock.Anything, id, true).Return(nil)
	repo.On("FindByID", mock.Anything, id).Return(&model.Course{ID: id, IsPublished: true}, nil)
	repo.On("Delete", mock.Anything, id).Return(gorm.ErrRecordNotFound)
	svc := NewCourseService(repo)

	course, err := svc.SetPublished(context.Background(), id, true)
	require.NoError(t, err)
	assert.True(t, course.IsPublished)

	assert.ErrorIs(t, svc.Delete(context.Background(), id), apperrors.ErrCourseNotFound)
}
