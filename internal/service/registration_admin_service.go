package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"agilecoach/internal/cache"
	apperrors "agilecoach/internal/errors"
	"agilecoach/internal/model"
	"agilecoach/internal/repository"
)

const courseRegistrationsTTL = 5 * time.Minute

// StatusUpdate carries the fields an admin changes; nil fields are left alone.
type StatusUpdate struct {
	Status        *model.RegistrationStatus `json:"status,omitempty"`
	PaymentStatus *model.PaymentStatus      `json:"payment_status,omitempty"`
}

// RegistrationAdminService is the back-office view of registrations.
type RegistrationAdminService interface {
	ListForCourse(ctx context.Context, courseID uuid.UUID) ([]model.CourseRegistration, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) (*model.CourseRegistration, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListAll(ctx context.Context, filter repository.RegistrationFilter) ([]model.CourseRegistration, error)
}

type registrationAdminService struct {
	registrationRepo repository.RegistrationRepository
	cache            *cache.Client
}

// NewRegistrationAdminService creates the admin service. cache may be nil.
func NewRegistrationAdminService(registrationRepo repository.RegistrationRepository, cache *cache.Client) RegistrationAdminService {
	return &registrationAdminService{registrationRepo: registrationRepo, cache: cache}
}

func courseRegistrationsKey(courseID uuid.UUID) string {
	return fmt.Sprintf("registrations:course:%s", courseID)
}

// ListForCourse returns a course's registrations oldest first, reading through the cache.
func (s *registrationAdminService) ListForCourse(ctx context.Context, courseID uuid.UUID) ([]model.CourseRegistration, error) {
	key := courseRegistrationsKey(courseID)
	if cached, _ := s.cache.Get(ctx, key); cached != nil {
		var regs []model.CourseRegistration
		if err := json.Unmarshal(cached, &regs); err == nil {
			return regs, nil
		}
	}

	regs, err := s.registrationRepo.ListForCourse(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	for i := range regs {
		if !regs[i].HasOwner() {
			regs[i].User = nil
		}
	}

	if payload, err := json.Marshal(regs); err == nil {
		_ = s.cache.Set(ctx, key, payload, courseRegistrationsTTL)
	}
	return regs, nil
}

// UpdateStatus applies only the supplied fields and returns the stored row.
func (s *registrationAdminService) UpdateStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) (*model.CourseRegistration, error) {
	fields := make(map[string]interface{}, 2)
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, apperrors.ErrInvalidStatus
		}
		fields["status"] = *update.Status
	}
	if update.PaymentStatus != nil {
		if !update.PaymentStatus.Valid() {
			return nil, apperrors.ErrInvalidStatus
		}
		fields["payment_status"] = *update.PaymentStatus
	}
	if len(fields) == 0 {
		return nil, apperrors.NewValidationError("status", "status or payment_status is required")
	}

	reg, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.registrationRepo.UpdateFields(ctx, id, fields); err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	s.invalidate(ctx, reg.CourseID)

	return s.find(ctx, id)
}

// Delete removes a registration permanently.
func (s *registrationAdminService) Delete(ctx context.Context, id uuid.UUID) error {
	reg, err := s.find(ctx, id)
	if err != nil {
		return err
	}
	if err := s.registrationRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete registration: %w", err)
	}
	s.invalidate(ctx, reg.CourseID)
	return nil
}

// ListAll is the cross-course overview.
func (s *registrationAdminService) ListAll(ctx context.Context, filter repository.RegistrationFilter) ([]model.CourseRegistration, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, apperrors.ErrInvalidStatus
	}
	regs, err := s.registrationRepo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (s *registrationAdminService) find(ctx context.Context, id uuid.UUID) (*model.CourseRegistration, error) {
	reg, err := s.registrationRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}

func (s *registrationAdminService) invalidate(ctx context.Context, courseID uuid.UUID) {
	_ = s.cache.Delete(ctx, courseRegistrationsKey(courseID))
}

// CountByStatus folds a loaded list into per-status totals.
func CountByStatus(regs []model.CourseRegistration) model.StatusCounts {
	var counts model.StatusCounts
	for _, r := range regs {
		switch r.Status {
		case model.RegistrationStatusPending:
			counts.Pending++
		case model.RegistrationStatusConfirmed:
			counts.Confirmed++
		case model.RegistrationStatusWaitlist:
			counts.Waitlist++
		case model.RegistrationStatusCancelled:
			counts.Cancelled++
		}
		counts.Total++
	}
	return counts
}
