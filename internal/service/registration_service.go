package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"agilecoach/internal/cache"
	"agilecoach/internal/config"
	"agilecoach/internal/db"
	apperrors "agilecoach/internal/errors"
	"agilecoach/internal/metrics"
	"agilecoach/internal/model"
	"agilecoach/internal/notify"
	"agilecoach/internal/repository"
)

const (
	kindIndividual = "individual"
	kindGroup      = "group"
)

// Participant is one attendee as entered in a registration form.
type Participant struct {
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Phone           string `json:"phone" validate:"omitempty,max=50"`
	Company         string `json:"company" validate:"omitempty,max=255"`
	SpecialRequests string `json:"special_requests" validate:"omitempty,max=2000"`
}

func (p Participant) metadata() model.RegistrationMetadata {
	return model.RegistrationMetadata{
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Email:           p.Email,
		Phone:           p.Phone,
		Company:         p.Company,
		SpecialRequests: p.SpecialRequests,
	}
}

// GroupContact is the person submitting a company booking.
type GroupContact struct {
	Name  string `json:"name" validate:"required,max=200"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,max=50"`
}

// GroupForm is a company booking for two or more participants.
type GroupForm struct {
	Company      string        `json:"company" validate:"required,max=255"`
	Contact      GroupContact  `json:"contact" validate:"required"`
	Participants []Participant `json:"participants" validate:"min=2,dive"`
}

// RegistrationOptions are the workflow policies read from configuration.
type RegistrationOptions struct {
	GroupPolicy     string
	EnforceCapacity bool
	AllowGuests     bool
}

// RegistrationService handles course sign-ups.
type RegistrationService interface {
	RegisterIndividual(ctx context.Context, courseID uuid.UUID, p Participant, userID *uuid.UUID) (*model.CourseRegistration, error)
	RegisterGroup(ctx context.Context, courseID uuid.UUID, form GroupForm, userID *uuid.UUID) ([]model.CourseRegistration, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]model.CourseRegistration, error)
}

type registrationService struct {
	courseRepo       repository.CourseRepository
	registrationRepo repository.RegistrationRepository
	cache            *cache.Client
	notifier         notify.Notifier
	opts             RegistrationOptions
}

// NewRegistrationService creates a new registration service.
func NewRegistrationService(
	courseRepo repository.CourseRepository,
	registrationRepo repository.RegistrationRepository,
	cache *cache.Client,
	notifier notify.Notifier,
	opts RegistrationOptions,
) RegistrationService {
	if opts.GroupPolicy != config.GroupPolicySequential {
		opts.GroupPolicy = config.GroupPolicyAtomic
	}
	return &registrationService{
		courseRepo:       courseRepo,
		registrationRepo: registrationRepo,
		cache:            cache,
		notifier:         notifier,
		opts:             opts,
	}
}

// RegisterIndividual books one participant. The row is returned even when the
// notification cannot be sent.
func (s *registrationService) RegisterIndividual(ctx context.Context, courseID uuid.UUID, p Participant, userID *uuid.UUID) (*model.CourseRegistration, error) {
	if err := ValidateStruct(p); err != nil {
		return nil, s.fail(kindIndividual, err)
	}
	owner := ownerID(userID)
	if owner == nil && !s.opts.AllowGuests {
		return nil, s.fail(kindIndividual, apperrors.ErrGuestRegistrationDisabled)
	}

	course, err := s.openCourse(ctx, courseID)
	if err != nil {
		return nil, s.fail(kindIndividual, err)
	}

	meta, err := json.Marshal(p.metadata())
	if err != nil {
		return nil, s.fail(kindIndividual, fmt.Errorf("encode registration metadata: %w", err))
	}
	rows := []model.CourseRegistration{newRegistration(course.ID, owner, datatypes.JSON(meta))}

	if _, err := s.insert(ctx, course.ID, rows, true); err != nil {
		return nil, s.fail(kindIndividual, err)
	}
	reg := &rows[0]
	metrics.Registrations.WithLabelValues(kindIndividual, metrics.OutcomeSuccess).Inc()
	metrics.RegistrationRows.Inc()

	s.notify(ctx, notify.FunctionCourseRegistration, notify.RegistrationPayload{
		Registration:   p.metadata(),
		CourseID:       course.ID,
		CourseTitle:    course.Title,
		RegistrationID: reg.ID,
	})
	return reg, nil
}

// RegisterGroup books every participant of a company booking as its own row.
// Under the sequential policy a failure returns the rows persisted before it.
func (s *registrationService) RegisterGroup(ctx context.Context, courseID uuid.UUID, form GroupForm, userID *uuid.UUID) ([]model.CourseRegistration, error) {
	if err := ValidateStruct(form); err != nil {
		return nil, s.fail(kindGroup, err)
	}
	if ownerID(userID) == nil && !s.opts.AllowGuests {
		return nil, s.fail(kindGroup, apperrors.ErrGuestRegistrationDisabled)
	}

	course, err := s.openCourse(ctx, courseID)
	if err != nil {
		return nil, s.fail(kindGroup, err)
	}

	contact := &model.GroupContact{Name: form.Contact.Name, Email: form.Contact.Email, Phone: form.Contact.Phone}
	rows := make([]model.CourseRegistration, 0, len(form.Participants))
	participants := make([]model.RegistrationMetadata, 0, len(form.Participants))
	for _, p := range form.Participants {
		md := p.metadata()
		if md.Company == "" {
			md.Company = form.Company
		}
		md.GroupContact = contact
		meta, err := json.Marshal(md)
		if err != nil {
			return nil, s.fail(kindGroup, fmt.Errorf("encode registration metadata: %w", err))
		}
		// Group rows are placeholders; identity lives in metadata.
		row := newRegistration(course.ID, nil, datatypes.JSON(meta))
		row.IsGroup = true
		row.GroupReference = form.Company
		rows = append(rows, row)
		participants = append(participants, md)
	}

	persisted, err := s.insert(ctx, course.ID, rows, s.opts.GroupPolicy == config.GroupPolicyAtomic)
	metrics.RegistrationRows.Add(float64(len(persisted)))
	if err != nil {
		return persisted, s.fail(kindGroup, err)
	}
	metrics.Registrations.WithLabelValues(kindGroup, metrics.OutcomeSuccess).Inc()

	ids := make([]uuid.UUID, len(persisted))
	for i := range persisted {
		ids[i] = persisted[i].ID
	}
	s.notify(ctx, notify.FunctionGroupRegistration, notify.GroupRegistrationPayload{
		GroupRegistration: notify.GroupRegistration{
			Company:      form.Company,
			Contact:      *contact,
			Participants: participants,
		},
		CourseID:        course.ID,
		CourseTitle:     course.Title,
		RegistrationIDs: ids,
	})
	return persisted, nil
}

// ListForUser returns the caller's own registrations with their course.
func (s *registrationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.CourseRegistration, error) {
	regs, err := s.registrationRepo.ListForUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	return regs, nil
}

func (s *registrationService) openCourse(ctx context.Context, courseID uuid.UUID) (*model.Course, error) {
	course, err := s.courseRepo.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCourseNotFound
		}
		return nil, fmt.Errorf("find course: %w", err)
	}
	if !course.OpenForRegistration() {
		return nil, apperrors.ErrCourseNotFound
	}
	return course, nil
}

// insert persists rows and returns those that were written. With capacity
// enforcement the course row is locked and the whole batch is all-or-nothing.
func (s *registrationService) insert(ctx context.Context, courseID uuid.UUID, rows []model.CourseRegistration, atomic bool) ([]model.CourseRegistration, error) {
	defer func() { _ = s.cache.Delete(ctx, courseRegistrationsKey(courseID)) }()

	if s.opts.EnforceCapacity {
		err := s.registrationRepo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.RegistrationRepository) error {
			course, err := txRepo.LockCourse(ctx, courseID)
			if err != nil {
				return fmt.Errorf("lock course: %w", err)
			}
			if course.Capacity > 0 {
				taken, err := txRepo.CountActiveForCourse(ctx, courseID)
				if err != nil {
					return fmt.Errorf("count registrations: %w", err)
				}
				if taken+int64(len(rows)) > int64(course.Capacity) {
					return apperrors.ErrCourseFull
				}
			}
			return createAll(ctx, txRepo, rows)
		})
		if err != nil {
			return nil, err
		}
		return rows, nil
	}

	if atomic && len(rows) > 1 {
		err := s.registrationRepo.WithTransaction(ctx, func(ctx context.Context, txRepo repository.RegistrationRepository) error {
			return createAll(ctx, txRepo, rows)
		})
		if err != nil {
			return nil, err
		}
		return rows, nil
	}

	for i := range rows {
		if err := s.registrationRepo.Create(ctx, &rows[i]); err != nil {
			return rows[:i], insertError(i, len(rows), err)
		}
	}
	return rows, nil
}

func createAll(ctx context.Context, repo repository.RegistrationRepository, rows []model.CourseRegistration) error {
	for i := range rows {
		if err := repo.Create(ctx, &rows[i]); err != nil {
			return insertError(i, len(rows), err)
		}
	}
	return nil
}

func insertError(i, n int, err error) error {
	if db.IsUniqueViolation(err) {
		return apperrors.ErrAlreadyRegistered
	}
	if n > 1 {
		return fmt.Errorf("create registration %d of %d: %w", i+1, n, err)
	}
	return fmt.Errorf("create registration: %w", err)
}

func (s *registrationService) notify(ctx context.Context, function string, body interface{}) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Invoke(ctx, function, body); err != nil {
		log.Printf("registration: %s not sent: %v", function, err)
	}
}

func (s *registrationService) fail(kind string, err error) error {
	outcome := metrics.OutcomeFailure
	var verr *apperrors.ValidationError
	if errors.As(err, &verr) || errors.Is(err, apperrors.ErrCourseFull) || errors.Is(err, apperrors.ErrAlreadyRegistered) {
		outcome = metrics.OutcomeRejected
	} else if !errors.Is(err, apperrors.ErrCourseNotFound) && !errors.Is(err, apperrors.ErrGuestRegistrationDisabled) {
		log.Printf("registration: %s registration failed: %v", kind, err)
	}
	metrics.Registrations.WithLabelValues(kind, outcome).Inc()
	return err
}

func newRegistration(courseID uuid.UUID, owner *uuid.UUID, meta datatypes.JSON) model.CourseRegistration {
	return model.CourseRegistration{
		CourseID:      courseID,
		UserID:        owner,
		Status:        model.RegistrationStatusPending,
		PaymentStatus: model.PaymentStatusUnpaid,
		Metadata:      meta,
	}
}

// ownerID normalises the optional session user; the all-zero id counts as none.
func ownerID(userID *uuid.UUID) *uuid.UUID {
	if userID == nil || *userID == uuid.Nil {
		return nil
	}
	id := *userID
	return &id
}
