package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"

	"agilecoach/internal/auth"
	"agilecoach/internal/model"
	"agilecoach/internal/repository"
)

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Update(ctx context.Context, user *model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserRepository) List(ctx context.Context) ([]model.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.User), args.Error(1)
}

func (m *MockUserRepository) UpsertProfile(ctx context.Context, profile *model.Profile) error {
	args := m.Called(ctx, profile)
	return args.Error(0)
}

// MockRoleRepository is a mock implementation of RoleRepository.
type MockRoleRepository struct {
	mock.Mock
}

func (m *MockRoleRepository) FindRole(ctx context.Context, userID uuid.UUID) (model.Role, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(model.Role), args.Error(1)
}

func (m *MockRoleRepository) SetRole(ctx context.Context, userID uuid.UUID, role model.Role) error {
	args := m.Called(ctx, userID, role)
	return args.Error(0)
}

func (m *MockRoleRepository) ListRoles(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]model.Role, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]model.Role), args.Error(1)
}

// MockTokenStore is a mock implementation of auth.TokenStore.
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) SaveRefreshToken(ctx context.Context, tokenID string, grant auth.RefreshGrant, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, grant, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) RefreshToken(ctx context.Context, tokenID string) (auth.RefreshGrant, error) {
	args := m.Called(ctx, tokenID)
	return args.Get(0).(auth.RefreshGrant), args.Error(1)
}

func (m *MockTokenStore) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	args := m.Called(ctx, tokenID)
	return args.Error(0)
}

func (m *MockTokenStore) Revoke(ctx context.Context, tokenID string, ttl time.Duration) error {
	args := m.Called(ctx, tokenID, ttl)
	return args.Error(0)
}

func (m *MockTokenStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	args := m.Called(ctx, tokenID)
	return args.Bool(0), args.Error(1)
}

func (m *MockTokenStore) Consume(ctx context.Context, tokenID string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, tokenID, ttl)
	return args.Bool(0), args.Error(1)
}

// MockCourseRepository is a mock implementation of CourseRepository.
type MockCourseRepository struct {
	mock.Mock
}

func (m *MockCourseRepository) Create(ctx context.Context, course *model.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *MockCourseRepository) Update(ctx context.Context, course *model.Course) error {
	args := m.Called(ctx, course)
	return args.Error(0)
}

func (m *MockCourseRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Course), args.Error(1)
}

func (m *MockCourseRepository) FindBySlug(ctx context.Context, slug string) (*model.Course, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Course), args.Error(1)
}

func (m *MockCourseRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	args := m.Called(ctx, slug)
	return args.Bool(0), args.Error(1)
}

func (m *MockCourseRepository) List(ctx context.Context, filter repository.CourseFilter) ([]model.Course, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Course), args.Error(1)
}

func (m *MockCourseRepository) SetPublished(ctx context.Context, id uuid.UUID, published bool) error {
	args := m.Called(ctx, id, published)
	return args.Error(0)
}

func (m *MockCourseRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockSettingRepository is a mock implementation of SettingRepository.
type MockSettingRepository struct {
	mock.Mock
}

func (m *MockSettingRepository) List(ctx context.Context) ([]model.SiteSetting, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.SiteSetting), args.Error(1)
}

func (m *MockSettingRepository) FindByKey(ctx context.Context, key string) (*model.SiteSetting, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SiteSetting), args.Error(1)
}

func (m *MockSettingRepository) Upsert(ctx context.Context, setting *model.SiteSetting) error {
	args := m.Called(ctx, setting)
	return args.Error(0)
}

// MockNotifier records invocations and returns the configured error.
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Invoke(ctx context.Context, function string, body interface{}) error {
	args := m.Called(ctx, function, body)
	return args.Error(0)
}

// fakeRegistrationRepository keeps rows in memory and rolls transactions back
// on error, so tests can assert what actually persisted.
type fakeRegistrationRepository struct {
	mu      sync.Mutex
	rows    []model.CourseRegistration
	courses map[uuid.UUID]*model.Course
	creates int
	// failOn makes the n-th Create call (1-based) fail with failErr.
	failOn  int
	failErr error
}

func newFakeRegistrationRepository(courses ...*model.Course) *fakeRegistrationRepository {
	f := &fakeRegistrationRepository{courses: map[uuid.UUID]*model.Course{}}
	for _, c := range courses {
		f.courses[c.ID] = c
	}
	return f
}

func (f *fakeRegistrationRepository) Create(_ context.Context, reg *model.CourseRegistration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if f.failOn > 0 && f.creates == f.failOn {
		return f.failErr
	}
	for _, existing := range f.rows {
		if existing.CourseID == reg.CourseID && existing.UserID != nil && reg.UserID != nil && *existing.UserID == *reg.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	if reg.ID == uuid.Nil {
		reg.ID = uuid.New()
	}
	now := time.Now()
	reg.CreatedAt, reg.UpdatedAt = now, now
	f.rows = append(f.rows, *reg)
	return nil
}

func (f *fakeRegistrationRepository) FindByID(_ context.Context, id uuid.UUID) (*model.CourseRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.rows {
		if r.ID == id {
			out := r
			return &out, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRegistrationRepository) ListForCourse(_ context.Context, courseID uuid.UUID) ([]model.CourseRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CourseRegistration
	for _, r := range f.rows {
		if r.CourseID == courseID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRegistrationRepository) ListForUser(_ context.Context, userID uuid.UUID) ([]model.CourseRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CourseRegistration
	for _, r := range f.rows {
		if r.UserID != nil && *r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeRegistrationRepository) List(_ context.Context, filter repository.RegistrationFilter) ([]model.CourseRegistration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CourseRegistration
	for _, r := range f.rows {
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.CourseID != nil && r.CourseID != *filter.CourseID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeRegistrationRepository) CountActiveForCourse(_ context.Context, courseID uuid.UUID) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, r := range f.rows {
		if r.CourseID == courseID && r.Status != model.RegistrationStatusCancelled {
			n++
		}
	}
	return n, nil
}

func (f *fakeRegistrationRepository) UpdateFields(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID != id {
			continue
		}
		if v, ok := fields["status"]; ok {
			f.rows[i].Status = v.(model.RegistrationStatus)
		}
		if v, ok := fields["payment_status"]; ok {
			f.rows[i].PaymentStatus = v.(model.PaymentStatus)
		}
		f.rows[i].UpdatedAt = time.Now()
	}
	return nil
}

func (f *fakeRegistrationRepository) Delete(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return nil
}

func (f *fakeRegistrationRepository) WithTransaction(ctx context.Context, fn func(ctx context.Context, repo repository.RegistrationRepository) error) error {
	f.mu.Lock()
	snapshot := append([]model.CourseRegistration(nil), f.rows...)
	f.mu.Unlock()

	err := fn(ctx, f)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.rows = snapshot
	}
	return err
}

func (f *fakeRegistrationRepository) LockCourse(_ context.Context, courseID uuid.UUID) (*model.Course, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.courses[courseID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *c
	return &out, nil
}

func (f *fakeRegistrationRepository) persisted() []model.CourseRegistration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.CourseRegistration(nil), f.rows...)
}

func decodeMetadata(raw []byte) model.RegistrationMetadata {
	var md model.RegistrationMetadata
	_ = json.Unmarshal(raw, &md)
	return md
}
