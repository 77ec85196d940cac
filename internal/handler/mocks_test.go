package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"agilecoach/internal/auth"
	"agilecoach/internal/errors"
	"agilecoach/internal/model"
	"agilecoach/internal/repository"
	"agilecoach/internal/seed"
	"agilecoach/internal/service"
)

type testValidator struct{}

func (testValidator) Validate(i interface{}) error {
	return service.ValidateStruct(i)
}

func newContext(method, target string, body interface{}) (echo.Context, *httptest.ResponseRecorder) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		reader = bytes.NewReader(raw)
	}
	e := echo.New()
	e.Validator = testValidator{}
	req := httptest.NewRequest(method, target, reader)
	if reader != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func assertHTTPError(t *testing.T, err error, status int, code string) errors.ErrorResponse {
	t.Helper()
	require.Error(t, err)
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected *echo.HTTPError, got %T", err)
	assert.Equal(t, status, he.Code)
	body, ok := he.Message.(errors.ErrorResponse)
	require.True(t, ok, "expected ErrorResponse message, got %T", he.Message)
	assert.Equal(t, code, body.Code)
	return body
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), out))
}

// MockAuthService is a mock implementation of service.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) SignUp(ctx context.Context, email, password string, meta service.UserMetadata, redirectTo string) (*model.User, error) {
	args := m.Called(ctx, email, password, meta, redirectTo)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) ConfirmEmail(ctx context.Context, token string) (*model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) SignIn(ctx context.Context, email, password string) (*service.TokenPair, *model.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*service.TokenPair), args.Get(1).(*model.User), args.Error(2)
}

func (m *MockAuthService) SignOut(ctx context.Context, refreshToken string, access *auth.Claims) error {
	args := m.Called(ctx, refreshToken, access)
	return args.Error(0)
}

func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	args := m.Called(ctx, refreshToken)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) ResetPasswordForEmail(ctx context.Context, email, redirectTo string) error {
	args := m.Called(ctx, email, redirectTo)
	return args.Error(0)
}

func (m *MockAuthService) SetSession(ctx context.Context, token string) (*service.TokenPair, *model.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*service.TokenPair), args.Get(1).(*model.User), args.Error(2)
}

func (m *MockAuthService) UpdateUser(ctx context.Context, userID uuid.UUID, update service.UserUpdate) (*model.User, error) {
	args := m.Called(ctx, userID, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) GetSession(ctx context.Context, accessToken string) (*model.User, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockAuthService) OnAuthStateChange(listener auth.Listener) func() {
	m.Called(listener)
	return func() {}
}

// MockCourseService is a mock implementation of service.CourseService.
type MockCourseService struct {
	mock.Mock
}

func (m *MockCourseService) ListPublished(ctx context.Context, category, level string) ([]model.Course, error) {
	args := m.Called(ctx, category, level)
	return args.Get(0).([]model.Course), args.Error(1)
}

func (m *MockCourseService) GetBySlug(ctx context.Context, slug string) (*model.Course, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Course), args.Error(1)
}

func (m *MockCourseService) List(ctx context.Context, filter repository.CourseFilter) ([]model.Course, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]model.Course), args.Error(1)
}

func (m *MockCourseService) Get(ctx context.Context, id uuid.UUID) (*model.Course, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Course), args.Error(1)
}

func (m *MockCourseService) Create(ctx context.Context, in service.CourseInput) (*model.Course, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Course), args.Error(1)
}

func (m *MockCourseService) CreateFromTemplate(ctx context.Context, templateID uuid.UUID, schedule service.Schedule) (*model.Course, error) {
	args := m.Called(ctx, templateID, schedule)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Course), args.Error(1)
}

func (m *MockCourseService) Update(ctx context.Context, id uuid.UUID, in service.CourseInput) (*model.Course, error) {
	args := m.Called(ctx, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Course), args.Error(1)
}

func (m *MockCourseService) SetPublished(ctx context.Context, id uuid.UUID, published bool) (*model.Course, error) {
	args := m.Called(ctx, id, published)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Course), args.Error(1)
}

func (m *MockCourseService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockRegistrationService is a mock implementation of service.RegistrationService.
type MockRegistrationService struct {
	mock.Mock
}

func (m *MockRegistrationService) RegisterIndividual(ctx context.Context, courseID uuid.UUID, p service.Participant, userID *uuid.UUID) (*model.CourseRegistration, error) {
	args := m.Called(ctx, courseID, p, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CourseRegistration), args.Error(1)
}

func (m *MockRegistrationService) RegisterGroup(ctx context.Context, courseID uuid.UUID, form service.GroupForm, userID *uuid.UUID) ([]model.CourseRegistration, error) {
	args := m.Called(ctx, courseID, form, userID)
	regs, _ := args.Get(0).([]model.CourseRegistration)
	return regs, args.Error(1)
}

func (m *MockRegistrationService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.CourseRegistration, error) {
	args := m.Called(ctx, userID)
	regs, _ := args.Get(0).([]model.CourseRegistration)
	return regs, args.Error(1)
}

// MockRegistrationAdminService is a mock implementation of service.RegistrationAdminService.
type MockRegistrationAdminService struct {
	mock.Mock
}

func (m *MockRegistrationAdminService) ListForCourse(ctx context.Context, courseID uuid.UUID) ([]model.CourseRegistration, error) {
	args := m.Called(ctx, courseID)
	regs, _ := args.Get(0).([]model.CourseRegistration)
	return regs, args.Error(1)
}

func (m *MockRegistrationAdminService) UpdateStatus(ctx context.Context, id uuid.UUID, update service.StatusUpdate) (*model.CourseRegistration, error) {
	args := m.Called(ctx, id, update)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.CourseRegistration), args.Error(1)
}

func (m *MockRegistrationAdminService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockRegistrationAdminService) ListAll(ctx context.Context, filter repository.RegistrationFilter) ([]model.CourseRegistration, error) {
	args := m.Called(ctx, filter)
	regs, _ := args.Get(0).([]model.CourseRegistration)
	return regs, args.Error(1)
}

// MockSettingsService is a mock implementation of SettingsService.
type MockSettingsService struct {
	mock.Mock
}

func (m *MockSettingsService) GetAll(ctx context.Context) (map[string]json.RawMessage, error) {
	args := m.Called(ctx)
	values, _ := args.Get(0).(map[string]json.RawMessage)
	return values, args.Error(1)
}

func (m *MockSettingsService) Upsert(ctx context.Context, key string, value json.RawMessage, description *string) (*model.SiteSetting, error) {
	args := m.Called(ctx, key, value, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.SiteSetting), args.Error(1)
}

// MockUserService is a mock implementation of service.UserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.User), args.Error(1)
}

func (m *MockUserService) List(ctx context.Context) ([]service.UserSummary, error) {
	args := m.Called(ctx)
	users, _ := args.Get(0).([]service.UserSummary)
	return users, args.Error(1)
}

func (m *MockUserService) SetRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

type fakeSeeder struct {
	got seed.Catalog
	res seed.Result
	err error
}

func (f *fakeSeeder) Apply(_ context.Context, cat seed.Catalog) (seed.Result, error) {
	f.got = cat
	return f.res, f.err
}
