package access_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/forgeworks/go-access"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-router"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockUsers implements access.Users for the methods the engine calls.
// The embedded interface covers the rest of the repository surface;
// calling an unmocked method panics, which is what we want in tests.
type MockUsers struct {
	mock.Mock
	access.Users
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*access.User, error) {
	args := m.Called(ctx, id, criteria)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) FindByEmail(ctx context.Context, email string) (*access.User, error) {
	args := m.Called(ctx, email)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) FindByEmailTx(ctx context.Context, tx bun.IDB, email string) (*access.User, error) {
	args := m.Called(ctx, tx, email)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) FindByEmailPrefix(ctx context.Context, local string) (*access.User, error) {
	args := m.Called(ctx, local)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) FindByNameContains(ctx context.Context, fragment string) (*access.User, error) {
	args := m.Called(ctx, fragment)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) FindByProviderID(ctx context.Context, providerID string) (*access.User, error) {
	args := m.Called(ctx, providerID)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) Create(ctx context.Context, record *access.User, criteria ...repository.InsertCriteria) (*access.User, error) {
	args := m.Called(ctx, record, criteria)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *access.User, criteria ...repository.InsertCriteria) (*access.User, error) {
	args := m.Called(ctx, tx, record, criteria)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) GetOrCreate(ctx context.Context, record *access.User) (*access.User, error) {
	args := m.Called(ctx, record)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) Update(ctx context.Context, record *access.User, criteria ...repository.UpdateCriteria) (*access.User, error) {
	args := m.Called(ctx, record, criteria)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) UpdateTx(ctx context.Context, tx bun.IDB, record *access.User, criteria ...repository.UpdateCriteria) (*access.User, error) {
	args := m.Called(ctx, tx, record, criteria)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) UpdateStatus(ctx context.Context, id uuid.UUID, status access.UserStatus) (*access.User, error) {
	args := m.Called(ctx, id, status)
	return userArg(args.Get(0)), args.Error(1)
}

func (m *MockUsers) DeleteByID(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) DeleteByIDTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	args := m.Called(ctx, tx, id)
	return args.Error(0)
}

func notFoundErr() error {
	return repository.NewRecordNotFound()
}

func userArg(v any) *access.User {
	if v == nil {
		return nil
	}
	return v.(*access.User)
}

// MockRepositoryManager runs transaction bodies inline against the mocked
// repository.
type MockRepositoryManager struct {
	users access.Users
}

func NewMockRepositoryManager(users access.Users) *MockRepositoryManager {
	return &MockRepositoryManager{users: users}
}

func (m *MockRepositoryManager) Validate() error { return nil }

func (m *MockRepositoryManager) MustValidate() {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Users() access.Users { return m.users }

// MockIdentityProvider implements access.IdentityProvider.
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) FetchLinkedCredentials(ctx context.Context, providerID string) (access.LinkedCredentials, error) {
	args := m.Called(ctx, providerID)
	return args.Get(0).(access.LinkedCredentials), args.Error(1)
}

func (m *MockIdentityProvider) BeginLink(ctx context.Context, userID string, credential access.CredentialType, value string) (string, error) {
	args := m.Called(ctx, userID, credential, value)
	return args.String(0), args.Error(1)
}

func (m *MockIdentityProvider) ConfirmLink(ctx context.Context, token, proof string) (bool, error) {
	args := m.Called(ctx, token, proof)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdentityProvider) Unlink(ctx context.Context, userID string, credential access.CredentialType, value string) (bool, error) {
	args := m.Called(ctx, userID, credential, value)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdentityProvider) ListAllowlist(ctx context.Context) ([]access.AllowlistEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]access.AllowlistEntry), args.Error(1)
}

// MockActivitySink records activity events.
type MockActivitySink struct {
	mock.Mock
}

func (m *MockActivitySink) Record(ctx context.Context, event access.ActivityEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// CaptureSink collects events without expectations, for tests that only
// care about what was emitted.
type CaptureSink struct {
	Events []access.ActivityEvent
}

func (c *CaptureSink) Record(_ context.Context, event access.ActivityEvent) error {
	c.Events = append(c.Events, event)
	return nil
}

// FailingSink always errors, for tests asserting sink failures stay
// best-effort.
type FailingSink struct {
	Err error
}

func (f *FailingSink) Record(context.Context, access.ActivityEvent) error {
	return f.Err
}

// CaptureLogger collects formatted warn/error lines.
type CaptureLogger struct {
	Warns  []string
	Errors []string
}

func (c *CaptureLogger) Debug(string, ...any) {}
func (c *CaptureLogger) Info(string, ...any)  {}

func (c *CaptureLogger) Warn(format string, args ...any) {
	c.Warns = append(c.Warns, fmt.Sprintf(format, args...))
}

func (c *CaptureLogger) Error(format string, args ...any) {
	c.Errors = append(c.Errors, fmt.Sprintf(format, args...))
}

// MockContext mocks router.Context for controller tests.
type MockContext struct {
	mock.Mock
	NextCalled bool
}

func (m *MockContext) Next() error {
	m.NextCalled = true
	return nil
}

func (m *MockContext) Context() context.Context {
	args := m.Called()
	c, ok := args.Get(0).(context.Context)
	if !ok {
		panic("arg needs to be context.Context")
	}
	return c
}

func (m *MockContext) SetContext(ctx context.Context) {
	m.Called(ctx)
}

func (m *MockContext) Path() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Method() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) Body() []byte {
	args := m.Called()
	return args.Get(0).([]byte)
}

func (m *MockContext) Status(code int) router.Context {
	m.Called(code)
	return m
}

func (m *MockContext) SendString(s string) error {
	args := m.Called(s)
	return args.Error(0)
}

func (m *MockContext) Send(b []byte) error {
	args := m.Called(b)
	return args.Error(0)
}

func (m *MockContext) JSON(code int, val any) error {
	args := m.Called(code, val)
	return args.Error(0)
}

func (m *MockContext) NoContent(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) Render(name string, bind any, layout ...string) error {
	if len(layout) > 0 {
		args := m.Called(name, bind, layout[0])
		return args.Error(0)
	}
	args := m.Called(name, bind)
	return args.Error(0)
}

func (m *MockContext) Redirect(path string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(path, status)
		return args.Error(0)
	}
	args := m.Called(path)
	return args.Error(0)
}

func (m *MockContext) RedirectToRoute(name string, data router.ViewContext, status ...int) error {
	if len(status) > 0 {
		args := m.Called(name, data, status[0])
		return args.Error(0)
	}
	args := m.Called(name, data)
	return args.Error(0)
}

func (m *MockContext) RedirectBack(fallback string, status ...int) error {
	if len(status) > 0 {
		args := m.Called(fallback, status)
		return args.Error(0)
	}
	args := m.Called(fallback)
	return args.Error(0)
}

func (m *MockContext) SetHeader(key, val string) router.Context {
	m.Called(key, val)
	return m
}

func (m *MockContext) Header(key string) string {
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Get(key string, defaultValue any) any {
	args := m.Called(key, defaultValue)
	return args.Get(0)
}

func (m *MockContext) GetBool(key string, defaultValue bool) bool {
	args := m.Called(key, defaultValue)
	return args.Bool(0)
}

func (m *MockContext) GetInt(key string, def int) int {
	args := m.Called(key, def)
	return args.Int(0)
}

func (m *MockContext) Set(key string, val any) {
	m.Called(key, val)
}

func (m *MockContext) Bind(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindJSON(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindXML(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) BindQuery(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) CookieParser(i any) error {
	args := m.Called(i)
	return args.Error(0)
}

func (m *MockContext) Cookie(cookie *router.Cookie) {
	m.Called(cookie)
}

func (m *MockContext) Cookies(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) Param(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) ParamsInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Query(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) QueryValues(key string) []string {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]string)
}

func (m *MockContext) QueryInt(key string, defaultValue int) int {
	args := m.Called(key, defaultValue)
	return args.Int(0)
}

func (m *MockContext) Queries() map[string]string {
	args := m.Called()
	return args.Get(0).(map[string]string)
}

func (m *MockContext) GetString(key string, defaultValue string) string {
	args := m.Called(key, defaultValue)
	return args.String(0)
}

func (m *MockContext) Locals(key any, value ...any) any {
	if len(value) > 0 {
		m.Called(key, value[0])
		return nil
	}
	args := m.Called(key)
	return args.Get(0)
}

func (m *MockContext) OriginalURL() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) LocalsMerge(key any, value map[string]any) map[string]any {
	args := m.Called(key, value)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(map[string]any)
}

func (m *MockContext) FormFile(key string) (*multipart.FileHeader, error) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*multipart.FileHeader), args.Error(1)
}

func (m *MockContext) FormValue(key string, defaultValue ...string) string {
	if len(defaultValue) > 0 {
		args := m.Called(key, defaultValue[0])
		return args.String(0)
	}
	args := m.Called(key)
	return args.String(0)
}

func (m *MockContext) IP() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) SendStatus(code int) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockContext) SendStream(r io.Reader) error {
	args := m.Called(r)
	return args.Error(0)
}

func (m *MockContext) RouteName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockContext) RouteParams() map[string]string {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(map[string]string)
}

func (m *MockContext) OnNext(callback func() error) {
	m.Called(callback)
}

func (m *MockContext) Referer() string {
	args := m.Called()
	return args.String(0)
}
