package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/pesafrisma19/pbbkemang/internal/auth"
	"github.com/pesafrisma19/pbbkemang/internal/config"
	"github.com/pesafrisma19/pbbkemang/internal/logger"
	"github.com/pesafrisma19/pbbkemang/internal/middleware"
	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/ownership"
	"github.com/pesafrisma19/pbbkemang/internal/reconcile"
	"github.com/pesafrisma19/pbbkemang/internal/services"
	"github.com/stretchr/testify/mock"
)

func init() {
	gin.SetMode(gin.TestMode)
	UseJSONFieldNames()
}

const validToken = "6f1c2a8e-3b4d-4e5f-9a0b-1c2d3e4f5a6b"

var testAuthConfig = config.AuthConfig{
	SessionCookie: "admin_session",
	SessionTTL:    12 * time.Hour,
	BcryptCost:    4,
}

// MockAuthService is a mock implementation of auth.Service for testing
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Login(ctx context.Context, phone, password string) (*auth.Session, error) {
	args := m.Called(ctx, phone, password)
	s, _ := args.Get(0).(*auth.Session)
	return s, args.Error(1)
}

func (m *MockAuthService) Logout(ctx context.Context, token string) error {
	return m.Called(ctx, token).Error(0)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*models.Admin, error) {
	args := m.Called(ctx, token)
	a, _ := args.Get(0).(*models.Admin)
	return a, args.Error(1)
}

func (m *MockAuthService) ChangePassword(ctx context.Context, phone, oldPassword, newPassword string) error {
	return m.Called(ctx, phone, oldPassword, newPassword).Error(0)
}

func (m *MockAuthService) CreateAdmin(ctx context.Context, phone string, name *string, password string) (*models.Admin, error) {
	args := m.Called(ctx, phone, name, password)
	a, _ := args.Get(0).(*models.Admin)
	return a, args.Error(1)
}

func (m *MockAuthService) RehashPlaintext(ctx context.Context) (auth.RehashReport, error) {
	args := m.Called(ctx)
	return args.Get(0).(auth.RehashReport), args.Error(1)
}

// MockTaxpayerService is a mock implementation of services.TaxpayerService for testing
type MockTaxpayerService struct {
	mock.Mock
}

func (m *MockTaxpayerService) Search(ctx context.Context, q ownership.Query) (ownership.SearchResult, error) {
	args := m.Called(ctx, q)
	return args.Get(0).(ownership.SearchResult), args.Error(1)
}

func (m *MockTaxpayerService) Get(ctx context.Context, id uuid.UUID) (*services.TaxpayerDetail, error) {
	args := m.Called(ctx, id)
	d, _ := args.Get(0).(*services.TaxpayerDetail)
	return d, args.Error(1)
}

func (m *MockTaxpayerService) Create(ctx context.Context, in services.TaxpayerInput) (*models.Taxpayer, error) {
	args := m.Called(ctx, in)
	tp, _ := args.Get(0).(*models.Taxpayer)
	return tp, args.Error(1)
}

func (m *MockTaxpayerService) Update(ctx context.Context, id uuid.UUID, in services.TaxpayerInput) (*models.Taxpayer, error) {
	args := m.Called(ctx, id, in)
	tp, _ := args.Get(0).(*models.Taxpayer)
	return tp, args.Error(1)
}

func (m *MockTaxpayerService) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockTaxpayerService) Owners(ctx context.Context, rawNOP string) (*services.NOPOwners, error) {
	args := m.Called(ctx, rawNOP)
	o, _ := args.Get(0).(*services.NOPOwners)
	return o, args.Error(1)
}

// MockPaymentService is a mock implementation of services.PaymentService for testing
type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Bills(ctx context.Context, term string) ([]ownership.Bill, error) {
	args := m.Called(ctx, term)
	b, _ := args.Get(0).([]ownership.Bill)
	return b, args.Error(1)
}

func (m *MockPaymentService) Toggle(ctx context.Context, id uuid.UUID) (*models.TaxObject, error) {
	args := m.Called(ctx, id)
	o, _ := args.Get(0).(*models.TaxObject)
	return o, args.Error(1)
}

// MockImportService is a mock implementation of services.ImportService for testing
type MockImportService struct {
	mock.Mock
}

func (m *MockImportService) Import(ctx context.Context, filename string, r io.Reader) (reconcile.Result, error) {
	body, _ := io.ReadAll(r)
	args := m.Called(ctx, filename, string(body))
	return args.Get(0).(reconcile.Result), args.Error(1)
}

func (m *MockImportService) Template(w io.Writer) error {
	args := m.Called(w)
	if data, ok := args.Get(0).(string); ok {
		_, _ = io.WriteString(w, data)
	}
	return args.Error(1)
}

// MockStatsService is a mock implementation of services.StatsService for testing
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) Dashboard(ctx context.Context) (ownership.DashboardStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(ownership.DashboardStats), args.Error(1)
}

func (m *MockStatsService) Public(ctx context.Context) (ownership.PublicStats, error) {
	args := m.Called(ctx)
	return args.Get(0).(ownership.PublicStats), args.Error(1)
}

func (m *MockStatsService) PublicSearch(ctx context.Context, term string) ([]ownership.PublicResult, error) {
	args := m.Called(ctx, term)
	r, _ := args.Get(0).([]ownership.PublicResult)
	return r, args.Error(1)
}

// testAPI wires every handler to mocks behind the real router and guards.
type testAPI struct {
	router    *gin.Engine
	auth      *MockAuthService
	taxpayers *MockTaxpayerService
	payments  *MockPaymentService
	imports   *MockImportService
	stats     *MockStatsService
	admin     *models.Admin
}

func newTestAPI(maxUpload int64) *testAPI {
	name := "Pak Kades"
	api := &testAPI{
		auth:      &MockAuthService{},
		taxpayers: &MockTaxpayerService{},
		payments:  &MockPaymentService{},
		imports:   &MockImportService{},
		stats:     &MockStatsService{},
		admin:     &models.Admin{ID: uuid.New(), Phone: "081234567890", Name: &name},
	}
	api.auth.On("Authenticate", mock.Anything, validToken).Return(api.admin, nil).Maybe()
	api.auth.On("Authenticate", mock.Anything, mock.Anything).Return(nil, auth.ErrInvalidSession).Maybe()

	log := logger.NewWithWriter("test", io.Discard)
	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))

	RegisterRoutes(router, Set{
		Health:    NewHealthHandler(nil, nil, "test"),
		Auth:      NewAuthHandler(api.auth, testAuthConfig),
		Taxpayers: NewTaxpayerHandler(api.taxpayers),
		Payments:  NewPaymentHandler(api.payments),
		Imports:   NewImportHandler(api.imports, maxUpload),
		Stats:     NewStatsHandler(api.stats),
	}, RequireSession(api.auth, testAuthConfig.SessionCookie), nil)

	api.router = router
	return api
}

// do sends a request, attaching the session cookie when authed is set.
func (a *testAPI) do(method, path, body string, authed bool) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.AddCookie(&http.Cookie{Name: testAuthConfig.SessionCookie, Value: validToken})
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func (a *testAPI) assertExpectations(t mock.TestingT) {
	a.taxpayers.AssertExpectations(t)
	a.payments.AssertExpectations(t)
	a.imports.AssertExpectations(t)
	a.stats.AssertExpectations(t)
}
