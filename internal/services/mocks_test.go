package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/pesafrisma19/pbbkemang/internal/logger"
	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockTaxpayerRepository is a mock implementation of TaxpayerRepository for testing
type MockTaxpayerRepository struct {
	mock.Mock
}

func (m *MockTaxpayerRepository) FindByNameAddress(ctx context.Context, name, address string) (*models.Taxpayer, error) {
	args := m.Called(ctx, name, address)
	tp, _ := args.Get(0).(*models.Taxpayer)
	return tp, args.Error(1)
}

func (m *MockTaxpayerRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Taxpayer, error) {
	args := m.Called(ctx, id)
	tp, _ := args.Get(0).(*models.Taxpayer)
	return tp, args.Error(1)
}

func (m *MockTaxpayerRepository) Create(ctx context.Context, in models.NewTaxpayer) (*models.Taxpayer, error) {
	args := m.Called(ctx, in)
	tp, _ := args.Get(0).(*models.Taxpayer)
	return tp, args.Error(1)
}

func (m *MockTaxpayerRepository) Update(ctx context.Context, id uuid.UUID, in models.NewTaxpayer) (*models.Taxpayer, error) {
	args := m.Called(ctx, id, in)
	tp, _ := args.Get(0).(*models.Taxpayer)
	return tp, args.Error(1)
}

func (m *MockTaxpayerRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockTaxpayerRepository) ListWithTaxObjects(ctx context.Context) ([]models.Taxpayer, error) {
	args := m.Called(ctx)
	list, _ := args.Get(0).([]models.Taxpayer)
	return list, args.Error(1)
}

func (m *MockTaxpayerRepository) ReplaceTaxObjects(ctx context.Context, taxpayerID uuid.UUID, objects []models.TaxObjectUpsert) ([]models.TaxObject, error) {
	args := m.Called(ctx, taxpayerID, objects)
	saved, _ := args.Get(0).([]models.TaxObject)
	return saved, args.Error(1)
}

// MockTaxObjectRepository is a mock implementation of TaxObjectRepository for testing
type MockTaxObjectRepository struct {
	mock.Mock
}

func (m *MockTaxObjectRepository) Upsert(ctx context.Context, in models.TaxObjectUpsert) (*models.TaxObject, error) {
	args := m.Called(ctx, in)
	obj, _ := args.Get(0).(*models.TaxObject)
	return obj, args.Error(1)
}

func (m *MockTaxObjectRepository) SetStatus(ctx context.Context, id uuid.UUID, status models.PaymentStatus, paidAt *time.Time) (bool, error) {
	args := m.Called(ctx, id, status, paidAt)
	return args.Bool(0), args.Error(1)
}

func testLogger() *logger.Logger {
	return logger.NewWithWriter("test", io.Discard)
}

const (
	sharedNOP = "320513000500020017"
	asepNOP   = "320513000500000017"
)

func str(s string) *string { return &s }

// sampleTaxpayers returns Asep and Budi sharing a NOP.
func sampleTaxpayers() []models.Taxpayer {
	asepID, budiID := uuid.New(), uuid.New()
	paidAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	return []models.Taxpayer{
		{
			ID: asepID, Name: "Asep", Address: "Kp. Sukamaju",
			TaxObjects: []models.TaxObject{
				{ID: uuid.New(), TaxpayerID: asepID, NOP: asepNOP, AmountDue: 50000, Year: 2026, Status: models.StatusPaid, PaidAt: &paidAt},
				{ID: uuid.New(), TaxpayerID: asepID, NOP: sharedNOP, AmountDue: 25000, Year: 2026, Status: models.StatusUnpaid},
			},
		},
		{
			ID: budiID, Name: "Budi", Address: "Kp. Sukamaju",
			TaxObjects: []models.TaxObject{
				{ID: uuid.New(), TaxpayerID: budiID, NOP: sharedNOP, AmountDue: 25000, Year: 2026, Status: models.StatusUnpaid},
			},
		},
	}
}
