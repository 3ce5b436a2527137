package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/nop"
	"github.com/pesafrisma19/pbbkemang/internal/repository"
	"github.com/pesafrisma19/pbbkemang/internal/spreadsheet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const importCSV = "NAMA_WP,ALAMAT,NIK,NOP,NOMINAL_PAJAK,TAHUN_PAJAK,STATUS_BAYAR\n" +
	"Asep,Kp. Sukamaju,,0001,50000,2026,LUNAS\n" +
	"Budi,Kp. Sukamaju,3205,2001,25000,2026,\n" +
	",Kp. Sukamaju,,2002,1000,2026,\n"

func newImportService(taxpayers *MockTaxpayerRepository, objects *MockTaxObjectRepository) (ImportService, *BookCache) {
	books := NewBookCache(taxpayers, time.Hour, testLogger())
	store := repository.NewImportStore(taxpayers, objects)
	return NewImportService(store, nop.Default(), 1, books, testLogger()), books
}

func TestImportService_Import(t *testing.T) {
	taxpayers := new(MockTaxpayerRepository)
	objects := new(MockTaxObjectRepository)
	svc, books := newImportService(taxpayers, objects)
	ctx := context.Background()

	asep := &models.Taxpayer{ID: uuid.New(), Name: "Asep", Address: "Kp. Sukamaju"}
	taxpayers.On("FindByNameAddress", mock.Anything, "Asep", "Kp. Sukamaju").Return(asep, nil)
	taxpayers.On("FindByNameAddress", mock.Anything, "Budi", "Kp. Sukamaju").Return(nil, nil)

	nikErr := fmt.Errorf("failed to create taxpayer %q: %w", "Budi", repository.ErrDuplicateNationalID)
	taxpayers.On("Create", mock.Anything, mock.Anything).Return(nil, nikErr)

	objects.On("Upsert", mock.Anything, mock.MatchedBy(func(in models.TaxObjectUpsert) bool {
		return in.TaxpayerID == asep.ID && in.NOP == "320513000500000017" && in.Status.IsPaid()
	})).Return(&models.TaxObject{ID: uuid.New()}, nil)

	taxpayers.On("ListWithTaxObjects", mock.Anything).Return([]models.Taxpayer{}, nil)
	before, err := books.Get(ctx)
	require.NoError(t, err)

	result, err := svc.Import(ctx, "data.csv", strings.NewReader(importCSV))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 1, result.MatchedTaxpayers)
	assert.Equal(t, 1, result.AssetsSaved)
	assert.Equal(t, 2, result.Skipped)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, "Baris 3: Gagal buat WP (NIK Sudah Terdaftar)", result.Errors[0])
	assert.Contains(t, result.Errors[1], "Baris 4: Data tidak lengkap")

	after, err := books.Get(ctx)
	require.NoError(t, err)
	assert.NotSame(t, before, after)
}

func TestImportService_UnreadableFile(t *testing.T) {
	svc, _ := newImportService(new(MockTaxpayerRepository), new(MockTaxObjectRepository))

	_, err := svc.Import(context.Background(), "data.pdf", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnreadableFile)
	assert.ErrorIs(t, err, spreadsheet.ErrUnsupportedFormat)

	_, err = svc.Import(context.Background(), "data.csv", strings.NewReader("NAMA_WP,ALAMAT\n"))
	assert.ErrorIs(t, err, spreadsheet.ErrNoDataRows)
}

func TestImportService_Template(t *testing.T) {
	svc, _ := newImportService(new(MockTaxpayerRepository), new(MockTaxObjectRepository))

	var buf bytes.Buffer
	require.NoError(t, svc.Template(&buf))

	rows, err := spreadsheet.ReadXLSX(&buf)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}
