package repository

import (
	"context"

	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/reconcile"
)

var _ reconcile.Store = (*ImportStore)(nil)

// ImportStore adapts the taxpayer and tax object repositories to the
// reconciler's store contract.
type ImportStore struct {
	Taxpayers  TaxpayerRepository
	TaxObjects TaxObjectRepository
}

// NewImportStore creates an ImportStore.
func NewImportStore(taxpayers TaxpayerRepository, taxObjects TaxObjectRepository) *ImportStore {
	return &ImportStore{Taxpayers: taxpayers, TaxObjects: taxObjects}
}

func (s *ImportStore) FindTaxpayer(ctx context.Context, name, address string) (*models.Taxpayer, error) {
	return s.Taxpayers.FindByNameAddress(ctx, name, address)
}

func (s *ImportStore) CreateTaxpayer(ctx context.Context, in models.NewTaxpayer) (*models.Taxpayer, error) {
	return s.Taxpayers.Create(ctx, in)
}

func (s *ImportStore) UpsertTaxObject(ctx context.Context, in models.TaxObjectUpsert) (*models.TaxObject, error) {
	return s.TaxObjects.Upsert(ctx, in)
}
