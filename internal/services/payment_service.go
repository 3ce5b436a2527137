package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pesafrisma19/pbbkemang/internal/logger"
	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/ownership"
	"github.com/pesafrisma19/pbbkemang/internal/repository"
)

// PaymentService defines payment bookkeeping operations.
type PaymentService interface {
	// Bills lists tax objects ordered by NOP, filtered by owner name or NOP.
	Bills(ctx context.Context, term string) ([]ownership.Bill, error)

	// Toggle flips a tax object between paid and unpaid.
	// Returns ErrTaxObjectNotFound if the tax object does not exist.
	Toggle(ctx context.Context, id uuid.UUID) (*models.TaxObject, error)
}

type paymentService struct {
	repo  repository.TaxObjectRepository
	books *BookCache
	now   func() time.Time
	log   *logger.Logger
}

// NewPaymentService creates a new instance of PaymentService.
func NewPaymentService(repo repository.TaxObjectRepository, books *BookCache, log *logger.Logger) PaymentService {
	return &paymentService{
		repo:  repo,
		books: books,
		now:   time.Now,
		log:   log,
	}
}

func (s *paymentService) Bills(ctx context.Context, term string) ([]ownership.Bill, error) {
	book, err := s.books.Get(ctx)
	if err != nil {
		return nil, err
	}
	return book.Bills(term), nil
}

func (s *paymentService) Toggle(ctx context.Context, id uuid.UUID) (*models.TaxObject, error) {
	book, err := s.books.Get(ctx)
	if err != nil {
		return nil, err
	}

	updated, err := book.Toggle(ctx, id, s.now(), func(ctx context.Context, obj models.TaxObject) error {
		ok, err := s.repo.SetStatus(ctx, obj.ID, obj.Status, obj.PaidAt)
		if err != nil {
			return err
		}
		if !ok {
			return ErrTaxObjectNotFound
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrTaxObjectNotFound) {
			s.books.Invalidate()
		} else {
			s.log.Error("Failed to update payment status", err, map[string]interface{}{
				"tax_object_id": id.String(),
			})
		}
		return nil, err
	}

	s.log.Info("Payment status changed", map[string]interface{}{
		"tax_object_id": id.String(),
		"nop":           updated.NOP,
		"status":        string(updated.Status),
	})
	return &updated, nil
}
