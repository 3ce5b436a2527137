package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/pesafrisma19/pbbkemang/internal/logger"
	"github.com/pesafrisma19/pbbkemang/internal/nop"
	"github.com/pesafrisma19/pbbkemang/internal/reconcile"
	"github.com/pesafrisma19/pbbkemang/internal/repository"
	"github.com/pesafrisma19/pbbkemang/internal/spreadsheet"
)

// ErrUnreadableFile wraps every failure to read the uploaded spreadsheet.
var ErrUnreadableFile = errors.New("unreadable import file")

// ImportService defines spreadsheet import operations.
type ImportService interface {
	// Import reads a .xlsx or .csv file and reconciles its rows. Row
	// problems are reported in the result; only file-level failures and
	// cancellation return an error.
	Import(ctx context.Context, filename string, r io.Reader) (reconcile.Result, error)

	// Template writes the import template workbook.
	Template(w io.Writer) error
}

type importService struct {
	reconciler *reconcile.Reconciler
	books      *BookCache
	log        *logger.Logger
}

// NewImportService creates a new instance of ImportService. books may be
// nil when no cached view needs refreshing.
func NewImportService(
	store reconcile.Store,
	expander nop.Expander,
	workers int,
	books *BookCache,
	log *logger.Logger,
) ImportService {
	parser := spreadsheet.NewParser(expander, time.Now)
	return &importService{
		reconciler: reconcile.New(store, parser, log,
			reconcile.WithWorkers(workers),
			reconcile.WithErrorDescriber(repository.Reason),
		),
		books: books,
		log:   log,
	}
}

func (s *importService) Import(ctx context.Context, filename string, r io.Reader) (reconcile.Result, error) {
	rows, err := spreadsheet.Read(filename, r)
	if err != nil {
		s.log.Warn("Import file rejected", map[string]interface{}{
			"filename": filename,
			"error":    err.Error(),
		})
		return reconcile.Result{Errors: []string{}}, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}

	result, err := s.reconciler.Run(ctx, rows)
	if s.books != nil && (result.NewTaxpayers > 0 || result.AssetsSaved > 0) {
		s.books.Invalidate()
	}
	if err != nil {
		return result, err
	}

	s.log.Info("Spreadsheet imported", map[string]interface{}{
		"filename": filename,
		"rows":     result.Rows,
	})
	return result, nil
}

func (s *importService) Template(w io.Writer) error {
	return spreadsheet.WriteTemplate(w)
}
