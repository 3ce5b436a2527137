// Package reconcile turns imported spreadsheet rows into taxpayers and tax
// objects.
//
// Each row is validated, resolved to a taxpayer by its (name, address) pair
// and upserted as a tax object keyed by (NOP, taxpayer). Row problems are
// collected as messages and never abort the batch.
package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/pesafrisma19/pbbkemang/internal/logger"
	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/spreadsheet"
	"golang.org/x/sync/errgroup"
)

// Store is the persistence the reconciler writes through.
type Store interface {
	// FindTaxpayer returns the oldest taxpayer whose trimmed name and address
	// match case-insensitively, or nil, nil when there is none.
	FindTaxpayer(ctx context.Context, name, address string) (*models.Taxpayer, error)

	// CreateTaxpayer inserts a taxpayer. It fails when the national id is
	// already registered.
	CreateTaxpayer(ctx context.Context, in models.NewTaxpayer) (*models.Taxpayer, error)

	// UpsertTaxObject inserts a tax object or replaces the non-key fields of
	// the existing (NOP, taxpayer) pair.
	UpsertTaxObject(ctx context.Context, in models.TaxObjectUpsert) (*models.TaxObject, error)
}

// Result summarizes one import batch.
type Result struct {
	Errors           []string `json:"errors"`
	Rows             int      `json:"rows"`
	NewTaxpayers     int      `json:"new_taxpayers"`
	MatchedTaxpayers int      `json:"matched_taxpayers"`
	AssetsSaved      int      `json:"assets_saved"`
	Skipped          int      `json:"skipped"`
}

// Option configures a Reconciler.
type Option func(*Reconciler)

// WithWorkers processes up to n rows concurrently. Rows for the same
// taxpayer still resolve to a single taxpayer id.
func WithWorkers(n int) Option {
	return func(r *Reconciler) {
		if n > 0 {
			r.workers = n
		}
	}
}

// WithClock overrides the time source used for payment timestamps.
func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) {
		if now != nil {
			r.now = now
		}
	}
}

// WithErrorDescriber sets how persistence errors are rendered in row
// messages.
func WithErrorDescriber(describe func(error) string) Option {
	return func(r *Reconciler) {
		if describe != nil {
			r.describe = describe
		}
	}
}

// Reconciler imports spreadsheet rows into a Store.
type Reconciler struct {
	store    Store
	parser   *spreadsheet.Parser
	log      *logger.Logger
	now      func() time.Time
	describe func(error) string
	workers  int
}

// New creates a Reconciler. By default rows are processed sequentially.
func New(store Store, parser *spreadsheet.Parser, log *logger.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:    store,
		parser:   parser,
		log:      log,
		now:      time.Now,
		describe: func(err error) string { return err.Error() },
		workers:  1,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// rowOutcome is what happened to a single row.
type rowOutcome struct {
	message   string
	processed bool
	created   bool
	matched   bool
	saved     bool
	skipped   bool
}

// Run imports rows and returns the batch statistics. Rows are reported in
// input order. If ctx is cancelled, rows not yet started are left out and
// the partial result is returned together with the context error.
func (r *Reconciler) Run(ctx context.Context, rows []spreadsheet.RawRow) (Result, error) {
	started := time.Now()
	outcomes := make([]rowOutcome, len(rows))
	cache := newResolver(r.store)

	var runErr error
	if r.workers <= 1 {
		for i, row := range rows {
			if err := ctx.Err(); err != nil {
				runErr = err
				break
			}
			outcomes[i] = r.processRow(ctx, cache, row)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.workers)
		for i, row := range rows {
			if gctx.Err() != nil {
				break
			}
			i, row := i, row
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				outcomes[i] = r.processRow(gctx, cache, row)
				return nil
			})
		}
		_ = g.Wait()
		runErr = ctx.Err()
	}

	result := Result{Errors: []string{}}
	for _, o := range outcomes {
		if !o.processed {
			continue
		}
		result.Rows++
		if o.created {
			result.NewTaxpayers++
		}
		if o.matched {
			result.MatchedTaxpayers++
		}
		if o.saved {
			result.AssetsSaved++
		}
		if o.skipped {
			result.Skipped++
		}
		if o.message != "" {
			result.Errors = append(result.Errors, o.message)
		}
	}

	r.log.Info("Import finished", map[string]interface{}{
		"rows":              result.Rows,
		"new_taxpayers":     result.NewTaxpayers,
		"matched_taxpayers": result.MatchedTaxpayers,
		"assets_saved":      result.AssetsSaved,
		"skipped":           result.Skipped,
		"errors":            len(result.Errors),
		"workers":           r.workers,
		"duration_ms":       time.Since(started).Milliseconds(),
	})

	if runErr != nil {
		return result, fmt.Errorf("import interrupted after %d of %d rows: %w", result.Rows, len(rows), runErr)
	}
	return result, nil
}

func (r *Reconciler) processRow(ctx context.Context, cache *resolver, raw spreadsheet.RawRow) rowOutcome {
	out := rowOutcome{processed: true}

	row, rowErr := r.parser.Parse(raw)
	if rowErr != nil {
		r.log.Debug("Row rejected", map[string]interface{}{
			"line":   raw.Line,
			"reason": rowErr.Error(),
		})
		out.skipped = true
		out.message = rowErr.Error()
		return out
	}

	taxpayerID, how, err := cache.resolve(ctx, row)
	if err != nil {
		out.skipped = true
		out.message = fmt.Sprintf("Baris %d: Gagal %s WP (%s)", row.Line, how.verb(), r.describe(err))
		r.log.Warn("Taxpayer resolution failed", map[string]interface{}{
			"line":  row.Line,
			"error": err.Error(),
		})
		return out
	}
	out.created = how == resolvedCreated
	out.matched = how == resolvedMatched

	upsert := models.TaxObjectUpsert{
		TaxpayerID:   taxpayerID,
		NOP:          row.NOP,
		LocationName: row.Location,
		AmountDue:    row.Amount,
		Year:         row.Year,
		Status:       row.Status,
		OriginalName: row.OriginalName,
		Persil:       row.Persil,
		Blok:         row.Blok,
	}
	if row.Status.IsPaid() {
		at := r.now()
		upsert.PaidAt = &at
	}

	if _, err := r.store.UpsertTaxObject(ctx, upsert); err != nil {
		out.message = fmt.Sprintf("Baris %d: Gagal simpan Kikitir/NOP %s (%s)", row.Line, row.NOP, r.describe(err))
		r.log.Warn("Tax object upsert failed", map[string]interface{}{
			"line":        row.Line,
			"nop":         row.NOP,
			"taxpayer_id": taxpayerID.String(),
			"error":       err.Error(),
		})
		return out
	}
	out.saved = true
	return out
}

// Key identifies a taxpayer within one batch: the case-folded, trimmed
// name and address.
type Key struct {
	Name    string
	Address string
}

// TaxpayerKey is the per-batch reconciliation key for a name and address.
func TaxpayerKey(name, address string) Key {
	return Key{Name: foldKey(name), Address: foldKey(address)}
}
