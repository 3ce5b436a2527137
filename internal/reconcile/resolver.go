package reconcile

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pesafrisma19/pbbkemang/internal/models"
	"github.com/pesafrisma19/pbbkemang/internal/spreadsheet"
	"golang.org/x/text/cases"
)

// resolution says how a row's taxpayer was obtained.
type resolution int

const (
	resolvedCached resolution = iota
	resolvedMatched
	resolvedCreated
	failedLookup
	failedCreate
)

func (r resolution) verb() string {
	if r == failedLookup {
		return "cari"
	}
	return "buat"
}

// pending is an in-flight or finished resolution for one key.
// id and err are written before done is closed.
type pending struct {
	done chan struct{}
	err  error
	id   uuid.UUID
}

// resolver maps reconciliation keys to taxpayer ids for one batch.
// Concurrent rows with the same key wait on the first one instead of
// looking up or creating the taxpayer again.
type resolver struct {
	store   Store
	entries map[Key]*pending
	mu      sync.Mutex
}

func newResolver(store Store) *resolver {
	return &resolver{
		store:   store,
		entries: make(map[Key]*pending),
	}
}

// resolve returns the taxpayer id for row. A failed resolution is not
// cached, so a later row with the same key tries again.
func (r *resolver) resolve(ctx context.Context, row spreadsheet.Row) (uuid.UUID, resolution, error) {
	key := TaxpayerKey(row.Name, row.Address)

	for {
		r.mu.Lock()
		if p, ok := r.entries[key]; ok {
			r.mu.Unlock()
			select {
			case <-p.done:
			case <-ctx.Done():
				return uuid.Nil, failedLookup, ctx.Err()
			}
			if p.err == nil {
				return p.id, resolvedCached, nil
			}
			continue
		}

		p := &pending{done: make(chan struct{})}
		r.entries[key] = p
		r.mu.Unlock()

		id, how, err := r.lookupOrCreate(ctx, row)
		if err != nil {
			r.mu.Lock()
			delete(r.entries, key)
			r.mu.Unlock()
		}
		p.id, p.err = id, err
		close(p.done)
		return id, how, err
	}
}

func (r *resolver) lookupOrCreate(ctx context.Context, row spreadsheet.Row) (uuid.UUID, resolution, error) {
	existing, err := r.store.FindTaxpayer(ctx, row.Name, row.Address)
	if err != nil {
		return uuid.Nil, failedLookup, err
	}
	if existing != nil {
		return existing.ID, resolvedMatched, nil
	}

	created, err := r.store.CreateTaxpayer(ctx, models.NewTaxpayer{
		Name:     row.Name,
		Address:  row.Address,
		NIK:      row.NIK,
		WhatsApp: row.WhatsApp,
	})
	if err != nil {
		return uuid.Nil, failedCreate, err
	}
	if created == nil {
		return uuid.Nil, failedCreate, fmt.Errorf("store returned no taxpayer")
	}
	return created.ID, resolvedCreated, nil
}

func foldKey(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}
