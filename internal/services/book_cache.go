package services

import (
	"context"
	"sync"
	"time"

	"github.com/pesafrisma19/pbbkemang/internal/logger"
	"github.com/pesafrisma19/pbbkemang/internal/ownership"
	"github.com/pesafrisma19/pbbkemang/internal/repository"
	"golang.org/x/sync/singleflight"
)

// DefaultBookMaxAge bounds how stale the cached book may get when another
// process, such as the import CLI, writes to the database.
const DefaultBookMaxAge = 30 * time.Second

// BookCache holds the ownership book built from every taxpayer. Concurrent
// loads share one database read.
type BookCache struct {
	repo   repository.TaxpayerRepository
	log    *logger.Logger
	maxAge time.Duration
	loads  singleflight.Group

	mu   sync.Mutex
	book *ownership.Book
	gen  uint64
}

// NewBookCache creates a BookCache. A maxAge of 0 uses DefaultBookMaxAge.
func NewBookCache(repo repository.TaxpayerRepository, maxAge time.Duration, log *logger.Logger) *BookCache {
	if maxAge <= 0 {
		maxAge = DefaultBookMaxAge
	}
	return &BookCache{
		repo:   repo,
		log:    log,
		maxAge: maxAge,
	}
}

// Get returns the cached book, loading it when missing or expired.
func (c *BookCache) Get(ctx context.Context) (*ownership.Book, error) {
	c.mu.Lock()
	if c.book != nil && time.Since(c.book.BuiltAt()) < c.maxAge {
		book := c.book
		c.mu.Unlock()
		return book, nil
	}
	gen := c.gen
	c.mu.Unlock()

	v, err, _ := c.loads.Do("book", func() (interface{}, error) {
		taxpayers, err := c.repo.ListWithTaxObjects(ctx)
		if err != nil {
			return nil, err
		}
		book := ownership.Build(taxpayers)

		c.mu.Lock()
		// A write that invalidated during the load keeps the book uncached.
		if c.gen == gen {
			c.book = book
		}
		c.mu.Unlock()

		c.log.Debug("Ownership book built", map[string]interface{}{
			"taxpayers": book.Len(),
		})
		return book, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ownership.Book), nil
}

// Invalidate drops the cached book so the next Get reloads it.
func (c *BookCache) Invalidate() {
	c.mu.Lock()
	c.book = nil
	c.gen++
	c.mu.Unlock()
}
