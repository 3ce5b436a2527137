package services

import (
	"context"

	"github.com/pesafrisma19/pbbkemang/internal/ownership"
)

// StatsService serves dashboard figures and the public lookup.
type StatsService interface {
	Dashboard(ctx context.Context) (ownership.DashboardStats, error)
	Public(ctx context.Context) (ownership.PublicStats, error)
	// PublicSearch returns ownership.ErrQueryTooShort for short terms.
	PublicSearch(ctx context.Context, term string) ([]ownership.PublicResult, error)
}

type statsService struct {
	books *BookCache
}

// NewStatsService creates a new instance of StatsService.
func NewStatsService(books *BookCache) StatsService {
	return &statsService{books: books}
}

func (s *statsService) Dashboard(ctx context.Context) (ownership.DashboardStats, error) {
	book, err := s.books.Get(ctx)
	if err != nil {
		return ownership.DashboardStats{}, err
	}
	return book.Stats(), nil
}

func (s *statsService) Public(ctx context.Context) (ownership.PublicStats, error) {
	book, err := s.books.Get(ctx)
	if err != nil {
		return ownership.PublicStats{}, err
	}
	return book.PublicStats(), nil
}

func (s *statsService) PublicSearch(ctx context.Context, term string) ([]ownership.PublicResult, error) {
	book, err := s.books.Get(ctx)
	if err != nil {
		return nil, err
	}
	return book.PublicResults(term)
}
