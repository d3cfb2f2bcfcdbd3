package category

import (
	"context"
	"errors"
	"fmt"
)

var ErrStorage = errors.New("category storage unavailable")

// Service provides business logic for category facets.
type Service struct {
	repo Repository
}

func NewService(r Repository) *Service {
	return &Service{repo: r}
}

// List returns up to limit facets ordered by name. Non-positive limits use
// DefaultLimit; larger ones are capped at MaxLimit.
func (s *Service) List(ctx context.Context, limit int) ([]Summary, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	items, err := s.repo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return items, nil
}
