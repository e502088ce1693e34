// Package memory provides an in-process store for regions, ports, and price
// observations. It backs the unit tests of the packages above the store layer
// and is not selectable through DB_DRIVER; local runs use SQLite via cmd/seed.
package memory

import (
	"context"
	"sync"

	"github.com/couchcryptid/port-rates-service/internal/domain"
)

// Store implements domain.HierarchySource and domain.RateSource over slices.
type Store struct {
	mu           sync.RWMutex
	regions      map[string]domain.Region
	ports        []domain.Port
	observations []domain.PriceObservation
	err          error
}

// New creates a Store holding copies of the given rows.
func New(regions []domain.Region, ports []domain.Port, observations []domain.PriceObservation) *Store {
	s := &Store{regions: make(map[string]domain.Region, len(regions))}
	for _, r := range regions {
		s.regions[r.Slug] = r
	}
	s.ports = append(s.ports, ports...)
	s.observations = append(s.observations, observations...)
	return s
}

// SetError makes every subsequent read fail with err. Pass nil to recover.
func (s *Store) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func (s *Store) RegionExists(ctx context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return false, err
	}
	_, ok := s.regions[slug]
	return ok, nil
}

func (s *Store) ChildRegions(ctx context.Context, parents []string) ([]domain.Region, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	want := domain.NewPortSet(parents...)
	var out []domain.Region
	for _, r := range s.regions {
		if r.ParentSlug != "" && want.Contains(r.ParentSlug) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *Store) PortsInRegions(ctx context.Context, slugs []string) ([]domain.Port, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	want := domain.NewPortSet(slugs...)
	var out []domain.Port
	for _, p := range s.ports {
		if want.Contains(p.ParentSlug) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) DailyStats(ctx context.Context, q domain.RateQuery) ([]domain.DayStat, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx); err != nil {
		return nil, err
	}
	return domain.GroupDaily(s.observations, q), nil
}

// Ping reports the configured failure, if any.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.check(ctx)
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.err
}
