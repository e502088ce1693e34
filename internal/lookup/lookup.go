// Package lookup composes region resolution and rate aggregation into a
// single deadline-bounded query.
package lookup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/port-rates-service/internal/domain"
	"github.com/couchcryptid/port-rates-service/internal/observability"
	"github.com/jonboulle/clockwork"
)

// ErrDeadlineExceeded is returned when a lookup does not finish within the
// configured query timeout.
var ErrDeadlineExceeded = errors.New("lookup deadline exceeded")

// ErrCanceled is returned when the caller abandons a lookup, typically because
// the HTTP client disconnected.
var ErrCanceled = errors.New("lookup canceled")

// Resolver expands an identifier into the ports it covers.
type Resolver interface {
	Resolve(ctx context.Context, id domain.Identifier) (domain.PortSet, error)
}

// Aggregator computes daily rates between two port sets.
type Aggregator interface {
	Aggregate(ctx context.Context, origins, destinations domain.PortSet, from, to time.Time) ([]domain.DailyRate, error)
}

// Pinger checks that the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Request is a fully parsed rate lookup.
type Request struct {
	Origin      domain.Identifier
	Destination domain.Identifier
	From        time.Time
	To          time.Time
}

// Service runs lookups against a resolver and an aggregator.
type Service struct {
	resolver   Resolver
	aggregator Aggregator
	pinger     Pinger
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
	timeout    time.Duration
}

// New creates a Service. A non-positive timeout disables the deadline.
func New(r Resolver, a Aggregator, p Pinger, logger *slog.Logger, metrics *observability.Metrics, timeout time.Duration) *Service {
	return &Service{
		resolver:   r,
		aggregator: a,
		pinger:     p,
		logger:     logger,
		metrics:    metrics,
		clock:      clockwork.NewRealClock(),
		timeout:    timeout,
	}
}

// SetClock swaps the time source used for duration metrics. Pass nil to reset to real time.
func (s *Service) SetClock(c clockwork.Clock) {
	if c == nil {
		s.clock = clockwork.NewRealClock()
		return
	}
	s.clock = c
}

// Rates resolves both ends of req and aggregates daily rates between them.
// Any failure aborts the whole lookup; no partial result is returned.
func (s *Service) Rates(ctx context.Context, req Request) ([]domain.DailyRate, error) {
	start := s.clock.Now()
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	rates, err := s.rates(ctx, req)
	s.metrics.LookupDuration.Observe(s.clock.Since(start).Seconds())

	if err != nil {
		err = s.classify(ctx, err)
		if errors.Is(err, ErrCanceled) {
			s.metrics.LookupsTotal.WithLabelValues(observability.OutcomeCanceled).Inc()
			s.logger.Debug("rate lookup canceled", "origin", req.Origin.String(), "destination", req.Destination.String())
			return nil, err
		}
		outcome := observability.OutcomeError
		if errors.Is(err, ErrDeadlineExceeded) {
			outcome = observability.OutcomeTimeout
		}
		s.metrics.LookupsTotal.WithLabelValues(outcome).Inc()
		s.logger.Error("rate lookup failed",
			"error", err,
			"origin", req.Origin.String(),
			"destination", req.Destination.String(),
			"date_from", req.From.Format(domain.DayLayout),
			"date_to", req.To.Format(domain.DayLayout),
		)
		return nil, err
	}

	outcome := observability.OutcomeSuccess
	if len(rates) == 0 {
		outcome = observability.OutcomeEmpty
	}
	s.metrics.LookupsTotal.WithLabelValues(outcome).Inc()
	s.metrics.DaysReturned.Observe(float64(len(rates)))
	s.logger.Debug("rate lookup complete",
		"origin", req.Origin.String(),
		"destination", req.Destination.String(),
		"days", len(rates),
	)
	return rates, nil
}

func (s *Service) rates(ctx context.Context, req Request) ([]domain.DailyRate, error) {
	origins, err := s.resolver.Resolve(ctx, req.Origin)
	if err != nil {
		return nil, fmt.Errorf("origin: %w", err)
	}
	s.metrics.ResolvedPorts.WithLabelValues("origin").Observe(float64(len(origins)))

	destinations, err := s.resolver.Resolve(ctx, req.Destination)
	if err != nil {
		return nil, fmt.Errorf("destination: %w", err)
	}
	s.metrics.ResolvedPorts.WithLabelValues("destination").Observe(float64(len(destinations)))

	return s.aggregator.Aggregate(ctx, origins, destinations, req.From, req.To)
}

// Ports resolves a single identifier under the same deadline as Rates.
func (s *Service) Ports(ctx context.Context, id domain.Identifier) (domain.PortSet, error) {
	ctx, cancel := s.withDeadline(ctx)
	defer cancel()

	ports, err := s.resolver.Resolve(ctx, id)
	if err != nil {
		err = s.classify(ctx, err)
		if errors.Is(err, ErrCanceled) {
			s.logger.Debug("port resolution canceled", "identifier", id.String())
			return nil, err
		}
		s.logger.Error("port resolution failed", "error", err, "identifier", id.String())
		return nil, err
	}
	return ports, nil
}

// CheckReadiness pings the store and records the result on the store_up gauge.
func (s *Service) CheckReadiness(ctx context.Context) error {
	if err := s.pinger.Ping(ctx); err != nil {
		s.metrics.StoreUp.Set(0)
		return fmt.Errorf("store unreachable: %w", err)
	}
	s.metrics.StoreUp.Set(1)
	return nil
}

func (s *Service) withDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

// classify marks errors caused by the lookup deadline or by caller
// cancellation so callers can tell them apart from data-source failures.
func (s *Service) classify(ctx context.Context, err error) error {
	switch {
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return fmt.Errorf("%w: %w", ErrDeadlineExceeded, err)
	case errors.Is(ctx.Err(), context.Canceled):
		return fmt.Errorf("%w: %w", ErrCanceled, err)
	}
	return err
}
