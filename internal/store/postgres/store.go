// Package postgres reads regions, ports, and prices from PostgreSQL through a
// pgx connection pool. Every query borrows a connection for its own duration
// and returns it on all exit paths.
package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/port-rates-service/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	regionExistsSQL = `SELECT EXISTS (SELECT 1 FROM regions WHERE slug = $1)`

	childRegionsSQL = `SELECT slug, parent_slug FROM regions WHERE parent_slug = ANY($1)`

	portsInRegionsSQL = `SELECT code, parent_slug FROM ports WHERE parent_slug = ANY($1)`

	dailyStatsSQL = `
		SELECT day, AVG(price)::float8 AS average_price, COUNT(price) AS price_count
		FROM prices
		WHERE orig_code = ANY($1)
		  AND dest_code = ANY($2)
		  AND day BETWEEN $3 AND $4
		GROUP BY day
		HAVING COUNT(price) >= $5
		ORDER BY day`
)

// Store implements domain.HierarchySource and domain.RateSource.
type Store struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// Open creates a pool for dsn capped at maxConns connections and verifies it
// with a ping.
func Open(ctx context.Context, dsn string, maxConns int, logger *slog.Logger) (*Store, error) {
	cfg, err := poolConfig(dsn, maxConns)
	if err != nil {
		return nil, err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("postgres pool ready", "max_conns", cfg.MaxConns, "host", cfg.ConnConfig.Host, "database", cfg.ConnConfig.Database)
	return &Store{pool: pool, logger: logger}, nil
}

func poolConfig(dsn string, maxConns int) (*pgxpool.Config, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns) //nolint:gosec // bounded by config validation
	}
	cfg.MaxConnIdleTime = 5 * time.Minute
	return cfg, nil
}

// NewFromPool wraps an existing pool. The caller keeps ownership of closing it
// unless Close is called on the Store.
func NewFromPool(pool *pgxpool.Pool, logger *slog.Logger) *Store {
	return &Store{pool: pool, logger: logger}
}

// withConn borrows a pooled connection for the duration of fn.
func (s *Store) withConn(ctx context.Context, fn func(conn *pgxpool.Conn) error) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()
	return fn(conn)
}

func (s *Store) RegionExists(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.QueryRow(ctx, regionExistsSQL, slug).Scan(&exists)
	})
	if err != nil {
		return false, fmt.Errorf("query region %q: %w", slug, err)
	}
	return exists, nil
}

func (s *Store) ChildRegions(ctx context.Context, parents []string) ([]domain.Region, error) {
	var regions []domain.Region
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, childRegionsSQL, parents)
		if err != nil {
			return err
		}
		regions, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Region, error) {
			return scanRegion(row)
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query child regions: %w", err)
	}
	return regions, nil
}

func (s *Store) PortsInRegions(ctx context.Context, slugs []string) ([]domain.Port, error) {
	var ports []domain.Port
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, portsInRegionsSQL, slugs)
		if err != nil {
			return err
		}
		ports, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Port, error) {
			return scanPort(row)
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query ports: %w", err)
	}
	return ports, nil
}

func (s *Store) DailyStats(ctx context.Context, q domain.RateQuery) ([]domain.DayStat, error) {
	var stats []domain.DayStat
	err := s.withConn(ctx, func(conn *pgxpool.Conn) error {
		rows, err := conn.Query(ctx, dailyStatsSQL, q.Origins, q.Destinations, q.From, q.To, q.MinSamples)
		if err != nil {
			return err
		}
		stats, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.DayStat, error) {
			return scanDayStat(row)
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("query daily prices: %w", err)
	}
	return stats, nil
}

// Ping checks that a pooled connection can reach the server.
func (s *Store) Ping(ctx context.Context) error {
	return s.withConn(ctx, func(conn *pgxpool.Conn) error {
		return conn.Ping(ctx)
	})
}

// Close releases every pooled connection.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// rowScanner is the part of pgx.Row the scan helpers need.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRegion reads (slug, parent_slug); a NULL parent marks a root region.
func scanRegion(row rowScanner) (domain.Region, error) {
	var r domain.Region
	var parent *string
	if err := row.Scan(&r.Slug, &parent); err != nil {
		return r, err
	}
	if parent != nil {
		r.ParentSlug = *parent
	}
	return r, nil
}

func scanPort(row rowScanner) (domain.Port, error) {
	var p domain.Port
	err := row.Scan(&p.Code, &p.ParentSlug)
	return p, err
}

// scanDayStat reads (day, average_price, price_count). COUNT is bigint.
func scanDayStat(row rowScanner) (domain.DayStat, error) {
	var st domain.DayStat
	var count int64
	if err := row.Scan(&st.Day, &st.Average, &count); err != nil {
		return st, err
	}
	st.Count = int(count)
	return st, nil
}
