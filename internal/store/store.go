// Package store selects the data store backend named by configuration.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/port-rates-service/internal/config"
	"github.com/couchcryptid/port-rates-service/internal/domain"
	"github.com/couchcryptid/port-rates-service/internal/store/postgres"
	"github.com/couchcryptid/port-rates-service/internal/store/sqlstore"
)

// Backend is a read-only source of regions, ports, and prices.
type Backend interface {
	domain.HierarchySource
	domain.RateSource
	Ping(ctx context.Context) error
	Close() error
}

var (
	_ Backend = (*postgres.Store)(nil)
	_ Backend = (*sqlstore.Store)(nil)
)

// Open connects to the backend selected by cfg.DBDriver.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Backend, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, cfg.DatabaseURL, cfg.DBMaxConns, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverSQLite, config.DriverMySQL:
		s, err := sqlstore.Open(ctx, cfg.DBDriver, cfg.DatabaseURL, cfg.DBMaxConns, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.DBDriver)
	}
}
