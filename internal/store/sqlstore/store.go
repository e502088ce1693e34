// Package sqlstore reads regions, ports, and prices from SQLite or MySQL
// through bun. SQLite doubles as the local development backend.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/port-rates-service/internal/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
	_ "modernc.org/sqlite"             // Pure Go SQLite driver
)

// Supported drivers.
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

// Store implements domain.HierarchySource and domain.RateSource.
type Store struct {
	db     *bun.DB
	driver string
	logger *slog.Logger
}

// sqlOpenFunc allows tests to override database opening behavior.
var sqlOpenFunc = sql.Open

// Open connects to the database named by dsn. For SQLite the pool is pinned
// to one connection so in-memory databases are shared by every query.
func Open(ctx context.Context, driver, dsn string, maxConns int, logger *slog.Logger) (*Store, error) {
	sqldb, err := sqlOpenFunc(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}

	var db *bun.DB
	switch driver {
	case DriverSQLite:
		sqldb.SetMaxOpenConns(1)
		db = bun.NewDB(sqldb, sqlitedialect.New())
	case DriverMySQL:
		if maxConns > 0 {
			sqldb.SetMaxOpenConns(maxConns)
			sqldb.SetMaxIdleConns(maxConns)
		}
		db = bun.NewDB(sqldb, mysqldialect.New())
	default:
		_ = sqldb.Close()
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	logger.Info("sql store ready", "driver", driver)
	return &Store{db: db, driver: driver, logger: logger}, nil
}

// dayExpr renders the day column as YYYY-MM-DD text.
func (s *Store) dayExpr() string {
	if s.driver == DriverMySQL {
		return "DATE_FORMAT(day, '%Y-%m-%d')"
	}
	return "strftime('%Y-%m-%d', day)"
}

func (s *Store) RegionExists(ctx context.Context, slug string) (bool, error) {
	n, err := s.db.NewSelect().Model((*regionModel)(nil)).Where("slug = ?", slug).Count(ctx)
	if err != nil {
		return false, fmt.Errorf("query region %q: %w", slug, err)
	}
	return n > 0, nil
}

func (s *Store) ChildRegions(ctx context.Context, parents []string) ([]domain.Region, error) {
	var rows []regionModel
	err := s.db.NewRaw("SELECT slug, parent_slug FROM regions WHERE parent_slug IN (?)", bun.In(parents)).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("query child regions: %w", err)
	}
	out := make([]domain.Region, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

func (s *Store) PortsInRegions(ctx context.Context, slugs []string) ([]domain.Port, error) {
	var rows []portModel
	err := s.db.NewRaw("SELECT code, parent_slug FROM ports WHERE parent_slug IN (?)", bun.In(slugs)).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("query ports: %w", err)
	}
	out := make([]domain.Port, len(rows))
	for i, p := range rows {
		out[i] = domain.Port{Code: p.Code, ParentSlug: p.ParentSlug}
	}
	return out, nil
}

// dayStatRow is one grouped row of the daily aggregate query.
type dayStatRow struct {
	DayKey       string  `bun:"day_key"`
	AveragePrice float64 `bun:"average_price"`
	PriceCount   int64   `bun:"price_count"`
}

func (s *Store) DailyStats(ctx context.Context, q domain.RateQuery) ([]domain.DayStat, error) {
	query := fmt.Sprintf(`
		SELECT %s AS day_key, AVG(price) AS average_price, COUNT(price) AS price_count
		FROM prices
		WHERE orig_code IN (?)
		  AND dest_code IN (?)
		  AND day BETWEEN ? AND ?
		GROUP BY day
		HAVING COUNT(price) >= ?
		ORDER BY day`, s.dayExpr())

	var rows []dayStatRow
	err := s.db.NewRaw(query,
		bun.In(q.Origins), bun.In(q.Destinations),
		q.From.Format(domain.DayLayout), q.To.Format(domain.DayLayout),
		q.MinSamples,
	).Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("query daily prices: %w", err)
	}

	out := make([]domain.DayStat, 0, len(rows))
	for _, r := range rows {
		day, err := domain.ParseDay(r.DayKey)
		if err != nil {
			return nil, fmt.Errorf("scan day %q: %w", r.DayKey, err)
		}
		out = append(out, domain.DayStat{Day: day, Average: r.AveragePrice, Count: int(r.PriceCount)})
	}
	return out, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
