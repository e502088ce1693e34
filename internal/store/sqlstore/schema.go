package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/couchcryptid/port-rates-service/internal/domain"
	"github.com/uptrace/bun"
)

// CreateSchema creates the regions, ports, and prices tables if missing.
func (s *Store) CreateSchema(ctx context.Context) error {
	models := []any{(*regionModel)(nil), (*portModel)(nil), (*priceModel)(nil)}
	for _, m := range models {
		if _, err := s.db.NewCreateTable().Model(m).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("create table: %w", err)
		}
	}

	indexes := []struct {
		name, table string
		columns     []string
	}{
		{"idx_regions_parent_slug", "regions", []string{"parent_slug"}},
		{"idx_ports_parent_slug", "ports", []string{"parent_slug"}},
		{"idx_prices_route_day", "prices", []string{"orig_code", "dest_code", "day"}},
	}
	for _, ix := range indexes {
		q := s.db.NewCreateIndex().Table(ix.table).Index(ix.name).Column(ix.columns...)
		if s.driver == DriverSQLite {
			q = q.IfNotExists()
		}
		if _, err := q.Exec(ctx); err != nil {
			return fmt.Errorf("create index %s: %w", ix.name, err)
		}
	}
	return nil
}

// Load inserts fixture rows in a single transaction. It is used by the seed
// command and tests; the service itself never writes.
func (s *Store) Load(ctx context.Context, regions []domain.Region, ports []domain.Port, observations []domain.PriceObservation) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if len(regions) > 0 {
			rows := make([]regionModel, len(regions))
			for i, r := range regions {
				rows[i] = regionModel{Slug: r.Slug, ParentSlug: sql.NullString{String: r.ParentSlug, Valid: r.ParentSlug != ""}}
			}
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("insert regions: %w", err)
			}
		}

		if len(ports) > 0 {
			rows := make([]portModel, len(ports))
			for i, p := range ports {
				rows[i] = portModel{Code: p.Code, ParentSlug: p.ParentSlug}
			}
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("insert ports: %w", err)
			}
		}

		const batch = 500
		for start := 0; start < len(observations); start += batch {
			end := min(start+batch, len(observations))
			rows := make([]priceModel, 0, end-start)
			for _, o := range observations[start:end] {
				rows = append(rows, priceModel{
					OrigCode: o.OriginCode,
					DestCode: o.DestinationCode,
					Day:      o.Day.Format(domain.DayLayout),
					Price:    o.Price,
				})
			}
			if _, err := tx.NewInsert().Model(&rows).Exec(ctx); err != nil {
				return fmt.Errorf("insert prices: %w", err)
			}
		}
		return nil
	})
}
