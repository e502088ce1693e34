package sqlstore

import (
	"database/sql"

	"github.com/couchcryptid/port-rates-service/internal/domain"
	"github.com/uptrace/bun"
)

type regionModel struct {
	bun.BaseModel `bun:"table:regions"`

	Slug       string         `bun:"slug,pk"`
	ParentSlug sql.NullString `bun:"parent_slug"`
}

func (r regionModel) toDomain() domain.Region {
	return domain.Region{Slug: r.Slug, ParentSlug: r.ParentSlug.String}
}

type portModel struct {
	bun.BaseModel `bun:"table:ports"`

	Code       string `bun:"code,pk"`
	ParentSlug string `bun:"parent_slug,notnull"`
}

type priceModel struct {
	bun.BaseModel `bun:"table:prices"`

	OrigCode string  `bun:"orig_code,notnull"`
	DestCode string  `bun:"dest_code,notnull"`
	Day      string  `bun:"day,notnull"`
	Price    float64 `bun:"price,notnull"`
}
