// Command seed loads region, port, and price CSV files into a SQLite database
// for local development against DB_DRIVER=sqlite.
//
// Usage:
//
//	go run ./cmd/seed \
//	  -db rates.db \
//	  -regions data/regions.csv \
//	  -ports data/ports.csv \
//	  -prices data/prices.csv
//
// CSV files need a header row. Columns are matched by name:
// regions (slug, parent_slug), ports (code, parent_slug), and
// prices (orig_code, dest_code, day, price). Extra columns are ignored.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/couchcryptid/port-rates-service/internal/domain"
	"github.com/couchcryptid/port-rates-service/internal/store/sqlstore"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dbPath := flag.String("db", "rates.db", "SQLite database file to create or extend")
	regionsPath := flag.String("regions", "", "regions CSV")
	portsPath := flag.String("ports", "", "ports CSV")
	pricesPath := flag.String("prices", "", "prices CSV")
	flag.Parse()

	if *regionsPath == "" || *portsPath == "" || *pricesPath == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -regions, -ports, -prices")
	}

	regions, err := readFile(*regionsPath, parseRegions)
	if err != nil {
		return err
	}
	ports, err := readFile(*portsPath, parsePorts)
	if err != nil {
		return err
	}
	prices, err := readFile(*pricesPath, parsePrices)
	if err != nil {
		return err
	}

	ctx := context.Background()
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	st, err := sqlstore.Open(ctx, sqlstore.DriverSQLite, "file:"+*dbPath, 1, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.CreateSchema(ctx); err != nil {
		return err
	}
	if err := st.Load(ctx, regions, ports, prices); err != nil {
		return err
	}

	log.Printf("loaded %d regions, %d ports, %d prices into %s", len(regions), len(ports), len(prices), *dbPath)
	return nil
}

func readFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	rows, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// table is a CSV body with a header index.
type table struct {
	colIdx map[string]int
	rows   [][]string
}

func readTable(r io.Reader, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("missing header row")
	}

	t := &table{colIdx: map[string]int{}, rows: rows[1:]}
	for i, h := range rows[0] {
		t.colIdx[strings.TrimSpace(h)] = i
	}
	for _, col := range required {
		if _, ok := t.colIdx[col]; !ok {
			return nil, fmt.Errorf("missing column %q", col)
		}
	}
	return t, nil
}

func (t *table) get(row []string, col string) string {
	i, ok := t.colIdx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseRegions(r io.Reader) ([]domain.Region, error) {
	t, err := readTable(r, "slug")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Region, 0, len(t.rows))
	for i, row := range t.rows {
		slug := t.get(row, "slug")
		if slug == "" {
			return nil, fmt.Errorf("row %d: empty slug", i+2)
		}
		out = append(out, domain.Region{Slug: slug, ParentSlug: t.get(row, "parent_slug")})
	}
	return out, nil
}

func parsePorts(r io.Reader) ([]domain.Port, error) {
	t, err := readTable(r, "code", "parent_slug")
	if err != nil {
		return nil, err
	}
	out := make([]domain.Port, 0, len(t.rows))
	for i, row := range t.rows {
		p := domain.Port{Code: t.get(row, "code"), ParentSlug: t.get(row, "parent_slug")}
		if p.Code == "" || p.ParentSlug == "" {
			return nil, fmt.Errorf("row %d: code and parent_slug are required", i+2)
		}
		out = append(out, p)
	}
	return out, nil
}

func parsePrices(r io.Reader) ([]domain.PriceObservation, error) {
	t, err := readTable(r, "orig_code", "dest_code", "day", "price")
	if err != nil {
		return nil, err
	}
	out := make([]domain.PriceObservation, 0, len(t.rows))
	for i, row := range t.rows {
		day, err := domain.ParseDay(t.get(row, "day"))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		price, err := strconv.ParseFloat(t.get(row, "price"), 64)
		if err != nil {
			return nil, fmt.Errorf("row %d: invalid price: %w", i+2, err)
		}
		out = append(out, domain.PriceObservation{
			OriginCode:      t.get(row, "orig_code"),
			DestinationCode: t.get(row, "dest_code"),
			Day:             day,
			Price:           price,
		})
	}
	return out, nil
}
