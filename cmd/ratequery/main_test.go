package main

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/port-rates-service/internal/config"
	"github.com/couchcryptid/port-rates-service/internal/domain"
	"github.com/couchcryptid/port-rates-service/internal/store"
	"github.com/couchcryptid/port-rates-service/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func useMemoryStore(t *testing.T) *memory.Store {
	t.Helper()
	d := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)
	st := memory.New(
		[]domain.Region{{Slug: "china_main"}, {Slug: "north_europe_main"}, {Slug: "uk_sub", ParentSlug: "north_europe_main"}},
		[]domain.Port{{Code: "CNSGH", ParentSlug: "china_main"}, {Code: "GBFXT", ParentSlug: "uk_sub"}, {Code: "NLRTM", ParentSlug: "north_europe_main"}},
		[]domain.PriceObservation{
			{OriginCode: "CNSGH", DestinationCode: "GBFXT", Day: d, Price: 1000},
			{OriginCode: "CNSGH", DestinationCode: "NLRTM", Day: d, Price: 1001},
			{OriginCode: "CNSGH", DestinationCode: "NLRTM", Day: d, Price: 1003},
			{OriginCode: "CNSGH", DestinationCode: "NLRTM", Day: d.AddDate(0, 0, 1), Price: 900},
		},
	)

	prev := openBackend
	openBackend = func(context.Context, *config.Config, *slog.Logger) (store.Backend, error) {
		return st, nil
	}
	t.Cleanup(func() { openBackend = prev })
	return st
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRatesCommand(t *testing.T) {
	useMemoryStore(t)

	out, err := execute(t, "rates", "--origin", "CNSGH", "--destination", "north_europe_main", "--from", "2016-01-01", "--to", "2016-01-02")
	require.NoError(t, err)

	var rows []rateRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	assert.Equal(t, []rateRow{{Day: "2016-01-01", AveragePrice: 1001, SampleCount: 3}}, rows)
}

func TestRatesCommand_MinSamplesFlag(t *testing.T) {
	useMemoryStore(t)

	out, err := execute(t, "--min-samples", "1", "rates", "--origin", "CNSGH", "--destination", "NLRTM", "--from", "2016-01-01", "--to", "2016-01-02")
	require.NoError(t, err)

	var rows []rateRow
	require.NoError(t, json.Unmarshal([]byte(out), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, int64(1002), rows[0].AveragePrice)
	assert.Equal(t, int64(900), rows[1].AveragePrice)
}

func TestRatesCommand_InvalidDate(t *testing.T) {
	useMemoryStore(t)

	_, err := execute(t, "rates", "--origin", "CNSGH", "--destination", "NLRTM", "--from", "01/01/2016", "--to", "2016-01-02")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
}

func TestRatesCommand_RequiresFlags(t *testing.T) {
	useMemoryStore(t)

	_, err := execute(t, "rates", "--origin", "CNSGH")
	require.Error(t, err)
}

func TestResolveCommand(t *testing.T) {
	useMemoryStore(t)

	out, err := execute(t, "resolve", "region:north_europe_main")
	require.NoError(t, err)

	var body struct {
		Identifier string   `json:"identifier"`
		Ports      []string `json:"ports"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &body))
	assert.Equal(t, "region:north_europe_main", body.Identifier)
	assert.Equal(t, []string{"GBFXT", "NLRTM"}, body.Ports)
}

func TestResolveCommand_NeedsOneArg(t *testing.T) {
	useMemoryStore(t)

	_, err := execute(t, "resolve")
	require.Error(t, err)
}
