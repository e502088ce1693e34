// Command ratequery runs rate and region lookups against the configured store
// without going through the HTTP API.
//
// Usage:
//
//	ratequery rates --origin CNSGH --destination north_europe_main --from 2016-01-01 --to 2016-01-10
//	ratequery resolve region:north_europe_main
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/port-rates-service/internal/config"
	"github.com/couchcryptid/port-rates-service/internal/domain"
	"github.com/couchcryptid/port-rates-service/internal/lookup"
	"github.com/couchcryptid/port-rates-service/internal/observability"
	"github.com/couchcryptid/port-rates-service/internal/store"
	"github.com/spf13/cobra"
)

// openBackend is swapped in tests.
var openBackend = store.Open

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

type rootOptions struct {
	minSamples int
	timeout    time.Duration
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "ratequery",
		Short:        "Query daily port-to-port rates from the configured store",
		SilenceUsage: true,
	}
	root.SetOut(out)
	root.PersistentFlags().IntVar(&opts.minSamples, "min-samples", 0, "suppression threshold (default MIN_SAMPLES)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", 0, "lookup deadline (default QUERY_TIMEOUT)")

	root.AddCommand(newRatesCmd(opts), newResolveCmd(opts))
	return root
}

type rateRow struct {
	Day          string `json:"day"`
	AveragePrice int64  `json:"average_price"`
	SampleCount  int    `json:"sample_count"`
}

func newRatesCmd(opts *rootOptions) *cobra.Command {
	var origin, destination, from, to string

	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Print average daily prices between two ports or regions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			req, err := buildRequest(origin, destination, from, to)
			if err != nil {
				return err
			}
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *lookup.Service) error {
				rates, err := svc.Rates(ctx, req)
				if err != nil {
					return err
				}
				rows := make([]rateRow, len(rates))
				for i, r := range rates {
					rows[i] = rateRow{Day: r.Day.Format(domain.DayLayout), AveragePrice: r.AveragePrice, SampleCount: r.SampleCount}
				}
				return printJSON(cmd.OutOrStdout(), rows)
			})
		},
	}
	cmd.Flags().StringVar(&origin, "origin", "", "origin port code or region slug")
	cmd.Flags().StringVar(&destination, "destination", "", "destination port code or region slug")
	cmd.Flags().StringVar(&from, "from", "", "first day, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last day, YYYY-MM-DD")
	for _, name := range []string{"origin", "destination", "from", "to"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func newResolveCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <identifier>",
		Short: "List the port codes an identifier resolves to",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseIdentifier(args[0])
			if err != nil {
				return err
			}
			return withService(cmd.Context(), opts, func(ctx context.Context, svc *lookup.Service) error {
				ports, err := svc.Ports(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), map[string]any{
					"identifier": id.String(),
					"ports":      ports.Codes(),
				})
			})
		},
	}
}

func buildRequest(origin, destination, from, to string) (lookup.Request, error) {
	originID, err := domain.ParseIdentifier(origin)
	if err != nil {
		return lookup.Request{}, err
	}
	destID, err := domain.ParseIdentifier(destination)
	if err != nil {
		return lookup.Request{}, err
	}
	fromDay, err := domain.ParseDay(from)
	if err != nil {
		return lookup.Request{}, err
	}
	toDay, err := domain.ParseDay(to)
	if err != nil {
		return lookup.Request{}, err
	}
	return lookup.Request{Origin: originID, Destination: destID, From: fromDay, To: toDay}, nil
}

// withService opens the store named by the environment, runs fn, and closes it.
func withService(ctx context.Context, opts *rootOptions, fn func(context.Context, *lookup.Service) error) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if opts.minSamples > 0 {
		cfg.MinSamples = opts.minSamples
	}
	if opts.timeout > 0 {
		cfg.QueryTimeout = opts.timeout
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	backend, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer backend.Close()

	svc := lookup.New(
		domain.NewResolver(backend),
		domain.NewAggregator(backend, cfg.MinSamples),
		backend,
		logger,
		observability.NewMetricsForTesting(),
		cfg.QueryTimeout,
	)
	return fn(ctx, svc)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
