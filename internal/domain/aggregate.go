package domain

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"
)

// DefaultMinSamples is the fewest observations a day needs to be reported.
const DefaultMinSamples = 3

// RateQuery selects observations between two port sets over an inclusive range.
type RateQuery struct {
	Origins      []string
	Destinations []string
	From         time.Time
	To           time.Time
	MinSamples   int
}

// RateSource is the read model for price observations. Implementations group
// matching observations by day and may drop days below q.MinSamples.
type RateSource interface {
	DailyStats(ctx context.Context, q RateQuery) ([]DayStat, error)
}

// Aggregator turns grouped observations into daily rates.
type Aggregator struct {
	source     RateSource
	minSamples int
}

// NewAggregator creates an Aggregator. A minSamples below 1 selects
// DefaultMinSamples.
func NewAggregator(source RateSource, minSamples int) *Aggregator {
	if minSamples < 1 {
		minSamples = DefaultMinSamples
	}
	return &Aggregator{source: source, minSamples: minSamples}
}

// MinSamples returns the suppression threshold in effect.
func (a *Aggregator) MinSamples() int { return a.minSamples }

// Aggregate returns the daily average price from origins to destinations
// between from and to inclusive, ascending by day. Days with fewer than the
// configured minimum number of observations are omitted.
func (a *Aggregator) Aggregate(ctx context.Context, origins, destinations PortSet, from, to time.Time) ([]DailyRate, error) {
	from, to = TruncateDay(from), TruncateDay(to)
	if len(origins) == 0 || len(destinations) == 0 || from.After(to) {
		return []DailyRate{}, nil
	}

	stats, err := a.source.DailyStats(ctx, RateQuery{
		Origins:      origins.Codes(),
		Destinations: destinations.Codes(),
		From:         from,
		To:           to,
		MinSamples:   a.minSamples,
	})
	if err != nil {
		return nil, &QueryError{Err: err}
	}

	rates := make([]DailyRate, 0, len(stats))
	seen := make(map[time.Time]struct{}, len(stats))
	for _, s := range stats {
		day := TruncateDay(s.Day)
		if s.Count < 0 || math.IsNaN(s.Average) || math.IsInf(s.Average, 0) || day.Before(from) || day.After(to) {
			return nil, &QueryError{Err: fmt.Errorf("%w: day %s count %d average %v", errMalformedRow, s.Day.Format(DayLayout), s.Count, s.Average)}
		}
		if _, dup := seen[day]; dup {
			return nil, &QueryError{Err: fmt.Errorf("%w: duplicate day %s", errMalformedRow, day.Format(DayLayout))}
		}
		seen[day] = struct{}{}

		if s.Count < a.minSamples {
			continue
		}
		rates = append(rates, DailyRate{
			Day:          day,
			AveragePrice: int64(math.Trunc(s.Average)),
			SampleCount:  s.Count,
		})
	}

	sort.Slice(rates, func(i, j int) bool { return rates[i].Day.Before(rates[j].Day) })
	return rates, nil
}

// GroupDaily applies q to a slice of observations the way a SQL rate source
// would: filter by port sets and inclusive range, group by day, and keep
// days with at least q.MinSamples observations. Output is ascending by day.
func GroupDaily(observations []PriceObservation, q RateQuery) []DayStat {
	origins := NewPortSet(q.Origins...)
	destinations := NewPortSet(q.Destinations...)
	from, to := TruncateDay(q.From), TruncateDay(q.To)

	type acc struct {
		sum   float64
		count int
	}
	groups := make(map[time.Time]*acc)
	for _, o := range observations {
		day := TruncateDay(o.Day)
		if !origins.Contains(o.OriginCode) || !destinations.Contains(o.DestinationCode) {
			continue
		}
		if day.Before(from) || day.After(to) {
			continue
		}
		g, ok := groups[day]
		if !ok {
			g = &acc{}
			groups[day] = g
		}
		g.sum += o.Price
		g.count++
	}

	out := make([]DayStat, 0, len(groups))
	for day, g := range groups {
		if g.count < q.MinSamples {
			continue
		}
		out = append(out, DayStat{Day: day, Average: g.sum / float64(g.count), Count: g.count})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day.Before(out[j].Day) })
	return out
}
