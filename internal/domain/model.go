package domain

import (
	"sort"
	"time"
)

// DayLayout is the wire format for calendar days.
const DayLayout = "2006-01-02"

// Region is a node in the geography hierarchy. ParentSlug is empty for roots.
type Region struct {
	Slug       string
	ParentSlug string
}

// Port is a location bound to exactly one region.
type Port struct {
	Code       string
	ParentSlug string
}

// PriceObservation is a single recorded price between two ports on a day.
type PriceObservation struct {
	OriginCode      string
	DestinationCode string
	Day             time.Time
	Price           float64
}

// DayStat is one grouped day as reported by a rate source, before truncation.
type DayStat struct {
	Day     time.Time
	Average float64
	Count   int
}

// DailyRate is the per-day result of an aggregation.
type DailyRate struct {
	Day          time.Time
	AveragePrice int64
	SampleCount  int
}

// ParseDay parses a YYYY-MM-DD calendar day as midnight UTC.
func ParseDay(s string) (time.Time, error) {
	d, err := time.Parse(DayLayout, s)
	if err != nil {
		return time.Time{}, &ValidationError{Field: "day", Message: err.Error()}
	}
	return d, nil
}

// TruncateDay strips the time-of-day component, keeping the calendar date.
func TruncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// PortSet is an unordered set of port codes.
type PortSet map[string]struct{}

// NewPortSet builds a set from the given codes, dropping duplicates.
func NewPortSet(codes ...string) PortSet {
	s := make(PortSet, len(codes))
	for _, c := range codes {
		s[c] = struct{}{}
	}
	return s
}

// Contains reports whether code is in the set.
func (s PortSet) Contains(code string) bool {
	_, ok := s[code]
	return ok
}

// Codes returns the members in lexical order.
func (s PortSet) Codes() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
