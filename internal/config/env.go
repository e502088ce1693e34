package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

func parsePositiveDuration(key, fallback string) (time.Duration, error) {
	s := sharedcfg.EnvOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive duration", key, s)
	}
	return d, nil
}

func parseIntInRange(key string, fallback, lo, hi int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < lo || n > hi {
		return 0, fmt.Errorf("invalid %s %q: must be an integer between %d and %d", key, s, lo, hi)
	}
	return n, nil
}
