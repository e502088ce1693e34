package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Supported DB_DRIVER values.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverMySQL    = "mysql"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Data store.
	DBDriver    string
	DatabaseURL string
	DBMaxConns  int

	// Lookup behaviour.
	QueryTimeout time.Duration
	MinSamples   int

	// HTTP edge.
	RateLimitRPS       float64
	RateLimitBurst     int
	CORSAllowedOrigins []string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	queryTimeout, err := parsePositiveDuration("QUERY_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	maxConns, err := parseIntInRange("DB_MAX_CONNS", 10, 1, 1000)
	if err != nil {
		return nil, err
	}

	minSamples, err := parseIntInRange("MIN_SAMPLES", 3, 1, 1_000_000)
	if err != nil {
		return nil, err
	}

	rps, err := parseRateLimit()
	if err != nil {
		return nil, err
	}

	burst, err := parseIntInRange("RATE_LIMIT_BURST", 10, 1, 100_000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DBDriver:    strings.ToLower(sharedcfg.EnvOrDefault("DB_DRIVER", DriverPostgres)),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		DBMaxConns:  maxConns,

		QueryTimeout: queryTimeout,
		MinSamples:   minSamples,

		RateLimitRPS:       rps,
		RateLimitBurst:     burst,
		CORSAllowedOrigins: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
	}

	switch cfg.DBDriver {
	case DriverPostgres, DriverSQLite, DriverMySQL:
	default:
		return nil, fmt.Errorf("invalid DB_DRIVER %q: want postgres, sqlite, or mysql", cfg.DBDriver)
	}

	if cfg.DatabaseURL == "" {
		switch cfg.DBDriver {
		case DriverPostgres:
			cfg.DatabaseURL = postgresURLFromParts()
		case DriverSQLite:
			cfg.DatabaseURL = "file:rates.db?mode=ro"
		default:
			return nil, errors.New("DATABASE_URL is required for DB_DRIVER=mysql")
		}
	}

	return cfg, nil
}

// postgresURLFromParts builds a DSN from the DB_HOST/DB_PORT/DB_NAME/DB_USER/
// DB_PASSWORD/DB_SSLMODE variables.
func postgresURLFromParts() string {
	u := url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(sharedcfg.EnvOrDefault("DB_HOST", "localhost"), sharedcfg.EnvOrDefault("DB_PORT", "5432")),
		Path:   "/" + sharedcfg.EnvOrDefault("DB_NAME", "rates"),
	}
	if user := os.Getenv("DB_USER"); user != "" {
		if pw, ok := os.LookupEnv("DB_PASSWORD"); ok {
			u.User = url.UserPassword(user, pw)
		} else {
			u.User = url.User(user)
		}
	}
	if mode := os.Getenv("DB_SSLMODE"); mode != "" {
		u.RawQuery = url.Values{"sslmode": {mode}}.Encode()
	}
	return u.String()
}

func parseRateLimit() (float64, error) {
	s := sharedcfg.EnvOrDefault("RATE_LIMIT_RPS", "0")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid RATE_LIMIT_RPS %q: must be a non-negative number", s)
	}
	return v, nil
}
