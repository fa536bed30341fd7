package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
)

// ErrInvalidConfig is the only condition that aborts a run.
var ErrInvalidConfig = eris.New("invalid configuration")

// Fetch modes.
const (
	FetchModeHTTP    = "http"
	FetchModeBrowser = "browser"
)

// Config holds all application configuration loaded from environment variables.
type Config struct {
	PagesToScrape int

	// MaxConcurrency is the listing-fetch policy: 1 keeps fetching strictly
	// sequential. Concurrent bursts against the target trigger blocking.
	MaxConcurrency int
	RateLimitMs    int
	RequestRPS     float64

	MaxRetries     int
	RequestTimeout time.Duration
	BlockedBackoff time.Duration
	NetworkBackoff time.Duration
	BackoffJitter  time.Duration

	SearchDelayMin  time.Duration
	SearchDelayMax  time.Duration
	ListingDelayMin time.Duration
	ListingDelayMax time.Duration

	FetchMode     string
	ChromeBin     string
	SelectorsFile string

	MissingPriceAsZero bool

	RawCSVPath   string
	CleanCSVPath string

	PostgresEnabled  bool
	PostgresHost     string
	PostgresPort     string
	PostgresUser     string
	PostgresPassword string
	PostgresDB       string
	PostgresSSLMode  string

	StatusAddr string
	LogLevel   string
}

// Load reads the .env file and returns a populated Config struct.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("[config] No .env file found, falling back to system env vars")
	}

	return &Config{
		PagesToScrape: getEnvInt("PAGES_TO_SCRAPE", 2),

		MaxConcurrency: getEnvInt("MAX_CONCURRENCY", 1),
		RateLimitMs:    getEnvInt("RATE_LIMIT_MS", 0),
		RequestRPS:     getEnvFloat("REQUEST_RPS", 0),

		MaxRetries:     getEnvInt("MAX_RETRIES", 3),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 20*time.Second),
		BlockedBackoff: getEnvDuration("BLOCKED_BACKOFF", 5*time.Second),
		NetworkBackoff: getEnvDuration("NETWORK_BACKOFF", 2*time.Second),
		BackoffJitter:  getEnvDuration("BACKOFF_JITTER", time.Second),

		SearchDelayMin:  getEnvDuration("SEARCH_DELAY_MIN", 2*time.Second),
		SearchDelayMax:  getEnvDuration("SEARCH_DELAY_MAX", 5*time.Second),
		ListingDelayMin: getEnvDuration("LISTING_DELAY_MIN", time.Second),
		ListingDelayMax: getEnvDuration("LISTING_DELAY_MAX", 3*time.Second),

		FetchMode:     strings.ToLower(getEnv("FETCH_MODE", FetchModeHTTP)),
		ChromeBin:     getEnv("CHROME_BIN", ""),
		SelectorsFile: getEnv("SELECTORS_FILE", ""),

		MissingPriceAsZero: getEnvBool("MISSING_PRICE_AS_ZERO", true),

		RawCSVPath:   getEnv("RAW_CSV_PATH", "./data/raw_data/data_set_RAW.csv"),
		CleanCSVPath: getEnv("CLEAN_CSV_PATH", "./data/clean_data/data_set_CLEAN.csv"),

		PostgresEnabled:  getEnvBool("POSTGRES_ENABLED", false),
		PostgresHost:     getEnv("POSTGRES_HOST", "localhost"),
		PostgresPort:     getEnv("POSTGRES_PORT", "5432"),
		PostgresUser:     getEnv("POSTGRES_USER", "scraper"),
		PostgresPassword: getEnv("POSTGRES_PASSWORD", "scraper123"),
		PostgresDB:       getEnv("POSTGRES_DB", "immoweb"),
		PostgresSSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),

		StatusAddr: getEnv("STATUS_ADDR", ""),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
	}
}

// Validate reports configuration that makes a run impossible.
func (c *Config) Validate() error {
	if c.PagesToScrape <= 0 {
		return eris.Wrapf(ErrInvalidConfig, "PAGES_TO_SCRAPE must be positive, got %d", c.PagesToScrape)
	}
	if c.MaxRetries <= 0 {
		return eris.Wrapf(ErrInvalidConfig, "MAX_RETRIES must be positive, got %d", c.MaxRetries)
	}
	if c.MaxConcurrency <= 0 {
		return eris.Wrapf(ErrInvalidConfig, "MAX_CONCURRENCY must be positive, got %d", c.MaxConcurrency)
	}
	if c.SearchDelayMax < c.SearchDelayMin || c.ListingDelayMax < c.ListingDelayMin {
		return eris.Wrap(ErrInvalidConfig, "delay max must not be below delay min")
	}
	switch c.FetchMode {
	case FetchModeHTTP, FetchModeBrowser:
	default:
		return eris.Wrapf(ErrInvalidConfig, "FETCH_MODE must be %q or %q, got %q",
			FetchModeHTTP, FetchModeBrowser, c.FetchMode)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return "host=" + c.PostgresHost +
		" port=" + c.PostgresPort +
		" user=" + c.PostgresUser +
		" password=" + c.PostgresPassword +
		" dbname=" + c.PostgresDB +
		" sslmode=" + c.PostgresSSLMode
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	}
	return fallback
}

// getEnvDuration accepts Go durations ("1500ms", "2s") or a bare number of milliseconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	if d, err := time.ParseDuration(val); err == nil {
		return d
	}
	if ms, err := strconv.Atoi(val); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	return fallback
}
