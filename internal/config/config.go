package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Config holds all run settings, populated from environment variables.
type Config struct {
	IndexURL           string        `env:"INDEX_URL" validate:"required,url"`
	FallbackURLPattern string        `env:"FALLBACK_URL_PATTERN" validate:"omitempty,url"`
	FallbackDays       int           `env:"FALLBACK_DAYS" validate:"gte=0,lte=90"`
	ReportLimit        int           `env:"REPORT_LIMIT" validate:"gte=1,lte=50"`
	FetchTimeout       time.Duration `env:"FETCH_TIMEOUT" validate:"gt=0"`
	FetchMaxAttempts   int           `env:"FETCH_MAX_ATTEMPTS" validate:"gte=1,lte=10"`
	FetchBackoff       time.Duration `env:"FETCH_BACKOFF" validate:"gte=0"`
	UserAgent          string        `env:"USER_AGENT" validate:"required"`

	DataDir         string `env:"DATA_DIR" validate:"required"`
	FeedPath        string `env:"FEED_PATH" validate:"required"`
	IndexPath       string `env:"INDEX_PATH" validate:"required"`
	CoordinatesPath string `env:"COORDINATES_PATH" validate:"required"`
	RawDir          string `env:"RAW_DIR"`

	StoreBackend string `env:"STORE_BACKEND" validate:"oneof=file sqlite"`
	SQLitePath   string `env:"SQLITE_PATH" validate:"required_if=StoreBackend sqlite"`

	// Kafka notifications are enabled when brokers are set.
	KafkaBrokers []string `env:"KAFKA_BROKERS"`
	KafkaTopic   string   `env:"KAFKA_TOPIC" validate:"required_with=KafkaBrokers"`

	PushgatewayURL  string        `env:"PUSHGATEWAY_URL" validate:"omitempty,url"`
	HTTPAddr        string        `env:"HTTP_ADDR" validate:"required"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" validate:"gt=0"`
	LogLevel        string        `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat       string        `env:"LOG_FORMAT" validate:"oneof=json text"`
}

// KafkaEnabled reports whether station update events should be published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

// LoadDotEnv reads a .env file into the environment when present. Variables
// already set take precedence.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	fallbackDays, err := parseInt("FALLBACK_DAYS", 14)
	if err != nil {
		return nil, err
	}
	reportLimit, err := parseInt("REPORT_LIMIT", 3)
	if err != nil {
		return nil, err
	}
	maxAttempts, err := parseInt("FETCH_MAX_ATTEMPTS", 3)
	if err != nil {
		return nil, err
	}
	fetchTimeout, err := parseDuration("FETCH_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	fetchBackoff, err := parseDuration("FETCH_BACKOFF", "2s")
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	dataDir := envOrDefault("DATA_DIR", "data")
	cfg := &Config{
		IndexURL:           envOrDefault("INDEX_URL", "https://www.sema.ma.gov.br/laudos-de-balneabilidade"),
		FallbackURLPattern: os.Getenv("FALLBACK_URL_PATTERN"),
		FallbackDays:       fallbackDays,
		ReportLimit:        reportLimit,
		FetchTimeout:       fetchTimeout,
		FetchMaxAttempts:   maxAttempts,
		FetchBackoff:       fetchBackoff,
		UserAgent:          envOrDefault("USER_AGENT", "Mozilla/5.0 (compatible; BalneabilidadeBot/0.1)"),

		DataDir:         dataDir,
		FeedPath:        envOrDefault("FEED_PATH", filepath.Join(dataDir, "points.json")),
		IndexPath:       envOrDefault("INDEX_PATH", filepath.Join(dataDir, "stations_index.csv")),
		CoordinatesPath: envOrDefault("COORDINATES_PATH", filepath.Join(dataDir, "stations_geocoded.csv")),
		RawDir:          envOrDefault("RAW_DIR", filepath.Join(dataDir, "raw")),

		StoreBackend: envOrDefault("STORE_BACKEND", "file"),
		SQLitePath:   envOrDefault("SQLITE_PATH", filepath.Join(dataDir, "history.db")),

		KafkaBrokers: parseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaTopic:   envOrDefault("KAFKA_TOPIC", "balneabilidade-station-updates"),

		PushgatewayURL:  os.Getenv("PUSHGATEWAY_URL"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		ShutdownTimeout: shutdownTimeout,
		LogLevel:        strings.ToLower(envOrDefault("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(envOrDefault("LOG_FORMAT", "json")),
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = newValidator()

func newValidator() func(*Config) error {
	v := validator.New()
	// Report env names instead of Go field names.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return func(cfg *Config) error {
		err := v.Struct(cfg)
		if err == nil {
			return nil
		}
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fmt.Sprintf("invalid %s: failed %q", fe.Field(), fe.Tag()))
		}
		return errors.New(strings.Join(msgs, "; "))
	}
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func parseBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
