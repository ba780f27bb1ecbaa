package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testIndexURL = "https://example.org/laudos"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://www.sema.ma.gov.br/laudos-de-balneabilidade", cfg.IndexURL)
	assert.Empty(t, cfg.FallbackURLPattern)
	assert.Equal(t, 14, cfg.FallbackDays)
	assert.Equal(t, 3, cfg.ReportLimit)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 3, cfg.FetchMaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.FetchBackoff)
	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, filepath.Join("data", "points.json"), cfg.FeedPath)
	assert.Equal(t, filepath.Join("data", "stations_index.csv"), cfg.IndexPath)
	assert.Equal(t, filepath.Join("data", "stations_geocoded.csv"), cfg.CoordinatesPath)
	assert.Equal(t, filepath.Join("data", "raw"), cfg.RawDir)
	assert.Equal(t, "file", cfg.StoreBackend)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.False(t, cfg.KafkaEnabled())
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("INDEX_URL", testIndexURL)
	t.Setenv("FALLBACK_URL_PATTERN", "https://example.org/laudo_{dd}_{mm}_{yyyy}.pdf")
	t.Setenv("FALLBACK_DAYS", "7")
	t.Setenv("REPORT_LIMIT", "1")
	t.Setenv("FETCH_TIMEOUT", "5s")
	t.Setenv("FETCH_MAX_ATTEMPTS", "5")
	t.Setenv("FETCH_BACKOFF", "100ms")
	t.Setenv("DATA_DIR", "/srv/balneabilidade")
	t.Setenv("FEED_PATH", "/var/www/points.json")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_TOPIC", "custom-topic")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "text")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, testIndexURL, cfg.IndexURL)
	assert.Equal(t, 7, cfg.FallbackDays)
	assert.Equal(t, 1, cfg.ReportLimit)
	assert.Equal(t, 5*time.Second, cfg.FetchTimeout)
	assert.Equal(t, 5, cfg.FetchMaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.FetchBackoff)
	assert.Equal(t, "/var/www/points.json", cfg.FeedPath)
	assert.Equal(t, filepath.Join("/srv/balneabilidade", "stations_index.csv"), cfg.IndexPath)
	assert.Equal(t, filepath.Join("/srv/balneabilidade", "history.db"), cfg.SQLitePath)
	assert.Equal(t, "sqlite", cfg.StoreBackend)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.True(t, cfg.KafkaEnabled())
	assert.Equal(t, "custom-topic", cfg.KafkaTopic)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
}

func TestLoad_InvalidFetchTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoad_NegativeFetchTimeout(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_TIMEOUT")
}

func TestLoad_InvalidReportLimit(t *testing.T) {
	t.Setenv("REPORT_LIMIT", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REPORT_LIMIT")
}

func TestLoad_NonNumericAttempts(t *testing.T) {
	t.Setenv("FETCH_MAX_ATTEMPTS", "three")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FETCH_MAX_ATTEMPTS")
}

func TestLoad_InvalidIndexURL(t *testing.T) {
	t.Setenv("INDEX_URL", "not a url")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "INDEX_URL")
}

func TestLoad_UnknownStoreBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "postgres")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORE_BACKEND")
}

func TestLoad_InvalidLogFormat(t *testing.T) {
	t.Setenv("LOG_FORMAT", "xml")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_FORMAT")
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("REPORT_LIMIT=9\nLOG_LEVEL=warn\n"), 0o600))
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("REPORT_LIMIT", "")
	require.NoError(t, os.Unsetenv("REPORT_LIMIT"))

	require.NoError(t, LoadDotEnv(path, filepath.Join(dir, "missing.env")))
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.ReportLimit)
	assert.Equal(t, "error", cfg.LogLevel)
}
