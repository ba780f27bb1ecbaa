package observability

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/balneabilidade-etl/internal/config"
)

func TestNewLogger_Levels(t *testing.T) {
	l := NewLogger(&config.Config{LogLevel: "debug", LogFormat: "text"})
	assert.True(t, l.Enabled(context.Background(), -4))

	l = NewLogger(&config.Config{LogLevel: "error", LogFormat: "json"})
	assert.False(t, l.Enabled(context.Background(), 0))
}

func TestPush(t *testing.T) {
	var body string
	var path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	m := NewMetricsForTesting()
	m.RunOutcomes.WithLabelValues("committed").Inc()
	m.StationsTracked.Set(42)

	require.NoError(t, Push(context.Background(), srv.URL, "balneabilidade", m))
	assert.Equal(t, "/metrics/job/balneabilidade", path)
	assert.NotEmpty(t, body)
	assert.InDelta(t, 42, testutil.ToFloat64(m.StationsTracked), 0)
}

func TestPush_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := Push(context.Background(), srv.URL, "balneabilidade", NewMetricsForTesting())
	require.Error(t, err)
}
