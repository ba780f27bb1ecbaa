package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/couchcryptid/balneabilidade-etl/internal/adapter/coords"
	"github.com/couchcryptid/balneabilidade-etl/internal/adapter/feedstore"
	kafkaadapter "github.com/couchcryptid/balneabilidade-etl/internal/adapter/kafka"
	"github.com/couchcryptid/balneabilidade-etl/internal/adapter/source"
	"github.com/couchcryptid/balneabilidade-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/balneabilidade-etl/internal/config"
	"github.com/couchcryptid/balneabilidade-etl/internal/extract"
	"github.com/couchcryptid/balneabilidade-etl/internal/observability"
	"github.com/couchcryptid/balneabilidade-etl/internal/pipeline"
)

// app holds the wired pipeline and everything that must be closed after it.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	metrics  *observability.Metrics
	pipeline *pipeline.Pipeline
	closers  []func() error
}

func newApp(reportLimit int) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if reportLimit > 0 {
		cfg.ReportLimit = reportLimit
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()
	a := &app{cfg: cfg, logger: logger, metrics: metrics}

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}

	writer := feedstore.NewWriter(cfg.FeedPath, cfg.IndexPath)
	var store pipeline.Store
	switch cfg.StoreBackend {
	case "sqlite":
		s, err := sqlite.Open(cfg.SQLitePath, writer, logger)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		store = s
		logger.Info("using sqlite history store", "path", cfg.SQLitePath)
	default:
		store = feedstore.NewFileStore(writer, logger)
	}

	table, err := coords.LoadTable(cfg.CoordinatesPath)
	if err != nil {
		a.close()
		return nil, err
	}

	opts := pipeline.Options{
		ReportLimit: cfg.ReportLimit,
		Fallback:    source.NewFallback(cfg.FallbackURLPattern, cfg.FallbackDays, nil),
		Coordinates: table,
	}
	if cfg.KafkaEnabled() {
		pub := kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, nil, logger)
		a.closers = append(a.closers, pub.Close)
		opts.Notifier = pub
		logger.Info("kafka notifications enabled", "topic", cfg.KafkaTopic)
	}

	fetcher := source.NewFetcher(source.Options{
		UserAgent:   cfg.UserAgent,
		Timeout:     cfg.FetchTimeout,
		MaxAttempts: cfg.FetchMaxAttempts,
		Backoff:     cfg.FetchBackoff,
		RawDir:      cfg.RawDir,
	}, metrics, logger)

	a.pipeline = pipeline.New(
		source.NewLocator(cfg.IndexURL, cfg.UserAgent, cfg.FetchTimeout, logger),
		fetcher,
		extract.NewPDFExtractor(logger),
		store,
		opts,
		logger,
		metrics,
	)
	return a, nil
}

// finish pushes metrics when a gateway is configured and releases resources.
func (a *app) finish() {
	if a.cfg.PushgatewayURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := observability.Push(ctx, a.cfg.PushgatewayURL, "balneabilidade_etl", a.metrics); err != nil {
			a.logger.Error("metrics push failed", "error", err)
		}
	}
	a.close()
}

func (a *app) close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.logger.Error("close error", "error", err)
		}
	}
}
