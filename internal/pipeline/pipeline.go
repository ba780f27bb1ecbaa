package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"time"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
	"github.com/couchcryptid/balneabilidade-etl/internal/observability"
)

// Locator discovers candidate reports, most recent first.
type Locator interface {
	Locate(ctx context.Context) ([]domain.ReportDocument, error)
}

// CandidateSource generates direct report URLs when the Locator fails.
type CandidateSource interface {
	Candidates() []domain.ReportDocument
}

// Fetcher retrieves report bytes.
type Fetcher interface {
	Fetch(ctx context.Context, doc domain.ReportDocument) ([]byte, error)
}

// Extractor turns report bytes into raw rows.
type Extractor interface {
	Extract(ctx context.Context, data []byte) ([]domain.RawRow, error)
}

// Store holds the published station records.
type Store interface {
	Load(ctx context.Context) ([]domain.StationRecord, error)
	Commit(ctx context.Context, records []domain.StationRecord) error
}

// Notifier is told about stations changed by a committed run.
type Notifier interface {
	Notify(ctx context.Context, records []domain.StationRecord) error
}

// Options holds the optional collaborators and limits of a Pipeline.
type Options struct {
	ReportLimit int // parsed reports per run, default 1
	Fallback    CandidateSource
	Coordinates domain.CoordinateSource
	Notifier    Notifier
}

// Result summarizes a run.
type Result struct {
	Outcome        domain.Outcome
	ReportsFetched int
	Stations       int
	Affected       []string
	MissingCoords  int
	Sources        []string
}

// Pipeline orchestrates one locate-fetch-extract-merge-write run.
type Pipeline struct {
	locator   Locator
	fetcher   Fetcher
	extractor Extractor
	store     Store
	opts      Options
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline with the given stages and observability.
func New(l Locator, f Fetcher, e Extractor, s Store, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	if opts.ReportLimit < 1 {
		opts.ReportLimit = 1
	}
	return &Pipeline{
		locator:   l,
		fetcher:   f,
		extractor: e,
		store:     s,
		opts:      opts,
		logger:    logger,
		metrics:   metrics,
	}
}

// batch is the normalized content of one fetched report.
type batch struct {
	doc      domain.ReportDocument
	readings []domain.StationReading
	max      domain.Date
}

// Run locates the newest reports, merges them into the stored feed and
// commits when at least one report passes the recency guard. Per-report
// failures are logged and skipped; only store failures are returned.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	defer func() { p.metrics.RunDuration.Observe(time.Since(start).Seconds()) }()

	current, err := p.store.Load(ctx)
	if err != nil {
		p.metrics.RunOutcomes.WithLabelValues("failed").Inc()
		return Result{}, fmt.Errorf("load feed: %w", err)
	}

	docs := p.locate(ctx)
	batches, _ := p.collect(ctx, docs)
	return p.apply(ctx, current, batches)
}

// RunFile processes a single local report. sourceURL, when set, is recorded
// as the provenance of updated stations. Unlike Run, a report that cannot be
// read or parsed is an error.
func (p *Pipeline) RunFile(ctx context.Context, path, sourceURL string) (Result, error) {
	start := time.Now()
	defer func() { p.metrics.RunDuration.Observe(time.Since(start).Seconds()) }()

	current, err := p.store.Load(ctx)
	if err != nil {
		p.metrics.RunOutcomes.WithLabelValues("failed").Inc()
		return Result{}, fmt.Errorf("load feed: %w", err)
	}

	doc := domain.ReportDocument{
		URL:          sourceURL,
		LocalPath:    path,
		Title:        filepath.Base(path),
		InferredDate: domain.InferDate(filepath.Base(path), sourceURL),
	}
	p.metrics.ReportsLocated.WithLabelValues("file").Inc()

	batches, lastErr := p.collect(ctx, []domain.ReportDocument{doc})
	if len(batches) == 0 && lastErr != nil {
		p.metrics.RunOutcomes.WithLabelValues("failed").Inc()
		return Result{}, lastErr
	}
	return p.apply(ctx, current, batches)
}

// Refresh re-joins coordinates on the stored feed and rewrites it. No
// readings change.
func (p *Pipeline) Refresh(ctx context.Context) (Result, error) {
	current, err := p.store.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load feed: %w", err)
	}
	records, missing := domain.JoinCoordinates(current, p.opts.Coordinates, p.logger)
	if err := p.store.Commit(ctx, records); err != nil {
		return Result{}, fmt.Errorf("commit feed: %w", err)
	}
	p.metrics.StationsTracked.Set(float64(len(records)))
	p.metrics.StationsMissingCoords.Set(float64(len(missing)))
	return Result{Outcome: domain.OutcomeNoNewData, Stations: len(records), MissingCoords: len(missing)}, nil
}

func (p *Pipeline) locate(ctx context.Context) []domain.ReportDocument {
	docs, err := p.locator.Locate(ctx)
	if err == nil {
		p.metrics.ReportsLocated.WithLabelValues("index").Add(float64(len(docs)))
		return docs
	}

	p.logger.Warn("report index unavailable, using fallback candidates", "error", err)
	if p.opts.Fallback == nil {
		return nil
	}
	docs = p.opts.Fallback.Candidates()
	p.metrics.ReportsLocated.WithLabelValues("fallback").Add(float64(len(docs)))
	return docs
}

// collect fetches and extracts documents in order until ReportLimit reports
// produced readings. Reports that fail to download or parse do not count
// toward the limit. It returns the batches and the last per-report error.
func (p *Pipeline) collect(ctx context.Context, docs []domain.ReportDocument) ([]batch, error) {
	var batches []batch
	var lastErr error

	for _, doc := range docs {
		if len(batches) >= p.opts.ReportLimit || ctx.Err() != nil {
			break
		}

		data, err := p.fetcher.Fetch(ctx, doc)
		if err != nil {
			lastErr = err
			if domain.IsNotFound(err) {
				p.logger.Debug("report not found", "url", doc.Source())
			} else {
				p.logger.Warn("report fetch failed", "url", doc.Source(), "error", err)
			}
			continue
		}

		rows, err := p.extractor.Extract(ctx, data)
		if err != nil {
			lastErr = fmt.Errorf("extract %s: %w", doc.Source(), err)
			if errors.Is(err, domain.ErrNoRowsExtracted) {
				p.metrics.ParseFailures.Inc()
			}
			p.logger.Warn("report extraction failed", "url", doc.Source(), "error", err)
			continue
		}
		p.metrics.RowsExtracted.Add(float64(len(rows)))

		readings, skipped := ToReadings(rows)
		p.metrics.RowsSkipped.Add(float64(skipped))
		if len(readings) == 0 {
			lastErr = fmt.Errorf("extract %s: %w", doc.Source(), domain.ErrNoRowsExtracted)
			p.metrics.ParseFailures.Inc()
			continue
		}

		b := batch{doc: doc, readings: readings, max: domain.MaxReadingDate(readings)}
		p.logger.Info("report extracted",
			"url", doc.Source(), "rows", len(rows), "skipped", skipped, "newest_reading", b.max.String())
		batches = append(batches, b)
	}
	return batches, lastErr
}

// apply merges batches oldest first, so each one is guarded against the
// state produced by the previous one, then commits once.
func (p *Pipeline) apply(ctx context.Context, current []domain.StationRecord, batches []batch) (Result, error) {
	res := Result{ReportsFetched: len(batches), Stations: len(current)}

	sort.SliceStable(batches, func(i, j int) bool { return batches[i].max.Before(batches[j].max) })

	records := current
	affected := map[string]bool{}
	rejected := false
	for _, b := range batches {
		mr := domain.ApplyBatch(records, b.readings, b.doc.Source())
		if !mr.Committed {
			if mr.Outcome == domain.OutcomeRecencyRejected {
				rejected = true
			}
			p.logger.Info("report not applied",
				"url", b.doc.Source(), "outcome", mr.Outcome,
				"batch_newest", mr.BatchMax.String(), "feed_newest", mr.FeedMax.String())
			continue
		}
		records = mr.Records
		for _, code := range mr.Affected {
			affected[code] = true
		}
		res.Sources = append(res.Sources, b.doc.Source())
	}

	if len(affected) == 0 {
		res.Outcome = domain.OutcomeNoNewData
		if rejected {
			res.Outcome = domain.OutcomeRecencyRejected
		}
		p.metrics.RunOutcomes.WithLabelValues(string(res.Outcome)).Inc()
		p.logger.Info("feed unchanged", "outcome", res.Outcome, "reports", len(batches))
		return res, nil
	}

	records, missing := domain.JoinCoordinates(records, p.opts.Coordinates, p.logger)
	if err := p.store.Commit(ctx, records); err != nil {
		p.metrics.RunOutcomes.WithLabelValues("failed").Inc()
		return res, fmt.Errorf("commit feed: %w", err)
	}

	res.Outcome = domain.OutcomeCommitted
	res.Stations = len(records)
	res.MissingCoords = len(missing)
	for code := range affected {
		res.Affected = append(res.Affected, code)
	}
	sort.Strings(res.Affected)

	p.metrics.RunOutcomes.WithLabelValues(string(res.Outcome)).Inc()
	p.metrics.StationsTracked.Set(float64(len(records)))
	p.metrics.StationsMissingCoords.Set(float64(len(missing)))
	p.metrics.LastCommitTimestamp.SetToCurrentTime()
	p.logger.Info("feed committed",
		"stations", len(records), "affected", len(res.Affected), "missing_coordinates", len(missing))

	p.notify(ctx, records, res.Affected)
	return res, nil
}

// notify publishes affected stations. The feed is already committed, so
// failures are logged only.
func (p *Pipeline) notify(ctx context.Context, records []domain.StationRecord, codes []string) {
	if p.opts.Notifier == nil {
		return
	}
	changed := make([]domain.StationRecord, 0, len(codes))
	for _, code := range codes {
		if r, ok := domain.FindRecord(records, code); ok {
			changed = append(changed, r)
		}
	}
	if err := p.opts.Notifier.Notify(ctx, changed); err != nil {
		p.metrics.PublishErrors.Inc()
		p.logger.Error("station update publish failed", "error", err, "stations", len(changed))
		return
	}
	p.metrics.EventsPublished.Add(float64(len(changed)))
}
