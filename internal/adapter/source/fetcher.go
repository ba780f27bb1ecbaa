package source

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
	"github.com/couchcryptid/balneabilidade-etl/internal/observability"
)

const maxBackoff = 30 * time.Second

// Options configures report downloads.
type Options struct {
	UserAgent   string
	Timeout     time.Duration // first attempt; attempt n gets n × Timeout
	MaxAttempts int
	Backoff     time.Duration
	RawDir      string // empty disables the raw cache
}

// Fetcher downloads report PDFs with retry and an on-disk raw cache.
// It implements pipeline.Fetcher.
type Fetcher struct {
	opts       Options
	httpClient *http.Client
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewFetcher creates a Fetcher. Per-attempt deadlines come from the request
// context, so the HTTP client itself has no timeout.
func NewFetcher(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Fetcher {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	return &Fetcher{
		opts:       opts,
		httpClient: &http.Client{},
		metrics:    metrics,
		logger:     logger,
	}
}

// Fetch returns the bytes of doc. A document with LocalPath is read from
// disk and never from the network. Failures are *domain.FetchError unless
// ctx itself is done.
func (f *Fetcher) Fetch(ctx context.Context, doc domain.ReportDocument) ([]byte, error) {
	if doc.LocalPath != "" {
		return f.readLocal(doc.LocalPath)
	}

	cachePath := ""
	if f.opts.RawDir != "" {
		cachePath = filepath.Join(f.opts.RawDir, CacheName(doc.URL))
		if data, err := os.ReadFile(cachePath); err == nil && len(data) > 0 {
			f.metrics.ReportsFetched.WithLabelValues("cached").Inc()
			f.logger.Debug("using cached report", "url", doc.URL, "path", cachePath)
			return data, nil
		}
	}

	var lastErr error
	for attempt := 1; attempt <= f.opts.MaxAttempts; attempt++ {
		data, err := f.download(ctx, doc.URL, time.Duration(attempt)*f.opts.Timeout)
		if err == nil {
			f.metrics.ReportsFetched.WithLabelValues("downloaded").Inc()
			if cachePath != "" {
				if werr := writeCache(cachePath, data); werr != nil {
					f.logger.Warn("raw cache write failed", "path", cachePath, "error", werr)
				}
			}
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err

		var fe *domain.FetchError
		if !errors.As(err, &fe) || !fe.Retryable() || attempt == f.opts.MaxAttempts {
			break
		}
		delay := f.retryDelay(attempt)
		f.logger.Warn("fetch attempt failed, retrying",
			"url", doc.URL, "attempt", attempt, "reason", fe.Reason, "backoff", delay, "error", fe.Err)
		f.metrics.FetchRetries.Inc()
		if err := wait(ctx, delay); err != nil {
			return nil, err
		}
	}

	var fe *domain.FetchError
	if errors.As(lastErr, &fe) {
		f.metrics.ReportsFetched.WithLabelValues(string(fe.Reason)).Inc()
	}
	return nil, lastErr
}

// retryDelay doubles the configured backoff after every failed attempt, up
// to maxBackoff.
func (f *Fetcher) retryDelay(attempt int) time.Duration {
	d := f.opts.Backoff
	for i := 1; i < attempt && d < maxBackoff; i++ {
		d *= 2
	}
	return min(d, maxBackoff)
}

// wait blocks for d or until ctx is done, returning ctx.Err() in that case.
func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (f *Fetcher) readLocal(p string) ([]byte, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		reason := domain.FetchTransient
		if errors.Is(err, os.ErrNotExist) {
			reason = domain.FetchNotFound
		}
		return nil, &domain.FetchError{URL: p, Reason: reason, Err: err}
	}
	f.metrics.ReportsFetched.WithLabelValues("local").Inc()
	return data, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string, timeout time.Duration) ([]byte, error) {
	start := time.Now()
	defer func() { f.metrics.FetchDuration.Observe(time.Since(start).Seconds()) }()

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &domain.FetchError{URL: rawURL, Reason: domain.FetchNotFound, Err: err}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransportError(rawURL, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if reason, failed := classifyStatus(resp.StatusCode); failed {
		return nil, &domain.FetchError{URL: rawURL, Reason: reason, Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(rawURL, err)
	}
	if !bytes.HasPrefix(bytes.TrimLeft(data, "\r\n\t "), []byte("%PDF-")) {
		return nil, &domain.FetchError{URL: rawURL, Reason: domain.FetchNotFound, Err: errors.New("response is not a pdf")}
	}
	return data, nil
}

// classifyStatus maps an HTTP status to a fetch failure reason. 408, 425,
// 429 and 5xx are transient; every other non-200 status is permanent.
func classifyStatus(code int) (domain.FetchReason, bool) {
	switch {
	case code == http.StatusOK:
		return "", false
	case code == http.StatusRequestTimeout, code == http.StatusTooEarly,
		code == http.StatusTooManyRequests, code >= 500:
		return domain.FetchTransient, true
	default:
		return domain.FetchNotFound, true
	}
}

func classifyTransportError(rawURL string, err error) error {
	reason := domain.FetchTransient
	var ue *url.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &ue) && ue.Timeout()) {
		reason = domain.FetchTimeout
	}
	return &domain.FetchError{URL: rawURL, Reason: reason, Err: err}
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// CacheName derives the raw cache file name from a report URL. The query is
// part of the name, so download endpoints like "download.php?id=7" and
// "?id=8" are cached separately as download_id_7.pdf and download_id_8.pdf.
func CacheName(rawURL string) string {
	p, query := rawURL, ""
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		p, query = u.Path, u.RawQuery
	}
	base := path.Base(p)
	if query != "" {
		if q, err := url.QueryUnescape(query); err == nil {
			query = q
		}
		base = strings.TrimSuffix(base, path.Ext(base)) + "_" + query
	}
	name := strings.Trim(unsafeName.ReplaceAllString(base, "_"), "_")
	if name == "" || name == "." {
		name = "report"
	}
	if !strings.HasSuffix(strings.ToLower(name), ".pdf") {
		name += ".pdf"
	}
	return name
}

func writeCache(p string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp := p + ".part"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}
