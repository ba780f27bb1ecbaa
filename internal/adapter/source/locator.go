package source

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

// Locator discovers report PDFs on the agency listing page.
// It implements pipeline.Locator.
type Locator struct {
	indexURL   string
	userAgent  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewLocator creates a Locator for the given listing page.
func NewLocator(indexURL, userAgent string, timeout time.Duration, logger *slog.Logger) *Locator {
	return &Locator{
		indexURL:   indexURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Locate returns candidate reports ordered most recent first. Any failure to
// read or parse the listing, and an empty listing, wrap
// domain.ErrIndexUnavailable.
func (l *Locator) Locate(ctx context.Context) ([]domain.ReportDocument, error) {
	base, err := url.Parse(l.indexURL)
	if err != nil {
		return nil, fmt.Errorf("%w: parse index url: %v", domain.ErrIndexUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.indexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrIndexUnavailable, err)
	}
	req.Header.Set("User-Agent", l.userAgent)

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrIndexUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrIndexUnavailable, resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: parse listing: %v", domain.ErrIndexUnavailable, err)
	}

	docs := ParseListing(doc, base)
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no report links on %s", domain.ErrIndexUnavailable, l.indexURL)
	}
	domain.SortReports(docs)

	l.logger.Info("reports located", "count", len(docs), "newest", docs[0].URL, "newest_date", docs[0].InferredDate.String())
	return docs, nil
}

// ParseListing collects report links in page order: anchors whose href
// mentions ".pdf" or whose text mentions "laudo". Relative links are
// resolved against base and repeated links keep their first occurrence.
func ParseListing(doc *goquery.Document, base *url.URL) []domain.ReportDocument {
	var docs []domain.ReportDocument
	seen := map[string]bool{}

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		text := strings.Join(strings.Fields(a.Text()), " ")
		if text == "" {
			text = strings.TrimSpace(a.AttrOr("title", ""))
		}
		if !strings.Contains(strings.ToLower(href), ".pdf") && !strings.Contains(strings.ToLower(text), "laudo") {
			return
		}
		ref, err := url.Parse(href)
		if err != nil {
			return
		}
		abs := base.ResolveReference(ref).String()
		if seen[abs] {
			return
		}
		seen[abs] = true
		docs = append(docs, domain.NewReportDocument(abs, text))
	})
	return docs
}
