package source

import (
	"fmt"
	"strings"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

// Fallback generates direct report URLs from a date pattern for use when the
// listing page is unavailable.
type Fallback struct {
	pattern string
	days    int
	clock   clockwork.Clock
}

// NewFallback creates a generator for pattern, which may contain {dd}, {mm}
// and {yyyy}. A nil clock follows domain.Today.
func NewFallback(pattern string, days int, clock clockwork.Clock) *Fallback {
	return &Fallback{pattern: pattern, days: days, clock: clock}
}

// Candidates returns one document per day for the last days days, newest
// first, starting today. It returns nil when no pattern is configured.
func (f *Fallback) Candidates() []domain.ReportDocument {
	if f.pattern == "" || f.days <= 0 {
		return nil
	}
	today := domain.Today()
	if f.clock != nil {
		today = domain.DateOf(f.clock.Now())
	}
	docs := make([]domain.ReportDocument, 0, f.days)
	for i := 0; i < f.days; i++ {
		d := today.AddDays(-i)
		t := d.Time()
		u := strings.NewReplacer(
			"{dd}", fmt.Sprintf("%02d", t.Day()),
			"{mm}", fmt.Sprintf("%02d", int(t.Month())),
			"{yyyy}", fmt.Sprintf("%04d", t.Year()),
		).Replace(f.pattern)
		docs = append(docs, domain.ReportDocument{URL: u, InferredDate: d})
	}
	return docs
}
