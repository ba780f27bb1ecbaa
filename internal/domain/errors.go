package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrIndexUnavailable means the report listing could not be read. Callers
	// fall back to generated candidate URLs.
	ErrIndexUnavailable = errors.New("report index unavailable")

	// ErrNoRowsExtracted means a report was fetched but no station row could
	// be parsed from it. No state is touched for that report.
	ErrNoRowsExtracted = errors.New("no rows extracted from report")
)

// FetchReason classifies a fetch failure.
type FetchReason string

const (
	FetchTransient FetchReason = "transient"
	FetchNotFound  FetchReason = "not_found"
	FetchTimeout   FetchReason = "timeout"
)

// FetchError is returned by the report fetcher.
type FetchError struct {
	URL    string
	Reason FetchReason
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("fetch %s: %s", e.URL, e.Reason)
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Reason, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Retryable reports whether another attempt may succeed.
func (e *FetchError) Retryable() bool {
	return e.Reason == FetchTransient || e.Reason == FetchTimeout
}

// IsNotFound reports whether err is a not-found fetch failure.
func IsNotFound(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Reason == FetchNotFound
}

// Outcome describes what a run did with the feed.
type Outcome string

const (
	OutcomeCommitted       Outcome = "committed"
	OutcomeRecencyRejected Outcome = "recency_rejected"
	OutcomeNoNewData       Outcome = "no_new_data"
)
