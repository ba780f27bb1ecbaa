package domain

import (
	"path"
	"sort"
	"strings"
)

// ReportDocument is a candidate report PDF. LocalPath is set for manual runs
// and takes precedence over URL when fetching.
type ReportDocument struct {
	URL          string
	Title        string
	LocalPath    string
	InferredDate Date
}

// NewReportDocument builds a document and infers its date from the link
// title first, then from the file name.
func NewReportDocument(url, title string) ReportDocument {
	return ReportDocument{
		URL:          url,
		Title:        strings.TrimSpace(title),
		InferredDate: InferDate(title, fileName(url)),
	}
}

// Source returns the provenance recorded on stations updated from this document.
func (d ReportDocument) Source() string {
	if d.URL != "" {
		return d.URL
	}
	return d.LocalPath
}

// SortReports orders documents most recent first. Undated documents sort
// after all dated ones; ties keep their original order.
func SortReports(docs []ReportDocument) {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i].InferredDate, docs[j].InferredDate
		switch {
		case a.IsZero():
			return false
		case b.IsZero():
			return true
		default:
			return a.After(b)
		}
	})
}

func fileName(u string) string {
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return path.Base(u)
}
