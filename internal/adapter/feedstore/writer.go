// Package feedstore persists the published feed: the JSON array consumed by
// the map and the station index CSV used for manual curation.
package feedstore

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

// IndexHeader is the column layout of the station index and the coordinate side table.
var IndexHeader = []string{"code", "beach", "reference", "city", "lat", "lng"}

// Writer replaces the feed and index files atomically.
type Writer struct {
	feedPath  string
	indexPath string
}

// NewWriter creates a Writer. An empty indexPath skips the index CSV.
func NewWriter(feedPath, indexPath string) *Writer {
	return &Writer{feedPath: feedPath, indexPath: indexPath}
}

// FeedPath returns the path of the JSON feed.
func (w *Writer) FeedPath() string { return w.feedPath }

// Write serializes records ordered by code. Readers of either file see the
// old content or the new content, never a partial write.
func (w *Writer) Write(records []domain.StationRecord) error {
	sorted := domain.CloneRecords(records)
	domain.SortRecords(sorted)
	for i := range sorted {
		if sorted[i].History == nil {
			sorted[i].History = []domain.HistoryEntry{}
		}
	}

	feed, err := EncodeFeed(sorted)
	if err != nil {
		return err
	}
	if err := AtomicWriteFile(w.feedPath, feed); err != nil {
		return fmt.Errorf("write feed: %w", err)
	}

	if w.indexPath == "" {
		return nil
	}
	index, err := encodeIndex(sorted)
	if err != nil {
		return err
	}
	if err := AtomicWriteFile(w.indexPath, index); err != nil {
		return fmt.Errorf("write station index: %w", err)
	}
	return nil
}

// EncodeFeed renders records as the published JSON array.
func EncodeFeed(records []domain.StationRecord) ([]byte, error) {
	if records == nil {
		records = []domain.StationRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return nil, fmt.Errorf("encode feed: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeIndex(records []domain.StationRecord) ([]byte, error) {
	var buf bytes.Buffer
	cw := csv.NewWriter(&buf)
	if err := cw.Write(IndexHeader); err != nil {
		return nil, err
	}
	for _, r := range records {
		row := []string{r.Code, r.Beach, r.Reference, r.City, formatCoord(r.Lat), formatCoord(r.Lng)}
		if err := cw.Write(row); err != nil {
			return nil, err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return nil, fmt.Errorf("encode station index: %w", err)
	}
	return buf.Bytes(), nil
}

func formatCoord(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// AtomicWriteFile writes data to a temp file next to path, syncs it and
// renames it over path.
func AtomicWriteFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
