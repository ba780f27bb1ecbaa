package feedstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

// FileStore keeps the feed JSON as the source of truth.
// It implements pipeline.Store.
type FileStore struct {
	writer *Writer
	logger *slog.Logger
}

// NewFileStore creates a store reading and writing through w.
func NewFileStore(w *Writer, logger *slog.Logger) *FileStore {
	return &FileStore{writer: w, logger: logger}
}

// storedRecord also accepts the source_laudo key of feeds written before
// source_report_url existed.
type storedRecord struct {
	domain.StationRecord
	SourceLaudo string `json:"source_laudo"`
}

// Load reads the current feed. A missing or empty file is an empty feed;
// a file that does not parse is an error and must not be overwritten.
func (s *FileStore) Load(_ context.Context) ([]domain.StationRecord, error) {
	records, err := ReadFeed(s.writer.FeedPath())
	if err != nil {
		return nil, err
	}
	s.logger.Debug("feed loaded", "path", s.writer.FeedPath(), "stations", len(records))
	return records, nil
}

// Commit writes the feed and station index.
func (s *FileStore) Commit(_ context.Context, records []domain.StationRecord) error {
	return s.writer.Write(records)
}

// ReadFeed parses a feed file, restoring history invariants on every record.
func ReadFeed(path string) ([]domain.StationRecord, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read feed %s: %w", path, err)
	}
	return DecodeFeed(data)
}

// DecodeFeed parses feed JSON.
func DecodeFeed(data []byte) ([]domain.StationRecord, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	var stored []storedRecord
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}
	records := make([]domain.StationRecord, 0, len(stored))
	for _, sr := range stored {
		r := sr.StationRecord
		if r.Code == "" {
			continue
		}
		if r.SourceReportURL == "" {
			r.SourceReportURL = sr.SourceLaudo
		}
		records = append(records, domain.NormalizeRecord(r))
	}
	domain.SortRecords(records)
	return records, nil
}
