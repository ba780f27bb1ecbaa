// Package sqlite keeps station history in a SQLite database and re-emits the
// published feed after every commit.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/couchcryptid/balneabilidade-etl/internal/adapter/feedstore"
	"github.com/couchcryptid/balneabilidade-etl/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS stations (
	code TEXT PRIMARY KEY,
	beach TEXT NOT NULL DEFAULT '',
	reference TEXT NOT NULL DEFAULT '',
	city TEXT NOT NULL DEFAULT '',
	lat REAL,
	lng REAL,
	source_report_url TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS history (
	code TEXT NOT NULL REFERENCES stations(code),
	date TEXT NOT NULL,
	status TEXT NOT NULL,
	PRIMARY KEY (code, date)
);
CREATE INDEX IF NOT EXISTS idx_history_date ON history(date);`

// Store implements pipeline.Store on SQLite.
type Store struct {
	db     *sql.DB
	writer *feedstore.Writer
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path. Committed state is
// also written to the feed through w.
func Open(path string, w *feedstore.Writer, logger *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}
	return &Store{db: db, writer: w, logger: logger}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns all stations with their history. An empty database is seeded
// from the existing feed file so switching backends keeps the history.
func (s *Store) Load(ctx context.Context) ([]domain.StationRecord, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stations`).Scan(&n); err != nil {
		return nil, fmt.Errorf("count stations: %w", err)
	}
	if n == 0 && s.writer != nil {
		records, err := feedstore.ReadFeed(s.writer.FeedPath())
		if err != nil {
			return nil, err
		}
		if len(records) > 0 {
			s.logger.Info("seeding history database from feed", "stations", len(records))
		}
		return records, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT code, beach, reference, city, lat, lng, source_report_url FROM stations ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var records []domain.StationRecord
	index := map[string]int{}
	for rows.Next() {
		var r domain.StationRecord
		var lat, lng sql.NullFloat64
		if err := rows.Scan(&r.Code, &r.Beach, &r.Reference, &r.City, &lat, &lng, &r.SourceReportURL); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		if lat.Valid && lng.Valid {
			r.Lat, r.Lng = &lat.Float64, &lng.Float64
		}
		index[r.Code] = len(records)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stations: %w", err)
	}

	hist, err := s.db.QueryContext(ctx, `SELECT code, date, status FROM history ORDER BY code, date DESC`)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer hist.Close()
	for hist.Next() {
		var code, date, status string
		if err := hist.Scan(&code, &date, &status); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		i, ok := index[code]
		if !ok {
			continue
		}
		d, err := domain.ParseDate(date)
		if err != nil {
			return nil, fmt.Errorf("station %s: %w", code, err)
		}
		records[i].History = append(records[i].History, domain.HistoryEntry{Date: d, Status: domain.NormalizeStatus(status)})
	}
	if err := hist.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	for i := range records {
		records[i] = domain.NormalizeRecord(records[i])
	}
	return records, nil
}

// Commit upserts every station and history entry in one transaction, then
// rewrites the feed and index.
func (s *Store) Commit(ctx context.Context, records []domain.StationRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stationStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stations(code, beach, reference, city, lat, lng, source_report_url)
		VALUES(?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(code) DO UPDATE SET
			beach=excluded.beach,
			reference=excluded.reference,
			city=excluded.city,
			lat=excluded.lat,
			lng=excluded.lng,
			source_report_url=excluded.source_report_url`)
	if err != nil {
		return fmt.Errorf("prepare station upsert: %w", err)
	}
	defer stationStmt.Close()

	historyStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO history(code, date, status) VALUES(?, ?, ?)
		ON CONFLICT(code, date) DO UPDATE SET status=excluded.status`)
	if err != nil {
		return fmt.Errorf("prepare history upsert: %w", err)
	}
	defer historyStmt.Close()

	for _, r := range records {
		if _, err := stationStmt.ExecContext(ctx, r.Code, r.Beach, r.Reference, r.City,
			nullFloat(r.Lat), nullFloat(r.Lng), r.SourceReportURL); err != nil {
			return fmt.Errorf("upsert station %s: %w", r.Code, err)
		}
		for _, e := range r.History {
			if _, err := historyStmt.ExecContext(ctx, r.Code, e.Date.String(), string(e.Status)); err != nil {
				return fmt.Errorf("upsert history %s %s: %w", r.Code, e.Date, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.logger.Debug("history database committed", "stations", len(records))

	if s.writer == nil {
		return nil
	}
	return s.writer.Write(records)
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
