package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite driver
)

// ScanRecord is one processed upload: what came in, how detection went,
// and how long it took.
type ScanRecord struct {
	ID             int64     `db:"id"`
	Filename       string    `db:"filename"`
	OriginalWidth  int       `db:"original_width"`
	OriginalHeight int       `db:"original_height"`
	CroppedWidth   int       `db:"cropped_width"`
	CroppedHeight  int       `db:"cropped_height"`
	Confidence     float64   `db:"confidence"`
	Outcome        string    `db:"outcome"`
	Message        string    `db:"message"`
	DurationMS     int64     `db:"duration_ms"`
	CreatedAt      time.Time `db:"created_at"`
}

const historySchema = `
CREATE TABLE IF NOT EXISTS scans (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	filename        TEXT NOT NULL,
	original_width  INTEGER NOT NULL,
	original_height INTEGER NOT NULL,
	cropped_width   INTEGER NOT NULL DEFAULT 0,
	cropped_height  INTEGER NOT NULL DEFAULT 0,
	confidence      REAL NOT NULL DEFAULT 0,
	outcome         TEXT NOT NULL,
	message         TEXT NOT NULL DEFAULT '',
	duration_ms     INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_scans_created_at ON scans(created_at);
`

// History is the sqlite-backed scan log.
type History struct {
	db *sqlx.DB
}

// OpenHistory opens (creating if needed) the scan-history database at
// path. Use ":memory:" for an ephemeral database.
func OpenHistory(path string) (*History, error) {
	db, err := sqlx.Connect("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	if _, err := db.Exec(historySchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &History{db: db}, nil
}

// Close releases the underlying database handle.
func (h *History) Close() error {
	return h.db.Close()
}

// Record appends one scan to the history.
func (h *History) Record(ctx context.Context, rec ScanRecord) error {
	const q = `
INSERT INTO scans (filename, original_width, original_height, cropped_width,
	cropped_height, confidence, outcome, message, duration_ms, created_at)
VALUES (:filename, :original_width, :original_height, :cropped_width,
	:cropped_height, :confidence, :outcome, :message, :duration_ms, :created_at)`

	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if _, err := h.db.NamedExecContext(ctx, q, rec); err != nil {
		return fmt.Errorf("failed to record scan: %w", err)
	}
	return nil
}

// Recent returns the newest scans, most recent first.
func (h *History) Recent(ctx context.Context, limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = 20
	}
	var records []ScanRecord
	err := h.db.SelectContext(ctx, &records,
		`SELECT * FROM scans ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list scans: %w", err)
	}
	return records, nil
}
