// Package history persists generation results as an append-only record log.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"meetscribe/internal/models"
)

// Store reads and writes meeting records. Inserts rely on the database's
// atomic single-row insert; no application-level locking is layered on top.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore constructs a Store over an opened database.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, logger: logger}
}

// Append inserts one record, assigning id and timestamp, and returns the id.
func (s *Store) Append(ctx context.Context, filename, transcript, summary string, emails []string) (int64, error) {
	if emails == nil {
		emails = []string{}
	}
	serialized, err := json.Marshal(emails)
	if err != nil {
		return 0, fmt.Errorf("serialize emails: %w", err)
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings (filename, transcript, summary, emails, timestamp) VALUES (?, ?, ?, ?, ?)`,
		filename, transcript, summary, string(serialized), now,
	)
	if err != nil {
		return 0, fmt.Errorf("insert meeting: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("meeting id: %w", err)
	}
	return id, nil
}

// ListAll returns every record, newest first. A row whose stored emails text
// cannot be parsed is returned with an empty emails slice rather than
// failing the whole listing.
func (s *Store) ListAll(ctx context.Context) ([]models.MeetingRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, filename, transcript, summary, emails, timestamp FROM meetings ORDER BY timestamp DESC, id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	records := make([]models.MeetingRecord, 0)
	for rows.Next() {
		var (
			rec    models.MeetingRecord
			emails string
		)
		if err := rows.Scan(&rec.ID, &rec.Filename, &rec.Transcript, &rec.Summary, &emails, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		if err := json.Unmarshal([]byte(emails), &rec.Emails); err != nil || rec.Emails == nil {
			if err != nil {
				s.logger.Warn("stored emails unparseable, degrading to empty list",
					slog.Int64("record_id", rec.ID), slog.String("error", err.Error()))
			}
			rec.Emails = []string{}
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// ErrNotFound reports a lookup miss. Exported for symmetry with callers that
// treat sql.ErrNoRows specially.
var ErrNotFound = errors.New("record not found")

// Get returns a single record by id.
func (s *Store) Get(ctx context.Context, id int64) (*models.MeetingRecord, error) {
	var (
		rec    models.MeetingRecord
		emails string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, filename, transcript, summary, emails, timestamp FROM meetings WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Filename, &rec.Transcript, &rec.Summary, &emails, &rec.Timestamp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get meeting: %w", err)
	}
	if err := json.Unmarshal([]byte(emails), &rec.Emails); err != nil || rec.Emails == nil {
		rec.Emails = []string{}
	}
	return &rec, nil
}
