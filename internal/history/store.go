// Package history keeps an opt-in local record of dispatched transcriptions.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcriptions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	text TEXT NOT NULL,
	command TEXT NOT NULL DEFAULT 'text',
	target TEXT NOT NULL DEFAULT '',
	model TEXT NOT NULL DEFAULT '',
	audio_seconds REAL NOT NULL DEFAULT 0,
	confidence REAL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS transcriptions_created_at ON transcriptions(created_at);
`

// Entry is one recorded transcription.
type Entry struct {
	ID           int64
	SessionID    string
	Text         string
	Command      string
	Target       string
	Model        string
	AudioSeconds float64
	Confidence   *float64
	CreatedAt    time.Time
}

// Store is a sqlite-backed history.
type Store struct {
	db *sql.DB
}

// DefaultPath returns $XDG_STATE_HOME/whisperkey/history.sqlite.
func DefaultPath() (string, error) {
	stateDir := strings.TrimSpace(os.Getenv("XDG_STATE_HOME"))
	if stateDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		stateDir = filepath.Join(home, ".local", "state")
	}
	return filepath.Join(stateDir, "whisperkey", "history.sqlite"), nil
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("history path must not be empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record inserts e and returns its row id. A zero CreatedAt is stamped with now.
func (s *Store) Record(ctx context.Context, e Entry) (int64, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.Command == "" {
		e.Command = "text"
	}

	var confidence sql.NullFloat64
	if e.Confidence != nil {
		confidence = sql.NullFloat64{Float64: *e.Confidence, Valid: true}
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transcriptions (session_id, text, command, target, model, audio_seconds, confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, e.SessionID, e.Text, e.Command, e.Target, e.Model, e.AudioSeconds, confidence, e.CreatedAt.UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("insert transcription: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns up to n entries, newest first.
func (s *Store) Recent(ctx context.Context, n int) ([]Entry, error) {
	if n <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, text, command, target, model, audio_seconds, confidence, created_at
		FROM transcriptions
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("query transcriptions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e          Entry
			confidence sql.NullFloat64
			createdAt  int64
		)
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Text, &e.Command, &e.Target, &e.Model,
			&e.AudioSeconds, &confidence, &createdAt); err != nil {
			return nil, fmt.Errorf("scan transcription: %w", err)
		}
		if confidence.Valid {
			c := confidence.Float64
			e.Confidence = &c
		}
		e.CreatedAt = time.UnixMilli(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune keeps the newest keep entries and reports how many were removed.
func (s *Store) Prune(ctx context.Context, keep int) (int64, error) {
	if keep < 0 {
		keep = 0
	}
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM transcriptions
		WHERE id NOT IN (
			SELECT id FROM transcriptions ORDER BY created_at DESC, id DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, fmt.Errorf("prune transcriptions: %w", err)
	}
	return res.RowsAffected()
}
