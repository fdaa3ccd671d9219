// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/cliff/internal/util"
)

// ErrRecordNotFound is returned when no record has the requested ID.
var ErrRecordNotFound = errors.New("history record not found")

// =============================================================================
// RECORD
// =============================================================================

// Kind is the command that produced a record.
type Kind string

const (
	KindAsk     Kind = "ask"
	KindSession Kind = "session"
	KindAct     Kind = "act"
)

// Record is one logged interaction.
type Record struct {
	ID    string `json:"id" yaml:"id"`
	Kind  Kind   `json:"kind" yaml:"kind"`
	Model string `json:"model" yaml:"model"`

	// Prompt is the user's question or instruction, without gathered context.
	Prompt string `json:"prompt" yaml:"prompt"`

	// Response is the answer, or the plan summary for act.
	Response string `json:"response" yaml:"response"`

	Success bool `json:"success" yaml:"success"`

	// Steps and Failed count plan steps for act records.
	Steps  int `json:"steps,omitempty" yaml:"steps,omitempty"`
	Failed int `json:"failed,omitempty" yaml:"failed,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
}

const schema = `
CREATE TABLE IF NOT EXISTS history (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	model      TEXT NOT NULL,
	prompt     TEXT NOT NULL,
	response   TEXT NOT NULL,
	success    INTEGER NOT NULL,
	steps      INTEGER NOT NULL DEFAULT 0,
	failed     INTEGER NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_history_created ON history(created_at);
`

const selectColumns = "id, kind, model, prompt, response, success, steps, failed, created_at"

// =============================================================================
// HISTORY STORE
// =============================================================================

// HistoryStore is the SQLite-backed history log.
type HistoryStore struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the history database at path.
func Open(path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize history schema: %w", err)
	}

	// The log can hold prompts the user considers private
	_ = os.Chmod(path, 0600)

	return &HistoryStore{db: db, path: path}, nil
}

// Path returns the database file path.
func (s *HistoryStore) Path() string {
	return s.path
}

// Close closes the database.
func (s *HistoryStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Record stores r, assigning an ID and timestamp when they are empty.
func (s *HistoryStore) Record(ctx context.Context, r *Record) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO history (id, kind, model, prompt, response, success, steps, failed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, string(r.Kind), r.Model, r.Prompt, r.Response, boolToInt(r.Success), r.Steps, r.Failed, r.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}
	return nil
}

// Recent returns up to n records, newest first. n <= 0 returns all.
func (s *HistoryStore) Recent(ctx context.Context, n int) ([]Record, error) {
	query := "SELECT " + selectColumns + " FROM history ORDER BY created_at DESC, rowid DESC"
	args := []any{}
	if n > 0 {
		query += " LIMIT ?"
		args = append(args, n)
	}
	return s.query(ctx, query, args...)
}

// Search returns records whose prompt or response contains text, newest
// first.
func (s *HistoryStore) Search(ctx context.Context, text string, n int) ([]Record, error) {
	pattern := "%" + escapeLike(text) + "%"
	query := "SELECT " + selectColumns + ` FROM history
		WHERE prompt LIKE ? ESCAPE '\' OR response LIKE ? ESCAPE '\'
		ORDER BY created_at DESC, rowid DESC`
	args := []any{pattern, pattern}
	if n > 0 {
		query += " LIMIT ?"
		args = append(args, n)
	}
	return s.query(ctx, query, args...)
}

// Get returns the record with the given ID. A unique ID prefix is accepted.
func (s *HistoryStore) Get(ctx context.Context, id string) (*Record, error) {
	records, err := s.query(ctx, "SELECT "+selectColumns+" FROM history WHERE id LIKE ? ESCAPE '\\' LIMIT 2", escapeLike(id)+"%")
	if err != nil {
		return nil, err
	}
	switch len(records) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, id)
	case 1:
		return &records[0], nil
	default:
		return nil, fmt.Errorf("history ID prefix %q is ambiguous", id)
	}
}

// Clear deletes every record and returns how many were removed.
func (s *HistoryStore) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, "DELETE FROM history")
	if err != nil {
		return 0, fmt.Errorf("failed to clear history: %w", err)
	}
	return res.RowsAffected()
}

func (s *HistoryStore) query(ctx context.Context, query string, args ...any) ([]Record, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			r       Record
			kind    string
			success int
			created int64
		)
		if err := rows.Scan(&r.ID, &kind, &r.Model, &r.Prompt, &r.Response, &success, &r.Steps, &r.Failed, &created); err != nil {
			return nil, fmt.Errorf("failed to read history: %w", err)
		}
		r.Kind = Kind(kind)
		r.Success = success != 0
		r.CreatedAt = time.Unix(0, created)
		records = append(records, r)
	}
	return records, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// =============================================================================
// LIST FORMATTING
// =============================================================================

// FormatList formats records as a table for display.
func FormatList(records []Record) string {
	if len(records) == 0 {
		return "No history yet."
	}

	var sb strings.Builder
	sb.WriteString(util.PadRight("ID", 8) + " " + util.PadRight("When", 16) + " " + util.PadRight("Kind", 7) + " " + util.PadRight("Model", 14) + " " + util.PadRight("Result", 7) + " Prompt\n")
	for _, r := range records {
		result := "ok"
		if !r.Success {
			result = "failed"
		}
		if r.Kind == KindAct && r.Steps > 0 {
			result = strconv.Itoa(r.Steps-r.Failed) + "/" + strconv.Itoa(r.Steps)
		}
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		sb.WriteString(util.PadRight(id, 8) + " " +
			util.PadRight(r.CreatedAt.Format("2006-01-02 15:04"), 16) + " " +
			util.PadRight(string(r.Kind), 7) + " " +
			util.PadRight(util.TruncateWidth(r.Model, 14), 14) + " " +
			util.PadRight(result, 7) + " " +
			util.TruncateWidth(util.FirstLine(r.Prompt), 50) + "\n")
	}
	return sb.String()
}
