// Package journal keeps a local, append-only record of what each session
// asked the relief service and how it answered. Nothing reads it back into
// a session; it exists for the history command.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/glebarez/sqlite"
	"github.com/google/uuid"

	"reliefctl/internal/config"
)

const FileName = "journal.db"

type DB struct {
	SQL  *sql.DB
	Path string
}

// Entry is one journal row.
type Entry struct {
	ID         string `json:"id"`
	Session    string `json:"session"`
	Kind       string `json:"kind"`
	Subject    string `json:"subject"`
	Outcome    string `json:"outcome"`
	Detail     string `json:"detail,omitempty"`
	DurationMS int64  `json:"duration_ms"`
	CreatedAt  int64  `json:"created_at"`
}

func (e Entry) Time() time.Time { return time.Unix(e.CreatedAt, 0) }

func Open(cfg *config.Config) (*DB, error) {
	if cfg == nil {
		return nil, errors.New("nil config")
	}
	if cfg.General.DataRoot == "" {
		return nil, errors.New("general.data_root required")
	}
	if err := os.MkdirAll(cfg.General.DataRoot, 0o755); err != nil {
		return nil, err
	}
	return OpenPath(filepath.Join(cfg.General.DataRoot, FileName))
}

func OpenPath(path string) (*DB, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout=5000&_pragma=journal_mode(WAL)", path)
	sqldb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := initSchema(sqldb); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return &DB{SQL: sqldb, Path: path}, nil
}

func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS entries (
			id TEXT PRIMARY KEY,
			session TEXT NOT NULL,
			kind TEXT NOT NULL,
			subject TEXT NOT NULL,
			outcome TEXT NOT NULL,
			detail TEXT,
			duration_ms INTEGER NOT NULL DEFAULT 0,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_entries_created ON entries(created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

// Record inserts e, filling ID and CreatedAt when they are empty.
func (db *DB) Record(e Entry) error {
	if db == nil || db.SQL == nil {
		return errors.New("nil db")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt == 0 {
		e.CreatedAt = time.Now().Unix()
	}
	_, err := db.SQL.Exec(`INSERT INTO entries(id, session, kind, subject, outcome, detail, duration_ms, created_at) VALUES(?,?,?,?,?,?,?,?)`,
		e.ID, e.Session, e.Kind, e.Subject, e.Outcome, e.Detail, e.DurationMS, e.CreatedAt)
	return err
}

// List returns the newest limit entries, newest first. limit <= 0 means all.
func (db *DB) List(limit int) ([]Entry, error) {
	if db == nil || db.SQL == nil {
		return nil, errors.New("nil db")
	}
	q := `SELECT id, session, kind, subject, outcome, COALESCE(detail, ''), duration_ms, created_at FROM entries ORDER BY created_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.SQL.Query(q, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Session, &e.Kind, &e.Subject, &e.Outcome, &e.Detail, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (db *DB) Close() error {
	if db == nil || db.SQL == nil {
		return nil
	}
	return db.SQL.Close()
}
