// Package history keeps an operational log of pipeline runs: uploads
// synthesized and documents generated, with status and timing. It records
// no clinical content; records themselves stay in the transient session.
package history

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	token       TEXT NOT NULL,
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL,
	detail      TEXT NOT NULL DEFAULT '',
	duration_ms INTEGER NOT NULL DEFAULT 0,
	created_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_token ON runs(token);
`

const (
	StageSynthesize = "synthesize"
	StageGenerate   = "generate"

	StatusOK    = "ok"
	StatusError = "error"
)

type Entry struct {
	ID         int64  `db:"id"`
	Token      string `db:"token"`
	Stage      string `db:"stage"`
	Status     string `db:"status"`
	Detail     string `db:"detail"`
	DurationMS int64  `db:"duration_ms"`
	CreatedAt  string `db:"created_at"`
}

type Log struct {
	db *sqlx.DB
}

func Open(path string) (*Log, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &Log{db: db}, nil
}

func (l *Log) Close() error { return l.db.Close() }

// Record appends one run entry. A nil log is a no-op so callers can run
// without history enabled.
func (l *Log) Record(token, stage, status, detail string, took time.Duration) error {
	if l == nil {
		return nil
	}
	_, err := l.db.Exec(
		`INSERT INTO runs (token, stage, status, detail, duration_ms, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		token, stage, status, detail, took.Milliseconds(), time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

// Recent returns the newest entries, most recent first.
func (l *Log) Recent(limit int) ([]Entry, error) {
	if l == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	var out []Entry
	if err := l.db.Select(&out, `SELECT * FROM runs ORDER BY id DESC LIMIT ?`, limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return out, nil
}
