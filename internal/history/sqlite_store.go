package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS transcripts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	filename TEXT NOT NULL,
	file_path TEXT NOT NULL,
	transcript TEXT NOT NULL,
	engine TEXT NOT NULL,
	language TEXT NOT NULL,
	duration_seconds REAL NOT NULL,
	refined INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	file_size_mb REAL NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_transcripts_created_at ON transcripts (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_transcripts_filename ON transcripts (filename);
`

// SQLiteStore persists records to a local SQLite database via
// modernc.org/sqlite's pure-Go driver.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// ensures the transcripts table and its indexes exist.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}

	for _, pragma := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append inserts r as a new row.
func (s *SQLiteStore) Append(r Record) error {
	_, err := s.db.Exec(
		`INSERT INTO transcripts
			(filename, file_path, transcript, engine, language, duration_seconds, refined, created_at, file_size_mb)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.Filename, r.FilePath, r.Transcript, r.Engine, r.Language, r.DurationS, r.Refined,
		r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"), r.FileSizeMB,
	)
	if err != nil {
		return fmt.Errorf("insert transcript record: %w", err)
	}
	return nil
}

// Recent returns up to limit most-recent records, newest first.
func (s *SQLiteStore) Recent(limit int) ([]Record, error) {
	rows, err := s.db.Query(
		`SELECT id, filename, file_path, transcript, engine, language, duration_seconds, refined, created_at, file_size_mb
		 FROM transcripts ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent transcripts: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		var createdAt string
		if err := rows.Scan(&r.ID, &r.Filename, &r.FilePath, &r.Transcript, &r.Engine, &r.Language,
			&r.DurationS, &r.Refined, &createdAt, &r.FileSizeMB); err != nil {
			return nil, fmt.Errorf("scan transcript record: %w", err)
		}
		if parsed, err := time.Parse("2006-01-02T15:04:05Z", createdAt); err == nil {
			r.CreatedAt = parsed
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }
