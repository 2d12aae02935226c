// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package refstore persists bibliographic records, their tags, and their
// stored file attachments in a SQLite database. It is the durable side of
// the engine: resolution and retrieval read records from here and write
// back identifiers, type changes, tags, and attachments.
package refstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/reference-engine/pkg/types"
)

const (
	dbFile         = "references.db"
	attachmentsDir = "attachments"
)

// Store manages the reference SQLite database and the attachment directory.
type Store struct {
	db      *sql.DB
	dataDir string
}

// NewStore opens or creates the reference database at dataDir/references.db
// and creates the schema if it does not exist.
func NewStore(cfg types.StoreConfig) (*Store, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(cfg.DataDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, dataDir: cfg.DataDir}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// AttachmentsDir returns the base directory for stored attachment files.
func (s *Store) AttachmentsDir() string {
	return filepath.Join(s.dataDir, attachmentsDir)
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			type TEXT NOT NULL,
			title TEXT,
			creators TEXT,
			date TEXT,
			venue TEXT,
			repository TEXT,
			doi TEXT,
			isbn TEXT,
			url TEXT,
			extra TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS tags (
			record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			tag TEXT NOT NULL,
			UNIQUE(record_id, tag)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tags_record_id ON tags(record_id)`,
		`CREATE TABLE IF NOT EXISTS attachments (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			record_id INTEGER NOT NULL REFERENCES records(id) ON DELETE CASCADE,
			title TEXT,
			path TEXT NOT NULL,
			source_name TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_attachments_record_id ON attachments(record_id)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}
