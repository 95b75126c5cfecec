// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package knowledge

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/bookdigest/pkg/types"
)

const (
	indexDir = "index"
	dbFile   = "bookdigest.db"
)

// Store manages the knowledge index SQLite database.
type Store struct {
	db         *sql.DB
	baseDir    string
	maxResults int
}

// NewStore opens or creates the index database at baseDir/index/bookdigest.db,
// creating the schema if it does not exist.
func NewStore(cfg types.IndexConfig) (*Store, error) {
	dbDir := filepath.Join(cfg.BaseDir, indexDir)
	if err := os.MkdirAll(dbDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating index directory: %w", err)
	}

	dbPath := filepath.Join(dbDir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{
		db:         db,
		baseDir:    cfg.BaseDir,
		maxResults: maxResults,
	}

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

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS documents (
			name TEXT PRIMARY KEY,
			file_mod_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS points (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			document TEXT NOT NULL REFERENCES documents(name),
			ordinal INTEGER NOT NULL,
			content TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_points_document ON points(document)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='points_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE points_fts USING fts5(content, content=points, content_rowid=rowid)`,
			`CREATE TRIGGER points_ai AFTER INSERT ON points BEGIN
				INSERT INTO points_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
			`CREATE TRIGGER points_ad AFTER DELETE ON points BEGIN
				INSERT INTO points_fts(points_fts, rowid, content) VALUES('delete', old.rowid, old.content);
			END`,
			`CREATE TRIGGER points_au AFTER UPDATE ON points BEGIN
				INSERT INTO points_fts(points_fts, rowid, content) VALUES('delete', old.rowid, old.content);
				INSERT INTO points_fts(rowid, content) VALUES (new.rowid, new.content);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// IngestSummary holds counts from an indexing run.
type IngestSummary struct {
	Indexed int
	Updated int
	Skipped int
	Failed  int
}

// Total returns the number of knowledge files processed.
func (s IngestSummary) Total() int {
	return s.Indexed + s.Updated + s.Skipped + s.Failed
}

// Ingest reads knowledge files from baseDir/knowledge_bases/ and populates
// the index. Files unchanged since the last run are skipped by mod time.
func (s *Store) Ingest(ctx context.Context, w io.Writer) (IngestSummary, error) {
	kbDir := filepath.Join(s.baseDir, knowledgeBasesDir)

	entries, err := os.ReadDir(kbDir)
	if err != nil {
		return IngestSummary{}, fmt.Errorf("reading knowledge directory %s: %w", kbDir, err)
	}

	var summary IngestSummary

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), knowledgeSuffix) {
			continue
		}

		select {
		case <-ctx.Done():
			return summary, ctx.Err()
		default:
		}

		document := strings.TrimSuffix(entry.Name(), knowledgeSuffix)
		filePath := filepath.Join(kbDir, entry.Name())

		info, err := entry.Info()
		if err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", document, err)
			summary.Failed++
			continue
		}
		modTime := info.ModTime().UTC().Format(time.RFC3339Nano)

		var storedModTime string
		err = s.db.QueryRowContext(ctx,
			`SELECT file_mod_time FROM documents WHERE name = ?`, document,
		).Scan(&storedModTime)

		if err == nil && storedModTime == modTime {
			fmt.Fprintf(w, "skipped %s\n", document)
			summary.Skipped++
			continue
		}

		isUpdate := err == nil

		res := Load(filePath)
		if res.Status != Loaded {
			fmt.Fprintf(w, "failed  %s: %v\n", document, res.Err)
			summary.Failed++
			continue
		}

		if err := s.ingestDocument(ctx, document, res.Base.Knowledge, modTime, isUpdate); err != nil {
			fmt.Fprintf(w, "failed  %s: %v\n", document, err)
			summary.Failed++
			continue
		}

		if isUpdate {
			fmt.Fprintf(w, "updated %s (%d points)\n", document, res.Base.Len())
			summary.Updated++
		} else {
			fmt.Fprintf(w, "indexed %s (%d points)\n", document, res.Base.Len())
			summary.Indexed++
		}
	}

	fmt.Fprintf(w, "\nindexed: %d, updated: %d, skipped: %d, failed: %d\n",
		summary.Indexed, summary.Updated, summary.Skipped, summary.Failed)

	return summary, nil
}

func (s *Store) ingestDocument(ctx context.Context, document string, points []string, modTime string, isUpdate bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isUpdate {
		if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE document = ?`, document); err != nil {
			return fmt.Errorf("deleting old points: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO documents (name, file_mod_time) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET file_mod_time=excluded.file_mod_time`,
		document, modTime,
	)
	if err != nil {
		return fmt.Errorf("upserting document: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO points (document, ordinal, content) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, content := range points {
		if _, err := stmt.ExecContext(ctx, document, i, content); err != nil {
			return fmt.Errorf("inserting point %d: %w", i, err)
		}
	}

	return tx.Commit()
}
