package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	apperrors "resumatch/internal/errors"
	"resumatch/internal/types"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS skills (
	position INTEGER PRIMARY KEY,
	name     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS jobs (
	position        INTEGER PRIMARY KEY,
	role            TEXT NOT NULL,
	required_skills TEXT NOT NULL DEFAULT ''
);`

// SQLiteSource keeps the catalog in a local SQLite database.
type SQLiteSource struct {
	db   *sql.DB
	path string
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteSource, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, apperrors.NewIOError(apperrors.ErrCodeFileNotReadable, "cannot create database directory", err).
				WithContext("path", dir)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogUnavailable, "failed to open sqlite catalog", err)
	}
	db.SetMaxOpenConns(1) // single writer

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		_ = db.Close()
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogUnavailable, "failed to initialize sqlite schema", err)
	}
	return &SQLiteSource{db: db, path: path}, nil
}

func (s *SQLiteSource) Name() string { return "sqlite" }

func (s *SQLiteSource) Close() error { return s.db.Close() }

// Load reads vocabulary and jobs inside one read transaction.
func (s *SQLiteSource) Load(ctx context.Context) (*Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogUnavailable, "failed to begin catalog read", err)
	}
	defer func() { _ = tx.Rollback() }()

	vocab, err := s.loadVocabulary(ctx, tx)
	if err != nil {
		return nil, err
	}
	jobs, err := s.loadJobs(ctx, tx)
	if err != nil {
		return nil, err
	}
	return NewSnapshot(s.Name(), vocab, jobs)
}

func (s *SQLiteSource) loadVocabulary(ctx context.Context, tx *sql.Tx) ([]string, error) {
	rows, err := tx.QueryContext(ctx, `SELECT name FROM skills ORDER BY position`)
	if err != nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to query skills", err)
	}
	defer func() { _ = rows.Close() }()

	vocab := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to scan skill", err)
		}
		vocab = append(vocab, name)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to read skills", err)
	}
	return vocab, nil
}

func (s *SQLiteSource) loadJobs(ctx context.Context, tx *sql.Tx) ([]types.JobRecord, error) {
	rows, err := tx.QueryContext(ctx, `SELECT role, required_skills FROM jobs ORDER BY position`)
	if err != nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to query jobs", err)
	}
	defer func() { _ = rows.Close() }()

	jobs := []types.JobRecord{}
	for rows.Next() {
		var role, required string
		if err := rows.Scan(&role, &required); err != nil {
			return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to scan job", err)
		}
		jobs = append(jobs, types.JobRecord{Role: role, RequiredSkills: SplitSkills(required)})
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to read jobs", err)
	}
	return jobs, nil
}

// Import replaces the stored vocabulary and jobs in one transaction.
func (s *SQLiteSource) Import(ctx context.Context, vocabulary []string, jobs []types.JobRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewCatalogError(apperrors.ErrCodeCatalogUnavailable, "failed to begin import", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{`DELETE FROM skills`, `DELETE FROM jobs`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to clear catalog", err)
		}
	}

	for i, name := range vocabulary {
		if _, err := tx.ExecContext(ctx, `INSERT INTO skills (position, name) VALUES (?, ?)`, i, name); err != nil {
			return apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, fmt.Sprintf("failed to insert skill %q", name), err)
		}
	}
	for i, job := range jobs {
		if _, err := tx.ExecContext(ctx, `INSERT INTO jobs (position, role, required_skills) VALUES (?, ?, ?)`,
			i, job.Role, JoinSkills(job.RequiredSkills)); err != nil {
			return apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, fmt.Sprintf("failed to insert job %q", job.Role), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to commit import", err)
	}
	return nil
}
