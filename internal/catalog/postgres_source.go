package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	apperrors "resumatch/internal/errors"
	"resumatch/internal/types"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS skills (
	position INTEGER PRIMARY KEY,
	name     TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS jobs (
	position        INTEGER PRIMARY KEY,
	role            TEXT NOT NULL,
	required_skills TEXT NOT NULL DEFAULT ''
);`

// PostgresSource keeps the catalog in PostgreSQL.
type PostgresSource struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a pool and ensures the schema.
func ConnectPostgres(ctx context.Context, dsn string) (*PostgresSource, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogUnavailable, "failed to connect to postgres", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogUnavailable, "failed to ping postgres", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogUnavailable, "failed to initialize postgres schema", err)
	}
	return &PostgresSource{pool: pool}, nil
}

func (p *PostgresSource) Name() string { return "postgres" }

func (p *PostgresSource) Close() error {
	p.pool.Close()
	return nil
}

// Load reads vocabulary and jobs from one repeatable-read snapshot.
func (p *PostgresSource) Load(ctx context.Context) (*Snapshot, error) {
	tx, err := p.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
	if err != nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogUnavailable, "failed to begin catalog read", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	rows, err := tx.Query(ctx, `SELECT name FROM skills ORDER BY position`)
	if err != nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to query skills", err)
	}
	vocab, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to read skills", err)
	}

	rows, err = tx.Query(ctx, `SELECT role, required_skills FROM jobs ORDER BY position`)
	if err != nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to query jobs", err)
	}
	jobs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (types.JobRecord, error) {
		var role, required string
		if err := row.Scan(&role, &required); err != nil {
			return types.JobRecord{}, err
		}
		return types.JobRecord{Role: role, RequiredSkills: SplitSkills(required)}, nil
	})
	if err != nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to read jobs", err)
	}

	return NewSnapshot(p.Name(), vocab, jobs)
}

// Import replaces the stored catalog using COPY inside one transaction.
func (p *PostgresSource) Import(ctx context.Context, vocabulary []string, jobs []types.JobRecord) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return apperrors.NewCatalogError(apperrors.ErrCodeCatalogUnavailable, "failed to begin import", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `TRUNCATE skills, jobs`); err != nil {
		return apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to clear catalog", err)
	}

	skillRows := make([][]any, 0, len(vocabulary))
	for i, name := range vocabulary {
		skillRows = append(skillRows, []any{int32(i), name})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"skills"}, []string{"position", "name"}, pgx.CopyFromRows(skillRows)); err != nil {
		return apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to copy skills", err)
	}

	jobRows := make([][]any, 0, len(jobs))
	for i, job := range jobs {
		jobRows = append(jobRows, []any{int32(i), job.Role, JoinSkills(job.RequiredSkills)})
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{"jobs"}, []string{"position", "role", "required_skills"}, pgx.CopyFromRows(jobRows)); err != nil {
		return apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to copy jobs", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, fmt.Sprintf("failed to commit import of %d jobs", len(jobs)), err)
	}
	return nil
}
