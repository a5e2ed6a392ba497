package catalog

import (
	"context"
	"fmt"

	"resumatch/internal/config"
	apperrors "resumatch/internal/errors"
	"resumatch/internal/types"
)

// Open builds the source selected by configuration.
func Open(ctx context.Context, cfg config.CatalogConfig, logger *apperrors.Logger) (Source, error) {
	switch cfg.Source {
	case config.SourceFile, "":
		return NewFileSource(cfg.SkillsFile, cfg.JobsFile, cfg.AllowMissing, logger), nil
	case config.SourceSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.SourcePostgres:
		return ConnectPostgres(ctx, cfg.PostgresDSN)
	default:
		return nil, apperrors.NewConfigError(apperrors.ErrCodeInvalidConfig,
			fmt.Sprintf("unknown catalog source %q", cfg.Source), nil)
	}
}

// LoadFiles reads a vocabulary file and a job CSV without tolerance for
// missing files. Used when importing into a database source.
func LoadFiles(ctx context.Context, skillsPath, jobsPath string) ([]string, []types.JobRecord, error) {
	snapshot, err := NewFileSource(skillsPath, jobsPath, false, nil).Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return snapshot.Vocabulary, snapshot.Jobs, nil
}
