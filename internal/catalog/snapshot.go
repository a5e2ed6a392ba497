package catalog

import (
	"context"
	"time"

	"resumatch/internal/matching"
	"resumatch/internal/skills"
	"resumatch/internal/types"
)

// Snapshot is one consistent view of the vocabulary and job catalog.
// It must not be modified once published.
type Snapshot struct {
	Vocabulary []string
	Jobs       []types.JobRecord
	Extractor  *skills.Extractor
	Source     string
	LoadedAt   time.Time
}

// NewSnapshot validates the jobs and compiles the vocabulary.
func NewSnapshot(source string, vocabulary []string, jobs []types.JobRecord) (*Snapshot, error) {
	if err := matching.ValidateJobs(jobs); err != nil {
		return nil, err
	}
	if vocabulary == nil {
		vocabulary = []string{}
	}
	if jobs == nil {
		jobs = []types.JobRecord{}
	}
	return &Snapshot{
		Vocabulary: vocabulary,
		Jobs:       jobs,
		Extractor:  skills.NewExtractor(vocabulary),
		Source:     source,
		LoadedAt:   time.Now(),
	}, nil
}

// Info summarizes the snapshot for status endpoints.
func (s *Snapshot) Info() types.CatalogInfo {
	return types.CatalogInfo{
		Source:         s.Source,
		VocabularySize: len(s.Vocabulary),
		JobCount:       len(s.Jobs),
		LoadedAt:       s.LoadedAt,
	}
}

// Source loads a complete snapshot.
type Source interface {
	Name() string
	Load(ctx context.Context) (*Snapshot, error)
	Close() error
}

// Importer replaces the stored catalog.
type Importer interface {
	Import(ctx context.Context, vocabulary []string, jobs []types.JobRecord) error
}
