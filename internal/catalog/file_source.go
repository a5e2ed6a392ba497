package catalog

import (
	"context"
	"errors"
	"io/fs"
	"os"

	"golang.org/x/sync/errgroup"

	apperrors "resumatch/internal/errors"
	"resumatch/internal/types"
)

// FileSource reads the vocabulary from a text file and the jobs from a CSV.
type FileSource struct {
	SkillsPath string
	JobsPath   string
	// AllowMissing loads an absent file as an empty vocabulary or catalog.
	AllowMissing bool
	logger       *apperrors.Logger
}

// NewFileSource creates a file-backed source.
func NewFileSource(skillsPath, jobsPath string, allowMissing bool, logger *apperrors.Logger) *FileSource {
	return &FileSource{
		SkillsPath:   skillsPath,
		JobsPath:     jobsPath,
		AllowMissing: allowMissing,
		logger:       logger,
	}
}

func (f *FileSource) Name() string { return "file" }

func (f *FileSource) Close() error { return nil }

// Paths returns the files this source reads, for watching.
func (f *FileSource) Paths() []string {
	return []string{f.SkillsPath, f.JobsPath}
}

// Load reads both files concurrently.
func (f *FileSource) Load(ctx context.Context) (*Snapshot, error) {
	var (
		vocab []string
		jobs  []types.JobRecord
	)

	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vocab, err = f.loadVocabulary()
		return err
	})
	g.Go(func() error {
		var err error
		jobs, err = f.loadJobs()
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return NewSnapshot(f.Name(), vocab, jobs)
}

func (f *FileSource) loadVocabulary() ([]string, error) {
	file, err := f.open(f.SkillsPath)
	if err != nil || file == nil {
		return []string{}, err
	}
	defer func() { _ = file.Close() }()

	vocab, err := ParseVocabulary(file)
	if err != nil {
		return nil, withPath(err, f.SkillsPath)
	}
	return vocab, nil
}

func (f *FileSource) loadJobs() ([]types.JobRecord, error) {
	file, err := f.open(f.JobsPath)
	if err != nil || file == nil {
		return []types.JobRecord{}, err
	}
	defer func() { _ = file.Close() }()

	jobs, err := ParseJobsCSV(file)
	if err != nil {
		return nil, withPath(err, f.JobsPath)
	}
	return jobs, nil
}

// open returns a nil file and nil error for a tolerated missing file.
func (f *FileSource) open(path string) (*os.File, error) {
	file, err := os.Open(path)
	if err == nil {
		return file, nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		if f.AllowMissing {
			if f.logger != nil {
				f.logger.Warn("Catalog file not found, using empty data", "path", path)
			}
			return nil, nil
		}
		return nil, apperrors.NewIOError(apperrors.ErrCodeFileNotFound, "catalog file not found", err).
			WithContext("path", path)
	}
	return nil, apperrors.NewIOError(apperrors.ErrCodeFileNotReadable, "cannot open catalog file", err).
		WithContext("path", path)
}

func withPath(err error, path string) error {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return appErr.WithContext("path", path)
	}
	return err
}
