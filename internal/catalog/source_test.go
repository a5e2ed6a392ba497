package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "resumatch/internal/errors"
	"resumatch/internal/types"
)

func testLogger(t *testing.T) *apperrors.Logger {
	t.Helper()
	logger, err := apperrors.New("error")
	require.NoError(t, err)
	return logger
}

func writeCatalogFiles(t *testing.T, dir, skills, jobs string) (string, string) {
	t.Helper()
	skillsPath := filepath.Join(dir, "skills.txt")
	jobsPath := filepath.Join(dir, "jobs.csv")
	require.NoError(t, os.WriteFile(skillsPath, []byte(skills), 0600))
	require.NoError(t, os.WriteFile(jobsPath, []byte(jobs), 0600))
	return skillsPath, jobsPath
}

func TestFileSourceLoad(t *testing.T) {
	skillsPath, jobsPath := writeCatalogFiles(t, t.TempDir(),
		"python\nsql\ndocker\n",
		"Job Role,Required Skills\nData Engineer,python;sql;spark\nBackend Dev,docker;python\n")

	src := NewFileSource(skillsPath, jobsPath, false, testLogger(t))
	snap, err := src.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "file", snap.Source)
	assert.Equal(t, []string{"python", "sql", "docker"}, snap.Vocabulary)
	require.Len(t, snap.Jobs, 2)
	assert.Equal(t, 3, snap.Extractor.Len())
	assert.Equal(t, []string{"Docker", "Python", "Sql"},
		snap.Extractor.Extract("Experienced in Python and SQL, learning Docker."))
	assert.Equal(t, []string{skillsPath, jobsPath}, src.Paths())
}

func TestFileSourceMissingFiles(t *testing.T) {
	dir := t.TempDir()
	skillsPath := filepath.Join(dir, "skills.txt")
	jobsPath := filepath.Join(dir, "jobs.csv")

	snap, err := NewFileSource(skillsPath, jobsPath, true, testLogger(t)).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Vocabulary)
	assert.Empty(t, snap.Jobs)

	_, err = NewFileSource(skillsPath, jobsPath, false, testLogger(t)).Load(context.Background())
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeFileNotFound, appErr.Code)
}

func TestFileSourceBadCatalog(t *testing.T) {
	skillsPath, jobsPath := writeCatalogFiles(t, t.TempDir(), "go\n", "Job Role,Required Skills\n,go\n")

	_, err := NewFileSource(skillsPath, jobsPath, true, testLogger(t)).Load(context.Background())
	require.Error(t, err)
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.ErrCodeInvalidJobRecord, appErr.Code)
	assert.Equal(t, jobsPath, appErr.Context["path"])
}

func TestSQLiteSourceImportAndLoad(t *testing.T) {
	ctx := context.Background()
	src, err := OpenSQLite(ctx, filepath.Join(t.TempDir(), "nested", "catalog.db"))
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	empty, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty.Vocabulary)
	assert.Empty(t, empty.Jobs)

	vocab := []string{"python", "sql", "docker"}
	jobs := []types.JobRecord{
		{Role: "Data Engineer", RequiredSkills: []string{"python", "sql", "spark"}},
		{Role: "Backend Dev", RequiredSkills: []string{"docker", "python"}},
		{Role: "Greeter", RequiredSkills: []string{}},
	}
	require.NoError(t, src.Import(ctx, vocab, jobs))

	snap, err := src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", snap.Source)
	assert.Equal(t, vocab, snap.Vocabulary)
	assert.Equal(t, jobs, snap.Jobs)

	// A second import replaces rather than appends.
	require.NoError(t, src.Import(ctx, []string{"go"}, jobs[:1]))
	snap, err = src.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, snap.Vocabulary)
	assert.Len(t, snap.Jobs, 1)
}

func TestLoadFiles(t *testing.T) {
	skillsPath, jobsPath := writeCatalogFiles(t, t.TempDir(), "go\n", "Job Role,Required Skills\nDev,go\n")
	vocab, jobs, err := LoadFiles(context.Background(), skillsPath, jobsPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, vocab)
	assert.Equal(t, []types.JobRecord{{Role: "Dev", RequiredSkills: []string{"go"}}}, jobs)

	_, _, err = LoadFiles(context.Background(), skillsPath+".missing", jobsPath)
	assert.Error(t, err)
}
