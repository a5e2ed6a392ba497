package common

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumatch/internal/errors"
	"resumatch/internal/types"
)

func TestFileProcessorReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cv.txt")
	require.NoError(t, os.WriteFile(path, []byte("Python SQL"), 0600))

	t.Run("reads content", func(t *testing.T) {
		data, err := NewFileProcessor(nil, 0).ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "Python SQL", string(data))
	})

	t.Run("size limit", func(t *testing.T) {
		_, err := NewFileProcessor(nil, 4).ReadFile(path)
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeFileTooLarge, appErr.Code)

		data, err := NewFileProcessor(nil, 10).ReadFile(path)
		require.NoError(t, err)
		assert.Len(t, data, 10)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := NewFileProcessor(nil, 0).ReadFile(filepath.Join(dir, "nope.pdf"))
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeFileNotFound, appErr.Code)
	})

	t.Run("validate rejects directories", func(t *testing.T) {
		_, err := NewFileProcessor(nil, 0).ValidateAndReadFile(dir, []string{".txt"})
		assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
	})
}

func TestOutputHandler(t *testing.T) {
	result := types.SkillsResult{Skills: []string{"Go", "Sql"}}

	t.Run("stdout", func(t *testing.T) {
		var buf bytes.Buffer
		h := NewOutputHandler(nil).WithWriter(&buf)
		require.NoError(t, h.HandleOutput(result, CommandConfig{OutputFormat: "text"}))
		assert.Equal(t, "Go\nSql\n", buf.String())
	})

	t.Run("file", func(t *testing.T) {
		out := filepath.Join(t.TempDir(), "out", "skills.json")
		h := NewOutputHandler(nil)
		require.NoError(t, h.HandleOutput(result, CommandConfig{OutputFile: out, OutputFormat: "json"}))

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"skills"`)
	})

	t.Run("unknown format", func(t *testing.T) {
		err := NewOutputHandler(nil).WithWriter(&bytes.Buffer{}).
			HandleOutput(result, CommandConfig{OutputFormat: "yaml"})
		appErr, ok := errors.AsAppError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeInvalidFormat, appErr.Code)
	})
}

func TestRunFileCommand(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "cv.md")
	output := filepath.Join(dir, "skills.txt")
	require.NoError(t, os.WriteFile(input, []byte("go developer"), 0600))

	cmd := FileCommand{
		Config:    CommandConfig{OutputFile: output, OutputFormat: "text"},
		Supported: []string{".md"},
	}
	err := RunFileCommand(context.Background(), nil, cmd, input,
		func(_ context.Context, filename string, data []byte) (types.SkillsResult, error) {
			return types.SkillsResult{Filename: filename, Skills: []string{strings.ToUpper(string(data[:2]))}}, nil
		})
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "GO\n", string(data))
}
