// Package utils holds small filesystem helpers shared by the CLI and the
// document pipeline.
package utils

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
)

// ValidateInputFile reports whether filename names a readable regular file.
func ValidateInputFile(filename string) error {
	if strings.TrimSpace(filename) == "" {
		return errors.New("filename cannot be empty")
	}

	info, err := os.Stat(filename)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("file does not exist: %s", filename)
	case err != nil:
		return fmt.Errorf("stat %s: %w", filename, err)
	case info.IsDir():
		return fmt.Errorf("%s is a directory, expected a document", filename)
	case !info.Mode().IsRegular():
		return fmt.Errorf("%s is not a regular file", filename)
	}

	f, err := os.Open(filename)
	if err != nil {
		return fmt.Errorf("open %s: %w", filename, err)
	}
	return f.Close()
}

// ValidateOutputFile makes sure the parent directory of filename exists.
// An empty name means stdout.
func ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil
	}
	dir := filepath.Dir(filename)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create output directory %s: %w", dir, err)
	}
	return nil
}

// Extension returns the lowercased extension of filename, dot included.
func Extension(filename string) string {
	return strings.ToLower(filepath.Ext(filename))
}

// HasExtension reports whether filename ends in one of exts (".pdf" form).
func HasExtension(filename string, exts []string) bool {
	return slices.Contains(exts, Extension(filename))
}

// FormatFileSize renders size in IEC units, e.g. "10 MiB".
func FormatFileSize(size int64) string {
	if size < 0 {
		size = 0
	}
	return humanize.IBytes(uint64(size))
}
