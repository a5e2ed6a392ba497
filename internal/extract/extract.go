// Package extract turns uploaded résumé documents into plain text.
package extract

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"resumatch/internal/errors"
)

// TextExtractor returns the plain text of one document format.
type TextExtractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Func adapts a function to TextExtractor.
type Func func(ctx context.Context, data []byte) (string, error)

func (f Func) Extract(ctx context.Context, data []byte) (string, error) {
	return f(ctx, data)
}

// Registry dispatches documents to extractors by file extension.
type Registry struct {
	mu         sync.RWMutex
	extractors map[string]TextExtractor
	logger     *errors.Logger
}

// Option customizes a Registry.
type Option func(*Registry)

// WithOCR installs a fallback for PDFs that have no text layer.
func WithOCR(ocr TextExtractor) Option {
	return func(r *Registry) {
		r.extractors[".pdf"] = &PDFExtractor{Fallback: ocr, logger: r.logger}
	}
}

// NewRegistry creates a registry with the built-in formats.
func NewRegistry(logger *errors.Logger, opts ...Option) *Registry {
	r := &Registry{
		extractors: make(map[string]TextExtractor),
		logger:     logger,
	}

	plain := PlainTextExtractor{}
	html := HTMLExtractor{}
	r.extractors[".pdf"] = &PDFExtractor{logger: logger}
	r.extractors[".docx"] = DOCXExtractor{}
	r.extractors[".txt"] = plain
	r.extractors[".md"] = plain
	r.extractors[".html"] = html
	r.extractors[".htm"] = html

	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds or replaces the extractor for an extension such as ".rtf".
func (r *Registry) Register(ext string, e TextExtractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[normalizeExt(ext)] = e
}

// Supports reports whether filename has a registered extension.
func (r *Registry) Supports(filename string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.extractors[normalizeExt(filepath.Ext(filename))]
	return ok
}

// SupportedExtensions lists the registered extensions, sorted.
func (r *Registry) SupportedExtensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make([]string, 0, len(r.extractors))
	for ext := range r.extractors {
		exts = append(exts, ext)
	}
	slices.Sort(exts)
	return exts
}

// Extract picks the extractor for filename and runs it.
func (r *Registry) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	ext := normalizeExt(filepath.Ext(filename))

	r.mu.RLock()
	extractor, ok := r.extractors[ext]
	r.mu.RUnlock()
	if !ok {
		return "", errors.NewValidationError(errors.ErrCodeUnsupportedFile, "unsupported file type", nil).
			WithContext("extension", ext).
			WithContext("supported", r.SupportedExtensions())
	}

	text, err := extractor.Extract(ctx, data)
	if err != nil {
		if _, isApp := errors.AsAppError(err); isApp {
			return "", err
		}
		return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed, "failed to extract text", err).
			WithContext("extension", ext)
	}
	return text, nil
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// normalizeText trims trailing spaces on each line and collapses runs of
// blank lines.
func normalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\u00a0", " ")

	var b strings.Builder
	blank := 0
	for line := range strings.SplitSeq(s, "\n") {
		line = strings.TrimRight(line, " \t\r\f\v")
		if strings.TrimSpace(line) == "" {
			blank++
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
			if blank > 0 {
				b.WriteByte('\n')
			}
		}
		blank = 0
		b.WriteString(line)
	}
	return b.String()
}
