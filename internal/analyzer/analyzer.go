// Package analyzer ties text extraction, skill extraction and job matching
// together over one catalog snapshot.
package analyzer

import (
	"context"
	"strings"
	"time"
	"unicode/utf8"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"resumatch/internal/catalog"
	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/extract"
	"resumatch/internal/matching"
	"resumatch/internal/observability"
	"resumatch/internal/types"
)

// Origins reported in metrics.
const (
	OriginUpload = "upload"
	OriginText   = "text"
	OriginCLI    = "cli"
)

// Service analyzes résumés against the current catalog.
type Service struct {
	extractors    *extract.Registry
	store         *catalog.Store
	logger        *errors.Logger
	metrics       *observability.Metrics
	tracer        trace.Tracer
	previewLength int
	defaultLimit  int
	maxLimit      int
}

// Option customizes a Service.
type Option func(*Service)

// WithMetrics records analyses on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithTracer traces analyses with t.
func WithTracer(t trace.Tracer) Option {
	return func(s *Service) {
		if t != nil {
			s.tracer = t
		}
	}
}

// New creates a Service. cfg supplies the preview length and limit bounds.
func New(extractors *extract.Registry, store *catalog.Store, cfg *config.Config, logger *errors.Logger, opts ...Option) *Service {
	s := &Service{
		extractors:   extractors,
		store:        store,
		logger:       logger,
		tracer:       noop.NewTracerProvider().Tracer("resumatch.analyzer"),
		defaultLimit: matching.DefaultLimit,
	}
	if cfg != nil {
		s.previewLength = cfg.App.PreviewLength
		if cfg.Matching.DefaultLimit > 0 {
			s.defaultLimit = cfg.Matching.DefaultLimit
		}
		s.maxLimit = cfg.Matching.MaxLimit
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limit maps a requested recommendation count onto the configured bounds.
func (s *Service) Limit(requested int) int {
	limit := requested
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if s.maxLimit > 0 && limit > s.maxLimit {
		limit = s.maxLimit
	}
	return limit
}

// Supports reports whether filename has an extractable format.
func (s *Service) Supports(filename string) bool {
	return s.extractors.Supports(filename)
}

// SupportedExtensions lists the accepted file extensions.
func (s *Service) SupportedExtensions() []string {
	return s.extractors.SupportedExtensions()
}

// ExtractText returns the plain text of an uploaded document.
func (s *Service) ExtractText(ctx context.Context, filename string, data []byte) (string, error) {
	ctx, span := s.tracer.Start(ctx, "analyzer.extract_text")
	defer span.End()
	span.SetAttributes(
		attribute.String("document.filename", filename),
		attribute.Int("document.size", len(data)),
	)

	text, err := s.extractors.Extract(ctx, filename, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "text extraction failed")
		return "", err
	}
	span.SetAttributes(attribute.Int("text.length", len(text)))
	return text, nil
}

// Analyze extracts the text of a document, finds its skills and ranks the
// catalog against them.
func (s *Service) Analyze(ctx context.Context, filename string, data []byte, limit int) (*types.AnalysisResult, error) {
	start := time.Now()
	text, err := s.ExtractText(ctx, filename, data)
	if err != nil {
		s.metrics.RecordAnalysis(ctx, OriginUpload, 0, time.Since(start), err)
		return nil, err
	}

	result, err := s.analyze(ctx, text, limit)
	s.metrics.RecordAnalysis(ctx, OriginUpload, skillCount(result), time.Since(start), err)
	if err != nil {
		return nil, err
	}
	result.Filename = filename
	return result, nil
}

// AnalyzeText runs skill extraction and matching on text that is already
// plain. origin labels the call in metrics.
func (s *Service) AnalyzeText(ctx context.Context, origin, text string, limit int) (*types.AnalysisResult, error) {
	start := time.Now()
	result, err := s.analyze(ctx, text, limit)
	s.metrics.RecordAnalysis(ctx, origin, skillCount(result), time.Since(start), err)
	return result, err
}

func (s *Service) analyze(ctx context.Context, text string, limit int) (*types.AnalysisResult, error) {
	ctx, span := s.tracer.Start(ctx, "analyzer.analyze")
	defer span.End()

	snapshot, err := s.store.Snapshot()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "catalog unavailable")
		return nil, err
	}

	found := snapshot.Extractor.Extract(text)
	recs, err := s.match(ctx, snapshot, found, limit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "matching failed")
		return nil, err
	}

	span.SetAttributes(
		attribute.Int("skills.extracted", len(found)),
		attribute.Int("recommendations", len(recs)),
		attribute.String("catalog.source", snapshot.Source),
	)
	if strings.TrimSpace(text) == "" {
		s.logger.Warn("Analyzed document has no text")
	}

	return &types.AnalysisResult{
		ResumeText:         Preview(text, s.previewLength),
		ExtractedSkills:    found,
		JobRecommendations: recs,
	}, nil
}

// ExtractSkills returns the skills found in an uploaded document.
func (s *Service) ExtractSkills(ctx context.Context, filename string, data []byte) (*types.SkillsResult, error) {
	text, err := s.ExtractText(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	result, err := s.SkillsFromText(text)
	if err != nil {
		return nil, err
	}
	result.Filename = filename
	return result, nil
}

// SkillsFromText returns the skills found in plain text.
func (s *Service) SkillsFromText(text string) (*types.SkillsResult, error) {
	snapshot, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return &types.SkillsResult{Skills: snapshot.Extractor.Extract(text)}, nil
}

// MatchSkills ranks the catalog against a caller-supplied skill list,
// bypassing extraction.
func (s *Service) MatchSkills(ctx context.Context, skills []string, limit int) ([]types.Recommendation, error) {
	snapshot, err := s.store.Snapshot()
	if err != nil {
		return nil, err
	}
	return s.match(ctx, snapshot, skills, limit)
}

func (s *Service) match(ctx context.Context, snapshot *catalog.Snapshot, skills []string, limit int) ([]types.Recommendation, error) {
	start := time.Now()
	recs, err := matching.Match(skills, snapshot.Jobs, s.Limit(limit))
	s.metrics.RecordMatch(ctx, len(snapshot.Jobs), time.Since(start))
	return recs, err
}

// Catalog describes the snapshot currently being served.
func (s *Service) Catalog() (types.CatalogInfo, error) {
	snapshot, err := s.store.Snapshot()
	if err != nil {
		return types.CatalogInfo{}, err
	}
	return snapshot.Info(), nil
}

// Preview returns the first n runes of text. n <= 0 returns text unchanged.
func Preview(text string, n int) string {
	if n <= 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}

func skillCount(r *types.AnalysisResult) int {
	if r == nil {
		return 0
	}
	return len(r.ExtractedSkills)
}
