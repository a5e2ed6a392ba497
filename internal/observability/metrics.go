package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"resumatch/internal/catalog"
)

// Metrics holds the custom instruments. A nil *Metrics records nothing.
type Metrics struct {
	// Business metrics
	ResumesAnalyzed  metric.Int64Counter
	AnalysisDuration metric.Float64Histogram
	SkillsExtracted  metric.Int64Histogram
	MatchDuration    metric.Float64Histogram

	// Extraction metrics
	OCRRequests metric.Int64Counter
	OCRDuration metric.Float64Histogram

	// Catalog metrics
	CatalogReloads    metric.Int64Counter
	CatalogVocabulary metric.Int64Gauge
	CatalogJobs       metric.Int64Gauge

	// Rate limiting metrics
	RateLimitHits metric.Int64Counter
}

// NewMetrics creates every instrument on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	if m.ResumesAnalyzed, err = meter.Int64Counter(
		"resumatch_resumes_analyzed_total",
		metric.WithDescription("Total number of résumés analyzed"),
	); err != nil {
		return nil, fmt.Errorf("failed to create resumes analyzed metric: %w", err)
	}

	if m.AnalysisDuration, err = meter.Float64Histogram(
		"resumatch_analysis_duration_seconds",
		metric.WithDescription("Time spent analyzing a résumé end to end"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create analysis duration metric: %w", err)
	}

	if m.SkillsExtracted, err = meter.Int64Histogram(
		"resumatch_skills_extracted",
		metric.WithDescription("Number of distinct skills found per résumé"),
	); err != nil {
		return nil, fmt.Errorf("failed to create skills extracted metric: %w", err)
	}

	if m.MatchDuration, err = meter.Float64Histogram(
		"resumatch_match_duration_seconds",
		metric.WithDescription("Time spent ranking the job catalog"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create match duration metric: %w", err)
	}

	if m.OCRRequests, err = meter.Int64Counter(
		"resumatch_ocr_requests_total",
		metric.WithDescription("Total number of OCR fallback requests"),
	); err != nil {
		return nil, fmt.Errorf("failed to create OCR request metric: %w", err)
	}

	if m.OCRDuration, err = meter.Float64Histogram(
		"resumatch_ocr_duration_seconds",
		metric.WithDescription("Time spent in OCR fallback requests"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("failed to create OCR duration metric: %w", err)
	}

	if m.CatalogReloads, err = meter.Int64Counter(
		"resumatch_catalog_reloads_total",
		metric.WithDescription("Total number of catalog reload attempts"),
	); err != nil {
		return nil, fmt.Errorf("failed to create catalog reload metric: %w", err)
	}

	if m.CatalogVocabulary, err = meter.Int64Gauge(
		"resumatch_catalog_vocabulary_size",
		metric.WithDescription("Number of vocabulary entries in the served catalog"),
	); err != nil {
		return nil, fmt.Errorf("failed to create catalog vocabulary metric: %w", err)
	}

	if m.CatalogJobs, err = meter.Int64Gauge(
		"resumatch_catalog_jobs",
		metric.WithDescription("Number of job records in the served catalog"),
	); err != nil {
		return nil, fmt.Errorf("failed to create catalog jobs metric: %w", err)
	}

	if m.RateLimitHits, err = meter.Int64Counter(
		"resumatch_rate_limit_hits_total",
		metric.WithDescription("Total number of rate limit hits"),
	); err != nil {
		return nil, fmt.Errorf("failed to create rate limit hits metric: %w", err)
	}

	return m, nil
}

// RecordAnalysis records one résumé analysis. origin is "upload", "text"
// or "cli".
func (m *Metrics) RecordAnalysis(ctx context.Context, origin string, skills int, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("origin", origin),
		attribute.Bool("success", err == nil),
	)
	m.ResumesAnalyzed.Add(ctx, 1, attrs)
	m.AnalysisDuration.Record(ctx, duration.Seconds(), attrs)
	if err == nil {
		m.SkillsExtracted.Record(ctx, int64(skills), metric.WithAttributes(attribute.String("origin", origin)))
	}
}

// RecordMatch records the time spent ranking the catalog.
func (m *Metrics) RecordMatch(ctx context.Context, jobs int, duration time.Duration) {
	if m == nil {
		return
	}
	m.MatchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attribute.Int("catalog.jobs", jobs)))
}

// RecordOCR records one OCR fallback call.
func (m *Metrics) RecordOCR(ctx context.Context, duration time.Duration, err error) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("success", err == nil))
	m.OCRRequests.Add(ctx, 1, attrs)
	m.OCRDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRateLimitHit records a rejected request. limiter is "ip" or "api_key".
func (m *Metrics) RecordRateLimitHit(ctx context.Context, limiter string) {
	if m == nil {
		return
	}
	m.RateLimitHits.Add(ctx, 1, metric.WithAttributes(attribute.String("limiter", limiter)))
}

// CatalogReloadHook returns a hook for catalog.Store that counts reloads
// and tracks the size of the served catalog.
func (m *Metrics) CatalogReloadHook() catalog.ReloadHook {
	return func(ctx context.Context, snapshot *catalog.Snapshot, _ time.Duration, err error) {
		if m == nil {
			return
		}
		m.CatalogReloads.Add(ctx, 1, metric.WithAttributes(attribute.Bool("success", err == nil)))
		if err != nil || snapshot == nil {
			return
		}
		source := metric.WithAttributes(attribute.String("source", snapshot.Source))
		m.CatalogVocabulary.Record(ctx, int64(len(snapshot.Vocabulary)), source)
		m.CatalogJobs.Record(ctx, int64(len(snapshot.Jobs)), source)
	}
}
