package extract

import (
	"context"
	"crypto/rand"
	stderrors "errors"
	"math"
	"math/big"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/api/googleapi"
	"google.golang.org/genai"

	"resumatch/internal/config"
	"resumatch/internal/errors"
	"resumatch/internal/observability"
)

const ocrInstruction = "Transcribe all readable text in this résumé document. " +
	"Return only the text, in reading order, one line per line of the document. " +
	"Do not summarize, translate, or add commentary."

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiOCR transcribes scanned documents with a Gemini model.
type GeminiOCR struct {
	models     contentGenerator
	model      string
	mimeType   string
	timeout    time.Duration
	maxRetries int
	breaker    *CircuitBreaker
	logger     *errors.Logger
	metrics    *observability.Metrics
	backoff    func(attempt int) time.Duration
}

// NewGeminiOCR creates an OCR extractor for PDF documents.
func NewGeminiOCR(ctx context.Context, cfg config.OCRConfig, logger *errors.Logger) (*GeminiOCR, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.NewExtractionError(errors.ErrCodeOCRServiceFailed, "failed to create Gemini client", err)
	}
	return newGeminiOCR(client.Models, cfg, logger), nil
}

func newGeminiOCR(models contentGenerator, cfg config.OCRConfig, logger *errors.Logger) *GeminiOCR {
	return &GeminiOCR{
		models:     models,
		model:      cfg.Model,
		mimeType:   "application/pdf",
		timeout:    cfg.Timeout,
		maxRetries: max(cfg.MaxRetries, 0),
		breaker:    NewCircuitBreaker("gemini-ocr", cfg.CircuitBreaker, logger),
		logger:     logger,
		backoff:    jitteredBackoff,
	}
}

// WithMetrics records every OCR call on m.
func (g *GeminiOCR) WithMetrics(m *observability.Metrics) *GeminiOCR {
	g.metrics = m
	return g
}

// Stats exposes the circuit breaker state.
func (g *GeminiOCR) Stats() map[string]any {
	return g.breaker.Stats()
}

func (g *GeminiOCR) Extract(ctx context.Context, data []byte) (string, error) {
	ctx, span := otel.Tracer("resumatch.extract").Start(ctx, "gemini.ocr")
	defer span.End()
	span.SetAttributes(
		attribute.String("ocr.model", g.model),
		attribute.Int("document.size", len(data)),
	)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, g.mimeType),
			genai.NewPartFromText(ocrInstruction),
		}, genai.RoleUser),
	}
	genCfg := &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)}

	start := time.Now()
	text, err := g.breaker.Execute(func() (string, error) {
		return g.withRetry(ctx, func() (string, error) {
			resp, err := g.models.GenerateContent(ctx, g.model, contents, genCfg)
			if err != nil {
				return "", err
			}
			return resp.Text(), nil
		})
	})
	g.metrics.RecordOCR(ctx, time.Since(start), err)
	if err != nil {
		span.RecordError(err)
		span.SetAttributes(attribute.Bool("success", false))
		return "", errors.NewExtractionError(errors.ErrCodeOCRServiceFailed, "OCR transcription failed", err)
	}

	text = strings.TrimSpace(text)
	span.SetAttributes(attribute.Bool("success", true), attribute.Int("text.length", len(text)))
	if text == "" {
		return "", errors.NewExtractionError(errors.ErrCodeEmptyDocument, "OCR found no text in document", nil)
	}
	return text, nil
}

func (g *GeminiOCR) withRetry(ctx context.Context, fn func() (string, error)) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		if attempt > 0 {
			if g.logger != nil {
				g.logger.Warn("Retrying OCR request",
					"attempt", attempt,
					"max_retries", g.maxRetries,
					"error", lastErr.Error())
			}
			select {
			case <-time.After(g.backoff(attempt)):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		text, err := fn()
		if err == nil {
			return text, nil
		}
		lastErr = err
		if !isRetryableError(err) {
			break
		}
	}
	return "", lastErr
}

// jitteredBackoff doubles from one second with up to 10% jitter, capped at 30s.
func jitteredBackoff(attempt int) time.Duration {
	base := time.Duration(math.Pow(2, float64(attempt-1))) * time.Second
	jitter := time.Duration(0)
	if n, err := rand.Int(rand.Reader, big.NewInt(int64(float64(base)*0.1)+1)); err == nil {
		jitter = time.Duration(n.Int64())
	}
	return min(base+jitter, 30*time.Second)
}

func isRetryableError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if stderrors.As(err, &netErr) {
		return true
	}

	code := 0
	var apiErr *googleapi.Error
	var genaiErr genai.APIError
	switch {
	case stderrors.As(err, &apiErr):
		code = apiErr.Code
	case stderrors.As(err, &genaiErr):
		code = genaiErr.Code
	}

	switch code {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}
