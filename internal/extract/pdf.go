package extract

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"resumatch/internal/errors"
)

// PDFExtractor reads the text layer of a PDF, one page per line block.
// When the text layer is empty and Fallback is set, the document is
// handed to Fallback (typically OCR).
type PDFExtractor struct {
	Fallback TextExtractor
	logger   *errors.Logger
}

func (p *PDFExtractor) Extract(ctx context.Context, data []byte) (string, error) {
	text, err := pdfText(data)
	if err != nil {
		if p.Fallback == nil {
			return "", err
		}
		p.warn("PDF text layer unreadable, using OCR fallback", "error", err.Error())
		return p.Fallback.Extract(ctx, data)
	}

	if strings.TrimSpace(text) == "" && p.Fallback != nil {
		p.warn("PDF has no text layer, using OCR fallback", "size", len(data))
		return p.Fallback.Extract(ctx, data)
	}
	return text, nil
}

func (p *PDFExtractor) warn(msg string, args ...any) {
	if p.logger != nil {
		p.logger.Warn(msg, args...)
	}
}

// pdfText concatenates the plain text of every page, each followed by a
// newline. The pdf reader panics on some malformed inputs; that is
// reported as an extraction error.
func pdfText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.NewExtractionError(errors.ErrCodeInvalidFormat, "malformed pdf", fmt.Errorf("%v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", errors.NewExtractionError(errors.ErrCodeInvalidFormat, "document is not a readable pdf", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", errors.NewExtractionError(errors.ErrCodeExtractionFailed, "failed to read pdf page", err).
				WithContext("page", i)
		}
		if pageText != "" {
			b.WriteString(pageText)
			b.WriteByte('\n')
		}
	}
	return b.String(), nil
}
