package extract

import (
	"context"
	"strings"
	"unicode/utf8"

	"resumatch/internal/errors"
)

// PlainTextExtractor accepts UTF-8 text, with or without a byte order mark.
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(_ context.Context, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", errors.NewExtractionError(errors.ErrCodeInvalidFormat, "text file is not valid UTF-8", nil)
	}
	return strings.TrimPrefix(string(data), "\ufeff"), nil
}
