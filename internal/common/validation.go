package common

import (
	"fmt"
	"slices"
	"strings"

	"resumatch/internal/errors"
)

var formatAliases = map[string]string{
	"md":  "markdown",
	"txt": "text",
}

// NormalizeOutputFormat lowercases format, resolves short aliases and
// checks the result against supported. An empty supported list accepts
// any format.
func NormalizeOutputFormat(format string, supported []string) (string, error) {
	f := strings.ToLower(strings.TrimSpace(format))
	if alias, ok := formatAliases[f]; ok {
		f = alias
	}
	if len(supported) == 0 || slices.Contains(supported, f) {
		return f, nil
	}
	return format, errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format %q, expected one of %s", format, strings.Join(supported, ", ")), nil).
		WithContext("supported_formats", supported)
}
