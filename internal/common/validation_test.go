package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumatch/internal/errors"
)

func TestNormalizeOutputFormat(t *testing.T) {
	supported := []string{"json", "text", "markdown"}

	tests := []struct {
		name      string
		format    string
		supported []string
		want      string
		wantErr   string
	}{
		{name: "json", format: "json", supported: supported, want: "json"},
		{name: "uppercase", format: "JSON", supported: supported, want: "json"},
		{name: "padded", format: " text ", supported: supported, want: "text"},
		{name: "md alias", format: "md", supported: supported, want: "markdown"},
		{name: "txt alias", format: "TXT", supported: supported, want: "text"},
		{
			name:      "xml",
			format:    "xml",
			supported: supported,
			want:      "xml",
			wantErr:   `INVALID_FORMAT: unsupported output format "xml", expected one of json, text, markdown`,
		},
		{name: "empty", format: "", supported: supported, want: "", wantErr: "unsupported output format"},
		{name: "no restriction", format: "yaml", supported: nil, want: "yaml"},
		{name: "alias not supported", format: "md", supported: []string{"json"}, want: "md", wantErr: "expected one of json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeOutputFormat(tt.format, tt.supported)
			assert.Equal(t, tt.want, got)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.True(t, errors.IsType(err, errors.ErrorTypeValidation))
		})
	}
}

func BenchmarkNormalizeOutputFormat(b *testing.B) {
	supported := []string{"json", "text", "markdown"}
	for b.Loop() {
		_, _ = NormalizeOutputFormat("Markdown", supported)
	}
}
