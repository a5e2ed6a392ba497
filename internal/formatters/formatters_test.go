package formatters

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resumatch/internal/types"
)

func sampleAnalysis() types.AnalysisResult {
	return types.AnalysisResult{
		Filename:        "cv.pdf",
		ResumeText:      "Python and SQL",
		ExtractedSkills: []string{"Python", "Sql"},
		JobRecommendations: []types.Recommendation{
			{Role: "Data Analyst", MatchPercent: 66.66666666666667, MatchedSkills: []string{"python", "sql"}, MissingSkills: []string{"excel"}},
			{Role: "Designer", MatchPercent: 0, MatchedSkills: []string{}, MissingSkills: []string{"figma"}},
		},
	}
}

func TestFormatAnalysis(t *testing.T) {
	registry := NewFormatterRegistry()
	result := sampleAnalysis()

	t.Run("json", func(t *testing.T) {
		out, err := registry.Format(result, "json")
		require.NoError(t, err)

		var decoded map[string]any
		require.NoError(t, json.Unmarshal([]byte(out), &decoded))
		assert.Contains(t, decoded, "extracted_skills")
		assert.Contains(t, decoded, "job_recommendations")
		assert.Contains(t, decoded, "resume_text")
	})

	t.Run("text", func(t *testing.T) {
		out, err := registry.Format(result, "text")
		require.NoError(t, err)
		assert.Contains(t, out, "File: cv.pdf")
		assert.Contains(t, out, "- Python\n")
		assert.Contains(t, out, "1. Data Analyst (66.7% match)")
		assert.Contains(t, out, "Missing: excel")
		assert.Contains(t, out, "2. Designer (0.0% match)")
		assert.Contains(t, out, "Matched: none")
	})

	t.Run("markdown from pointer", func(t *testing.T) {
		out, err := registry.Format(&result, "markdown")
		require.NoError(t, err)
		assert.Contains(t, out, "## Extracted Skills")
		assert.Contains(t, out, "| 1 | Data Analyst | 66.7% | python, sql | excel |")
	})

	t.Run("empty catalog", func(t *testing.T) {
		empty := types.AnalysisResult{ExtractedSkills: []string{}}
		out, err := registry.Format(empty, "text")
		require.NoError(t, err)
		assert.Contains(t, out, "(none)")
		assert.Contains(t, out, "(no jobs in catalog)")
	})
}

func TestFormatSkills(t *testing.T) {
	registry := NewFormatterRegistry()
	result := types.SkillsResult{Filename: "cv.txt", Skills: []string{"C++", "Go"}}

	out, err := registry.Format(result, "text")
	require.NoError(t, err)
	assert.Equal(t, "C++\nGo\n", out)

	out, err = registry.Format(result, "markdown")
	require.NoError(t, err)
	assert.Equal(t, "# Skills: cv.txt\n\n- C++\n- Go\n", out)
}

func TestFormatCatalog(t *testing.T) {
	registry := NewFormatterRegistry()
	info := types.CatalogInfo{
		Source:         "sqlite",
		VocabularySize: 120,
		JobCount:       8,
		LoadedAt:       time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	out, err := registry.Format(info, "text")
	require.NoError(t, err)
	assert.Contains(t, out, "Source:     sqlite")
	assert.Contains(t, out, "120 skills")
	assert.Contains(t, out, "2025-01-02T03:04:05Z")

	out, err = registry.Format(info, "markdown")
	require.NoError(t, err)
	assert.Contains(t, out, "| Jobs | 8 roles |")
}

func TestFormatUnknown(t *testing.T) {
	registry := NewFormatterRegistry()

	_, err := registry.Format(sampleAnalysis(), "xml")
	assert.EqualError(t, err, "no formatter found for format 'xml' and type 'AnalysisResult'")

	_, err = registry.Format(map[string]int{"a": 1}, "text")
	assert.Error(t, err)

	out, err := registry.Format(map[string]int{"a": 1}, "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, out)
}

func TestGetSupportedFormats(t *testing.T) {
	assert.Equal(t, []string{"json", "markdown", "text"}, NewFormatterRegistry().GetSupportedFormats())
}

func TestEscapeCell(t *testing.T) {
	assert.Equal(t, `a\|b`, escapeCell("a|b"))
}
