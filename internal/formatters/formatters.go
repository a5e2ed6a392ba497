package formatters

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"resumatch/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "AnalysisResult", &AnalysisTextFormatter{})
	registry.RegisterFormatter("markdown", "AnalysisResult", &AnalysisMarkdownFormatter{})
	registry.RegisterFormatter("text", "SkillsResult", &SkillsTextFormatter{})
	registry.RegisterFormatter("markdown", "SkillsResult", &SkillsMarkdownFormatter{})
	registry.RegisterFormatter("text", "CatalogInfo", &CatalogTextFormatter{})
	registry.RegisterFormatter("markdown", "CatalogInfo", &CatalogTextFormatter{markdown: true})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	data = deref(data)
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats, sorted
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	slices.Sort(formats)
	return formats
}

func deref(data any) any {
	switch v := data.(type) {
	case *types.AnalysisResult:
		if v != nil {
			return *v
		}
	case *types.SkillsResult:
		if v != nil {
			return *v
		}
	case *types.CatalogInfo:
		if v != nil {
			return *v
		}
	}
	return data
}

func getDataType(data any) string {
	switch data.(type) {
	case types.AnalysisResult:
		return "AnalysisResult"
	case types.SkillsResult:
		return "SkillsResult"
	case types.CatalogInfo:
		return "CatalogInfo"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// AnalysisTextFormatter handles text formatting for analysis results
type AnalysisTextFormatter struct{}

func (atf *AnalysisTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== RESUME ANALYSIS ===\n")
	if result.Filename != "" {
		fmt.Fprintf(&output, "File: %s\n", result.Filename)
	}
	output.WriteString("\n")

	output.WriteString("=== EXTRACTED SKILLS ===\n")
	writeSkillList(&output, result.ExtractedSkills, "- ")
	output.WriteString("\n")

	output.WriteString("=== JOB RECOMMENDATIONS ===\n")
	if len(result.JobRecommendations) == 0 {
		output.WriteString("(no jobs in catalog)\n")
	}
	for i, rec := range result.JobRecommendations {
		fmt.Fprintf(&output, "%d. %s (%.1f%% match)\n", i+1, rec.Role, rec.MatchPercent)
		fmt.Fprintf(&output, "   Matched: %s\n", joinOrNone(rec.MatchedSkills))
		fmt.Fprintf(&output, "   Missing: %s\n", joinOrNone(rec.MissingSkills))
	}

	return output.String(), nil
}

func (atf *AnalysisTextFormatter) SupportedType() string {
	return "AnalysisResult"
}

// AnalysisMarkdownFormatter handles markdown formatting for analysis results
type AnalysisMarkdownFormatter struct{}

func (amf *AnalysisMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.AnalysisResult)
	if !ok {
		return "", fmt.Errorf("expected AnalysisResult, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Résumé Analysis\n\n")
	if result.Filename != "" {
		fmt.Fprintf(&output, "**File:** %s\n\n", result.Filename)
	}

	output.WriteString("## Extracted Skills\n\n")
	writeSkillList(&output, result.ExtractedSkills, "- ")
	output.WriteString("\n")

	output.WriteString("## Job Recommendations\n\n")
	if len(result.JobRecommendations) == 0 {
		output.WriteString("_No jobs in catalog._\n")
		return output.String(), nil
	}
	output.WriteString("| Rank | Role | Match | Matched skills | Missing skills |\n")
	output.WriteString("|---|---|---|---|---|\n")
	for i, rec := range result.JobRecommendations {
		fmt.Fprintf(&output, "| %d | %s | %.1f%% | %s | %s |\n",
			i+1, escapeCell(rec.Role), rec.MatchPercent,
			escapeCell(joinOrNone(rec.MatchedSkills)), escapeCell(joinOrNone(rec.MissingSkills)))
	}

	return output.String(), nil
}

func (amf *AnalysisMarkdownFormatter) SupportedType() string {
	return "AnalysisResult"
}

// SkillsTextFormatter prints one skill per line
type SkillsTextFormatter struct{}

func (stf *SkillsTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.SkillsResult)
	if !ok {
		return "", fmt.Errorf("expected SkillsResult, got %T", data)
	}
	var output strings.Builder
	writeSkillList(&output, result.Skills, "")
	return output.String(), nil
}

func (stf *SkillsTextFormatter) SupportedType() string {
	return "SkillsResult"
}

// SkillsMarkdownFormatter handles markdown formatting for skill lists
type SkillsMarkdownFormatter struct{}

func (smf *SkillsMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.SkillsResult)
	if !ok {
		return "", fmt.Errorf("expected SkillsResult, got %T", data)
	}

	var output strings.Builder
	output.WriteString("# Skills")
	if result.Filename != "" {
		fmt.Fprintf(&output, ": %s", result.Filename)
	}
	output.WriteString("\n\n")
	writeSkillList(&output, result.Skills, "- ")
	return output.String(), nil
}

func (smf *SkillsMarkdownFormatter) SupportedType() string {
	return "SkillsResult"
}

// CatalogTextFormatter summarizes the loaded catalog
type CatalogTextFormatter struct {
	markdown bool
}

func (ctf *CatalogTextFormatter) Format(data any) (string, error) {
	info, ok := data.(types.CatalogInfo)
	if !ok {
		return "", fmt.Errorf("expected CatalogInfo, got %T", data)
	}

	rows := [][2]string{
		{"Source", info.Source},
		{"Vocabulary", fmt.Sprintf("%d skills", info.VocabularySize)},
		{"Jobs", fmt.Sprintf("%d roles", info.JobCount)},
		{"Loaded", info.LoadedAt.Format(time.RFC3339)},
	}

	var output strings.Builder
	if ctf.markdown {
		output.WriteString("# Catalog\n\n| Field | Value |\n|---|---|\n")
		for _, row := range rows {
			fmt.Fprintf(&output, "| %s | %s |\n", row[0], escapeCell(row[1]))
		}
		return output.String(), nil
	}

	output.WriteString("=== CATALOG ===\n")
	for _, row := range rows {
		fmt.Fprintf(&output, "%-11s %s\n", row[0]+":", row[1])
	}
	return output.String(), nil
}

func (ctf *CatalogTextFormatter) SupportedType() string {
	return "CatalogInfo"
}

func writeSkillList(b *strings.Builder, skills []string, bullet string) {
	if len(skills) == 0 {
		b.WriteString("(none)\n")
		return
	}
	for _, s := range skills {
		b.WriteString(bullet)
		b.WriteString(s)
		b.WriteByte('\n')
	}
}

func joinOrNone(skills []string) string {
	if len(skills) == 0 {
		return "none"
	}
	return strings.Join(skills, ", ")
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// GlobalRegistry is the default formatter registry
var GlobalRegistry = NewFormatterRegistry()
