package catalog

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	apperrors "resumatch/internal/errors"
	"resumatch/internal/types"
)

// Column headers of the job catalog CSV.
const (
	ColumnRole   = "Job Role"
	ColumnSkills = "Required Skills"
)

// SkillSeparator joins required skills inside one catalog field.
const SkillSeparator = ";"

// ParseVocabulary reads one skill per line. Lines are trimmed and
// lower-cased; blank lines are ignored.
func ParseVocabulary(r io.Reader) ([]string, error) {
	var vocab []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if line == "" {
			continue
		}
		vocab = append(vocab, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to read skill vocabulary", err)
	}
	if vocab == nil {
		vocab = []string{}
	}
	return vocab, nil
}

// SplitSkills splits a semicolon-joined skills field. Elements are trimmed
// and empty elements dropped. An empty field yields an empty list.
func SplitSkills(field string) []string {
	skills := []string{}
	for part := range strings.SplitSeq(field, SkillSeparator) {
		if s := strings.TrimSpace(part); s != "" {
			skills = append(skills, s)
		}
	}
	return skills
}

// JoinSkills is the inverse of SplitSkills.
func JoinSkills(skills []string) string {
	return strings.Join(skills, SkillSeparator)
}

// ParseJobsCSV reads a job catalog with a header row naming the "Job Role"
// and "Required Skills" columns. A row with a blank role fails the whole
// parse. A missing skills column or field is read as no required skills.
func ParseJobsCSV(r io.Reader) ([]types.JobRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []types.JobRecord{}, nil
	}
	if err != nil {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "failed to read job catalog header", err)
	}

	roleIdx, skillsIdx := -1, -1
	for i, name := range header {
		switch strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")) {
		case ColumnRole:
			roleIdx = i
		case ColumnSkills:
			skillsIdx = i
		}
	}
	if roleIdx < 0 {
		return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed,
			fmt.Sprintf("job catalog has no %q column", ColumnRole), nil)
	}

	jobs := []types.JobRecord{}
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperrors.NewCatalogError(apperrors.ErrCodeCatalogLoadFailed, "malformed job catalog row", err).
				WithContext("line", line)
		}
		if isBlankRecord(record) {
			continue
		}

		job := types.JobRecord{RequiredSkills: []string{}}
		if roleIdx < len(record) {
			job.Role = strings.TrimSpace(record[roleIdx])
		}
		if skillsIdx >= 0 && skillsIdx < len(record) {
			job.RequiredSkills = SplitSkills(record[skillsIdx])
		}
		if err := job.Validate(); err != nil {
			return nil, apperrors.NewCatalogError(apperrors.ErrCodeInvalidJobRecord, "job catalog row has no role", err).
				WithContext("line", line)
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

func isBlankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// WriteJobsCSV writes jobs in the format ParseJobsCSV reads.
func WriteJobsCSV(w io.Writer, jobs []types.JobRecord) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{ColumnRole, ColumnSkills}); err != nil {
		return err
	}
	for _, job := range jobs {
		if err := writer.Write([]string{job.Role, JoinSkills(job.RequiredSkills)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
