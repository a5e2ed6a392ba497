// Package matching ranks job records against an extracted skill set.
package matching

import (
	"cmp"
	"slices"
	"strings"

	apperrors "resumatch/internal/errors"
	"resumatch/internal/types"
)

// DefaultLimit is the number of recommendations returned when the caller
// does not ask for a specific count.
const DefaultLimit = 5

// Match scores every job against the extracted skills and returns the best
// limit of them, highest match percent first. Jobs with equal percent keep
// their catalog order. A limit <= 0 selects DefaultLimit.
//
// A job with a blank role fails the whole call; nothing is returned.
func Match(extracted []string, jobs []types.JobRecord, limit int) ([]types.Recommendation, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	if err := ValidateJobs(jobs); err != nil {
		return nil, err
	}

	have := make(map[string]struct{}, len(extracted))
	for _, s := range extracted {
		have[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	recs := make([]types.Recommendation, 0, len(jobs))
	for _, job := range jobs {
		recs = append(recs, score(job, have))
	}

	slices.SortStableFunc(recs, func(a, b types.Recommendation) int {
		return cmp.Compare(b.MatchPercent, a.MatchPercent)
	})

	if len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func score(job types.JobRecord, have map[string]struct{}) types.Recommendation {
	rec := types.Recommendation{
		Role:          job.Role,
		MatchedSkills: []string{},
		MissingSkills: []string{},
	}

	required := 0
	for _, raw := range job.RequiredSkills {
		skill := strings.ToLower(strings.TrimSpace(raw))
		if skill == "" {
			continue
		}
		required++
		if _, ok := have[skill]; ok {
			rec.MatchedSkills = append(rec.MatchedSkills, skill)
		} else {
			rec.MissingSkills = append(rec.MissingSkills, skill)
		}
	}

	if required > 0 {
		rec.MatchPercent = 100 * float64(len(rec.MatchedSkills)) / float64(required)
	}
	return rec
}

// ValidateJobs returns a validation error for the first job whose role is
// blank.
func ValidateJobs(jobs []types.JobRecord) error {
	for i, job := range jobs {
		if err := job.Validate(); err != nil {
			return apperrors.NewValidationError(apperrors.ErrCodeInvalidJobRecord,
				"job record has no role", err).WithContext("job_index", i)
		}
	}
	return nil
}
