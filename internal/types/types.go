package types

import "time"

// JobRecord is one catalog entry: a role and the skills it requires.
type JobRecord struct {
	Role           string   `json:"role" validate:"notblank"`
	RequiredSkills []string `json:"required_skills"`
}

// Recommendation is a job record scored against an extracted skill set.
type Recommendation struct {
	Role          string   `json:"role"`
	MatchPercent  float64  `json:"match_percent"`
	MatchedSkills []string `json:"matched_skills"`
	MissingSkills []string `json:"missing_skills"`
}

// AnalysisResult is the full output of analyzing one résumé
type AnalysisResult struct {
	RequestID          string           `json:"request_id,omitempty"`
	Filename           string           `json:"filename,omitempty"`
	ResumeText         string           `json:"resume_text"`
	ExtractedSkills    []string         `json:"extracted_skills"`
	JobRecommendations []Recommendation `json:"job_recommendations"`
}

// SkillsResult is the output of skill extraction without matching
type SkillsResult struct {
	Filename string   `json:"filename,omitempty"`
	Skills   []string `json:"skills"`
}

// CatalogInfo describes the catalog snapshot currently being served
type CatalogInfo struct {
	Source         string    `json:"source"`
	VocabularySize int       `json:"vocabulary_size"`
	JobCount       int       `json:"job_count"`
	LoadedAt       time.Time `json:"loaded_at"`
}

// MatchRequest is the JSON body of POST /api/match
type MatchRequest struct {
	Text   string   `json:"text"`
	Skills []string `json:"skills,omitempty"`
	Limit  int      `json:"limit,omitempty" validate:"gte=0"`
}

// SkillsRequest is the JSON body of POST /api/skills
type SkillsRequest struct {
	Text string `json:"text" validate:"required"`
}
