// Package types provides type definitions for structured data used throughout the resume-matcher system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// ValidationRecord is the outcome of checking one term against the skills/occupations reference.
// Records are values; callers must not mutate Suggestions of a shared record.
type ValidationRecord struct {
	Term            string   `json:"term"`
	IsValidated     bool     `json:"isValidated"`
	Confidence      float64  `json:"confidence"`
	MatchedCategory Category `json:"matchedCategory"`
	CanonicalTitle  string   `json:"canonicalTitle,omitempty"`
	Suggestions     []string `json:"suggestions"`
}

// Clone returns a copy that shares no memory with r.
func (r ValidationRecord) Clone() ValidationRecord {
	r.Suggestions = append([]string{}, r.Suggestions...)
	return r
}

// DimensionScore is the match quality for one category.
type DimensionScore struct {
	Score           float64  `json:"score"`
	MatchedCount    int      `json:"matchedCount"`
	TotalCount      int      `json:"totalCount"`
	MatchedTerms    []string `json:"matchedTerms"`
	MissingTerms    []string `json:"missingTerms"`
	QualityScore    float64  `json:"qualityScore"`
	ImportanceScore float64  `json:"importanceScore"`
}

// ScoringWeights assigns an aggregation weight to each category.
// Weights are normalized over participating categories at aggregation time.
type ScoringWeights map[Category]float64

// DefaultScoringWeights returns the stock weighting.
func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{
		HardSkills:     0.5,
		JobTitles:      0.25,
		SoftSkills:     0.15,
		Certifications: 0.05,
		Tools:          0.05,
	}
}

// Level is an ordered label for a final score.
type Level string

// Levels from best to worst.
const (
	LevelExcellent Level = "Excellent"
	LevelGood      Level = "Good"
	LevelFair      Level = "Fair"
	LevelPoor      Level = "Poor"
	LevelVeryPoor  Level = "Very Poor"
)

// QualityMetrics summarises scan quality as percentages rounded to one decimal.
type QualityMetrics struct {
	EscoValidationRate float64 `json:"escoValidationRate"`
	KeywordDensity     float64 `json:"keywordDensity"`
	AverageQuality     float64 `json:"averageQuality"`
}

// ScoreResult is the final compatibility score for a resume against a job description.
type ScoreResult struct {
	ScanID         string                      `json:"scanId,omitempty"`
	PerCategory    map[Category]DimensionScore `json:"perCategory"`
	TotalScore     int                         `json:"totalScore"`
	Level          Level                       `json:"level"`
	QualityMetrics QualityMetrics              `json:"qualityMetrics"`
}

// DocumentKeywords is the enriched keyword view of one document.
type DocumentKeywords struct {
	Categories    CategorySet                 `json:"categories"`
	Uncategorized []string                    `json:"uncategorized"`
	Validation    map[string]ValidationRecord `json:"validation,omitempty"` // keyed by TermKey
	Validated     bool                        `json:"validated"`            // false when the stage was skipped or degraded
}

// IsTermValidated reports whether term has a validated record.
func (d *DocumentKeywords) IsTermValidated(term string) bool {
	if d == nil || d.Validation == nil {
		return false
	}
	rec, ok := d.Validation[TermKey(term)]
	return ok && rec.IsValidated
}

// ScanReport bundles the score with both enriched keyword sets.
type ScanReport struct {
	Result         ScoreResult      `json:"result"`
	JobDescription DocumentKeywords `json:"jobDescription"`
	Resume         DocumentKeywords `json:"resume"`
	Warnings       []string         `json:"warnings,omitempty"`
}

// KeywordsReport is the enriched keyword view of a single document.
type KeywordsReport struct {
	Keywords DocumentKeywords `json:"keywords"`
	Warnings []string         `json:"warnings,omitempty"`
}
