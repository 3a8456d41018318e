// Package scoring combines per-category keyword matches into a compatibility score.
package scoring

import (
	"math"
	"unicode/utf8"

	"github.com/jonathan/resume-matcher/internal/types"
)

// Component weights of a dimension score
const (
	matchRateWeight  = 0.6
	importanceWeight = 0.3
	qualityWeight    = 0.1

	validatedShare = 0.7
	lengthShare    = 0.3

	// IdealTermLength is the matched-term length, in runes, that earns full length quality.
	IdealTermLength = 8
)

// ImportanceSource returns the importance weight of a term. skills.Importance implements it.
type ImportanceSource interface {
	Of(term string) float64
}

// levelBuckets cover 0..100 with inclusive bounds, best first.
var levelBuckets = []struct {
	min, max int
	level    types.Level
}{
	{85, 100, types.LevelExcellent},
	{70, 84, types.LevelGood},
	{55, 69, types.LevelFair},
	{40, 54, types.LevelPoor},
	{0, 39, types.LevelVeryPoor},
}

// Scorer scores enriched keyword sets. It is immutable and safe for concurrent use.
type Scorer struct {
	weights types.ScoringWeights
}

// NewScorer returns a Scorer. A nil weights map uses the default weighting.
func NewScorer(weights types.ScoringWeights) *Scorer {
	if weights == nil {
		weights = types.DefaultScoringWeights()
	}
	return &Scorer{weights: weights}
}

// Score cross-references the job description's keywords with the resume's.
func (s *Scorer) Score(jd, resume *types.DocumentKeywords, importance ImportanceSource) types.ScoreResult {
	validated := func(term string) bool {
		return jd.IsTermValidated(term) || resume.IsTermValidated(term)
	}

	perCategory := make(map[types.Category]types.DimensionScore, len(types.AllCategories))
	for _, c := range types.AllCategories {
		perCategory[c] = ScoreDimension(jd.Categories[c], resume.Categories[c], validated, importance)
	}

	total := Aggregate(perCategory, s.weights)
	return types.ScoreResult{
		PerCategory:    perCategory,
		TotalScore:     total,
		Level:          LevelFor(total),
		QualityMetrics: ComputeQualityMetrics(perCategory, jd),
	}
}

// ScoreDimension scores one category. Matching is case-insensitive and matched/missing
// terms keep the job description's spelling and order. validated and importance may be nil.
func ScoreDimension(jdTerms, resumeTerms []string, validated func(string) bool, importance ImportanceSource) types.DimensionScore {
	jdTerms = types.SortedUnique(jdTerms)
	resumeKeys := make(map[string]bool, len(resumeTerms))
	for _, t := range resumeTerms {
		resumeKeys[types.TermKey(t)] = true
	}

	dim := types.DimensionScore{
		TotalCount:   len(jdTerms),
		MatchedTerms: []string{},
		MissingTerms: []string{},
	}

	var matchedWeight, totalWeight float64
	for _, term := range jdTerms {
		w := 0.0
		if importance != nil {
			w = importance.Of(term)
		}
		totalWeight += w
		if resumeKeys[types.TermKey(term)] {
			dim.MatchedTerms = append(dim.MatchedTerms, term)
			matchedWeight += w
		} else {
			dim.MissingTerms = append(dim.MissingTerms, term)
		}
	}
	dim.MatchedCount = len(dim.MatchedTerms)
	if dim.TotalCount == 0 {
		return dim
	}

	matchRate := float64(dim.MatchedCount) / float64(dim.TotalCount)
	if totalWeight > 0 {
		dim.ImportanceScore = matchedWeight / totalWeight
	}
	dim.QualityScore = qualityScore(dim.MatchedTerms, validated)
	dim.Score = math.Min(1.0, matchRateWeight*matchRate+importanceWeight*dim.ImportanceScore+qualityWeight*dim.QualityScore)
	return dim
}

// qualityScore blends the validated share of matched terms with their average length.
func qualityScore(matched []string, validated func(string) bool) float64 {
	if len(matched) == 0 {
		return 0
	}
	validCount, runes := 0, 0
	for _, t := range matched {
		if validated != nil && validated(t) {
			validCount++
		}
		runes += utf8.RuneCountInString(t)
	}
	avgLen := float64(runes) / float64(len(matched))
	lengthQuality := math.Min(1.0, avgLen/IdealTermLength)
	return validatedShare*float64(validCount)/float64(len(matched)) + lengthShare*lengthQuality
}

// Aggregate returns round(100 * Σ score·weight / Σ weight) over the categories that have
// job description terms. Categories without terms never affect the result; 0 is returned
// when no category participates.
func Aggregate(perCategory map[types.Category]types.DimensionScore, weights types.ScoringWeights) int {
	var weighted, totalWeight float64
	for _, c := range types.AllCategories {
		dim, ok := perCategory[c]
		if !ok || dim.TotalCount == 0 {
			continue
		}
		w := weights[c]
		weighted += dim.Score * w
		totalWeight += w
	}
	if totalWeight <= 0 {
		return 0
	}
	total := int(math.Round(100 * weighted / totalWeight))
	return max(0, min(100, total))
}

// LevelFor maps a 0..100 score to its level. Out-of-range scores are clamped.
func LevelFor(score int) types.Level {
	score = max(0, min(100, score))
	for _, b := range levelBuckets {
		if score >= b.min && score <= b.max {
			return b.level
		}
	}
	return types.LevelVeryPoor
}

// ComputeQualityMetrics reports validation rate, keyword density and average quality
// as percentages rounded to one decimal.
func ComputeQualityMetrics(perCategory map[types.Category]types.DimensionScore, jd *types.DocumentKeywords) types.QualityMetrics {
	var (
		jdTerms, validated int
		matched, total     int
		qualitySum         float64
		participating      int
	)
	for _, c := range types.AllCategories {
		if jd != nil {
			for _, term := range jd.Categories[c] {
				jdTerms++
				if jd.IsTermValidated(term) {
					validated++
				}
			}
		}
		dim := perCategory[c]
		if dim.TotalCount == 0 {
			continue
		}
		matched += dim.MatchedCount
		total += dim.TotalCount
		qualitySum += dim.QualityScore
		participating++
	}

	var m types.QualityMetrics
	if jdTerms > 0 {
		m.EscoValidationRate = percent(float64(validated) / float64(jdTerms))
	}
	if total > 0 {
		m.KeywordDensity = percent(float64(matched) / float64(total))
	}
	if participating > 0 {
		m.AverageQuality = percent(qualitySum / float64(participating))
	}
	return m
}

func percent(fraction float64) float64 {
	return math.Round(fraction*1000) / 10
}
