// Package ranking selects which candidate terms are worth validating externally.
package ranking

import (
	"sort"
	"unicode/utf8"

	"github.com/jonathan/resume-matcher/internal/types"
)

// DefaultLimit is the number of terms submitted for validation when no limit is set.
const DefaultLimit = 25

// TechnologyChecker reports whether a term is a known technology.
type TechnologyChecker interface {
	IsKnownTechnology(term string) bool
}

// RankedTerm is a candidate term with its priority.
type RankedTerm struct {
	Term      string  `json:"term"`
	Score     float64 `json:"score"`
	Frequency int     `json:"frequency"`
}

// Ranker scores terms by heuristics. It holds no mutable state.
type Ranker struct {
	known    TechnologyChecker
	language string
}

// NewRanker returns a ranker. known may be nil, in which case no term earns the
// known-technology bonus.
func NewRanker(known TechnologyChecker, language string) *Ranker {
	if language == "" {
		language = "english"
	}
	return &Ranker{known: known, language: language}
}

// Score returns the priority of term seen freq times.
func (r *Ranker) Score(term string, freq int) float64 {
	score := computeLengthScore(utf8.RuneCountInString(term))
	score += computeFormatScore(term)
	if r.known != nil && r.known.IsKnownTechnology(term) {
		score += knownTechBonus
	}
	score += computeFrequencyScore(freq)
	score += computePenalty(term, r.language)
	return score
}

// Rank scores every term and sorts by descending priority. Equal scores keep their
// input order. freq is keyed by TermKey and may be nil.
func (r *Ranker) Rank(terms []string, freq map[string]int) []RankedTerm {
	ranked := make([]RankedTerm, 0, len(terms))
	for _, term := range terms {
		f := freq[types.TermKey(term)]
		ranked = append(ranked, RankedTerm{Term: term, Score: r.Score(term, f), Frequency: f})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// RankForValidation returns the limit highest-priority terms. limit <= 0 uses DefaultLimit.
func (r *Ranker) RankForValidation(terms []string, freq map[string]int, limit int) []string {
	if limit <= 0 {
		limit = DefaultLimit
	}
	ranked := r.Rank(terms, freq)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	out := make([]string, len(ranked))
	for i, rt := range ranked {
		out[i] = rt.Term
	}
	return out
}
