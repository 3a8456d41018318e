package esco

import (
	"regexp"
	"sort"

	"github.com/jonathan/resume-matcher/internal/categorize"
	"github.com/jonathan/resume-matcher/internal/parsing"
	"github.com/jonathan/resume-matcher/internal/types"
)

// Confidence levels per kind of match
const (
	confidenceExactTitle        = 1.0
	confidenceExactAltLabel     = 0.95
	confidenceTitleContainsTerm = 0.8
	confidenceTermContainsTitle = 0.75
	confidenceAltContainsTerm   = 0.7
	confidenceTermContainsAlt   = 0.65
	fuzzyScale                  = 0.6
	fuzzyMinSimilarity          = 0.8

	maxSuggestions = 3
)

var toolTitleRe = regexp.MustCompile(`(?i)\b(software|tools?|platforms?|frameworks?|systems?|studio|ide|suite|editor)\b`)

// candidate is a search result with its confidence for the searched term.
type candidate struct {
	result     SearchResult
	kind       SearchType
	confidence float64
}

// scoreResult computes how confidently r identifies term.
func scoreResult(term string, r SearchResult) float64 {
	t := parsing.NormalizeTerm(term)
	title := parsing.NormalizeTerm(r.Title)
	if t == "" || title == "" {
		return 0
	}

	if t == title {
		return confidenceExactTitle
	}
	alts := make([]string, 0, len(r.AlternativeLabels))
	for _, a := range r.AlternativeLabels {
		if a = parsing.NormalizeTerm(a); a != "" {
			alts = append(alts, a)
		}
	}
	for _, a := range alts {
		if t == a {
			return confidenceExactAltLabel
		}
	}

	if categorize.ContainsWords(title, t) {
		return confidenceTitleContainsTerm
	}
	if categorize.ContainsWords(t, title) {
		return confidenceTermContainsTitle
	}
	for _, a := range alts {
		if categorize.ContainsWords(a, t) {
			return confidenceAltContainsTerm
		}
	}
	for _, a := range alts {
		if categorize.ContainsWords(t, a) {
			return confidenceTermContainsAlt
		}
	}

	best := categorize.Similarity(t, title)
	for _, a := range alts {
		if s := categorize.Similarity(t, a); s > best {
			best = s
		}
	}
	if best > fuzzyMinSimilarity {
		return best * fuzzyScale
	}
	return 0
}

// categoryFor maps a matched reference entry onto the taxonomy.
func categoryFor(kind SearchType, r SearchResult) types.Category {
	if kind == SearchOccupation {
		return types.JobTitles
	}
	switch {
	case r.SkillType == "attitude" || r.ReuseLevel == "transversal":
		return types.SoftSkills
	case toolTitleRe.MatchString(r.Title):
		return types.Tools
	case r.SkillType == "knowledge":
		return types.HardSkills
	default:
		return types.HardSkills
	}
}

// buildRecord turns scored candidates into a ValidationRecord. Skill candidates precede
// occupation candidates, so equal confidences prefer the skill.
func buildRecord(term string, candidates []candidate, threshold float64) types.ValidationRecord {
	rec := types.ValidationRecord{
		Term:            term,
		MatchedCategory: types.Uncategorized,
		Suggestions:     []string{},
	}

	bestIdx := -1
	for i, c := range candidates {
		if c.confidence > 0 && (bestIdx < 0 || c.confidence > candidates[bestIdx].confidence) {
			bestIdx = i
		}
	}
	if bestIdx >= 0 {
		best := candidates[bestIdx]
		rec.Confidence = best.confidence
		rec.MatchedCategory = categoryFor(best.kind, best.result)
		rec.CanonicalTitle = best.result.Title
		rec.IsValidated = best.confidence > threshold
	}
	rec.Suggestions = suggestionsFor(term, candidates)
	return rec
}

// suggestionsFor collects up to maxSuggestions titles and alternate labels from the
// candidates, most confident first, skipping the term itself and duplicates.
func suggestionsFor(term string, candidates []candidate) []string {
	ordered := make([]candidate, len(candidates))
	copy(ordered, candidates)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].confidence > ordered[j].confidence
	})

	termKey := parsing.NormalizeTerm(term)
	seen := map[string]bool{termKey: true}
	out := []string{}
	add := func(s string) bool {
		key := parsing.NormalizeTerm(s)
		if key == "" || seen[key] {
			return false
		}
		seen[key] = true
		out = append(out, s)
		return len(out) >= maxSuggestions
	}

	for _, c := range ordered {
		if add(c.result.Title) {
			return out
		}
	}
	for _, c := range ordered {
		for _, label := range c.result.AlternativeLabels {
			if add(label) {
				return out
			}
		}
	}
	return out
}
