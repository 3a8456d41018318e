// Package categorize assigns candidate terms to the keyword taxonomy.
package categorize

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/jonathan/resume-matcher/internal/parsing"
	"github.com/jonathan/resume-matcher/internal/types"
)

// FuzzyThreshold is the normalized edit-distance similarity a term must exceed to
// match a dictionary entry in the fuzzy tier.
const FuzzyThreshold = 0.8

// minContainmentRunes is the shortest side allowed in a substring match.
const minContainmentRunes = 4

// matchOrder is the category order used by every tier and by pattern inference.
var matchOrder = []types.Category{
	types.JobTitles,
	types.Certifications,
	types.Tools,
	types.SoftSkills,
	types.HardSkills,
}

// Tier names how a term was placed.
type Tier string

// Tiers in evaluation order.
const (
	TierExact     Tier = "exact"
	TierSubstring Tier = "substring"
	TierFuzzy     Tier = "fuzzy"
	TierPattern   Tier = "pattern"
	TierNone      Tier = "none"
)

// Assignment records the category chosen for one term.
type Assignment struct {
	Category types.Category `json:"category"`
	Tier     Tier           `json:"tier"`
	Entry    string         `json:"entry,omitempty"` // dictionary entry that matched
}

// Result is the categorized view of a candidate list.
type Result struct {
	Categories    types.CategorySet     `json:"categories"`
	Uncategorized []string              `json:"uncategorized"`
	Assignments   map[string]Assignment `json:"assignments"` // keyed by TermKey
}

type entry struct {
	term  string
	key   string
	runes int
}

// Matcher places terms using a fixed dictionary. It is immutable and safe for
// concurrent use.
type Matcher struct {
	entries map[types.Category][]entry
	exact   map[string]entryRef
}

type entryRef struct {
	category types.Category
	term     string
}

// NewMatcher builds a matcher over dict. A nil dict uses DefaultDictionary.
func NewMatcher(dict Dictionary) *Matcher {
	if dict == nil {
		dict = DefaultDictionary()
	}
	m := &Matcher{
		entries: make(map[types.Category][]entry, len(dict)),
		exact:   make(map[string]entryRef),
	}
	for _, c := range matchOrder {
		for _, term := range dict[c] {
			key := types.TermKey(term)
			if key == "" {
				continue
			}
			m.entries[c] = append(m.entries[c], entry{term: term, key: key, runes: utf8.RuneCountInString(key)})
			if _, taken := m.exact[key]; !taken {
				m.exact[key] = entryRef{category: c, term: term}
			}
		}
	}
	return m
}

// Categorize assigns every term to at most one category. Terms nothing matched are
// returned in Uncategorized. Output is deduplicated and sorted, so repeated calls on
// the same input give identical results.
func (m *Matcher) Categorize(terms []string) Result {
	res := Result{
		Categories:    types.NewCategorySet(),
		Uncategorized: []string{},
		Assignments:   make(map[string]Assignment, len(terms)),
	}
	for _, term := range terms {
		key := types.TermKey(term)
		if key == "" {
			continue
		}
		if _, done := res.Assignments[key]; done {
			continue
		}
		a := m.Classify(term)
		res.Assignments[key] = a
		if a.Category == types.Uncategorized {
			res.Uncategorized = append(res.Uncategorized, strings.TrimSpace(term))
			continue
		}
		res.Categories.Add(a.Category, term)
	}
	res.Categories.Normalize()
	res.Uncategorized = types.SortedUnique(res.Uncategorized)
	return res
}

// Classify returns the assignment for a single term.
func (m *Matcher) Classify(term string) Assignment {
	key := types.TermKey(term)
	if key == "" {
		return Assignment{Category: types.Uncategorized, Tier: TierNone}
	}

	if ref, ok := m.exact[key]; ok {
		return Assignment{Category: ref.category, Tier: TierExact, Entry: ref.term}
	}
	if c, e, ok := m.matchSubstring(key); ok {
		return Assignment{Category: c, Tier: TierSubstring, Entry: e}
	}
	if c, e, ok := m.matchFuzzy(key); ok {
		return Assignment{Category: c, Tier: TierFuzzy, Entry: e}
	}
	if c, ok := inferByPattern(key); ok {
		return Assignment{Category: c, Tier: TierPattern}
	}
	return Assignment{Category: types.Uncategorized, Tier: TierNone}
}

func (m *Matcher) matchSubstring(key string) (types.Category, string, bool) {
	n := utf8.RuneCountInString(key)
	for _, c := range matchOrder {
		for _, e := range m.entries[c] {
			switch {
			case e.runes >= minContainmentRunes && e.runes < n && ContainsWords(key, e.key):
				return c, e.term, true
			case n >= minContainmentRunes && n < e.runes && 2*n >= e.runes && ContainsWords(e.key, key):
				return c, e.term, true
			}
		}
	}
	return types.Uncategorized, "", false
}

// matchFuzzy returns the entry with the highest similarity above FuzzyThreshold.
// Ties go to the earlier category.
func (m *Matcher) matchFuzzy(key string) (types.Category, string, bool) {
	bestScore := FuzzyThreshold
	best := types.Uncategorized
	bestTerm := ""
	for _, c := range matchOrder {
		for _, e := range m.entries[c] {
			if s := Similarity(key, e.key); s > bestScore {
				bestScore, best, bestTerm = s, c, e.term
			}
		}
	}
	return best, bestTerm, best != types.Uncategorized
}

// IsKnown reports whether term is an exact dictionary entry of category c.
func (m *Matcher) IsKnown(c types.Category, term string) bool {
	ref, ok := m.exact[types.TermKey(term)]
	return ok && ref.category == c
}

// IsKnownTechnology reports whether term is an exact hard-skill or tool entry, or the
// canonical form of a known technology alias.
func (m *Matcher) IsKnownTechnology(term string) bool {
	if parsing.IsCanonicalTerm(term) {
		return true
	}
	ref, ok := m.exact[types.TermKey(term)]
	return ok && (ref.category == types.HardSkills || ref.category == types.Tools)
}

// Similarity returns 1 - levenshtein(a, b) / max(len(a), len(b)) over runes.
// Two empty strings are identical.
func Similarity(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// ContainsWords reports whether needle occurs in haystack on word boundaries.
func ContainsWords(haystack, needle string) bool {
	if needle == "" {
		return false
	}
	for i := 0; ; {
		idx := strings.Index(haystack[i:], needle)
		if idx < 0 {
			return false
		}
		start := i + idx
		end := start + len(needle)
		if isBoundary(haystack, start-1) && isBoundary(haystack, end) {
			return true
		}
		i = start + 1
		if i >= len(haystack) {
			return false
		}
	}
}

func isBoundary(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return true
	}
	switch s[i] {
	case ' ', '-', '/', '.', '_', '(', ')', ',':
		return true
	}
	return false
}
