// Package skills weights candidate terms by how characteristic they are of each document.
package skills

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/resume-matcher/internal/parsing"
	"github.com/jonathan/resume-matcher/internal/types"
)

// Importance maps a TermKey to its weight. The weight is the maximum TF-IDF observed
// across the scanned documents.
type Importance map[string]float64

// Of returns the weight of term, or 0 when it never occurred.
func (imp Importance) Of(term string) float64 {
	return imp[types.TermKey(term)]
}

// WeightedTerm is one entry of Importance.Sorted.
type WeightedTerm struct {
	Term   string  `json:"term"`
	Weight float64 `json:"weight"`
}

// Sorted returns the weights in descending order, ties broken by term.
func (imp Importance) Sorted() []WeightedTerm {
	out := make([]WeightedTerm, 0, len(imp))
	for term, w := range imp {
		out = append(out, WeightedTerm{Term: term, Weight: w})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Weight != out[j].Weight {
			return out[i].Weight > out[j].Weight
		}
		return out[i].Term < out[j].Term
	})
	return out
}

// document is a folded document with its token count.
type document struct {
	text   string
	tokens int
}

// ComputeImportance returns the TF-IDF weight of every term over documents.
// TF is occurrences divided by the document's token count, counting every alias spelling
// of the term; IDF is smoothed as ln((1+N)/(1+df)) + 1 so a term present everywhere
// keeps a non-zero weight.
func ComputeImportance(documents []string, terms []string) Importance {
	docs := make([]document, len(documents))
	for i, text := range documents {
		normalized := parsing.NormalizeText(text)
		docs[i] = document{
			text:   types.TermKey(normalized),
			tokens: len(parsing.Tokenize(normalized)),
		}
	}

	imp := make(Importance, len(terms))
	n := float64(len(docs))
	for _, term := range terms {
		key := types.TermKey(term)
		if key == "" {
			continue
		}
		if _, done := imp[key]; done {
			continue
		}

		counts := make([]int, len(docs))
		df := 0
		for i, d := range docs {
			counts[i] = countTerm(d.text, term)
			if counts[i] > 0 {
				df++
			}
		}

		idf := math.Log((1+n)/(1+float64(df))) + 1
		best := 0.0
		for i, d := range docs {
			if d.tokens == 0 || counts[i] == 0 {
				continue
			}
			tf := float64(counts[i]) / float64(d.tokens)
			best = math.Max(best, tf*idf)
		}
		addOrUpdateWeight(imp, key, best)
	}
	return imp
}

// addOrUpdateWeight keeps the larger weight when a key is seen twice.
func addOrUpdateWeight(imp Importance, key string, weight float64) {
	if existing, ok := imp[key]; !ok || weight > existing {
		imp[key] = weight
	}
}

// countTerm counts whole-word occurrences of term and its alias spellings in a folded text.
// A compound also counts as often as its rarest part occurs, the way extraction merges it,
// so "google cloud" counts for GCP even when the parts are not adjacent.
func countTerm(text, term string) int {
	seen := make(map[string]bool)
	total := 0
	for _, variant := range termVariants(term) {
		if seen[variant] {
			continue
		}
		seen[variant] = true
		total += countOccurrences(text, variant)
	}
	for _, parts := range parsing.CompoundParts(term) {
		total = max(total, countParts(text, parts))
	}
	return total
}

// countParts returns the occurrence count of the rarest part.
func countParts(text string, parts []string) int {
	count := 0
	for i, part := range parts {
		n := countOccurrences(text, part)
		if i == 0 || n < count {
			count = n
		}
	}
	return count
}

// termVariants lists the folded spellings that count as an occurrence of term.
// Hyphenated compounds also match their space-separated form.
func termVariants(term string) []string {
	variants := parsing.AliasVariants(term)
	for _, v := range variants {
		if strings.Contains(v, "-") {
			variants = append(variants, strings.ReplaceAll(v, "-", " "))
		}
	}
	return variants
}

func countOccurrences(text, needle string) int {
	if needle == "" {
		return 0
	}
	count := 0
	for i := 0; i < len(text); {
		idx := strings.Index(text[i:], needle)
		if idx < 0 {
			break
		}
		start := i + idx
		end := start + len(needle)
		if wordBoundaryBefore(text, start) && wordBoundaryAfter(text, end) {
			count++
			i = end
			continue
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		i = start + size
	}
	return count
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#'
}

func wordBoundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func wordBoundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}
