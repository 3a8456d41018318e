// Package parsing turns raw document text into candidate keyword terms.
package parsing

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/jonathan/resume-matcher/internal/types"
)

// Options controls the noise filter.
type Options struct {
	Language  string
	MinLength int
	MaxLength int
}

// DefaultOptions returns the stock filter bounds.
func DefaultOptions() Options {
	return Options{
		Language:  "english",
		MinLength: 3,
		MaxLength: 20,
	}
}

// Extraction is the candidate term set of one document.
type Extraction struct {
	// Terms are unique by TermKey and sorted.
	Terms []string `json:"terms"`
	// Frequencies counts kept occurrences per TermKey.
	Frequencies map[string]int `json:"frequencies"`
}

func emptyExtraction() Extraction {
	return Extraction{Terms: []string{}, Frequencies: map[string]int{}}
}

// compound is a multi-word term assembled from separately extracted parts.
type compound struct {
	parts []string
	term  string
}

var compounds = []compound{
	{[]string{"full", "stack"}, "full-stack"},
	{[]string{"front", "end"}, "front-end"},
	{[]string{"back", "end"}, "back-end"},
	{[]string{"machine", "learning"}, "Machine Learning"},
	{[]string{"deep", "learning"}, "Deep Learning"},
	{[]string{"data", "science"}, "Data Science"},
	{[]string{"computer", "vision"}, "Computer Vision"},
	{[]string{"natural", "language", "processing"}, "Natural Language Processing"},
	{[]string{"project", "management"}, "Project Management"},
	{[]string{"product", "management"}, "Product Management"},
	{[]string{"problem", "solving"}, "Problem Solving"},
	{[]string{"critical", "thinking"}, "Critical Thinking"},
	{[]string{"time", "management"}, "Time Management"},
	{[]string{"unit", "testing"}, "Unit Testing"},
	{[]string{"version", "control"}, "Version Control"},
	{[]string{"spring", "boot"}, "Spring Boot"},
	{[]string{"ruby", "rails"}, "Ruby on Rails"},
	{[]string{"google", "cloud"}, "GCP"},
	{[]string{"amazon", "web", "services"}, "AWS"},
	{[]string{"software", "engineer"}, "Software Engineer"},
	{[]string{"data", "scientist"}, "Data Scientist"},
	{[]string{"data", "engineer"}, "Data Engineer"},
	{[]string{"product", "manager"}, "Product Manager"},
	{[]string{"project", "manager"}, "Project Manager"},
}

// CompoundParts returns the part sequences that mergeCompounds assembles into term.
// Parts are folded keys; the result is nil for terms that are not compounds.
func CompoundParts(term string) [][]string {
	key := types.TermKey(term)
	var out [][]string
	for _, c := range compounds {
		if types.TermKey(c.term) == key {
			out = append(out, c.parts)
		}
	}
	return out
}

const tokenSeparators = ",;:!?()[]{}<>\"|="

var urlInTextRe = regexp.MustCompile(`(?i)\b(?:https?://|www\.)\S+`)

// Extract returns the deduplicated, sorted candidate terms of text. It never fails:
// anything ExtractStrict would report yields an empty result.
func Extract(text string, opts Options) Extraction {
	result, err := ExtractStrict(text, opts)
	if err != nil {
		return emptyExtraction()
	}
	return result
}

// ExtractStrict is Extract with failures reported. Panics inside the tokenizer are
// recovered into an *ExtractionError.
func ExtractStrict(text string, opts Options) (result Extraction, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = emptyExtraction()
			err = &ExtractionError{Message: fmt.Sprintf("tokenizer panic: %v", r)}
		}
	}()

	if opts.MinLength <= 0 || opts.MaxLength < opts.MinLength {
		return emptyExtraction(), &ExtractionError{
			Message: fmt.Sprintf("invalid length bounds [%d, %d]", opts.MinLength, opts.MaxLength),
		}
	}
	if opts.Language == "" {
		opts.Language = DefaultOptions().Language
	}

	// spelling keeps the first kept spelling of each term key, in order of appearance
	var order []string
	spelling := make(map[string]string)
	freq := make(map[string]int)

	text = urlInTextRe.ReplaceAllString(NormalizeText(text), " ")
	for _, raw := range Tokenize(text) {
		term, _ := StandardizeAlias(raw)
		if IsNoise(term, opts) {
			continue
		}
		key := types.TermKey(term)
		if _, seen := spelling[key]; !seen {
			spelling[key] = term
			order = append(order, key)
		}
		freq[key]++
	}

	mergeCompounds(spelling, freq, &order)

	terms := make([]string, 0, len(order))
	for _, key := range order {
		if term, ok := spelling[key]; ok {
			terms = append(terms, term)
		}
	}
	sort.SliceStable(terms, func(i, j int) bool {
		return types.TermKey(terms[i]) < types.TermKey(terms[j])
	})

	return Extraction{Terms: terms, Frequencies: freq}, nil
}

// mergeCompounds replaces the parts of every known compound with the compound itself
// when all parts survived the noise filter. Parts shared between compounds may feed
// more than one compound.
func mergeCompounds(spelling map[string]string, freq map[string]int, order *[]string) {
	consumed := make(map[string]bool)
	for _, c := range compounds {
		count := 0
		present := true
		for _, part := range c.parts {
			n, ok := freq[part]
			if !ok {
				present = false
				break
			}
			if count == 0 || n < count {
				count = n
			}
		}
		if !present {
			continue
		}
		key := types.TermKey(c.term)
		if _, exists := spelling[key]; !exists {
			spelling[key] = c.term
			*order = append(*order, key)
		}
		freq[key] += count
		for _, part := range c.parts {
			consumed[part] = true
		}
	}
	for part := range consumed {
		delete(spelling, part)
		delete(freq, part)
	}
}

// Tokenize splits normalized text into raw tokens with surrounding punctuation trimmed.
// Slash-joined words ("Python/Django") are split unless the whole token is a known alias.
func Tokenize(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(tokenSeparators, r)
	})

	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = trimToken(f)
		if f == "" {
			continue
		}
		if strings.Contains(f, "/") && !isSlashTerm(f) {
			for _, part := range strings.Split(f, "/") {
				if part = trimToken(part); part != "" {
					tokens = append(tokens, part)
				}
			}
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

func isSlashTerm(token string) bool {
	if _, ok := termAliases[strings.ToLower(token)]; ok {
		return true
	}
	return dateRe.MatchString(token)
}

func trimToken(token string) string {
	token = strings.TrimLeft(token, "'`*-•")
	token = strings.TrimRight(token, "'`.*")
	lower := strings.ToLower(token)
	if strings.HasSuffix(lower, "'s") {
		token = token[:len(token)-2]
	}
	return token
}
