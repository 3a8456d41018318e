// Package types provides type definitions for structured data used throughout the resume-matcher system.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/cases"
)

// Category is one dimension of the fixed keyword taxonomy.
type Category int

const (
	// Uncategorized marks a term that no dictionary, pattern or validation placed.
	Uncategorized Category = iota - 1
	// HardSkills holds technical skills and technologies.
	HardSkills
	// SoftSkills holds interpersonal and transversal skills.
	SoftSkills
	// JobTitles holds occupations and role names.
	JobTitles
	// Certifications holds professional certifications.
	Certifications
	// Tools holds software tools and platforms.
	Tools
)

// AllCategories lists the scored categories in their canonical order.
var AllCategories = []Category{HardSkills, SoftSkills, JobTitles, Certifications, Tools}

// String returns the wire name of the category.
func (c Category) String() string {
	switch c {
	case HardSkills:
		return "hardSkills"
	case SoftSkills:
		return "softSkills"
	case JobTitles:
		return "jobTitles"
	case Certifications:
		return "certifications"
	case Tools:
		return "tools"
	case Uncategorized:
		return "uncategorized"
	default:
		return fmt.Sprintf("category(%d)", int(c))
	}
}

// Valid reports whether c is one of the scored categories.
func (c Category) Valid() bool {
	switch c {
	case HardSkills, SoftSkills, JobTitles, Certifications, Tools:
		return true
	default:
		return false
	}
}

// ParseCategory parses a wire name. "jobTitle" and snake_case spellings are accepted.
func ParseCategory(s string) (Category, error) {
	switch strings.ToLower(strings.ReplaceAll(strings.TrimSpace(s), "_", "")) {
	case "hardskills", "hardskill":
		return HardSkills, nil
	case "softskills", "softskill":
		return SoftSkills, nil
	case "jobtitles", "jobtitle":
		return JobTitles, nil
	case "certifications", "certification":
		return Certifications, nil
	case "tools", "tool":
		return Tools, nil
	case "uncategorized":
		return Uncategorized, nil
	default:
		return Uncategorized, fmt.Errorf("unknown category %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler so categories can be JSON map keys.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

var folder = cases.Fold()

// TermKey returns the identity of a term: case-folded, trimmed, inner whitespace collapsed.
func TermKey(term string) string {
	return folder.String(strings.Join(strings.Fields(term), " "))
}

// CategorySet maps every scored category to an ordered set of unique terms.
// Terms keep their original casing; uniqueness is by TermKey.
type CategorySet map[Category][]string

// NewCategorySet returns a set with every category present and empty.
func NewCategorySet() CategorySet {
	set := make(CategorySet, len(AllCategories))
	for _, c := range AllCategories {
		set[c] = []string{}
	}
	return set
}

// Add appends term to category c unless an equal term is already present there.
// Returns false when the term was a duplicate or c is not a scored category.
func (s CategorySet) Add(c Category, term string) bool {
	if !c.Valid() || strings.TrimSpace(term) == "" {
		return false
	}
	key := TermKey(term)
	for _, existing := range s[c] {
		if TermKey(existing) == key {
			return false
		}
	}
	s[c] = append(s[c], strings.TrimSpace(term))
	return true
}

// Remove deletes term from category c. Returns true if something was removed.
func (s CategorySet) Remove(c Category, term string) bool {
	key := TermKey(term)
	terms := s[c]
	for i, existing := range terms {
		if TermKey(existing) == key {
			s[c] = append(terms[:i:i], terms[i+1:]...)
			return true
		}
	}
	return false
}

// Contains reports whether category c holds term (case-insensitive).
func (s CategorySet) Contains(c Category, term string) bool {
	key := TermKey(term)
	for _, existing := range s[c] {
		if TermKey(existing) == key {
			return true
		}
	}
	return false
}

// CategoryOf returns the category holding term, or Uncategorized.
func (s CategorySet) CategoryOf(term string) Category {
	for _, c := range AllCategories {
		if s.Contains(c, term) {
			return c
		}
	}
	return Uncategorized
}

// Total returns the number of terms across all categories.
func (s CategorySet) Total() int {
	n := 0
	for _, c := range AllCategories {
		n += len(s[c])
	}
	return n
}

// Normalize deduplicates every category case-insensitively and sorts it by TermKey,
// breaking ties on the original spelling. Missing categories are created.
func (s CategorySet) Normalize() {
	for _, c := range AllCategories {
		s[c] = SortedUnique(s[c])
	}
}

// Clone returns a deep copy of the set.
func (s CategorySet) Clone() CategorySet {
	out := NewCategorySet()
	for _, c := range AllCategories {
		out[c] = append([]string{}, s[c]...)
	}
	return out
}

// SortedUnique removes case-insensitive duplicates (first spelling wins) and sorts
// the result deterministically.
func SortedUnique(terms []string) []string {
	seen := make(map[string]bool, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		key := TermKey(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	sort.SliceStable(out, func(i, j int) bool {
		ki, kj := TermKey(out[i]), TermKey(out[j])
		if ki != kj {
			return ki < kj
		}
		return out[i] < out[j]
	})
	return out
}
