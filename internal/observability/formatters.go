// Package observability provides logging, metrics and formatted output for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/resume-matcher/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	for _, line := range strings.Split(content, "\n") {
		// Truncate long lines
		if utf8.RuneCountInString(line) > boxWidth-4 {
			line = string([]rune(line)[:boxWidth-7]) + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintKeywords outputs the categorized keywords of one document.
func (p *Printer) PrintKeywords(title string, kw *types.DocumentKeywords) {
	if kw == nil {
		return
	}

	var sb strings.Builder
	for _, c := range types.AllCategories {
		terms := kw.Categories[c]
		if len(terms) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%s (%d):\n", c, len(terms)))
		sb.WriteString("  " + summarize(terms) + "\n")
	}
	if len(kw.Uncategorized) > 0 {
		sb.WriteString(fmt.Sprintf("uncategorized (%d):\n", len(kw.Uncategorized)))
		sb.WriteString("  " + summarize(kw.Uncategorized) + "\n")
	}
	if sb.Len() == 0 {
		sb.WriteString("No keywords found\n")
	}
	if kw.Validated {
		validated := 0
		for _, rec := range kw.Validation {
			if rec.IsValidated {
				validated++
			}
		}
		sb.WriteString(fmt.Sprintf("\nValidated: %d of %d checked terms", validated, len(kw.Validation)))
	} else {
		sb.WriteString("\nValidation: not applied")
	}

	p.printBox(strings.ToUpper(title), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintValidation outputs the most confident validation records.
func (p *Printer) PrintValidation(records map[string]types.ValidationRecord) {
	if len(records) == 0 {
		return
	}

	list := make([]types.ValidationRecord, 0, len(records))
	for _, rec := range records {
		list = append(list, rec)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Confidence != list[j].Confidence {
			return list[i].Confidence > list[j].Confidence
		}
		return types.TermKey(list[i].Term) < types.TermKey(list[j].Term)
	})

	var sb strings.Builder
	count := min(len(list), maxItemsToShow)
	for i := 0; i < count; i++ {
		rec := list[i]
		mark := "✗"
		if rec.IsValidated {
			mark = "✓"
		}
		sb.WriteString(fmt.Sprintf("%s %s  %.2f", mark, rec.Term, rec.Confidence))
		if rec.IsValidated {
			sb.WriteString(fmt.Sprintf(" → %s", rec.MatchedCategory))
		}
		sb.WriteString("\n")
		if rec.CanonicalTitle != "" {
			sb.WriteString(fmt.Sprintf("    %s\n", rec.CanonicalTitle))
		}
	}
	if len(list) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("... and %d more\n", len(list)-maxItemsToShow))
	}

	p.printBox("VALIDATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintScore outputs the total score, per-category breakdown and quality metrics.
func (p *Printer) PrintScore(result *types.ScoreResult) {
	if result == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total:  %d/100 (%s)\n\n", result.TotalScore, result.Level))

	for _, c := range types.AllCategories {
		dim, ok := result.PerCategory[c]
		if !ok || dim.TotalCount == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("%-15s %.2f  (%d/%d matched)\n", c, dim.Score, dim.MatchedCount, dim.TotalCount))
		if len(dim.MissingTerms) > 0 {
			sb.WriteString("  missing: " + summarize(dim.MissingTerms) + "\n")
		}
	}

	m := result.QualityMetrics
	sb.WriteString(fmt.Sprintf("\nValidation rate: %.1f%%\n", m.EscoValidationRate))
	sb.WriteString(fmt.Sprintf("Keyword density: %.1f%%\n", m.KeywordDensity))
	sb.WriteString(fmt.Sprintf("Average quality: %.1f%%", m.AverageQuality))

	p.printBox("MATCH SCORE", sb.String())
}

// PrintWarnings outputs scan warnings, if any.
func (p *Printer) PrintWarnings(warnings []string) {
	if len(warnings) == 0 {
		return
	}
	var sb strings.Builder
	for _, w := range warnings {
		sb.WriteString("⚠ " + w + "\n")
	}
	p.printBox("WARNINGS", strings.TrimSuffix(sb.String(), "\n"))
}

// summarize joins the first few terms and notes how many were left out.
func summarize(terms []string) string {
	count := min(len(terms), maxItemsToShow)
	out := strings.Join(terms[:count], ", ")
	if len(terms) > count {
		out += fmt.Sprintf(" ... and %d more", len(terms)-count)
	}
	return out
}
