// Package ingestion loads job descriptions and resumes from files, stdin or URLs
// and normalizes their text before keyword extraction.
package ingestion

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	spaceRun      = regexp.MustCompile(`[ \t\f\v\x{00A0}]+`)
	blankLineRun  = regexp.MustCompile(`\n{3,}`)
	bulletReplace = strings.NewReplacer("• ", "- ", "· ", "- ", "▪ ", "- ", "◦ ", "- ")
)

// CleanText normalizes text while preserving line structure: NFC composition,
// LF line endings, collapsed inner whitespace, unified bullets and at most one
// blank line between paragraphs.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = norm.NFC.String(content)
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	content = strings.ReplaceAll(content, "\u200b", "")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = cleanLine(line)
	}

	result := blankLineRun.ReplaceAllString(strings.Join(lines, "\n"), "\n\n")
	return strings.TrimSpace(result)
}

// cleanLine keeps the indentation of list items and collapses everything else.
func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" {
		return ""
	}

	trimmed = bulletReplace.Replace(trimmed)
	content := spaceRun.ReplaceAllString(trimmed, " ")
	if isBulletLine(content) {
		if indent := len(line) - len(strings.TrimLeft(line, " \t")); indent > 0 {
			return strings.Repeat(" ", indent) + content
		}
	}
	return content
}

// isBulletLine checks if a line is a bullet list item
func isBulletLine(line string) bool {
	return strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "* ")
}
