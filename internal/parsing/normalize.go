package parsing

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jonathan/resume-matcher/internal/types"
)

// termAliases maps lower-cased spellings of technologies to their canonical names.
// Keys are matched exactly against whole tokens.
var termAliases = map[string]string{
	"javascript": "JavaScript",
	"js":         "JavaScript",
	"ecmascript": "JavaScript",
	"es6":        "JavaScript",
	"typescript": "TypeScript",
	"ts":         "TypeScript",
	"golang":     "Go",
	"k8s":        "Kubernetes",
	"kubernetes": "Kubernetes",
	"react":      "React",
	"react.js":   "React",
	"reactjs":    "React",
	"vue":        "Vue.js",
	"vue.js":     "Vue.js",
	"vuejs":      "Vue.js",
	"angularjs":  "Angular",
	"angular":    "Angular",
	"node":       "Node.js",
	"node.js":    "Node.js",
	"nodejs":     "Node.js",
	"postgres":   "PostgreSQL",
	"postgresql": "PostgreSQL",
	"psql":       "PostgreSQL",
	"mongo":      "MongoDB",
	"mongodb":    "MongoDB",
	"mysql":      "MySQL",
	"nosql":      "NoSQL",
	"sql":        "SQL",
	"python":     "Python",
	"python3":    "Python",
	"py":         "Python",
	"c++":        "C++",
	"cpp":        "C++",
	"c#":         "C#",
	"csharp":     "C#",
	".net":       ".NET",
	"dotnet":     ".NET",
	"aws":        "AWS",
	"gcp":        "GCP",
	"azure":      "Azure",
	"html":       "HTML",
	"html5":      "HTML",
	"css":        "CSS",
	"css3":       "CSS",
	"ci/cd":      "CI/CD",
	"cicd":       "CI/CD",
	"graphql":    "GraphQL",
	"rest":       "REST",
	"restful":    "REST",
	"docker":     "Docker",
	"terraform":  "Terraform",
	"github":     "GitHub",
	"gitlab":     "GitLab",
	"jira":       "Jira",
	"excel":      "Excel",
	"tensorflow": "TensorFlow",
	"pytorch":    "PyTorch",
	"nlp":        "NLP",
	"ml":         "Machine Learning",
	"devops":     "DevOps",
	"saas":       "SaaS",
	"ios":        "iOS",
}

// canonicalTerms is the set of canonical alias outputs keyed by TermKey.
var canonicalTerms = func() map[string]string {
	out := make(map[string]string, len(termAliases))
	for _, canonical := range termAliases {
		out[types.TermKey(canonical)] = canonical
	}
	return out
}()

// aliasVariants maps a canonical term key to every spelling that standardizes to it.
var aliasVariants = func() map[string][]string {
	out := make(map[string][]string)
	for alias, canonical := range termAliases {
		key := types.TermKey(canonical)
		out[key] = append(out[key], alias)
	}
	return out
}()

// StandardizeAlias returns the canonical spelling of term and whether it was a known alias.
func StandardizeAlias(term string) (string, bool) {
	if canonical, ok := termAliases[strings.ToLower(strings.TrimSpace(term))]; ok {
		return canonical, true
	}
	return term, false
}

// IsCanonicalTerm reports whether term is the canonical spelling of a known technology.
func IsCanonicalTerm(term string) bool {
	_, ok := canonicalTerms[types.TermKey(term)]
	return ok
}

func isCanonicalSpelling(token string) bool {
	return canonicalTerms[types.TermKey(token)] == token
}

// AliasVariants returns every lower-case spelling that standardizes to term, including
// term itself. The result is unordered.
func AliasVariants(term string) []string {
	key := types.TermKey(term)
	variants := []string{key}
	for _, alias := range aliasVariants[key] {
		if alias != key {
			variants = append(variants, alias)
		}
	}
	return variants
}

// stripMarks removes combining marks after decomposition ("café" → "cafe").
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeText prepares raw document text for tokenization: invalid UTF-8 is replaced,
// compatibility forms are folded (NFKC) and typographic quotes and dashes become ASCII.
func NormalizeText(text string) string {
	text = strings.ToValidUTF8(text, " ")
	text = norm.NFKC.String(text)
	return typographic.Replace(text)
}

var typographic = strings.NewReplacer(
	"‘", "'", "’", "'", "“", "\"", "”", "\"",
	"–", " ", "—", " ", "•", " ", "·", " ",
)

// NormalizeTerm returns a comparison form of term: accents stripped and TermKey applied.
// Used where accent-insensitive matching is wanted, e.g. against reference titles.
func NormalizeTerm(term string) string {
	stripped, _, err := transform.String(stripMarks, term)
	if err != nil {
		stripped = term
	}
	return types.TermKey(stripped)
}
