package ranking

import (
	"math"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/jonathan/resume-matcher/internal/parsing"
)

// Priority bonuses and penalties
const (
	lengthPeak          = 9
	lengthBonusMax      = 10.0
	lengthFalloff       = 0.5
	outOfRangeLength    = 2.0
	properCaseBonus     = 5.0
	acronymBonus        = 8.0
	compoundFormBonus   = 6.0
	ingSuffixBonus      = 4.0
	knownTechBonus      = 15.0
	frequencyMultiplier = 2.0
	frequencyCap        = 10.0
	numericPenalty      = -20.0
	shortPenalty        = -10.0
	noiseCharPenalty    = -5.0
	stopWordPenalty     = -15.0
)

var (
	acronymRe  = regexp.MustCompile(`^[A-Z]{2,6}$`)
	numericRe  = regexp.MustCompile(`^[\d.,]+$`)
	compoundRe = regexp.MustCompile(`^[\p{L}\d]+([-.][\p{L}\d]+)+$`)
)

// computeLengthScore peaks at lengthPeak runes inside the 3-15 sweet spot.
func computeLengthScore(n int) float64 {
	if n < 3 || n > 15 {
		return outOfRangeLength
	}
	return lengthBonusMax - math.Abs(float64(n-lengthPeak))*lengthFalloff
}

// computeFormatScore rewards shapes typical of skills and technologies.
func computeFormatScore(term string) float64 {
	score := 0.0
	if isProperCase(term) {
		score += properCaseBonus
	}
	if acronymRe.MatchString(term) {
		score += acronymBonus
	}
	if compoundRe.MatchString(term) {
		score += compoundFormBonus
	}
	if utf8.RuneCountInString(term) > 5 && strings.HasSuffix(strings.ToLower(term), "ing") {
		score += ingSuffixBonus
	}
	return score
}

// computeFrequencyScore is capped so a repeated filler word cannot dominate.
func computeFrequencyScore(freq int) float64 {
	return math.Min(frequencyMultiplier*float64(freq), frequencyCap)
}

// computePenalty sums every penalty that applies to term.
func computePenalty(term, language string) float64 {
	penalty := 0.0
	if numericRe.MatchString(term) {
		penalty += numericPenalty
	}
	if utf8.RuneCountInString(term) < 3 {
		penalty += shortPenalty
	}
	if hasNoiseChars(term) {
		penalty += noiseCharPenalty
	}
	if parsing.IsStopWord(term, language) {
		penalty += stopWordPenalty
	}
	return penalty
}

func isProperCase(term string) bool {
	first, size := utf8.DecodeRuneInString(term)
	if !unicode.IsUpper(first) {
		return false
	}
	for _, r := range term[size:] {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}

func hasNoiseChars(term string) bool {
	for _, r := range term {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			continue
		}
		if strings.ContainsRune("-.+#/", r) {
			continue
		}
		return true
	}
	return false
}
