package parsing

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	pureDigitsRe = regexp.MustCompile(`^\d+$`)
	yearRe       = regexp.MustCompile(`^(19|20)\d{2}s?$`)
	dateRe       = regexp.MustCompile(`^\d{1,4}[/.\-]\d{1,2}([/.\-]\d{1,4})?$`)
	phoneRe      = regexp.MustCompile(`^\+?\(?\d{1,4}\)?([\s.\-]?\d{2,4}){2,4}$`)
	emailRe      = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[a-zA-Z]{2,}$`)
	urlRe        = regexp.MustCompile(`(?i)^(https?://|www\.)`)
	ordinalRe    = regexp.MustCompile(`(?i)^\d+(st|nd|rd|th)$`)
	romanRe      = regexp.MustCompile(`^X{0,3}(IX|IV|V?I{0,3})$`)
	numericish   = regexp.MustCompile(`^[\d.,%$€£+\-/:]+[kKmM]?$`)
)

var calendarWords = wordSet(`
january february march april may june july august september october november december
jan feb mar apr jun jul aug sep sept oct nov dec
monday tuesday wednesday thursday friday saturday sunday
mon tue tues wed thu thur thurs fri sat sun
`)

// NoiseReason names the rule that rejected a token, or "" when the token is kept.
type NoiseReason string

// Reasons reported by Classify.
const (
	NoiseNone        NoiseReason = ""
	NoiseTooShort    NoiseReason = "too_short"
	NoiseTooLong     NoiseReason = "too_long"
	NoiseNumeric     NoiseReason = "numeric"
	NoiseYear        NoiseReason = "year"
	NoiseDate        NoiseReason = "date"
	NoisePhone       NoiseReason = "phone"
	NoiseEmail       NoiseReason = "email"
	NoiseURL         NoiseReason = "url"
	NoiseCalendar    NoiseReason = "calendar"
	NoiseOrdinal     NoiseReason = "ordinal"
	NoiseRoman       NoiseReason = "roman_numeral"
	NoiseStopWord    NoiseReason = "stop_word"
	NoiseLetterRatio NoiseReason = "letter_ratio"
)

// Classify returns why token would be dropped by the noise filter. Length, numeral and
// letter-ratio rules are skipped for exact canonical spellings such as "Go" or "C++".
func Classify(token string, opts Options) NoiseReason {
	lower := strings.ToLower(token)
	switch {
	case pureDigitsRe.MatchString(token):
		if yearRe.MatchString(token) {
			return NoiseYear
		}
		return NoiseNumeric
	case yearRe.MatchString(token):
		return NoiseYear
	case dateRe.MatchString(token):
		return NoiseDate
	case phoneRe.MatchString(token):
		return NoisePhone
	case numericish.MatchString(token):
		return NoiseNumeric
	case emailRe.MatchString(token):
		return NoiseEmail
	case urlRe.MatchString(token):
		return NoiseURL
	case ordinalRe.MatchString(token):
		return NoiseOrdinal
	case calendarWords[lower]:
		return NoiseCalendar
	case IsStopWord(lower, opts.Language):
		return NoiseStopWord
	}

	if isCanonicalSpelling(token) {
		return NoiseNone
	}

	n := utf8.RuneCountInString(token)
	if n < opts.MinLength {
		return NoiseTooShort
	}
	if n > opts.MaxLength {
		return NoiseTooLong
	}
	if romanRe.MatchString(token) {
		return NoiseRoman
	}
	if letterRatio(token) < 0.5 {
		return NoiseLetterRatio
	}
	return NoiseNone
}

// IsNoise reports whether token is rejected by the noise filter.
func IsNoise(token string, opts Options) bool {
	return Classify(token, opts) != NoiseNone
}

func letterRatio(s string) float64 {
	total, letters := 0, 0
	for _, r := range s {
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}
