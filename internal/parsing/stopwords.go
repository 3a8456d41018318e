package parsing

import "strings"

var englishStopWords = wordSet(`
a about above after again against all also am an and any are aren't as at be because been before
being below between both but by can cannot could couldn't did didn't do does doesn't doing don't
down during each etc e.g eg few for from further get had hadn't has hasn't have haven't having he
her here hers herself him himself his how i i.e ie if in into is isn't it it's its itself just let
like make may me more most must my myself new no nor not now of off on once one only or other our
ours ourselves out over own per plus same she should so some such than that the their theirs them
themselves then there these they this those through to too under until up upon us use used using
very via was we well were what when where which while who whom why will with within without would
you your yours yourself yourselves
ability able across ago along already among another around based being best both candidate
candidates company day days desired do etc excellent experience experienced good great help ideal
including join looking minimum must-have nice plus position preferred qualifications related
required requirements responsibilities role seeking skills strong team work working year years
`)

var stopWordsByLanguage = map[string]map[string]bool{
	"english": englishStopWords,
	"en":      englishStopWords,
}

func wordSet(words string) map[string]bool {
	fields := strings.Fields(words)
	set := make(map[string]bool, len(fields))
	for _, w := range fields {
		set[w] = true
	}
	return set
}

// IsStopWord reports whether term is a stop word for language. Unknown languages fall
// back to English.
func IsStopWord(term, language string) bool {
	words, ok := stopWordsByLanguage[strings.ToLower(language)]
	if !ok {
		words = englishStopWords
	}
	return words[strings.ToLower(strings.TrimSpace(term))]
}
