package categorize

import (
	"regexp"

	"github.com/jonathan/resume-matcher/internal/types"
)

// patternRule infers a category from the shape of a term when no dictionary matched.
type patternRule struct {
	category types.Category
	patterns []*regexp.Regexp
}

// patternRules are evaluated in order against the lower-cased term; the first rule set
// with a matching pattern wins.
var patternRules = []patternRule{
	{types.JobTitles, compile(
		`(^|[\s-])(developer|engineer|manager|lead|architect|analyst|designer|consultant|scientist|director|specialist|administrator|coordinator|intern|officer|programmer)$`,
		`^(senior|junior|lead|principal|staff|chief|head)\s`,
	)},
	{types.Certifications, compile(
		`certifi(ed|cation)`,
		`^(aws|azure|google|oracle|microsoft|cisco|comptia)[\s-].*(associate|professional|expert|practitioner|specialist)$`,
		`licen[sc]ed?$`,
	)},
	{types.Tools, compile(
		`(^|[\s-])(studio|ide|suite|editor|console|toolkit|sdk|cli)$`,
	)},
	{types.SoftSkills, compile(
		`(minded|oriented|motivated|driven)$`,
		`^(self|team|detail|results|customer)[\s-]`,
		`(leader|owner|mentor)ship$`,
	)},
	{types.HardSkills, compile(
		`(ql|script|lang|\.js|db)$`,
		`^(data|cloud|web|mobile|api)[\s-]`,
		`(scal|avail|reli|observ)ability$`,
		`(programming|development|engineering|testing|analytics|architecture|modeling|modelling|security|design)$`,
	)},
}

func compile(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}

func inferByPattern(key string) (types.Category, bool) {
	for _, rule := range patternRules {
		for _, re := range rule.patterns {
			if re.MatchString(key) {
				return rule.category, true
			}
		}
	}
	return types.Uncategorized, false
}
