package categorize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-matcher/internal/types"
)

func TestMatcher_Classify(t *testing.T) {
	m := NewMatcher(nil)

	tests := []struct {
		term     string
		category types.Category
		tier     Tier
	}{
		{"aws", types.HardSkills, TierExact},
		{"GraphQL", types.HardSkills, TierExact},
		{"Leadership", types.SoftSkills, TierExact},
		{"PMP", types.Certifications, TierExact},
		{"docker", types.Tools, TierExact},
		{"Senior Software Engineer", types.JobTitles, TierSubstring},
		{"Android Developer", types.JobTitles, TierSubstring},
		{"Kubernets", types.Tools, TierFuzzy},
		{"Javascrpt", types.HardSkills, TierFuzzy},
		{"Yoga Certified", types.Certifications, TierPattern},
		{"Android Studio", types.Tools, TierPattern},
		{"Detail-oriented", types.SoftSkills, TierPattern},
		{"DynamoDB", types.HardSkills, TierPattern},
		{"Blorptastic", types.Uncategorized, TierNone},
		{"Engineering", types.HardSkills, TierPattern},
	}

	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			got := m.Classify(tt.term)
			assert.Equal(t, tt.category, got.Category)
			assert.Equal(t, tt.tier, got.Tier)
		})
	}
}

func TestMatcher_Categorize(t *testing.T) {
	m := NewMatcher(nil)

	res := m.Categorize([]string{"SQL", "Java", "aws", "AWS", "Teamwork", "Blorptastic", "Docker", "Zyzzyva"})

	assert.Equal(t, []string{"aws", "Java", "SQL"}, res.Categories[types.HardSkills])
	assert.Equal(t, []string{"Teamwork"}, res.Categories[types.SoftSkills])
	assert.Equal(t, []string{"Docker"}, res.Categories[types.Tools])
	assert.Empty(t, res.Categories[types.JobTitles])
	assert.Equal(t, []string{"Blorptastic", "Zyzzyva"}, res.Uncategorized)
	assert.Equal(t, TierExact, res.Assignments["aws"].Tier)
	assert.Len(t, res.Assignments, 7)
}

func TestMatcher_CategorizeIsIdempotent(t *testing.T) {
	m := NewMatcher(nil)
	input := []string{"Kubernets", "Python", "Team Lead", "python", "Scrum Master", "Blorp", "Communication"}

	first := m.Categorize(input)
	second := m.Categorize(input)
	require.Equal(t, first, second)

	// feeding the categorized terms back in places them identically
	var flattened []string
	for _, c := range types.AllCategories {
		flattened = append(flattened, first.Categories[c]...)
	}
	flattened = append(flattened, first.Uncategorized...)
	again := m.Categorize(flattened)
	assert.Equal(t, first.Categories, again.Categories)
	assert.Equal(t, first.Uncategorized, again.Uncategorized)
}

func TestMatcher_AssignsAtMostOneCategory(t *testing.T) {
	m := NewMatcher(nil)
	res := m.Categorize([]string{"Scrum Master", "Scrum", "Linux", "Linux Administration"})

	seen := map[string]types.Category{}
	for _, c := range types.AllCategories {
		for _, term := range res.Categories[c] {
			key := types.TermKey(term)
			_, dup := seen[key]
			assert.False(t, dup, "term %q placed twice", term)
			seen[key] = c
		}
	}
	assert.Equal(t, types.JobTitles, seen["scrum master"])
	assert.Equal(t, types.HardSkills, seen["scrum"])
	assert.Equal(t, types.Tools, seen["linux"])
}

func TestMatcher_CustomDictionary(t *testing.T) {
	m := NewMatcher(Dictionary{types.Tools: {"Blorptastic"}})

	assert.Equal(t, types.Tools, m.Classify("blorptastic").Category)
	assert.Equal(t, types.Uncategorized, m.Classify("Java").Category)
}

func TestMatcher_IsKnownTechnology(t *testing.T) {
	m := NewMatcher(nil)

	assert.True(t, m.IsKnownTechnology("Java"))
	assert.True(t, m.IsKnownTechnology("terraform"))
	assert.True(t, m.IsKnownTechnology("TypeScript"))
	assert.False(t, m.IsKnownTechnology("Leadership"))
	assert.False(t, m.IsKnownTechnology("Blorptastic"))
	assert.True(t, m.IsKnown(types.SoftSkills, "leadership"))
}

func TestSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, Similarity("", ""), 1e-9)
	assert.InDelta(t, 1.0, Similarity("java", "java"), 1e-9)
	assert.InDelta(t, 0.9, Similarity("kubernets", "kubernetes"), 1e-9)
	assert.InDelta(t, 0.0, Similarity("abc", ""), 1e-9)
	assert.InDelta(t, 0.75, Similarity("café", "cafe"), 1e-9)
}

func TestContainsWords(t *testing.T) {
	assert.True(t, ContainsWords("senior software engineer", "software engineer"))
	assert.True(t, ContainsWords("react-native", "react"))
	assert.False(t, ContainsWords("engineering", "engineer"))
	assert.False(t, ContainsWords("javascript", "java"))
}
