package skills

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeImportance_MaxAcrossDocuments(t *testing.T) {
	jd := "Java developer. Java and SQL."
	resume := "SQL expert"

	imp := ComputeImportance([]string{jd, resume}, []string{"Java", "SQL", "Rust"})

	idfOne := math.Log(3.0/2.0) + 1
	assert.InDelta(t, 0.4*idfOne, imp.Of("java"), 1e-9)
	// present in both documents: idf is 1 and the larger TF wins, not the sum
	assert.InDelta(t, 0.5, imp.Of("SQL"), 1e-9)
	assert.Zero(t, imp.Of("Rust"))
}

func TestComputeImportance_TermInBothDocumentsIsNonZero(t *testing.T) {
	imp := ComputeImportance([]string{"Kafka Kafka", "Kafka"}, []string{"Kafka"})
	assert.Greater(t, imp.Of("Kafka"), 0.0)
}

func TestComputeImportance_CountsAliasSpellings(t *testing.T) {
	imp := ComputeImportance([]string{"js and JavaScript", "Python"}, []string{"JavaScript"})

	idf := math.Log(3.0/2.0) + 1
	assert.InDelta(t, 2.0/3.0*idf, imp.Of("javascript"), 1e-9)
}

func TestComputeImportance_HyphenatedCompound(t *testing.T) {
	imp := ComputeImportance([]string{"full stack developer", ""}, []string{"full-stack"})
	assert.Greater(t, imp.Of("full-stack"), 0.0)
}

func TestComputeImportance_EmptyDocuments(t *testing.T) {
	imp := ComputeImportance([]string{"", "   "}, []string{"Java", ""})
	require.Len(t, imp, 1)
	assert.Zero(t, imp.Of("Java"))
}

func TestImportance_Sorted(t *testing.T) {
	imp := Importance{"b": 0.5, "a": 0.5, "c": 0.9}
	sorted := imp.Sorted()
	require.Len(t, sorted, 3)
	assert.Equal(t, "c", sorted[0].Term)
	assert.Equal(t, "a", sorted[1].Term)
	assert.Equal(t, "b", sorted[2].Term)
}

func TestCountOccurrences_WordBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		needle string
		want   int
	}{
		{"prefix of longer word", "java javascript", "java", 1},
		{"plus suffix is part of word", "c++ and c", "c", 1},
		{"symbolic term", "c++ and c", "c++", 1},
		{"dotted term", "asp.net and .net core", ".net", 1},
		{"multi-word", "machine learning, machine-learning", "machine learning", 1},
		{"empty needle", "anything", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, countOccurrences(tt.text, tt.needle))
		})
	}
}

func TestComputeImportance_SpelledOutCompounds(t *testing.T) {
	tests := []struct {
		name string
		docs []string
		term string
	}{
		{name: "adjacent parts", docs: []string{"Experience with Google Cloud", "Google Cloud"}, term: "GCP"},
		{name: "three parts", docs: []string{"Amazon Web Services", "amazon web services"}, term: "AWS"},
		{name: "parts apart", docs: []string{"Google tools in the cloud", ""}, term: "GCP"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			imp := ComputeImportance(tt.docs, []string{tt.term})
			assert.Greater(t, imp.Of(tt.term), 0.0)
		})
	}
}

func TestComputeImportance_CompoundCountsRarestPart(t *testing.T) {
	// google occurs twice, cloud once: one GCP occurrence out of four tokens
	imp := ComputeImportance([]string{"google google cloud run", ""}, []string{"GCP"})

	idf := math.Log(3.0/2.0) + 1
	assert.InDelta(t, 0.25*idf, imp.Of("gcp"), 1e-9)
}
