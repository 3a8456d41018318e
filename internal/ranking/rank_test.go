package ranking

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTech map[string]bool

func (f fakeTech) IsKnownTechnology(term string) bool { return f[strings.ToLower(term)] }

func TestRanker_Score(t *testing.T) {
	r := NewRanker(fakeTech{"aws": true}, "")

	tests := []struct {
		term string
		freq int
		want float64
	}{
		{"Kafka", 1, 15},
		{"AWS", 0, 30},
		{"Node.js", 0, 20},
		{"Engineering", 0, 18},
		{"2023", 0, -12.5},
		{"the", 3, -2},
		{"x", 0, -8},
	}
	for _, tt := range tests {
		t.Run(tt.term, func(t *testing.T) {
			assert.InDelta(t, tt.want, r.Score(tt.term, tt.freq), 1e-9)
		})
	}
}

func TestRanker_RankOrdersByScoreWithStableTies(t *testing.T) {
	r := NewRanker(fakeTech{"aws": true}, "english")

	ranked := r.Rank([]string{"bbbbb", "the", "AWS", "aaaaa"}, map[string]int{"the": 3})
	require.Len(t, ranked, 4)

	assert.Equal(t, "AWS", ranked[0].Term)
	assert.Equal(t, "bbbbb", ranked[1].Term)
	assert.Equal(t, "aaaaa", ranked[2].Term)
	assert.Equal(t, "the", ranked[3].Term)
	assert.Equal(t, 3, ranked[3].Frequency)
}

func TestRanker_RankIsDeterministic(t *testing.T) {
	r := NewRanker(nil, "english")
	terms := []string{"Go", "Kafka", "kafka-streams", "Leadership", "SQL", "testing", "2020"}

	first := r.Rank(terms, nil)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, r.Rank(terms, nil))
	}
}

func TestRanker_RankForValidation(t *testing.T) {
	r := NewRanker(nil, "english")
	terms := []string{"the", "Kafka", "AWS", "2023", "Postgres"}

	top := r.RankForValidation(terms, map[string]int{"kafka": 5}, 2)
	assert.Equal(t, []string{"Kafka", "AWS"}, top)

	all := r.RankForValidation(terms, nil, 0)
	assert.Len(t, all, len(terms))
}

func TestRanker_RankForValidationDefaultLimit(t *testing.T) {
	r := NewRanker(nil, "english")
	terms := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		terms = append(terms, strings.Repeat("k", 3+i%10))
	}
	assert.Len(t, r.RankForValidation(terms, nil, 0), DefaultLimit)
}
