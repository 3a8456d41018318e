package parsing

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_RemovesNoise(t *testing.T) {
	text := `The role starts in 2023. Apply by 12/31 to jobs@example.com or call 555-123-4567.
	A B c x. Visit https://example.com/careers on Monday, 1st of March. Experience with Kubernetes required.`

	got := Extract(text, DefaultOptions())

	for _, noise := range []string{"2023", "12/31", "the", "The", "A", "B", "c", "x",
		"jobs@example.com", "555-123-4567", "https", "Monday", "1st", "March"} {
		assert.NotContains(t, got.Terms, noise)
	}
	assert.Contains(t, got.Terms, "Kubernetes")
	assert.Contains(t, got.Terms, "Apply")
}

func TestExtract_StandardizesAliases(t *testing.T) {
	got := Extract("We use js, JavaScript and ECMAScript with golang and k8s.", DefaultOptions())

	assert.Contains(t, got.Terms, "JavaScript")
	assert.Contains(t, got.Terms, "Go")
	assert.Contains(t, got.Terms, "Kubernetes")
	assert.NotContains(t, got.Terms, "js")
	assert.Equal(t, 3, got.Frequencies["javascript"])
}

func TestExtract_CanonicalShortTermsSurvive(t *testing.T) {
	got := Extract("Go and C++ services; we go fast.", DefaultOptions())

	assert.Contains(t, got.Terms, "Go")
	assert.Contains(t, got.Terms, "C++")
	assert.Equal(t, 1, got.Frequencies["go"])
}

func TestExtract_MergesCompounds(t *testing.T) {
	got := Extract("Full stack engineer with machine learning background.", DefaultOptions())

	assert.Contains(t, got.Terms, "full-stack")
	assert.Contains(t, got.Terms, "Machine Learning")
	for _, part := range []string{"Full", "stack", "machine", "learning"} {
		assert.NotContains(t, got.Terms, part)
	}
	assert.Equal(t, 1, got.Frequencies["full-stack"])
}

func TestCompoundParts(t *testing.T) {
	assert.Equal(t, [][]string{{"google", "cloud"}}, CompoundParts("GCP"))
	assert.Equal(t, [][]string{{"amazon", "web", "services"}}, CompoundParts("aws"))
	assert.Equal(t, [][]string{{"full", "stack"}}, CompoundParts("Full-Stack"))
	assert.Nil(t, CompoundParts("Kafka"))
}

func TestExtract_CompoundDoesNotReviveNoise(t *testing.T) {
	// "end" is removed when the minimum length excludes it, so front-end is never formed
	opts := DefaultOptions()
	opts.MinLength = 4
	got := Extract("front end work", opts)

	assert.NotContains(t, got.Terms, "front-end")
	assert.Contains(t, got.Terms, "front")
}

func TestExtract_LengthBounds(t *testing.T) {
	opts := DefaultOptions()
	opts.MaxLength = 8
	got := Extract("Terraform Kafka Elasticsearch", opts)

	assert.Contains(t, got.Terms, "Kafka")
	assert.Contains(t, got.Terms, "Terraform")
	assert.NotContains(t, got.Terms, "Elasticsearch")
}

func TestExtract_DeduplicatesAndSorts(t *testing.T) {
	got := Extract("Kafka kafka KAFKA Docker Ansible", DefaultOptions())

	assert.Equal(t, []string{"Ansible", "Docker", "Kafka"}, got.Terms)
	assert.Equal(t, 3, got.Frequencies["kafka"])
}

func TestExtract_SplitsSlashJoinedWords(t *testing.T) {
	got := Extract("Python/Django and CI/CD pipelines", DefaultOptions())

	assert.Contains(t, got.Terms, "Python")
	assert.Contains(t, got.Terms, "Django")
	assert.Contains(t, got.Terms, "CI/CD")
}

func TestExtract_EmptyInput(t *testing.T) {
	for _, text := range []string{"", "   ", "the and of 2023"} {
		got := Extract(text, DefaultOptions())
		assert.Empty(t, got.Terms)
		assert.NotNil(t, got.Frequencies)
	}
}

func TestExtractStrict_InvalidBounds(t *testing.T) {
	_, err := ExtractStrict("Java", Options{MinLength: 5, MaxLength: 2})
	require.Error(t, err)

	var extractionErr *ExtractionError
	assert.True(t, errors.As(err, &extractionErr))

	got := Extract("Java", Options{MinLength: 5, MaxLength: 2})
	assert.Empty(t, got.Terms)
}

func TestClassify(t *testing.T) {
	opts := DefaultOptions()
	tests := []struct {
		token string
		want  NoiseReason
	}{
		{"2023", NoiseYear},
		{"1990s", NoiseYear},
		{"12345", NoiseNumeric},
		{"12/31", NoiseDate},
		{"2024-01-15", NoiseDate},
		{"555-123-4567", NoisePhone},
		{"$120k", NoiseNumeric},
		{"jane@example.com", NoiseEmail},
		{"www.example.com", NoiseURL},
		{"Monday", NoiseCalendar},
		{"Sept", NoiseCalendar},
		{"21st", NoiseOrdinal},
		{"the", NoiseStopWord},
		{"VIII", NoiseRoman},
		{"ab", NoiseTooShort},
		{"x", NoiseTooShort},
		{"Supercalifragilisticexpialidocious", NoiseTooLong},
		{"a1b22c33", NoiseLetterRatio},
		{"CLI", NoiseNone},
		{"Kafka", NoiseNone},
		{"Go", NoiseNone},
		{"C++", NoiseNone},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.token, opts))
		})
	}
}

func TestIsStopWord_FallsBackToEnglish(t *testing.T) {
	assert.True(t, IsStopWord("The", "english"))
	assert.True(t, IsStopWord("with", "klingon"))
	assert.False(t, IsStopWord("Kafka", "english"))
}
