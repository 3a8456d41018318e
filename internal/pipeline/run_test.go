package pipeline

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-matcher/internal/categorize"
	"github.com/jonathan/resume-matcher/internal/esco"
	"github.com/jonathan/resume-matcher/internal/parsing"
	"github.com/jonathan/resume-matcher/internal/types"
)

const (
	sampleJob    = "We need Java, SQL and AWS experience. Docker is a plus."
	sampleResume = "I know java and sql, and I ship Docker images."
)

type fakeValidator struct {
	mu      sync.Mutex
	records map[string]types.ValidationRecord
	err     error
	block   bool
	got     []string
}

func (f *fakeValidator) ValidateBatch(ctx context.Context, terms []string) (*esco.BatchResult, error) {
	f.mu.Lock()
	f.got = append([]string{}, terms...)
	f.mu.Unlock()

	res := &esco.BatchResult{Records: map[string]types.ValidationRecord{}}
	if f.block {
		<-ctx.Done()
		return res, fmt.Errorf("validation stage stopped: %w", ctx.Err())
	}
	for _, t := range terms {
		key := types.TermKey(t)
		rec, ok := f.records[key]
		if !ok {
			rec = types.ValidationRecord{Term: t, MatchedCategory: types.Uncategorized, Suggestions: []string{}}
		}
		res.Records[key] = rec
	}
	return res, f.err
}

func validated(term string, c types.Category) types.ValidationRecord {
	return types.ValidationRecord{Term: term, IsValidated: true, Confidence: 1, MatchedCategory: c, Suggestions: []string{}}
}

func categorizeResult(sets map[types.Category][]string, uncategorized ...string) categorize.Result {
	res := categorize.Result{
		Categories:    types.NewCategorySet(),
		Uncategorized: uncategorized,
		Assignments:   map[string]categorize.Assignment{},
	}
	for c, terms := range sets {
		for _, term := range terms {
			res.Categories.Add(c, term)
		}
	}
	return res
}

func basicOptions() Options {
	opts := DefaultOptions()
	opts.ValidationEnabled = false
	return opts
}

func TestScan_EmptyInput(t *testing.T) {
	tests := []struct {
		name     string
		jd       string
		resume   string
		document string
	}{
		{name: "empty job description", jd: "", resume: sampleResume, document: DocumentJob},
		{name: "whitespace resume", jd: sampleJob, resume: " \n\t ", document: DocumentResume},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScanner(basicOptions(), nil, nil, nil, nil)
			report, err := s.Scan(context.Background(), tt.jd, tt.resume)
			require.Error(t, err)
			assert.Nil(t, report)

			var inputErr *InputError
			require.True(t, errors.As(err, &inputErr))
			assert.Equal(t, tt.document, inputErr.Document)
		})
	}
}

func TestScan_BasicKeywordSets(t *testing.T) {
	s := NewScanner(basicOptions(), nil, nil, nil, nil)

	report, err := s.Scan(context.Background(), sampleJob, sampleResume)
	require.NoError(t, err)

	hard := report.Result.PerCategory[types.HardSkills]
	assert.Equal(t, []string{"Java", "SQL"}, hard.MatchedTerms)
	assert.Equal(t, []string{"AWS"}, hard.MissingTerms)

	tools := report.Result.PerCategory[types.Tools]
	assert.Equal(t, []string{"Docker"}, tools.MatchedTerms)

	assert.NotEmpty(t, report.Result.ScanID)
	assert.GreaterOrEqual(t, report.Result.TotalScore, 0)
	assert.LessOrEqual(t, report.Result.TotalScore, 100)
	assert.False(t, report.JobDescription.Validated)
	assert.Zero(t, report.Result.QualityMetrics.EscoValidationRate)
	assert.Empty(t, report.Warnings)
}

func TestScan_ServiceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	client := esco.NewClient(esco.ClientConfig{BaseURL: baseURL, Timeout: time.Second}, nil, nil)
	validator := esco.NewValidator(client, esco.NewCaches(esco.DefaultSearchTTL, esco.DefaultValidationTTL), esco.DefaultConfig(), nil, nil)

	withService, err := NewScanner(DefaultOptions(), nil, validator, nil, nil).Scan(context.Background(), sampleJob, sampleResume)
	require.NoError(t, err)
	basic, err := NewScanner(basicOptions(), nil, nil, nil, nil).Scan(context.Background(), sampleJob, sampleResume)
	require.NoError(t, err)

	assert.Equal(t, basic.Result.TotalScore, withService.Result.TotalScore)
	assert.Zero(t, withService.Result.QualityMetrics.EscoValidationRate)
	assert.False(t, withService.JobDescription.Validated)
	require.Len(t, withService.Warnings, 1)
	assert.Contains(t, withService.Warnings[0], "unavailable")
}

func TestScan_ValidationRecategorizes(t *testing.T) {
	fv := &fakeValidator{records: map[string]types.ValidationRecord{
		"java":    validated("Java", types.HardSkills),
		"docker":  validated("Docker", types.HardSkills),
		"zorblax": validated("Zorblax", types.Tools),
	}}
	s := NewScanner(DefaultOptions(), nil, fv, nil, nil)

	report, err := s.Scan(context.Background(), sampleJob+" Zorblax daily.", sampleResume+" Zorblax too.")
	require.NoError(t, err)

	jd := report.JobDescription
	assert.True(t, jd.Validated)
	assert.True(t, jd.Categories.Contains(types.HardSkills, "Docker"))
	assert.False(t, jd.Categories.Contains(types.Tools, "Docker"))
	assert.True(t, jd.Categories.Contains(types.Tools, "Zorblax"))
	assert.NotContains(t, jd.Uncategorized, "Zorblax")
	assert.True(t, jd.IsTermValidated("java"))

	tools := report.Result.PerCategory[types.Tools]
	assert.Equal(t, []string{"Zorblax"}, tools.MatchedTerms)
	assert.Greater(t, report.Result.QualityMetrics.EscoValidationRate, 0.0)

	// the validator saw the union of both documents
	assert.Contains(t, fv.got, "Zorblax")
	assert.Contains(t, fv.got, "AWS")
}

func TestScan_PartialFailuresWarn(t *testing.T) {
	fv := &fakeValidator{records: map[string]types.ValidationRecord{}}
	s := NewScanner(DefaultOptions(), nil, &countingValidator{fakeValidator: fv, failed: 2}, nil, nil)

	report, err := s.Scan(context.Background(), sampleJob, sampleResume)
	require.NoError(t, err)
	assert.True(t, report.JobDescription.Validated)
	assert.Equal(t, []string{"2 terms could not be validated"}, report.Warnings)
}

type countingValidator struct {
	*fakeValidator
	failed int
}

func (c *countingValidator) ValidateBatch(ctx context.Context, terms []string) (*esco.BatchResult, error) {
	res, err := c.fakeValidator.ValidateBatch(ctx, terms)
	if res != nil {
		res.Failed = c.failed
	}
	return res, err
}

func TestScan_ValidationTimeoutDegrades(t *testing.T) {
	opts := DefaultOptions()
	opts.StageTimeout = 20 * time.Millisecond
	s := NewScanner(opts, nil, &fakeValidator{block: true}, nil, nil)

	report, err := s.Scan(context.Background(), sampleJob, sampleResume)
	require.NoError(t, err)
	assert.False(t, report.Resume.Validated)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], "timed out")
}

func TestScan_ContextCancelled(t *testing.T) {
	s := NewScanner(DefaultOptions(), nil, &fakeValidator{block: true}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Scan(ctx, sampleJob, sampleResume)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScan_ProgressAndDeterminism(t *testing.T) {
	var mu sync.Mutex
	var stages []string
	opts := DefaultOptions()
	opts.OnProgress = func(e ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		stages = append(stages, e.Stage)
	}
	fv := &fakeValidator{records: map[string]types.ValidationRecord{"java": validated("Java", types.HardSkills)}}
	s := NewScanner(opts, nil, fv, nil, nil)

	first, err := s.Scan(context.Background(), sampleJob, sampleResume)
	require.NoError(t, err)
	second, err := s.Scan(context.Background(), sampleJob, sampleResume)
	require.NoError(t, err)

	assert.NotEqual(t, first.Result.ScanID, second.Result.ScanID)
	first.Result.ScanID, second.Result.ScanID = "", ""
	assert.Equal(t, first, second)
	assert.Equal(t, []string{StageExtract, StageRank, StageValidate, StageImportance, StageScore}, stages[:5])
}

func TestScanner_Keywords(t *testing.T) {
	fv := &fakeValidator{records: map[string]types.ValidationRecord{"aws": validated("AWS", types.HardSkills)}}
	s := NewScanner(DefaultOptions(), nil, fv, nil, nil)

	kw, warnings, err := s.Keywords(context.Background(), sampleJob)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	assert.Equal(t, []string{"AWS", "Java", "SQL"}, kw.Categories[types.HardSkills])
	assert.True(t, kw.IsTermValidated("aws"))

	_, _, err = s.Keywords(context.Background(), "   ")
	var inputErr *InputError
	assert.True(t, errors.As(err, &inputErr))
}

func TestMergeTerms(t *testing.T) {
	a := parsing.Extraction{Terms: []string{"Go", "Kafka"}, Frequencies: map[string]int{"go": 2, "kafka": 1}}
	b := parsing.Extraction{Terms: []string{"go", "Rust"}, Frequencies: map[string]int{"go": 3, "rust": 1}}

	universe, freq := mergeTerms(a, b)
	assert.Equal(t, []string{"Go", "Kafka", "Rust"}, universe)
	assert.Equal(t, map[string]int{"go": 5, "kafka": 1, "rust": 1}, freq)
}

func TestEnrich_NonValidatedRecordsNeverMoveTerms(t *testing.T) {
	doc := documentTerms{
		extraction: parsing.Extraction{Terms: []string{"Docker", "Frobnicate"}},
		categorized: categorizeResult(map[types.Category][]string{types.Tools: {"Docker"}}, "Frobnicate"),
	}
	v := validation{applied: true, records: map[string]types.ValidationRecord{
		"docker":     {Term: "Docker", Confidence: 0.5, MatchedCategory: types.HardSkills},
		"frobnicate": {Term: "Frobnicate", Confidence: 0.6, MatchedCategory: types.SoftSkills},
	}}

	kw := enrich(doc, v)
	assert.Equal(t, []string{"Docker"}, kw.Categories[types.Tools])
	assert.Empty(t, kw.Categories[types.HardSkills])
	assert.Equal(t, []string{"Frobnicate"}, kw.Uncategorized)
	assert.Len(t, kw.Validation, 2)

	basic := enrich(doc, validation{})
	assert.Nil(t, basic.Validation)
	assert.False(t, basic.Validated)
}

func TestScan_WithProgressContext(t *testing.T) {
	var stages []string
	ctx := WithProgress(context.Background(), func(e ProgressEvent) {
		stages = append(stages, e.Stage)
	})

	_, err := NewScanner(basicOptions(), nil, nil, nil, nil).Scan(ctx, sampleJob, sampleResume)
	require.NoError(t, err)
	assert.Equal(t, []string{StageExtract, StageImportance, StageScore}, stages)
}

func TestScan_IdenticalDocumentsScoreHigh(t *testing.T) {
	doc := "Experience with Google Cloud and Amazon Web Services"
	report, err := NewScanner(basicOptions(), nil, nil, nil, nil).Scan(context.Background(), doc, doc)
	require.NoError(t, err)

	hard := report.Result.PerCategory[types.HardSkills]
	assert.Equal(t, []string{"AWS", "GCP"}, hard.MatchedTerms)
	assert.InDelta(t, 1.0, hard.ImportanceScore, 1e-9)
	assert.GreaterOrEqual(t, report.Result.TotalScore, 85)
	assert.Equal(t, types.LevelExcellent, report.Result.Level)
}

func TestScan_DocumentTimeoutDegrades(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	opts := basicOptions()
	opts.DocumentTimeout = 200 * time.Millisecond
	s := NewScanner(opts, nil, nil, nil, nil)
	s.extract = func(text string, o parsing.Options) (parsing.Extraction, error) {
		if text == sampleResume {
			<-release
		}
		return parsing.ExtractStrict(text, o)
	}

	report, err := s.Scan(context.Background(), sampleJob, sampleResume)
	require.NoError(t, err)
	require.NotNil(t, report)

	assert.Equal(t, []string{DocumentResume + " extraction timed out; no terms were used from it"}, report.Warnings)
	assert.Zero(t, report.Resume.Categories.Total())
	assert.Empty(t, report.Resume.Uncategorized)
	assert.True(t, report.JobDescription.Categories.Contains(types.HardSkills, "Java"))
	assert.Empty(t, report.Result.PerCategory[types.HardSkills].MatchedTerms)
}

func TestAnalyzeDocument_ExtractionErrorIsFatal(t *testing.T) {
	s := NewScanner(basicOptions(), nil, nil, nil, nil)
	s.extract = func(string, parsing.Options) (parsing.Extraction, error) {
		return parsing.Extraction{}, &parsing.ExtractionError{Message: "boom"}
	}

	_, err := s.Scan(context.Background(), sampleJob, sampleResume)
	require.Error(t, err)
	var exErr *parsing.ExtractionError
	assert.True(t, errors.As(err, &exErr))
}
