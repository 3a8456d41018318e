// Package pipeline orchestrates a scan: extraction, categorization, validation,
// importance weighting and scoring of a resume against a job description.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-matcher/internal/categorize"
	"github.com/jonathan/resume-matcher/internal/esco"
	"github.com/jonathan/resume-matcher/internal/parsing"
	"github.com/jonathan/resume-matcher/internal/ranking"
	"github.com/jonathan/resume-matcher/internal/scoring"
	"github.com/jonathan/resume-matcher/internal/skills"
	"github.com/jonathan/resume-matcher/internal/types"
)

// Stage names reported in progress events
const (
	StageExtract    = "extract"
	StageRank       = "rank"
	StageValidate   = "validate"
	StageImportance = "importance"
	StageScore      = "score"
)

// ProgressEvent represents a progress update during a scan
type ProgressEvent struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	ScanID  string `json:"scan_id,omitempty"`
	Content any    `json:"content,omitempty"`
}

// ProgressCallback is called when scan progress occurs
type ProgressCallback func(event ProgressEvent)

// Validator validates a list of terms. *esco.Validator implements it.
type Validator interface {
	ValidateBatch(ctx context.Context, terms []string) (*esco.BatchResult, error)
}

// Recorder receives scan outcomes.
type Recorder interface {
	ScanCompleted(outcome string, elapsed time.Duration, totalScore int)
}

// Options configures a Scanner.
type Options struct {
	Extraction         parsing.Options
	ValidationEnabled  bool
	MaxValidationTerms int
	// StageTimeout bounds the whole validation stage.
	StageTimeout time.Duration
	// DocumentTimeout bounds extraction and categorization of one document.
	DocumentTimeout time.Duration
	Weights         types.ScoringWeights
	OnProgress      ProgressCallback
}

// DefaultOptions returns the stock scan settings.
func DefaultOptions() Options {
	return Options{
		Extraction:         parsing.DefaultOptions(),
		ValidationEnabled:  true,
		MaxValidationTerms: ranking.DefaultLimit,
		StageTimeout:       30 * time.Second,
		DocumentTimeout:    5 * time.Second,
		Weights:            types.DefaultScoringWeights(),
	}
}

// Scanner runs scans. It holds no per-scan state and is safe for concurrent use.
type Scanner struct {
	opts      Options
	matcher   *categorize.Matcher
	ranker    *ranking.Ranker
	scorer    *scoring.Scorer
	validator Validator
	logger    *zap.Logger
	recorder  Recorder
	extract   func(text string, opts parsing.Options) (parsing.Extraction, error)
}

// NewScanner returns a Scanner. validator, logger and recorder may be nil; without a
// validator every scan uses basic keyword sets.
func NewScanner(opts Options, matcher *categorize.Matcher, validator Validator, logger *zap.Logger, recorder Recorder) *Scanner {
	if opts.Extraction == (parsing.Options{}) {
		opts.Extraction = parsing.DefaultOptions()
	}
	if opts.MaxValidationTerms <= 0 {
		opts.MaxValidationTerms = ranking.DefaultLimit
	}
	if matcher == nil {
		matcher = categorize.NewMatcher(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		opts:      opts,
		matcher:   matcher,
		ranker:    ranking.NewRanker(matcher, opts.Extraction.Language),
		scorer:    scoring.NewScorer(opts.Weights),
		validator: validator,
		logger:    logger,
		recorder:  recorder,
		extract:   parsing.ExtractStrict,
	}
}

// documentTerms is one document after extraction and categorization.
type documentTerms struct {
	extraction  parsing.Extraction
	categorized categorize.Result
	timedOut    bool
}

// validation is the outcome of the validation stage.
type validation struct {
	records map[string]types.ValidationRecord
	applied bool
}

// Scan scores resume against jd. Validation problems never fail a scan: they degrade to
// basic keyword sets and are reported in the warnings. Empty documents return an
// *InputError.
func (s *Scanner) Scan(ctx context.Context, jd, resume string) (*types.ScanReport, error) {
	start := time.Now()
	scanID := uuid.NewString()
	logger := s.logger.With(zap.String("scan_id", scanID))

	report, err := s.scan(ctx, scanID, logger, jd, resume)
	if s.recorder != nil {
		outcome, total := "ok", 0
		switch {
		case err != nil:
			outcome = "error"
		case len(report.Warnings) > 0:
			outcome = "degraded"
		}
		if report != nil {
			total = report.Result.TotalScore
		}
		s.recorder.ScanCompleted(outcome, time.Since(start), total)
	}
	if err != nil {
		logger.Warn("scan failed", zap.Error(err))
		return nil, err
	}
	logger.Info("scan completed",
		zap.Int("total_score", report.Result.TotalScore),
		zap.String("level", string(report.Result.Level)),
		zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

func (s *Scanner) scan(ctx context.Context, scanID string, logger *zap.Logger, jd, resume string) (*types.ScanReport, error) {
	if err := checkInput(DocumentJob, jd); err != nil {
		return nil, err
	}
	if err := checkInput(DocumentResume, resume); err != nil {
		return nil, err
	}

	var warnings []string
	var warnMu sync.Mutex
	warn := func(msg string) {
		warnMu.Lock()
		warnings = append(warnings, msg)
		warnMu.Unlock()
	}

	// Both documents are extracted and categorized independently
	var jdTerms, resumeTerms documentTerms
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() error {
		terms, err := s.analyzeDocument(gCtx, DocumentJob, jd)
		if err != nil {
			return err
		}
		jdTerms = terms
		return nil
	})
	g.Go(func() error {
		terms, err := s.analyzeDocument(gCtx, DocumentResume, resume)
		if err != nil {
			return err
		}
		resumeTerms = terms
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if jdTerms.timedOut {
		warn(DocumentJob + " extraction timed out; no terms were used from it")
	}
	if resumeTerms.timedOut {
		warn(DocumentResume + " extraction timed out; no terms were used from it")
	}
	s.emit(ctx, StageExtract, scanID, fmt.Sprintf("Extracted %d job description terms and %d resume terms",
		len(jdTerms.extraction.Terms), len(resumeTerms.extraction.Terms)), nil)

	universe, freq := mergeTerms(jdTerms.extraction, resumeTerms.extraction)

	v, err := s.validate(ctx, scanID, logger, universe, freq, warn)
	if err != nil {
		return nil, err
	}

	jdKeywords := enrich(jdTerms, v)
	resumeKeywords := enrich(resumeTerms, v)

	importance := skills.ComputeImportance([]string{jd, resume}, universe)
	s.emit(ctx, StageImportance, scanID, fmt.Sprintf("Weighted %d terms", len(importance)), nil)

	result := s.scorer.Score(&jdKeywords, &resumeKeywords, importance)
	result.ScanID = scanID
	s.emit(ctx, StageScore, scanID, fmt.Sprintf("Total score %d (%s)", result.TotalScore, result.Level), result)

	return &types.ScanReport{
		Result:         result,
		JobDescription: jdKeywords,
		Resume:         resumeKeywords,
		Warnings:       warnings,
	}, nil
}

// Keywords extracts, categorizes and validates a single document.
func (s *Scanner) Keywords(ctx context.Context, text string) (*types.DocumentKeywords, []string, error) {
	if err := checkInput("document", text); err != nil {
		return nil, nil, err
	}
	scanID := uuid.NewString()
	logger := s.logger.With(zap.String("scan_id", scanID))

	doc, err := s.analyzeDocument(ctx, "document", text)
	if err != nil {
		return nil, nil, err
	}
	var warnings []string
	if doc.timedOut {
		warnings = append(warnings, "document extraction timed out; no terms were used from it")
	}
	v, err := s.validate(ctx, scanID, logger, doc.extraction.Terms, doc.extraction.Frequencies, func(msg string) {
		warnings = append(warnings, msg)
	})
	if err != nil {
		return nil, nil, err
	}
	keywords := enrich(doc, v)
	return &keywords, warnings, nil
}

func checkInput(document, text string) error {
	if strings.TrimSpace(text) == "" {
		return &InputError{Document: document, Message: "text is empty"}
	}
	return nil
}

// analyzeDocument extracts and categorizes one document within DocumentTimeout. On
// timeout the document degrades to an empty term set; extraction errors are fatal.
func (s *Scanner) analyzeDocument(ctx context.Context, name, text string) (documentTerms, error) {
	type outcome struct {
		terms documentTerms
		err   error
	}

	docCtx := ctx
	if s.opts.DocumentTimeout > 0 {
		var cancel context.CancelFunc
		docCtx, cancel = context.WithTimeout(ctx, s.opts.DocumentTimeout)
		defer cancel()
	}

	// The goroutine outlives a timeout until the running stage returns; it skips
	// categorization once docCtx is done.
	done := make(chan outcome, 1)
	go func() {
		extraction, err := s.extract(text, s.opts.Extraction)
		if err != nil {
			done <- outcome{err: fmt.Errorf("%s: %w", name, err)}
			return
		}
		if docCtx.Err() != nil {
			return
		}
		done <- outcome{terms: documentTerms{
			extraction:  extraction,
			categorized: s.matcher.Categorize(extraction.Terms),
		}}
	}()

	select {
	case out := <-done:
		return out.terms, out.err
	case <-docCtx.Done():
		if err := ctx.Err(); err != nil {
			return documentTerms{}, err
		}
		s.logger.Warn("document extraction timed out", zap.String("document", name),
			zap.Duration("timeout", s.opts.DocumentTimeout))
		return emptyDocument(), nil
	}
}

func emptyDocument() documentTerms {
	return documentTerms{
		extraction: parsing.Extraction{Terms: []string{}, Frequencies: map[string]int{}},
		categorized: categorize.Result{
			Categories:    types.NewCategorySet(),
			Uncategorized: []string{},
			Assignments:   map[string]categorize.Assignment{},
		},
		timedOut: true,
	}
}

// mergeTerms returns the candidate universe of both documents, job description first,
// with summed frequencies.
func mergeTerms(extractions ...parsing.Extraction) ([]string, map[string]int) {
	var universe []string
	freq := make(map[string]int)
	for _, ex := range extractions {
		for _, term := range ex.Terms {
			key := types.TermKey(term)
			if _, seen := freq[key]; !seen {
				universe = append(universe, term)
			}
			freq[key] += ex.Frequencies[key]
		}
	}
	return universe, freq
}

// validate ranks the universe and validates the top terms. Service failures and the
// stage timeout degrade to no validation; only cancellation of ctx itself is an error.
func (s *Scanner) validate(ctx context.Context, scanID string, logger *zap.Logger, universe []string, freq map[string]int, warn func(string)) (validation, error) {
	if !s.opts.ValidationEnabled || s.validator == nil || len(universe) == 0 {
		return validation{}, nil
	}

	selected := s.ranker.RankForValidation(universe, freq, s.opts.MaxValidationTerms)
	s.emit(ctx, StageRank, scanID, fmt.Sprintf("Selected %d of %d terms for validation", len(selected), len(universe)), selected)

	stageCtx := ctx
	if s.opts.StageTimeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, s.opts.StageTimeout)
		defer cancel()
	}

	res, err := s.validator.ValidateBatch(stageCtx, selected)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return validation{}, ctxErr
		}
		switch {
		case errors.Is(err, esco.ErrServiceUnavailable):
			warn("validation service unavailable; scored with basic keyword sets")
		case errors.Is(err, context.DeadlineExceeded):
			warn("validation timed out; scored with basic keyword sets")
		default:
			warn("validation failed; scored with basic keyword sets")
		}
		logger.Warn("validation stage degraded", zap.Error(err), zap.Int("terms", len(selected)))
		s.emit(ctx, StageValidate, scanID, "Validation skipped: "+err.Error(), nil)
		return validation{}, nil
	}

	validated := 0
	for _, rec := range res.Records {
		if rec.IsValidated {
			validated++
		}
	}
	if res.Failed > 0 {
		warn(fmt.Sprintf("%d terms could not be validated", res.Failed))
	}
	logger.Debug("validation stage completed",
		zap.Int("terms", len(selected)), zap.Int("validated", validated), zap.Int("failed", res.Failed))
	s.emit(ctx, StageValidate, scanID, fmt.Sprintf("Validated %d of %d terms", validated, len(res.Records)), nil)
	return validation{records: res.Records, applied: true}, nil
}

// enrich builds a document's keyword view. Validated terms move to the category the
// reference matched; uncategorized terms that validate are rescued.
func enrich(doc documentTerms, v validation) types.DocumentKeywords {
	kw := types.DocumentKeywords{
		Categories:    doc.categorized.Categories.Clone(),
		Uncategorized: []string{},
		Validated:     v.applied,
	}
	if v.applied {
		kw.Validation = make(map[string]types.ValidationRecord)
	}

	for _, term := range doc.extraction.Terms {
		key := types.TermKey(term)
		rec, ok := v.records[key]
		if ok {
			kw.Validation[key] = rec
		}
		current := kw.Categories.CategoryOf(term)
		if ok && rec.IsValidated && rec.MatchedCategory.Valid() && rec.MatchedCategory != current {
			if current != types.Uncategorized {
				kw.Categories.Remove(current, term)
			}
			kw.Categories.Add(rec.MatchedCategory, term)
			continue
		}
		if current == types.Uncategorized {
			kw.Uncategorized = append(kw.Uncategorized, term)
		}
	}
	kw.Categories.Normalize()
	kw.Uncategorized = types.SortedUnique(kw.Uncategorized)
	return kw
}

type progressKey struct{}

// WithProgress attaches a per-call progress callback, in addition to Options.OnProgress.
func WithProgress(ctx context.Context, cb ProgressCallback) context.Context {
	return context.WithValue(ctx, progressKey{}, cb)
}

func (s *Scanner) emit(ctx context.Context, stage, scanID, message string, content any) {
	event := ProgressEvent{Stage: stage, Message: message, ScanID: scanID, Content: content}
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(event)
	}
	if cb, ok := ctx.Value(progressKey{}).(ProgressCallback); ok && cb != nil {
		cb(event)
	}
}
