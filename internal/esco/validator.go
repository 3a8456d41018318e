package esco

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-matcher/internal/cache"
	"github.com/jonathan/resume-matcher/internal/types"
)

// Cache TTLs for the two process-wide caches.
const (
	DefaultSearchTTL     = 24 * time.Hour
	DefaultValidationTTL = time.Hour
)

// Config controls validation.
type Config struct {
	ConfidenceThreshold  float64
	ResultLimit          int
	Language             string
	BatchSize            int
	MaxConcurrentBatches int
	BatchDelay           time.Duration
	TermTimeout          time.Duration
}

// DefaultConfig returns the stock validation settings.
func DefaultConfig() Config {
	return Config{
		ConfidenceThreshold:  0.7,
		ResultLimit:          3,
		Language:             "en",
		BatchSize:            20,
		MaxConcurrentBatches: 10,
		BatchDelay:           100 * time.Millisecond,
		TermTimeout:          5 * time.Second,
	}
}

// Caches holds the search-result and validation-record caches. Both are process-wide.
type Caches struct {
	Search     *cache.TTLCache[[]SearchResult]
	Validation *cache.TTLCache[types.ValidationRecord]
}

// NewCaches builds both caches with the given TTLs and shared options.
func NewCaches(searchTTL, validationTTL time.Duration, opts ...cache.Option) Caches {
	return Caches{
		Search:     cache.New[[]SearchResult]("esco_search", searchTTL, opts...),
		Validation: cache.New[types.ValidationRecord]("esco_validation", validationTTL, opts...),
	}
}

// Validator validates terms against the reference, caching searches and records.
// It is safe for concurrent use.
type Validator struct {
	searcher Searcher
	caches   Caches
	cfg      Config
	logger   *zap.Logger
	recorder Recorder
	sleep    func(ctx context.Context, d time.Duration) error
}

// NewValidator returns a Validator. Zero-valued caches are created with the default TTLs;
// logger and recorder may be nil.
func NewValidator(searcher Searcher, caches Caches, cfg Config, logger *zap.Logger, recorder Recorder) *Validator {
	defaults := DefaultConfig()
	if cfg.ResultLimit <= 0 {
		cfg.ResultLimit = defaults.ResultLimit
	}
	if cfg.Language == "" {
		cfg.Language = defaults.Language
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = defaults.BatchSize
	}
	if cfg.MaxConcurrentBatches <= 0 {
		cfg.MaxConcurrentBatches = defaults.MaxConcurrentBatches
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if caches.Search == nil || caches.Validation == nil {
		fallback := NewCaches(DefaultSearchTTL, DefaultValidationTTL, cache.WithLogger(logger))
		if caches.Search == nil {
			caches.Search = fallback.Search
		}
		if caches.Validation == nil {
			caches.Validation = fallback.Validation
		}
	}
	return &Validator{
		searcher: searcher,
		caches:   caches,
		cfg:      cfg,
		logger:   logger,
		recorder: recorder,
		sleep:    sleepContext,
	}
}

// Config returns the effective configuration.
func (v *Validator) Config() Config {
	return v.cfg
}

// outcome summarises the network work done for one term.
type outcome struct {
	searches int // searches sent to the reference
	failed   int // of which failed
}

// ValidateTerm validates one term. The returned record is always usable: when a search
// fails the term is scored on whatever the other search returned and the error reports
// the failure. Records are only cached when both searches succeeded.
func (v *Validator) ValidateTerm(ctx context.Context, term string) (types.ValidationRecord, error) {
	rec, _, err := v.validateTerm(ctx, term)
	return rec, err
}

func (v *Validator) validateTerm(ctx context.Context, term string) (types.ValidationRecord, outcome, error) {
	var out outcome
	key := types.TermKey(term)
	if key == "" {
		return types.ValidationRecord{Term: term, MatchedCategory: types.Uncategorized, Suggestions: []string{}}, out, nil
	}

	cacheKey := cache.Key("validation", key, strconv.FormatFloat(v.cfg.ConfidenceThreshold, 'f', -1, 64),
		strconv.Itoa(v.cfg.ResultLimit), v.cfg.Language)
	if rec, ok := v.caches.Validation.Get(ctx, cacheKey); ok {
		v.recordTerm("cached")
		return rec.Clone(), out, nil
	}

	if v.cfg.TermTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.cfg.TermTimeout)
		defer cancel()
	}

	var (
		skills, occupations  []SearchResult
		skillErr, occErr     error
		skillSent, occupSent bool
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		skills, skillSent, skillErr = v.search(gctx, term, SearchSkill)
		return nil
	})
	g.Go(func() error {
		occupations, occupSent, occErr = v.search(gctx, term, SearchOccupation)
		return nil
	})
	_ = g.Wait()

	for _, sent := range []bool{skillSent, occupSent} {
		if sent {
			out.searches++
		}
	}
	for _, err := range []error{skillErr, occErr} {
		if err != nil {
			out.failed++
		}
	}

	candidates := make([]candidate, 0, len(skills)+len(occupations))
	for _, r := range skills {
		candidates = append(candidates, candidate{result: r, kind: SearchSkill, confidence: scoreResult(term, r)})
	}
	for _, r := range occupations {
		candidates = append(candidates, candidate{result: r, kind: SearchOccupation, confidence: scoreResult(term, r)})
	}
	rec := buildRecord(term, candidates, v.cfg.ConfidenceThreshold)

	err := errors.Join(skillErr, occErr)
	switch {
	case err != nil:
		v.recordTerm("failed")
	case rec.IsValidated:
		v.recordTerm("validated")
	default:
		v.recordTerm("rejected")
	}
	if err == nil {
		v.caches.Validation.Set(ctx, cacheKey, rec.Clone())
	}
	return rec, out, err
}

// search returns the results for one query, reporting whether the reference was called.
// Failed searches are not cached.
func (v *Validator) search(ctx context.Context, term string, kind SearchType) ([]SearchResult, bool, error) {
	q := Query{Text: term, Type: kind, Limit: v.cfg.ResultLimit, Language: v.cfg.Language}
	key := cache.Key(string(kind)+"-search", types.TermKey(term), strconv.Itoa(q.Limit), q.Language)
	if results, ok := v.caches.Search.Get(ctx, key); ok {
		return results, false, nil
	}

	results, err := v.searcher.Search(ctx, q)
	if err != nil {
		return nil, true, err
	}
	v.caches.Search.Set(ctx, key, results)
	return results, true, nil
}

// BatchResult holds the records of a batch validation.
type BatchResult struct {
	// Records is keyed by TermKey and holds every term that was processed.
	Records map[string]types.ValidationRecord
	// Failed counts terms with at least one failed search.
	Failed int
	// Skipped counts terms never attempted because the stage stopped early.
	Skipped int
}

// ValidateBatch validates terms in fixed-size batches, running up to MaxConcurrentBatches
// batches at once with BatchDelay between groups. All terms of a batch run concurrently.
// Single-term failures leave that term unvalidated. If every search of a whole group
// fails, the remaining groups are skipped and ErrServiceUnavailable is returned along
// with the partial result. Context expiry also stops the stage early.
func (v *Validator) ValidateBatch(ctx context.Context, terms []string) (*BatchResult, error) {
	unique := make([]string, 0, len(terms))
	seen := make(map[string]bool, len(terms))
	for _, t := range terms {
		key := types.TermKey(t)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, t)
	}

	res := &BatchResult{Records: make(map[string]types.ValidationRecord, len(unique))}
	batches := chunk(unique, v.cfg.BatchSize)
	var mu sync.Mutex

	for start := 0; start < len(batches); start += v.cfg.MaxConcurrentBatches {
		end := min(start+v.cfg.MaxConcurrentBatches, len(batches))
		group := batches[start:end]

		if start > 0 {
			if err := v.sleep(ctx, v.cfg.BatchDelay); err != nil {
				res.Skipped += countTerms(batches[start:])
				return res, fmt.Errorf("validation stage stopped: %w", err)
			}
		}

		var groupOut outcome
		g, gctx := errgroup.WithContext(ctx)
		for _, batch := range group {
			for _, term := range batch {
				term := term
				g.Go(func() error {
					rec, out, err := v.validateTerm(gctx, term)
					mu.Lock()
					defer mu.Unlock()
					res.Records[types.TermKey(term)] = rec
					groupOut.searches += out.searches
					groupOut.failed += out.failed
					if err != nil {
						res.Failed++
					}
					return nil
				})
			}
		}
		_ = g.Wait()

		if err := ctx.Err(); err != nil {
			res.Skipped += countTerms(batches[end:])
			return res, fmt.Errorf("validation stage stopped: %w", err)
		}
		if groupOut.searches > 0 && groupOut.failed == groupOut.searches {
			res.Skipped += countTerms(batches[end:])
			v.logger.Warn("esco unreachable, skipping remaining batches",
				zap.Int("failed_searches", groupOut.failed), zap.Int("skipped_terms", res.Skipped))
			return res, ErrServiceUnavailable
		}
	}
	return res, nil
}

func (v *Validator) recordTerm(outcome string) {
	if v.recorder != nil {
		v.recorder.TermValidated(outcome)
	}
}

func chunk(terms []string, size int) [][]string {
	var out [][]string
	for len(terms) > 0 {
		n := min(size, len(terms))
		out = append(out, terms[:n])
		terms = terms[n:]
	}
	return out
}

func countTerms(batches [][]string) int {
	n := 0
	for _, b := range batches {
		n += len(b)
	}
	return n
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
