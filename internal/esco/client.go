// Package esco validates terms against an ESCO-style skills and occupations reference.
package esco

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// SearchType discriminates the two reference searches.
type SearchType string

// Search types.
const (
	SearchSkill      SearchType = "skill"
	SearchOccupation SearchType = "occupation"
)

// Query is one reference search.
type Query struct {
	Text     string
	Type     SearchType
	Limit    int
	Language string
}

// SearchResult is one reference entry. SkillType and ReuseLevel are only set for skills.
type SearchResult struct {
	Title             string   `json:"title"`
	URI               string   `json:"uri,omitempty"`
	AlternativeLabels []string `json:"alternativeLabels,omitempty"`
	SkillType         string   `json:"skillType,omitempty"`
	ReuseLevel        string   `json:"reuseLevel,omitempty"`
}

// Searcher runs reference searches. Client is the HTTP implementation.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]SearchResult, error)
}

// Recorder receives search and validation outcomes.
type Recorder interface {
	SearchCompleted(searchType, outcome string, elapsed time.Duration)
	TermValidated(outcome string)
}

// DefaultBaseURL is the public ESCO API.
const DefaultBaseURL = "https://ec.europa.eu/esco/api"

// DefaultUserAgent is the user agent string for reference requests.
const DefaultUserAgent = "Mozilla/5.0 (compatible; ResumeMatcher/1.0)"

// maxResponseBytes bounds how much of a response body is read.
const maxResponseBytes = 2 << 20

// ClientConfig configures the HTTP client.
type ClientConfig struct {
	BaseURL           string
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
	Retry             RetryConfig
	UserAgent         string
}

// DefaultClientConfig returns sensible defaults for the public API.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:           DefaultBaseURL,
		Timeout:           10 * time.Second,
		RequestsPerSecond: 20,
		Burst:             10,
		Retry:             DefaultRetryConfig(),
		UserAgent:         DefaultUserAgent,
	}
}

// Client searches the reference over HTTP. Outbound requests are paced by a shared
// token bucket, so one Client should be reused for the life of the process.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *zap.Logger
	recorder   Recorder
}

// NewClient returns a Client. logger and recorder may be nil.
func NewClient(cfg ClientConfig, logger *zap.Logger, recorder Recorder) *Client {
	defaults := DefaultClientConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(limit, cfg.Burst),
		logger:     logger,
		recorder:   recorder,
	}
}

// Search queries the reference. Any failure, including non-200 responses and malformed
// payloads, is returned as a *ServiceError.
func (c *Client) Search(ctx context.Context, q Query) ([]SearchResult, error) {
	start := time.Now()
	results, err := retryDo(ctx, c.cfg.Retry, c.logger, func() ([]SearchResult, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return c.do(ctx, q)
	})

	outcome := "ok"
	if err != nil {
		outcome = "error"
		err = asServiceError(q, err)
		c.logger.Debug("esco search failed",
			zap.String("query", q.Text), zap.String("type", string(q.Type)), zap.Error(err))
	}
	if c.recorder != nil {
		c.recorder.SearchCompleted(string(q.Type), outcome, time.Since(start))
	}
	return results, err
}

func (c *Client) do(ctx context.Context, q Query) ([]SearchResult, error) {
	endpoint, err := c.searchURL(q)
	if err != nil {
		return nil, &ServiceError{Query: q.Text, Type: q.Type, Message: "invalid base URL", Cause: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &ServiceError{Query: q.Text, Type: q.Type, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, &statusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, err
	}
	return decodeSearchResponse(q, body)
}

func (c *Client) searchURL(q Query) (string, error) {
	base, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("base URL %q must be absolute", c.cfg.BaseURL)
	}
	base.Path = path.Join(base.Path, "search")

	params := url.Values{}
	params.Set("text", q.Text)
	params.Set("type", string(q.Type))
	params.Set("limit", strconv.Itoa(q.Limit))
	params.Set("language", q.Language)
	params.Set("full", "true")
	base.RawQuery = params.Encode()
	return base.String(), nil
}

// searchResponse mirrors the subset of the ESCO search payload that is used.
type searchResponse struct {
	Embedded *struct {
		Results []rawResult `json:"results"`
	} `json:"_embedded"`
}

type rawResult struct {
	Title            string          `json:"title"`
	URI              string          `json:"uri"`
	AlternativeLabel json.RawMessage `json:"alternativeLabel"`
	HasSkillType     []string        `json:"hasSkillType"`
	HasReuseLevel    []string        `json:"hasReuseLevel"`
}

func decodeSearchResponse(q Query, body []byte) ([]SearchResult, error) {
	var payload searchResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &ServiceError{Query: q.Text, Type: q.Type, StatusCode: http.StatusOK, Message: "malformed payload", Cause: err}
	}
	if payload.Embedded == nil {
		return nil, &ServiceError{Query: q.Text, Type: q.Type, StatusCode: http.StatusOK, Message: "payload has no _embedded results"}
	}

	results := make([]SearchResult, 0, len(payload.Embedded.Results))
	for _, r := range payload.Embedded.Results {
		title := strings.TrimSpace(r.Title)
		if title == "" {
			continue
		}
		results = append(results, SearchResult{
			Title:             title,
			URI:               r.URI,
			AlternativeLabels: decodeLabels(r.AlternativeLabel, q.Language),
			SkillType:         lastSegment(r.HasSkillType),
			ReuseLevel:        lastSegment(r.HasReuseLevel),
		})
	}
	return results, nil
}

// decodeLabels accepts either a plain list or a language-keyed map of lists.
func decodeLabels(raw json.RawMessage, language string) []string {
	if len(raw) == 0 {
		return nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}
	var byLang map[string][]string
	if err := json.Unmarshal(raw, &byLang); err == nil {
		if labels, ok := byLang[language]; ok {
			return labels
		}
		return byLang["en"]
	}
	return nil
}

// lastSegment returns the final path segment of the first URI ("…/skill-type/knowledge" → "knowledge").
func lastSegment(uris []string) string {
	if len(uris) == 0 {
		return ""
	}
	u := strings.TrimRight(uris[0], "/")
	if i := strings.LastIndex(u, "/"); i >= 0 {
		return u[i+1:]
	}
	return u
}

func asServiceError(q Query, err error) error {
	if _, ok := err.(*ServiceError); ok {
		return err
	}
	se := &ServiceError{Query: q.Text, Type: q.Type, Message: "request failed", Cause: err}
	if st, ok := err.(*statusError); ok {
		se.StatusCode = st.StatusCode
		se.Message = "unexpected status"
		se.Cause = nil
	}
	return se
}
