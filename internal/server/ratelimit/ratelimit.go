// Package ratelimit limits request rates per client and endpoint using token buckets.
package ratelimit

import (
	"fmt"
	"math"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// EndpointConfig limits one method and path. A Path ending in "/" matches by prefix.
type EndpointConfig struct {
	Path   string
	Method string
	Limit  int           // requests per Window; <= 0 means unlimited
	Window time.Duration // defaults to one minute
	Burst  int           // defaults to Limit
}

// Config holds rate limiting configuration.
type Config struct {
	Enabled         bool
	Default         EndpointConfig // applied when no endpoint matches
	Endpoints       []EndpointConfig
	CleanupInterval time.Duration
	IdleTTL         time.Duration // buckets unused this long are dropped
	Allowlist       map[string]bool
}

// Info describes the limit applied to one request.
type Info struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetTime  time.Time
	RetryAfter time.Duration
}

type bucket struct {
	limiter  *rate.Limiter
	limit    int
	lastSeen time.Time
}

// Limiter manages one token bucket per client and endpoint.
type Limiter struct {
	config  Config
	now     func() time.Time
	mu      sync.Mutex
	buckets map[string]*bucket
	stop    chan struct{}
	once    sync.Once
}

// NewLimiter creates a limiter and starts its cleanup loop when enabled.
func NewLimiter(config Config) *Limiter {
	if config.IdleTTL <= 0 {
		config.IdleTTL = 10 * time.Minute
	}
	l := &Limiter{
		config:  config,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		stop:    make(chan struct{}),
	}
	if config.Enabled && config.CleanupInterval > 0 {
		go l.cleanupLoop(config.CleanupInterval)
	}
	return l
}

// Allow consumes a token for clientID on the endpoint if one is available.
func (l *Limiter) Allow(clientID, path, method string) (bool, Info) {
	if !l.config.Enabled || l.config.Allowlist[clientID] {
		return true, Info{Allowed: true}
	}

	ep := MatchEndpoint(path, method, l.config.Endpoints)
	scope := method + " " + path
	if ep != nil {
		scope = method + " " + ep.Path
	} else {
		ep = &l.config.Default
		scope = "*"
	}
	if ep.Limit <= 0 {
		return true, Info{Allowed: true}
	}

	now := l.now()
	b := l.bucket(clientID+"|"+scope, *ep, now)

	info := Info{Limit: b.limit, Allowed: b.limiter.AllowN(now, 1)}
	tokens := b.limiter.TokensAt(now)
	if !info.Allowed {
		info.RetryAfter = b.untilTokens(1-tokens)
	}
	info.Remaining = max(0, int(math.Floor(tokens)))
	info.ResetTime = now.Add(b.untilTokens(float64(b.limiter.Burst()) - tokens))
	return info.Allowed, info
}

func (l *Limiter) bucket(key string, ep EndpointConfig, now time.Time) *bucket {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[key]
	if !ok {
		window := ep.Window
		if window <= 0 {
			window = time.Minute
		}
		burst := ep.Burst
		if burst <= 0 {
			burst = ep.Limit
		}
		perSecond := rate.Limit(float64(ep.Limit) / window.Seconds())
		b = &bucket{limiter: rate.NewLimiter(perSecond, burst), limit: ep.Limit}
		l.buckets[key] = b
	}
	b.lastSeen = now
	return b
}

// untilTokens is the time needed to refill n tokens.
func (b *bucket) untilTokens(n float64) time.Duration {
	if n <= 0 {
		return 0
	}
	return time.Duration(n / float64(b.limiter.Limit()) * float64(time.Second))
}

// Len returns the number of live buckets.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// Cleanup drops buckets idle for longer than IdleTTL.
func (l *Limiter) Cleanup() {
	cutoff := l.now().Add(-l.config.IdleTTL)
	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.lastSeen.Before(cutoff) {
			delete(l.buckets, key)
		}
	}
}

func (l *Limiter) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-l.stop:
			return
		case <-ticker.C:
			l.Cleanup()
		}
	}
}

// Stop ends the cleanup loop. Safe to call more than once.
func (l *Limiter) Stop() {
	l.once.Do(func() { close(l.stop) })
}

// MatchEndpoint finds the configuration for a request: exact paths first, then prefixes.
func MatchEndpoint(path, method string, configs []EndpointConfig) *EndpointConfig {
	for i := range configs {
		if configs[i].Method == method && configs[i].Path == path {
			return &configs[i]
		}
	}
	for i := range configs {
		c := &configs[i]
		if c.Method == method && strings.HasSuffix(c.Path, "/") && strings.HasPrefix(path, c.Path) {
			return c
		}
	}
	return nil
}

// Middleware rejects requests over the limit with 429 and sets X-RateLimit-* headers.
// onLimited writes the rejection body.
func (l *Limiter) Middleware(onLimited func(w http.ResponseWriter, r *http.Request, info Info)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, info := l.Allow(ClientID(r), r.URL.Path, r.Method)
			if info.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
				w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
				w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
			}
			if !allowed {
				if info.RetryAfter > 0 {
					w.Header().Set("Retry-After", fmt.Sprintf("%d", int(math.Ceil(info.RetryAfter.Seconds()))))
				}
				onLimited(w, r, info)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientID identifies the caller by remote IP.
func ClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
