package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"bloggers-platform/internal/http/response"
	"bloggers-platform/internal/observability"
)

type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// Limiter decides whether one more hit fits the window for a key.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type FailureMode string

const (
	// FailOpen lets traffic through when the limiter backend is down;
	// FailClosed refuses it. Auth endpoints run closed.
	FailOpen   FailureMode = "fail_open"
	FailClosed FailureMode = "fail_closed"
)

// LocalWindowLimiter is the in-process sliding window: at most limit hits per
// window per key.
type LocalWindowLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	hits    map[string][]time.Time
	cleanup time.Time
}

func NewLocalWindowLimiter(limit int, window time.Duration) *LocalWindowLimiter {
	if limit <= 0 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &LocalWindowLimiter{
		limit:   limit,
		window:  window,
		hits:    make(map[string][]time.Time),
		cleanup: time.Now().Add(window),
	}
}

func (l *LocalWindowLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := time.Now()
	cutoff := now.Add(-l.window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.cleanup) {
		for k, hits := range l.hits {
			if len(hits) == 0 || hits[len(hits)-1].Before(cutoff) {
				delete(l.hits, k)
			}
		}
		l.cleanup = now.Add(l.window)
	}

	kept := l.hits[key][:0]
	for _, hit := range l.hits[key] {
		if hit.After(cutoff) {
			kept = append(kept, hit)
		}
	}

	if len(kept) >= l.limit {
		retry := kept[0].Add(l.window).Sub(now)
		if retry < time.Second {
			retry = time.Second
		}
		l.hits[key] = kept
		return Decision{Allowed: false, Remaining: 0, RetryAfter: retry}, nil
	}

	kept = append(kept, now)
	l.hits[key] = kept
	return Decision{Allowed: true, Remaining: l.limit - len(kept)}, nil
}

type RateLimiter struct {
	limiter Limiter
	mode    FailureMode
	scope   string
	keyFunc func(r *http.Request) string
}

func NewRateLimiter(limiter Limiter, mode FailureMode, scope string, keyFunc func(r *http.Request) string) *RateLimiter {
	if scope == "" {
		scope = "api"
	}
	if keyFunc == nil {
		keyFunc = ClientKey
	}
	return &RateLimiter{limiter: limiter, mode: mode, scope: scope, keyFunc: keyFunc}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision, err := rl.limiter.Allow(r.Context(), rl.keyFunc(r))
			if err != nil {
				observability.RecordRateLimitDecision(r.Context(), rl.scope, "backend_error")
				if rl.mode == FailOpen {
					next.ServeHTTP(w, r)
					return
				}
				response.Status(w, http.StatusTooManyRequests)
				return
			}
			if !decision.Allowed {
				observability.RecordRateLimitDecision(r.Context(), rl.scope, "deny")
				w.Header().Set("Retry-After", strconv.Itoa(int(decision.RetryAfter.Round(time.Second).Seconds())))
				response.Status(w, http.StatusTooManyRequests)
				return
			}
			observability.RecordRateLimitDecision(r.Context(), rl.scope, "allow")
			next.ServeHTTP(w, r)
		})
	}
}

// ClientKey buckets hits per client address and path, so hammering one
// endpoint does not lock a client out of the others.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return host + ":" + r.URL.Path
}
