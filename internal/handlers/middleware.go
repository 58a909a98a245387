package handlers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/sessions"
	"golang.org/x/time/rate"

	"github.com/thisdougb/techtrends/internal/config"
	"github.com/thisdougb/techtrends/internal/session"
)

const traceHeader = "X-Trace-ID"

// Logging gives every request a correlation id (taken from X-Trace-ID when
// the client sends one) and request details for the log lines written
// further down the chain.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := config.SetContextCorrelationId(r.Context(), r.Header.Get(traceHeader))
		ctx = config.SetContextRequestInfo(ctx, config.RequestInfo{
			RemoteAddr: clientHost(r),
			URL:        requestURL(r),
		})
		w.Header().Set(traceHeader, config.GetContextCorrelationId(ctx))

		rec := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		config.LogDebug(ctx, fmt.Sprintf("\"%s %s %s\" %d", r.Method, r.URL.RequestURI(), r.Proto, rec.status))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw *statusWriter) WriteHeader(code int) {
	sw.status = code
	sw.ResponseWriter.WriteHeader(code)
}

// RateLimiter keeps one token bucket per client address. Buckets idle for
// longer than the idle window are dropped by Cleanup.
type RateLimiter struct {
	limiters map[string]*clientLimiter
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a limiter allowing requestsPerSecond with burst
func NewRateLimiter(requestsPerSecond int, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*clientLimiter),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		idle:     10 * time.Minute,
		now:      time.Now,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cl, exists := rl.limiters[key]
	if !exists {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = cl
	}
	cl.lastSeen = rl.now()

	return cl.limiter
}

// Cleanup removes limiters not used within the idle window
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-rl.idle)
	for key, cl := range rl.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
		}
	}
}

// StartCleanup runs Cleanup every interval until ctx is done
func (rl *RateLimiter) StartCleanup(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				rl.Cleanup()
			}
		}
	}()
}

// Handler answers 429 once a client runs out of tokens
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientHost(r)

		if !rl.getLimiter(key).Allow() {
			config.LogWarn(r.Context(), fmt.Sprintf("rate limit exceeded for %s", key))
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Sessions loads the client's cookie session, hands a tracker on it to the
// handlers, and writes the cookie back before the response header goes out.
func Sessions(store sessions.Store, name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			// a tampered or stale cookie still yields a fresh session
			s, err := store.Get(r, name)
			if err != nil {
				config.LogWarn(ctx, fmt.Sprintf("discarding session cookie: %v", err))
			}

			cookies := session.NewCookieStore(s)
			ctx = session.WithTracker(ctx, session.NewTracker(cookies))

			sw := &sessionWriter{ResponseWriter: w, r: r, store: cookies}
			next.ServeHTTP(sw, r.WithContext(ctx))

			// handlers that never wrote anything still get the cookie
			sw.save()
		})
	}
}

type sessionWriter struct {
	http.ResponseWriter
	r     *http.Request
	store *session.CookieStore
	once  sync.Once
}

func (sw *sessionWriter) save() {
	sw.once.Do(func() {
		if err := sw.store.Save(sw.r, sw.ResponseWriter); err != nil {
			config.LogError(sw.r.Context(), fmt.Sprintf("failed to save session: %v", err))
		}
	})
}

func (sw *sessionWriter) WriteHeader(code int) {
	sw.save()
	sw.ResponseWriter.WriteHeader(code)
}

func (sw *sessionWriter) Write(b []byte) (int, error) {
	sw.save()
	return sw.ResponseWriter.Write(b)
}

// clientHost strips the port from RemoteAddr
func clientHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.RequestURI()
}
