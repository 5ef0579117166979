package chi

import (
	"net"
	"net/http"
	"sync"
	"time"
)

// pruneThreshold bounds the client map; stale windows are swept once the
// map grows past it.
const pruneThreshold = 10000

type window struct {
	start time.Time
	count int
}

// RateLimiter is a fixed-window per-client admission limiter. Excess
// requests are rejected, not queued, so an overloaded service sheds load
// before any pipeline stage runs.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*window

	max    int
	period time.Duration
	now    func() time.Time
}

// NewRateLimiter allows max requests per period per client. max <= 0
// disables limiting.
func NewRateLimiter(max int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*window),
		max:     max,
		period:  period,
		now:     time.Now,
	}
}

// Allow records a request for the client and reports whether it fits the
// current window.
func (l *RateLimiter) Allow(client string) bool {
	if l.max <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.clients[client]
	if w == nil || now.Sub(w.start) >= l.period {
		if len(l.clients) > pruneThreshold {
			l.prune(now)
		}
		l.clients[client] = &window{start: now, count: 1}
		return true
	}

	w.count++
	return w.count <= l.max
}

// prune drops expired windows. Caller holds the lock.
func (l *RateLimiter) prune(now time.Time) {
	for client, w := range l.clients {
		if now.Sub(w.start) >= l.period {
			delete(l.clients, client)
		}
	}
}

// Middleware rejects over-limit requests with 429 before they reach a
// handler. Health and metrics stay exempt.
func (l *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l.max <= 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			if !l.Allow(clientKey(r)) {
				writeError(w, http.StatusTooManyRequests, codeRateLimited, "rate limit exceeded")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientKey identifies a caller by remote IP, ignoring the ephemeral port.
func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
