package auth

import (
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/inkpress/go-blog-api/app/observability/metrics"
	"github.com/inkpress/go-blog-api/internal/api"
)

// Counter is one client's position within the current window.
type Counter struct {
	Count       int
	WindowStart time.Time
}

// CounterStore tracks request counts per client key over a fixed window. The
// policy (limits, headers, responses) lives in the middleware; the store only
// counts, so a shared backend can replace the in-memory one for horizontally
// scaled deployments.
type CounterStore interface {
	Increment(key string, window time.Duration) Counter
}

type counterEntry struct {
	count       int
	windowStart time.Time
}

// MemoryCounterStore is the per-process default. Counters are lost on restart
// and not shared across processes.
type MemoryCounterStore struct {
	mu       sync.Mutex
	counters map[string]*counterEntry

	// now is swappable for tests.
	now func() time.Time
}

func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{
		counters: make(map[string]*counterEntry),
		now:      time.Now,
	}
}

// Increment bumps the counter for key, resetting it first when the window has
// elapsed. The increment happens whether or not the caller is over budget.
func (s *MemoryCounterStore) Increment(key string, window time.Duration) Counter {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry, ok := s.counters[key]
	if !ok || now.Sub(entry.windowStart) >= window {
		entry = &counterEntry{windowStart: now}
		s.counters[key] = entry
	}
	entry.count++

	return Counter{Count: entry.count, WindowStart: entry.windowStart}
}

// clientKey resolves the rate-limit bucket for a request. RealIP middleware
// runs first, so RemoteAddr already reflects X-Forwarded-For behind a proxy.
// Requests with no resolvable address all share the "unknown" bucket.
func clientKey(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// RateLimit returns middleware enforcing maxRequests per window per client.
// Requests under the limit carry X-RateLimit-Limit/Remaining/Reset headers;
// requests over it are rejected with 429 and a retryAfter hint in seconds.
// Rejected requests still count, so the window never shortens while a client
// keeps hammering.
func RateLimit(logger *slog.Logger, store CounterStore, maxRequests int, window time.Duration) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			key := clientKey(r)
			counter := store.Increment(key, window)
			reset := counter.WindowStart.Add(window)

			if counter.Count > maxRequests {
				retryAfter := int(time.Until(reset).Seconds()) + 1
				if retryAfter < 0 {
					retryAfter = 0
				}
				logger.WarnContext(ctx, "Rate limit exceeded",
					slog.String("client", key),
					slog.Int("count", counter.Count),
					slog.Int("limit", maxRequests),
				)
				metrics.Get().RecordRateLimitRejection(ctx)
				api.WriteJSONResponse(w, r, http.StatusTooManyRequests, map[string]interface{}{
					"success":    false,
					"message":    "Too many requests",
					"retryAfter": retryAfter,
					"request_id": middleware.GetReqID(ctx),
				})
				return
			}

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(maxRequests))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(maxRequests-counter.Count))
			w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(reset.Unix(), 10))

			next.ServeHTTP(w, r)
		})
	}
}
