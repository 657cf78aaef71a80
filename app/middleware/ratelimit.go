package appMiddleware

import (
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/FACorreiaa/go-travel-concierge/internal/api"
)

// idleLimiterTTL is how long a client's limiter survives without traffic.
const idleLimiterTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiterStore struct {
	mu       sync.Mutex
	limiters map[string]*clientLimiter
	limit    rate.Limit
	burst    int
	lastGC   time.Time
}

func newRateLimiterStore(rps float64, burst int) *rateLimiterStore {
	return &rateLimiterStore{
		limiters: make(map[string]*clientLimiter),
		limit:    rate.Limit(rps),
		burst:    burst,
	}
}

func (s *rateLimiterStore) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Sub(s.lastGC) > idleLimiterTTL {
		for k, c := range s.limiters {
			if now.Sub(c.lastSeen) > idleLimiterTTL {
				delete(s.limiters, k)
			}
		}
		s.lastGC = now
	}

	c, ok := s.limiters[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(s.limit, s.burst)}
		s.limiters[key] = c
	}
	c.lastSeen = now
	return c.limiter
}

// RateLimit throttles requests per client IP. A non-positive rps disables it.
// Run it after middleware.RealIP so proxied clients are told apart.
func RateLimit(rps float64, burst int, logger *slog.Logger) func(http.Handler) http.Handler {
	if rps <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if burst < 1 {
		burst = 1
	}
	store := newRateLimiterStore(rps, burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)
			if !store.get(ip, time.Now()).Allow() {
				logger.WarnContext(r.Context(), "Rate limit exceeded", slog.String("ip", ip))
				w.Header().Set("Retry-After", "1")
				api.ErrorResponse(w, r, http.StatusTooManyRequests, "Rate limit exceeded. Try again later.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
