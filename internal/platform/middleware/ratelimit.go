package middleware

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"

	"github.com/salon/salon/pkg/apierror"
)

// RateLimitConfig controls the per-client request budget.
type RateLimitConfig struct {
	RequestsPerSecond float64
	BurstSize         int
}

// DefaultRateLimitConfig returns the limits applied when none are configured.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		BurstSize:         200,
	}
}

// limiterStore hands out one rate.Limiter per client key.
type limiterStore struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	cfg      RateLimitConfig
}

func newLimiterStore(cfg RateLimitConfig) *limiterStore {
	return &limiterStore{
		limiters: make(map[string]*rate.Limiter),
		cfg:      cfg,
	}
}

func (s *limiterStore) get(key string) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(s.cfg.RequestsPerSecond), s.cfg.BurstSize)
		s.limiters[key] = l
	}
	return l
}

// RateLimit throttles requests with a token bucket per client IP. Rejected
// requests carry a Retry-After hint derived from the limiter's earliest
// available token.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	store := newLimiterStore(cfg)
	limit := strconv.FormatFloat(cfg.RequestsPerSecond, 'f', 0, 64)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("X-RateLimit-Limit", limit)

			res := store.get(c.RealIP()).Reserve()
			if !res.OK() || res.Delay() > 0 {
				retryAfter := 1
				if res.OK() {
					retryAfter = int(res.Delay().Seconds()) + 1
					res.Cancel()
				}
				c.Response().Header().Set("Retry-After", strconv.Itoa(retryAfter))
				c.Response().Header().Set("X-RateLimit-Remaining", "0")
				return apierror.New(http.StatusTooManyRequests, "Too many requests, please try again later.")
			}
			return next(c)
		}
	}
}
