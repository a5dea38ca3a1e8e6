package ratelimit

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// FixedWindowStore counts requests per identifier in fixed windows. It
// implements echo's middleware.RateLimiterStore so it can be plugged into the
// standard RateLimiter middleware.
type FixedWindowStore struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	counts map[string]*windowCount
	now    func() time.Time
}

type windowCount struct {
	start time.Time
	n     int
}

func NewFixedWindowStore(limit int, window time.Duration) *FixedWindowStore {
	return &FixedWindowStore{
		limit:  limit,
		window: window,
		counts: make(map[string]*windowCount),
		now:    time.Now,
	}
}

func (s *FixedWindowStore) Allow(identifier string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	wc, ok := s.counts[identifier]
	if !ok || now.Sub(wc.start) >= s.window {
		s.counts[identifier] = &windowCount{start: now, n: 1}
		if len(s.counts) > 10000 {
			s.evictStale(now)
		}
		return true, nil
	}

	if wc.n >= s.limit {
		return false, nil
	}
	wc.n++
	return true, nil
}

func (s *FixedWindowStore) evictStale(now time.Time) {
	for id, wc := range s.counts {
		if now.Sub(wc.start) >= s.window {
			delete(s.counts, id)
		}
	}
}

// Middleware rate-limits by real client IP ahead of routing: limit requests
// per window, 429 on breach.
func Middleware(limit int, window time.Duration) echo.MiddlewareFunc {
	return middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Store: NewFixedWindowStore(limit, window),
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "error while extracting identifier")
		},
		DenyHandler: func(c echo.Context, identifier string, err error) error {
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please try again later")
		},
	})
}
