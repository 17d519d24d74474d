package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Counter is the fixed-window counter backing the limiter. The cache client
// implements it; it returns 0 when Redis is unavailable so the limiter fails
// open.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, error)
}

// RateLimit rejects requests once a client exceeds limit hits on a route
// inside the window. Counters are keyed by client IP and route path.
func RateLimit(counter Counter, limit int64, window time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			key := fmt.Sprintf("ratelimit:%s:%s", c.RealIP(), c.Path())
			count, err := counter.Incr(c.Request().Context(), key, window)
			if err == nil && count > limit {
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}
			return next(c)
		}
	}
}
