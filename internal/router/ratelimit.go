package router

import (
	"context"
	"log"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"agilecoach/internal/errors"
	"agilecoach/internal/metrics"
)

const rateLimitWindow = time.Minute

// Counter is a windowed counter; *cache.Client implements it.
type Counter interface {
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// RateLimit allows perMinute requests per client IP within scope. When the
// counter is unavailable requests pass through.
func RateLimit(counter Counter, scope string, perMinute int) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if perMinute <= 0 || counter == nil {
			return next
		}
		return func(c echo.Context) error {
			key := "ratelimit:" + scope + ":" + c.RealIP()
			count, ttl, err := counter.Incr(c.Request().Context(), key, rateLimitWindow)
			if err != nil {
				log.Printf("ratelimit: counter unavailable, allowing request: %v", err)
				return next(c)
			}
			if count > int64(perMinute) {
				metrics.RateLimited.WithLabelValues(scope).Inc()
				c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(ttl.Seconds()))))
				return echo.NewHTTPError(http.StatusTooManyRequests, errors.ErrorResponse{
					Error: "too many requests, try again later",
					Code:  "RATE_LIMITED",
				})
			}
			return next(c)
		}
	}
}
