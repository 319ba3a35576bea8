package http

import (
	"log/slog"
	"net/http"
	"time"

	"fulfillment/internal/core/ports"

	"github.com/labstack/echo/v4"
)

type RateLimitRecorder interface {
	RecordRateLimitDenial(bucket string)
}

type RequestRecorder interface {
	RecordHTTPRequest(method, endpoint string, status int, seconds float64)
}

// RateLimit admits limit requests per caller and bucket in each window. The
// caller is the authenticated driver when there is one, else the client IP.
// A limiter error lets the request through.
func RateLimit(
	limiter ports.RateLimiter, bucket string, limit int, recorder RateLimitRecorder, logger *slog.Logger,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			caller := c.RealIP()
			if driverID, ok := authenticatedDriver(c); ok {
				caller = driverID.String()
			}

			ctx := c.Request().Context()
			allowed, err := limiter.Check(ctx, limit, bucket+":"+caller)
			if err != nil {
				logger.WarnContext(ctx, "rate limiter unavailable", "bucket", bucket, "error", err)
				return next(c)
			}
			if !allowed {
				if recorder != nil {
					recorder.RecordRateLimitDenial(bucket)
				}
				return c.JSON(http.StatusTooManyRequests,
					newError(http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests)))
			}
			return next(c)
		}
	}
}

// RequestMetrics records count and latency per route template.
func RequestMetrics(recorder RequestRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			path := c.Path()
			if path == "" {
				path = "unmatched"
			}
			recorder.RecordHTTPRequest(c.Request().Method, path, c.Response().Status, time.Since(start).Seconds())
			return nil
		}
	}
}
