package middleware

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/bnema/gatekeeper/internal/adapters/dto"
)

// RateLimitConfig configures the per-client token bucket.
type RateLimitConfig struct {
	RPS       float64
	Burst     int
	ExpiresIn time.Duration

	// Denied, when set, answers throttled requests it returns true for
	// instead of the default 429.
	Denied func(c echo.Context) (bool, error)
}

// RateLimit limits requests per client IP as reported by c.RealIP.
func RateLimit(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.Burst <= 0 {
		cfg.Burst = int(cfg.RPS)
		if cfg.Burst < 1 {
			cfg.Burst = 1
		}
	}
	if cfg.ExpiresIn <= 0 {
		cfg.ExpiresIn = 3 * time.Minute
	}

	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(cfg.RPS),
		Burst:     cfg.Burst,
		ExpiresIn: cfg.ExpiresIn,
	})

	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, _ error) error {
			return c.JSON(http.StatusForbidden, dto.ErrorResponse{Error: "client not identified"})
		},
		DenyHandler: func(c echo.Context, _ string, _ error) error {
			if cfg.Denied != nil {
				if handled, err := cfg.Denied(c); handled {
					return err
				}
			}
			c.Response().Header().Set("Retry-After", "1")
			return c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{Error: "rate limit exceeded"})
		},
	})
}
