// Package middleware provides echo middleware for the HTTP adapters.
package middleware

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/bnema/gatekeeper/internal/adapters/dto"
	"github.com/bnema/gatekeeper/internal/logging"
)

// RequestID reuses the X-Request-ID header or generates one.
func RequestID() echo.MiddlewareFunc {
	return echomw.RequestIDWithConfig(echomw.RequestIDConfig{
		Generator: func() string { return uuid.New().String() },
	})
}

// RequestLogger attaches log to the request context and writes one line per
// request once the handler returns.
func RequestLogger(log logging.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogURI:       true,
		LogMethod:    true,
		LogStatus:    true,
		LogLatency:   true,
		LogRemoteIP:  true,
		LogRequestID: true,
		LogUserAgent: true,
		LogError:     true,
		BeforeNextFunc: func(c echo.Context) {
			reqLog := logging.Logger{Logger: log.With().
				Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID)).
				Logger()}
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithCtx(req.Context(), reqLog)))
		},
		LogValuesFunc: func(_ echo.Context, v echomw.RequestLoggerValues) error {
			event := log.Info()
			if v.Status >= http.StatusInternalServerError {
				event = log.Error().Err(v.Error)
			}
			event.
				Str(logging.FieldLayer, "adapter").
				Str(logging.FieldAdapter, "http").
				Str("request_id", v.RequestID).
				Str(logging.FieldMethod, v.Method).
				Str(logging.FieldPath, v.URI).
				Str(logging.FieldClientIP, v.RemoteIP).
				Str("user_agent", v.UserAgent).
				Int(logging.FieldStatus, v.Status).
				Dur(logging.FieldDuration, v.Latency).
				Msg("HTTP request")
			return nil
		},
	})
}

// Recover turns handler panics into a JSON 500 and logs the stack.
func Recover(log logging.Logger) echo.MiddlewareFunc {
	return RecoverWith(log, nil)
}

// RecoverWith is Recover with an override for the response. respond returns
// false to fall back to the JSON 500.
func RecoverWith(log logging.Logger, respond func(c echo.Context) (bool, error)) echo.MiddlewareFunc {
	return echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			log.Error().
				Err(err).
				Str(logging.FieldLayer, "adapter").
				Str(logging.FieldAdapter, "http").
				Str(logging.FieldMethod, c.Request().Method).
				Str(logging.FieldPath, c.Request().URL.Path).
				Bytes("stack", stack).
				Msg("panic recovered")
			if respond != nil {
				if handled, err := respond(c); handled {
					return err
				}
			}
			return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "internal server error"})
		},
	})
}
