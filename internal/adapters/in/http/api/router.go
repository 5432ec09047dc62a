package api

import (
	"errors"
	"net"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bnema/gatekeeper/internal/adapters/dto"
	"github.com/bnema/gatekeeper/internal/adapters/in/http/middleware"
	"github.com/bnema/gatekeeper/internal/boundaries/in"
	"github.com/bnema/gatekeeper/internal/logging"
)

// RouterConfig controls the middleware stack.
type RouterConfig struct {
	MaxUploadSize  int64
	TrustedProxies []*net.IPNet
	RateLimit      *middleware.RateLimitConfig

	// Metrics enables /metrics and per-request metrics when set.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds the echo instance serving /api, /healthz and, when
// enabled, /metrics.
func NewRouter(
	cfg RouterConfig,
	packages in.PackageService,
	instances in.InstantiationService,
	log logging.Logger,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.IPExtractor = middleware.IPExtractor(cfg.TrustedProxies)
	e.HTTPErrorHandler = func(err error, c echo.Context) { errorHandler(c, err) }

	e.Use(
		middleware.RequestID(),
		middleware.RequestLogger(log),
		middleware.RecoverWith(log, uploadContract),
		middleware.SecurityHeaders(),
	)

	if cfg.Registerer != nil {
		e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
			Namespace:  "gatekeeper",
			Registerer: cfg.Registerer,
			Skipper: func(c echo.Context) bool {
				return c.Path() == "/metrics" || c.Path() == "/healthz"
			},
		}))
		gatherer := cfg.Gatherer
		if gatherer == nil {
			gatherer = prometheus.DefaultGatherer
		}
		e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	}

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, dto.HealthResponse{Status: "ok"})
	})

	g := e.Group("/api")
	if cfg.RateLimit != nil {
		limit := *cfg.RateLimit
		limit.Denied = uploadContract
		g.Use(middleware.RateLimit(limit))
	}
	NewHandler(packages, instances, cfg.MaxUploadSize).Register(g)

	return e
}

// uploadContract answers failed uploads with the 200 upload payload, whatever
// middleware rejected them.
func uploadContract(c echo.Context) (bool, error) {
	if c.Request().Method != http.MethodPost || c.Path() != "/api/packages" {
		return false, nil
	}
	return true, c.JSON(http.StatusOK, failedUpload())
}

// errorHandler renders echo errors (unknown routes, bad methods) as JSON.
func errorHandler(c echo.Context, err error) {
	if c.Response().Committed {
		return
	}
	log := logging.FromCtx(c.Request().Context())

	status := http.StatusInternalServerError
	msg := "internal server error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		msg = http.StatusText(he.Code)
		if s, ok := he.Message.(string); ok {
			msg = s
		}
	} else {
		log.Error().Err(err).Msg("unhandled error")
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, dto.ErrorResponse{Error: msg})
	}
	if err != nil {
		log.Warn().Err(err).Msg("failed to write error response")
	}
}
