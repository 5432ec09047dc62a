// Package api implements the REST control plane under /api.
package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bnema/gatekeeper/internal/adapters/dto"
	"github.com/bnema/gatekeeper/internal/boundaries/in"
	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/internal/logging"
)

// DefaultMaxUploadSize is the package upload limit (512 MiB).
const DefaultMaxUploadSize int64 = 512 << 20

// Handler serves the package and instantiation endpoints.
type Handler struct {
	packages      in.PackageService
	instances     in.InstantiationService
	maxUploadSize int64
}

// NewHandler creates a new API handler. A non-positive maxUploadSize means
// DefaultMaxUploadSize.
func NewHandler(packages in.PackageService, instances in.InstantiationService, maxUploadSize int64) *Handler {
	if maxUploadSize <= 0 {
		maxUploadSize = DefaultMaxUploadSize
	}
	return &Handler{
		packages:      packages,
		instances:     instances,
		maxUploadSize: maxUploadSize,
	}
}

// Register mounts the routes on g, normally the /api group.
func (h *Handler) Register(g *echo.Group) {
	g.POST("/packages", h.uploadPackage)
	g.GET("/packages", h.listPackages)
	g.GET("/packages/history", h.packageHistory)
	g.GET("/packages/:uuid", h.getPackage)
	g.POST("/instantiations", h.instantiate)
	g.GET("/instantiations", h.listInstances)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidServiceUUID), errors.Is(err, domain.ErrMissingServiceUUID):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrServiceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrServiceNotOnboarded), errors.Is(err, domain.ErrOnboardingInProgress):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) sendError(c echo.Context, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log := logging.FromCtx(c.Request().Context())
		log.Error().Err(err).Msg("request failed")
		msg = "internal server error"
	}
	return c.JSON(status, dto.ErrorResponse{Error: msg})
}
