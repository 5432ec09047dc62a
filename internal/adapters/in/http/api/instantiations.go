package api

import (
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/bnema/gatekeeper/internal/adapters/dto"
	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/internal/logging"
)

// instantiate reads the body as JSON whatever its Content-Type.
func (h *Handler) instantiate(c echo.Context) error {
	ctx := logging.CtxWithFields(c.Request().Context(), map[string]any{
		logging.FieldLayer:   "adapter",
		logging.FieldAdapter: "http",
		logging.FieldHandler: "instantiate",
	})

	var req dto.InstantiationRequest
	if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
		return c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "request body must be a JSON object"})
	}
	if req.ServiceUUID == "" {
		return h.sendError(c, domain.ErrMissingServiceUUID)
	}

	id, err := h.instances.Instantiate(ctx, req.ServiceUUID)
	if err != nil {
		return h.sendError(c, err)
	}
	return c.JSON(http.StatusOK, dto.InstantiationResponse{ServiceInstanceUUID: id})
}

func (h *Handler) listInstances(c echo.Context) error {
	ids, err := h.instances.ListInstances(c.Request().Context())
	if err != nil {
		return h.sendError(c, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(http.StatusOK, dto.InstanceListResponse{ServiceInstanceUUIDList: ids})
}
