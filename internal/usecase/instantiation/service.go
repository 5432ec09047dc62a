// Package instantiation implements the service instantiation use case.
// Instances are identifiers only; nothing is started.
package instantiation

import (
	"context"

	"github.com/google/uuid"

	"github.com/bnema/gatekeeper/internal/boundaries/out"
	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/internal/logging"
)

// Service implements in.InstantiationService.
type Service struct {
	registry out.ServiceRegistry
	newID    func() string
}

// NewService creates a new instantiation service.
func NewService(registry out.ServiceRegistry) *Service {
	return &Service{
		registry: registry,
		newID:    func() string { return uuid.New().String() },
	}
}

// Instantiate mints an instance UUID for an onboarded service.
func (s *Service) Instantiate(ctx context.Context, serviceUUID string) (string, error) {
	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:    "usecase",
		logging.FieldUseCase:  "Instantiate",
		logging.FieldEntityID: serviceUUID,
	})
	log := logging.FromCtx(ctx)

	if serviceUUID == "" {
		return "", domain.ErrMissingServiceUUID
	}

	svc, err := s.registry.Get(serviceUUID)
	if err != nil {
		return "", err
	}
	if !svc.Onboarded() {
		log.Debug().Str("state", svc.State.String()).Msg("service not onboarded")
		return "", domain.ErrServiceNotOnboarded
	}

	id := s.newID()
	log.Info().Str("service_instance_uuid", id).Msg("service instantiation requested")
	return id, nil
}

// ListInstances returns the known instances. Instances are never recorded,
// so the list is always empty.
func (s *Service) ListInstances(_ context.Context) ([]string, error) {
	return []string{}, nil
}
