package out

import "github.com/bnema/gatekeeper/internal/domain"

// ServiceRegistry defines the contract for the in-memory service catalog.
type ServiceRegistry interface {
	// Register inserts or replaces the snapshot of a service.
	Register(svc *domain.Service) error

	// Get returns a copy of the service, or domain.ErrServiceNotFound.
	Get(serviceUUID string) (*domain.Service, error)

	// List returns all service UUIDs in ascending order.
	List() ([]string, error)
}
