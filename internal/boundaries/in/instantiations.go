package in

import "context"

// InstantiationService defines the contract for service instantiation.
type InstantiationService interface {
	// Instantiate mints an instance identifier for an onboarded service.
	Instantiate(ctx context.Context, serviceUUID string) (string, error)

	// ListInstances returns the known instance identifiers.
	ListInstances(ctx context.Context) ([]string, error)
}
