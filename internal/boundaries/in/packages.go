package in

import (
	"context"
	"io"

	"github.com/bnema/gatekeeper/internal/domain"
)

// PackageService defines the contract for package intake and onboarding.
type PackageService interface {
	// Upload stores an uploaded package and onboards it. The returned service
	// reflects the last state reached, also when an error is returned.
	Upload(ctx context.Context, filename string, content io.Reader) (*domain.Service, error)

	// Onboard runs the onboarding pipeline for a service in state uploaded.
	Onboard(ctx context.Context, serviceUUID string) (*domain.Service, error)

	// ListPackages returns all known service UUIDs in ascending order.
	ListPackages(ctx context.Context) ([]string, error)

	// GetPackage returns a snapshot of one service.
	GetPackage(ctx context.Context, serviceUUID string) (*domain.Service, error)

	// History returns the persisted onboarding records, oldest first.
	History(ctx context.Context) ([]domain.PackageRecord, error)
}
