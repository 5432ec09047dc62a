package out

import (
	"context"

	"github.com/bnema/gatekeeper/internal/domain"
)

// PackageIndex defines the contract for the persisted onboarding history.
type PackageIndex interface {
	// Record inserts or updates the record of one service.
	Record(ctx context.Context, rec domain.PackageRecord) error

	// List returns all records ordered by upload time.
	List(ctx context.Context) ([]domain.PackageRecord, error)
}
