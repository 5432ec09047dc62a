package out

import (
	"context"
	"io"

	"github.com/bnema/gatekeeper/internal/domain"
)

// ArchiveStore defines the contract for persisting and unpacking uploaded
// package archives.
type ArchiveStore interface {
	// Store writes content as the archive of serviceUUID and returns the
	// resulting package with its checksums and paths.
	Store(ctx context.Context, serviceUUID string, content io.Reader) (domain.Package, error)

	// Unpack extracts the archive of pkg into pkg.ContentPath and returns it.
	Unpack(ctx context.Context, pkg domain.Package) (string, error)
}
