package out

import (
	"context"

	"github.com/bnema/gatekeeper/internal/domain"
)

// ImageRuntime defines the contract for building container images.
type ImageRuntime interface {
	// BuildImage builds and tags one image. Each line of build output is
	// passed to onLine as it arrives.
	BuildImage(ctx context.Context, req domain.BuildRequest, onLine func(string)) error
}
