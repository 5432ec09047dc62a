package onboarding

import (
	"fmt"
	"io/fs"
	"path"

	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/pkg/descriptor"
)

// entryPath turns a path declared in the manifest into a clean path relative
// to the extraction root. Paths that would leave the root are rejected.
func entryPath(declared, field string) (string, error) {
	rel := path.Clean(descriptor.MakeRelative(declared))
	if declared == "" || rel == "." || !fs.ValidPath(rel) {
		return "", &domain.ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("path %q does not stay inside the package", declared),
		}
	}
	return rel, nil
}
