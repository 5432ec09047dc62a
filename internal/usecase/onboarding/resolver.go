package onboarding

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/pkg/validation"
)

// ImageNameTable maps a docker file path, exactly as declared in a manifest,
// to the name of the image built from it.
type ImageNameTable map[string]string

// DefaultImageNameTable returns the names used by the example packages.
func DefaultImageNameTable() ImageNameTable {
	return ImageNameTable{
		"/docker_files/iperf/Dockerfile":    "iperf_docker",
		"/docker_files/firewall/Dockerfile": "fw_docker",
		"/docker_files/tcpdump/Dockerfile":  "tcpdump_docker",
	}
}

// Lookup returns the image name for declared. There is no fallback name.
func (t ImageNameTable) Lookup(declared string) (string, bool) {
	name, ok := t[declared]
	return name, ok
}

// Validate checks that every mapped image name is usable as a docker tag.
func (t ImageNameTable) Validate() error {
	paths := make([]string, 0, len(t))
	for p := range t {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		if p == "" {
			return fmt.Errorf("image map contains an empty path")
		}
		if err := validation.ValidateImageName(t[p]); err != nil {
			return fmt.Errorf("image map entry %q: %w", p, err)
		}
	}
	return nil
}

// Resolver turns the docker file entries of a manifest into build artifacts.
type Resolver struct {
	names ImageNameTable
}

// NewResolver creates a resolver. A nil table means DefaultImageNameTable.
func NewResolver(names ImageNameTable) *Resolver {
	if names == nil {
		names = DefaultImageNameTable()
	}
	return &Resolver{names: names}
}

// Resolve returns one artifact per docker file entry of m, in manifest order.
// Entries whose path is not in the table come back with Resolved false.
func (r *Resolver) Resolve(root string, m *domain.Manifest) ([]domain.BuildArtifact, error) {
	var artifacts []domain.BuildArtifact

	for _, entry := range m.EntriesOfType(domain.ContentTypeDockerFiles) {
		rel, err := entryPath(entry.Name, "package_content.name")
		if err != nil {
			return nil, err
		}
		dockerfile := filepath.Join(root, filepath.FromSlash(rel))

		artifact := domain.BuildArtifact{
			DeclaredPath:   entry.Name,
			DockerfilePath: dockerfile,
			ContextDir:     filepath.Dir(dockerfile),
		}
		if name, ok := r.names.Lookup(entry.Name); ok {
			artifact.ImageName = name
			artifact.Resolved = true
		}
		artifacts = append(artifacts, artifact)
	}

	return artifacts, nil
}
