// Package validation checks identifiers and paths that come from uploads
// before they touch the filesystem.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// Service and instance identifiers are lowercase RFC 4122 UUIDs.
var uuidRegex = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)

// Image names follow the docker repository grammar without registry host or tag.
var imageNameRegex = regexp.MustCompile(`^[a-z0-9]+(?:[._-][a-z0-9]+)*(?:/[a-z0-9]+(?:[._-][a-z0-9]+)*)*$`)

// MaxImageNameLength is the maximum allowed length for image names.
const MaxImageNameLength = 256

// ValidateUUID validates a service or instance identifier.
func ValidateUUID(uuid string) error {
	if uuid == "" {
		return fmt.Errorf("UUID cannot be empty")
	}
	if !uuidRegex.MatchString(uuid) {
		return fmt.Errorf("invalid UUID format")
	}
	return nil
}

// ValidateImageName validates a local image name such as "iperf_docker".
func ValidateImageName(name string) error {
	if name == "" {
		return fmt.Errorf("image name cannot be empty")
	}
	if len(name) > MaxImageNameLength {
		return fmt.Errorf("image name too long: %d chars (max %d)", len(name), MaxImageNameLength)
	}
	if !imageNameRegex.MatchString(name) {
		return fmt.Errorf("invalid image name %q: must contain only lowercase letters, digits, and separators (., _, -)", name)
	}
	return nil
}

// SafeJoin joins name onto rootDir and fails when the result would land
// outside rootDir. name uses forward slashes, as in zip entries.
func SafeJoin(rootDir, name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("path cannot be empty")
	}
	if strings.ContainsRune(name, 0) {
		return "", fmt.Errorf("path contains NUL byte")
	}
	full := filepath.Join(rootDir, filepath.FromSlash(name))
	if err := ValidatePathWithinRoot(rootDir, full); err != nil {
		return "", fmt.Errorf("%q: %w", name, err)
	}
	return full, nil
}

// ValidatePathWithinRoot validates that a constructed path stays within the root directory.
func ValidatePathWithinRoot(rootDir, fullPath string) error {
	cleanRoot := filepath.Clean(rootDir)
	cleanPath := filepath.Clean(fullPath)

	if !strings.HasPrefix(cleanPath, cleanRoot+string(filepath.Separator)) && cleanPath != cleanRoot {
		return fmt.Errorf("path escapes root directory")
	}

	return nil
}
