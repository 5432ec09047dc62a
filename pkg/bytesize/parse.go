// Package bytesize parses and formats human-friendly byte sizes.
package bytesize

import (
	"fmt"
	"strings"

	"github.com/docker/go-units"
)

// Parse parses sizes such as "512MB", "1.5GB" or "100k" using binary
// (1024-based) multiples. Units are case-insensitive; a bare number is bytes.
func Parse(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}

	n, err := units.RAMInBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n < 0 {
		return 0, fmt.Errorf("invalid size %q: negative value not allowed", s)
	}
	return n, nil
}

// MustParse is Parse for constants known to be valid.
func MustParse(s string) int64 {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Format renders n with binary units, e.g. "512MiB".
func Format(n int64) string {
	return units.BytesSize(float64(n))
}
