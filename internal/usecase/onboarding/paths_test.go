package onboarding

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/gatekeeper/internal/domain"
)

func TestEntryPath(t *testing.T) {
	tests := []struct {
		declared string
		want     string
		wantErr  bool
	}{
		{"/service_descriptors/a.yml", "service_descriptors/a.yml", false},
		{"function_descriptors/b.yml", "function_descriptors/b.yml", false},
		{"/docker_files/./iperf/Dockerfile", "docker_files/iperf/Dockerfile", false},
		{"/a/../b.yml", "b.yml", false},
		{"", "", true},
		{"/", "", true},
		{"/../etc/passwd", "", true},
		{"//etc/passwd", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.declared, func(t *testing.T) {
			got, err := entryPath(tt.declared, "name")
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
