package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/gatekeeper/pkg/descriptor"
)

func TestTypedErrors_MatchTheirKind(t *testing.T) {
	cause := errors.New("boom")

	tests := []struct {
		name     string
		err      error
		sentinel error
		kind     ErrorKind
	}{
		{"upload", &UploadError{Op: "write", Err: cause}, ErrUpload, KindUpload},
		{"storage", &StorageError{Op: "unpack", Path: "/tmp/x", Err: cause}, ErrStorage, KindStorage},
		{"validation", &ValidationError{Path: ManifestPath, Reason: "bad"}, ErrValidation, KindValidation},
		{"resolution", &ResolutionError{DeclaredPath: "/docker_files/x/Dockerfile"}, ErrResolution, KindResolution},
		{"build", &BuildError{Image: "x", Err: cause}, ErrBuild, KindBuild},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wrapped := fmt.Errorf("onboarding: %w", tt.err)
			assert.ErrorIs(t, wrapped, tt.sentinel)

			kind, ok := KindOf(wrapped)
			assert.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestTypedErrors_UnwrapCause(t *testing.T) {
	cause := errors.New("disk full")

	assert.ErrorIs(t, &UploadError{Op: "write", Err: cause}, cause)
	assert.ErrorIs(t, &StorageError{Op: "mkdir", Err: cause}, cause)
	assert.ErrorIs(t, &BuildError{Image: "x", Err: cause}, cause)
	assert.NotErrorIs(t, &BuildError{Image: "x", Err: cause}, ErrStorage)
}

func TestKindOf_ParseError(t *testing.T) {
	_, err := descriptor.Parse([]byte("ns_name: [oops\n"))
	require.Error(t, err)

	kind, ok := KindOf(fmt.Errorf("onboarding halted after %s: %w", StateManifestLoaded, err))
	assert.True(t, ok)
	assert.Equal(t, KindParse, kind)
}

func TestKindOf_PlainError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestValidationError_Message(t *testing.T) {
	assert.Equal(t, "invalid a.yml (vnf_name): missing",
		(&ValidationError{Path: "a.yml", Field: "vnf_name", Reason: "missing"}).Error())
	assert.Equal(t, "invalid package: empty", (&ValidationError{Reason: "empty"}).Error())
}
