package domain

import (
	"errors"
	"fmt"

	"github.com/bnema/gatekeeper/pkg/descriptor"
)

// Sentinels used across layers to communicate specific failure conditions.
var (
	// Service errors
	ErrServiceNotFound      = errors.New("service not found")
	ErrServiceNotOnboarded  = errors.New("service is not onboarded")
	ErrOnboardingInProgress = errors.New("service onboarding already started")
	ErrInvalidServiceUUID   = errors.New("invalid service uuid")
	ErrMissingServiceUUID   = errors.New("service_uuid is required")

	// Capability errors
	ErrNotSupported = errors.New("operation not supported")

	// Kinds, matched with errors.Is against the typed errors below
	ErrUpload     = errors.New("upload error")
	ErrStorage    = errors.New("storage error")
	ErrValidation = errors.New("validation error")
	ErrResolution = errors.New("resolution error")
	ErrBuild      = errors.New("build error")
)

// ErrorKind names the family a typed error belongs to.
type ErrorKind string

const (
	KindUpload     ErrorKind = "upload"
	KindStorage    ErrorKind = "storage"
	KindValidation ErrorKind = "validation"
	KindResolution ErrorKind = "resolution"
	KindBuild      ErrorKind = "build"
	KindParse      ErrorKind = "parse"
)

// UploadError reports a failure to receive or persist uploaded bytes.
type UploadError struct {
	Op  string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed during %s: %v", e.Op, e.Err)
}

func (e *UploadError) Unwrap() error        { return e.Err }
func (e *UploadError) Is(target error) bool { return target == ErrUpload }
func (e *UploadError) Kind() ErrorKind      { return KindUpload }

// StorageError reports a filesystem failure while handling a stored package.
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error        { return e.Err }
func (e *StorageError) Is(target error) bool { return target == ErrStorage }
func (e *StorageError) Kind() ErrorKind      { return KindStorage }

// ValidationError reports a document that parsed but does not satisfy the
// package schema.
type ValidationError struct {
	Path   string // file inside the package
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	switch {
	case e.Path != "" && e.Field != "":
		return fmt.Sprintf("invalid %s (%s): %s", e.Path, e.Field, e.Reason)
	case e.Path != "":
		return fmt.Sprintf("invalid %s: %s", e.Path, e.Reason)
	case e.Field != "":
		return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
	default:
		return "invalid package: " + e.Reason
	}
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
func (e *ValidationError) Kind() ErrorKind      { return KindValidation }

// ResolutionError reports a docker file whose declared path has no image name.
type ResolutionError struct {
	DeclaredPath string
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("no image name known for docker file %q", e.DeclaredPath)
}

func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }
func (e *ResolutionError) Kind() ErrorKind      { return KindResolution }

// BuildError reports a failed image build.
type BuildError struct {
	Image string
	Err   error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build of image %s failed: %v", e.Image, e.Err)
}

func (e *BuildError) Unwrap() error        { return e.Err }
func (e *BuildError) Is(target error) bool { return target == ErrBuild }
func (e *BuildError) Kind() ErrorKind      { return KindBuild }

// KindOf returns the kind of the first typed error in err's chain.
// A *descriptor.ParseError is of kind parse.
func KindOf(err error) (ErrorKind, bool) {
	var k interface{ Kind() ErrorKind }
	if errors.As(err, &k) {
		return k.Kind(), true
	}
	var pe *descriptor.ParseError
	if errors.As(err, &pe) {
		return KindParse, true
	}
	return "", false
}
