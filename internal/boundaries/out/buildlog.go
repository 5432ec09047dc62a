package out

import "io"

// BuildLogSink defines the contract for per-package build logs.
type BuildLogSink interface {
	// Open returns a writer for the build log of serviceUUID.
	Open(serviceUUID string) (io.WriteCloser, error)
}
