package domain

import "time"

// BuildArtifact is a docker file declared by a package, resolved to an image
// name when the name table knows its declared path.
type BuildArtifact struct {
	DeclaredPath   string
	DockerfilePath string
	ContextDir     string
	ImageName      string
	Resolved       bool
}

// BuildRequest is what an image runtime needs to build one image.
type BuildRequest struct {
	ContextDir string
	Dockerfile string // relative to ContextDir
	Tag        string
	NoCache    bool
	Remove     bool
}

// BuildResult is the outcome of one artifact build.
type BuildResult struct {
	ImageName    string
	DeclaredPath string
	Success      bool
	Err          error
	Duration     time.Duration
}

// BuildReport collects one result per artifact, in artifact order.
type BuildReport struct {
	Results []BuildResult
}

// Succeeded returns the number of successful builds.
func (r *BuildReport) Succeeded() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, res := range r.Results {
		if res.Success {
			n++
		}
	}
	return n
}

// Failed returns the number of failed builds.
func (r *BuildReport) Failed() int {
	if r == nil {
		return 0
	}
	return len(r.Results) - r.Succeeded()
}
