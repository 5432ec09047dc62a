package domain

import (
	"maps"
	"time"
)

// Service is the in-memory record of an uploaded package and everything
// onboarding learned about it.
type Service struct {
	Package             Package
	State               OnboardingState
	Manifest            *Manifest
	NSD                 *ServiceDescriptor
	VNFDs               map[string]FunctionDescriptor
	LocalDockerFiles    map[string]string // image name -> Dockerfile path
	UnresolvedArtifacts []BuildArtifact
	BuildReport         *BuildReport
	Instances           map[string]ServiceInstance
	Warnings            []string
	Error               string
	UpdatedAt           time.Time
}

// ServiceInstance is a placeholder for a running instance of a service.
type ServiceInstance struct {
	UUID      string
	CreatedAt time.Time
}

// NewService returns a service in state uploaded for pkg.
func NewService(pkg Package) *Service {
	return &Service{
		Package:          pkg,
		State:            StateUploaded,
		VNFDs:            make(map[string]FunctionDescriptor),
		LocalDockerFiles: make(map[string]string),
		Instances:        make(map[string]ServiceInstance),
		UpdatedAt:        pkg.UploadedAt,
	}
}

// UUID returns the service identifier, which is the package UUID.
func (s *Service) UUID() string {
	return s.Package.UUID
}

// PackageName returns the manifest package name, if a manifest was loaded.
func (s *Service) PackageName() string {
	if s.Manifest == nil {
		return ""
	}
	return s.Manifest.PackageName
}

// Onboarded reports whether the pipeline completed.
func (s *Service) Onboarded() bool {
	return s.State == StateOnboarded
}

// Failed reports whether the pipeline halted on an error.
func (s *Service) Failed() bool {
	return s.Error != ""
}

// Clone returns a copy that shares no mutable maps or slices with s.
// Loaded descriptors are never modified after loading and stay shared.
func (s *Service) Clone() *Service {
	if s == nil {
		return nil
	}
	c := *s
	c.VNFDs = maps.Clone(s.VNFDs)
	c.LocalDockerFiles = maps.Clone(s.LocalDockerFiles)
	c.Instances = maps.Clone(s.Instances)
	if s.Warnings != nil {
		c.Warnings = append([]string(nil), s.Warnings...)
	}
	if s.UnresolvedArtifacts != nil {
		c.UnresolvedArtifacts = append([]BuildArtifact(nil), s.UnresolvedArtifacts...)
	}
	if s.BuildReport != nil {
		report := BuildReport{Results: append([]BuildResult(nil), s.BuildReport.Results...)}
		c.BuildReport = &report
	}
	return &c
}

// Record returns the summary persisted in the onboarding history.
func (s *Service) Record() PackageRecord {
	return PackageRecord{
		ServiceUUID: s.Package.UUID,
		SHA1:        s.Package.SHA1,
		Digest:      s.Package.Digest,
		Size:        s.Package.Size,
		PackageName: s.PackageName(),
		State:       s.State,
		Error:       s.Error,
		UploadedAt:  s.Package.UploadedAt,
		UpdatedAt:   s.UpdatedAt,
		Registered:  true,
	}
}

// PackageRecord is the onboarding summary of one package.
type PackageRecord struct {
	ServiceUUID string
	SHA1        string
	Digest      string
	Size        int64
	PackageName string
	State       OnboardingState
	Error       string
	UploadedAt  time.Time
	UpdatedAt   time.Time
	// Registered is false for history rows whose service is not in the
	// live registry, such as packages onboarded before a restart.
	Registered bool
}
