// Package dto provides shared data transfer objects for API responses.
package dto

import "time"

// UploadResponse is returned by POST /api/packages. On failure ServiceUUID
// and SHA1 are null, Size is 0 and Error is set.
type UploadResponse struct {
	ServiceUUID *string `json:"service_uuid"`
	Size        int64   `json:"size"`
	SHA1        *string `json:"sha1"`
	Error       *string `json:"error"`
}

// PackageListResponse is returned by GET /api/packages.
type PackageListResponse struct {
	ServiceUUIDList []string `json:"service_uuid_list"`
}

// BuildResult is the outcome of one image build.
type BuildResult struct {
	ImageName    string `json:"image_name,omitempty"`
	DeclaredPath string `json:"declared_path"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	DurationMs   int64  `json:"duration_ms"`
}

// PackageDetail is returned by GET /api/packages/:uuid.
type PackageDetail struct {
	ServiceUUID         string            `json:"service_uuid"`
	State               string            `json:"state"`
	SHA1                string            `json:"sha1"`
	Digest              string            `json:"digest"`
	Size                int64             `json:"size"`
	UploadedAt          time.Time         `json:"uploaded_at"`
	UpdatedAt           time.Time         `json:"updated_at"`
	PackageName         string            `json:"package_name,omitempty"`
	PackageVersion      string            `json:"package_version,omitempty"`
	NSDName             string            `json:"nsd_name,omitempty"`
	VNFDNames           []string          `json:"vnfd_names"`
	DockerFiles         map[string]string `json:"docker_files"`
	UnresolvedArtifacts []string          `json:"unresolved_artifacts,omitempty"`
	Builds              []BuildResult     `json:"builds,omitempty"`
	Warnings            []string          `json:"warnings,omitempty"`
	Error               string            `json:"error,omitempty"`
}

// PackageRecord is one entry of the onboarding history.
type PackageRecord struct {
	ServiceUUID string    `json:"service_uuid"`
	PackageName string    `json:"package_name,omitempty"`
	SHA1        string    `json:"sha1"`
	Size        int64     `json:"size"`
	State       string    `json:"state"`
	Error       string    `json:"error,omitempty"`
	UploadedAt  time.Time `json:"uploaded_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Registered  bool      `json:"registered"`
}

// PackageHistoryResponse is returned by GET /api/packages/history.
type PackageHistoryResponse struct {
	Packages []PackageRecord `json:"packages"`
}
