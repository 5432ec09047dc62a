package domain

import "time"

// ArchiveExtension is appended to the service UUID to name a stored upload.
const ArchiveExtension = ".son"

// Package is an uploaded service package as stored on disk.
type Package struct {
	UUID        string
	SHA1        string // hex SHA-1 of the stored bytes
	Digest      string // sha256 content digest of the same bytes
	Size        int64
	ArchivePath string
	ContentPath string // extraction root
	UploadedAt  time.Time
}
