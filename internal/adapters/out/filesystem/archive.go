// Package filesystem implements the package archive store on the local filesystem.
package filesystem

import (
	"archive/zip"
	"context"
	"crypto/sha1" //nolint:gosec // sha1 is the upload checksum exposed by the API, not a security control
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/internal/logging"
	"github.com/bnema/gatekeeper/pkg/validation"
)

// ServicesDir is the catalog subdirectory holding extracted packages.
const ServicesDir = "services"

// ArchiveStore keeps uploaded archives under uploadDir and extracts them
// under catalogDir/services/<uuid>.
type ArchiveStore struct {
	uploadDir  string
	catalogDir string
	log        logging.Logger
}

// NewArchiveStore creates the store, creating both directories on demand.
func NewArchiveStore(uploadDir, catalogDir string, log logging.Logger) (*ArchiveStore, error) {
	for _, dir := range []string{uploadDir, filepath.Join(catalogDir, ServicesDir)} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, &domain.StorageError{Op: "mkdir", Path: dir, Err: err}
		}
	}

	log.Info().
		Str(logging.FieldLayer, "adapter").
		Str(logging.FieldAdapter, "filesystem").
		Str("upload_dir", uploadDir).
		Str("catalog_dir", catalogDir).
		Msg("archive store initialized")

	return &ArchiveStore{
		uploadDir:  uploadDir,
		catalogDir: catalogDir,
		log:        log,
	}, nil
}

// ArchivePath returns where the archive of serviceUUID is stored.
func (s *ArchiveStore) ArchivePath(serviceUUID string) string {
	return filepath.Join(s.uploadDir, serviceUUID+domain.ArchiveExtension)
}

// ContentPath returns the extraction root of serviceUUID.
func (s *ArchiveStore) ContentPath(serviceUUID string) string {
	return filepath.Join(s.catalogDir, ServicesDir, serviceUUID)
}

// Store streams content to disk, computing size and checksums on the way.
func (s *ArchiveStore) Store(ctx context.Context, serviceUUID string, content io.Reader) (domain.Package, error) {
	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:    "adapter",
		logging.FieldAdapter:  "filesystem",
		logging.FieldAction:   "Store",
		logging.FieldEntityID: serviceUUID,
	})
	log := logging.FromCtx(ctx)

	if err := validation.ValidateUUID(serviceUUID); err != nil {
		return domain.Package{}, &domain.UploadError{Op: "validate id", Err: err}
	}

	archivePath := s.ArchivePath(serviceUUID)
	tmpPath := archivePath + ".tmp"

	file, err := os.OpenFile(tmpPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return domain.Package{}, &domain.UploadError{Op: "create", Err: err}
	}

	sum := sha1.New() //nolint:gosec
	digester := digest.Canonical.Digester()
	written, err := io.Copy(io.MultiWriter(file, sum, digester.Hash()), content)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmpPath)
		return domain.Package{}, &domain.UploadError{Op: "write", Err: err}
	}

	if err := os.Rename(tmpPath, archivePath); err != nil {
		os.Remove(tmpPath)
		return domain.Package{}, &domain.UploadError{Op: "rename", Err: err}
	}

	pkg := domain.Package{
		UUID:        serviceUUID,
		SHA1:        hex.EncodeToString(sum.Sum(nil)),
		Digest:      digester.Digest().String(),
		Size:        written,
		ArchivePath: archivePath,
		ContentPath: s.ContentPath(serviceUUID),
		UploadedAt:  time.Now().UTC(),
	}

	log.Info().
		Int64(logging.FieldSize, written).
		Str("sha1", pkg.SHA1).
		Str("digest", pkg.Digest).
		Msg("package archive stored")

	return pkg, nil
}

// Unpack extracts the archive of pkg into pkg.ContentPath. Entries that would
// land outside the extraction root are rejected.
func (s *ArchiveStore) Unpack(ctx context.Context, pkg domain.Package) (string, error) {
	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:    "adapter",
		logging.FieldAdapter:  "filesystem",
		logging.FieldAction:   "Unpack",
		logging.FieldEntityID: pkg.UUID,
	})
	log := logging.FromCtx(ctx)

	dest := pkg.ContentPath
	if dest == "" {
		dest = s.ContentPath(pkg.UUID)
	}
	if err := validation.ValidatePathWithinRoot(filepath.Join(s.catalogDir, ServicesDir), dest); err != nil {
		return "", &domain.StorageError{Op: "unpack", Path: dest, Err: err}
	}

	zr, err := zip.OpenReader(pkg.ArchivePath)
	if err != nil {
		return "", &domain.StorageError{Op: "open archive", Path: pkg.ArchivePath, Err: err}
	}
	defer zr.Close()

	if err := os.MkdirAll(dest, 0o750); err != nil {
		return "", &domain.StorageError{Op: "mkdir", Path: dest, Err: err}
	}

	files := 0
	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return "", &domain.StorageError{Op: "unpack", Path: dest, Err: err}
		}
		extracted, err := extractEntry(dest, f)
		if err != nil {
			return "", err
		}
		if extracted {
			files++
		}
	}

	log.Info().
		Int(logging.FieldCount, files).
		Str(logging.FieldPath, dest).
		Msg("package archive unpacked")

	return dest, nil
}

// extractEntry writes one zip entry below dest and reports whether a regular
// file was written.
func extractEntry(dest string, f *zip.File) (bool, error) {
	target, err := validation.SafeJoin(dest, f.Name)
	if err != nil {
		return false, &domain.StorageError{Op: "extract", Path: f.Name, Err: err}
	}

	mode := f.Mode()
	switch {
	case mode.IsDir() || strings.HasSuffix(f.Name, "/"):
		if err := os.MkdirAll(target, 0o750); err != nil {
			return false, &domain.StorageError{Op: "mkdir", Path: target, Err: err}
		}
		return false, nil
	case mode&os.ModeSymlink != 0:
		return false, &domain.StorageError{Op: "extract", Path: f.Name, Err: fmt.Errorf("symbolic links are not allowed")}
	case !mode.IsRegular():
		return false, nil
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil {
		return false, &domain.StorageError{Op: "mkdir", Path: filepath.Dir(target), Err: err}
	}

	rc, err := f.Open()
	if err != nil {
		return false, &domain.StorageError{Op: "read entry", Path: f.Name, Err: err}
	}
	defer rc.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o640)
	if err != nil {
		return false, &domain.StorageError{Op: "create", Path: target, Err: err}
	}
	if _, err := io.Copy(out, rc); err != nil {
		out.Close()
		return false, &domain.StorageError{Op: "write", Path: target, Err: err}
	}
	if err := out.Close(); err != nil {
		return false, &domain.StorageError{Op: "close", Path: target, Err: err}
	}
	return true, nil
}
