package api

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/bnema/gatekeeper/internal/adapters/dto"
	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/internal/logging"
)

const uploadFailed = "upload failed"

// uploadPackage always answers 200. Failures carry null identifiers and an
// error string.
func (h *Handler) uploadPackage(c echo.Context) error {
	ctx := logging.CtxWithFields(c.Request().Context(), map[string]any{
		logging.FieldLayer:   "adapter",
		logging.FieldAdapter: "http",
		logging.FieldHandler: "uploadPackage",
	})
	log := logging.FromCtx(ctx)

	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.maxUploadSize)

	fh, err := c.FormFile("file")
	if err != nil {
		log.Warn().Err(err).Msg("no package in upload request")
		return c.JSON(http.StatusOK, failedUpload())
	}
	src, err := fh.Open()
	if err != nil {
		log.Error().Err(err).Msg("failed to open uploaded package")
		return c.JSON(http.StatusOK, failedUpload())
	}
	defer src.Close()

	svc, err := h.packages.Upload(ctx, fh.Filename, src)
	if err != nil {
		log.Error().Err(err).Str("filename", fh.Filename).Msg("service package upload failed")
		return c.JSON(http.StatusOK, failedUpload())
	}

	id := svc.UUID()
	sha1 := svc.Package.SHA1
	return c.JSON(http.StatusOK, dto.UploadResponse{
		ServiceUUID: &id,
		Size:        svc.Package.Size,
		SHA1:        &sha1,
	})
}

func failedUpload() dto.UploadResponse {
	msg := uploadFailed
	return dto.UploadResponse{Error: &msg}
}

func (h *Handler) listPackages(c echo.Context) error {
	ids, err := h.packages.ListPackages(c.Request().Context())
	if err != nil {
		return h.sendError(c, err)
	}
	if ids == nil {
		ids = []string{}
	}
	return c.JSON(http.StatusOK, dto.PackageListResponse{ServiceUUIDList: ids})
}

func (h *Handler) getPackage(c echo.Context) error {
	svc, err := h.packages.GetPackage(c.Request().Context(), c.Param("uuid"))
	if err != nil {
		return h.sendError(c, err)
	}
	return c.JSON(http.StatusOK, toPackageDetail(svc))
}

func (h *Handler) packageHistory(c echo.Context) error {
	records, err := h.packages.History(c.Request().Context())
	if err != nil {
		return h.sendError(c, err)
	}

	resp := dto.PackageHistoryResponse{Packages: make([]dto.PackageRecord, 0, len(records))}
	for _, r := range records {
		resp.Packages = append(resp.Packages, dto.PackageRecord{
			ServiceUUID: r.ServiceUUID,
			PackageName: r.PackageName,
			SHA1:        r.SHA1,
			Size:        r.Size,
			State:       r.State.String(),
			Error:       r.Error,
			UploadedAt:  r.UploadedAt,
			UpdatedAt:   r.UpdatedAt,
			Registered:  r.Registered,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func toPackageDetail(svc *domain.Service) dto.PackageDetail {
	d := dto.PackageDetail{
		ServiceUUID: svc.UUID(),
		State:       svc.State.String(),
		SHA1:        svc.Package.SHA1,
		Digest:      svc.Package.Digest,
		Size:        svc.Package.Size,
		UploadedAt:  svc.Package.UploadedAt,
		UpdatedAt:   svc.UpdatedAt,
		PackageName: svc.PackageName(),
		VNFDNames:   make([]string, 0, len(svc.VNFDs)),
		DockerFiles: make(map[string]string, len(svc.LocalDockerFiles)),
		Warnings:    svc.Warnings,
		Error:       svc.Error,
	}
	if svc.Manifest != nil {
		d.PackageVersion = svc.Manifest.PackageVersion
	}
	if svc.NSD != nil {
		d.NSDName = svc.NSD.Name
	}
	for name := range svc.VNFDs {
		d.VNFDNames = append(d.VNFDNames, name)
	}
	sort.Strings(d.VNFDNames)
	for image, path := range svc.LocalDockerFiles {
		d.DockerFiles[image] = path
	}
	for _, a := range svc.UnresolvedArtifacts {
		d.UnresolvedArtifacts = append(d.UnresolvedArtifacts, a.DeclaredPath)
	}
	if svc.BuildReport != nil {
		for _, r := range svc.BuildReport.Results {
			b := dto.BuildResult{
				ImageName:    r.ImageName,
				DeclaredPath: r.DeclaredPath,
				Success:      r.Success,
				DurationMs:   r.Duration.Milliseconds(),
			}
			if r.Err != nil {
				b.Error = r.Err.Error()
			}
			d.Builds = append(d.Builds, b)
		}
	}
	return d
}
