// Package onboarding implements package intake and the onboarding pipeline.
package onboarding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bnema/gatekeeper/internal/boundaries/out"
	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/internal/logging"
	"github.com/bnema/gatekeeper/pkg/validation"
)

// Config holds the onboarding settings.
type Config struct {
	ParsePolicy ParsePolicy
	ImageNames  ImageNameTable
	Build       BuildOptions
}

// Service implements in.PackageService.
type Service struct {
	archives out.ArchiveStore
	registry out.ServiceRegistry
	index    out.PackageIndex
	events   out.EventPublisher
	loader   *DescriptorLoader
	resolver *Resolver
	builder  *Builder
	metrics  Metrics
	newID    func() string
	now      func() time.Time

	mu      sync.Mutex
	running map[string]struct{}
}

// NewService creates the onboarding service. index and events may be nil.
func NewService(
	archives out.ArchiveStore,
	registry out.ServiceRegistry,
	runtime out.ImageRuntime,
	buildLogs out.BuildLogSink,
	events out.EventPublisher,
	index out.PackageIndex,
	cfg Config,
) *Service {
	return &Service{
		archives: archives,
		registry: registry,
		index:    index,
		events:   events,
		loader:   NewDescriptorLoader(cfg.ParsePolicy),
		resolver: NewResolver(cfg.ImageNames),
		builder:  NewBuilder(runtime, buildLogs, cfg.Build),
		metrics:  noopMetrics{},
		newID:    func() string { return uuid.New().String() },
		now:      time.Now,
		running:  make(map[string]struct{}),
	}
}

// SetMetrics sets the metrics sink. Must be called before serving requests.
func (s *Service) SetMetrics(m Metrics) {
	if m == nil {
		m = noopMetrics{}
	}
	s.metrics = m
	s.builder.metrics = m
}

// Upload stores content under a fresh service UUID, registers the service
// and onboards it.
func (s *Service) Upload(ctx context.Context, filename string, content io.Reader) (*domain.Service, error) {
	id := s.newID()
	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:    "usecase",
		logging.FieldUseCase:  "Upload",
		logging.FieldEntityID: id,
		"filename":            filename,
	})
	log := logging.FromCtx(ctx)

	// held from the first commit so Onboard cannot start this service first
	if !s.acquire(id) {
		return nil, domain.ErrOnboardingInProgress
	}
	defer s.release(id)

	pkg, err := s.archives.Store(ctx, id, content)
	if err != nil {
		s.metrics.PackageUploaded(false, 0)
		return nil, log.WrapErr(err, "failed to store package")
	}
	s.metrics.PackageUploaded(true, pkg.Size)

	svc := domain.NewService(pkg)
	if err := s.commit(ctx, svc); err != nil {
		return nil, log.WrapErr(err, "failed to register service")
	}

	log.Info().
		Int64(logging.FieldSize, pkg.Size).
		Str("sha1", pkg.SHA1).
		Msg("package uploaded")

	return s.onboard(ctx, svc)
}

// Onboard runs the pipeline for a service that is still in state uploaded.
// A second call for the same service returns domain.ErrOnboardingInProgress.
// The HTTP API onboards through Upload; Onboard serves in-process callers
// that register stored packages themselves.
func (s *Service) Onboard(ctx context.Context, serviceUUID string) (*domain.Service, error) {
	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:    "usecase",
		logging.FieldUseCase:  "Onboard",
		logging.FieldEntityID: serviceUUID,
	})

	if err := validation.ValidateUUID(serviceUUID); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidServiceUUID, err)
	}

	if !s.acquire(serviceUUID) {
		svc, err := s.registry.Get(serviceUUID)
		if err != nil {
			return nil, err
		}
		return svc, domain.ErrOnboardingInProgress
	}
	defer s.release(serviceUUID)

	svc, err := s.registry.Get(serviceUUID)
	if err != nil {
		return nil, err
	}
	if svc.State != domain.StateUploaded || svc.Failed() {
		return svc, domain.ErrOnboardingInProgress
	}

	return s.onboard(ctx, svc)
}

// pipelineRun carries what one onboarding run learns between steps.
type pipelineRun struct {
	svc       *domain.Service
	rootDir   string
	root      fs.FS
	artifacts []domain.BuildArtifact
}

type pipelineStep struct {
	reaches domain.OnboardingState
	run     func(ctx context.Context, r *pipelineRun) error
}

func (s *Service) pipeline() []pipelineStep {
	return []pipelineStep{
		{domain.StateUnpacked, s.unpack},
		{domain.StateManifestLoaded, s.loadManifest},
		{domain.StateServiceDescriptorLoaded, s.loadServiceDescriptor},
		{domain.StateFunctionDescriptorsLoaded, s.loadFunctionDescriptors},
		{domain.StateBuildArtifactsResolved, s.resolveArtifacts},
		{domain.StateImagesBuilt, s.buildImages},
		{domain.StateOnboarded, func(context.Context, *pipelineRun) error { return nil }},
	}
}

// onboard walks the pipeline. The caller holds the run lock for svc.
func (s *Service) onboard(ctx context.Context, svc *domain.Service) (*domain.Service, error) {
	log := logging.FromCtx(ctx)
	run := &pipelineRun{svc: svc}

	for _, step := range s.pipeline() {
		if err := ctx.Err(); err != nil {
			return s.fail(ctx, svc, err)
		}
		if err := step.run(ctx, run); err != nil {
			return s.fail(ctx, svc, err)
		}
		svc.State = step.reaches
		if err := s.commit(ctx, svc); err != nil {
			return s.fail(ctx, svc, err)
		}
		log.Debug().Str("state", svc.State.String()).Msg("onboarding step completed")
	}

	s.metrics.OnboardingFinished(svc.State, true)
	log.Info().
		Str("package_name", svc.PackageName()).
		Int("images_built", svc.BuildReport.Succeeded()).
		Int("images_failed", svc.BuildReport.Failed()).
		Msg("service onboarded")

	return svc.Clone(), nil
}

func (s *Service) unpack(ctx context.Context, r *pipelineRun) error {
	dir, err := s.archives.Unpack(ctx, r.svc.Package)
	if err != nil {
		return err
	}
	r.svc.Package.ContentPath = dir
	r.rootDir = dir
	r.root = os.DirFS(dir)
	return nil
}

func (s *Service) loadManifest(ctx context.Context, r *pipelineRun) error {
	m, warnings, err := s.loader.LoadManifest(ctx, r.root)
	if err != nil {
		return err
	}
	r.svc.Manifest = m
	r.svc.Warnings = append(r.svc.Warnings, warnings...)
	return nil
}

func (s *Service) loadServiceDescriptor(ctx context.Context, r *pipelineRun) error {
	nsd, warnings, err := s.loader.LoadServiceDescriptor(ctx, r.root, r.svc.Manifest)
	if err != nil {
		return err
	}
	r.svc.NSD = nsd
	r.svc.Warnings = append(r.svc.Warnings, warnings...)
	return nil
}

func (s *Service) loadFunctionDescriptors(ctx context.Context, r *pipelineRun) error {
	vnfds, warnings, err := s.loader.LoadFunctionDescriptors(ctx, r.root, r.svc.Manifest)
	if err != nil {
		return err
	}
	r.svc.VNFDs = vnfds
	r.svc.Warnings = append(r.svc.Warnings, warnings...)
	return nil
}

func (s *Service) resolveArtifacts(_ context.Context, r *pipelineRun) error {
	artifacts, err := s.resolver.Resolve(r.rootDir, r.svc.Manifest)
	if err != nil {
		return err
	}
	r.artifacts = artifacts
	for _, a := range artifacts {
		if a.Resolved {
			r.svc.LocalDockerFiles[a.ImageName] = a.DockerfilePath
		} else {
			r.svc.UnresolvedArtifacts = append(r.svc.UnresolvedArtifacts, a)
		}
	}
	return nil
}

func (s *Service) buildImages(ctx context.Context, r *pipelineRun) error {
	r.svc.BuildReport = s.builder.Build(ctx, r.svc.UUID(), r.artifacts)
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := s.builder.DownloadImages(ctx, nil); err != nil && !errors.Is(err, domain.ErrNotSupported) {
		return err
	}
	return nil
}

// fail records err on svc, keeps its last successful state and returns a
// snapshot together with the error.
func (s *Service) fail(ctx context.Context, svc *domain.Service, err error) (*domain.Service, error) {
	log := logging.FromCtx(ctx)

	svc.Error = err.Error()
	svc.UpdatedAt = s.now()
	if regErr := s.registry.Register(svc); regErr != nil {
		log.Error().Err(regErr).Msg("failed to record onboarding failure")
	}
	s.publish(ctx, domain.EventPackageOnboardingFailed, svc)
	s.metrics.OnboardingFinished(svc.State, false)

	kind, _ := domain.KindOf(err)
	log.Error().
		Err(err).
		Str("state", svc.State.String()).
		Str("kind", string(kind)).
		Msg("onboarding halted")

	return svc.Clone(), fmt.Errorf("onboarding halted after %s: %w", svc.State, err)
}

// commit stores the current snapshot and announces the new state.
func (s *Service) commit(ctx context.Context, svc *domain.Service) error {
	svc.UpdatedAt = s.now()
	if err := s.registry.Register(svc); err != nil {
		return err
	}
	s.publish(ctx, domain.EventPackageStateChanged, svc)
	return nil
}

func (s *Service) publish(ctx context.Context, eventType domain.EventType, svc *domain.Service) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(eventType, domain.PackageEventPayload{Record: svc.Record()}); err != nil {
		log := logging.FromCtx(ctx)
		log.Warn().Err(err).Str(logging.FieldEvent, string(eventType)).Msg("failed to publish package event")
	}
}

func (s *Service) acquire(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.running[id]; busy {
		return false
	}
	s.running[id] = struct{}{}
	return true
}

func (s *Service) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.running, id)
}

// ListPackages returns all service UUIDs in ascending order.
func (s *Service) ListPackages(ctx context.Context) ([]string, error) {
	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:   "usecase",
		logging.FieldUseCase: "ListPackages",
	})
	log := logging.FromCtx(ctx)

	ids, err := s.registry.List()
	if err != nil {
		return nil, log.WrapErr(err, "failed to list packages")
	}
	return ids, nil
}

// GetPackage returns a snapshot of one service.
func (s *Service) GetPackage(_ context.Context, serviceUUID string) (*domain.Service, error) {
	if err := validation.ValidateUUID(serviceUUID); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidServiceUUID, err)
	}
	return s.registry.Get(serviceUUID)
}

// History returns the onboarding records, oldest upload first. Without a
// persistent index the records are derived from the registry.
func (s *Service) History(ctx context.Context) ([]domain.PackageRecord, error) {
	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:   "usecase",
		logging.FieldUseCase: "History",
	})
	log := logging.FromCtx(ctx)

	if s.index != nil {
		records, err := s.index.List(ctx)
		if err != nil {
			return nil, log.WrapErr(err, "failed to read package history")
		}
		for i := range records {
			_, err := s.registry.Get(records[i].ServiceUUID)
			records[i].Registered = err == nil
		}
		return records, nil
	}

	ids, err := s.registry.List()
	if err != nil {
		return nil, log.WrapErr(err, "failed to list packages")
	}
	records := make([]domain.PackageRecord, 0, len(ids))
	for _, id := range ids {
		svc, err := s.registry.Get(id)
		if err != nil {
			return nil, log.WrapErr(err, "failed to read package")
		}
		records = append(records, svc.Record())
	}
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UploadedAt.Before(records[j].UploadedAt)
	})
	return records, nil
}
