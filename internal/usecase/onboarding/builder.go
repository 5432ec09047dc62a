package onboarding

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/bnema/gatekeeper/internal/boundaries/out"
	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/internal/logging"
)

// DefaultBuildTimeout bounds a single image build.
const DefaultBuildTimeout = 30 * time.Minute

// BuildOptions are passed to every image build.
type BuildOptions struct {
	NoCache            bool
	RemoveIntermediate bool
	Timeout            time.Duration
}

// Builder builds the images of resolved artifacts, one at a time.
type Builder struct {
	runtime out.ImageRuntime
	logs    out.BuildLogSink
	opts    BuildOptions
	metrics Metrics
}

// NewBuilder creates a builder. logs may be nil.
func NewBuilder(runtime out.ImageRuntime, logs out.BuildLogSink, opts BuildOptions) *Builder {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultBuildTimeout
	}
	return &Builder{
		runtime: runtime,
		logs:    logs,
		opts:    opts,
		metrics: noopMetrics{},
	}
}

// Build attempts every artifact and returns one result per artifact. A
// failed or unresolved artifact never stops the others.
func (b *Builder) Build(ctx context.Context, serviceUUID string, artifacts []domain.BuildArtifact) *domain.BuildReport {
	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldAction: "BuildImages",
	})
	log := logging.FromCtx(ctx)

	sink := b.openLog(ctx, serviceUUID)
	defer sink.Close()

	report := &domain.BuildReport{Results: make([]domain.BuildResult, 0, len(artifacts))}
	for _, a := range artifacts {
		res := domain.BuildResult{ImageName: a.ImageName, DeclaredPath: a.DeclaredPath}

		if !a.Resolved {
			res.Err = &domain.ResolutionError{DeclaredPath: a.DeclaredPath}
			fmt.Fprintf(sink, "==> skipping %s: %v\n", a.DeclaredPath, res.Err)
			log.Warn().Str("declared_path", a.DeclaredPath).Msg("docker file has no image name, not built")
			report.Results = append(report.Results, res)
			continue
		}

		start := time.Now()
		err := b.buildOne(ctx, a, sink)
		res.Duration = time.Since(start)
		if err != nil {
			res.Err = &domain.BuildError{Image: a.ImageName, Err: err}
			fmt.Fprintf(sink, "==> %s failed: %v\n", a.ImageName, err)
			log.Error().Err(err).Str("image", a.ImageName).Msg("image build failed")
		} else {
			res.Success = true
			fmt.Fprintf(sink, "==> %s built in %s\n", a.ImageName, res.Duration.Round(time.Millisecond))
			log.Info().Str("image", a.ImageName).Dur(logging.FieldDuration, res.Duration).Msg("image built")
		}
		b.metrics.ImageBuilt(res.Success, res.Duration)
		report.Results = append(report.Results, res)
	}

	return report
}

func (b *Builder) buildOne(ctx context.Context, a domain.BuildArtifact, sink io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, b.opts.Timeout)
	defer cancel()

	log := logging.FromCtx(ctx)
	fmt.Fprintf(sink, "==> building %s from %s\n", a.ImageName, a.DeclaredPath)

	err := b.runtime.BuildImage(ctx, domain.BuildRequest{
		ContextDir: a.ContextDir,
		Dockerfile: filepath.Base(a.DockerfilePath),
		Tag:        a.ImageName,
		NoCache:    b.opts.NoCache,
		Remove:     b.opts.RemoveIntermediate,
	}, func(line string) {
		fmt.Fprintln(sink, line)
		log.Debug().Str("image", a.ImageName).Str("output", line).Msg("build output")
	})
	if err != nil && errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("timed out after %s: %w", b.opts.Timeout, err)
	}
	return err
}

// DownloadImages would pull pre-built images by URL. It is not supported.
func (b *Builder) DownloadImages(_ context.Context, _ []string) error {
	return domain.ErrNotSupported
}

func (b *Builder) openLog(ctx context.Context, serviceUUID string) io.WriteCloser {
	if b.logs == nil {
		return nopWriteCloser{io.Discard}
	}
	w, err := b.logs.Open(serviceUUID)
	if err != nil {
		log := logging.FromCtx(ctx)
		log.Warn().Err(err).Msg("build log unavailable, build output only goes to debug logging")
		return nopWriteCloser{io.Discard}
	}
	return w
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
