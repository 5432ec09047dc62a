package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/docker/go-connections/tlsconfig"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/bnema/gatekeeper/internal/adapters/in/http/api"
	"github.com/bnema/gatekeeper/internal/adapters/in/http/middleware"
	"github.com/bnema/gatekeeper/internal/adapters/out/docker"
	"github.com/bnema/gatekeeper/internal/adapters/out/eventbus"
	"github.com/bnema/gatekeeper/internal/adapters/out/filesystem"
	"github.com/bnema/gatekeeper/internal/adapters/out/logwriter"
	"github.com/bnema/gatekeeper/internal/adapters/out/memdb"
	"github.com/bnema/gatekeeper/internal/adapters/out/sqlite"
	"github.com/bnema/gatekeeper/internal/adapters/out/telemetry"
	"github.com/bnema/gatekeeper/internal/boundaries/out"
	"github.com/bnema/gatekeeper/internal/logging"
	"github.com/bnema/gatekeeper/internal/usecase/instantiation"
	"github.com/bnema/gatekeeper/internal/usecase/onboarding"
)

const shutdownTimeout = 10 * time.Second

// services holds everything Run has to start and stop.
type services struct {
	runtime   *docker.Runtime
	bus       *eventbus.InMemory
	index     *sqlite.Index
	buildLogs *logwriter.LogWriter

	onboarding    *onboarding.Service
	instantiation *instantiation.Service
}

// close releases the adapters in reverse order of creation.
func (s *services) close(log logging.Logger) {
	if s.bus != nil {
		if err := s.bus.Stop(); err != nil {
			log.Warn().Err(err).Msg("event bus stop error")
		}
	}
	if s.index != nil {
		if err := s.index.Close(); err != nil {
			log.Warn().Err(err).Msg("package index close error")
		}
	}
	if s.buildLogs != nil {
		if err := s.buildLogs.Close(); err != nil {
			log.Warn().Err(err).Msg("build log close error")
		}
	}
	if s.runtime != nil {
		if err := s.runtime.Close(); err != nil {
			log.Warn().Err(err).Msg("docker client close error")
		}
	}
}

// Run loads the configuration, wires the gatekeeper and serves the REST API
// until ctx is cancelled or SIGINT/SIGTERM arrives.
func Run(ctx context.Context, configPath string) error {
	_, cfg, err := initConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	log, logCloser, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer logCloser.Close()
	logging.SetDefault(log)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx = logging.WithCtx(ctx, log)

	svc, err := createServices(ctx, cfg, log)
	if svc != nil {
		defer svc.close(log)
	}
	if err != nil {
		return err
	}

	server, err := createServer(cfg, svc, log)
	if err != nil {
		return err
	}

	return serve(ctx, server, cfg.TLSEnabled(), log)
}

// initLogger builds the root logger from the logging section.
func initLogger(cfg Config) (logging.Logger, io.Closer, error) {
	log, closer, err := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File: logging.FileConfig{
			Enabled:    cfg.Logging.File.Enabled,
			Path:       cfg.Logging.File.Path,
			MaxSize:    cfg.Logging.File.MaxSize,
			MaxBackups: cfg.Logging.File.MaxBackups,
			MaxAge:     cfg.Logging.File.MaxAge,
			Compress:   true,
		},
	}, nil)
	if err != nil {
		return logging.Default(), nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return log, closer, nil
}

// createServices builds the output adapters and the use cases. On error the
// partially built services are returned so the caller can close them.
func createServices(ctx context.Context, cfg Config, log logging.Logger) (*services, error) {
	svc := &services{}

	onboardingCfg, err := cfg.OnboardingConfig()
	if err != nil {
		return svc, err
	}

	svc.runtime, err = docker.NewRuntime()
	if err != nil {
		return svc, log.WrapErr(err, "failed to create Docker runtime")
	}
	// uploads still work without docker; the builds then fail per artifact
	if err := svc.runtime.Ping(ctx); err != nil {
		log.Warn().Err(err).Msg("Docker is not available, image builds will fail")
	} else {
		dockerVersion, _ := svc.runtime.Version(ctx)
		log.Info().Str("docker_version", dockerVersion).Msg("Docker runtime initialized")
	}

	archives, err := filesystem.NewArchiveStore(cfg.Storage.UploadDir, cfg.Storage.CatalogDir, log)
	if err != nil {
		return svc, log.WrapErr(err, "failed to create archive store")
	}

	registry, err := memdb.NewRegistry(log)
	if err != nil {
		return svc, log.WrapErr(err, "failed to create package registry")
	}

	svc.buildLogs, err = logwriter.New(logwriter.Config{
		Dir:        cfg.Build.LogDir,
		MaxSize:    cfg.Logging.File.MaxSize,
		MaxBackups: cfg.Logging.File.MaxBackups,
		MaxAge:     cfg.Logging.File.MaxAge,
	})
	if err != nil {
		return svc, log.WrapErr(err, "failed to create build log writer")
	}

	svc.bus = eventbus.NewInMemory(100, log)

	var index out.PackageIndex
	if cfg.Index.Enabled {
		svc.index, err = sqlite.Open(cfg.Index.Path, log)
		if err != nil {
			return svc, log.WrapErr(err, "failed to open package index")
		}
		if err := svc.bus.Subscribe(svc.index); err != nil {
			return svc, log.WrapErr(err, "failed to subscribe package index")
		}
		index = svc.index
	}

	if err := svc.bus.Start(); err != nil {
		return svc, log.WrapErr(err, "failed to start event bus")
	}

	svc.onboarding = onboarding.NewService(archives, registry, svc.runtime, svc.buildLogs, svc.bus, index, onboardingCfg)
	svc.instantiation = instantiation.NewService(registry)

	if cfg.Metrics.Enabled {
		metrics, err := telemetry.NewMetrics(prometheus.DefaultRegisterer)
		if err != nil {
			return svc, log.WrapErr(err, "failed to register metrics")
		}
		svc.onboarding.SetMetrics(metrics)
	}

	return svc, nil
}

// createServer builds the HTTP server around the API router.
func createServer(cfg Config, svc *services, log logging.Logger) (*http.Server, error) {
	maxUpload, err := cfg.MaxUploadSize()
	if err != nil {
		return nil, err
	}

	trusted, invalid := middleware.ParseTrustedProxies(cfg.API.TrustedProxies)
	for _, entry := range invalid {
		log.Warn().Str("entry", entry).Msg("ignoring invalid trusted proxy")
	}

	routerCfg := api.RouterConfig{
		MaxUploadSize:  maxUpload,
		TrustedProxies: trusted,
	}
	if cfg.API.RateLimit.Enabled {
		routerCfg.RateLimit = &middleware.RateLimitConfig{
			RPS:   cfg.API.RateLimit.RPS,
			Burst: cfg.API.RateLimit.Burst,
		}
	}
	if cfg.Metrics.Enabled {
		routerCfg.Registerer = prometheus.DefaultRegisterer
		routerCfg.Gatherer = prometheus.DefaultGatherer
	}

	router := api.NewRouter(routerCfg, svc.onboarding, svc.instantiation, log)

	server := &http.Server{
		Addr:              cfg.Server.Listen,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		// no read or write timeout: uploads are large and the response
		// waits for the image builds
	}

	if cfg.TLSEnabled() {
		tlsCfg, err := tlsconfig.Server(tlsconfig.Options{
			CertFile:   cfg.Server.TLS.CertFile,
			KeyFile:    cfg.Server.TLS.KeyFile,
			ClientAuth: tls.NoClientCert,
		})
		if err != nil {
			return nil, log.WrapErr(err, "failed to load TLS certificate")
		}
		server.TLSConfig = tlsCfg
	}

	return server, nil
}

// serve runs server until ctx is done, then shuts it down gracefully.
func serve(ctx context.Context, server *http.Server, useTLS bool, log logging.Logger) error {
	errCh := make(chan error, 1)
	go func() {
		var err error
		if useTLS {
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	log.Info().
		Str(logging.FieldLayer, "app").
		Str(logging.FieldComponent, "server").
		Str("listen", server.Addr).
		Bool("tls", useTLS).
		Msg("gatekeeper API listening")

	select {
	case err, ok := <-errCh:
		if ok {
			return log.WrapErr(err, "API server error")
		}
		return nil
	case <-ctx.Done():
		log.Info().
			Str(logging.FieldLayer, "app").
			Str(logging.FieldComponent, "server").
			Msg("shutdown requested")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("API server shutdown error")
	}
	return nil
}
