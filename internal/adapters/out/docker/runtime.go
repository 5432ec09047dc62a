// Package docker implements the image runtime adapter using the Docker API.
package docker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"

	"github.com/bnema/gatekeeper/internal/domain"
	"github.com/bnema/gatekeeper/internal/logging"
)

// apiClient is the subset of the Docker client the runtime uses.
type apiClient interface {
	ImageBuild(ctx context.Context, buildContext io.Reader, options types.ImageBuildOptions) (types.ImageBuildResponse, error)
	Ping(ctx context.Context) (types.Ping, error)
	ServerVersion(ctx context.Context) (types.Version, error)
	Close() error
}

// Runtime implements out.ImageRuntime using the Docker API.
type Runtime struct {
	client apiClient
}

// NewRuntime creates a runtime from the DOCKER_* environment.
func NewRuntime() (*Runtime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client: %w", err)
	}

	return &Runtime{
		client: cli,
	}, nil
}

// NewRuntimeWithClient creates a runtime around a custom client (for testing).
func NewRuntimeWithClient(cli apiClient) *Runtime {
	return &Runtime{
		client: cli,
	}
}

// Close releases the client connection.
func (r *Runtime) Close() error {
	return r.client.Close()
}

// BuildImage tars req.ContextDir, sends it to the daemon and streams the
// build output to onLine. A build error reported in the stream fails the
// build even though the API call itself succeeded.
func (r *Runtime) BuildImage(ctx context.Context, req domain.BuildRequest, onLine func(string)) error {
	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:   "adapter",
		logging.FieldAdapter: "docker",
		logging.FieldAction:  "BuildImage",
		"image":              req.Tag,
		"context_dir":        req.ContextDir,
	})
	log := logging.FromCtx(ctx)

	buildCtx, err := archive.TarWithOptions(req.ContextDir, &archive.TarOptions{})
	if err != nil {
		return log.WrapErr(err, "failed to create build context")
	}
	defer buildCtx.Close()

	log.Info().Msg("building image")

	resp, err := r.client.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{req.Tag},
		Dockerfile: req.Dockerfile,
		NoCache:    req.NoCache,
		Remove:     req.Remove,
	})
	if err != nil {
		return log.WrapErr(err, "failed to start image build")
	}
	defer resp.Body.Close()

	if err := decodeBuildStream(resp.Body, onLine); err != nil {
		return log.WrapErr(err, "image build failed")
	}

	log.Info().Msg("image built successfully")
	return nil
}

// buildMessage is one line of the build stream. Older daemons only set the
// plain "error" field.
type buildMessage struct {
	jsonmessage.JSONMessage
	ErrorText string `json:"error,omitempty"`
}

// decodeBuildStream reads the daemon's JSON message stream until EOF.
func decodeBuildStream(r io.Reader, onLine func(string)) error {
	if onLine == nil {
		onLine = func(string) {}
	}

	dec := json.NewDecoder(r)
	for {
		var msg buildMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("failed to decode build output: %w", err)
		}

		if msg.Error != nil {
			return msg.Error
		}
		if msg.ErrorText != "" {
			return errors.New(msg.ErrorText)
		}

		if line := strings.TrimRight(msg.Stream, "\r\n"); line != "" {
			onLine(line)
		}
		if msg.Status != "" {
			if msg.ID != "" {
				onLine(msg.ID + ": " + msg.Status)
			} else {
				onLine(msg.Status)
			}
		}
		if msg.Aux != nil {
			var aux struct {
				ID string `json:"ID"`
			}
			if json.Unmarshal(*msg.Aux, &aux) == nil && aux.ID != "" {
				onLine("built " + aux.ID)
			}
		}
	}
}

// Ping checks if Docker is responsive.
func (r *Runtime) Ping(ctx context.Context) error {
	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:   "adapter",
		logging.FieldAdapter: "docker",
		logging.FieldAction:  "Ping",
	})
	log := logging.FromCtx(ctx)

	if _, err := r.client.Ping(ctx); err != nil {
		return log.WrapErr(err, "Docker ping failed")
	}
	return nil
}

// Version returns the Docker daemon version.
func (r *Runtime) Version(ctx context.Context) (string, error) {
	ctx = logging.CtxWithFields(ctx, map[string]any{
		logging.FieldLayer:   "adapter",
		logging.FieldAdapter: "docker",
		logging.FieldAction:  "Version",
	})
	log := logging.FromCtx(ctx)

	version, err := r.client.ServerVersion(ctx)
	if err != nil {
		return "", log.WrapErr(err, "failed to get Docker version")
	}
	return version.Version, nil
}
