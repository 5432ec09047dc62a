package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log, closer, err := New(Config{Level: "debug", Format: "json"}, &buf)
	require.NoError(t, err)
	defer closer.Close()

	log.Debug().Str(FieldLayer, "test").Msg("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "hello", line["message"])
	assert.Equal(t, "test", line[FieldLayer])
	assert.Equal(t, "debug", line["level"])
}

func TestNew_RejectsBadLevelAndFormat(t *testing.T) {
	_, _, err := New(Config{Level: "loud"}, &bytes.Buffer{})
	assert.Error(t, err)

	_, _, err = New(Config{Format: "xml"}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Config{Level: "warn", Format: "json"}, &buf)
	require.NoError(t, err)

	log.Info().Msg("dropped")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_FileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "gatekeeper.log")
	log, closer, err := New(Config{
		Format: "json",
		File:   FileConfig{Enabled: true, Path: path, MaxSize: 1},
	}, &bytes.Buffer{})
	require.NoError(t, err)

	log.Info().Msg("to file")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}

func TestNew_FileSinkNeedsPath(t *testing.T) {
	_, _, err := New(Config{File: FileConfig{Enabled: true}}, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestCtxWithFields(t *testing.T) {
	var buf bytes.Buffer
	root, _, err := New(Config{Format: "json"}, &buf)
	require.NoError(t, err)

	ctx := WithCtx(context.Background(), root)
	ctx = CtxWithFields(ctx, map[string]any{
		FieldLayer:    "usecase",
		FieldEntityID: "abc",
	})
	log := FromCtx(ctx)
	log.Info().Msg("scoped")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "usecase", line[FieldLayer])
	assert.Equal(t, "abc", line[FieldEntityID])
}

func TestFromCtx_WithoutLoggerIsSafe(t *testing.T) {
	log := FromCtx(context.Background())
	log.Info().Msg("nobody listens")
}

func TestWrapErr(t *testing.T) {
	var buf bytes.Buffer
	log, _, err := New(Config{Format: "json"}, &buf)
	require.NoError(t, err)

	cause := errors.New("disk full")
	wrapped := log.WrapErr(cause, "failed to store archive")

	assert.EqualError(t, wrapped, "failed to store archive: disk full")
	assert.ErrorIs(t, wrapped, cause)
	assert.Contains(t, buf.String(), "disk full")
	assert.Nil(t, log.WrapErr(nil, "unused"))
}
