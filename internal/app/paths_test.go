package app

import (
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestDataLayout(t *testing.T) {
	l := NewDataLayout("/srv/gk")

	assert.Equal(t, "/srv/gk/uploads", l.Uploads())
	assert.Equal(t, "/srv/gk/catalog", l.Catalog())
	assert.Equal(t, "/srv/gk/logs/builds", l.BuildLogs())
	assert.Equal(t, "/srv/gk/logs/gatekeeper.log", l.LogFile())
	assert.Equal(t, "/srv/gk/index.db", l.Index())
}

func TestDefaultDataDir(t *testing.T) {
	t.Run("xdg data home", func(t *testing.T) {
		t.Setenv("XDG_DATA_HOME", "/data")
		assert.Equal(t, "/data/gatekeeper", DefaultDataDir())
		assert.Equal(t, "/data/gatekeeper", NewDataLayout("").Root)
	})

	t.Run("home directory", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("XDG_DATA_HOME", "")
		t.Setenv("HOME", home)
		assert.Equal(t, filepath.Join(home, ".local", "share", "gatekeeper"), DefaultDataDir())
	})
}

func TestConfigSearchPaths(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	assert.Equal(t, []string{"/etc/gatekeeper", "/cfg/gatekeeper", "."}, configSearchPaths())

	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", home)
	assert.Equal(t, []string{"/etc/gatekeeper", filepath.Join(home, ".config", "gatekeeper"), "."}, configSearchPaths())
}

func TestSetConfigSource_ExplicitFile(t *testing.T) {
	path := writeConfig(t, "[server]\nlisten = \"127.0.0.1:7000\"\n")

	v := viper.New()
	setConfigSource(v, path)
	assert.NoError(t, v.ReadInConfig())
	assert.Equal(t, path, v.ConfigFileUsed())
	assert.Equal(t, "127.0.0.1:7000", v.GetString("server.listen"))
}
