package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bnema/gatekeeper/internal/usecase/onboarding"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gatekeeper.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestInitConfig_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	dataDir := t.TempDir()
	path := writeConfig(t, "[server]\ndata_dir = \""+dataDir+"\"\n")

	_, cfg, err := initConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "0.0.0.0:5000", cfg.Server.Listen)
	assert.Equal(t, filepath.Join(dataDir, "uploads"), cfg.Storage.UploadDir)
	assert.Equal(t, filepath.Join(dataDir, "catalog"), cfg.Storage.CatalogDir)
	assert.Equal(t, filepath.Join(dataDir, "logs", "builds"), cfg.Build.LogDir)
	assert.Equal(t, filepath.Join(dataDir, "index.db"), cfg.Index.Path)
	assert.True(t, cfg.Index.Enabled)
	assert.True(t, cfg.Metrics.Enabled)
	assert.False(t, cfg.TLSEnabled())

	size, err := cfg.MaxUploadSize()
	require.NoError(t, err)
	assert.Equal(t, int64(512<<20), size)

	ob, err := cfg.OnboardingConfig()
	require.NoError(t, err)
	assert.Equal(t, onboarding.ParseLenient, ob.ParsePolicy)
	assert.Equal(t, 30*time.Minute, ob.Build.Timeout)
	assert.False(t, ob.Build.NoCache)
	assert.Equal(t, onboarding.DefaultImageNameTable(), ob.ImageNames)
}

func TestInitConfig_FileValues(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, `
[server]
listen = "127.0.0.1:8080"
max_upload_size = "1GB"

[descriptors]
parse_policy = "strict"

[build]
timeout = "1d"
no_cache = true

[[build.image_map]]
path = "/docker_files/web/Dockerfile"
image = "web_docker"
`)

	_, cfg, err := initConfig(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Listen)
	size, err := cfg.MaxUploadSize()
	require.NoError(t, err)
	assert.Equal(t, int64(1<<30), size)

	ob, err := cfg.OnboardingConfig()
	require.NoError(t, err)
	assert.Equal(t, onboarding.ParseStrict, ob.ParsePolicy)
	assert.Equal(t, 24*time.Hour, ob.Build.Timeout)
	assert.True(t, ob.Build.NoCache)
	assert.Equal(t, onboarding.ImageNameTable{"/docker_files/web/Dockerfile": "web_docker"}, ob.ImageNames)
}

func TestInitConfig_EnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, "")
	t.Setenv("GATEKEEPER_SERVER_LISTEN", "127.0.0.1:9999")
	t.Setenv("GATEKEEPER_DESCRIPTORS_PARSE_POLICY", "strict")

	_, cfg, err := initConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9999", cfg.Server.Listen)
	assert.Equal(t, "strict", cfg.Descriptors.ParsePolicy)
}

func TestInitConfig_EnvOnlyKeys(t *testing.T) {
	t.Chdir(t.TempDir())
	path := writeConfig(t, "")
	t.Setenv("GATEKEEPER_SERVER_TLS_CERT_FILE", "/certs/server.pem")
	t.Setenv("GATEKEEPER_SERVER_TLS_KEY_FILE", "/certs/server.key")
	t.Setenv("GATEKEEPER_LOGGING_FILE_ENABLED", "true")
	t.Setenv("GATEKEEPER_LOGGING_FILE_PATH", "/var/log/gk.log")
	t.Setenv("GATEKEEPER_API_TRUSTED_PROXIES", "10.0.0.0/8")

	_, cfg, err := initConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "/certs/server.pem", cfg.Server.TLS.CertFile)
	assert.Equal(t, "/certs/server.key", cfg.Server.TLS.KeyFile)
	assert.True(t, cfg.TLSEnabled())
	assert.True(t, cfg.Logging.File.Enabled)
	assert.Equal(t, "/var/log/gk.log", cfg.Logging.File.Path)
	assert.Equal(t, []string{"10.0.0.0/8"}, cfg.API.TrustedProxies)
}

func TestInitConfig_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("GATEKEEPER_BUILD_TIMEOUT=5m\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("GATEKEEPER_BUILD_TIMEOUT") })

	_, cfg, err := initConfig(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, "5m", cfg.Build.Timeout)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		var c Config
		c.Server.Listen = ":5000"
		c.Server.MaxUploadSize = "512MB"
		c.Build.Timeout = "30m"
		return c
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing listen", mutate: func(c *Config) { c.Server.Listen = "" }, errMsg: "server.listen"},
		{name: "half tls", mutate: func(c *Config) { c.Server.TLS.CertFile = "cert.pem" }, errMsg: "server.tls"},
		{name: "bad upload size", mutate: func(c *Config) { c.Server.MaxUploadSize = "lots" }, errMsg: "server.max_upload_size"},
		{name: "zero upload size", mutate: func(c *Config) { c.Server.MaxUploadSize = "0" }, errMsg: "must be positive"},
		{name: "bad policy", mutate: func(c *Config) { c.Descriptors.ParsePolicy = "loose" }, errMsg: "descriptors.parse_policy"},
		{name: "bad timeout", mutate: func(c *Config) { c.Build.Timeout = "soon" }, errMsg: "build.timeout"},
		{
			name: "rate limit without rps",
			mutate: func(c *Config) {
				c.API.RateLimit.Enabled = true
				c.API.RateLimit.Burst = 10
			},
			errMsg: "api.rate_limit",
		},
		{
			name: "duplicate image map path",
			mutate: func(c *Config) {
				c.Build.ImageMap = []ImageMapEntry{
					{Path: "/a/Dockerfile", Image: "a"},
					{Path: "/a/Dockerfile", Image: "b"},
				}
			},
			errMsg: "duplicate path",
		},
		{
			name: "invalid image name",
			mutate: func(c *Config) {
				c.Build.ImageMap = []ImageMapEntry{{Path: "/a/Dockerfile", Image: "Not A Tag"}}
			},
			errMsg: "build.image_map",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
