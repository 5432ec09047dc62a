package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/bnema/gatekeeper/internal/usecase/onboarding"
	"github.com/bnema/gatekeeper/pkg/bytesize"
	"github.com/bnema/gatekeeper/pkg/duration"
)

// ImageMapEntry maps a declared Docker-file path to an image name.
type ImageMapEntry struct {
	Path  string `mapstructure:"path"`
	Image string `mapstructure:"image"`
}

// Config holds the application configuration.
type Config struct {
	Server struct {
		Listen        string `mapstructure:"listen"`
		MaxUploadSize string `mapstructure:"max_upload_size"`
		DataDir       string `mapstructure:"data_dir"`
		TLS           struct {
			CertFile string `mapstructure:"cert_file"`
			KeyFile  string `mapstructure:"key_file"`
		} `mapstructure:"tls"`
	} `mapstructure:"server"`

	Logging struct {
		Level  string `mapstructure:"level"`
		Format string `mapstructure:"format"`
		File   struct {
			Enabled    bool   `mapstructure:"enabled"`
			Path       string `mapstructure:"path"`
			MaxSize    int    `mapstructure:"max_size"`
			MaxBackups int    `mapstructure:"max_backups"`
			MaxAge     int    `mapstructure:"max_age"`
		} `mapstructure:"file"`
	} `mapstructure:"logging"`

	Storage struct {
		UploadDir  string `mapstructure:"upload_dir"`
		CatalogDir string `mapstructure:"catalog_dir"`
	} `mapstructure:"storage"`

	Descriptors struct {
		ParsePolicy string `mapstructure:"parse_policy"`
	} `mapstructure:"descriptors"`

	Build struct {
		Timeout            string          `mapstructure:"timeout"`
		NoCache            bool            `mapstructure:"no_cache"`
		RemoveIntermediate bool            `mapstructure:"remove_intermediate"`
		LogDir             string          `mapstructure:"log_dir"`
		ImageMap           []ImageMapEntry `mapstructure:"image_map"`
	} `mapstructure:"build"`

	Index struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"index"`

	API struct {
		TrustedProxies []string `mapstructure:"trusted_proxies"`
		RateLimit      struct {
			Enabled bool    `mapstructure:"enabled"`
			RPS     float64 `mapstructure:"rps"`
			Burst   int     `mapstructure:"burst"`
		} `mapstructure:"rate_limit"`
	} `mapstructure:"api"`

	Metrics struct {
		Enabled bool `mapstructure:"enabled"`
	} `mapstructure:"metrics"`
}

// initConfig loads configuration from file and environment.
func initConfig(configPath string) (*viper.Viper, Config, error) {
	v := viper.New()
	if err := loadConfig(v, configPath); err != nil {
		return nil, Config{}, fmt.Errorf("failed to load config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.applyDataDir()

	return v, cfg, nil
}

// loadConfig loads configuration from file and sets defaults.
func loadConfig(v *viper.Viper, configPath string) error {
	// a missing .env is normal; anything else is reported
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	v.SetDefault("server.listen", "0.0.0.0:5000")
	v.SetDefault("server.max_upload_size", "512MB")
	v.SetDefault("server.data_dir", DefaultDataDir())
	// keys without a default are invisible to Unmarshal when only set by env
	v.SetDefault("server.tls.cert_file", "")
	v.SetDefault("server.tls.key_file", "")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.file.enabled", false)
	v.SetDefault("logging.file.path", "")
	v.SetDefault("logging.file.max_size", 100)
	v.SetDefault("logging.file.max_backups", 3)
	v.SetDefault("logging.file.max_age", 28)
	v.SetDefault("storage.upload_dir", "") // defaults to {data_dir}/uploads when empty
	v.SetDefault("storage.catalog_dir", "")
	v.SetDefault("descriptors.parse_policy", string(onboarding.ParseLenient))
	v.SetDefault("build.timeout", "30m")
	v.SetDefault("build.no_cache", false)
	v.SetDefault("build.remove_intermediate", false)
	v.SetDefault("build.log_dir", "")
	v.SetDefault("index.enabled", true)
	v.SetDefault("index.path", "")
	v.SetDefault("api.trusted_proxies", []string{})
	v.SetDefault("api.rate_limit.enabled", true)
	v.SetDefault("api.rate_limit.rps", 20)
	v.SetDefault("api.rate_limit.burst", 40)
	v.SetDefault("metrics.enabled", true)

	setConfigSource(v, configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config file: %w", err)
		}
	}

	v.SetEnvPrefix("GATEKEEPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return nil
}

// applyDataDir fills the paths left empty with locations under data_dir.
func (c *Config) applyDataDir() {
	layout := NewDataLayout(c.Server.DataDir)
	c.Server.DataDir = layout.Root

	if c.Storage.UploadDir == "" {
		c.Storage.UploadDir = layout.Uploads()
	}
	if c.Storage.CatalogDir == "" {
		c.Storage.CatalogDir = layout.Catalog()
	}
	if c.Build.LogDir == "" {
		c.Build.LogDir = layout.BuildLogs()
	}
	if c.Index.Path == "" {
		c.Index.Path = layout.Index()
	}
	if c.Logging.File.Enabled && c.Logging.File.Path == "" {
		c.Logging.File.Path = layout.LogFile()
	}
}

// MaxUploadSize returns the parsed upload limit in bytes.
func (c Config) MaxUploadSize() (int64, error) {
	n, err := bytesize.Parse(c.Server.MaxUploadSize)
	if err != nil {
		return 0, fmt.Errorf("server.max_upload_size: %w", err)
	}
	if n == 0 {
		return 0, fmt.Errorf("server.max_upload_size must be positive")
	}
	return n, nil
}

// TLSEnabled reports whether a certificate pair is configured. Setting only
// one of the two files is a configuration error reported by Validate.
func (c Config) TLSEnabled() bool {
	return c.Server.TLS.CertFile != "" && c.Server.TLS.KeyFile != ""
}

// OnboardingConfig converts the descriptor and build sections.
func (c Config) OnboardingConfig() (onboarding.Config, error) {
	policy, err := onboarding.ParseParsePolicy(c.Descriptors.ParsePolicy)
	if err != nil {
		return onboarding.Config{}, fmt.Errorf("descriptors.parse_policy: %w", err)
	}

	var timeout time.Duration
	if c.Build.Timeout != "" {
		timeout, err = duration.Parse(c.Build.Timeout)
		if err != nil {
			return onboarding.Config{}, fmt.Errorf("build.timeout: %w", err)
		}
	}

	names := onboarding.DefaultImageNameTable()
	if len(c.Build.ImageMap) > 0 {
		names = make(onboarding.ImageNameTable, len(c.Build.ImageMap))
		for _, entry := range c.Build.ImageMap {
			if _, dup := names[entry.Path]; dup {
				return onboarding.Config{}, fmt.Errorf("build.image_map: duplicate path %q", entry.Path)
			}
			names[entry.Path] = entry.Image
		}
	}
	if err := names.Validate(); err != nil {
		return onboarding.Config{}, fmt.Errorf("build.image_map: %w", err)
	}

	return onboarding.Config{
		ParsePolicy: policy,
		ImageNames:  names,
		Build: onboarding.BuildOptions{
			NoCache:            c.Build.NoCache,
			RemoveIntermediate: c.Build.RemoveIntermediate,
			Timeout:            timeout,
		},
	}, nil
}

// Validate checks the settings that are not parsed elsewhere.
func (c Config) Validate() error {
	if c.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if (c.Server.TLS.CertFile == "") != (c.Server.TLS.KeyFile == "") {
		return fmt.Errorf("server.tls requires both cert_file and key_file")
	}
	if c.API.RateLimit.Enabled && (c.API.RateLimit.RPS <= 0 || c.API.RateLimit.Burst <= 0) {
		return fmt.Errorf("api.rate_limit: rps and burst must be positive")
	}
	if _, err := c.MaxUploadSize(); err != nil {
		return err
	}
	_, err := c.OnboardingConfig()
	return err
}
