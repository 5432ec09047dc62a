// Package app provides the application initialization and wiring.
package app

import (
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

const (
	appName        = "gatekeeper"
	systemDataDir  = "/var/lib/gatekeeper"
	systemConfDir  = "/etc/gatekeeper"
	configBaseName = "gatekeeper"
)

// DataLayout locates everything the gatekeeper keeps under its data directory:
//
//	<root>/uploads/<uuid>.son
//	<root>/catalog/services/<uuid>/
//	<root>/logs/builds/<uuid>.log
//	<root>/logs/gatekeeper.log
//	<root>/index.db
type DataLayout struct {
	Root string
}

// NewDataLayout returns the layout rooted at root, or at DefaultDataDir when
// root is empty.
func NewDataLayout(root string) DataLayout {
	if root == "" {
		root = DefaultDataDir()
	}
	return DataLayout{Root: root}
}

func (l DataLayout) Uploads() string   { return filepath.Join(l.Root, "uploads") }
func (l DataLayout) Catalog() string   { return filepath.Join(l.Root, "catalog") }
func (l DataLayout) BuildLogs() string { return filepath.Join(l.Root, "logs", "builds") }
func (l DataLayout) LogFile() string   { return filepath.Join(l.Root, "logs", appName+".log") }
func (l DataLayout) Index() string     { return filepath.Join(l.Root, "index.db") }

// DefaultDataDir picks $XDG_DATA_HOME/gatekeeper, then ~/.local/share/gatekeeper,
// and falls back to /var/lib/gatekeeper when no home directory is known.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share", appName)
	}
	return systemDataDir
}

// configSearchPaths lists the directories searched for gatekeeper.toml, in order.
func configSearchPaths() []string {
	paths := []string{systemConfDir}
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		paths = append(paths, filepath.Join(xdg, appName))
	} else if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", appName))
	}
	return append(paths, ".")
}

// setConfigSource points v at configPath, or at gatekeeper.toml in the
// search paths when configPath is empty.
func setConfigSource(v *viper.Viper, configPath string) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		return
	}
	v.SetConfigName(configBaseName)
	v.SetConfigType("toml")
	for _, dir := range configSearchPaths() {
		v.AddConfigPath(dir)
	}
}
