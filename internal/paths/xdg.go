// Package paths resolves cloudrole's user directories following XDG conventions.
package paths

import (
	"path/filepath"
	"runtime"
)

// ConfigDirEnv overrides the config directory when set.
const ConfigDirEnv = "CLOUDROLE_CONFIG_DIR"

// Env is the interface for environment variable lookups.
// Implementations must return "" for unset variables.
type Env interface {
	Get(key string) string
}

// ConfigDir computes the directory holding the user config file.
//
// Resolution order:
//  1. CLOUDROLE_CONFIG_DIR env var (if set)
//  2. macOS: ~/Library/Preferences/cloudrole
//  3. XDG_CONFIG_HOME/cloudrole (if set)
//  4. ~/.config/cloudrole
//
// homeDir must be absolute. Nothing is created on disk, and ~ inside env
// vars is taken literally.
func ConfigDir(env Env, homeDir string) string {
	return ConfigDirWithOS(env, homeDir, IsDarwin())
}

// IsDarwin returns true if the current OS is macOS.
func IsDarwin() bool {
	return runtime.GOOS == "darwin"
}

// ConfigDirWithOS is like ConfigDir but accepts an explicit OS flag for testing.
func ConfigDirWithOS(env Env, homeDir string, isDarwin bool) string {
	if v := env.Get(ConfigDirEnv); v != "" {
		return v
	}
	if isDarwin {
		return filepath.Join(homeDir, "Library", "Preferences", "cloudrole")
	}
	if v := env.Get("XDG_CONFIG_HOME"); v != "" {
		return filepath.Join(v, "cloudrole")
	}
	return filepath.Join(homeDir, ".config", "cloudrole")
}
