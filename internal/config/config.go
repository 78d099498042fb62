// Package config loads the cloudrole tool configuration.
//
// Configuration comes from up to two YAML files, applied in order over the
// built-in defaults: the user config (config.yaml in the config directory)
// and the project config (cloudrole.yaml in the project root). Keys absent
// from a file keep their earlier value; unknown keys are rejected.
package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/NielsdaWheelz/cloudrole/internal/errors"
	"github.com/NielsdaWheelz/cloudrole/internal/fs"
	"github.com/NielsdaWheelz/cloudrole/internal/store"
)

// UserFileName is the user config file inside the config directory.
const UserFileName = "config.yaml"

// Config is the merged tool configuration.
type Config struct {
	Log       Log       `yaml:"log"`
	Documents Documents `yaml:"documents"`
	Roles     Roles     `yaml:"roles"`
	Lock      Lock      `yaml:"lock"`
}

type Log struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=auto text json"`
}

// Documents names the project documents relative to the project root.
type Documents struct {
	Definition string   `yaml:"definition" validate:"basename"`
	Settings   []string `yaml:"settings" validate:"min=1,unique,dive,basename"`
}

// Roles holds defaults for add-role.
type Roles struct {
	DefaultInstances int    `yaml:"default_instances" validate:"min=1,max=1000"`
	DefaultVMSize    string `yaml:"default_vm_size" validate:"omitempty,oneof=ExtraSmall Small Medium Large ExtraLarge"`
}

type Lock struct {
	StaleAfter time.Duration `yaml:"stale_after" validate:"min=1s"`
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	layout := store.DefaultLayout()
	return Config{
		Log: Log{
			Level:  "warn",
			Format: "auto",
		},
		Documents: Documents{
			Definition: layout.Definition,
			Settings:   layout.Settings,
		},
		Roles: Roles{
			DefaultInstances: 1,
		},
		Lock: Lock{
			StaleAfter: 2 * time.Hour,
		},
	}
}

// Layout returns the document layout for the store.
func (c Config) Layout() store.Layout {
	return store.Layout{
		Definition: c.Documents.Definition,
		Settings:   append([]string(nil), c.Documents.Settings...),
	}
}

// Load applies each existing file in paths over Default and validates the
// result. Missing files are skipped; empty paths are ignored.
// Returns E_INVALID_CONFIG for unreadable, unparsable or invalid files.
func Load(filesystem fs.FS, paths ...string) (Config, error) {
	cfg := Default()
	for _, path := range paths {
		if path == "" {
			continue
		}
		if err := apply(filesystem, path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile is like Load for a single file that must exist, as given by
// --config.
func LoadFile(filesystem fs.FS, path string, more ...string) (Config, error) {
	if _, err := filesystem.Stat(path); err != nil {
		return Config{}, errors.NewWithDetails(errors.EInvalidConfig,
			fmt.Sprintf("config file not found: %s", path),
			map[string]string{"path": path})
	}
	return Load(filesystem, append([]string{path}, more...)...)
}

func apply(filesystem fs.FS, path string, cfg *Config) error {
	data, err := filesystem.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return errors.WrapWithDetails(errors.EInvalidConfig, "failed to read config", err,
			map[string]string{"path": path})
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !stderrors.Is(err, io.EOF) {
		return errors.NewWithDetails(errors.EInvalidConfig,
			fmt.Sprintf("invalid yaml in %s: %s", filepath.Base(path), err),
			map[string]string{"path": path})
	}
	return nil
}
