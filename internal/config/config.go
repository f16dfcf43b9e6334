// Package config loads the optional project-level .remock.yaml file.
//
// Everything in it has a working default; the file exists so a repository
// can pin its fixture layout and write policy in one reviewed place
// instead of per-call options.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the conventional config file name, looked up in the
// working directory.
const FileName = ".remock.yaml"

// Config mirrors the .remock.yaml schema.
type Config struct {
	// MocksDir is the subdirectory (beside each test file) that holds
	// fixture files. Default "__mocks__".
	MocksDir string `yaml:"mocks_dir"`

	// Suffix is appended to the test file's base name to form the
	// fixture file name. Default ".fixtures.json".
	Suffix string `yaml:"suffix"`

	// Journal is an optional SQLite path; when set, every interception
	// event of a run is appended there for later inspection.
	Journal string `yaml:"journal,omitempty"`

	// WritableRoots lists directories the flush is allowed to write
	// under. Empty means the current working tree.
	WritableRoots []string `yaml:"writable_roots,omitempty"`

	// UpdateByDefault makes update mode the registry default, as if
	// -remock.update were always present. Intended for scratch branches.
	UpdateByDefault bool `yaml:"update_by_default,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		MocksDir: "__mocks__",
		Suffix:   ".fixtures.json",
	}
}

// Load reads the config file at path. A missing file yields the defaults;
// a malformed file is an error (a typo silently reverting the project to
// defaults would be worse).
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}

	if cfg.MocksDir == "" {
		cfg.MocksDir = Default().MocksDir
	}
	if cfg.Suffix == "" {
		cfg.Suffix = Default().Suffix
	}
	return cfg, nil
}

// Discover loads the config from the working directory.
func Discover() (Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return Default(), fmt.Errorf("resolve working directory: %w", err)
	}
	return Load(filepath.Join(wd, FileName))
}
