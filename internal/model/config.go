package model

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Well known service platform tags reported by the enclosure configuration.
const (
	PlatformMark1 = "mark-1"
)

// EnvRuntimeRoot overrides the runtime environment root directory.
const EnvRuntimeRoot = "AICTL_RUNTIME"

// Config drives the launcher. All paths are absolute once defaults are
// applied. The zero value is not usable, use DefaultConfig or LoadConfig.
type Config struct {
	Version int `yaml:"version"` // fixed 0 for now

	// BinDir contains the service executables the launcher resolves
	// symbolic names against.
	BinDir string `yaml:"bin_dir"`

	// LogDir receives <service>.log files of background launches.
	LogDir string `yaml:"log_dir"`

	// RunDir holds the per-service pid registry.
	RunDir string `yaml:"run_dir"`

	Setup    *Setup   `yaml:"setup,omitempty"`
	Runtime  *Runtime `yaml:"runtime,omitempty"`
	Deps     Deps     `yaml:"deps"`
	Platform string   `yaml:"platform,omitempty"` // enclosure platform config file
	Verbose  *bool    `yaml:"verbose,omitempty"`
}

// Setup is the external one-time preparation step run before the first
// launch of an invocation.
type Setup struct {
	Path string   `yaml:"path"`
	Args []string `yaml:"args,omitempty"`
}

// Runtime describes the isolated runtime environment activated for
// spawned services. When the marker file exists the launcher assumes a
// container-like context and skips activation entirely.
type Runtime struct {
	Root   string `yaml:"root,omitempty"`
	Marker string `yaml:"marker,omitempty"`
}

// Deps configures the dependency freshness gate: a persisted checksum
// manifest plus the dependency files it tracks.
type Deps struct {
	Manifest string   `yaml:"manifest"`
	Files    []string `yaml:"files,omitempty"`
}

// DefaultConfig returns the configuration used when no config file is
// found. It places mutable state under the user cache directory so a
// plain user install works without extra setup.
func DefaultConfig() Config {
	stateDir := filepath.Join(os.TempDir(), "nanosoft-ai")
	if d, err := os.UserCacheDir(); err == nil {
		stateDir = filepath.Join(d, "nanosoft-ai")
	}

	prefix := "/opt/nanosoft/assistant"
	return Config{
		Version: 0,
		BinDir:  filepath.Join(prefix, "bin"),
		LogDir:  filepath.Join(stateDir, "logs"),
		RunDir:  filepath.Join(stateDir, "run"),
		Setup: &Setup{
			Path: filepath.Join(prefix, "libexec", "prepare-runtime"),
		},
		Runtime: &Runtime{
			Root:   filepath.Join(prefix, "runtime"),
			Marker: "/.dockerenv",
		},
		Deps: Deps{
			Manifest: filepath.Join(stateDir, "deps.sha256"),
			Files:    []string{filepath.Join(prefix, "share", "dependencies.lock")},
		},
		Platform: "/etc/nanosoft/assistant.yaml",
	}
}

// LoadConfig decodes YAML from r into a Config. Unknown fields are
// rejected so typos in hand written configs surface early.
func LoadConfig(r io.Reader) (Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if cfg.Version != 0 {
		return Config{}, fmt.Errorf("config version %d is not supported, expected 0", cfg.Version)
	}
	return cfg, nil
}

// RuntimeRoot resolves the runtime environment root, honoring the
// EnvRuntimeRoot override.
func (c Config) RuntimeRoot() string {
	if root, ok := os.LookupEnv(EnvRuntimeRoot); ok && root != "" {
		return root
	}
	if c.Runtime != nil {
		return c.Runtime.Root
	}
	return ""
}

// IsVerbose dereferences the optional verbose flag.
func (c Config) IsVerbose() bool {
	return c.Verbose != nil && *c.Verbose
}
