// Package config loads .cppdeps.yml project configuration: ignore patterns,
// detector selection, and scan settings.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

// FileNames lists accepted config file names in priority order.
var FileNames = []string{".cppdeps.yml", ".cppdeps.yaml"}

// maxConfigSize is the largest config file accepted (1 MB).
const maxConfigSize = 1 << 20

// Config represents the .cppdeps.yml configuration file.
type Config struct {
	Ignore            []string `yaml:"ignore,omitempty"`
	Format            string   `yaml:"format,omitempty"`
	Rules             string   `yaml:"rules,omitempty"`
	DisabledDetectors []string `yaml:"disabled_detectors,omitempty"`
	ExcludeStandard   bool     `yaml:"exclude_standard,omitempty"`
	MaxFileSize       string   `yaml:"max_file_size,omitempty"` // e.g. "4 MiB", "512kb"
	Workers           int      `yaml:"workers,omitempty"`
	Baseline          string   `yaml:"baseline,omitempty"`

	// Path is the file the config was read from; empty when none was found.
	Path string `yaml:"-"`
}

// MaxFileSizeBytes parses MaxFileSize. Zero means unset.
func (c Config) MaxFileSizeBytes() (int64, error) {
	if c.MaxFileSize == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(c.MaxFileSize)
	if err != nil {
		return 0, fmt.Errorf("max_file_size: %w", err)
	}
	return int64(n), nil
}

// ResolvePath returns p relative to the config file's directory when p is
// relative and a config file was loaded.
func (c Config) ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) || c.Path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.Path), p)
}

// Load reads the .cppdeps.yml or .cppdeps.yaml config file from the given path.
// If path is a file, its parent directory is used. If no config file is found,
// it returns a zero Config (not an error).
func Load(dir string) (Config, error) {
	if info, err := os.Stat(dir); err == nil && !info.IsDir() {
		dir = filepath.Dir(dir)
	}
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
		if info.Size() > maxConfigSize {
			return Config{}, fmt.Errorf("config file too large: %s (%s, max %s)",
				path, humanize.IBytes(uint64(info.Size())), humanize.IBytes(maxConfigSize))
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading %s: %w", path, err)
		}
		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		if cfg.Workers < 0 {
			return Config{}, fmt.Errorf("parsing %s: workers must be positive, got %d", path, cfg.Workers)
		}
		if _, err := cfg.MaxFileSizeBytes(); err != nil {
			return Config{}, fmt.Errorf("parsing %s: %w", path, err)
		}
		cfg.Path = path
		return cfg, nil
	}
	return Config{}, nil
}

// Template is the starter config written by `cppdeps init`.
const Template = `# cppdeps configuration
# See: cppdeps list-detectors

# Output format: json, terminal, markdown, html, sarif
format: json

# Glob patterns to skip (same syntax as .cppdepsignore)
ignore:
  - "build/**"
  - "cmake-build-*/**"

# Detector IDs to turn off
# disabled_detectors:
#   - CPP_VERSION_DEFINE

# Drop C/C++ standard library and system headers from detections
exclude_standard: false

# Files larger than this are skipped with a warning
max_file_size: "4 MiB"

# Files analyzed in parallel
workers: 1

# Baseline file used to mark dependencies not seen before
# baseline: .cppdeps/baseline.json
`
