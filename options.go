package cppdeps

import "github.com/charmbracelet/log"

// scanConfig holds the resolved configuration for a scan.
type scanConfig struct {
	customRulesDir    string
	disabledDetectors []string
	workers           int
	ignorePatterns    []string
	maxFileSize       int64
	noFollowSymlinks  bool
	excludeStandard   bool
	baselinePath      string
	logger            *log.Logger
	progress          ProgressFunc
	kind              SourceKind // only for ListDetectors
}

// Option configures a scan operation.
type Option func(*scanConfig)

// WithCustomRules loads additional YAML detector rules from a directory.
// A custom rule with a built-in ID replaces the built-in one.
func WithCustomRules(dir string) Option {
	return func(c *scanConfig) {
		c.customRulesDir = dir
	}
}

// WithDisabledDetectors excludes specific detector IDs from scanning.
func WithDisabledDetectors(ids ...string) Option {
	return func(c *scanConfig) {
		c.disabledDetectors = append(c.disabledDetectors, ids...)
	}
}

// WithWorkers sets the number of files analyzed concurrently (default 1).
func WithWorkers(n int) Option {
	return func(c *scanConfig) {
		c.workers = n
	}
}

// WithIgnorePatterns sets file patterns to ignore during directory scanning.
func WithIgnorePatterns(patterns []string) Option {
	return func(c *scanConfig) {
		c.ignorePatterns = patterns
	}
}

// WithMaxFileSize sets the largest file, in bytes, that is read. Larger
// files are skipped with a too_large warning.
func WithMaxFileSize(n int64) Option {
	return func(c *scanConfig) {
		c.maxFileSize = n
	}
}

// WithFollowSymlinks controls whether symlinked directories are traversed
// (default true).
func WithFollowSymlinks(follow bool) Option {
	return func(c *scanConfig) {
		c.noFollowSymlinks = !follow
	}
}

// WithExcludeStandard drops standard library header includes from the
// report.
func WithExcludeStandard(exclude bool) Option {
	return func(c *scanConfig) {
		c.excludeStandard = exclude
	}
}

// WithBaseline marks detections whose dependency is absent from the baseline
// file as new, then records the current dependencies in it.
func WithBaseline(path string) Option {
	return func(c *scanConfig) {
		c.baselinePath = path
	}
}

// WithLogger sets the logger used for skipped files and rule problems.
func WithLogger(l *log.Logger) Option {
	return func(c *scanConfig) {
		c.logger = discard(l)
	}
}

// WithProgress installs a callback invoked after each analyzed file.
func WithProgress(fn ProgressFunc) Option {
	return func(c *scanConfig) {
		c.progress = fn
	}
}

// WithKind filters detectors by source kind (only applies to ListDetectors).
func WithKind(kind SourceKind) Option {
	return func(c *scanConfig) {
		c.kind = kind
	}
}
