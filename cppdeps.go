// Package cppdeps provides a public API for detecting third-party C/C++
// dependencies in a source tree.
//
// This is the library entry point. For the CLI tool, see cmd/cppdeps/.
package cppdeps

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/garagon/cppdeps/internal/engine/cpp"
	"github.com/garagon/cppdeps/internal/engine/manifest"
	"github.com/garagon/cppdeps/internal/engine/pattern"
	"github.com/garagon/cppdeps/internal/logging"
	"github.com/garagon/cppdeps/internal/meta"
	"github.com/garagon/cppdeps/internal/rules"
	"github.com/garagon/cppdeps/internal/rules/builtin"
	"github.com/garagon/cppdeps/internal/scanner"
	"github.com/garagon/cppdeps/internal/state"
	"github.com/garagon/cppdeps/internal/types"
)

// Name is the tool name stamped into every report.
const Name = "cppdeps"

// Version is the tool version stamped into every report. The CLI sets it
// from its build-time version.
var Version = "dev"

// Re-export core types from internal/types so consumers don't need to
// import internal packages.
type (
	SourceKind       = types.SourceKind
	IncludeStyle     = types.IncludeStyle
	Detection        = types.Detection
	Dependency       = types.Dependency
	Warning          = types.Warning
	Report           = types.Report
	DetectorInfo     = rules.Info
	ProgressFunc     = scanner.ProgressFunc
	InvalidRootError = types.InvalidRootError
)

const (
	KindCMakeFindPackage  = types.KindCMakeFindPackage
	KindCMakeFetchContent = types.KindCMakeFetchContent
	KindConanRequires     = types.KindConanRequires
	KindVcpkgDependency   = types.KindVcpkgDependency
	KindInclude           = types.KindInclude
	KindVersionDefine     = types.KindVersionDefine
)

// ParseSourceKind converts a name such as "include" or "conan-requires"
// to a SourceKind.
var ParseSourceKind = types.ParseSourceKind

// ErrInvalidRoot is returned (wrapped) by Scan when the root is missing or
// not a directory.
var ErrInvalidRoot = types.ErrInvalidRoot

// infoDetector is implemented by the code-based detectors.
type infoDetector interface {
	scanner.Detector
	Info() rules.Info
}

// Scan walks root and returns every dependency detection found in it.
func Scan(ctx context.Context, root string, opts ...Option) (*Report, error) {
	cfg := applyOpts(opts)
	s, store, err := buildScanner(cfg)
	if err != nil {
		return nil, err
	}
	report, err := s.Scan(ctx, root)
	if err != nil {
		return nil, err
	}
	return finish(cfg, report, store)
}

// ScanContent runs the detectors over a single in-memory file.
// filename selects which detectors apply (e.g. "CMakeLists.txt", "main.cpp").
func ScanContent(ctx context.Context, content, filename string, opts ...Option) (*Report, error) {
	if filename == "" {
		filename = "main.cpp"
	}
	cfg := applyOpts(opts)
	s, store, err := buildScanner(cfg)
	if err != nil {
		return nil, err
	}
	targets := []*scanner.Target{{
		RelPath: filename,
		Content: []byte(content),
		Size:    int64(len(content)),
	}}
	report, err := s.ScanTargets(ctx, targets)
	if err != nil {
		return nil, err
	}
	return finish(cfg, report, store)
}

// ListDetectors returns every available detector sorted by ID.
// Use WithKind to filter by source kind.
func ListDetectors(opts ...Option) []DetectorInfo {
	cfg := applyOpts(opts)
	infos := allDetectorInfo(cfg)
	if cfg.kind == "" {
		return infos
	}
	filtered := infos[:0]
	for _, info := range infos {
		if info.Kind == string(cfg.kind) {
			filtered = append(filtered, info)
		}
	}
	return filtered
}

// ExplainDetector returns the full description of one detector.
func ExplainDetector(id string, opts ...Option) (*DetectorInfo, error) {
	id = strings.ToUpper(strings.TrimSpace(id))
	cfg := applyOpts(opts)
	for _, info := range allDetectorInfo(cfg) {
		if info.ID == id {
			return &info, nil
		}
	}
	return nil, fmt.Errorf("detector %q not found", id)
}

// --- internal helpers ---

func applyOpts(opts []Option) *scanConfig {
	cfg := &scanConfig{logger: logging.Discard()}
	for _, o := range opts {
		o(cfg)
	}
	return cfg
}

// loadAndCompile loads built-in (and optionally custom) rules and compiles
// them. Rule problems are logged and the offending rule is skipped.
func loadAndCompile(cfg *scanConfig) ([]*rules.CompiledRule, error) {
	rawRules, err := rules.LoadFromFS(builtin.FS())
	if err != nil {
		return nil, fmt.Errorf("loading built-in rules: %w", err)
	}

	if cfg.customRulesDir != "" {
		custom, skipped, err := rules.LoadFromDir(cfg.customRulesDir)
		if err != nil {
			return nil, fmt.Errorf("loading custom rules from %s: %w", cfg.customRulesDir, err)
		}
		for _, e := range skipped {
			cfg.logger.Warn("skipping rule file", "err", e)
		}
		rawRules = append(rawRules, custom...)
	}

	compiled, compileErrs := rules.CompileAll(rawRules)
	for _, e := range compileErrs {
		cfg.logger.Warn("skipping rule", "err", e)
	}
	sort.Slice(compiled, func(i, j int) bool {
		return compiled[i].ID < compiled[j].ID
	})
	return compiled, nil
}

// codeDetectors returns the detectors implemented in Go rather than YAML.
func codeDetectors() []infoDetector {
	return []infoDetector{
		cpp.NewIncludeDetector(),
		manifest.NewVcpkgDetector(),
		manifest.NewConanTxtDetector(),
	}
}

func allDetectorInfo(cfg *scanConfig) []DetectorInfo {
	compiled, err := loadAndCompile(cfg)
	if err != nil {
		cfg.logger.Warn("loading rules", "err", err)
	}
	var infos []DetectorInfo
	for _, r := range compiled {
		infos = append(infos, r.Info())
	}
	for _, d := range codeDetectors() {
		infos = append(infos, d.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		return infos[i].ID < infos[j].ID
	})
	return infos
}

// buildScanner creates a fully wired Scanner with every enabled detector and
// the standard enrichers. The returned store is nil without a baseline.
func buildScanner(cfg *scanConfig) (*scanner.Scanner, *state.Store, error) {
	compiled, err := loadAndCompile(cfg)
	if err != nil {
		return nil, nil, err
	}

	disabled := make(map[string]bool, len(cfg.disabledDetectors))
	for _, id := range cfg.disabledDetectors {
		disabled[strings.ToUpper(strings.TrimSpace(id))] = true
	}
	known := make(map[string]bool)
	for _, r := range compiled {
		known[r.ID] = true
	}
	compiled = rules.FilterByIDs(compiled, disabled)

	s := scanner.New(cfg.workers)
	s.SetLogger(cfg.logger)
	s.SetIgnorePatterns(cfg.ignorePatterns)
	s.SetMaxFileSize(cfg.maxFileSize)
	s.SetFollowSymlinks(!cfg.noFollowSymlinks)
	s.SetExcludeStandard(cfg.excludeStandard)
	s.SetProgress(cfg.progress)

	if len(compiled) > 0 {
		s.RegisterDetector(pattern.NewMatcher(compiled))
	}
	for _, d := range codeDetectors() {
		known[d.Name()] = true
		if disabled[d.Name()] {
			continue
		}
		s.RegisterDetector(d)
	}
	for id := range disabled {
		if !known[id] {
			cfg.logger.Warn("unknown detector in disabled list", "id", id)
		}
	}

	s.RegisterEnricher(meta.StandardHeaders{})
	s.RegisterEnricher(meta.VendorPaths{})

	var store *state.Store
	if cfg.baselinePath != "" {
		store = state.New(cfg.baselinePath)
		if err := store.Load(); err != nil {
			return nil, nil, fmt.Errorf("loading baseline: %w", err)
		}
		s.RegisterEnricher(store)
	}
	return s, store, nil
}

// finish stamps tool metadata and persists the baseline.
func finish(cfg *scanConfig, report *Report, store *state.Store) (*Report, error) {
	report.Tool = types.ToolInfo{Name: Name, Version: Version}
	if store != nil {
		if err := store.Save(); err != nil {
			return nil, fmt.Errorf("saving baseline: %w", err)
		}
		cfg.logger.Debug("baseline saved", "path", store.Path(), "names", len(store.Names()))
	}
	return report, nil
}

// discard keeps a nil logger from reaching the scanner.
func discard(l *log.Logger) *log.Logger {
	if l == nil {
		return logging.Discard()
	}
	return l
}
