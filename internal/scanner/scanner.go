package scanner

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/garagon/cppdeps/internal/logging"
	"github.com/garagon/cppdeps/internal/meta"
	"github.com/garagon/cppdeps/internal/types"
)

// maxRawMatch bounds raw_match so a pathological regex hit cannot bloat the report.
const maxRawMatch = 200

// ProgressFunc is called after each file is analyzed.
type ProgressFunc func(done, total int, relPath string)

// Scanner orchestrates the scanning process.
type Scanner struct {
	detectors        []Detector
	enrichers        []Enricher
	workers          int
	ignorePatterns   []string
	maxFileSize      int64
	noFollowSymlinks bool
	excludeStandard  bool
	logger           *log.Logger
	progress         ProgressFunc
	now              func() time.Time
}

// New creates a new Scanner with the given number of workers.
// If workers <= 0, files are analyzed one at a time.
func New(workers int) *Scanner {
	if workers <= 0 {
		workers = 1
	}
	return &Scanner{
		workers: workers,
		logger:  logging.Discard(),
		now:     time.Now,
	}
}

// RegisterDetector adds a detector to the scanner pipeline.
func (s *Scanner) RegisterDetector(d Detector) {
	s.detectors = append(s.detectors, d)
}

// RegisterEnricher adds an enrichment step run on every detection.
func (s *Scanner) RegisterEnricher(e Enricher) {
	s.enrichers = append(s.enrichers, e)
}

// SetIgnorePatterns sets additional file ignore patterns from config.
func (s *Scanner) SetIgnorePatterns(patterns []string) {
	s.ignorePatterns = patterns
}

// SetMaxFileSize sets the largest file, in bytes, that will be read.
func (s *Scanner) SetMaxFileSize(n int64) {
	s.maxFileSize = n
}

// SetFollowSymlinks controls whether symlinked directories are traversed.
func (s *Scanner) SetFollowSymlinks(follow bool) {
	s.noFollowSymlinks = !follow
}

// SetExcludeStandard drops detections of standard library headers.
func (s *Scanner) SetExcludeStandard(exclude bool) {
	s.excludeStandard = exclude
}

// SetLogger sets the logger used for skipped-file warnings.
func (s *Scanner) SetLogger(l *log.Logger) {
	if l == nil {
		l = logging.Discard()
	}
	s.logger = l
}

// SetProgress installs a callback invoked after each analyzed file.
func (s *Scanner) SetProgress(fn ProgressFunc) {
	s.progress = fn
}

// DetectorNames returns the IDs of registered detectors in registration
// order, expanding detector sets into their rule IDs.
func (s *Scanner) DetectorNames() []string {
	names := make([]string, 0, len(s.detectors))
	for _, d := range s.detectors {
		if set, ok := d.(DetectorSet); ok {
			names = append(names, set.DetectorIDs()...)
			continue
		}
		names = append(names, d.Name())
	}
	return names
}

// Scan walks root recursively and runs every detector over each text file.
// It fails only when root is not an accessible directory or ctx is done.
func (s *Scanner) Scan(ctx context.Context, root string) (*Report, error) {
	started := s.now()
	discovery := &TargetDiscovery{
		IgnorePatterns:   s.ignorePatterns,
		MaxFileSize:      s.maxFileSize,
		NoFollowSymlinks: s.noFollowSymlinks,
	}
	targets, err := discovery.Discover(root)
	if err != nil {
		return nil, err
	}
	for _, w := range discovery.Warnings {
		s.logWarning(w)
	}

	report, err := s.run(ctx, targets)
	if err != nil {
		return nil, err
	}
	report.Root = root
	report.StartedAt = started
	report.Warnings = append(report.Warnings, discovery.Warnings...)
	sortWarnings(report.Warnings)
	report.Duration = time.Since(started)
	return report, nil
}

// ScanTargets runs the detector pipeline on a pre-built list of targets.
// Targets with non-nil Content are not read from disk.
func (s *Scanner) ScanTargets(ctx context.Context, targets []*Target) (*Report, error) {
	started := s.now()
	report, err := s.run(ctx, targets)
	if err != nil {
		return nil, err
	}
	report.StartedAt = started
	sortWarnings(report.Warnings)
	report.Duration = time.Since(started)
	return report, nil
}

type fileResult struct {
	analyzed   bool
	detections []Detection
	warnings   []Warning
}

func (s *Scanner) run(ctx context.Context, targets []*Target) (*Report, error) {
	results := make([]fileResult, len(targets))
	var done atomic.Int64

	g := new(errgroup.Group)
	g.SetLimit(s.workers)
	for i, target := range targets {
		if ctx.Err() != nil {
			break
		}
		i, target := i, target
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			results[i] = s.analyze(ctx, target)
			if s.progress != nil {
				s.progress(int(done.Add(1)), len(targets), target.RelPath)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	report := &Report{
		ScanID:    uuid.NewString(),
		Detectors: s.DetectorNames(),
	}
	var detections []Detection
	for _, r := range results {
		if r.analyzed {
			report.FilesScanned++
		}
		detections = append(detections, r.detections...)
		report.Warnings = append(report.Warnings, r.warnings...)
	}

	report.Detections = s.postProcess(detections)
	report.Dependencies = meta.Aggregate(report.Detections)
	return report, nil
}

func (s *Scanner) analyze(ctx context.Context, target *Target) fileResult {
	var res fileResult
	if target.Content == nil {
		if err := target.LoadContent(); err != nil {
			res.warnings = append(res.warnings, s.warning(target.RelPath, types.WarnFileRead, err.Error()))
			return res
		}
	}
	if target.IsBinary() {
		res.warnings = append(res.warnings, s.warning(target.RelPath, types.WarnBinary, "file contains NUL bytes, skipped"))
		return res
	}
	res.analyzed = true

	for _, d := range s.detectors {
		if ctx.Err() != nil {
			return res
		}
		found, err := d.Detect(ctx, target)
		if err != nil {
			if ctx.Err() != nil {
				return res
			}
			res.warnings = append(res.warnings, s.warning(target.RelPath, types.WarnDetector, fmt.Sprintf("%s: %v", d.Name(), err)))
			continue
		}
		for _, det := range found {
			if det.FilePath == "" {
				det.FilePath = target.RelPath
			}
			if det.Detector == "" {
				det.Detector = d.Name()
			}
			det.RawMatch = truncate(det.RawMatch, maxRawMatch)
			res.detections = append(res.detections, det)
		}
	}
	return res
}

// postProcess deduplicates, enriches, filters, and sorts detections.
func (s *Scanner) postProcess(detections []Detection) []Detection {
	detections = meta.Deduplicate(detections)
	for i := range detections {
		for _, e := range s.enrichers {
			e.Enrich(&detections[i])
		}
	}

	if s.excludeStandard {
		kept := detections[:0]
		for _, d := range detections {
			if !d.Standard {
				kept = append(kept, d)
			}
		}
		detections = kept
	}

	meta.SortDetections(detections)
	return detections
}

func (s *Scanner) warning(relPath string, kind types.WarningKind, msg string) Warning {
	w := Warning{FilePath: relPath, Kind: kind, Message: msg}
	s.logWarning(w)
	return w
}

func (s *Scanner) logWarning(w Warning) {
	s.logger.Warn("skipping", "path", w.FilePath, "kind", string(w.Kind), "reason", w.Message)
}

func sortWarnings(ws []Warning) {
	sort.SliceStable(ws, func(i, j int) bool {
		if ws[i].FilePath != ws[j].FilePath {
			return ws[i].FilePath < ws[j].FilePath
		}
		if ws[i].Kind != ws[j].Kind {
			return ws[i].Kind < ws[j].Kind
		}
		return ws[i].Message < ws[j].Message
	})
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
