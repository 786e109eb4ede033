package scanner_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"

	"github.com/garagon/cppdeps/internal/scanner"
	"github.com/garagon/cppdeps/internal/types"
)

// lineDetector reports every line of the form "dep NAME" as a detection.
type lineDetector struct {
	name string
	err  error
}

func (d *lineDetector) Name() string { return d.name }

func (d *lineDetector) Detect(_ context.Context, target *scanner.Target) ([]scanner.Detection, error) {
	if d.err != nil {
		return nil, d.err
	}
	var out []scanner.Detection
	for i, line := range target.Lines() {
		if name, ok := strings.CutPrefix(line, "dep "); ok {
			out = append(out, scanner.Detection{
				SourceKind: scanner.KindCMakeFindPackage,
				Name:       strings.TrimSpace(name),
				RawMatch:   line,
				LineNumber: i + 1,
			})
		}
	}
	return out, nil
}

type setDetector struct{ lineDetector }

func (d *setDetector) DetectorIDs() []string { return []string{"SET_A", "SET_B"} }

type tagEnricher struct{}

func (tagEnricher) Name() string { return "tag" }

func (tagEnricher) Enrich(d *scanner.Detection) {
	d.Standard = strings.HasPrefix(d.Name, "std")
}

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		p := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return dir
}

func TestScannerOrchestrator(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"b.txt":     "dep zlib\n",
		"a/one.txt": "nothing\ndep fmt\n",
	})

	s := scanner.New(2)
	s.RegisterDetector(&lineDetector{name: "LINE"})

	report, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 2, report.FilesScanned)
	require.Equal(t, dir, report.Root)
	require.Equal(t, []string{"LINE"}, report.Detectors)
	require.NotEmpty(t, report.ScanID)
	require.False(t, report.StartedAt.IsZero())

	require.Len(t, report.Detections, 2)
	require.Equal(t, "a/one.txt", report.Detections[0].FilePath)
	require.Equal(t, 2, report.Detections[0].LineNumber)
	require.Equal(t, "LINE", report.Detections[0].Detector)
	require.Equal(t, "b.txt", report.Detections[1].FilePath)

	require.Len(t, report.Dependencies, 2)
	require.Equal(t, "fmt", report.Dependencies[0].Name)
}

func TestScannerDetectorSetNames(t *testing.T) {
	s := scanner.New(1)
	s.RegisterDetector(&setDetector{lineDetector{name: "pattern"}})
	s.RegisterDetector(&lineDetector{name: "LINE"})
	require.Equal(t, []string{"SET_A", "SET_B", "LINE"}, s.DetectorNames())
}

func TestScannerDeduplicates(t *testing.T) {
	dir := writeFiles(t, map[string]string{"deps.txt": "dep zlib\n"})

	s := scanner.New(1)
	s.RegisterDetector(&lineDetector{name: "LINE"})
	s.RegisterDetector(&lineDetector{name: "LINE"})

	report, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, report.Detections, 1)
}

func TestScannerEnrichersAndExcludeStandard(t *testing.T) {
	dir := writeFiles(t, map[string]string{"deps.txt": "dep stdio\ndep curl\n"})

	s := scanner.New(1)
	s.RegisterDetector(&lineDetector{name: "LINE"})
	s.RegisterEnricher(tagEnricher{})

	report, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, report.Detections, 2)
	require.True(t, report.Detections[0].Standard)

	s.SetExcludeStandard(true)
	report, err = s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, report.Detections, 1)
	require.Equal(t, "curl", report.Detections[0].Name)
}

func TestScannerDetectorErrorIsWarning(t *testing.T) {
	dir := writeFiles(t, map[string]string{"deps.txt": "dep zlib\n"})

	s := scanner.New(1)
	s.RegisterDetector(&lineDetector{name: "BROKEN", err: errors.New("boom")})
	s.RegisterDetector(&lineDetector{name: "LINE"})

	report, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, report.Detections, 1)
	require.Len(t, report.Warnings, 1)
	require.Equal(t, types.WarnDetector, report.Warnings[0].Kind)
	require.Equal(t, "BROKEN: boom", report.Warnings[0].Message)
}

func TestScannerInvalidRoot(t *testing.T) {
	s := scanner.New(1)

	missing := filepath.Join(t.TempDir(), "missing")
	_, err := s.Scan(context.Background(), missing)
	require.ErrorIs(t, err, types.ErrInvalidRoot)
	var rootErr *types.InvalidRootError
	require.True(t, errors.As(err, &rootErr))
	require.Equal(t, missing, rootErr.Path)

	file := filepath.Join(writeFiles(t, map[string]string{"x.txt": "x"}), "x.txt")
	_, err = s.Scan(context.Background(), file)
	require.ErrorIs(t, err, types.ErrInvalidRoot)
	require.Contains(t, err.Error(), "not a directory")
}

func TestScannerEmptyDirectory(t *testing.T) {
	s := scanner.New(1)
	s.RegisterDetector(&lineDetector{name: "LINE"})

	report, err := s.Scan(context.Background(), t.TempDir())
	require.NoError(t, err)
	require.Zero(t, report.FilesScanned)
	require.Empty(t, report.Detections)
	require.Empty(t, report.Dependencies)
	require.Empty(t, report.Warnings)
}

func TestScannerUnreadableFile(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for this user")
	}
	dir := writeFiles(t, map[string]string{
		"ok.txt":     "dep fmt\n",
		"locked.txt": "dep secret\n",
	})
	locked := filepath.Join(dir, "locked.txt")
	require.NoError(t, os.Chmod(locked, 0o000))
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	s := scanner.New(1)
	s.RegisterDetector(&lineDetector{name: "LINE"})

	report, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, report.FilesScanned)
	require.Len(t, report.Detections, 1)
	require.Equal(t, "fmt", report.Detections[0].Name)
	require.Len(t, report.Warnings, 1)
	require.Equal(t, "locked.txt", report.Warnings[0].FilePath)
	require.Equal(t, types.WarnFileRead, report.Warnings[0].Kind)
}

func TestScannerBinaryFile(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"blob.dat": "dep hidden\x00\x01\x02",
		"deps.txt": "dep zlib\n",
	})

	s := scanner.New(1)
	s.RegisterDetector(&lineDetector{name: "LINE"})

	report, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Equal(t, 1, report.FilesScanned)
	require.Len(t, report.Detections, 1)
	require.Len(t, report.Warnings, 1)
	require.Equal(t, types.Warning{FilePath: "blob.dat", Kind: types.WarnBinary, Message: "file contains NUL bytes, skipped"}, report.Warnings[0])
}

func TestScannerRawMatchTruncated(t *testing.T) {
	long := "dep " + strings.Repeat("x", 300)
	s := scanner.New(1)
	s.RegisterDetector(&lineDetector{name: "LINE"})

	report, err := s.ScanTargets(context.Background(), []*scanner.Target{{RelPath: "deps.txt", Content: []byte(long)}})
	require.NoError(t, err)
	require.Len(t, report.Detections, 1)
	require.Len(t, report.Detections[0].RawMatch, 203)
	require.True(t, strings.HasSuffix(report.Detections[0].RawMatch, "..."))
}

func TestScanTargetsUsesContent(t *testing.T) {
	s := scanner.New(1)
	s.RegisterDetector(&lineDetector{name: "LINE"})

	report, err := s.ScanTargets(context.Background(), []*scanner.Target{
		{RelPath: "x.txt", Content: []byte("dep fmt\n")},
		{RelPath: "y.txt", Path: filepath.Join(t.TempDir(), "gone.txt")},
	})
	require.NoError(t, err)
	require.Equal(t, 1, report.FilesScanned)
	require.Len(t, report.Detections, 1)
	require.Len(t, report.Warnings, 1)
	require.Equal(t, "y.txt", report.Warnings[0].FilePath)
}

func TestScannerDeterministicAcrossWorkers(t *testing.T) {
	files := make(map[string]string)
	for _, d := range []string{"a", "b", "c", "d"} {
		for _, f := range []string{"x", "y", "z"} {
			files[d+"/"+f+".txt"] = "dep " + f + "\nfiller\ndep " + d + "\n"
		}
	}
	dir := writeFiles(t, files)

	scan := func(workers int) *scanner.Report {
		s := scanner.New(workers)
		s.RegisterDetector(&lineDetector{name: "LINE"})
		report, err := s.Scan(context.Background(), dir)
		require.NoError(t, err)
		return report
	}

	serial := scan(1)
	ignoreRunMetadata := cmpopts.IgnoreFields(scanner.Report{}, "ScanID", "StartedAt", "Duration")
	for _, workers := range []int{1, 3, 8} {
		if diff := cmp.Diff(serial, scan(workers), ignoreRunMetadata); diff != "" {
			t.Errorf("workers=%d report differs (-serial +parallel):\n%s", workers, diff)
		}
	}
}

func TestScannerProgress(t *testing.T) {
	dir := writeFiles(t, map[string]string{"a.txt": "a", "b.txt": "b", "c.txt": "c"})

	var mu sync.Mutex
	var calls, totals []int
	s := scanner.New(2)
	s.SetProgress(func(done, total int, _ string) {
		mu.Lock()
		defer mu.Unlock()
		calls = append(calls, done)
		totals = append(totals, total)
	})

	_, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.ElementsMatch(t, []int{1, 2, 3}, calls)
	require.Equal(t, []int{3, 3, 3}, totals)
}

func TestScannerDuration(t *testing.T) {
	dir := writeFiles(t, map[string]string{"deps.txt": "dep zlib\n"})

	s := scanner.New(1)
	s.RegisterDetector(&lineDetector{name: "LINE"})

	report, err := s.Scan(context.Background(), dir)
	require.NoError(t, err)
	require.Greater(t, report.Duration, time.Duration(0))
}

func TestScannerContextCancellation(t *testing.T) {
	dir := writeFiles(t, map[string]string{"deps.txt": "dep zlib\n"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := scanner.New(1)
	s.RegisterDetector(&lineDetector{name: "LINE"})

	_, err := s.Scan(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
}
