// Package types defines shared data structures (Detection, SourceKind, Report)
// used across scanner, meta, and engine packages to prevent import cycles.
package types

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SourceKind identifies the syntactic shape a detection was recognized from.
type SourceKind string

const (
	KindCMakeFindPackage  SourceKind = "cmake_find_package"
	KindCMakeFetchContent SourceKind = "cmake_fetch_content"
	KindConanRequires     SourceKind = "conan_requires"
	KindVcpkgDependency   SourceKind = "vcpkg_dependency"
	KindInclude           SourceKind = "include"
	KindVersionDefine     SourceKind = "version_define"
)

// AllKinds lists every known source kind in report order.
var AllKinds = []SourceKind{
	KindCMakeFindPackage,
	KindCMakeFetchContent,
	KindConanRequires,
	KindVcpkgDependency,
	KindInclude,
	KindVersionDefine,
}

func (k SourceKind) String() string { return string(k) }

// ParseSourceKind converts a string to a SourceKind. Matching is
// case-insensitive and accepts '-' in place of '_'.
func ParseSourceKind(s string) (SourceKind, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "-", "_")
	for _, k := range AllKinds {
		if string(k) == norm {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown source kind: %q", s)
}

// IncludeStyle records how an #include spelled its operand.
type IncludeStyle string

const (
	IncludeAngle  IncludeStyle = "angle"  // #include <x>
	IncludeQuoted IncludeStyle = "quoted" // #include "x"
	IncludeMacro  IncludeStyle = "macro"  // #include X_H, expanded via #define
)

// Detection is one recognized dependency occurrence.
type Detection struct {
	SourceKind   SourceKind   `json:"source_kind"`
	Name         string       `json:"name"`
	RawMatch     string       `json:"raw_match"`
	FilePath     string       `json:"file_path"`
	LineNumber   int          `json:"line_number,omitempty"`
	Detector     string       `json:"detector"`
	Version      string       `json:"version,omitempty"`
	IncludeStyle IncludeStyle `json:"include_style,omitempty"`
	Standard     bool         `json:"standard,omitempty"`
	Vendored     bool         `json:"vendored,omitempty"`
	New          bool         `json:"new,omitempty"`
}

// Key identifies a detection for duplicate collapsing.
func (d Detection) Key() string {
	return fmt.Sprintf("%s:%d:%s:%s:%s", d.FilePath, d.LineNumber, d.SourceKind, d.Name, d.Detector)
}

// WarningKind classifies a non-fatal scan problem.
type WarningKind string

const (
	WarnFileRead WarningKind = "file_read"
	WarnWalk     WarningKind = "walk"
	WarnTooLarge WarningKind = "too_large"
	WarnBinary   WarningKind = "binary"
	WarnDetector WarningKind = "detector"
)

// Warning is a skipped file or other problem that did not abort the scan.
type Warning struct {
	FilePath string      `json:"file_path"`
	Kind     WarningKind `json:"kind"`
	Message  string      `json:"message"`
}

// Dependency is the per-name aggregate of detections.
type Dependency struct {
	Name        string       `json:"name"`
	Version     string       `json:"version,omitempty"`
	Kinds       []SourceKind `json:"kinds"`
	Occurrences int          `json:"occurrences"`
	Files       []string     `json:"files"`
	New         bool         `json:"new,omitempty"`
}

// ToolInfo identifies the program that produced a report.
type ToolInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Report holds the complete results of a scan.
type Report struct {
	Tool         ToolInfo      `json:"tool"`
	ScanID       string        `json:"scan_id"`
	Root         string        `json:"root"`
	StartedAt    time.Time     `json:"started_at"`
	FilesScanned int           `json:"files_scanned"`
	Detectors    []string      `json:"detectors"`
	Detections   []Detection   `json:"detections"`
	Dependencies []Dependency  `json:"dependencies"`
	Warnings     []Warning     `json:"warnings"`
	Duration     time.Duration `json:"-"`
}

// MarshalJSON implements custom JSON marshaling so Duration serializes as
// milliseconds and nil slices serialize as empty arrays.
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	a := Alias(r)
	if a.Detectors == nil {
		a.Detectors = []string{}
	}
	if a.Detections == nil {
		a.Detections = []Detection{}
	}
	if a.Dependencies == nil {
		a.Dependencies = []Dependency{}
	}
	if a.Warnings == nil {
		a.Warnings = []Warning{}
	}
	return json.Marshal(struct {
		Alias
		StartedAt  string `json:"started_at"`
		DurationMS int64  `json:"duration_ms"`
	}{
		Alias:      a,
		StartedAt:  r.StartedAt.UTC().Format(time.RFC3339),
		DurationMS: r.Duration.Milliseconds(),
	})
}

// ErrInvalidRoot is matched by every InvalidRootError via errors.Is.
var ErrInvalidRoot = errors.New("invalid scan root")

// InvalidRootError reports a scan root that is missing or not a directory.
type InvalidRootError struct {
	Path string
	Err  error
}

func (e *InvalidRootError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid scan root %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("invalid scan root %s: not a directory", e.Path)
}

func (e *InvalidRootError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidRoot, e.Err}
	}
	return []error{ErrInvalidRoot}
}
