// Package manifest detects dependencies declared in package-manager
// manifests that have structure beyond what a single regex captures:
// vcpkg.json and conanfile.txt.
package manifest

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/garagon/cppdeps/internal/rules"
	"github.com/garagon/cppdeps/internal/scanner"
	"github.com/garagon/cppdeps/internal/types"
)

// VcpkgID is the detector ID attached to vcpkg.json detections.
const VcpkgID = "VCPKG_MANIFEST"

// vcpkgFallbackRe recovers name/version pairs from manifests that are not
// valid JSON.
var vcpkgFallbackRe = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"[^}]*?"version(?:>=|-string|-semver|-date)?"\s*:\s*"([^"]+)"`)

// VcpkgDetector implements scanner.Detector for vcpkg.json manifests.
type VcpkgDetector struct{}

// NewVcpkgDetector returns a vcpkg manifest detector.
func NewVcpkgDetector() *VcpkgDetector { return &VcpkgDetector{} }

func (d *VcpkgDetector) Name() string { return VcpkgID }

// Info describes the detector for listing and explanation.
func (d *VcpkgDetector) Info() rules.Info {
	return rules.Info{
		ID:          VcpkgID,
		Name:        "vcpkg manifest dependency",
		Kind:        types.KindVcpkgDependency.String(),
		Description: "Entries of the dependencies array in vcpkg.json, as strings or objects; versions come from version>= or a matching overrides entry",
		Targets:     []string{"vcpkg.json"},
		Patterns: []string{
			`[json] dependencies[] string | {"name", "version>="}`,
			`[json] overrides[] {"name", "version"}`,
			"[regex] " + vcpkgFallbackRe.String(),
		},
		TruePositives: []string{
			`{"dependencies": ["fmt", {"name": "zlib", "version>=": "1.3"}]}`,
		},
		FalsePositives: []string{
			`{"name": "my-app", "version": "1.0.0"}`,
		},
	}
}

type vcpkgManifest struct {
	Dependencies []vcpkgDependency `json:"dependencies"`
	Overrides    []vcpkgOverride   `json:"overrides"`
}

// vcpkgDependency accepts both "name" and {"name": ..., "version>=": ...}.
type vcpkgDependency struct {
	Name       string
	MinVersion string
}

func (v *vcpkgDependency) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		v.Name = name
		return nil
	}
	var obj struct {
		Name       string `json:"name"`
		MinVersion string `json:"version>="`
		Version    string `json:"version"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("dependency entry: %w", err)
	}
	v.Name = obj.Name
	v.MinVersion = obj.MinVersion
	if v.MinVersion == "" {
		v.MinVersion = obj.Version
	}
	return nil
}

type vcpkgOverride struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// Older manifests spell the scheme in the key.
	VersionString string `json:"version-string"`
	VersionSemver string `json:"version-semver"`
	VersionDate   string `json:"version-date"`
}

func (o vcpkgOverride) version() string {
	for _, v := range []string{o.Version, o.VersionString, o.VersionSemver, o.VersionDate} {
		if v != "" {
			return v
		}
	}
	return ""
}

func (d *VcpkgDetector) Detect(ctx context.Context, target *scanner.Target) ([]scanner.Detection, error) {
	if !strings.EqualFold(target.Base(), "vcpkg.json") {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content := string(target.Content)
	var m vcpkgManifest
	if err := json.Unmarshal(target.Content, &m); err != nil {
		return detectVcpkgFallback(content), nil
	}

	overrides := make(map[string]string, len(m.Overrides))
	for _, o := range m.Overrides {
		overrides[o.Name] = o.version()
	}

	depsAt := strings.Index(content, `"dependencies"`)
	var detections []scanner.Detection
	for _, dep := range m.Dependencies {
		if dep.Name == "" {
			continue
		}
		version := dep.MinVersion
		if v := overrides[dep.Name]; v != "" {
			version = v
		}
		line, raw := locate(content, depsAt, `"`+dep.Name+`"`)
		detections = append(detections, scanner.Detection{
			SourceKind: types.KindVcpkgDependency,
			Name:       dep.Name,
			Version:    version,
			RawMatch:   raw,
			LineNumber: line,
			Detector:   VcpkgID,
		})
	}
	return detections, nil
}

func detectVcpkgFallback(content string) []scanner.Detection {
	var detections []scanner.Detection
	for _, loc := range vcpkgFallbackRe.FindAllStringSubmatchIndex(content, -1) {
		detections = append(detections, scanner.Detection{
			SourceKind: types.KindVcpkgDependency,
			Name:       content[loc[2]:loc[3]],
			Version:    content[loc[4]:loc[5]],
			RawMatch:   strings.Join(strings.Fields(content[loc[0]:loc[1]]), " "),
			LineNumber: strings.Count(content[:loc[0]], "\n") + 1,
			Detector:   VcpkgID,
		})
	}
	return detections
}

// locate finds the first occurrence of needle at or after from and returns
// its 1-based line and the trimmed line text. Line 0 means not found.
func locate(content string, from int, needle string) (int, string) {
	if from < 0 {
		from = 0
	}
	i := strings.Index(content[from:], needle)
	if i < 0 {
		return 0, needle
	}
	i += from
	start := strings.LastIndexByte(content[:i], '\n') + 1
	end := strings.IndexByte(content[i:], '\n')
	if end < 0 {
		end = len(content)
	} else {
		end += i
	}
	return strings.Count(content[:i], "\n") + 1, strings.TrimSpace(content[start:end])
}
