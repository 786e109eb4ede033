package manifest

import (
	"context"
	"strings"

	"github.com/garagon/cppdeps/internal/rules"
	"github.com/garagon/cppdeps/internal/scanner"
	"github.com/garagon/cppdeps/internal/types"
)

// ConanTxtID is the detector ID attached to conanfile.txt detections.
const ConanTxtID = "CONAN_TXT_REQUIRES"

// requireSections are the conanfile.txt sections that list references.
var requireSections = map[string]bool{
	"requires":       true,
	"tool_requires":  true,
	"build_requires": true,
	"test_requires":  true,
}

// ConanTxtDetector implements scanner.Detector for conanfile.txt.
type ConanTxtDetector struct{}

// NewConanTxtDetector returns a conanfile.txt detector.
func NewConanTxtDetector() *ConanTxtDetector { return &ConanTxtDetector{} }

func (d *ConanTxtDetector) Name() string { return ConanTxtID }

// Info describes the detector for listing and explanation.
func (d *ConanTxtDetector) Info() rules.Info {
	return rules.Info{
		ID:          ConanTxtID,
		Name:        "Conan text manifest requirement",
		Kind:        types.KindConanRequires.String(),
		Description: "References listed under [requires], [tool_requires], [build_requires] or [test_requires] in conanfile.txt",
		Targets:     []string{"conanfile.txt"},
		Patterns:    []string{"[section] name/version[@user/channel][#revision]"},
		TruePositives: []string{
			"[requires]\nzlib/1.2.13\nfmt/10.2.1@demo/stable",
		},
		FalsePositives: []string{
			"[generators]\nCMakeDeps",
			"[options]\nzlib/*:shared=True",
		},
	}
}

func (d *ConanTxtDetector) Detect(ctx context.Context, target *scanner.Target) ([]scanner.Detection, error) {
	if !strings.EqualFold(target.Base(), "conanfile.txt") {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var detections []scanner.Detection
	inRequires := false
	for i, raw := range target.Lines() {
		// '#' also introduces a recipe revision, so only whole-line
		// comments are recognized.
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			inRequires = requireSections[strings.ToLower(strings.TrimSpace(line[1:len(line)-1]))]
			continue
		}
		if !inRequires {
			continue
		}
		name, version, ok := parseReference(line)
		if !ok {
			continue
		}
		detections = append(detections, scanner.Detection{
			SourceKind: types.KindConanRequires,
			Name:       name,
			Version:    version,
			RawMatch:   line,
			LineNumber: i + 1,
			Detector:   ConanTxtID,
		})
	}
	return detections, nil
}

// parseReference splits name/version[@user/channel][#rev] into name and
// version. Version ranges such as [>=1.0 <2] are kept verbatim.
func parseReference(ref string) (name, version string, ok bool) {
	name, rest, found := strings.Cut(ref, "/")
	name = strings.TrimSpace(name)
	if !found || name == "" || strings.ContainsAny(name, " \t=*") {
		return "", "", false
	}
	version = rest
	if !strings.HasPrefix(version, "[") {
		if i := strings.IndexAny(version, "@# \t"); i >= 0 {
			version = version[:i]
		}
	} else if i := strings.IndexByte(version, ']'); i >= 0 {
		version = version[:i+1]
	}
	return name, strings.TrimSpace(version), true
}
