package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/garagon/cppdeps/internal/scanner"
	"github.com/garagon/cppdeps/internal/types"
)

// SARIFFormatter outputs detections in SARIF 2.1.0 format so code-scanning
// dashboards can show where each dependency is referenced. Every result has
// level "note".
type SARIFFormatter struct{}

type sarifLog struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string              `json:"id"`
	Name             string              `json:"name"`
	ShortDescription sarifMessage        `json:"shortDescription"`
	DefaultConfig    sarifDefaultConfig  `json:"defaultConfiguration"`
	Properties       sarifRuleProperties `json:"properties"`
}

type sarifDefaultConfig struct {
	Level string `json:"level"`
}

type sarifRuleProperties struct {
	Tags []string `json:"tags,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifResult struct {
	RuleID     string          `json:"ruleId"`
	RuleIndex  int             `json:"ruleIndex"`
	Level      string          `json:"level"`
	Message    sarifMessage    `json:"message"`
	Locations  []sarifLocation `json:"locations"`
	Properties map[string]any  `json:"properties,omitempty"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           sarifRegion           `json:"region"`
}

type sarifArtifactLocation struct {
	URI string `json:"uri"`
}

type sarifRegion struct {
	StartLine int `json:"startLine"`
}

func (f *SARIFFormatter) Format(w io.Writer, report *scanner.Report) error {
	ruleIndex := map[string]int{}
	rules := []sarifRule{}
	for _, d := range report.Detections {
		if _, ok := ruleIndex[d.Detector]; !ok {
			ruleIndex[d.Detector] = len(rules)
			rules = append(rules, sarifRule{
				ID:               d.Detector,
				Name:             d.Detector,
				ShortDescription: sarifMessage{Text: fmt.Sprintf("%s dependency reference", d.SourceKind)},
				DefaultConfig:    sarifDefaultConfig{Level: "note"},
				Properties:       sarifRuleProperties{Tags: []string{"dependency", string(d.SourceKind)}},
			})
		}
	}

	results := []sarifResult{}
	for _, d := range report.Detections {
		results = append(results, sarifResult{
			RuleID:    d.Detector,
			RuleIndex: ruleIndex[d.Detector],
			Level:     "note",
			Message:   sarifMessage{Text: resultMessage(d)},
			Locations: []sarifLocation{
				{
					PhysicalLocation: sarifPhysicalLocation{
						ArtifactLocation: sarifArtifactLocation{URI: d.FilePath},
						Region:           sarifRegion{StartLine: max(d.LineNumber, 1)},
					},
				},
			},
			Properties: resultProperties(d),
		})
	}

	log := sarifLog{
		Schema:  "https://docs.oasis-open.org/sarif/sarif/v2.1.0/sarif-schema-2.1.0.json",
		Version: "2.1.0",
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:           ToolName,
						Version:        ToolVersion,
						InformationURI: "https://github.com/garagon/cppdeps",
						Rules:          rules,
					},
				},
				Results: results,
				Properties: map[string]any{
					"duration_ms":   report.Duration.Milliseconds(),
					"files_scanned": report.FilesScanned,
					"dependencies":  len(report.Dependencies),
				},
			},
		},
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(log)
}

func resultMessage(d types.Detection) string {
	msg := fmt.Sprintf("%s: %s", d.SourceKind, d.Name)
	if d.Version != "" {
		msg += " " + d.Version
	}
	return msg
}

func resultProperties(d types.Detection) map[string]any {
	props := map[string]any{"name": d.Name}
	if d.Version != "" {
		props["version"] = d.Version
	}
	if d.IncludeStyle != "" {
		props["include_style"] = string(d.IncludeStyle)
	}
	if d.Standard {
		props["standard"] = true
	}
	if d.Vendored {
		props["vendored"] = true
	}
	if d.New {
		props["new"] = true
	}
	return props
}
