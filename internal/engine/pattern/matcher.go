// Package pattern implements the regex-backed detectors: each compiled rule
// is run against the files its targets select, in line or file mode, and
// every match becomes one detection.
package pattern

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/garagon/cppdeps/internal/rules"
	"github.com/garagon/cppdeps/internal/scanner"
)

// Matcher implements scanner.Detector for a set of compiled rules.
type Matcher struct {
	rules []*rules.CompiledRule
}

// NewMatcher creates a new pattern matcher with the given compiled rules.
func NewMatcher(compiled []*rules.CompiledRule) *Matcher {
	return &Matcher{rules: compiled}
}

func (m *Matcher) Name() string { return "pattern" }

// DetectorIDs returns the IDs of the rules the matcher evaluates.
func (m *Matcher) DetectorIDs() []string {
	ids := make([]string, len(m.rules))
	for i, r := range m.rules {
		ids[i] = r.ID
	}
	return ids
}

func (m *Matcher) Detect(ctx context.Context, target *scanner.Target) ([]scanner.Detection, error) {
	var detections []scanner.Detection
	var content string
	var lines []string
	var starts []int

	for _, rule := range m.rules {
		if err := ctx.Err(); err != nil {
			return detections, err
		}
		if !matchesTarget(rule.Targets, target) {
			continue
		}
		if lines == nil {
			content = string(target.Content)
			lines = target.Lines()
			starts = lineStarts(content)
		}

		switch rule.Mode {
		case rules.ModeFile:
			detections = append(detections, matchFile(rule, content, starts)...)
		default:
			detections = append(detections, matchLines(rule, lines)...)
		}
	}
	return detections, nil
}

func matchLines(rule *rules.CompiledRule, lines []string) []scanner.Detection {
	var detections []scanner.Detection
	for i, line := range lines {
		excl := rule.Exclusions(line)
		for _, re := range rule.Patterns {
			for _, loc := range re.FindAllStringSubmatchIndex(line, -1) {
				if excl.Excluded(loc[0]) {
					continue
				}
				if d, ok := toDetection(rule, re, line, loc, i+1); ok {
					detections = append(detections, d)
				}
			}
		}
	}
	return detections
}

func matchFile(rule *rules.CompiledRule, content string, starts []int) []scanner.Detection {
	var detections []scanner.Detection
	excl := rule.Exclusions(content)
	for _, re := range rule.Patterns {
		for _, loc := range re.FindAllStringSubmatchIndex(content, -1) {
			if excl.Excluded(loc[0]) {
				continue
			}
			line := lineNumberAtOffset(starts, loc[0])
			if d, ok := toDetection(rule, re, content, loc, line); ok {
				detections = append(detections, d)
			}
		}
	}
	return detections
}

// toDetection builds a detection from a submatch index slice. Matches whose
// name group is empty are dropped.
func toDetection(rule *rules.CompiledRule, re *regexp.Regexp, text string, loc []int, line int) (scanner.Detection, bool) {
	name := group(re, text, loc, rules.GroupName)
	if name == "" {
		return scanner.Detection{}, false
	}
	if rule.LowercaseName {
		name = strings.ToLower(name)
	}
	return scanner.Detection{
		SourceKind: rule.Kind,
		Name:       name,
		Version:    group(re, text, loc, rules.GroupVersion),
		RawMatch:   strings.TrimSpace(text[loc[0]:loc[1]]),
		LineNumber: line,
		Detector:   rule.ID,
	}, true
}

func group(re *regexp.Regexp, text string, loc []int, name string) string {
	i := re.SubexpIndex(name)
	if i < 0 || loc[2*i] < 0 {
		return ""
	}
	return text[loc[2*i]:loc[2*i+1]]
}

// lineStarts returns the byte offset at which each line begins.
func lineStarts(content string) []int {
	starts := []int{0}
	for i := 0; i < len(content); i++ {
		if content[i] == '\n' {
			starts = append(starts, i+1)
		}
	}
	return starts
}

// lineNumberAtOffset returns the 1-based line holding offset.
func lineNumberAtOffset(starts []int, offset int) int {
	return sort.Search(len(starts), func(i int) bool { return starts[i] > offset })
}

func matchesTarget(targetGlobs []string, target *scanner.Target) bool {
	if len(targetGlobs) == 0 {
		return true // no filter = match all
	}
	// File names compare case-insensitively: cmakelists.txt and
	// ConanFile.py are common on Windows checkouts.
	relPath := strings.ToLower(target.RelPath)
	base := filepath.Base(relPath)
	for _, glob := range targetGlobs {
		if glob == rules.TargetCFamily {
			if target.IsCFamily() {
				return true
			}
			continue
		}
		glob = strings.ToLower(glob)
		if matched, _ := filepath.Match(glob, base); matched {
			return true
		}
		if matched, _ := filepath.Match(glob, relPath); matched {
			return true
		}
	}
	return false
}
