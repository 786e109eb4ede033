package rules

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/garagon/cppdeps/internal/types"
)

// Compile converts a RawRule into a CompiledRule ready for execution.
func Compile(raw RawRule) (*CompiledRule, error) {
	if raw.ID == "" {
		return nil, fmt.Errorf("rule missing ID")
	}
	if len(raw.Patterns) == 0 {
		return nil, fmt.Errorf("rule %s: no patterns defined", raw.ID)
	}

	kind, err := types.ParseSourceKind(raw.Kind)
	if err != nil {
		return nil, fmt.Errorf("rule %s: %w", raw.ID, err)
	}

	var mode Mode
	switch strings.ToLower(strings.TrimSpace(raw.Mode)) {
	case "", "line":
		mode = ModeLine
	case "file":
		mode = ModeFile
	default:
		return nil, fmt.Errorf("rule %s: unknown mode %q", raw.ID, raw.Mode)
	}

	compiled := &CompiledRule{
		ID:            raw.ID,
		Name:          raw.Name,
		Description:   raw.Description,
		Kind:          kind,
		Targets:       raw.Targets,
		Mode:          mode,
		LowercaseName: raw.LowercaseName,
		Examples:      raw.Examples,
	}

	for i, p := range raw.Patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("rule %s pattern %d: invalid regex: %w", raw.ID, i, err)
		}
		if re.SubexpIndex(GroupName) < 0 {
			return nil, fmt.Errorf("rule %s pattern %d: missing (?P<%s>...) group", raw.ID, i, GroupName)
		}
		compiled.Patterns = append(compiled.Patterns, re)
	}

	for i, p := range raw.ExcludePatterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("rule %s exclude_pattern %d: invalid regex: %w", raw.ID, i, err)
		}
		compiled.ExcludePatterns = append(compiled.ExcludePatterns, re)
	}

	for i, bc := range raw.BlockComments {
		if bc.Open == "" || bc.Close == "" {
			return nil, fmt.Errorf("rule %s block_comment %d: open and close are required", raw.ID, i)
		}
		compiled.BlockComments = append(compiled.BlockComments, bc)
	}

	return compiled, nil
}

// CompileAll compiles a slice of raw rules, returning compiled rules and any errors.
// A later rule with the same ID as an earlier one replaces it, so custom
// rule directories can override built-in rules.
func CompileAll(raws []RawRule) ([]*CompiledRule, []error) {
	var rules []*CompiledRule
	var errs []error
	index := make(map[string]int)
	for _, raw := range raws {
		cr, err := Compile(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if i, ok := index[cr.ID]; ok {
			rules[i] = cr
			continue
		}
		index[cr.ID] = len(rules)
		rules = append(rules, cr)
	}
	return rules, errs
}

// FilterByIDs removes rules whose IDs are in the disabled set.
func FilterByIDs(compiled []*CompiledRule, disabled map[string]bool) []*CompiledRule {
	var result []*CompiledRule
	for _, rule := range compiled {
		if !disabled[rule.ID] {
			result = append(result, rule)
		}
	}
	return result
}

// FilterByKind keeps only rules producing the given source kinds.
func FilterByKind(compiled []*CompiledRule, kinds ...types.SourceKind) []*CompiledRule {
	var result []*CompiledRule
	for _, rule := range compiled {
		if slices.Contains(kinds, rule.Kind) {
			result = append(result, rule)
		}
	}
	return result
}
