package rules

import (
	"regexp"

	"github.com/garagon/cppdeps/internal/types"
)

// Mode determines what unit of text a rule's patterns run against.
type Mode int

const (
	ModeLine Mode = iota // each line independently
	ModeFile             // the whole file, so a match may span lines
)

func (m Mode) String() string {
	if m == ModeFile {
		return "file"
	}
	return "line"
}

// TargetCFamily is a special target that selects C, C++, Objective-C and
// CUDA sources and headers by language rather than by glob.
const TargetCFamily = "@cfamily"

// Group names a rule pattern may capture.
const (
	GroupName    = "name"
	GroupVersion = "version"
)

// RawExamples contains test examples for rule self-testing.
type RawExamples struct {
	TruePositive  []string `yaml:"true_positive"`
	FalsePositive []string `yaml:"false_positive"`
}

// RawRule is the YAML representation of a detector rule.
type RawRule struct {
	ID              string      `yaml:"id"`
	Name            string      `yaml:"name"`
	Description     string      `yaml:"description"`
	Kind            string      `yaml:"kind"`
	Targets         []string    `yaml:"targets"`
	Mode            string      `yaml:"mode"`
	LowercaseName   bool        `yaml:"lowercase_name"`
	Patterns        []string    `yaml:"patterns"`
	ExcludePatterns []string       `yaml:"exclude_patterns"`
	BlockComments   []BlockComment `yaml:"block_comments"`
	Examples        RawExamples    `yaml:"examples"`
}

// BlockComment delimits a comment that may span lines, such as CMake's
// #[[ ... ]]. Matches starting inside one are dropped.
type BlockComment struct {
	Open  string `yaml:"open"`
	Close string `yaml:"close"`
}

// CompiledRule is a rule compiled and ready for execution.
type CompiledRule struct {
	ID              string
	Name            string
	Description     string
	Kind            types.SourceKind
	Targets         []string
	Mode            Mode
	LowercaseName   bool
	Patterns        []*regexp.Regexp // each has a "name" group
	ExcludePatterns []*regexp.Regexp // tested against the line text before the match
	BlockComments   []BlockComment
	Examples        RawExamples
}

// Info summarizes a detector for listing and explanation, whether it is
// backed by a YAML rule or implemented in code.
type Info struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Kind           string   `json:"kind"`
	Description    string   `json:"description"`
	Targets        []string `json:"targets"`
	Patterns       []string `json:"patterns"`
	TruePositives  []string `json:"true_positives"`
	FalsePositives []string `json:"false_positives"`
}

// Info returns the rule's summary.
func (r *CompiledRule) Info() Info {
	patterns := make([]string, len(r.Patterns))
	for i, p := range r.Patterns {
		patterns[i] = "[regex] " + p.String()
	}
	return Info{
		ID:             r.ID,
		Name:           r.Name,
		Kind:           r.Kind.String(),
		Description:    r.Description,
		Targets:        r.Targets,
		Patterns:       patterns,
		TruePositives:  r.Examples.TruePositive,
		FalsePositives: r.Examples.FalsePositive,
	}
}
