// Package cpp detects #include dependencies in C-family sources by reading
// preprocessor directives line by line. Include operands given as macros are
// expanded through #define directives in the same file.
package cpp

import (
	"context"
	"strings"

	"github.com/garagon/cppdeps/internal/rules"
	"github.com/garagon/cppdeps/internal/scanner"
	"github.com/garagon/cppdeps/internal/types"
)

// ID is the detector ID attached to include detections.
const ID = "CPP_INCLUDE"

// maxExpandDepth bounds macro chains such as A -> B -> <x.h>.
const maxExpandDepth = 16

// IncludeDetector implements scanner.Detector for #include, #include_next
// and #import directives.
type IncludeDetector struct{}

// NewIncludeDetector returns an include detector.
func NewIncludeDetector() *IncludeDetector { return &IncludeDetector{} }

func (d *IncludeDetector) Name() string { return ID }

// Info describes the detector for listing and explanation.
func (d *IncludeDetector) Info() rules.Info {
	return rules.Info{
		ID:          ID,
		Name:        "C/C++ include directive",
		Kind:        types.KindInclude.String(),
		Description: "Headers named by #include, #include_next and #import; macro operands are expanded through #define in the same file",
		Targets:     []string{rules.TargetCFamily},
		Patterns: []string{
			`[directive] #include <path> | "path" | MACRO`,
			`[directive] #include_next <path>`,
			`[directive] #import <path>`,
		},
		TruePositives: []string{
			"#include <boost/asio.hpp>",
			`#include "config.h"`,
			"#define FT_DRIVER_H <freetype/ftdriver.h>\n#include FT_DRIVER_H",
		},
		FalsePositives: []string{
			"// #include <vector>",
			"#includes <x>",
		},
	}
}

// directive is an include operand before macro expansion.
type directive struct {
	line    int
	raw     string
	operand string // "<x>", "\"x\"" or MACRO
}

func (d *IncludeDetector) Detect(ctx context.Context, target *scanner.Target) ([]scanner.Detection, error) {
	if !target.IsCFamily() {
		return nil, nil
	}

	includes, defines := scan(target.Lines())
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var detections []scanner.Detection
	for _, inc := range includes {
		base := scanner.Detection{
			SourceKind: types.KindInclude,
			RawMatch:   inc.raw,
			LineNumber: inc.line,
			Detector:   ID,
		}
		if !isMacro(inc.operand) {
			base.Name, base.IncludeStyle = unquote(inc.operand)
			detections = append(detections, base)
			continue
		}

		base.IncludeStyle = types.IncludeMacro
		paths := expandMacros(nil, inc.operand, defines, 0)
		if len(paths) == 0 {
			// Unresolved; the macro token stands in for the header.
			base.Name = inc.operand
			detections = append(detections, base)
			continue
		}
		for _, p := range paths {
			det := base
			det.Name, _ = unquote(p)
			detections = append(detections, det)
		}
	}
	return detections, nil
}

// scan collects include directives and macro definitions. Lines inside
// block comments are skipped.
func scan(lines []string) ([]directive, map[string][]string) {
	var includes []directive
	defines := make(map[string][]string)
	inComment := false

	for i, raw := range lines {
		line := raw
		if inComment {
			end := strings.Index(line, "*/")
			if end < 0 {
				continue
			}
			line = line[end+2:]
			inComment = false
		}
		if opensComment(line) {
			inComment = true
		}

		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(line[1:])

		keyword, rest, ok := cutKeyword(line)
		if !ok {
			continue
		}
		switch keyword {
		case "include", "include_next", "import":
			operand := includeOperand(strings.TrimSpace(rest))
			if operand == "" {
				continue
			}
			includes = append(includes, directive{
				line:    i + 1,
				raw:     strings.TrimSpace(raw),
				operand: operand,
			})
		case "define":
			addDefine(defines, strings.TrimSpace(rest))
		}
	}
	return includes, defines
}

// cutKeyword splits a directive into its keyword and the text after the
// keyword. #include<x> needs no blank; #define does.
func cutKeyword(line string) (keyword, rest string, ok bool) {
	i := strings.IndexAny(line, " \t<\"")
	if i <= 0 {
		return "", "", false
	}
	keyword, rest = line[:i], line[i:]
	if keyword == "define" && rest[0] != ' ' && rest[0] != '\t' {
		return "", "", false
	}
	return keyword, rest, true
}

// includeOperand extracts <path>, "path" or an upper-case macro token.
func includeOperand(s string) string {
	if s == "" {
		return ""
	}
	switch s[0] {
	case '"', '<':
		delim := byte('"')
		if s[0] == '<' {
			delim = '>'
		}
		end := strings.IndexByte(s[1:], delim)
		if end <= 0 {
			// unclosed or empty path
			return ""
		}
		return s[:end+2]
	}
	if s[0] < 'A' || s[0] > 'Z' {
		return ""
	}
	if end := strings.IndexAny(s, " \t/("); end >= 0 {
		s = s[:end]
	}
	return s
}

// addDefine records object-like macros whose value is a header path or
// another upper-case macro:
//
//	#define FT_DRIVER_H <freetype/ftdriver.h>
//	#define FT_AUTOHINTER_H FT_DRIVER_H
func addDefine(defines map[string][]string, s string) {
	i := strings.IndexAny(s, " \t")
	if i < 0 {
		return
	}
	macro := s[:i]
	if strings.Contains(macro, "(") {
		return
	}
	value := strings.TrimSpace(s[i+1:])
	if value == "" {
		return
	}
	switch value[0] {
	case '<', '"':
		if v := includeOperand(value); v != "" {
			defines[macro] = append(defines[macro], v)
		}
		return
	}
	if end := strings.IndexAny(value, " \t"); end >= 0 {
		value = value[:end]
	}
	if strings.Contains(value, "(") || value[0] < 'A' || value[0] > 'Z' {
		return
	}
	defines[macro] = append(defines[macro], value)
}

// expandMacros resolves name through defines into quoted or angled paths.
// Macros without a definition, or chains deeper than maxExpandDepth,
// contribute nothing.
func expandMacros(paths []string, name string, defines map[string][]string, depth int) []string {
	if !isMacro(name) {
		return append(paths, name)
	}
	if depth >= maxExpandDepth {
		return paths
	}
	for _, v := range defines[name] {
		paths = expandMacros(paths, v, defines, depth+1)
	}
	return paths
}

func isMacro(s string) bool {
	return s != "" && s[0] != '<' && s[0] != '"'
}

func unquote(operand string) (string, types.IncludeStyle) {
	style := types.IncludeQuoted
	if operand[0] == '<' {
		style = types.IncludeAngle
	}
	return strings.TrimSpace(operand[1 : len(operand)-1]), style
}

// opensComment reports whether line leaves a /* block comment open.
// Comment markers inside string and character literals are ignored. A quote
// after a digit or letter is a C++14 digit separator, not a literal.
func opensComment(line string) bool {
	open := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		if open {
			if c == '*' && i+1 < len(line) && line[i+1] == '/' {
				open = false
				i++
			}
			continue
		}
		switch {
		case c == '/' && i+1 < len(line) && line[i+1] == '/':
			return false
		case c == '/' && i+1 < len(line) && line[i+1] == '*':
			open = true
			i++
		case c == '"' || (c == '\'' && (i == 0 || !isWordByte(line[i-1]))):
			i = skipLiteral(line, i)
		}
	}
	return open
}

// skipLiteral returns the index of the quote closing the literal opened at
// line[start], or the last index when the literal is unterminated.
func skipLiteral(line string, start int) int {
	quote := line[start]
	for i := start + 1; i < len(line); i++ {
		switch line[i] {
		case '\\':
			i++
		case quote:
			return i
		}
	}
	return len(line) - 1
}

func isWordByte(c byte) bool {
	return c == '_' || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
