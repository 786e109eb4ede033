package output

import (
	"encoding/json"
	"io"

	"github.com/garagon/cppdeps/internal/scanner"
	"github.com/garagon/cppdeps/internal/types"
)

// JSONFormatter outputs the report as indented JSON.
type JSONFormatter struct{}

func (f *JSONFormatter) Format(w io.Writer, report *scanner.Report) error {
	r := *report
	if r.Tool.Name == "" {
		r.Tool = types.ToolInfo{Name: ToolName, Version: ToolVersion}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}
