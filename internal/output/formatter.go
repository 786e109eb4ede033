// Package output renders scan reports as JSON, terminal tables, Markdown,
// HTML, and SARIF, and writes them to a file or stdout.
package output

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/garagon/cppdeps/internal/scanner"
)

// ToolName and ToolVersion identify the tool in every report format.
var (
	ToolName    = "cppdeps"
	ToolVersion = "dev"
)

// Formatter is the interface for outputting scan reports.
type Formatter interface {
	Format(w io.Writer, report *scanner.Report) error
}

// Formats lists the accepted --format values.
var Formats = []string{"json", "terminal", "markdown", "html", "sarif"}

// ForName returns the formatter for a --format value.
func ForName(name string, noColor bool) (Formatter, error) {
	switch strings.ToLower(name) {
	case "", "json":
		return &JSONFormatter{}, nil
	case "terminal":
		return &TerminalFormatter{NoColor: noColor}, nil
	case "markdown", "md":
		return &MarkdownFormatter{}, nil
	case "html":
		return &HTMLFormatter{}, nil
	case "sarif":
		return &SARIFFormatter{}, nil
	}
	return nil, fmt.Errorf("unknown format %q (valid: %s)", name, strings.Join(Formats, ", "))
}

// ErrOutputWrite is matched by errors.Is for any failure to create or
// write the report destination.
var ErrOutputWrite = errors.New("cannot write output")

// WriteError reports a failed write to the report destination.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %s: %v", ErrOutputWrite, e.Path, e.Err)
}

func (e *WriteError) Unwrap() []error { return []error{ErrOutputWrite, e.Err} }

// Write renders report with f into memory and then writes it to path, or to
// stdout when path is empty or "-". A rendering failure leaves no file
// behind.
func Write(path string, stdout io.Writer, f Formatter, report *scanner.Report) error {
	var buf bytes.Buffer
	if err := f.Format(&buf, report); err != nil {
		return fmt.Errorf("rendering report: %w", err)
	}
	if path == "" || path == "-" {
		if _, err := stdout.Write(buf.Bytes()); err != nil {
			return &WriteError{Path: "stdout", Err: err}
		}
		return nil
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
