package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/garagon/cppdeps/internal/scanner"
	"github.com/garagon/cppdeps/internal/types"
)

// MarkdownFormatter outputs the report as GitHub-flavored markdown,
// suited to job summaries and PR comments.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, report *scanner.Report) error {
	if len(report.Detections) == 0 {
		f.printClean(w, report)
	} else {
		f.printSummary(w, report)
		f.printDependencies(w, report.Dependencies)
		f.printDetections(w, report.Detections)
	}
	if len(report.Warnings) > 0 {
		f.printWarnings(w, report.Warnings)
	}
	f.printFooter(w)
	return nil
}

func (f *MarkdownFormatter) printClean(w io.Writer, report *scanner.Report) {
	fmt.Fprintf(w, "### :white_check_mark: C++ Dependency Scan: no dependencies detected\n\n")
	fmt.Fprintf(w, "> %d files scanned · %d detectors · %.2fs\n\n",
		report.FilesScanned, len(report.Detectors), report.Duration.Seconds())
}

func (f *MarkdownFormatter) printSummary(w io.Writer, report *scanner.Report) {
	fmt.Fprintf(w, "### :package: C++ Dependency Scan: %d dependencies\n\n", len(report.Dependencies))
	fmt.Fprintf(w, "> **Root:** %s · %d files · %d detectors · %.2fs\n\n",
		codeSpan(report.Root), report.FilesScanned, len(report.Detectors), report.Duration.Seconds())

	counts := map[types.SourceKind]int{}
	for _, d := range report.Detections {
		counts[d.SourceKind]++
	}
	var badges []string
	for _, k := range types.AllKinds {
		if c := counts[k]; c > 0 {
			badges = append(badges, fmt.Sprintf("**%d** `%s`", c, k))
		}
	}
	fmt.Fprintf(w, "%s\n\n", strings.Join(badges, " · "))
}

func (f *MarkdownFormatter) printDependencies(w io.Writer, deps []types.Dependency) {
	if len(deps) == 0 {
		return
	}
	fmt.Fprintf(w, "| Dependency | Version | Sources | Uses | Files |\n")
	fmt.Fprintf(w, "|------------|---------|---------|------|-------|\n")
	for _, d := range deps {
		name := codeSpan(d.Name)
		if d.New {
			name += " :new:"
		}
		version := d.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(w, "| %s | %s | %s | %d | %d |\n",
			name, escapeMarkdown(version), kindList(d.Kinds), d.Occurrences, len(d.Files))
	}
	fmt.Fprintf(w, "\n")
}

func (f *MarkdownFormatter) printDetections(w io.Writer, detections []types.Detection) {
	fmt.Fprintf(w, "<details>\n")
	fmt.Fprintf(w, "<summary><strong>Detections (%d)</strong></summary>\n\n", len(detections))
	fmt.Fprintf(w, "| File | Line | Kind | Name | Match |\n")
	fmt.Fprintf(w, "|------|------|------|------|-------|\n")
	for _, group := range groupByFile(detections) {
		for _, d := range group.detections {
			name := escapeMarkdown(d.Name)
			if d.Version != "" {
				name += " " + escapeMarkdown(d.Version)
			}
			if d.Standard {
				name += " *(std)*"
			}
			line := ""
			if d.LineNumber > 0 {
				line = fmt.Sprintf("L%d", d.LineNumber)
			}
			fmt.Fprintf(w, "| %s | %s | `%s` | %s | %s |\n",
				codeSpan(group.filePath), line, d.SourceKind, name, codeSpan(truncate(d.RawMatch, 60)))
		}
	}
	fmt.Fprintf(w, "\n</details>\n\n")
}

func (f *MarkdownFormatter) printWarnings(w io.Writer, warnings []types.Warning) {
	fmt.Fprintf(w, "**Skipped files (%d):**\n\n", len(warnings))
	for _, wr := range warnings {
		fmt.Fprintf(w, "- %s (%s): %s\n", codeSpan(wr.FilePath), wr.Kind, escapeMarkdown(wr.Message))
	}
	fmt.Fprintf(w, "\n")
}

func (f *MarkdownFormatter) printFooter(w io.Writer) {
	fmt.Fprintf(w, "---\n")
	fmt.Fprintf(w, "*Scanned by %s %s*\n", ToolName, ToolVersion)
}

// escapeMarkdown makes s render as literal text in a table cell: inline
// markup is backslash-escaped and HTML metacharacters become entities.
func escapeMarkdown(s string) string {
	var b strings.Builder
	for _, r := range oneLine(s) {
		switch r {
		case '<':
			b.WriteString("&lt;")
		case '>':
			b.WriteString("&gt;")
		case '&':
			b.WriteString("&amp;")
		case '\\', '`', '*', '_', '[', ']', '(', ')', '!', '~', '#', '|':
			b.WriteByte('\\')
			b.WriteRune(r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// codeSpan wraps s in a backtick fence longer than any backtick run inside
// it, so s cannot close the span early. Pipes are escaped for table cells.
func codeSpan(s string) string {
	s = strings.ReplaceAll(oneLine(s), "|", "\\|")
	longest, run := 0, 0
	for _, r := range s {
		if r == '`' {
			run++
			longest = max(longest, run)
		} else {
			run = 0
		}
	}
	fence := strings.Repeat("`", longest+1)
	if longest > 0 || strings.HasPrefix(s, " ") || strings.HasSuffix(s, " ") {
		return fence + " " + s + " " + fence
	}
	return fence + s + fence
}

func oneLine(s string) string {
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
}
