package output

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/garagon/cppdeps/internal/scanner"
	"github.com/garagon/cppdeps/internal/types"
)

const (
	barWidth     = 32
	lineWidth    = 72
	previewWidth = 48
)

// TerminalFormatter outputs a human-readable summary: a dependency table,
// per-kind counts, and skipped files.
type TerminalFormatter struct {
	NoColor bool
	Verbose bool // also list every detection
}

func (f *TerminalFormatter) paint(text string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	if f.NoColor {
		c.DisableColor()
	}
	return c.Sprint(text)
}

func (f *TerminalFormatter) Format(w io.Writer, report *scanner.Report) error {
	f.printHeader(w, report)

	if len(report.Detections) == 0 {
		fmt.Fprintf(w, "\n  %s No dependencies detected.\n", f.paint("✔", color.FgCyan))
	} else {
		f.printDependencies(w, report.Dependencies)
		f.printKinds(w, report.Detections)
		if f.Verbose {
			f.printDetections(w, report.Detections)
		}
	}
	if len(report.Warnings) > 0 {
		f.printWarnings(w, report.Warnings)
	}

	f.printFooter(w, report)
	return nil
}

func (f *TerminalFormatter) separator() string {
	return strings.Repeat("─", lineWidth)
}

func (f *TerminalFormatter) sectionHeader(title string) string {
	prefix := "── " + title + " "
	remaining := max(lineWidth-utf8.RuneCountInString(prefix), 0)
	return f.paint(prefix+strings.Repeat("─", remaining), color.Bold)
}

func (f *TerminalFormatter) printHeader(w io.Writer, report *scanner.Report) {
	sep := f.paint(f.separator(), color.Faint)
	fmt.Fprintf(w, "\n%s\n", sep)
	fmt.Fprintf(w, "  %s\n", f.paint("CPPDEPS SCAN RESULTS", color.Bold))

	var parts []string
	if report.Root != "" {
		parts = append(parts, "Root: "+report.Root)
	}
	parts = append(parts, fmt.Sprintf("%d files", report.FilesScanned))
	parts = append(parts, fmt.Sprintf("%d detectors", len(report.Detectors)))
	if report.Duration > 0 {
		parts = append(parts, fmt.Sprintf("%.2fs", report.Duration.Seconds()))
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, "  ·  "))
	fmt.Fprintf(w, "%s\n", sep)
}

func (f *TerminalFormatter) newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.Style().Options.SeparateColumns = false
	tbl.Style().Options.SeparateRows = false
	return tbl
}

func (f *TerminalFormatter) printDependencies(w io.Writer, deps []types.Dependency) {
	fmt.Fprintf(w, "\n%s\n\n", f.sectionHeader(fmt.Sprintf("DEPENDENCIES (%d)", len(deps))))
	if len(deps) == 0 {
		fmt.Fprintf(w, "  %s\n", f.paint("only standard or project-local headers found", color.Faint))
		return
	}

	tbl := f.newTable()
	tbl.AppendHeader(table.Row{"NAME", "VERSION", "SOURCES", "USES", "FILES"})
	for _, d := range deps {
		name := f.paint(d.Name, color.Bold)
		if d.New {
			name += " " + f.paint("new", color.FgGreen)
		}
		version := d.Version
		if version == "" {
			version = f.paint("-", color.Faint)
		}
		tbl.AppendRow(table.Row{name, version, kindList(d.Kinds), d.Occurrences, len(d.Files)})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d", len(deps))})
	fmt.Fprintln(w, indent(tbl.Render(), "  "))
}

func (f *TerminalFormatter) printKinds(w io.Writer, detections []types.Detection) {
	counts := map[types.SourceKind]int{}
	most := 0
	for _, d := range detections {
		counts[d.SourceKind]++
		most = max(most, counts[d.SourceKind])
	}

	fmt.Fprintf(w, "\n%s\n\n", f.sectionHeader("DETECTIONS BY KIND"))
	for _, k := range types.AllKinds {
		c := counts[k]
		if c == 0 {
			continue
		}
		fmt.Fprintf(w, "  %-20s %s %5d\n", k, f.renderBar(c, most, barWidth), c)
	}
	fmt.Fprintf(w, "\n  %s\n", f.paint(fmt.Sprintf("%d detections", len(detections)), color.Bold))
}

func (f *TerminalFormatter) printDetections(w io.Writer, detections []types.Detection) {
	fmt.Fprintf(w, "\n%s\n", f.sectionHeader("DETECTIONS"))
	for _, group := range groupByFile(detections) {
		fmt.Fprintf(w, "\n  %s\n", f.paint(group.filePath, color.Bold, color.Underline))
		for _, d := range group.detections {
			loc := fmt.Sprintf("L%d", d.LineNumber)
			label := d.Name
			if d.Version != "" {
				label += "@" + d.Version
			}
			var tags []string
			if d.Standard {
				tags = append(tags, "std")
			}
			if d.Vendored {
				tags = append(tags, "vendored")
			}
			if len(tags) > 0 {
				label += " " + f.paint("["+strings.Join(tags, ",")+"]", color.Faint)
			}
			fmt.Fprintf(w, "    %-6s %-20s %s\n", f.paint(loc, color.FgCyan), d.SourceKind, label)
			if d.RawMatch != "" {
				fmt.Fprintf(w, "           %s %s\n", f.paint("│", color.Faint), f.paint(truncate(d.RawMatch, previewWidth), color.Faint))
			}
		}
	}
}

func (f *TerminalFormatter) printWarnings(w io.Writer, warnings []types.Warning) {
	fmt.Fprintf(w, "\n%s\n\n", f.sectionHeader(fmt.Sprintf("SKIPPED (%d)", len(warnings))))
	for _, wr := range warnings {
		fmt.Fprintf(w, "  %s %s %s %s\n",
			f.paint("!", color.FgYellow, color.Bold),
			wr.FilePath,
			f.paint(string(wr.Kind), color.FgYellow),
			f.paint(truncate(wr.Message, previewWidth), color.Faint),
		)
	}
}

func (f *TerminalFormatter) printFooter(w io.Writer, report *scanner.Report) {
	sep := f.paint(f.separator(), color.Faint)
	fmt.Fprintf(w, "\n%s\n", sep)
	parts := []string{
		fmt.Sprintf("%d files scanned", report.FilesScanned),
		fmt.Sprintf("%d dependencies", len(report.Dependencies)),
		fmt.Sprintf("%d detections", len(report.Detections)),
	}
	if len(report.Warnings) > 0 {
		parts = append(parts, fmt.Sprintf("%d skipped", len(report.Warnings)))
	}
	fmt.Fprintf(w, "  %s\n", strings.Join(parts, " · "))
	fmt.Fprintf(w, "%s\n", sep)
}

func (f *TerminalFormatter) renderBar(count, most, width int) string {
	filled := count * width / most
	if filled == 0 && count > 0 {
		filled = 1
	}
	// Always keep at least 1 empty block so bar boundary is visible
	if filled >= width {
		filled = width - 1
	}
	return f.paint(strings.Repeat("█", filled), color.FgBlue) +
		f.paint(strings.Repeat("░", width-filled), color.Faint)
}

func kindList(kinds []types.SourceKind) string {
	s := make([]string, len(kinds))
	for i, k := range kinds {
		s[i] = string(k)
	}
	return strings.Join(s, ", ")
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = prefix + l
	}
	return strings.Join(lines, "\n")
}

func truncate(s string, maxLen int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.ReplaceAll(s, "\t", " ")
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

type fileGroup struct {
	filePath   string
	detections []types.Detection
}

// groupByFile groups detections by file, keeping first-seen file order.
func groupByFile(detections []types.Detection) []fileGroup {
	order := make(map[string]int)
	grouped := make(map[string][]types.Detection)
	for _, d := range detections {
		if _, ok := order[d.FilePath]; !ok {
			order[d.FilePath] = len(order)
		}
		grouped[d.FilePath] = append(grouped[d.FilePath], d)
	}
	result := make([]fileGroup, 0, len(grouped))
	for path, ds := range grouped {
		result = append(result, fileGroup{filePath: path, detections: ds})
	}
	sort.Slice(result, func(i, j int) bool {
		return order[result[i].filePath] < order[result[j].filePath]
	})
	return result
}
