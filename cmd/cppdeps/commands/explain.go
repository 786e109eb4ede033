package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/garagon/cppdeps"
)

var explainCmd = &cobra.Command{
	Use:   "explain <DETECTOR_ID>",
	Short: "Show detailed information about a detector",
	Args:  cobra.ExactArgs(1),
	RunE:  runExplain,
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(cmd *cobra.Command, args []string) error {
	info, err := cppdeps.ExplainDetector(args[0], cppdeps.WithCustomRules(flagRules))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()

	if strings.ToLower(flagFormat) == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}

	bold := []color.Attribute{color.Bold}
	dim := []color.Attribute{color.Faint}

	fmt.Fprintf(w, "\n%s %s\n", paint("Detector:", dim...), paint(info.ID, bold...))
	fmt.Fprintf(w, "%s %s\n", paint("Name:", dim...), info.Name)
	fmt.Fprintf(w, "%s %s\n", paint("Kind:", dim...), paint(info.Kind, color.FgCyan))
	fmt.Fprintf(w, "%s %s\n", paint("Files:", dim...), strings.Join(info.Targets, ", "))

	if info.Description != "" {
		fmt.Fprintf(w, "\n%s\n%s\n", paint("Description:", bold...), info.Description)
	}

	if len(info.Patterns) > 0 {
		fmt.Fprintf(w, "\n%s\n", paint("Patterns:", bold...))
		for i, p := range info.Patterns {
			fmt.Fprintf(w, "  %d. %s\n", i+1, paint(p, dim...))
		}
	}

	if len(info.TruePositives) > 0 {
		fmt.Fprintf(w, "\n%s\n", paint("Detected:", bold...))
		for _, ex := range info.TruePositives {
			fmt.Fprintf(w, "  %s %s\n", paint("✔", color.FgGreen), oneLine(ex))
		}
	}

	if len(info.FalsePositives) > 0 {
		fmt.Fprintf(w, "\n%s\n", paint("Not detected:", bold...))
		for _, ex := range info.FalsePositives {
			fmt.Fprintf(w, "  %s %s\n", paint("✖", color.FgRed), oneLine(ex))
		}
	}

	fmt.Fprintln(w)
	return nil
}

func paint(text string, attrs ...color.Attribute) string {
	c := color.New(attrs...)
	if flagNoColor {
		c.DisableColor()
	}
	return c.Sprint(text)
}

// oneLine shows multi-line examples with visible line breaks.
func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", `\n`)
}
