package commands

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/garagon/cppdeps/internal/output"
)

var validateCmd = &cobra.Command{
	Use:   "validate <report.json>",
	Short: "Check a JSON report against the report schema",
	Args:  cobra.ExactArgs(1),
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	path := args[0]
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading report: %w", err)
	}

	problems, err := output.ValidateReport(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	w := cmd.OutOrStdout()
	if len(problems) == 0 {
		fmt.Fprintf(w, "%s %s is a valid report\n", paint("✔", color.FgGreen), path)
		return nil
	}
	fmt.Fprintf(w, "%s %s does not match the report schema:\n", paint("✖", color.FgRed), path)
	for _, p := range problems {
		fmt.Fprintf(w, "  - %s\n", p)
	}
	return fmt.Errorf("%s: %d schema violations", path, len(problems))
}
