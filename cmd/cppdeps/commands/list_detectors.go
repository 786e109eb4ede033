package commands

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/garagon/cppdeps"
)

var flagKind string

var listDetectorsCmd = &cobra.Command{
	Use:   "list-detectors",
	Short: "List all available dependency detectors",
	Args:  cobra.NoArgs,
	RunE:  runListDetectors,
}

func init() {
	listDetectorsCmd.Flags().StringVar(&flagKind, "kind", "", "Filter by source kind (e.g. include, conan_requires)")
	rootCmd.AddCommand(listDetectorsCmd)
}

func runListDetectors(cmd *cobra.Command, args []string) error {
	opts := []cppdeps.Option{cppdeps.WithCustomRules(flagRules)}
	if flagKind != "" {
		kind, err := cppdeps.ParseSourceKind(flagKind)
		if err != nil {
			return fmt.Errorf("invalid --kind: %w", err)
		}
		opts = append(opts, cppdeps.WithKind(kind))
	}
	infos := cppdeps.ListDetectors(opts...)

	w := cmd.OutOrStdout()

	if strings.ToLower(flagFormat) == "json" {
		if infos == nil {
			infos = []cppdeps.DetectorInfo{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.DrawBorder = false
	tbl.AppendHeader(table.Row{"ID", "KIND", "NAME", "FILES"})
	for _, info := range infos {
		tbl.AppendRow(table.Row{info.ID, info.Kind, info.Name, strings.Join(info.Targets, " ")})
	}
	fmt.Fprintln(w, tbl.Render())
	fmt.Fprintf(w, "\n%d detectors available\n", len(infos))
	return nil
}
