package commands

import (
	"github.com/spf13/cobra"
)

var (
	flagFormat           string
	flagRules            string
	flagNoColor          bool
	flagDisableDetectors []string
	flagLogLevel         string
)

var rootCmd = &cobra.Command{
	Use:   "cppdeps <directory>",
	Short: "Detect third-party C/C++ dependencies in a source tree",
	Long: `cppdeps walks a source tree and reports the third-party C/C++ dependencies it
references: CMake find_package and FetchContent calls, Conan and vcpkg
manifests, #include directives, and version #defines.

The report is written as JSON to stdout, or to the file named by -o.`,
	Args:         cobra.ExactArgs(1),
	RunE:         runScan,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "", "Output format (json, terminal, markdown, html, sarif) (default json)")
	rootCmd.PersistentFlags().StringVar(&flagRules, "rules", "", "Additional detector rules directory")
	rootCmd.PersistentFlags().BoolVar(&flagNoColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().StringSliceVar(&flagDisableDetectors, "disable-detector", nil, "Detector IDs to disable (comma-separated, repeatable)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "warn", "Log level for stderr diagnostics (debug, info, warn, error)")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
