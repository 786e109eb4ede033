package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/garagon/cppdeps"
	"github.com/garagon/cppdeps/internal/config"
	"github.com/garagon/cppdeps/internal/logging"
	"github.com/garagon/cppdeps/internal/output"
)

var (
	flagOutput          string
	flagWorkers         int
	flagBaseline        string
	flagExcludeStandard bool
	flagProgress        bool
	flagVerbose         bool
	flagMaxFileSize     string
)

func init() {
	rootCmd.Flags().StringVarP(&flagOutput, "output", "o", "", "Output file path (default: stdout)")
	rootCmd.Flags().IntVar(&flagWorkers, "workers", 1, "Number of files analyzed in parallel")
	rootCmd.Flags().StringVar(&flagBaseline, "baseline", "", "Baseline file; dependencies missing from it are marked new")
	rootCmd.Flags().BoolVar(&flagExcludeStandard, "exclude-standard", false, "Drop C/C++ standard library and system headers")
	rootCmd.Flags().BoolVar(&flagProgress, "progress", false, "Show a progress spinner on stderr")
	rootCmd.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "List every detection in terminal output")
	rootCmd.Flags().StringVar(&flagMaxFileSize, "max-file-size", "", "Skip files larger than this (e.g. 8MB, 512KiB) (default 4 MiB)")
}

// scanSettings are the flag values after merging the project config.
type scanSettings struct {
	format          string
	rules           string
	disabled        []string
	ignore          []string
	workers         int
	baseline        string
	excludeStandard bool
	maxFileSize     int64
}

func runScan(cmd *cobra.Command, args []string) error {
	root := args[0]

	logger, err := logging.New(cmd.ErrOrStderr(), flagLogLevel)
	if err != nil {
		return err
	}

	settings, err := resolveSettings(cmd, loadScanConfig(root, logger))
	if err != nil {
		return err
	}

	noColor := flagNoColor || os.Getenv("NO_COLOR") != ""
	formatter, err := output.ForName(settings.format, noColor)
	if err != nil {
		return err
	}
	if tf, ok := formatter.(*output.TerminalFormatter); ok {
		tf.Verbose = flagVerbose
	}

	cppdeps.Version = Version
	output.ToolVersion = Version

	opts := []cppdeps.Option{
		cppdeps.WithLogger(logger),
		cppdeps.WithWorkers(settings.workers),
		cppdeps.WithIgnorePatterns(settings.ignore),
		cppdeps.WithDisabledDetectors(settings.disabled...),
		cppdeps.WithExcludeStandard(settings.excludeStandard),
		cppdeps.WithMaxFileSize(settings.maxFileSize),
		cppdeps.WithCustomRules(settings.rules),
		cppdeps.WithBaseline(settings.baseline),
	}

	var spinner *output.Spinner
	if flagProgress {
		spinner = output.NewSpinner(cmd.ErrOrStderr())
		spinner.Start("Discovering files")
		opts = append(opts, cppdeps.WithProgress(spinner.Progress))
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	report, err := cppdeps.Scan(ctx, root, opts...)
	if spinner != nil {
		spinner.Stop()
	}
	if err != nil {
		return fmt.Errorf("scan failed: %w", err)
	}

	logger.Info("scan complete",
		"files", report.FilesScanned,
		"detections", len(report.Detections),
		"dependencies", len(report.Dependencies),
		"warnings", len(report.Warnings),
		"elapsed", report.Duration)

	return output.Write(flagOutput, cmd.OutOrStdout(), formatter, report)
}

// loadScanConfig reads the project config from the scan root. Config
// problems are logged and an empty config is used.
func loadScanConfig(root string, logger *log.Logger) config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		logger.Warn("ignoring config", "err", err)
		return config.Config{}
	}
	if cfg.Path != "" {
		logger.Debug("loaded config", "path", cfg.Path)
	}
	return cfg
}

// resolveSettings merges cfg under the command-line flags. A flag wins only
// when it was set explicitly. Disabled detectors are the union of both.
func resolveSettings(cmd *cobra.Command, cfg config.Config) (scanSettings, error) {
	flags := cmd.Flags()
	s := scanSettings{
		format:          flagFormat,
		rules:           flagRules,
		ignore:          cfg.Ignore,
		workers:         flagWorkers,
		baseline:        flagBaseline,
		excludeStandard: flagExcludeStandard,
	}

	if !flags.Changed("format") && cfg.Format != "" {
		s.format = cfg.Format
	}
	if !flags.Changed("rules") && cfg.Rules != "" {
		s.rules = cfg.ResolvePath(cfg.Rules)
	}
	if !flags.Changed("workers") && cfg.Workers > 0 {
		s.workers = cfg.Workers
	}
	if !flags.Changed("baseline") && cfg.Baseline != "" {
		s.baseline = cfg.ResolvePath(cfg.Baseline)
	}
	if !flags.Changed("exclude-standard") {
		s.excludeStandard = s.excludeStandard || cfg.ExcludeStandard
	}
	if s.workers < 1 {
		return s, fmt.Errorf("invalid --workers %d: must be at least 1", s.workers)
	}

	for _, id := range append(cfg.DisabledDetectors, flagDisableDetectors...) {
		if id = strings.TrimSpace(id); id != "" {
			s.disabled = append(s.disabled, id)
		}
	}

	if flags.Changed("max-file-size") {
		n, err := humanize.ParseBytes(flagMaxFileSize)
		if err != nil {
			return s, fmt.Errorf("invalid --max-file-size: %w", err)
		}
		s.maxFileSize = int64(n)
	} else {
		n, err := cfg.MaxFileSizeBytes()
		if err != nil {
			return s, err
		}
		s.maxFileSize = n
	}
	return s, nil
}
