package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/garagon/cppdeps/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Initialize cppdeps configuration files",
	Long:  `Scaffolds .cppdeps.yml and .cppdepsignore in the given directory (default: current directory). Existing files are left untouched.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	files := []struct {
		path    string
		content string
	}{
		{path: filepath.Join(dir, config.FileNames[0]), content: config.Template},
		{path: filepath.Join(dir, ".cppdepsignore"), content: ignoreTemplate},
	}

	w := cmd.OutOrStdout()
	for _, f := range files {
		if _, err := os.Stat(f.path); err == nil {
			fmt.Fprintf(w, "  skip %s (already exists)\n", f.path)
			continue
		}
		if err := os.WriteFile(f.path, []byte(f.content), 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f.path, err)
		}
		fmt.Fprintf(w, "  create %s\n", f.path)
	}
	return nil
}

const ignoreTemplate = `# cppdeps ignore patterns
# Paths matching these globs are not scanned. "dir/**" skips a whole tree.

# Build trees
build/**
out/**
cmake-build-*/**
_deps/**

# Package manager caches
vcpkg_installed/**
.conan/**

# IDE and editor
.idea/**
.vscode/**
*.swp

# Generated
*.pb.h
*.pb.cc
`
