package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arborui/arbor/pkg/arbor"
)

var (
	commit = "dev"
	date   = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "arbor",
		Short: "Arbor - declarative UI components for Go",
		Long: `Arbor compiles declarative component markup into live scene trees
kept in sync with reactive state. The CLI builds projects to static
HTML, serves a live-reloading preview, and scaffolds new projects.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", arbor.Version, commit, date),
	}

	rootCmd.AddCommand(newBuildCommand())
	rootCmd.AddCommand(newPreviewCommand())
	rootCmd.AddCommand(newNewCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
