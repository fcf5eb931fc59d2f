package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/arborui/arbor/pkg/renderer/html"
)

func newBuildCommand() *cobra.Command {
	var output string
	var noCache bool

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build the project to static HTML",
		Long: `Compiles every component file, mounts the entry component, and
writes the rendered page to the output directory.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuild(output, noCache)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output directory (default from arbor.yaml)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Skip the build cache")

	return cmd
}

func runBuild(output string, noCache bool) error {
	start := time.Now()
	log.Println("🌳 Building arbor project...")

	p, err := openProject(".")
	if err != nil {
		return err
	}
	defer p.close()

	if noCache && p.cache != nil {
		p.cache.Close()
		p.cache = nil
	}
	if output == "" {
		output = p.cfg.OutDir
	}

	res, err := p.build()
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}

	if err := os.MkdirAll(output, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	doc := html.Document(p.cfg.Name, res.Body, "")
	out := filepath.Join(output, "index.html")
	if err := os.WriteFile(out, []byte(doc), 0o644); err != nil {
		return err
	}

	suffix := ""
	if res.Cached {
		suffix = " (cached)"
	}
	log.Printf("✅ Built %d component file(s) → %s in %v%s", res.Sources, out, time.Since(start).Round(time.Millisecond), suffix)
	return nil
}
