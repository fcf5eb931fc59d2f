package main

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/arborui/arbor/cmd/arbor/internal/config"
	"github.com/arborui/arbor/cmd/arbor/internal/ui"
)

var templates = []ui.Template{
	{Name: "starter", Description: "a card with a badge, ready to edit"},
	{Name: "bare", Description: "an empty page"},
}

func newNewCommand() *cobra.Command {
	var template string
	var yes bool

	cmd := &cobra.Command{
		Use:   "new [name]",
		Short: "Create a new arbor project",
		Long: `Scaffolds a project directory with arbor.yaml and a starter
component. Runs an interactive wizard unless --yes is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			return runNew(name, template, yes)
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", "starter", "Project template")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the wizard and use flag values")

	return cmd
}

func runNew(name, template string, yes bool) error {
	if !yes {
		m := ui.NewModel(name, templates)
		final, err := tea.NewProgram(m).Run()
		if err != nil {
			return err
		}
		res := final.(ui.Model).Result()
		if !res.Accepted {
			return nil
		}
		name, template = res.Name, res.Template
	}

	if err := ui.ValidateProjectName(name); err != nil {
		return err
	}
	if !knownTemplate(template) {
		return fmt.Errorf("unknown template %q", template)
	}
	if err := scaffold(name, template); err != nil {
		return err
	}

	log.Printf("✅ Created %s/", name)
	log.Printf("   cd %s && arbor preview", name)
	return nil
}

func knownTemplate(name string) bool {
	for _, t := range templates {
		if t.Name == name {
			return true
		}
	}
	return false
}

// scaffold writes the project directory. It refuses to touch an
// existing one.
func scaffold(name, template string) error {
	if _, err := os.Stat(name); err == nil {
		return fmt.Errorf("directory %s already exists", name)
	}
	dir := filepath.Join(name, "components")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	cfg.Name = filepath.Base(name)
	if err := config.Save(cfg, name); err != nil {
		return err
	}

	entry := starterEntry
	if template == "bare" {
		entry = bareEntry
	}
	return os.WriteFile(filepath.Join(dir, cfg.Entry), []byte(entry), 0o644)
}

const starterEntry = `<node class="page">
	<Card title="Welcome">
		<node slot="body" class="intro">
			<text text="Edit components/app.arb and save to reload."/>
			<Badge label="live" tone="info"/>
		</node>
	</Card>
</node>
`

const bareEntry = `<node class="page">
	<text text="Hello from arbor."/>
</node>
`
