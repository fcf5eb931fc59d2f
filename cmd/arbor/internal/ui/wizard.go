// Package ui is the interactive project-creation wizard.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Step is the current wizard screen.
type Step int

const (
	StepName Step = iota
	StepTemplate
	StepSummary
	StepDone
)

// Template describes one scaffold choice.
type Template struct {
	Name        string
	Description string
}

// Result is what the wizard collected. Accepted is false when the user
// quit early.
type Result struct {
	Name     string
	Template string
	Accepted bool
}

// KeyMap defines the wizard's keyboard shortcuts.
type KeyMap struct {
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding
	Back  key.Binding
	Quit  key.Binding
}

var DefaultKeyMap = KeyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "confirm"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("ctrl+c", "q"),
		key.WithHelp("q", "quit"),
	),
}

// Model is the wizard state.
type Model struct {
	step      Step
	keys      KeyMap
	nameInput textinput.Model
	templates []Template
	selected  int
	errMsg    string
	result    Result
}

// NewModel creates the wizard, optionally pre-filled with a project
// name from the command line.
func NewModel(projectName string, templates []Template) Model {
	ti := textinput.New()
	ti.Placeholder = "my-arbor-app"
	ti.Focus()
	ti.CharLimit = 50
	ti.Width = 40
	if projectName != "" {
		ti.SetValue(projectName)
	}
	return Model{
		keys:      DefaultKeyMap,
		nameInput: ti,
		templates: templates,
	}
}

// Result returns what the finished wizard collected.
func (m Model) Result() Result { return m.result }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}

	// The name field wants plain "q" keystrokes, so quit-on-q only
	// applies outside it.
	if key.Matches(keyMsg, m.keys.Quit) && (m.step != StepName || keyMsg.String() == "ctrl+c") {
		m.result.Accepted = false
		m.step = StepDone
		return m, tea.Quit
	}

	switch m.step {
	case StepName:
		return m.updateName(keyMsg)
	case StepTemplate:
		return m.updateTemplate(keyMsg)
	case StepSummary:
		return m.updateSummary(keyMsg)
	}
	return m, nil
}

func (m Model) updateName(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Enter) {
		name := strings.TrimSpace(m.nameInput.Value())
		if err := ValidateProjectName(name); err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.errMsg = ""
		m.result.Name = name
		m.step = StepTemplate
		return m, nil
	}
	var cmd tea.Cmd
	m.nameInput, cmd = m.nameInput.Update(msg)
	return m, cmd
}

func (m Model) updateTemplate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.templates)-1 {
			m.selected++
		}
	case key.Matches(msg, m.keys.Back):
		m.step = StepName
	case key.Matches(msg, m.keys.Enter):
		m.result.Template = m.templates[m.selected].Name
		m.step = StepSummary
	}
	return m, nil
}

func (m Model) updateSummary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Back):
		m.step = StepTemplate
	case key.Matches(msg, m.keys.Enter):
		m.result.Accepted = true
		m.step = StepDone
		return m, tea.Quit
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("🌳 Create a new arbor project"))
	b.WriteString("\n\n")

	switch m.step {
	case StepName:
		b.WriteString(subtitleStyle.Render("Project name"))
		b.WriteString("\n")
		b.WriteString(m.nameInput.View())
		if m.errMsg != "" {
			b.WriteString("\n" + errorStyle.Render(m.errMsg))
		}
		b.WriteString("\n\n" + helpStyle.Render("enter continue · ctrl+c quit"))

	case StepTemplate:
		b.WriteString(subtitleStyle.Render("Template"))
		b.WriteString("\n")
		for i, t := range m.templates {
			line := fmt.Sprintf("  %s — %s", t.Name, t.Description)
			if i == m.selected {
				line = selectedStyle.Render("▸ " + t.Name + " — " + t.Description)
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n" + helpStyle.Render("↑/↓ select · enter confirm · esc back · q quit"))

	case StepSummary:
		b.WriteString(subtitleStyle.Render("Summary"))
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  Name:     %s\n", m.result.Name))
		b.WriteString(fmt.Sprintf("  Template: %s\n", m.result.Template))
		b.WriteString("\n" + helpStyle.Render("enter create · esc back · q quit"))

	case StepDone:
		if m.result.Accepted {
			b.WriteString(successStyle.Render("Creating " + m.result.Name + "..."))
		} else {
			b.WriteString(mutedStyle.Render("Cancelled."))
		}
	}
	return baseStyle.Render(b.String())
}

// ValidateProjectName rejects names that cannot be a directory or a
// page title.
func ValidateProjectName(name string) error {
	if name == "" {
		return fmt.Errorf("project name is required")
	}
	if strings.ContainsAny(name, "/\\:*?\"<>| ") {
		return fmt.Errorf("project name must not contain spaces or path characters")
	}
	return nil
}

// Style definitions
var (
	primaryColor = lipgloss.Color("#16a34a") // Arbor green
	mutedColor   = lipgloss.Color("#94a3b8")

	baseStyle = lipgloss.NewStyle().
			Padding(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748b"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(primaryColor).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedColor)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#ef4444")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10b981")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(mutedColor)
)
