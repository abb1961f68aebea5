package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/dronemesh/pkg/errors"
)

// Prompt styles
var (
	promptLabelStyle  = lipgloss.NewStyle().Foreground(colorGray)
	promptActiveStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	promptErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

// =============================================================================
// MeshPromptModel - Interactive N and P input
// =============================================================================

type promptField struct {
	label    string
	value    string
	validate func(int) error
}

// MeshPromptModel is the bubbletea model that asks for the number of drones
// and the removal percentage. Fields start out with the configured values.
type MeshPromptModel struct {
	fields    []promptField
	focus     int
	err       error
	Done      bool
	Cancelled bool
}

// NewMeshPromptModel creates a prompt pre-filled with nodes and percentage.
func NewMeshPromptModel(nodes, percentage int) MeshPromptModel {
	return MeshPromptModel{
		fields: []promptField{
			{label: "Enter number of drones", value: strconv.Itoa(nodes), validate: errors.ValidateNodeCount},
			{label: "Enter the percentage of edges to be removed", value: strconv.Itoa(percentage), validate: errors.ValidatePercentage},
		},
	}
}

// Values returns the entered node count and percentage.
func (m MeshPromptModel) Values() (nodes, percentage int) {
	nodes, _ = strconv.Atoi(m.fields[0].value)
	percentage, _ = strconv.Atoi(m.fields[1].value)
	return nodes, percentage
}

func (m MeshPromptModel) Init() tea.Cmd {
	return nil
}

func (m MeshPromptModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	f := &m.fields[m.focus]
	switch key.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		m.Cancelled = true
		return m, tea.Quit
	case tea.KeyBackspace:
		if len(f.value) > 0 {
			f.value = f.value[:len(f.value)-1]
		}
		m.err = nil
	case tea.KeyUp, tea.KeyShiftTab:
		if m.focus > 0 {
			m.focus--
		}
	case tea.KeyDown, tea.KeyTab:
		if m.focus < len(m.fields)-1 {
			m.focus++
		}
	case tea.KeyEnter:
		if err := m.check(f); err != nil {
			m.err = err
			return m, nil
		}
		if m.focus < len(m.fields)-1 {
			m.focus++
			return m, nil
		}
		for i := range m.fields {
			if err := m.check(&m.fields[i]); err != nil {
				m.focus, m.err = i, err
				return m, nil
			}
		}
		m.Done = true
		return m, tea.Quit
	case tea.KeyRunes:
		for _, r := range key.Runes {
			if r >= '0' && r <= '9' {
				f.value += string(r)
			}
		}
		m.err = nil
	}
	return m, nil
}

func (m MeshPromptModel) check(f *promptField) error {
	v, err := strconv.Atoi(f.value)
	if err != nil {
		return fmt.Errorf("%q is not a number", f.value)
	}
	return f.validate(v)
}

func (m MeshPromptModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Drone Mesh"))
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("tab/↑/↓ move  ⏎ confirm  esc quit"))
	b.WriteString("\n\n")

	for i, f := range m.fields {
		cursor := "  "
		style := promptLabelStyle
		if i == m.focus {
			cursor = "▸ "
			style = promptActiveStyle
		}
		b.WriteString(cursor + style.Render(f.label+": ") + StyleValue.Render(f.value))
		if i == m.focus {
			b.WriteString(StyleHighlight.Render("█"))
		}
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString("\n" + promptErrorStyle.Render(errors.UserMessage(m.err)) + "\n")
	}
	return b.String()
}

// promptMesh runs the interactive prompt and returns the chosen values.
func promptMesh(ctx context.Context, nodes, percentage int) (int, int, error) {
	p := tea.NewProgram(NewMeshPromptModel(nodes, percentage), tea.WithContext(ctx))
	final, err := p.Run()
	if err != nil {
		return 0, 0, err
	}
	m := final.(MeshPromptModel)
	if m.Cancelled || !m.Done {
		return 0, 0, context.Canceled
	}
	n, pct := m.Values()
	return n, pct, nil
}
