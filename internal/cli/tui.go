package cli

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/vaultgraph/pkg/view"
)

// =============================================================================
// monitorModel - Live view statistics
// =============================================================================

// statsTickMsg triggers a stats refresh.
type statsTickMsg time.Time

// viewErrMsg carries a terminal tick-loop error into the TUI.
type viewErrMsg struct {
	err error
}

// monitorModel is the bubbletea model showing live view statistics while the
// tick loop runs in the background.
type monitorModel struct {
	view  *view.View
	vault string
	stats view.Stats
	err   error
}

func newMonitorModel(v *view.View, vault string) monitorModel {
	return monitorModel{view: v, vault: vault, stats: v.Stats()}
}

func statsTick() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return statsTickMsg(t)
	})
}

func (m monitorModel) Init() tea.Cmd {
	return statsTick()
}

func (m monitorModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case statsTickMsg:
		m.stats = m.view.Stats()
		return m, statsTick()
	case viewErrMsg:
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m monitorModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("vaultgraph"))
	b.WriteString(StyleDim.Render("  " + m.vault))
	b.WriteString("\n\n")

	s := m.stats
	rows := [][]string{
		{"Notes", fmt.Sprintf("%d", s.Nodes)},
		{"Links", fmt.Sprintf("%d", s.Links)},
		{"Ticks", fmt.Sprintf("%d", s.Ticks)},
		{"Movement", fmt.Sprintf("%.3f", s.Movement)},
		{"Node capacity", fmt.Sprintf("%d", s.NodeCapacity)},
		{"Link capacity", fmt.Sprintf("%d", s.LinkCapacity)},
		{"Compactions", fmt.Sprintf("%d", s.Compactions)},
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return lipgloss.NewStyle().Foreground(colorGray).PaddingRight(2)
			}
			return StyleNumber
		})

	b.WriteString(t.Render())
	b.WriteString("\n")

	if s.Wedged {
		b.WriteString(styleIconError.Render(iconError) + " render device wedged, view is frozen\n")
	}
	b.WriteString("\n")
	b.WriteString(StyleDim.Render("  q quit"))
	b.WriteString("\n")

	return b.String()
}
