package reporter

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Vijaysplendor/migaccel/internal/dispatch"
)

var spinnerChars = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// TUI styles
var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	failedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	runStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")) // cyan
	doneStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

type tickMsg time.Time

// TUIModel is the Bubbletea model for the live dispatch display.
type TUIModel struct {
	dispatchID string
	repoURL    string
	getSteps   func() []dispatch.StepResult
	cancelRun  func() // called on 'q' to cancel the dispatch context

	steps []dispatch.StepResult
	frame int
	done  bool
}

// NewTUIModel creates a new TUI model polling step state via getSteps.
func NewTUIModel(dispatchID, repoURL string, getSteps func() []dispatch.StepResult, cancelRun func()) TUIModel {
	return TUIModel{
		dispatchID: dispatchID,
		repoURL:    repoURL,
		getSteps:   getSteps,
		cancelRun:  cancelRun,
	}
}

// Init implements tea.Model.
func (m TUIModel) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(250*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update implements tea.Model.
func (m TUIModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.cancelRun != nil {
				m.cancelRun()
			}
			m.done = true
			return m, tea.Quit
		}

	case tickMsg:
		m.steps = m.getSteps()
		m.frame++
		return m, tickCmd()
	}

	return m, nil
}

// View implements tea.Model.
func (m TUIModel) View() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("migaccel dispatch %s — %s", m.dispatchID, m.repoURL)))
	b.WriteString("\n\n")

	spinner := spinnerChars[m.frame%len(spinnerChars)]
	for _, s := range m.steps {
		switch s.State {
		case dispatch.StateCompleted:
			b.WriteString(doneStyle.Render(fmt.Sprintf("  ✓ %-10s %s", s.Name, s.Duration)))
		case dispatch.StateFailed:
			b.WriteString(failedStyle.Render(fmt.Sprintf("  ✗ %-10s %s", s.Name, s.Error)))
		case dispatch.StateRunning:
			elapsed := time.Since(s.StartedAt).Truncate(time.Second)
			b.WriteString(runStyle.Render(fmt.Sprintf("  %s %-10s %s", spinner, s.Name, elapsed)))
		case dispatch.StateSkipped:
			b.WriteString(dimStyle.Render(fmt.Sprintf("  - %-10s skipped", s.Name)))
		default:
			b.WriteString(dimStyle.Render(fmt.Sprintf("  . %-10s", s.Name)))
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("q: abort dispatch"))
	b.WriteString("\n")

	return b.String()
}
