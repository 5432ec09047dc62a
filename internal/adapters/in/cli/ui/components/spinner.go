package components

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/bnema/gatekeeper/internal/adapters/in/cli/ui/styles"
)

type doneMsg struct{ err error }

type spinnerModel struct {
	spinner spinner.Model
	message string
	err     error
	done    bool
}

func newSpinnerModel(message string) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.ColorPrimary)
	return spinnerModel{spinner: s, message: message}
}

func (m spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case doneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.done = true
			m.err = context.Canceled
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return m.spinner.View() + " " + styles.Theme.Body.Render(m.message) + "\n"
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// RunWithSpinner runs fn while a spinner with message animates on out. When
// out is not a terminal, fn runs without any animation.
func RunWithSpinner(ctx context.Context, out io.Writer, message string, fn func(context.Context) error) error {
	if !isTerminal(out) {
		return fn(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newSpinnerModel(message), tea.WithOutput(out), tea.WithContext(ctx))
	go func() {
		p.Send(doneMsg{err: fn(ctx)})
	}()

	final, err := p.Run()
	if err != nil {
		return fmt.Errorf("spinner: %w", err)
	}
	return final.(spinnerModel).err
}
