package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type taskDone struct {
	err error
}

type spinnerModel struct {
	title   string
	spinner spinner.Model
	task    func() error
	cancel  context.CancelFunc
	err     error
	done    bool
}

func newSpinnerModel(title string, task func() error, cancel context.CancelFunc) spinnerModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#3b82f6"))

	return spinnerModel{
		title:   title,
		spinner: s,
		task:    task,
		cancel:  cancel,
	}
}

func (m spinnerModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return taskDone{err: m.task()}
	})
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			// The task sees the cancellation and finishes shortly.
			m.cancel()
			m.title = "Cancelling..."
			return m, nil
		}

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case taskDone:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}

	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	return fmt.Sprintf("\n %s %s\n\n", m.spinner.View(), m.title)
}

// runWithSpinner runs task while showing title. Without a terminal the
// task simply runs.
func runWithSpinner(ctx context.Context, title string, task func(ctx context.Context) error) error {
	if !isInteractive() {
		return task(ctx)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	board.pause()
	defer board.resume()

	model := newSpinnerModel(title, func() error { return task(ctx) }, cancel)

	final, err := tea.NewProgram(model, tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return fmt.Errorf("failed to run spinner: %w", err)
	}

	return final.(spinnerModel).err
}
