// Package ui provides the in-process terminal selector and prompt.
// Items are rendered as plain text; nothing is handed to a shell.
package ui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	// ErrCancelled is returned when the user aborts a prompt.
	ErrCancelled = errors.New("selection cancelled")

	// ErrNotInteractive is returned when stdin or stderr is not a terminal.
	ErrNotInteractive = errors.New("not an interactive terminal")
)

// maxVisible caps how many rows the selector draws at once.
const maxVisible = 12

type keyMap struct {
	up     key.Binding
	down   key.Binding
	choose key.Binding
	cancel key.Binding
}

var keys = keyMap{
	up: key.NewBinding(
		key.WithKeys("up", "ctrl+p", "ctrl+k"),
		key.WithHelp("↑", "up"),
	),
	down: key.NewBinding(
		key.WithKeys("down", "ctrl+n", "ctrl+j", "tab"),
		key.WithHelp("↓", "down"),
	),
	choose: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select"),
	),
	cancel: key.NewBinding(
		key.WithKeys("esc", "ctrl+c", "ctrl+d"),
		key.WithHelp("esc", "cancel"),
	),
}

var (
	cursorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// selectModel is a filterable single-choice list.
type selectModel struct {
	items    []string
	filter   textinput.Model
	matches  []int // indexes into items
	cursor   int   // position within matches
	chosen   int
	canceled bool
}

func newSelectModel(prompt string, items []string) selectModel {
	ti := textinput.New()
	ti.Prompt = prompt + " > "
	ti.Focus()

	m := selectModel{items: items, filter: ti, chosen: -1}
	m.refilter()
	return m
}

func (m selectModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m selectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.cancel):
			m.canceled = true
			return m, tea.Quit
		case key.Matches(msg, keys.choose):
			if len(m.matches) == 0 {
				return m, nil
			}
			m.chosen = m.matches[m.cursor]
			return m, tea.Quit
		case key.Matches(msg, keys.up):
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case key.Matches(msg, keys.down):
			if m.cursor < len(m.matches)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	before := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != before {
		m.refilter()
	}
	return m, cmd
}

// refilter keeps items containing every word of the filter, case-insensitively.
func (m *selectModel) refilter() {
	words := strings.Fields(strings.ToLower(m.filter.Value()))
	m.matches = m.matches[:0]
	for i, item := range m.items {
		lower := strings.ToLower(item)
		ok := true
		for _, w := range words {
			if !strings.Contains(lower, w) {
				ok = false
				break
			}
		}
		if ok {
			m.matches = append(m.matches, i)
		}
	}
	m.cursor = 0
}

func (m selectModel) View() string {
	var b strings.Builder
	b.WriteString(m.filter.View())
	b.WriteString("\n")

	start := 0
	if m.cursor >= maxVisible {
		start = m.cursor - maxVisible + 1
	}
	end := min(start+maxVisible, len(m.matches))
	for pos := start; pos < end; pos++ {
		item := m.items[m.matches[pos]]
		if pos == m.cursor {
			b.WriteString(cursorStyle.Render("> " + item))
		} else {
			b.WriteString("  " + item)
		}
		b.WriteString("\n")
	}

	b.WriteString(mutedStyle.Render(fmt.Sprintf("  %d/%d", len(m.matches), len(m.items))))
	return b.String()
}

// Interactive reports whether prompts can be shown.
func Interactive() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stderr.Fd()))
}

// Select presents items and returns the chosen index.
func Select(prompt string, items []string) (int, error) {
	if len(items) == 0 {
		return -1, fmt.Errorf("no items to select from")
	}
	if !Interactive() {
		return -1, ErrNotInteractive
	}

	final, err := tea.NewProgram(newSelectModel(prompt, items), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return -1, fmt.Errorf("running selector: %w", err)
	}

	m := final.(selectModel)
	if m.canceled || m.chosen < 0 {
		return -1, ErrCancelled
	}
	return m.chosen, nil
}

// inputModel is a single-line free-text prompt.
type inputModel struct {
	input    textinput.Model
	done     bool
	canceled bool
}

func newInputModel(prompt string) inputModel {
	ti := textinput.New()
	ti.Prompt = prompt + " > "
	ti.Focus()
	return inputModel{input: ti}
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(msg, keys.cancel):
			m.canceled = true
			return m, tea.Quit
		case key.Matches(msg, keys.choose):
			m.done = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	return m.input.View() + "\n"
}

// Input prompts for a line of text.
func Input(prompt string) (string, error) {
	if !Interactive() {
		return "", ErrNotInteractive
	}

	final, err := tea.NewProgram(newInputModel(prompt), tea.WithOutput(os.Stderr)).Run()
	if err != nil {
		return "", fmt.Errorf("running prompt: %w", err)
	}

	m := final.(inputModel)
	if m.canceled {
		return "", ErrCancelled
	}
	value := strings.TrimSpace(m.input.Value())
	if value == "" {
		return "", fmt.Errorf("no input provided")
	}
	return value, nil
}
