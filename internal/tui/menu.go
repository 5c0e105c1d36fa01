package tui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type menuState int

const (
	stateSelectType menuState = iota
	stateScope
	stateDone
	stateCancelled
)

type menuKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Enter  key.Binding
	Back   key.Binding
	Quit   key.Binding
	Digits key.Binding
}

var menuKeys = menuKeyMap{
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
		key.WithHelp("enter", "select"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "back"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Digits: key.NewBinding(
		key.WithKeys("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
		key.WithHelp("1-9", "jump"),
	),
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	mutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// menuModel is the bubbletea model for the type menu and scope input.
type menuModel struct {
	state  menuState
	types  []string
	cursor int
	digits string // number typed so far, for lists longer than nine
	scope  textinput.Model
}

func newMenuModel(types []string) menuModel {
	ti := textinput.New()
	ti.Placeholder = "optional, enter to skip"
	ti.CharLimit = 64
	ti.Prompt = "Scope: "
	return menuModel{state: stateSelectType, types: types, scope: ti}
}

func (m menuModel) Init() tea.Cmd {
	return nil
}

func (m menuModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		if m.state == stateScope {
			var cmd tea.Cmd
			m.scope, cmd = m.scope.Update(msg)
			return m, cmd
		}
		return m, nil
	}
	switch m.state {
	case stateSelectType:
		return m.updateSelectType(keyMsg)
	case stateScope:
		return m.updateScope(keyMsg)
	}
	return m, nil
}

func (m menuModel) updateSelectType(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, menuKeys.Up):
		m.digits = ""
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, menuKeys.Down):
		m.digits = ""
		if m.cursor < len(m.types)-1 {
			m.cursor++
		}
	case key.Matches(msg, menuKeys.Digits):
		m.jump(msg.String())
	case key.Matches(msg, menuKeys.Enter):
		m.digits = ""
		m.state = stateScope
		cmd := m.scope.Focus()
		return m, cmd
	case key.Matches(msg, menuKeys.Quit), key.Matches(msg, menuKeys.Back):
		m.state = stateCancelled
		return m, tea.Quit
	}
	return m, nil
}

// jump moves the cursor to the typed number. Digits accumulate while the
// number stays in range, so "1" then "1" selects item 11.
func (m *menuModel) jump(d string) {
	for _, candidate := range []string{m.digits + d, d} {
		n, err := strconv.Atoi(candidate)
		if err == nil && n >= 1 && n <= len(m.types) {
			m.digits = candidate
			m.cursor = n - 1
			return
		}
	}
	m.digits = ""
}

func (m menuModel) updateScope(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.state = stateDone
		return m, tea.Quit
	case "esc":
		m.scope.Blur()
		m.scope.Reset()
		m.state = stateSelectType
		return m, nil
	case "ctrl+c":
		m.state = stateCancelled
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.scope, cmd = m.scope.Update(msg)
	return m, cmd
}

func (m menuModel) View() string {
	var b strings.Builder

	switch m.state {
	case stateSelectType:
		b.WriteString(titleStyle.Render("? Select commit type:"))
		b.WriteString("\n\n")
		for i, t := range m.types {
			line := fmt.Sprintf("%2d) %s", i+1, t)
			if i == m.cursor {
				b.WriteString(selectedStyle.Render("> " + line))
			} else {
				b.WriteString("  " + line)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(mutedStyle.Render("↑/↓ or number to choose, enter to select, q to quit"))
		b.WriteString("\n")

	case stateScope:
		b.WriteString(titleStyle.Render("? Commit type: " + m.types[m.cursor]))
		b.WriteString("\n\n")
		b.WriteString(m.scope.View())
		b.WriteString("\n\n")
		b.WriteString(mutedStyle.Render("enter to confirm, esc to go back"))
		b.WriteString("\n")
	}

	return b.String()
}

// Choice returns the selection once the menu has finished.
func (m menuModel) Choice() (Choice, error) {
	switch m.state {
	case stateDone:
		return Choice{Type: m.types[m.cursor], Scope: strings.TrimSpace(m.scope.Value())}, nil
	case stateCancelled:
		return Choice{}, ErrCancelled
	}
	return Choice{}, fmt.Errorf("menu exited before a selection was made")
}

// RunMenu runs the interactive menu on the given terminal streams.
func RunMenu(in io.Reader, out io.Writer, types []string) (Choice, error) {
	if len(types) == 0 {
		return Choice{}, ErrNoTypes
	}
	p := tea.NewProgram(newMenuModel(types), tea.WithInput(in), tea.WithOutput(out))

	finalModel, err := p.Run()
	if err != nil {
		return Choice{}, fmt.Errorf("running menu: %w", err)
	}
	m, ok := finalModel.(menuModel)
	if !ok {
		return Choice{}, fmt.Errorf("unexpected model type %T", finalModel)
	}
	return m.Choice()
}
