package tui

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/ordertasks/internal/models"
)

var (
	cmdBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255")).
			Padding(0, 1)

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

var errUsage = errors.New("usage: status [order-id] <status> | orders | tasks | log | refresh | quit")

// command is a parsed command bar line.
type command struct {
	name    string
	orderID int64
	status  models.OrderStatus
}

func parseCommand(input string) (command, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return command{}, errUsage
	}
	cmd := command{name: strings.ToLower(parts[0])}
	switch cmd.name {
	case "orders", "tasks", "log", "refresh", "quit":
		if len(parts) != 1 {
			return command{}, errUsage
		}
	case "status":
		switch len(parts) {
		case 2:
			cmd.status = models.OrderStatus(parts[1])
		case 3:
			id, err := strconv.ParseInt(parts[1], 10, 64)
			if err != nil || id <= 0 {
				return command{}, fmt.Errorf("invalid order id %q", parts[1])
			}
			cmd.orderID = id
			cmd.status = models.OrderStatus(parts[2])
		default:
			return command{}, errUsage
		}
		if !cmd.status.Valid() {
			return command{}, fmt.Errorf("unknown status %q", cmd.status)
		}
	default:
		return command{}, fmt.Errorf("unknown command %q", cmd.name)
	}
	return cmd, nil
}

// CmdBarModel manages the command input bar
type CmdBarModel struct {
	input   textinput.Model
	focused bool
}

// NewCmdBarModel creates a new command bar
func NewCmdBarModel() *CmdBarModel {
	ti := textinput.New()
	ti.Placeholder = "status <status> | orders | tasks | log | refresh"
	ti.CharLimit = 128
	return &CmdBarModel{input: ti}
}

// Focus focuses the command bar
func (m *CmdBarModel) Focus() tea.Cmd {
	m.focused = true
	return m.input.Focus()
}

// Blur unfocuses the command bar
func (m *CmdBarModel) Blur() {
	m.focused = false
	m.input.Blur()
	m.input.SetValue("")
}

func (m *CmdBarModel) Focused() bool { return m.focused }

func (m *CmdBarModel) Value() string { return m.input.Value() }

func (m *CmdBarModel) SetValue(v string) {
	m.input.SetValue(v)
	m.input.CursorEnd()
}

func (m *CmdBarModel) SetWidth(w int) { m.input.Width = w }

// Submit returns the current input and blurs
func (m *CmdBarModel) Submit() string {
	val := strings.TrimSpace(m.input.Value())
	m.Blur()
	return val
}

// Update forwards key input to the text field.
func (m *CmdBarModel) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return cmd
}

// View renders the command bar
func (m *CmdBarModel) View() string {
	if m.focused {
		return cmdBarStyle.Render(promptStyle.Render(": ") + m.input.View())
	}
	return cmdBarStyle.Render("Press : to enter a command")
}
