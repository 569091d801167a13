// Package tui provides the terminal browser for order status task lists.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/ordertasks/internal/dispatch"
	"github.com/fentz26/ordertasks/internal/models"
	"github.com/fentz26/ordertasks/internal/orders"
)

var (
	primaryColor   = lipgloss.Color("#7C3AED")
	secondaryColor = lipgloss.Color("#6366F1")
	successColor   = lipgloss.Color("#10B981")
	errorColor     = lipgloss.Color("#EF4444")
	mutedColor     = lipgloss.Color("#6B7280")
	fgColor        = lipgloss.Color("#F9FAFB")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(primaryColor).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#374151")).
			Foreground(fgColor).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedColor).
			Padding(0, 1)

	selectedStyle = lipgloss.NewStyle().
			Background(primaryColor).
			Foreground(fgColor).
			Bold(true)

	onlineStyle  = lipgloss.NewStyle().Foreground(successColor).Bold(true)
	offlineStyle = lipgloss.NewStyle().Foreground(errorColor)
)

type mode int

const (
	modeTasks mode = iota
	modeOrders
	modeLog
)

const statusPanelWidth = 30

// App is the main TUI application model.
type App struct {
	client      *Client
	statuses    *StatusListModel
	cmdbar      *CmdBarModel
	suggestions *Suggestions
	viewport    viewport.Model

	mode         mode
	labels       map[string]string
	taskLists    map[models.OrderStatus][]models.TaskDescriptor
	orders       []models.Order
	orderIdx     int
	log          string
	message      string
	daemonOnline bool
	width        int
	height       int
}

// New creates a new TUI application.
func New(apiAddr string) *App {
	return &App{
		client:      NewClient(apiAddr),
		statuses:    NewStatusListModel(),
		cmdbar:      NewCmdBarModel(),
		suggestions: NewSuggestions(),
		viewport:    viewport.New(80, 20),
		labels:      map[string]string{},
		taskLists:   map[models.OrderStatus][]models.TaskDescriptor{},
	}
}

// Run starts the TUI application.
func (a *App) Run() error {
	_, err := tea.NewProgram(a, tea.WithAltScreen()).Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.checkDaemon(), a.fetchTaskTypes(), a.fetchAllTaskLists())
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if a.cmdbar.Focused() {
			return a, a.updateCmdBar(msg)
		}
		return a, a.handleKey(msg)

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.statuses.SetSize(statusPanelWidth, max(5, msg.Height-6))
		a.viewport.Width = max(20, msg.Width-statusPanelWidth-6)
		a.viewport.Height = max(5, msg.Height-8)
		a.cmdbar.SetWidth(max(20, msg.Width-6))
		a.refreshViewport()

	case healthMsg:
		a.daemonOnline = msg.online

	case taskTypesMsg:
		a.labels = msg.labels
		a.refreshViewport()

	case taskListMsg:
		a.taskLists[msg.status] = msg.list
		a.statuses.SetCount(msg.status, len(msg.list))
		a.refreshViewport()

	case ordersMsg:
		a.orders = msg.orders
		if a.orderIdx >= len(a.orders) {
			a.orderIdx = max(0, len(a.orders)-1)
		}
		a.refreshViewport()

	case logMsg:
		a.log = msg.content
		a.refreshViewport()
		a.viewport.GotoBottom()

	case transitionMsg:
		a.message = summarizeTransition(msg.transition)
		return a, tea.Batch(a.fetchOrders(), a.fetchTaskList(a.statuses.Selected()))

	case errMsg:
		a.message = "Error: " + msg.err.Error()
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "ctrl+c", "q":
		return tea.Quit
	case ":":
		a.message = ""
		return a.cmdbar.Focus()
	case "esc":
		a.mode = modeTasks
		a.refreshViewport()
	case "tab":
		if a.mode == modeOrders {
			a.mode = modeTasks
			a.refreshViewport()
			return nil
		}
		a.mode = modeOrders
		return a.fetchOrders()
	case "L":
		a.mode = modeLog
		return a.fetchLog()
	case "r":
		return tea.Batch(a.checkDaemon(), a.fetchAllTaskLists(), a.fetchOrders())
	case "up", "k":
		if a.mode == modeOrders {
			if a.orderIdx > 0 {
				a.orderIdx--
			}
			a.refreshViewport()
			return nil
		}
		a.statuses.CursorUp()
		return a.fetchTaskList(a.statuses.Selected())
	case "down", "j":
		if a.mode == modeOrders {
			if a.orderIdx < len(a.orders)-1 {
				a.orderIdx++
			}
			a.refreshViewport()
			return nil
		}
		a.statuses.CursorDown()
		return a.fetchTaskList(a.statuses.Selected())
	case "left", "h":
		a.statuses.CursorUp()
		return a.statusChanged()
	case "right", "l":
		a.statuses.CursorDown()
		return a.statusChanged()
	case "pgup", "pgdown":
		var cmd tea.Cmd
		a.viewport, cmd = a.viewport.Update(msg)
		return cmd
	}
	return nil
}

func (a *App) statusChanged() tea.Cmd {
	if a.mode == modeOrders {
		a.orderIdx = 0
		return a.fetchOrders()
	}
	return a.fetchTaskList(a.statuses.Selected())
}

func (a *App) updateCmdBar(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "esc":
		a.cmdbar.Blur()
		a.suggestions.Update("")
		return nil
	case "tab":
		if a.suggestions.IsVisible() {
			a.cmdbar.SetValue(a.suggestions.Complete(a.cmdbar.Value()))
			a.suggestions.Update(a.cmdbar.Value())
		}
		return nil
	case "up":
		a.suggestions.Prev()
		return nil
	case "down":
		a.suggestions.Next()
		return nil
	case "enter":
		input := a.cmdbar.Submit()
		a.suggestions.Update("")
		if input == "" {
			return nil
		}
		return a.execute(input)
	}
	cmd := a.cmdbar.Update(msg)
	a.suggestions.Update(a.cmdbar.Value())
	return cmd
}

func (a *App) execute(input string) tea.Cmd {
	cmd, err := parseCommand(input)
	if err != nil {
		a.message = "Error: " + err.Error()
		return nil
	}
	switch cmd.name {
	case "quit":
		return tea.Quit
	case "orders":
		a.mode = modeOrders
		return a.fetchOrders()
	case "tasks":
		a.mode = modeTasks
		a.refreshViewport()
		return a.fetchTaskList(a.statuses.Selected())
	case "log":
		a.mode = modeLog
		return a.fetchLog()
	case "refresh":
		return tea.Batch(a.checkDaemon(), a.fetchAllTaskLists(), a.fetchOrders())
	case "status":
		id := cmd.orderID
		if id == 0 {
			if a.mode != modeOrders || len(a.orders) == 0 {
				a.message = "Error: select an order first (tab) or give an order id"
				return nil
			}
			id = a.orders[a.orderIdx].ID
		}
		return a.setStatus(id, cmd.status)
	}
	return nil
}

// View implements tea.Model
func (a *App) View() string {
	var b strings.Builder

	daemon := onlineStyle.Render("● DAEMON")
	if !a.daemonOnline {
		daemon = offlineStyle.Render("○ DAEMON")
	}
	b.WriteString(titleStyle.Render("ordertasks") + "  " + daemon + "  " +
		lipgloss.NewStyle().Foreground(mutedColor).Render(a.client.BaseURL()) + "\n")

	right := panelStyle.Width(a.viewport.Width + 2).Render(a.viewport.View())
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, a.statuses.View(), right))
	b.WriteString("\n")

	if a.message != "" {
		style := lipgloss.NewStyle().Foreground(successColor)
		if strings.HasPrefix(a.message, "Error") {
			style = lipgloss.NewStyle().Foreground(errorColor)
		}
		b.WriteString(style.Render(a.message))
	}
	b.WriteString("\n")
	b.WriteString(a.cmdbar.View())
	if a.suggestions.IsVisible() {
		b.WriteString("\n" + a.suggestions.Render(a.width))
	}
	b.WriteString("\n")

	var status string
	switch a.mode {
	case modeOrders:
		status = fmt.Sprintf(" Orders: %d | ↑↓:select | ←→:status | Tab:tasks | :status <s> | L:log | q:quit", len(a.orders))
	case modeLog:
		status = " Log | PgUp/PgDn:scroll | Esc:back | r:refresh | q:quit"
	default:
		status = " ↑↓:status | Tab:orders | L:log | :command | r:refresh | q:quit"
	}
	b.WriteString(statusBarStyle.Width(max(a.width, 20)).Render(status))
	return b.String()
}

func (a *App) refreshViewport() {
	switch a.mode {
	case modeOrders:
		a.viewport.SetContent(a.renderOrders())
	case modeLog:
		content := a.log
		if content == "" {
			content = "The log is empty."
		}
		a.viewport.SetContent(content)
	default:
		status := a.statuses.Selected()
		a.viewport.SetContent(renderTaskList(status, a.taskLists[status], a.labels, a.viewport.Width))
	}
}

func (a *App) renderOrders() string {
	status := a.statuses.Selected()
	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(fmt.Sprintf("Orders in %s", status)))
	b.WriteString("\n")
	if len(a.orders) == 0 {
		b.WriteString(statusMuted.Render("  No orders with this status."))
		return b.String()
	}
	for i, o := range a.orders {
		line := fmt.Sprintf("#%-6d %-24s %s %s", o.ID, truncate(o.Billing.FullName(), 24), o.Total.StringFixed(2), strings.ToUpper(o.Currency))
		if i == a.orderIdx {
			b.WriteString(selectedStyle.Render("▶ " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func summarizeTransition(tr *orders.Transition) string {
	if tr == nil || tr.Order == nil {
		return "Status changed"
	}
	failed, tasks, deferred := 0, 0, 0
	if tr.Report != nil {
		tasks, deferred = len(tr.Report.Results), len(tr.Report.Deferred)
		for _, r := range append(append([]dispatch.Result{}, tr.Report.Results...), tr.Report.Deferred...) {
			if r.Outcome == dispatch.OutcomeError {
				failed++
			}
		}
	}
	if failed > 0 {
		return fmt.Sprintf("Error: order #%d is %s but %d of its tasks failed", tr.Order.ID, tr.To, failed)
	}
	verb := "moved"
	if tr.Reentered {
		verb = "re-entered"
	}
	return fmt.Sprintf("✓ Order #%d %s %s: %d tasks, %d deferred", tr.Order.ID, verb, tr.To, tasks, deferred)
}

// --- Commands ---

func (a *App) checkDaemon() tea.Cmd {
	return func() tea.Msg {
		ok, _ := a.client.CheckHealth(context.Background())
		return healthMsg{online: ok}
	}
}

func (a *App) fetchTaskTypes() tea.Cmd {
	return func() tea.Msg {
		labels, err := a.client.TaskTypes(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return taskTypesMsg{labels: labels}
	}
}

func (a *App) fetchTaskList(status models.OrderStatus) tea.Cmd {
	return func() tea.Msg {
		list, err := a.client.TaskList(context.Background(), string(status))
		if err != nil {
			return errMsg{err}
		}
		return taskListMsg{status: status, list: list}
	}
}

func (a *App) fetchAllTaskLists() tea.Cmd {
	statuses := models.OrderStatuses()
	cmds := make([]tea.Cmd, 0, len(statuses))
	for _, s := range statuses {
		cmds = append(cmds, a.fetchTaskList(s))
	}
	return tea.Batch(cmds...)
}

func (a *App) fetchOrders() tea.Cmd {
	status := a.statuses.Selected()
	return func() tea.Msg {
		list, err := a.client.Orders(context.Background(), string(status))
		if err != nil {
			return errMsg{err}
		}
		return ordersMsg{orders: list}
	}
}

func (a *App) fetchLog() tea.Cmd {
	return func() tea.Msg {
		content, err := a.client.Log(context.Background())
		if err != nil {
			return errMsg{err}
		}
		return logMsg{content: content}
	}
}

func (a *App) setStatus(id int64, status models.OrderStatus) tea.Cmd {
	return func() tea.Msg {
		tr, err := a.client.SetOrderStatus(context.Background(), id, string(status))
		if err != nil {
			return errMsg{err}
		}
		return transitionMsg{transition: tr}
	}
}
