package tui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/ordertasks/internal/models"
)

var (
	listTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	statusPending   = lipgloss.NewStyle().Foreground(lipgloss.Color("3")) // Yellow
	statusOnHold    = lipgloss.NewStyle().Foreground(lipgloss.Color("4")) // Blue
	statusRunning   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")) // Cyan
	statusCompleted = lipgloss.NewStyle().Foreground(lipgloss.Color("2")) // Green
	statusFailed    = lipgloss.NewStyle().Foreground(lipgloss.Color("1")) // Red
	statusMuted     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func formatStatus(status string) string {
	switch models.OrderStatus(status) {
	case models.OrderStatusPending:
		return statusPending.Render("● pending")
	case models.OrderStatusOnHold:
		return statusOnHold.Render("● on-hold")
	case models.OrderStatusProcessing:
		return statusRunning.Render("● processing")
	case models.OrderStatusCompleted:
		return statusCompleted.Render("● completed")
	case models.OrderStatusFailed, models.OrderStatusCancelled:
		return statusFailed.Render("● " + status)
	case models.OrderStatusRefunded:
		return statusMuted.Render("● refunded")
	default:
		return status
	}
}

// StatusListModel is the status picker on the left.
type StatusListModel struct {
	list  list.Model
	items []StatusItem
}

// NewStatusListModel lists every known order status.
func NewStatusListModel() *StatusListModel {
	statuses := models.OrderStatuses()
	items := make([]StatusItem, len(statuses))
	listItems := make([]list.Item, len(statuses))
	for i, s := range statuses {
		items[i] = StatusItem{Status: s}
		listItems[i] = items[i]
	}
	l := list.New(listItems, list.NewDefaultDelegate(), 30, 20)
	l.Title = "Statuses"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.Styles.Title = listTitleStyle
	return &StatusListModel{list: l, items: items}
}

// Selected returns the highlighted status.
func (m *StatusListModel) Selected() models.OrderStatus {
	if item, ok := m.list.SelectedItem().(StatusItem); ok {
		return item.Status
	}
	return models.OrderStatusPending
}

// SetCount records how many tasks status has.
func (m *StatusListModel) SetCount(status models.OrderStatus, n int) {
	for i := range m.items {
		if m.items[i].Status == status {
			m.items[i].Tasks = n
			m.items[i].Loaded = true
			m.list.SetItem(i, m.items[i])
			return
		}
	}
}

func (m *StatusListModel) SetSize(w, h int) {
	m.list.SetSize(w, h)
}

func (m *StatusListModel) CursorUp()   { m.list.CursorUp() }
func (m *StatusListModel) CursorDown() { m.list.CursorDown() }

func (m *StatusListModel) View() string {
	return m.list.View()
}
