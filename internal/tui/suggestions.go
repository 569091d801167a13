package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/ordertasks/internal/models"
)

// Suggestions provides autocomplete for the command bar.
type Suggestions struct {
	items       []SuggestionItem
	filtered    []SuggestionItem
	selectedIdx int
	visible     bool
	header      string
}

// SuggestionItem represents a single autocomplete suggestion
type SuggestionItem struct {
	Text        string
	Description string
}

var commandSuggestions = []SuggestionItem{
	{Text: "status", Description: "Move the selected order to a status"},
	{Text: "orders", Description: "Show orders of the selected status"},
	{Text: "tasks", Description: "Show the task list of the selected status"},
	{Text: "log", Description: "Show the task log file"},
	{Text: "refresh", Description: "Reload everything"},
	{Text: "quit", Description: "Leave"},
}

func statusSuggestions() []SuggestionItem {
	out := make([]SuggestionItem, 0, len(models.OrderStatuses()))
	for _, s := range models.OrderStatuses() {
		out = append(out, SuggestionItem{Text: string(s), Description: "order status"})
	}
	return out
}

// NewSuggestions creates a new suggestions handler
func NewSuggestions() *Suggestions {
	return &Suggestions{items: commandSuggestions}
}

// Update recomputes suggestions for input. The first word completes to a
// command, the argument of "status" completes to an order status.
func (s *Suggestions) Update(input string) {
	if strings.TrimSpace(input) == "" {
		s.visible = false
		s.filtered = nil
		return
	}
	fields := strings.Fields(input)
	trailingSpace := strings.HasSuffix(input, " ")
	switch {
	case len(fields) == 1 && !trailingSpace:
		s.header = "Commands"
		s.items = commandSuggestions
		s.filter(strings.ToLower(fields[0]))
	case fields[0] == "status" && (len(fields) == 1 || (len(fields) == 2 && !trailingSpace)):
		s.header = "Statuses"
		s.items = statusSuggestions()
		query := ""
		if len(fields) == 2 {
			query = strings.ToLower(fields[1])
		}
		s.filter(query)
	default:
		s.visible = false
		s.filtered = nil
		return
	}
	s.visible = true
}

// Complete returns the input with the selection applied.
func (s *Suggestions) Complete(input string) string {
	sel := s.Selected()
	if sel == nil {
		return input
	}
	if s.header == "Statuses" {
		return "status " + sel.Text
	}
	return sel.Text + " "
}

func (s *Suggestions) filter(query string) {
	s.selectedIdx = 0
	if query == "" {
		s.filtered = s.items
		return
	}
	s.filtered = []SuggestionItem{}
	for _, item := range s.items {
		if strings.HasPrefix(item.Text, query) {
			s.filtered = append(s.filtered, item)
		}
	}
	if len(s.filtered) == 1 && s.filtered[0].Text == query {
		s.filtered = nil
	}
}

// Next moves to the next suggestion
func (s *Suggestions) Next() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx = (s.selectedIdx + 1) % len(s.filtered)
}

// Prev moves to the previous suggestion
func (s *Suggestions) Prev() {
	if len(s.filtered) == 0 {
		return
	}
	s.selectedIdx--
	if s.selectedIdx < 0 {
		s.selectedIdx = len(s.filtered) - 1
	}
}

// Selected returns the currently selected suggestion
func (s *Suggestions) Selected() *SuggestionItem {
	if !s.visible || len(s.filtered) == 0 || s.selectedIdx >= len(s.filtered) {
		return nil
	}
	return &s.filtered[s.selectedIdx]
}

// IsVisible returns whether suggestions are currently visible
func (s *Suggestions) IsVisible() bool {
	return s.visible && len(s.filtered) > 0
}

// Render renders the suggestions dropdown
func (s *Suggestions) Render(width int) string {
	if !s.IsVisible() {
		return ""
	}

	var b strings.Builder

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(secondaryColor).
		Padding(0, 1).
		Width(max(20, width-4))
	selected := lipgloss.NewStyle().Background(primaryColor).Foreground(fgColor).Bold(true)
	item := lipgloss.NewStyle().Foreground(fgColor)
	desc := lipgloss.NewStyle().Foreground(mutedColor).Italic(true)

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(primaryColor).Render(s.header))
	b.WriteString("\n")

	const maxVisible = 5
	for i, it := range s.filtered {
		if i >= maxVisible {
			b.WriteString(desc.Render(fmt.Sprintf("  ... and %d more", len(s.filtered)-maxVisible)))
			break
		}
		if i == s.selectedIdx {
			b.WriteString(selected.Render("▶ "+it.Text) + " " + selected.Render(it.Description))
		} else {
			b.WriteString(item.Render("  "+it.Text) + " " + desc.Render(it.Description))
		}
		b.WriteString("\n")
	}
	return boxStyle.Render(b.String())
}
