package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fentz26/ordertasks/internal/models"
)

var (
	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205")).
				MarginBottom(1)

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(22)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39"))
)

// renderTaskList renders the escaped args of every task of status.
func renderTaskList(status models.OrderStatus, list []models.TaskDescriptor, labels map[string]string, width int) string {
	var b strings.Builder
	b.WriteString(detailTitleStyle.Render(fmt.Sprintf("Tasks on %s", status)))
	b.WriteString("\n")
	if len(list) == 0 {
		b.WriteString(statusMuted.Render("  No tasks configured for this status."))
		return b.String()
	}
	for i, desc := range list {
		label := labels[desc.TaskType]
		if label == "" {
			label = desc.TaskType
		}
		b.WriteString(sectionStyle.Render(fmt.Sprintf("%d. %s", i+1, label)))
		b.WriteString("\n")
		keys := make([]string, 0, len(desc.Args))
		for k := range desc.Args {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteString(renderField(k, formatArg(desc.Args[k]), width))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func renderField(label, value string, width int) string {
	return "  " + labelStyle.Render(label) + valueStyle.Render(truncate(value, max(20, width-28))) + "\n"
}

func formatArg(v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ReplaceAll(v, "\n", " ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				parts = append(parts, fmt.Sprintf("%v <%v>", m["label"], m["value"]))
				continue
			}
			parts = append(parts, fmt.Sprint(item))
		}
		return strings.Join(parts, ", ")
	default:
		return fmt.Sprint(v)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}
