package tui

import (
	"fmt"

	"github.com/fentz26/ordertasks/internal/models"
	"github.com/fentz26/ordertasks/internal/orders"
)

// StatusItem is one order status in the left panel.
type StatusItem struct {
	Status models.OrderStatus
	Tasks  int
	Loaded bool
}

func (i StatusItem) FilterValue() string { return string(i.Status) }
func (i StatusItem) Title() string       { return formatStatus(string(i.Status)) }
func (i StatusItem) Description() string {
	if !i.Loaded {
		return "…"
	}
	if i.Tasks == 1 {
		return "1 task"
	}
	return fmt.Sprintf("%d tasks", i.Tasks)
}

type healthMsg struct {
	online bool
}

type taskTypesMsg struct {
	labels map[string]string
}

type taskListMsg struct {
	status models.OrderStatus
	list   []models.TaskDescriptor
}

type ordersMsg struct {
	orders []models.Order
}

type logMsg struct {
	content string
}

type transitionMsg struct {
	transition *orders.Transition
}

type errMsg struct {
	err error
}
