package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/fentz26/ordertasks/internal/models"
	"github.com/fentz26/ordertasks/internal/orders"
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Create orders and change their status",
}

var orderCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an order",
	Args:  cobra.NoArgs,
	RunE:  runOrderCreate,
}

var orderShowCmd = &cobra.Command{
	Use:   "show [order-id]",
	Short: "Show an order and its audit trail",
	Args:  cobra.ExactArgs(1),
	RunE:  runOrderShow,
}

var orderStatusCmd = &cobra.Command{
	Use:   "status [order-id] [status]",
	Short: "Move an order to a status and run its tasks",
	Args:  cobra.ExactArgs(2),
	RunE:  runOrderStatus,
}

var (
	orderFile      string
	orderFirstName string
	orderLastName  string
	orderEmail     string
	orderTotal     string
	orderCurrency  string
	orderNote      string
)

func init() {
	orderCmd.AddCommand(orderCreateCmd, orderShowCmd, orderStatusCmd)

	f := orderCreateCmd.Flags()
	f.StringVar(&orderFile, "file", "", "Read the order as JSON from a file")
	f.StringVar(&orderFirstName, "first-name", "", "Billing first name")
	f.StringVar(&orderLastName, "last-name", "", "Billing last name")
	f.StringVar(&orderEmail, "email", "", "Billing email")
	f.StringVar(&orderTotal, "total", "0", "Order total")
	f.StringVar(&orderCurrency, "currency", "USD", "Order currency")
	f.StringVar(&orderNote, "note", "", "Customer note")
}

func runOrderCreate(cmd *cobra.Command, args []string) error {
	var order models.Order
	if orderFile != "" {
		data, err := os.ReadFile(orderFile)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(data, &order); err != nil {
			return fmt.Errorf("invalid order: %w", err)
		}
	} else {
		total, err := decimal.NewFromString(orderTotal)
		if err != nil {
			return fmt.Errorf("invalid total %q: %w", orderTotal, err)
		}
		order = models.Order{
			Billing: models.Address{
				FirstName: orderFirstName,
				LastName:  orderLastName,
				Email:     orderEmail,
			},
			Total:        total,
			Currency:     orderCurrency,
			CustomerNote: orderNote,
		}
	}

	resp, err := apiPost("/orders", order)
	if err != nil {
		return err
	}
	var created models.Order
	if err := json.Unmarshal(resp, &created); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created order #%d (%s)\n", created.ID, created.Status)
	return nil
}

func runOrderShow(cmd *cobra.Command, args []string) error {
	id, err := parseOrderID(args[0])
	if err != nil {
		return err
	}
	resp, err := apiGet(fmt.Sprintf("/orders/%d", id))
	if err != nil {
		return err
	}
	var order models.Order
	if err := json.Unmarshal(resp, &order); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "ID:       %d\n", order.ID)
	fmt.Fprintf(out, "Status:   %s\n", order.Status)
	fmt.Fprintf(out, "Customer: %s <%s>\n", order.Billing.FullName(), order.Billing.Email)
	fmt.Fprintf(out, "Total:    %s %s\n", order.Total.StringFixed(2), order.Currency)
	fmt.Fprintf(out, "Trashed:  %t\n", order.Trashed)
	for _, line := range order.ShippingLines {
		fmt.Fprintf(out, "Shipping: %s (%s)\n", line.MethodTitle, line.MethodID)
	}
	for k, v := range order.Meta {
		fmt.Fprintf(out, "Meta:     %s = %s\n", k, v)
	}

	resp, err = apiGet(fmt.Sprintf("/orders/%d/audit", id))
	if err != nil {
		return err
	}
	var entries []models.PDREntry
	if err := json.Unmarshal(resp, &entries); err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	fmt.Fprintln(out, "\n--- AUDIT ---")
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TIME\tACTION\tOUTCOME\tDETAILS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Timestamp.Format("2006-01-02 15:04:05"), e.Action, e.Outcome, truncate(e.Details, 60))
	}
	return w.Flush()
}

func runOrderStatus(cmd *cobra.Command, args []string) error {
	id, err := parseOrderID(args[0])
	if err != nil {
		return err
	}
	resp, err := apiPost(fmt.Sprintf("/orders/%d/status", id), map[string]string{"status": args[1]})
	if err != nil {
		return err
	}
	var tr orders.Transition
	if err := json.Unmarshal(resp, &tr); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	verb := "moved"
	if tr.Reentered {
		verb = "re-entered"
	}
	fmt.Fprintf(out, "Order #%d %s %s (from %s)\n", id, verb, tr.To, tr.From)
	if tr.Report == nil {
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TASK\tOUTCOME\tERROR")
	for _, r := range tr.Report.Results {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.TaskType, r.Outcome, r.Error)
	}
	for _, r := range tr.Report.Deferred {
		fmt.Fprintf(w, "%s (deferred)\t%s\t%s\n", r.TaskType, r.Outcome, r.Error)
	}
	return w.Flush()
}

func parseOrderID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid order id %q", s)
	}
	return id, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
