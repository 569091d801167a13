package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fentz26/ordertasks/internal/models"
)

var tasksCmd = &cobra.Command{
	Use:   "tasks",
	Short: "Manage the task lists of order statuses",
}

var tasksGetCmd = &cobra.Command{
	Use:   "get [status]",
	Short: "Print the task list of a status as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runTasksGet,
}

var tasksSetCmd = &cobra.Command{
	Use:   "set [status] [file]",
	Short: "Replace the task list of a status from a JSON file, or stdin when file is - or missing",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runTasksSet,
}

var tasksTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List the available task types",
	Args:  cobra.NoArgs,
	RunE:  runTasksTypes,
}

var tasksDisplay bool

func init() {
	tasksCmd.AddCommand(tasksGetCmd, tasksSetCmd, tasksTypesCmd)
	tasksGetCmd.Flags().BoolVar(&tasksDisplay, "display", false, "Print escaped args as shown in the browser")
}

func runTasksGet(cmd *cobra.Command, args []string) error {
	path := "/statuses/" + args[0] + "/tasks"
	if tasksDisplay {
		path += "?view=display"
	}
	resp, err := apiGet(path)
	if err != nil {
		return err
	}
	var list []models.TaskDescriptor
	if err := json.Unmarshal(resp, &list); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), list)
}

func runTasksSet(cmd *cobra.Command, args []string) error {
	var in io.Reader = cmd.InOrStdin()
	if len(args) == 2 && args[1] != "-" {
		f, err := os.Open(args[1])
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	var list []models.TaskDescriptor
	if err := json.NewDecoder(in).Decode(&list); err != nil {
		return fmt.Errorf("invalid task list: %w", err)
	}

	resp, err := apiPut("/statuses/"+args[0]+"/tasks", list)
	if err != nil {
		return err
	}
	var saved []models.TaskDescriptor
	if err := json.Unmarshal(resp, &saved); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %d tasks for %s\n", len(saved), args[0])
	return nil
}

func runTasksTypes(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/task-types")
	if err != nil {
		return err
	}
	var infos []struct {
		Type     string         `json:"task_type"`
		Label    string         `json:"label"`
		Defaults map[string]any `json:"defaults"`
	}
	if err := json.Unmarshal(resp, &infos); err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tLABEL\tARGS")
	for _, info := range infos {
		keys := make([]string, 0, len(info.Defaults))
		for k := range info.Defaults {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		fmt.Fprintf(w, "%s\t%s\t%s\n", info.Type, info.Label, strings.Join(keys, ", "))
	}
	return w.Flush()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
