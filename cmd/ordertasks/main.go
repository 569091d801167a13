package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/fentz26/ordertasks/internal/logger"
)

var rootCmd = &cobra.Command{
	Use:   "ordertasks",
	Short: "ordertasks - automatic tasks on order status changes",
	Long:  `ordertasks runs configured task lists whenever an order enters a status: mails, posts, log lines, webhooks and order edits.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, logJSON, logSource, err := logger.GetLoggerConfig(cmd)
		if err != nil {
			return err
		}
		logger.SetupLogger(level, logJSON, logSource)
		return nil
	},
	SilenceUsage: true,
	// No RunE - defaults to showing help when no subcommand is provided
}

var (
	apiAddr    string
	configPath string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&apiAddr, "api", "http://127.0.0.1:7470", "API server address")
	flags.StringVar(&configPath, "config", "", "Path to config.yaml (default ~/.ordertasks/config.yaml)")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("log-json", false, "Log as JSON")
	flags.Bool("log-source", false, "Log caller file and line")

	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(orderCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
