package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/fentz26/ordertasks/internal/audit"
	"github.com/fentz26/ordertasks/internal/config"
	"github.com/fentz26/ordertasks/internal/controlplane"
	"github.com/fentz26/ordertasks/internal/dispatch"
	"github.com/fentz26/ordertasks/internal/logger"
	"github.com/fentz26/ordertasks/internal/mail"
	"github.com/fentz26/ordertasks/internal/metrics"
	"github.com/fentz26/ordertasks/internal/orders"
	"github.com/fentz26/ordertasks/internal/store"
	"github.com/fentz26/ordertasks/internal/taskconfig"
	"github.com/fentz26/ordertasks/internal/tasks"
	"github.com/fentz26/ordertasks/internal/webhook"
)

var (
	listenAddr string
	dbPath     string
)

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Start the ordertasks daemon",
	Long:  `Starts the daemon which serves the HTTP API and runs task lists on order status changes.`,
	RunE:  runDaemon,
}

func init() {
	daemonCmd.Flags().StringVar(&listenAddr, "listen", "", "Listen address for the API server (overrides config)")
	daemonCmd.Flags().StringVar(&dbPath, "db", "", "Path to SQLite database (overrides config)")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.Server.Listen = listenAddr
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if !cmd.Flags().Changed("log-level") {
		logger.SetupLogger(cfg.Log.Level, cfg.Log.JSON, cfg.Log.Source)
	}

	log := logger.GetDefault()
	ctx := logger.ContextWithLogger(cmd.Context(), log)
	log.Info("Starting ordertasks daemon", "listen", cfg.Server.Listen, "db", cfg.Store.Path)

	s, err := store.New(cfg.Store.Path)
	if err != nil {
		return err
	}

	meters := metrics.NewWithFallback(ctx, cfg.Metrics.Enabled)
	meters.SetAsGlobal()
	dispatchMetrics, err := dispatch.NewMetrics(meters.Meter())
	if err != nil {
		log.Warn("Dispatcher metrics unavailable", "error", err)
		dispatchMetrics = nil
	}

	settings := tasks.Settings{
		UploadsDir:      cfg.Tasks.UploadsDir,
		DefaultAuthorID: cfg.Tasks.DefaultAuthorID,
		AdminEmail:      cfg.Tasks.AdminEmail,
		ShippingMethods: cfg.Tasks.ShippingMethods,
	}
	fs := afero.NewOsFs()
	env := &tasks.Env{
		Mail:     mail.New(s, cfg.Tasks.SiteName),
		Webhooks: webhook.New(cfg.Webhook),
		Posts:    s,
		Orders:   s,
		Options:  s,
		FS:       fs,
		Settings: settings,
	}

	pdr := audit.NewPDRWriter(s)
	lists := taskconfig.New(s)
	opts := []dispatch.Option{dispatch.WithAudit(pdr), dispatch.WithConfig(&cfg.Dispatch)}
	if dispatchMetrics != nil {
		opts = append(opts, dispatch.WithMetrics(dispatchMetrics))
	}
	dispatcher := dispatch.New(lists, env, opts...)
	lifecycle := orders.NewLifecycle(s, dispatcher, pdr)

	service := controlplane.NewService(s, lists, lifecycle, pdr, settings, fs)
	server := controlplane.NewServer(service, meters.Handler(), cfg.Server.Listen)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	serverErr := make(chan error, 1)
	go func() {
		err := server.Start()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case sig := <-sigCh:
		log.Info("Received signal, initiating graceful shutdown", "signal", sig.String())
	case err := <-serverErr:
		if err != nil {
			log.Error("Server error", "error", err)
			s.Close()
			return err
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Info("Shutting down HTTP server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}
	if err := meters.Shutdown(shutdownCtx); err != nil {
		log.Error("Metrics shutdown error", "error", err)
	}

	log.Info("Closing database connection")
	if err := s.Close(); err != nil {
		log.Error("Database close error", "error", err)
	}

	log.Info("Shutdown complete")
	return nil
}
