package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"gmpwatch/internal/api"
	"gmpwatch/internal/api/handlers"
	"gmpwatch/internal/external/investorgain"
	"gmpwatch/internal/notify"
	"gmpwatch/internal/scheduler"
	"gmpwatch/internal/scheduler/jobs"
	"gmpwatch/pkg/config"
	"gmpwatch/pkg/httputil"
	"gmpwatch/pkg/logger"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the alert pass on a schedule",
	Long: `Starts a long-running daemon that executes the alert pass on the
WATCH_SCHEDULE cron expression and serves a small status API.

This replaces an external cron entry for deployments that prefer a
single process. Decision logic is identical to a one-shot run; a
failed pass is not retried and simply waits for the next tick.

Endpoints:
  GET  /health         - Health check
  GET  /api/v1/status  - Job stats and the last run summary
  POST /api/v1/run     - Trigger one pass immediately

Example:
  gmpwatch watch
  gmpwatch watch --secrets`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	fmt.Println("=== gmpwatch watch ===")

	// 1. Resolve config
	cfg, err := resolveConfig(config.Overrides{})
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Create HTTP clients, both single-attempt
	fetchClient := httputil.New(log).DisableRetry()
	gatewayClient := httputil.NewWithTimeout(log, 15*time.Second).DisableRetry()

	// 4. Wire source, gateway and dispatcher
	source := investorgain.NewClient(fetchClient, log, cfg.SourceURL)
	gateway := notify.NewWhatsAppClient(gatewayClient, log, cfg.WhatsAppBaseURL, cfg.WhatsAppToken)
	dispatcher := notify.NewDispatcher(gateway, log, cfg.DryRun)

	// 5. Create the scheduled job
	alertJob := jobs.NewGMPAlertJob(cfg, source, dispatcher, log)

	// 6. Create scheduler and register the job
	sched := scheduler.New(log)
	if err := sched.Register(alertJob); err != nil {
		return fmt.Errorf("register job: %w", err)
	}

	// 7. Create the status server
	statusHandler := handlers.NewStatusHandler(sched, alertJob, log)
	router := api.NewRouter(statusHandler, log)
	server := api.NewServer(cfg.Port, router, log)

	// 8. Start scheduler and server
	sched.Start()

	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.WithError(err).Fatal("Status server failed")
		}
	}()

	fmt.Println()
	PrintSuccess("Watch mode started")
	PrintKeyValue("Schedule", cfg.Schedule, 8)
	PrintKeyValue("Port", cfg.Port, 8)
	if cfg.DryRun {
		PrintKeyValue("Mode", "dry-run", 8)
	}
	fmt.Println("\nEndpoints:")
	fmt.Printf("  GET  http://localhost:%s/health\n", cfg.Port)
	fmt.Printf("  GET  http://localhost:%s/api/v1/status\n", cfg.Port)
	fmt.Printf("  POST http://localhost:%s/api/v1/run\n", cfg.Port)
	fmt.Println("\nPress Ctrl+C to stop")

	// 9. Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")

	// 10. Graceful shutdown, scheduler first so no pass starts mid-stop
	sched.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	fmt.Println("Stopped")
	return nil
}
