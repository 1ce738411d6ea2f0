package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"gmpwatch/internal/external/investorgain"
	"gmpwatch/internal/notify"
	"gmpwatch/internal/pipeline"
	"gmpwatch/pkg/config"
	"gmpwatch/pkg/httputil"
	"gmpwatch/pkg/logger"
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one alert pass",
	Long: `Runs the full pipeline once: fetch the live GMP report, screen
for IPOs closing within the alert window, compose one message per
eligible issue and push them to the WhatsApp group.

This is the command a daily cron entry should invoke. The exit code
is non-zero only when config resolution or the report fetch fails;
per-message delivery failures are reported in the summary and do not
fail the run.

Example:
  gmpwatch run
  gmpwatch run --dry-run
  gmpwatch run --days 5 --threshold 25 --fallback 15`,
	RunE: runAlertPass,
}

var (
	// Run flags
	runDays      int
	runThreshold float64
	runFallback  float64
	runDryRun    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	// Flags
	runCmd.Flags().IntVar(&runDays, "days", 0, "alert window in days (overrides ALERT_WINDOW_DAYS)")
	runCmd.Flags().Float64Var(&runThreshold, "threshold", 0, "primary GMP threshold in percent (overrides GMP_THRESHOLD)")
	runCmd.Flags().Float64Var(&runFallback, "fallback", 0, "fallback GMP threshold in percent (overrides GMP_FALLBACK_THRESHOLD)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "log alerts without sending")
}

func runAlertPass(cmd *cobra.Command, args []string) error {
	fmt.Println("=== gmpwatch run ===")

	// 1. Resolve config, flags beat both sources
	ov := config.Overrides{}
	if cmd.Flags().Changed("days") {
		ov.WindowDays = &runDays
	}
	if cmd.Flags().Changed("threshold") {
		ov.Threshold = &runThreshold
	}
	if cmd.Flags().Changed("fallback") {
		ov.FallbackThreshold = &runFallback
	}
	if cmd.Flags().Changed("dry-run") {
		ov.DryRun = &runDryRun
	}

	cfg, err := resolveConfig(ov)
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

	// 5. Run the pipeline once
	result, err := pipeline.Run(cmd.Context(), cfg, source, dispatcher, log, time.Now())
	if err != nil {
		return err
	}

	printRunSummary(cfg, result)
	return nil
}

func printRunSummary(cfg config.Config, result pipeline.Result) {
	fmt.Println()
	PrintSeparator()
	PrintKeyValue("Fetched", fmt.Sprintf("%d records (%d rows skipped)", result.Fetched, result.Skipped), 10)
	PrintKeyValue("Eligible", fmt.Sprintf("%d", result.Eligible), 10)
	PrintSeparator()

	for i, a := range result.Alerts {
		marker := "•"
		if i < len(result.Report.Outcomes) {
			marker = outcomeMarker(result.Report.Outcomes[i].Status)
		}
		fmt.Printf("  %s %s (%s)  %.1f%% [%s]  closes %s\n",
			marker, a.Name, a.Exchange.Label(), a.GMPPercent, a.Tier,
			a.CloseDate.Format("2006-01-02"))
	}

	if len(result.Alerts) > 0 {
		fmt.Println()
	}

	if cfg.DryRun {
		PrintWarning(fmt.Sprintf("Dry run: %d message(s) composed, none sent", result.Report.WouldSend))
		return
	}

	if result.Report.Failed > 0 {
		PrintWarning(fmt.Sprintf("%d sent, %d failed", result.Report.Sent, result.Report.Failed))
		return
	}

	PrintSuccess(fmt.Sprintf("%d message(s) sent", result.Report.Sent))
}

func outcomeMarker(status notify.Status) string {
	switch status {
	case notify.StatusSent:
		return "✅"
	case notify.StatusFailed:
		return "❌"
	case notify.StatusWouldSend:
		return "📝"
	default:
		return "•"
	}
}
