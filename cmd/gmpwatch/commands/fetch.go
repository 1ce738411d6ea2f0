package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"gmpwatch/internal/external/investorgain"
	"gmpwatch/internal/ipo"
	"gmpwatch/pkg/config"
	"gmpwatch/pkg/httputil"
	"gmpwatch/pkg/logger"
)

// fetchCmd represents the fetch command
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch and print the live GMP report",
	Long: `Scrapes the GMP report page and prints every row the parser
normalized, without screening or sending anything. Useful for
checking what the scraper sees when the page layout shifts.

Example:
  gmpwatch fetch
  gmpwatch fetch --log-level debug`,
	RunE: runFetchReport,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetchReport(cmd *cobra.Command, args []string) error {
	fmt.Println("=== gmpwatch fetch ===")

	// 1. Resolve config
	cfg, err := resolveConfig(config.Overrides{})
	if err != nil {
		return fmt.Errorf("resolve config: %w", err)
	}

	// 2. Initialize logger
	log := logger.New(cfg)

	// 3. Fetch the report, single attempt
	client := investorgain.NewClient(httputil.New(log).DisableRetry(), log, cfg.SourceURL)
	records, skipped, err := client.Fetch(cmd.Context())
	if err != nil {
		return err
	}

	printReportTable(records)

	fmt.Println()
	PrintSuccess(fmt.Sprintf("%d record(s), %d malformed row(s) skipped", len(records), skipped))
	return nil
}

func printReportTable(records []ipo.Record) {
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		price := "-"
		if r.IssuePrice > 0 {
			price = fmt.Sprintf("₹%.0f", r.IssuePrice)
		}

		gmp := "-"
		if r.HasValue {
			gmp = fmt.Sprintf("₹%.0f", r.GMPValue)
		}

		est := "-"
		if pct, ok := r.Premium(); ok {
			est = fmt.Sprintf("%.1f%%", pct)
		}

		rows = append(rows, []string{
			r.Name,
			string(r.Exchange),
			r.CloseDate.Format("2006-01-02"),
			price,
			gmp,
			est,
		})
	}

	fmt.Println()
	PrintTable(
		[]string{"ISSUER", "EXCHANGE", "CLOSE", "PRICE", "GMP", "EST"},
		[]int{32, 9, 11, 8, 8, 8},
		rows,
	)
}
