package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/s0_data"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/s0_data/collector"
)

// fetcherCmd represents the fetcher command
var fetcherCmd = &cobra.Command{
	Use:   "fetcher",
	Short: "市場資料收集",
	Long: `TWSE / TPEx 日成交資料與 MOPS 月營收收集。

Example:
  go run ./cmd/strategy fetcher collect all
  go run ./cmd/strategy fetcher collect prices --months 14
  go run ./cmd/strategy fetcher collect revenue --month 2025-02`,
}

var collectCmd = &cobra.Command{
	Use:   "collect [all|prices|revenue]",
	Short: "收集資料並寫入資料庫",
	Long: `收集資料並寫入資料庫。

Targets:
  all      - 最新已公告月營收 (同時更新股票清單) + 當月日成交
  prices   - 日成交資料，--months 指定回補月數 (首次建議 14 個月)
  revenue  - 月營收，--month 指定月份 (預設最新已公告月份)`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"all", "prices", "revenue"},
	RunE:      runCollect,
}

var (
	collectMonths  int
	collectMonth   string
	collectWorkers int
)

func init() {
	rootCmd.AddCommand(fetcherCmd)
	fetcherCmd.AddCommand(collectCmd)

	collectCmd.Flags().IntVar(&collectMonths, "months", 1, "price months to collect, ending this month")
	collectCmd.Flags().StringVar(&collectMonth, "month", "", "revenue month YYYY-MM (default: latest published)")
	collectCmd.Flags().IntVar(&collectWorkers, "workers", 0, "concurrent workers (default: $STRATEGY_WORKERS)")
}

// revenueMonth resolves the --month flag
func revenueMonth(flag string, now time.Time) (time.Time, error) {
	if flag == "" {
		return s0_data.LatestPublishedMonth(now), nil
	}
	m, err := time.Parse("2006-01", flag)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid month %q (expected YYYY-MM)", flag)
	}
	return m, nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	target := args[0]

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	now := time.Now().In(a.loc)
	workers := collectWorkers
	if workers <= 0 {
		workers = a.cfg.Strategy.Workers
	}
	cfg := collector.Config{Workers: workers}

	PrintJobHeader(JobMetadata{
		JobType:   "資料收集: " + target,
		AsOf:      now.Format("2006-01-02"),
		Timestamp: now.Format("2006-01-02 15:04:05"),
	})
	start := time.Now()

	switch target {
	case "all":
		if err := a.collector.CollectAll(ctx, now, cfg); err != nil {
			return fmt.Errorf("collect all: %w", err)
		}

	case "revenue":
		month, err := revenueMonth(collectMonth, now)
		if err != nil {
			return err
		}
		rows, err := a.collector.CollectRevenue(ctx, month)
		if err != nil {
			return fmt.Errorf("collect revenue: %w", err)
		}
		PrintKeyValue("revenue month", month.Format("2006-01"), 14)
		PrintKeyValue("rows", fmt.Sprint(rows), 14)

	case "prices":
		results, err := a.collector.CollectPrices(ctx, collector.Months(now, collectMonths), cfg)
		if err != nil {
			return fmt.Errorf("collect prices: %w", err)
		}
		rows, failed := 0, 0
		for _, r := range results {
			rows += r.PriceCount
			if r.Error != nil {
				failed++
			}
		}
		PrintKeyValue("stocks", fmt.Sprint(len(results)), 14)
		PrintKeyValue("rows", fmt.Sprint(rows), 14)
		if failed > 0 {
			PrintWarning(fmt.Sprintf("%d stocks failed, rerun to retry", failed))
		}
	}

	fmt.Println()
	PrintSuccess(fmt.Sprintf("Collection completed in %.2fs", time.Since(start).Seconds()))
	return nil
}
