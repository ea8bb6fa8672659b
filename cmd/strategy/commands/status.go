package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "系統狀態檢查",
	Long: `檢查資料庫、Redis、Telegram 設定與資料新鮮度。

顯示資訊:
- Database: 連線與 pool 狀態
- Redis: 是否啟用與連線
- Telegram: 是否設定
- Data: 最新交易日、股票數、資料品質

Example:
  go run ./cmd/strategy status
  go run ./cmd/strategy status --quality`,
	RunE: runStatus,
}

var (
	statusQuality bool
)

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusQuality, "quality", false, "load the panels and run the quality gate")
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	const keyWidth = 16

	fmt.Println()
	PrintDoubleSeparator()
	fmt.Printf("  %s v%s (%s)\n", a.strategy.Meta.StrategyID, a.strategy.Meta.Version, a.strategyHash[:12])
	PrintDoubleSeparator()

	// Database
	health, err := a.db.HealthCheck(ctx)
	if err != nil {
		PrintKeyValue("database", "❌ "+err.Error(), keyWidth)
	} else {
		PrintKeyValue("database", fmt.Sprintf("✅ %s (%d/%d conns)",
			health.ResponseTime.Round(time.Millisecond), health.Stats.AcquiredConns, health.Stats.MaxConns), keyWidth)
	}

	// Redis
	switch {
	case !a.redis.Enabled():
		PrintKeyValue("redis", "disabled", keyWidth)
	case a.redis.Ping(ctx) != nil:
		PrintKeyValue("redis", "❌ unreachable", keyWidth)
	default:
		PrintKeyValue("redis", "✅ connected", keyWidth)
	}

	// Telegram
	if a.notifier != nil {
		PrintKeyValue("telegram", "✅ configured", keyWidth)
	} else {
		PrintKeyValue("telegram", "⚠️  not configured", keyWidth)
	}
	PrintKeyValue("execution mode", a.cfg.Execution.Mode, keyWidth)
	PrintKeyValue("markets", strings.Join(a.cfg.MOPS.Markets, ", "), keyWidth)

	// Data
	PrintSeparator()
	stocks, err := a.stocks.ListActive(ctx)
	if err != nil {
		PrintKeyValue("active stocks", "❌ "+err.Error(), keyWidth)
	} else {
		PrintKeyValue("active stocks", fmt.Sprint(len(stocks)), keyWidth)
	}

	if !statusQuality {
		return nil
	}

	panels, err := a.loader.Load(ctx, time.Time{})
	if err != nil {
		PrintKeyValue("panels", "❌ "+err.Error(), keyWidth)
		return nil
	}
	snapshot, err := a.gate.Check(ctx, panels)
	if err != nil {
		PrintKeyValue("quality", "❌ "+err.Error(), keyWidth)
		return nil
	}

	PrintKeyValue("latest session", panels.AsOf().Format(panel.DateLayout), keyWidth)
	PrintKeyValue("trading days", fmt.Sprint(snapshot.TradingDays), keyWidth)
	PrintKeyValue("valid stocks", fmt.Sprintf("%d / %d", snapshot.ValidStocks, snapshot.TotalStocks), keyWidth)
	PrintKeyValue("quality score", fmt.Sprintf("%.1f%%", snapshot.QualityScore*100), keyWidth)
	for _, w := range snapshot.Warnings {
		PrintWarning(w)
	}
	return nil
}
