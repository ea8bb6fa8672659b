package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/brain"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/panel"
)

// runCmd executes one pipeline run
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "執行一次完整選股流程",
	Long: `S0 → S4 完整執行一次並推播結果。

這個指令:
- 讀取資料庫中的價量與月營收
- 套用基本過濾與八大條件
- 排序候選股並發送 Telegram 報告
- 失敗時發送錯誤通知

Example:
  go run ./cmd/strategy run
  go run ./cmd/strategy run --date 2025-03-14 --dry-run`,
	RunE: runPipeline,
}

var (
	runDate   string
	runDryRun bool
	runID     string
	runPrint  bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVar(&runDate, "date", "", "as-of date YYYY-MM-DD (default: latest stored session)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "build the report without sending it")
	runCmd.Flags().StringVar(&runID, "run-id", "", "run identifier (default: random UUID)")
	runCmd.Flags().BoolVar(&runPrint, "print", false, "print the report messages")
}

// parseAsOf reads an optional YYYY-MM-DD flag value
func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(panel.DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}

func runPipeline(cmd *cobra.Command, args []string) error {
	asOf, err := parseAsOf(runDate)
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	id := runID
	if id == "" && a.cfg.Execution.RunID != "" {
		id = "gh-" + a.cfg.Execution.RunID
	}

	PrintJobHeader(JobMetadata{
		JobType:   "第二次創高策略",
		RunID:     id,
		Mode:      a.cfg.Execution.Mode,
		AsOf:      runDate,
		Timestamp: time.Now().In(a.loc).Format("2006-01-02 15:04:05"),
	})

	if a.notifier != nil && !runDryRun {
		if err := a.notifier.Send(ctx, a.formatter.StartupNotice(a.cfg.Execution.Mode)); err != nil {
			a.log.WithError(err).Warn("Failed to send startup notice")
		}
	}

	result, err := a.orchestrator.Run(ctx, brain.RunConfig{AsOf: asOf, RunID: id, DryRun: runDryRun})
	printRunResult(result, runPrint)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}
	return nil
}

// printRunResult prints stages and candidates of a finished run
func printRunResult(result *brain.RunResult, withMessages bool) {
	if result == nil {
		return
	}

	fmt.Println()
	widths := []int{12, 9, 8, 8, 10}
	PrintTableHeader([]string{"STAGE", "STATUS", "IN", "OUT", "DURATION"}, widths)
	for _, sr := range result.Stages {
		status := "ok"
		switch {
		case !sr.Success:
			status = "failed"
		case sr.Skipped:
			status = "skipped"
		}
		PrintTableRow([]string{
			string(sr.Stage),
			status,
			strconv.Itoa(sr.InputCount),
			strconv.Itoa(sr.OutputCount),
			fmt.Sprintf("%dms", sr.Duration),
		}, widths)
	}

	candidates := result.Candidates()
	if len(candidates) > 0 {
		fmt.Println()
		items := make([]string, 0, len(candidates))
		for _, c := range candidates {
			name := c.Name
			if name == "" {
				name = c.Symbol
			}
			items = append(items, fmt.Sprintf("%s (%s)  close %.2f  breakout %.2f%%  score %d", name, c.Symbol, c.Close, c.BreakoutRatio, c.TechnicalScore))
		}
		PrintNumberedList(items)
	}

	if withMessages {
		for i, msg := range result.Messages {
			fmt.Println()
			PrintSeparator()
			fmt.Printf("message %d/%d\n", i+1, len(result.Messages))
			PrintSeparator()
			fmt.Println(msg)
		}
	}

	fmt.Println()
	if result.Success {
		PrintJobCompletion(result.RunID, result.Duration.Seconds())
		if !result.Delivered {
			PrintInfo("Report not delivered (dry run or Telegram not configured)")
		}
		return
	}
	PrintError(fmt.Sprintf("Run %s failed at %s: %v", result.RunID, result.FailedStage, result.Error))
}

// signalContext returns a context cancelled on Ctrl+C / SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
