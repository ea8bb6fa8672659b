package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/scheduler"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/scheduler/jobs"
	"github.com/benjamintsai23/second-high-auto-strategy/internal/strategyconfig"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/config"
	"github.com/benjamintsai23/second-high-auto-strategy/pkg/logger"
)

// schedulerCmd represents the scheduler command
var schedulerCmd = &cobra.Command{
	Use:   "scheduler",
	Short: "排程管理",
	Long: `啟動排程或管理排程工作。

Subcommands:
  start   - 啟動排程 (Ctrl+C 結束)
  list    - 列出排程工作與下次執行時間
  run     - 立即執行指定工作

Example:
  go run ./cmd/strategy scheduler start
  go run ./cmd/strategy scheduler list
  go run ./cmd/strategy scheduler run second_high_screening`,
}

var (
	schedulerStartCmd = &cobra.Command{
		Use:   "start",
		Short: "啟動排程",
		Long: `啟動排程並註冊所有工作 (Asia/Taipei):

- market_data_collection: 週一至週五 18:00 (月營收 + 日成交資料)
- second_high_screening: 週一至週五 21:00 (選股並推播)

週末自動略過，設定 FORCE_WEEKEND=true 可強制執行。`,
		RunE: runScheduler,
	}

	schedulerListCmd = &cobra.Command{
		Use:   "list",
		Short: "列出排程工作",
		RunE:  listJobs,
	}

	schedulerRunCmd = &cobra.Command{
		Use:   "run [job_name]",
		Short: "立即執行指定工作",
		Args:  cobra.ExactArgs(1),
		RunE:  runJob,
	}
)

func init() {
	rootCmd.AddCommand(schedulerCmd)
	schedulerCmd.AddCommand(schedulerStartCmd)
	schedulerCmd.AddCommand(schedulerListCmd)
	schedulerCmd.AddCommand(schedulerRunCmd)
}

// jobDeps are the collaborators of the scheduled jobs; nil is fine for listing
type jobDeps struct {
	runner    jobs.Runner
	collector jobs.Collector
	cache     jobs.CacheInvalidator
}

// registerJobs builds the scheduler with both jobs
func registerJobs(cfg *config.Config, strategy strategyconfig.Config, deps jobDeps, log *logger.Logger) (*scheduler.Scheduler, error) {
	loc := cfg.Location()
	gate := jobs.NewTradingDayGate(loc, cfg.Execution.ForceWeekend)

	collection, err := jobs.WeekdaySchedule(loc, strategy.Meta.CollectionTimeLocal)
	if err != nil {
		return nil, fmt.Errorf("collection schedule: %w", err)
	}
	decision, err := jobs.WeekdaySchedule(loc, strategy.Meta.DecisionTimeLocal)
	if err != nil {
		return nil, fmt.Errorf("decision schedule: %w", err)
	}

	sched := scheduler.New(loc, log, scheduler.WithRetry(2, 5*time.Minute))
	if err := sched.AddJob(jobs.NewDataCollectionJob(deps.collector, deps.cache, gate, collection, cfg.Strategy.Workers, log)); err != nil {
		return nil, err
	}
	if err := sched.AddJob(jobs.NewScreeningJob(deps.runner, gate, decision, log)); err != nil {
		return nil, err
	}
	return sched, nil
}

func runScheduler(cmd *cobra.Command, args []string) error {
	fmt.Println("=== Second-High Strategy Scheduler ===")

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := registerJobs(a.cfg, a.strategy, jobDeps{
		runner:    a.orchestrator,
		collector: a.collector,
		cache:     a.cache,
	}, a.log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	sched.Start()

	fmt.Println()
	PrintSuccess("Scheduler started successfully")
	printJobs(sched)
	fmt.Println("\nPress Ctrl+C to stop")

	<-ctx.Done()

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()
	fmt.Println("Scheduler stopped")

	return nil
}

func listJobs(cmd *cobra.Command, args []string) error {
	cfg, strategy, log, err := loadSettings()
	if err != nil {
		return err
	}

	sched, err := registerJobs(cfg, strategy, jobDeps{}, log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	printJobs(sched)
	return nil
}

func printJobs(sched *scheduler.Scheduler) {
	now := time.Now()
	stats := sched.GetJobStats()

	widths := []int{24, 36, 20}
	PrintTableHeader([]string{"JOB", "SCHEDULE", "NEXT RUN"}, widths)
	for _, name := range sched.GetAllJobs() {
		next := "-"
		if t, err := sched.NextRun(name, now); err == nil {
			next = t.Format("2006-01-02 15:04")
		}
		PrintTableRow([]string{name, stats[name].Schedule, next}, widths)
	}
}

func runJob(cmd *cobra.Command, args []string) error {
	jobName := args[0]

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	sched, err := registerJobs(a.cfg, a.strategy, jobDeps{
		runner:    a.orchestrator,
		collector: a.collector,
		cache:     a.cache,
	}, a.log)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}

	fmt.Printf("Running job: %s\n", jobName)
	result, err := sched.RunJob(ctx, jobName)
	if err != nil {
		return fmt.Errorf("run job: %w", err)
	}

	if result.Skipped {
		PrintWarning(fmt.Sprintf("Job skipped: %s", result.Error))
		return nil
	}
	PrintSuccess(fmt.Sprintf("Job %s completed in %s (%d attempt(s))", jobName, result.Duration.Round(time.Millisecond), result.Attempts))
	return nil
}
