package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	strategyFile string
	migrationDir string
	verbose      bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "strategy",
	Short: "第二次創高策略 - 台股盤後突破選股",
	Long: `Second-High Auto Strategy CLI

台股上市櫃「整理後第二次創高」盤後選股。
S0 資料 → S1 基本過濾 → S2 八大條件 → S3 排序 → S4 Telegram 推播。

Usage:
  go run ./cmd/strategy [command]

Examples:
  go run ./cmd/strategy run
  go run ./cmd/strategy run --dry-run --date 2025-03-14
  go run ./cmd/strategy fetcher collect all
  go run ./cmd/strategy scheduler start
  go run ./cmd/strategy api`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&strategyFile, "strategy", "", "strategy YAML (default is $STRATEGY_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&migrationDir, "migrations", "migrations", "SQL migration directory, empty to skip")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
