package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/benjamintsai23/second-high-auto-strategy/internal/strategyconfig"
)

// configCmd groups configuration commands
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "策略參數",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "顯示生效中的策略參數",
	Long: `顯示 YAML 與預設值合併後的策略參數與其 hash。

Example:
  go run ./cmd/strategy config show
  go run ./cmd/strategy config show --strategy config/strategy/second_high_v2.yaml`,
	RunE: showConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
}

func showConfig(cmd *cobra.Command, args []string) error {
	_, strategy, _, err := loadSettings()
	if err != nil {
		return err
	}

	out, err := renderStrategy(strategy)
	if err != nil {
		return err
	}
	fmt.Print(out)
	return nil
}

// renderStrategy prints the effective parameters as YAML with a hash header
func renderStrategy(cfg strategyconfig.Config) (string, error) {
	hash, err := strategyconfig.Hash(cfg)
	if err != nil {
		return "", fmt.Errorf("hash strategy: %w", err)
	}
	body, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("marshal strategy: %w", err)
	}
	return fmt.Sprintf("# %s v%s\n# hash: %s\n%s", cfg.Meta.StrategyID, cfg.Meta.Version, hash, body), nil
}
