package main

import (
	"os"

	"github.com/benjamintsai23/second-high-auto-strategy/cmd/strategy/commands"
)

// main is the entry point for the strategy CLI
// ⭐ 統一 CLI 入口: go run ./cmd/strategy [command]
func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
