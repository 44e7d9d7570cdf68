package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contract-intake/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "contract-intake",
	Short: "Contract extraction and field-mapping pipeline",
	Long:  "Analyzes uploaded contract documents via cloud or on-prem backends, maps extracted rules to canonical fields, and assembles a validated contract blueprint per batch.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
