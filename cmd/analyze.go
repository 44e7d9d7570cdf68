package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/contract-intake/internal/model"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <batch-id>",
	Short: "Analyze an upload batch into a contract blueprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.AnalyzeBatch(ctx, args[0])
		if err != nil {
			return err
		}

		return printResult(result)
	},
}

func printResult(result *model.BatchResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
}
