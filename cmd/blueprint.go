package main

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
)

var blueprintCmd = &cobra.Command{
	Use:   "blueprint <batch-id>",
	Short: "Show the latest blueprint for a batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		bp, err := st.LatestBlueprint(ctx, args[0])
		if err != nil {
			return err
		}
		if bp == nil {
			return eris.Errorf("no blueprint exists for batch %s", args[0])
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(bp)
	},
}

var correctCmd = &cobra.Command{
	Use:   "correct <batch-id> <field=value>...",
	Short: "Apply field corrections to the latest blueprint",
	Long:  "Overrides extracted field values on the latest blueprint for a batch, re-validates, and persists the corrected snapshot. Values are stored as given.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		overrides := make(map[string]any, len(args)-1)
		for _, pair := range args[1:] {
			key, value, ok := strings.Cut(pair, "=")
			if !ok || key == "" {
				return eris.Errorf("invalid override %q, want field=value", pair)
			}
			overrides[key] = value
		}

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		result, err := env.Pipeline.Correct(ctx, args[0], overrides)
		if err != nil {
			return err
		}

		return printResult(result)
	},
}

func init() {
	rootCmd.AddCommand(blueprintCmd)
	rootCmd.AddCommand(correctCmd)
}
