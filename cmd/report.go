package main

import (
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/contract-intake/internal/model"
	"github.com/sells-group/contract-intake/internal/report"
)

var reportOut string

var reportCmd = &cobra.Command{
	Use:   "report <batch-id>",
	Short: "Export an XLSX review workbook for an analyzed batch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		batchID := args[0]

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		bp, err := st.LatestBlueprint(ctx, batchID)
		if err != nil {
			return err
		}
		if bp == nil {
			return eris.Errorf("no blueprint exists for batch %s", batchID)
		}

		decisions, err := st.DecisionsForBatch(ctx, batchID)
		if err != nil {
			return err
		}

		out := reportOut
		if out == "" {
			out = fmt.Sprintf("intake-%s.xlsx", batchID)
		}

		result := &model.BatchResult{
			BatchID:   batchID,
			Blueprint: bp,
			Decisions: decisions,
		}
		if err := report.WriteWorkbook(out, result); err != nil {
			return err
		}

		fmt.Println(out)
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "output path (default intake-<batch-id>.xlsx)")
	rootCmd.AddCommand(reportCmd)
}
