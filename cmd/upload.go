package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/contract-intake/internal/model"
)

var (
	uploadBatchID    string
	uploadContractID string
)

var uploadCmd = &cobra.Command{
	Use:   "upload [files...]",
	Short: "Register contract documents for analysis",
	Long:  "Registers document files under a batch ID for later analysis, or under a permanent contract ID. Exactly one of --batch and --contract must be set.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if (uploadBatchID == "") == (uploadContractID == "") {
			return eris.New("exactly one of --batch and --contract is required")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		if err := st.Migrate(ctx); err != nil {
			return eris.Wrap(err, "migrate store")
		}

		for _, path := range args {
			info, err := os.Stat(path)
			if err != nil {
				return eris.Wrapf(err, "stat %s", path)
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return eris.Wrapf(err, "resolve %s", path)
			}

			doc := model.DocumentMeta{
				ID:               uuid.NewString(),
				OriginalFilename: filepath.Base(path),
				ByteSize:         info.Size(),
				StoredPath:       abs,
				UploadedAt:       time.Now().UTC(),
				ContractID:       uploadContractID,
				BatchID:          uploadBatchID,
			}
			if err := st.AddDocument(ctx, doc); err != nil {
				return eris.Wrapf(err, "register %s", path)
			}

			zap.L().Info("document registered",
				zap.String("document_id", doc.ID),
				zap.String("filename", doc.OriginalFilename),
				zap.Int64("byte_size", doc.ByteSize),
			)
			fmt.Printf("%s  %s\n", doc.ID, doc.OriginalFilename)
		}

		return nil
	},
}

func init() {
	uploadCmd.Flags().StringVar(&uploadBatchID, "batch", "", "upload batch ID")
	uploadCmd.Flags().StringVar(&uploadContractID, "contract", "", "permanent contract ID")
	rootCmd.AddCommand(uploadCmd)
}
