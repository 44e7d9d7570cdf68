package pipeline

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sells-group/contract-intake/internal/model"
)

// ApplyOverrides produces a new blueprint with user corrections applied over
// the extracted values. The original blueprint is untouched: corrections are
// a fixed-key map recorded beside the extraction record, never over it, so
// the audit trail survives.
func ApplyOverrides(bp *model.ContractBlueprint, overrides map[string]any) *model.ContractBlueprint {
	out := &model.ContractBlueprint{
		ID:                uuid.NewString(),
		BatchID:           bp.BatchID,
		Fields:            make(map[string]model.FieldValue, len(bp.Fields)),
		RulesBySection:    bp.RulesBySection,
		OverallConfidence: bp.OverallConfidence,
		CreatedAt:         time.Now().UTC(),
	}
	for k, v := range bp.Fields {
		out.Fields[k] = v
	}

	for key, value := range overrides {
		prior, had := out.Fields[key]
		fv := model.FieldValue{
			FieldKey:   key,
			Value:      value,
			Source:     model.SourceUserOverride,
			Confidence: 1.0,
		}
		if had {
			// Keep the extraction provenance visible alongside the correction.
			fv.DocumentID = prior.DocumentID
			fv.RuleIDs = prior.RuleIDs
		}
		out.Fields[key] = fv

		zap.L().Info("overrides: field corrected",
			zap.String("batch_id", bp.BatchID),
			zap.String("field", key),
			zap.Bool("had_extraction", had),
		)
	}

	return out
}
