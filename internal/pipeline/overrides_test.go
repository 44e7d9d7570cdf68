package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contract-intake/internal/model"
)

func TestApplyOverridesReplacesValueKeepsProvenance(t *testing.T) {
	bp := &model.ContractBlueprint{
		ID:      "bp-1",
		BatchID: "batch-1",
		Fields: map[string]model.FieldValue{
			model.FieldBaseRate: {
				FieldKey:   model.FieldBaseRate,
				Value:      0.085,
				DocumentID: "doc-1",
				RuleIDs:    []string{"doc-1-rule-0"},
				Source:     model.SourceRuleParam,
				Confidence: 0.9,
			},
		},
	}

	out := ApplyOverrides(bp, map[string]any{model.FieldBaseRate: 0.0847})

	fv := out.Fields[model.FieldBaseRate]
	assert.Equal(t, 0.0847, fv.Value)
	assert.Equal(t, model.SourceUserOverride, fv.Source)
	assert.Equal(t, 1.0, fv.Confidence)
	// Extraction provenance survives the correction.
	assert.Equal(t, "doc-1", fv.DocumentID)
	assert.Equal(t, []string{"doc-1-rule-0"}, fv.RuleIDs)
}

func TestApplyOverridesLeavesOriginalUntouched(t *testing.T) {
	bp := &model.ContractBlueprint{
		ID:      "bp-1",
		BatchID: "batch-1",
		Fields: map[string]model.FieldValue{
			model.FieldTermYears: {FieldKey: model.FieldTermYears, Value: 10, Source: model.SourceRawValue, Confidence: 0.8},
		},
	}

	out := ApplyOverrides(bp, map[string]any{model.FieldTermYears: 15})

	require.NotEqual(t, bp.ID, out.ID, "correction is a new snapshot")
	assert.Equal(t, 10, bp.Fields[model.FieldTermYears].Value)
	assert.Equal(t, 15, out.Fields[model.FieldTermYears].Value)
}

func TestApplyOverridesAddsNewField(t *testing.T) {
	bp := &model.ContractBlueprint{
		ID:      "bp-1",
		BatchID: "batch-1",
		Fields:  map[string]model.FieldValue{},
	}

	out := ApplyOverrides(bp, map[string]any{model.FieldCustomerName: "Acme Foods LLC"})

	fv, ok := out.Fields[model.FieldCustomerName]
	require.True(t, ok)
	assert.Equal(t, "Acme Foods LLC", fv.Value)
	assert.Equal(t, model.SourceUserOverride, fv.Source)
	assert.Empty(t, fv.DocumentID)
}
