package pipeline

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sells-group/contract-intake/internal/model"
)

// Commercially sane bounds checked as warnings, not hard errors.
var (
	escalationMinPct = 0.0
	escalationMaxPct = 5.0
	standardTerms    = map[int]bool{5: true, 10: true, 15: true, 20: true}
)

// Finalize applies business defaults to the consolidated field set, builds
// the blueprint, and validates domain invariants. Validation errors block
// contract creation but never the analysis itself: the user sees the data
// and corrects it.
func Finalize(batchID string, fields map[string]model.FieldValue, sections map[model.Section][]model.SectionRule, moduleKW int) (*model.ContractBlueprint, *model.ValidationReport) {
	ApplyDefaults(fields)

	bp := &model.ContractBlueprint{
		ID:             uuid.NewString(),
		BatchID:        batchID,
		Fields:         fields,
		RulesBySection: sections,
		CreatedAt:      time.Now().UTC(),
	}
	bp.OverallConfidence = overallConfidence(fields)

	return bp, Validate(bp, moduleKW)
}

// overallConfidence is the mean confidence of extracted (non-default)
// fields. The mean never exceeds the maximum contributing field confidence.
func overallConfidence(fields map[string]model.FieldValue) float64 {
	var sum float64
	var n int
	for _, fv := range fields {
		if fv.Source == model.SourceDefault {
			continue
		}
		sum += fv.Confidence
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// Validate checks the blueprint's domain invariants, separating blocking
// errors from review warnings.
func Validate(bp *model.ContractBlueprint, moduleKW int) *model.ValidationReport {
	report := &model.ValidationReport{}

	var capacityKW int
	if fv, ok := bp.Field(model.FieldCapacityKW); ok {
		kw, isWhole := wholeValue(fv.Value)
		switch {
		case !isWhole || kw <= 0:
			report.AddError(model.FieldCapacityKW, "capacity_invalid",
				fmt.Sprintf("capacity %v is not a positive kW value", fv.Value))
		case moduleKW > 0 && kw%moduleKW != 0:
			report.AddError(model.FieldCapacityKW, "capacity_not_module_multiple",
				fmt.Sprintf("capacity %d kW is not a multiple of the %d kW module size", kw, moduleKW))
		default:
			capacityKW = kw
		}
	}

	if fv, ok := bp.Field(model.FieldBaseRate); ok {
		if rate, isNum := numericValue(fv.Value); !isNum || rate <= 0 {
			report.AddError(model.FieldBaseRate, "base_rate_not_positive",
				fmt.Sprintf("base rate %v must be strictly positive", fv.Value))
		}
	}

	if fv, ok := bp.Field(model.FieldCriticalOutputKW); ok && capacityKW > 0 {
		if out, isNum := numericValue(fv.Value); isNum && out > float64(capacityKW) {
			report.AddError(model.FieldCriticalOutputKW, "critical_output_exceeds_capacity",
				fmt.Sprintf("guaranteed critical output %.0f kW exceeds rated capacity %d kW", out, capacityKW))
		}
	}

	if fv, ok := bp.Field(model.FieldEscalationPct); ok {
		if esc, isNum := numericValue(fv.Value); isNum && (esc < escalationMinPct || esc > escalationMaxPct) {
			report.AddWarning(model.FieldEscalationPct, "escalation_outside_band",
				fmt.Sprintf("escalation %.2f%% is outside the usual %.0f-%.0f%% band", esc, escalationMinPct, escalationMaxPct))
		}
	}

	if fv, ok := bp.Field(model.FieldTermYears); ok {
		if years, isWhole := wholeValue(fv.Value); isWhole && !standardTerms[years] {
			report.AddWarning(model.FieldTermYears, "nonstandard_term",
				fmt.Sprintf("%d-year term is not one of the standard terms", years))
		}
	}

	return report
}

// numericValue coerces a field value to float64. Values arrive as the
// mapper's native int/float64 types in-process, as float64 after a JSON
// round-trip through the store, and as strings from CLI corrections.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

// wholeValue coerces a field value to an integer, rejecting fractional
// values in any representation.
func wholeValue(v any) (int, bool) {
	f, ok := numericValue(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	return int(f), true
}
