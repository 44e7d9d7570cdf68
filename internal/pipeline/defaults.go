package pipeline

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/contract-intake/internal/model"
)

// Conservative defaults for non-critical operational fields. An incorrect
// but plausible value here is low-risk and editable in review.
const (
	DefaultVoltage           = model.Voltage480
	DefaultInstallationType  = "rooftop"
	DefaultOutputWarrantyPct = 95.0
	DefaultEffWarrantyPct    = 85.0

	// Demand bounds derive from rated capacity when absent.
	demandMinFraction = 0.25
	demandMaxFraction = 1.10

	// BaseRateFloorUSD is the sanity floor below which an extracted base
	// rate is treated as noise rather than a price.
	BaseRateFloorUSD = 0.01
)

var titleCaser = cases.Title(language.English)

// ApplyDefaults fills conservative defaults for safe operational fields and
// normalizes extracted text fields. Fields gating core commercial terms —
// contract term, customer name, base rate — are never defaulted: they stay
// absent so the consuming UI flags them for mandatory human review.
func ApplyDefaults(fields map[string]model.FieldValue) {
	setDefault := func(key string, value any) {
		if _, ok := fields[key]; ok {
			return
		}
		fields[key] = model.FieldValue{
			FieldKey:   key,
			Value:      value,
			Source:     model.SourceDefault,
			Confidence: 0,
		}
	}

	setDefault(model.FieldVoltage, DefaultVoltage)
	setDefault(model.FieldInstallationType, DefaultInstallationType)
	setDefault(model.FieldOutputWarrantyPct, DefaultOutputWarrantyPct)
	setDefault(model.FieldEffWarrantyPct, DefaultEffWarrantyPct)

	// Demand range defaults need a capacity to derive from.
	if capacity, ok := fields[model.FieldCapacityKW]; ok {
		if kw, ok := capacity.Value.(int); ok && kw > 0 {
			setDefault(model.FieldDemandMinKW, demandMinFraction*float64(kw))
			setDefault(model.FieldDemandMaxKW, demandMaxFraction*float64(kw))
		}
	}

	// An extracted base rate below the sanity floor is dropped, not
	// replaced: silently substituting a price would be a correctness bug.
	if rate, ok := fields[model.FieldBaseRate]; ok {
		if f, ok := rate.Value.(float64); ok && f < BaseRateFloorUSD {
			delete(fields, model.FieldBaseRate)
		}
	}

	// Normalize extracted customer names ("ACME FOODS LLC" reads poorly on
	// a contract form). Provenance is unchanged; only presentation casing.
	if cust, ok := fields[model.FieldCustomerName]; ok {
		if s, ok := cust.Value.(string); ok {
			cust.Value = normalizeName(s)
			fields[model.FieldCustomerName] = cust
		}
	}
}

// corporateSuffixes stay upper-cased through title normalization.
var corporateSuffixes = map[string]string{
	"Llc": "LLC", "Llp": "LLP", "Lp": "LP", "Inc": "Inc.", "Pc": "PC",
}

func normalizeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	words := strings.Fields(titleCaser.String(strings.ToLower(s)))
	for i, w := range words {
		trimmed := strings.TrimSuffix(w, ".")
		if fixed, ok := corporateSuffixes[trimmed]; ok {
			words[i] = fixed
		}
	}
	return strings.Join(words, " ")
}
