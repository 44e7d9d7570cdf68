package model

import "time"

// Canonical blueprint field keys. The field mapping table and the defaulter
// both refer to fields by these keys.
const (
	FieldCustomerName      = "customer_name"
	FieldSiteAddress       = "site_address"
	FieldContractType      = "contract_type"
	FieldEffectiveDate     = "effective_date"
	FieldCapacityKW        = "capacity_kw"
	FieldTermYears         = "term_years"
	FieldBaseRate          = "base_rate"
	FieldEscalationPct     = "escalation_pct"
	FieldVoltage           = "voltage"
	FieldInstallationType  = "installation_type"
	FieldOutputWarrantyPct = "output_warranty_pct"
	FieldEffWarrantyPct    = "efficiency_warranty_pct"
	FieldCriticalOutputKW  = "guaranteed_critical_output_kw"
	FieldDemandMinKW       = "demand_min_kw"
	FieldDemandMaxKW       = "demand_max_kw"
	FieldPaymentTermsDays  = "payment_terms_days"
)

// Voltage is the fixed nominal service voltage enumeration.
type Voltage string

const (
	Voltage208   Voltage = "208V"
	Voltage240   Voltage = "240V"
	Voltage480   Voltage = "480V"
	Voltage4160  Voltage = "4160V"
	Voltage13200 Voltage = "13.2kV"
)

// FieldSource records where a field value came from.
type FieldSource string

const (
	SourceRawValue     FieldSource = "raw-value"     // backend's direct value bag
	SourceRuleParam    FieldSource = "rule-parameter" // scanned from rule parameters
	SourceDefault      FieldSource = "default"        // documented business default
	SourceUserOverride FieldSource = "user-override"  // explicit user correction
)

// FieldValue is one canonical field with provenance and confidence. A value
// always traces to at least one rule or raw bag entry, or to an explicit
// documented default.
type FieldValue struct {
	FieldKey   string      `json:"field_key"`
	Value      any         `json:"value"`
	DocumentID string      `json:"document_id,omitempty"`
	RuleIDs    []string    `json:"rule_ids,omitempty"`
	Source     FieldSource `json:"source"`
	SourceKey  string      `json:"source_key,omitempty"`
	Confidence float64     `json:"confidence"`
}

// PartialFieldSet is the mapper output for one document: canonical fields
// that had a successful extraction attempt. Fields with no successful
// attempt are absent from the map, not nil entries.
type PartialFieldSet map[string]FieldValue

// SectionRule pairs a supporting rule with its originating document for
// display grouping.
type SectionRule struct {
	DocumentID string        `json:"document_id"`
	Rule       ExtractedRule `json:"rule"`
}

// ContractBlueprint is the consolidated, validated canonical contract field
// set. Built once per analysis batch; a re-analysis supersedes the prior
// blueprint rather than merging with it.
type ContractBlueprint struct {
	ID                string                    `json:"id"`
	BatchID           string                    `json:"batch_id"`
	Fields            map[string]FieldValue     `json:"fields"`
	RulesBySection    map[Section][]SectionRule `json:"rules_by_section"`
	OverallConfidence float64                   `json:"overall_confidence"`
	CreatedAt         time.Time                 `json:"created_at"`
}

// Field returns the field value for key, if set.
func (bp *ContractBlueprint) Field(key string) (FieldValue, bool) {
	fv, ok := bp.Fields[key]
	return fv, ok
}

// ValidationSeverity distinguishes blocking errors from review warnings.
type ValidationSeverity string

const (
	SeverityError   ValidationSeverity = "error"
	SeverityWarning ValidationSeverity = "warning"
)

// ValidationIssue is one finding from blueprint validation.
type ValidationIssue struct {
	FieldKey string             `json:"field_key"`
	Code     string             `json:"code"`
	Message  string             `json:"message"`
	Severity ValidationSeverity `json:"severity"`
}

// ValidationReport collects validation findings. Errors block contract
// creation; warnings are surfaced but non-blocking.
type ValidationReport struct {
	Errors   []ValidationIssue `json:"errors"`
	Warnings []ValidationIssue `json:"warnings"`
}

// AddError appends a blocking issue.
func (r *ValidationReport) AddError(fieldKey, code, message string) {
	r.Errors = append(r.Errors, ValidationIssue{
		FieldKey: fieldKey, Code: code, Message: message, Severity: SeverityError,
	})
}

// AddWarning appends a non-blocking issue.
func (r *ValidationReport) AddWarning(fieldKey, code, message string) {
	r.Warnings = append(r.Warnings, ValidationIssue{
		FieldKey: fieldKey, Code: code, Message: message, Severity: SeverityWarning,
	})
}

// Blocking reports whether the report contains any hard errors.
func (r *ValidationReport) Blocking() bool {
	return len(r.Errors) > 0
}

// BatchResult is the outcome of analyzing one upload batch: the single
// value the API/CLI layer consumes.
type BatchResult struct {
	BatchID    string               `json:"batch_id"`
	Blueprint  *ContractBlueprint   `json:"blueprint,omitempty"`
	Decisions  []ExtractionDecision `json:"decisions"`
	Validation *ValidationReport    `json:"validation,omitempty"`
	Failed     []DocumentFailure    `json:"failed,omitempty"`
}
