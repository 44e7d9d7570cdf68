package model

// RuleCategory classifies an extracted rule by contract domain.
type RuleCategory string

const (
	CategoryPayment     RuleCategory = "payment"
	CategoryPerformance RuleCategory = "performance"
	CategoryCompliance  RuleCategory = "compliance"
	CategoryRisk        RuleCategory = "risk"
	CategoryOperational RuleCategory = "operational"
	CategorySystem      RuleCategory = "system"
	CategoryTechnical   RuleCategory = "technical"
)

// RuleKind describes the structural form of an extracted rule.
type RuleKind string

const (
	KindConditional RuleKind = "conditional"
	KindCalculation RuleKind = "calculation"
	KindThreshold   RuleKind = "threshold"
	KindValidation  RuleKind = "validation"
	KindConstraint  RuleKind = "constraint"
	KindWorkflow    RuleKind = "workflow"
)

// Section groups rules for display in the blueprint.
type Section string

const (
	SectionFinancial Section = "financial"
	SectionTechnical Section = "technical"
	SectionOperating Section = "operating"
)

// ExtractedRule is one atomic fact asserted by an analysis backend about a
// document. Immutable once produced; owned by the document's analysis result.
type ExtractedRule struct {
	ID          string         `json:"id"`
	Category    RuleCategory   `json:"category"`
	Kind        RuleKind       `json:"kind"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Condition   string         `json:"condition,omitempty"`
	Action      string         `json:"action,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Confidence  float64        `json:"confidence"`
	SourceText  string         `json:"source_text,omitempty"`
}

// SectionFor maps a rule category to its display section.
func SectionFor(cat RuleCategory) Section {
	switch cat {
	case CategoryPayment, CategoryRisk:
		return SectionFinancial
	case CategorySystem, CategoryTechnical:
		return SectionTechnical
	default:
		return SectionOperating
	}
}

// ValidCategory reports whether cat is one of the fixed rule categories.
func ValidCategory(cat RuleCategory) bool {
	switch cat {
	case CategoryPayment, CategoryPerformance, CategoryCompliance,
		CategoryRisk, CategoryOperational, CategorySystem, CategoryTechnical:
		return true
	}
	return false
}
