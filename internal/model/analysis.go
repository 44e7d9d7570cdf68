package model

import "strings"

// RawValueBag is the loose key/value map a backend extracts directly from a
// document, independent of rule structure. Consulted with priority over rule
// parameters: backends place their most confident direct answers here.
type RawValueBag map[string]any

// notSpecifiedSentinels are raw values that explicitly mean "the backend
// looked and found nothing", distinct from the key being absent entirely.
var notSpecifiedSentinels = map[string]bool{
	"":              true,
	"n/a":           true,
	"na":            true,
	"none":          true,
	"unknown":       true,
	"not specified": true,
	"not provided":  true,
}

// IsNotSpecified reports whether v is a sentinel "not specified" value.
func IsNotSpecified(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	if !ok {
		return false
	}
	return notSpecifiedSentinels[strings.ToLower(strings.TrimSpace(s))]
}

// Lookup returns the value for key if present and not a sentinel.
func (b RawValueBag) Lookup(key string) (any, bool) {
	v, ok := b[key]
	if !ok || IsNotSpecified(v) {
		return nil, false
	}
	return v, true
}

// DocumentSummary is the backend's document-level summary.
type DocumentSummary struct {
	ContractType  string   `json:"contract_type,omitempty"`
	Parties       []string `json:"parties,omitempty"`
	EffectiveDate string   `json:"effective_date,omitempty"`
}

// AnalysisStats holds backend-reported summary statistics.
type AnalysisStats struct {
	RuleCount  int     `json:"rule_count"`
	Confidence float64 `json:"confidence"`
}

// DocumentAnalysisResult is one document's full extraction output. Created
// once per successfully analyzed document and never mutated; re-analysis
// creates a new result superseding the prior one.
type DocumentAnalysisResult struct {
	DocumentID  string          `json:"document_id"`
	Summary     DocumentSummary `json:"summary"`
	Rules       []ExtractedRule `json:"rules"`
	RawValues   RawValueBag     `json:"raw_values"`
	RiskFactors []string        `json:"risk_factors,omitempty"`
	Anomalies   []string        `json:"anomalies,omitempty"`
	Stats       AnalysisStats   `json:"stats"`
}
