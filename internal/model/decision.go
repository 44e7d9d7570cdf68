package model

import "time"

// Backend identifies a document-analysis backend.
type Backend string

const (
	BackendPrimary   Backend = "primary"   // cloud analysis service
	BackendSecondary Backend = "secondary" // local analysis service
)

// Other returns the opposite backend, used for single-retry fallback.
func (b Backend) Other() Backend {
	if b == BackendPrimary {
		return BackendSecondary
	}
	return BackendPrimary
}

// DecisionReason codes why the router chose a backend.
type DecisionReason string

const (
	ReasonNotConfigured    DecisionReason = "not-configured"
	ReasonCostExceeded     DecisionReason = "cost-exceeded"
	ReasonFeatureRequired  DecisionReason = "feature-required"
	ReasonSizeExceeded     DecisionReason = "size-exceeded"
	ReasonPreference       DecisionReason = "preference"
	ReasonPerformanceBased DecisionReason = "performance-based"
)

// ExtractionDecision is the routing outcome for one document, attached to
// the document's processing record for audit and cost reporting.
type ExtractionDecision struct {
	ID               string         `json:"id"`
	DocumentID       string         `json:"document_id"`
	Backend          Backend        `json:"backend"`
	Reason           DecisionReason `json:"reason"`
	EstimatedCostUSD float64        `json:"estimated_cost_usd"`
	Fallback         bool           `json:"fallback"`
	DecidedAt        time.Time      `json:"decided_at"`
}
