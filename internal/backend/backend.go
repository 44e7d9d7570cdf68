// Package backend defines the document-analysis backend abstraction and its
// two implementations: the cloud analysis service (primary) and the local
// analysis service (secondary).
package backend

import (
	"context"

	"github.com/sells-group/contract-intake/internal/model"
)

// Feature is a document-analysis capability a caller may request.
type Feature string

const (
	FeatureText   Feature = "text"
	FeatureTables Feature = "tables"
	FeatureForms  Feature = "forms"
	FeatureLayout Feature = "layout"
)

// FeatureSet is the set of capabilities requested for one document.
type FeatureSet []Feature

// Subset reports whether every requested feature is in capabilities.
func (fs FeatureSet) Subset(capabilities FeatureSet) bool {
	for _, f := range fs {
		found := false
		for _, c := range capabilities {
			if f == c {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// SecondaryCapabilities is what the local backend can provide. Forms and
// layout analysis require the cloud service.
var SecondaryCapabilities = FeatureSet{FeatureText, FeatureTables}

// Analyzer analyzes one document and returns its extraction result.
// Implementations treat the result as immutable once returned.
type Analyzer interface {
	Analyze(ctx context.Context, doc model.DocumentMeta, feats FeatureSet) (*model.DocumentAnalysisResult, error)
}

// Set holds the configured analyzers keyed by backend identity. A nil entry
// means the backend is not configured.
type Set struct {
	Primary   Analyzer
	Secondary Analyzer
}

// For returns the analyzer for the given backend, or nil.
func (s Set) For(b model.Backend) Analyzer {
	if b == model.BackendPrimary {
		return s.Primary
	}
	return s.Secondary
}
