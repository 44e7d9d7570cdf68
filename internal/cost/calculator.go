// Package cost estimates per-document analysis spend and tracks the running
// total for a batch. Estimates feed the routing decision; actuals are for
// audit reporting only.
package cost

import (
	"sync"

	"github.com/sells-group/contract-intake/internal/model"
)

// Rates holds per-backend pricing configuration.
type Rates struct {
	Cloud CloudRate `yaml:"cloud" mapstructure:"cloud"`
	Local LocalRate `yaml:"local" mapstructure:"local"`
}

// CloudRate prices the cloud analysis model (USD per million tokens).
type CloudRate struct {
	InputPerMTok  float64 `yaml:"input_per_mtok" mapstructure:"input_per_mtok"`
	OutputPerMTok float64 `yaml:"output_per_mtok" mapstructure:"output_per_mtok"`
	// TokensPerByte approximates prompt tokens from document byte size.
	TokensPerByte float64 `yaml:"tokens_per_byte" mapstructure:"tokens_per_byte"`
	// OutputTokens is the assumed response size per document.
	OutputTokens float64 `yaml:"output_tokens" mapstructure:"output_tokens"`
}

// LocalRate prices the self-hosted analyzer. Amortized compute, effectively
// flat per document.
type LocalRate struct {
	PerDocument float64 `yaml:"per_document" mapstructure:"per_document"`
}

// DefaultRates returns the default pricing rates.
func DefaultRates() Rates {
	return Rates{
		Cloud: CloudRate{
			InputPerMTok:  3.00,
			OutputPerMTok: 15.00,
			TokensPerByte: 0.35,
			OutputTokens:  4000,
		},
		Local: LocalRate{PerDocument: 0.002},
	}
}

// Estimator computes estimated analysis cost per document per backend.
type Estimator struct {
	rates Rates
}

// NewEstimator creates an Estimator with the given rates.
func NewEstimator(rates Rates) *Estimator {
	return &Estimator{rates: rates}
}

// Document estimates the cost of analyzing one document of the given byte
// size on the given backend.
func (e *Estimator) Document(b model.Backend, byteSize int64) float64 {
	if b == model.BackendSecondary {
		return e.rates.Local.PerDocument
	}
	inTokens := float64(byteSize) * e.rates.Cloud.TokensPerByte
	inCost := (inTokens / 1e6) * e.rates.Cloud.InputPerMTok
	outCost := (e.rates.Cloud.OutputTokens / 1e6) * e.rates.Cloud.OutputPerMTok
	return inCost + outCost
}

// Accumulator tracks running spend across a batch. Safe for concurrent use.
type Accumulator struct {
	mu    sync.Mutex
	spent float64
}

// Add records spend and returns the new total.
func (a *Accumulator) Add(usd float64) float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.spent += usd
	return a.spent
}

// Total returns the spend so far.
func (a *Accumulator) Total() float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.spent
}
