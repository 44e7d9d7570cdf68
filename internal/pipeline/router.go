package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contract-intake/internal/backend"
	"github.com/sells-group/contract-intake/internal/cost"
	"github.com/sells-group/contract-intake/internal/model"
)

// RoutingConfig holds the routing constraints for one batch.
type RoutingConfig struct {
	// PrimaryEnabled gates the cloud backend entirely.
	PrimaryEnabled bool
	// PreferPrimary is the explicit user preference for the cloud backend.
	PreferPrimary bool
	// CostCeilingUSD caps cumulative cloud spend for the batch: a document
	// whose estimate would push past it routes to the local backend.
	CostCeilingUSD float64
	// SecondaryMaxBytes is the local backend's safe document size limit.
	SecondaryMaxBytes int64
}

// Router selects an analysis backend per document and executes the call
// with a single fallback retry against the other backend.
type Router struct {
	cfg       RoutingConfig
	estimator *cost.Estimator
	spend     *cost.Accumulator
	stats     *BackendStats
	backends  backend.Set
}

// NewRouter creates a Router. stats carries rolling success rates across
// batches and must be shared, not per-batch.
func NewRouter(cfg RoutingConfig, est *cost.Estimator, stats *BackendStats, backends backend.Set) *Router {
	return &Router{
		cfg:       cfg,
		estimator: est,
		spend:     &cost.Accumulator{},
		stats:     stats,
		backends:  backends,
	}
}

// Decide selects a backend for one document. Checks short-circuit in order:
// primary availability, cost ceiling, feature needs, size limit, user
// preference, then rolling success rate with secondary as the no-history
// default.
func (r *Router) Decide(meta model.DocumentMeta, feats backend.FeatureSet) model.ExtractionDecision {
	d := model.ExtractionDecision{
		ID:         uuid.NewString(),
		DocumentID: meta.ID,
		DecidedAt:  time.Now().UTC(),
	}

	primaryEst := r.estimator.Document(model.BackendPrimary, meta.ByteSize)

	switch {
	case !r.cfg.PrimaryEnabled || r.backends.Primary == nil || r.stats.Unreachable(string(model.BackendPrimary)):
		d.Backend = model.BackendSecondary
		d.Reason = model.ReasonNotConfigured

	case r.cfg.CostCeilingUSD > 0 && r.spend.Total()+primaryEst > r.cfg.CostCeilingUSD:
		d.Backend = model.BackendSecondary
		d.Reason = model.ReasonCostExceeded

	case !feats.Subset(backend.SecondaryCapabilities):
		d.Backend = model.BackendPrimary
		d.Reason = model.ReasonFeatureRequired

	case r.cfg.SecondaryMaxBytes > 0 && meta.ByteSize > r.cfg.SecondaryMaxBytes:
		d.Backend = model.BackendPrimary
		d.Reason = model.ReasonSizeExceeded

	case r.cfg.PreferPrimary:
		d.Backend = model.BackendPrimary
		d.Reason = model.ReasonPreference

	default:
		d.Backend = r.betterPerformer()
		d.Reason = model.ReasonPerformanceBased
	}

	d.EstimatedCostUSD = r.estimator.Document(d.Backend, meta.ByteSize)

	zap.L().Info("router: backend decided",
		zap.String("document_id", meta.ID),
		zap.String("backend", string(d.Backend)),
		zap.String("reason", string(d.Reason)),
		zap.Float64("estimated_cost_usd", d.EstimatedCostUSD),
		zap.Int64("byte_size", meta.ByteSize),
	)
	return d
}

// betterPerformer picks the backend with the higher rolling success rate,
// defaulting to secondary when neither has history.
func (r *Router) betterPerformer() model.Backend {
	pRate, pOK := r.stats.SuccessRate(string(model.BackendPrimary))
	sRate, sOK := r.stats.SuccessRate(string(model.BackendSecondary))

	switch {
	case !pOK && !sOK:
		return model.BackendSecondary
	case pOK && !sOK:
		return model.BackendPrimary
	case !pOK && sOK:
		return model.BackendSecondary
	case pRate > sRate:
		return model.BackendPrimary
	default:
		return model.BackendSecondary
	}
}

// Analyze decides, calls the chosen backend, and on failure retries exactly
// once against the other backend with Fallback set. Both failing yields a
// terminal error for this document; the batch continues without it.
// The returned decision's Backend is the backend that actually served.
func (r *Router) Analyze(ctx context.Context, meta model.DocumentMeta, feats backend.FeatureSet) (*model.DocumentAnalysisResult, model.ExtractionDecision, error) {
	d := r.Decide(meta, feats)

	result, firstErr := r.call(ctx, d.Backend, meta, feats)
	if firstErr == nil {
		return result, d, nil
	}

	other := d.Backend.Other()
	zap.L().Warn("router: backend failed, falling back",
		zap.String("document_id", meta.ID),
		zap.String("backend", string(d.Backend)),
		zap.String("fallback", string(other)),
		zap.String("failure_kind", string(backend.KindOf(firstErr))),
		zap.Error(firstErr),
	)

	if r.backends.For(other) == nil {
		return nil, d, eris.Wrapf(firstErr, "router: document %s not analyzable, %s backend not configured for fallback", meta.ID, other)
	}

	d.Fallback = true
	d.Backend = other
	d.EstimatedCostUSD = r.estimator.Document(other, meta.ByteSize)

	result, secondErr := r.call(ctx, other, meta, feats)
	if secondErr != nil {
		return nil, d, eris.Wrapf(secondErr, "router: document %s not analyzable, both backends failed (first: %v)", meta.ID, firstErr)
	}
	return result, d, nil
}

// call invokes one backend, recording the outcome in the rolling stats and
// the success cost in the batch accumulator.
func (r *Router) call(ctx context.Context, b model.Backend, meta model.DocumentMeta, feats backend.FeatureSet) (*model.DocumentAnalysisResult, error) {
	analyzer := r.backends.For(b)
	if analyzer == nil {
		return nil, eris.Errorf("router: %s backend not configured", b)
	}

	result, err := analyzer.Analyze(ctx, meta, feats)
	r.stats.Record(string(b), err == nil)
	if err != nil {
		return nil, err
	}

	if b == model.BackendPrimary {
		r.spend.Add(r.estimator.Document(b, meta.ByteSize))
	}
	return result, nil
}

// Spend returns the batch's accumulated cloud spend estimate.
func (r *Router) Spend() float64 {
	return r.spend.Total()
}
