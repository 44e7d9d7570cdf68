package pipeline

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/contract-intake/internal/backend"
	"github.com/sells-group/contract-intake/internal/cost"
	"github.com/sells-group/contract-intake/internal/model"
	"github.com/sells-group/contract-intake/internal/parse"
	"github.com/sells-group/contract-intake/internal/store"
)

// Options configures a Pipeline.
type Options struct {
	Routing     RoutingConfig
	Features    backend.FeatureSet
	ModuleKW    int
	Concurrency int
}

// Pipeline orchestrates batch analysis: per-document routing and field
// mapping in parallel, then consolidation, defaulting, and validation into
// one blueprint per batch.
type Pipeline struct {
	store     store.Store
	backends  backend.Set
	estimator *cost.Estimator
	stats     *BackendStats
	table     *model.FieldTable
	parsers   map[string]parse.Func
	opts      Options
}

// New creates a Pipeline. stats is shared across batches so routing keeps
// its rolling view of backend health.
func New(st store.Store, backends backend.Set, est *cost.Estimator, stats *BackendStats, table *model.FieldTable, opts Options) *Pipeline {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if len(opts.Features) == 0 {
		opts.Features = backend.FeatureSet{backend.FeatureText, backend.FeatureTables}
	}
	if table == nil {
		table = model.DefaultFieldTable()
	}
	return &Pipeline{
		store:     st,
		backends:  backends,
		estimator: est,
		stats:     stats,
		table:     table,
		parsers:   parse.Registry(opts.ModuleKW),
		opts:      opts,
	}
}

// AnalyzeBatch runs the full pipeline for one upload batch and persists the
// resulting blueprint and routing decisions. Individual document failures do
// not abort the batch; they are reported in the result. A batch where every
// document fails yields an error.
func (p *Pipeline) AnalyzeBatch(ctx context.Context, batchID string) (*model.BatchResult, error) {
	docs, err := p.store.DocumentsForBatch(ctx, batchID)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: load documents for batch %s", batchID)
	}
	if len(docs) == 0 {
		return nil, eris.Errorf("pipeline: batch %s has no documents", batchID)
	}

	zap.L().Info("pipeline: batch started",
		zap.String("batch_id", batchID),
		zap.Int("documents", len(docs)),
		zap.Int("concurrency", p.opts.Concurrency),
	)

	router := NewRouter(p.opts.Routing, p.estimator, p.stats, p.backends)

	var (
		mu        sync.Mutex
		mapped    []DocumentMapping
		decisions []model.ExtractionDecision
		failed    []model.DocumentFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Concurrency)

	for i, doc := range docs {
		g.Go(func() error {
			result, decision, aErr := router.Analyze(gctx, doc, p.opts.Features)

			mu.Lock()
			defer mu.Unlock()
			decisions = append(decisions, decision)

			if aErr != nil {
				failed = append(failed, model.DocumentFailure{
					DocumentID: doc.ID,
					Filename:   doc.OriginalFilename,
					Error:      aErr.Error(),
				})
				return nil // batch continues without this document
			}

			mapped = append(mapped, DocumentMapping{
				Meta:   doc,
				Result: result,
				Fields: MapToFields(result, p.table, p.parsers),
				Order:  i,
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, eris.Wrapf(err, "pipeline: batch %s", batchID)
	}

	if len(mapped) == 0 {
		return nil, eris.Errorf("pipeline: batch %s failed, no documents analyzable", batchID)
	}

	fields, sections := Consolidate(mapped)
	bp, report := Finalize(batchID, fields, sections, p.opts.ModuleKW)

	if err := p.store.SaveBlueprint(ctx, bp); err != nil {
		return nil, eris.Wrapf(err, "pipeline: save blueprint for batch %s", batchID)
	}
	if err := p.store.SaveDecisions(ctx, decisions); err != nil {
		return nil, eris.Wrapf(err, "pipeline: save decisions for batch %s", batchID)
	}

	zap.L().Info("pipeline: batch complete",
		zap.String("batch_id", batchID),
		zap.String("blueprint_id", bp.ID),
		zap.Int("analyzed", len(mapped)),
		zap.Int("failed", len(failed)),
		zap.Float64("overall_confidence", bp.OverallConfidence),
		zap.Float64("cloud_spend_usd", router.Spend()),
		zap.Bool("blocking_issues", report.Blocking()),
	)

	return &model.BatchResult{
		BatchID:    batchID,
		Blueprint:  bp,
		Decisions:  decisions,
		Validation: report,
		Failed:     failed,
	}, nil
}

// Correct applies user override values on top of the latest blueprint for a
// batch, re-validates, persists the corrected snapshot, and records the
// overrides for audit.
func (p *Pipeline) Correct(ctx context.Context, batchID string, overrides map[string]any) (*model.BatchResult, error) {
	bp, err := p.store.LatestBlueprint(ctx, batchID)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: load blueprint for batch %s", batchID)
	}
	if bp == nil {
		return nil, eris.Errorf("pipeline: no blueprint exists for batch %s", batchID)
	}

	corrected := ApplyOverrides(bp, overrides)
	report := Validate(corrected, p.opts.ModuleKW)

	if err := p.store.SaveBlueprint(ctx, corrected); err != nil {
		return nil, eris.Wrapf(err, "pipeline: save corrected blueprint for batch %s", batchID)
	}
	if err := p.store.SaveOverrides(ctx, batchID, overrides); err != nil {
		return nil, eris.Wrapf(err, "pipeline: save overrides for batch %s", batchID)
	}

	zap.L().Info("pipeline: overrides applied",
		zap.String("batch_id", batchID),
		zap.String("blueprint_id", corrected.ID),
		zap.Int("overrides", len(overrides)),
	)

	return &model.BatchResult{
		BatchID:    batchID,
		Blueprint:  corrected,
		Validation: report,
	}, nil
}
