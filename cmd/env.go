package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contract-intake/internal/backend"
	"github.com/sells-group/contract-intake/internal/cost"
	"github.com/sells-group/contract-intake/internal/model"
	"github.com/sells-group/contract-intake/internal/pipeline"
	"github.com/sells-group/contract-intake/internal/store"
)

// backendStats persists across batches within one process so routing keeps
// its rolling view of backend health.
var backendStats = pipeline.NewBackendStats()

// pipelineEnv bundles the wired pipeline with its store for commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

func (e *pipelineEnv) Close() {
	if err := e.Store.Close(); err != nil {
		zap.L().Warn("store close failed", zap.Error(err))
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "intake.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	text := backend.NewPdfToText(cfg.Local.PdfToTextPath)

	var backends backend.Set
	if cfg.Cloud.Key != "" {
		messenger := backend.NewSDKMessenger(cfg.Cloud.Key, cfg.Cloud.Model, int64(cfg.Cloud.MaxTokens))
		backends.Primary = backend.NewCloud(messenger, text, backend.CloudOptions{
			RequestsPerSecond: cfg.Cloud.RequestsPerSec,
			Timeout:           time.Duration(cfg.Cloud.TimeoutSecs) * time.Second,
		})
	} else {
		zap.L().Info("cloud backend not configured, routing local only")
	}
	backends.Secondary = backend.NewLocal(cfg.Local.Endpoint, text, time.Duration(cfg.Local.TimeoutSecs)*time.Second)

	table := model.DefaultFieldTable()
	if cfg.Fields.TablePath != "" {
		table, err = model.LoadFieldTable(cfg.Fields.TablePath)
		if err != nil {
			st.Close()
			return nil, eris.Wrap(err, "load field table")
		}
	}

	p := pipeline.New(st, backends, cost.NewEstimator(cost.DefaultRates()), backendStats, table, pipeline.Options{
		Routing: pipeline.RoutingConfig{
			PrimaryEnabled:    cfg.Routing.PrimaryEnabled,
			PreferPrimary:     cfg.Routing.PreferPrimary,
			CostCeilingUSD:    cfg.Routing.CostCeilingUSD,
			SecondaryMaxBytes: int64(cfg.Routing.SecondaryMaxMB) << 20,
		},
		ModuleKW:    int(cfg.Contract.ModuleKW),
		Concurrency: cfg.Batch.MaxConcurrentDocuments,
	})

	return &pipelineEnv{Store: st, Pipeline: p}, nil
}
