package store

import (
	"context"

	"github.com/sells-group/contract-intake/internal/model"
)

// Store defines persistence for the contract intake pipeline: uploaded
// document records, blueprint snapshots, routing decisions, and user
// correction overrides.
//
// A document row is keyed by exactly one of a permanent contract ID or a
// temporary batch ID, never both, never neither. A new blueprint snapshot
// supersedes prior snapshots for the same batch; it never merges with them.
// Overrides live beside blueprints so the original extraction record stays
// auditable.
type Store interface {
	// Documents
	AddDocument(ctx context.Context, doc model.DocumentMeta) error
	DocumentsForBatch(ctx context.Context, batchID string) ([]model.DocumentMeta, error)

	// Blueprints
	SaveBlueprint(ctx context.Context, bp *model.ContractBlueprint) error
	LatestBlueprint(ctx context.Context, batchID string) (*model.ContractBlueprint, error)

	// Routing decisions
	SaveDecisions(ctx context.Context, decisions []model.ExtractionDecision) error
	DecisionsForBatch(ctx context.Context, batchID string) ([]model.ExtractionDecision, error)

	// Correction overrides
	SaveOverrides(ctx context.Context, batchID string, overrides map[string]any) error
	OverridesForBatch(ctx context.Context, batchID string) (map[string]any, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// Registry is the document-registry view the pipeline consumes: the ordered
// document list for a batch. Both Store implementations satisfy it.
type Registry interface {
	DocumentsForBatch(ctx context.Context, batchID string) ([]model.DocumentMeta, error)
}
