package store

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/contract-intake/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses. pgxmock satisfies it
// in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id                TEXT PRIMARY KEY,
	original_filename TEXT NOT NULL,
	byte_size         BIGINT NOT NULL,
	stored_path       TEXT NOT NULL,
	uploaded_at       TIMESTAMPTZ NOT NULL,
	contract_id       TEXT,
	batch_id          TEXT,
	CHECK ((contract_id IS NULL) <> (batch_id IS NULL))
);

CREATE TABLE IF NOT EXISTS blueprints (
	id                 TEXT PRIMARY KEY,
	batch_id           TEXT NOT NULL,
	fields             JSONB NOT NULL,
	rules_by_section   JSONB NOT NULL,
	overall_confidence DOUBLE PRECISION NOT NULL,
	superseded         BOOLEAN NOT NULL DEFAULT FALSE,
	created_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS extraction_decisions (
	id                 TEXT PRIMARY KEY,
	document_id        TEXT NOT NULL,
	backend            TEXT NOT NULL,
	reason             TEXT NOT NULL,
	estimated_cost_usd DOUBLE PRECISION NOT NULL,
	fallback           BOOLEAN NOT NULL DEFAULT FALSE,
	decided_at         TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS correction_overrides (
	batch_id   TEXT PRIMARY KEY,
	fields     JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_documents_batch_id ON documents(batch_id);
CREATE INDEX IF NOT EXISTS idx_documents_contract_id ON documents(contract_id);
CREATE INDEX IF NOT EXISTS idx_blueprints_batch_id ON blueprints(batch_id);
CREATE INDEX IF NOT EXISTS idx_decisions_document_id ON extraction_decisions(document_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) AddDocument(ctx context.Context, doc model.DocumentMeta) error {
	if err := validateDocumentKey(doc); err != nil {
		return err
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (id, original_filename, byte_size, stored_path, uploaded_at, contract_id, batch_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), NULLIF($7, ''))
	`, doc.ID, doc.OriginalFilename, doc.ByteSize, doc.StoredPath, doc.UploadedAt, doc.ContractID, doc.BatchID)
	return eris.Wrapf(err, "postgres: insert document %s", doc.ID)
}

func (s *PostgresStore) DocumentsForBatch(ctx context.Context, batchID string) ([]model.DocumentMeta, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, original_filename, byte_size, stored_path, uploaded_at, COALESCE(contract_id, ''), COALESCE(batch_id, '')
		FROM documents
		WHERE batch_id = $1
		ORDER BY uploaded_at ASC
	`, batchID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query documents for batch %s", batchID)
	}
	defer rows.Close()

	var docs []model.DocumentMeta
	for rows.Next() {
		var d model.DocumentMeta
		if err := rows.Scan(&d.ID, &d.OriginalFilename, &d.ByteSize, &d.StoredPath, &d.UploadedAt, &d.ContractID, &d.BatchID); err != nil {
			return nil, eris.Wrap(err, "postgres: scan document")
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: iterate documents")
}

func (s *PostgresStore) SaveBlueprint(ctx context.Context, bp *model.ContractBlueprint) error {
	fieldsJSON, err := json.Marshal(bp.Fields)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal blueprint fields")
	}
	sectionsJSON, err := json.Marshal(bp.RulesBySection)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal blueprint sections")
	}

	// A new snapshot supersedes prior ones for the batch; nothing merges.
	if _, err := s.pool.Exec(ctx, `
		UPDATE blueprints SET superseded = TRUE WHERE batch_id = $1 AND NOT superseded
	`, bp.BatchID); err != nil {
		return eris.Wrapf(err, "postgres: supersede blueprints for batch %s", bp.BatchID)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO blueprints (id, batch_id, fields, rules_by_section, overall_confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, bp.ID, bp.BatchID, fieldsJSON, sectionsJSON, bp.OverallConfidence, bp.CreatedAt)
	return eris.Wrapf(err, "postgres: insert blueprint %s", bp.ID)
}

func (s *PostgresStore) LatestBlueprint(ctx context.Context, batchID string) (*model.ContractBlueprint, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, batch_id, fields, rules_by_section, overall_confidence, created_at
		FROM blueprints
		WHERE batch_id = $1 AND NOT superseded
		ORDER BY created_at DESC
		LIMIT 1
	`, batchID)

	var bp model.ContractBlueprint
	var fieldsJSON, sectionsJSON []byte
	err := row.Scan(&bp.ID, &bp.BatchID, &fieldsJSON, &sectionsJSON, &bp.OverallConfidence, &bp.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get blueprint for batch %s", batchID)
	}

	if err := json.Unmarshal(fieldsJSON, &bp.Fields); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal blueprint fields")
	}
	if err := json.Unmarshal(sectionsJSON, &bp.RulesBySection); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal blueprint sections")
	}
	return &bp, nil
}

func (s *PostgresStore) SaveDecisions(ctx context.Context, decisions []model.ExtractionDecision) error {
	for _, d := range decisions {
		if _, err := s.pool.Exec(ctx, `
			INSERT INTO extraction_decisions (id, document_id, backend, reason, estimated_cost_usd, fallback, decided_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
		`, d.ID, d.DocumentID, string(d.Backend), string(d.Reason), d.EstimatedCostUSD, d.Fallback, d.DecidedAt); err != nil {
			return eris.Wrapf(err, "postgres: insert decision for document %s", d.DocumentID)
		}
	}
	return nil
}

func (s *PostgresStore) DecisionsForBatch(ctx context.Context, batchID string) ([]model.ExtractionDecision, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.id, d.document_id, d.backend, d.reason, d.estimated_cost_usd, d.fallback, d.decided_at
		FROM extraction_decisions d
		JOIN documents doc ON doc.id = d.document_id
		WHERE doc.batch_id = $1
		ORDER BY d.decided_at ASC
	`, batchID)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: query decisions for batch %s", batchID)
	}
	defer rows.Close()

	var decisions []model.ExtractionDecision
	for rows.Next() {
		var d model.ExtractionDecision
		var backend, reason string
		if err := rows.Scan(&d.ID, &d.DocumentID, &backend, &reason, &d.EstimatedCostUSD, &d.Fallback, &d.DecidedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan decision")
		}
		d.Backend = model.Backend(backend)
		d.Reason = model.DecisionReason(reason)
		decisions = append(decisions, d)
	}
	return decisions, eris.Wrap(rows.Err(), "postgres: iterate decisions")
}

func (s *PostgresStore) SaveOverrides(ctx context.Context, batchID string, overrides map[string]any) error {
	data, err := json.Marshal(overrides)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal overrides")
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO correction_overrides (batch_id, fields, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (batch_id) DO UPDATE SET fields = EXCLUDED.fields, updated_at = now()
	`, batchID, data)
	return eris.Wrapf(err, "postgres: upsert overrides for batch %s", batchID)
}

func (s *PostgresStore) OverridesForBatch(ctx context.Context, batchID string) (map[string]any, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT fields FROM correction_overrides WHERE batch_id = $1
	`, batchID)

	var data []byte
	err := row.Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get overrides for batch %s", batchID)
	}

	var overrides map[string]any
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal overrides")
	}
	return overrides, nil
}

// validateDocumentKey enforces the contract-or-batch key invariant before
// the row reaches the database CHECK constraint, so callers get a readable
// error.
func validateDocumentKey(doc model.DocumentMeta) error {
	hasContract := doc.ContractID != ""
	hasBatch := doc.BatchID != ""
	if hasContract == hasBatch {
		return eris.Errorf("store: document %s must set exactly one of contract_id and batch_id", doc.ID)
	}
	return nil
}
