package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/contract-intake/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Used for local
// development and single-operator installs.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS documents (
	id                TEXT PRIMARY KEY,
	original_filename TEXT NOT NULL,
	byte_size         INTEGER NOT NULL,
	stored_path       TEXT NOT NULL,
	uploaded_at       DATETIME NOT NULL,
	contract_id       TEXT,
	batch_id          TEXT,
	CHECK ((contract_id IS NULL) <> (batch_id IS NULL))
);

CREATE TABLE IF NOT EXISTS blueprints (
	id                 TEXT PRIMARY KEY,
	batch_id           TEXT NOT NULL,
	fields             TEXT NOT NULL,
	rules_by_section   TEXT NOT NULL,
	overall_confidence REAL NOT NULL,
	superseded         INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS extraction_decisions (
	id                 TEXT PRIMARY KEY,
	document_id        TEXT NOT NULL,
	backend            TEXT NOT NULL,
	reason             TEXT NOT NULL,
	estimated_cost_usd REAL NOT NULL,
	fallback           INTEGER NOT NULL DEFAULT 0,
	decided_at         DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS correction_overrides (
	batch_id   TEXT PRIMARY KEY,
	fields     TEXT NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_documents_batch_id ON documents(batch_id);
CREATE INDEX IF NOT EXISTS idx_blueprints_batch_id ON blueprints(batch_id);
CREATE INDEX IF NOT EXISTS idx_decisions_document_id ON extraction_decisions(document_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) AddDocument(ctx context.Context, doc model.DocumentMeta) error {
	if err := validateDocumentKey(doc); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO documents (id, original_filename, byte_size, stored_path, uploaded_at, contract_id, batch_id)
		VALUES (?, ?, ?, ?, ?, NULLIF(?, ''), NULLIF(?, ''))
	`, doc.ID, doc.OriginalFilename, doc.ByteSize, doc.StoredPath, doc.UploadedAt, doc.ContractID, doc.BatchID)
	return eris.Wrapf(err, "sqlite: insert document %s", doc.ID)
}

func (s *SQLiteStore) DocumentsForBatch(ctx context.Context, batchID string) ([]model.DocumentMeta, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, original_filename, byte_size, stored_path, uploaded_at, COALESCE(contract_id, ''), COALESCE(batch_id, '')
		FROM documents
		WHERE batch_id = ?
		ORDER BY uploaded_at ASC
	`, batchID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query documents for batch %s", batchID)
	}
	defer rows.Close()

	var docs []model.DocumentMeta
	for rows.Next() {
		var d model.DocumentMeta
		if err := rows.Scan(&d.ID, &d.OriginalFilename, &d.ByteSize, &d.StoredPath, &d.UploadedAt, &d.ContractID, &d.BatchID); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan document")
		}
		docs = append(docs, d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: iterate documents")
}

func (s *SQLiteStore) SaveBlueprint(ctx context.Context, bp *model.ContractBlueprint) error {
	fieldsJSON, err := json.Marshal(bp.Fields)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal blueprint fields")
	}
	sectionsJSON, err := json.Marshal(bp.RulesBySection)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal blueprint sections")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin blueprint tx")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE blueprints SET superseded = 1 WHERE batch_id = ? AND superseded = 0`,
		bp.BatchID,
	); err != nil {
		return eris.Wrapf(err, "sqlite: supersede blueprints for batch %s", bp.BatchID)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO blueprints (id, batch_id, fields, rules_by_section, overall_confidence, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, bp.ID, bp.BatchID, string(fieldsJSON), string(sectionsJSON), bp.OverallConfidence, bp.CreatedAt); err != nil {
		return eris.Wrapf(err, "sqlite: insert blueprint %s", bp.ID)
	}

	return eris.Wrap(tx.Commit(), "sqlite: commit blueprint")
}

func (s *SQLiteStore) LatestBlueprint(ctx context.Context, batchID string) (*model.ContractBlueprint, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, batch_id, fields, rules_by_section, overall_confidence, created_at
		FROM blueprints
		WHERE batch_id = ? AND superseded = 0
		ORDER BY created_at DESC
		LIMIT 1
	`, batchID)

	var bp model.ContractBlueprint
	var fieldsJSON, sectionsJSON string
	err := row.Scan(&bp.ID, &bp.BatchID, &fieldsJSON, &sectionsJSON, &bp.OverallConfidence, &bp.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get blueprint for batch %s", batchID)
	}

	if err := json.Unmarshal([]byte(fieldsJSON), &bp.Fields); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal blueprint fields")
	}
	if err := json.Unmarshal([]byte(sectionsJSON), &bp.RulesBySection); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal blueprint sections")
	}
	return &bp, nil
}

func (s *SQLiteStore) SaveDecisions(ctx context.Context, decisions []model.ExtractionDecision) error {
	for _, d := range decisions {
		if _, err := s.db.ExecContext(ctx, `
			INSERT INTO extraction_decisions (id, document_id, backend, reason, estimated_cost_usd, fallback, decided_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, d.ID, d.DocumentID, string(d.Backend), string(d.Reason), d.EstimatedCostUSD, d.Fallback, d.DecidedAt); err != nil {
			return eris.Wrapf(err, "sqlite: insert decision for document %s", d.DocumentID)
		}
	}
	return nil
}

func (s *SQLiteStore) DecisionsForBatch(ctx context.Context, batchID string) ([]model.ExtractionDecision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT d.id, d.document_id, d.backend, d.reason, d.estimated_cost_usd, d.fallback, d.decided_at
		FROM extraction_decisions d
		JOIN documents doc ON doc.id = d.document_id
		WHERE doc.batch_id = ?
		ORDER BY d.decided_at ASC
	`, batchID)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: query decisions for batch %s", batchID)
	}
	defer rows.Close()

	var decisions []model.ExtractionDecision
	for rows.Next() {
		var d model.ExtractionDecision
		var backend, reason string
		if err := rows.Scan(&d.ID, &d.DocumentID, &backend, &reason, &d.EstimatedCostUSD, &d.Fallback, &d.DecidedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan decision")
		}
		d.Backend = model.Backend(backend)
		d.Reason = model.DecisionReason(reason)
		decisions = append(decisions, d)
	}
	return decisions, eris.Wrap(rows.Err(), "sqlite: iterate decisions")
}

func (s *SQLiteStore) SaveOverrides(ctx context.Context, batchID string, overrides map[string]any) error {
	data, err := json.Marshal(overrides)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal overrides")
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO correction_overrides (batch_id, fields, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (batch_id) DO UPDATE SET fields = excluded.fields, updated_at = excluded.updated_at
	`, batchID, string(data), time.Now().UTC())
	return eris.Wrapf(err, "sqlite: upsert overrides for batch %s", batchID)
}

func (s *SQLiteStore) OverridesForBatch(ctx context.Context, batchID string) (map[string]any, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT fields FROM correction_overrides WHERE batch_id = ?
	`, batchID)

	var data string
	err := row.Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get overrides for batch %s", batchID)
	}

	var overrides map[string]any
	if err := json.Unmarshal([]byte(data), &overrides); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal overrides")
	}
	return overrides, nil
}
