package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contract-intake/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock), mock
}

func TestPostgresStore_AddDocument(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	uploaded := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO documents`).
		WithArgs("doc-1", "site-lease.pdf", int64(2048), "/data/doc-1.pdf", uploaded, "", "batch-7").
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.AddDocument(context.Background(), model.DocumentMeta{
		ID:               "doc-1",
		OriginalFilename: "site-lease.pdf",
		ByteSize:         2048,
		StoredPath:       "/data/doc-1.pdf",
		UploadedAt:       uploaded,
		BatchID:          "batch-7",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_AddDocument_KeyInvariant(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	tests := []struct {
		name string
		doc  model.DocumentMeta
	}{
		{"neither key", model.DocumentMeta{ID: "doc-1"}},
		{"both keys", model.DocumentMeta{ID: "doc-1", ContractID: "contract-1", BatchID: "batch-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.AddDocument(context.Background(), tt.doc)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "exactly one of contract_id and batch_id")
		})
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBlueprint_SupersedesPrior(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE blueprints SET superseded = TRUE`).
		WithArgs("batch-7").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`INSERT INTO blueprints`).
		WithArgs("bp-1", "batch-7", pgxmock.AnyArg(), pgxmock.AnyArg(), 0.82, pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveBlueprint(context.Background(), &model.ContractBlueprint{
		ID:                "bp-1",
		BatchID:           "batch-7",
		Fields:            map[string]model.FieldValue{},
		RulesBySection:    map[model.Section][]model.SectionRule{},
		OverallConfidence: 0.82,
		CreatedAt:         time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestBlueprint_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT id, batch_id, fields, rules_by_section, overall_confidence, created_at`).
		WithArgs("no-such-batch").
		WillReturnError(pgx.ErrNoRows)

	bp, err := s.LatestBlueprint(context.Background(), "no-such-batch")
	require.NoError(t, err)
	assert.Nil(t, bp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_LatestBlueprint(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	created := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	fields := []byte(`{"capacity_kw":{"field_key":"capacity_kw","value":4875,"source":"raw-value","confidence":0.9}}`)
	sections := []byte(`{"financial":[{"document_id":"doc-1","rule":{"id":"r-1","category":"payment","kind":"calculation","name":"Base rate","confidence":0.9}}]}`)

	mock.ExpectQuery(`SELECT id, batch_id, fields, rules_by_section, overall_confidence, created_at`).
		WithArgs("batch-7").
		WillReturnRows(pgxmock.NewRows([]string{"id", "batch_id", "fields", "rules_by_section", "overall_confidence", "created_at"}).
			AddRow("bp-1", "batch-7", fields, sections, 0.82, created))

	bp, err := s.LatestBlueprint(context.Background(), "batch-7")
	require.NoError(t, err)
	require.NotNil(t, bp)
	assert.Equal(t, "bp-1", bp.ID)
	assert.Equal(t, 0.82, bp.OverallConfidence)
	assert.Equal(t, float64(4875), bp.Fields[model.FieldCapacityKW].Value)
	assert.Len(t, bp.RulesBySection[model.SectionFinancial], 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveDecisions(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	decided := time.Date(2026, 3, 14, 11, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO extraction_decisions`).
		WithArgs("dec-1", "doc-1", "primary", "preference", 0.0137, false, decided).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO extraction_decisions`).
		WithArgs("dec-2", "doc-2", "secondary", "size-exceeded", 0.002, true, decided).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveDecisions(context.Background(), []model.ExtractionDecision{
		{ID: "dec-1", DocumentID: "doc-1", Backend: model.BackendPrimary, Reason: model.ReasonPreference, EstimatedCostUSD: 0.0137, DecidedAt: decided},
		{ID: "dec-2", DocumentID: "doc-2", Backend: model.BackendSecondary, Reason: model.ReasonSizeExceeded, EstimatedCostUSD: 0.002, Fallback: true, DecidedAt: decided},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveOverrides_Upsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`ON CONFLICT`).
		WithArgs("batch-7", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveOverrides(context.Background(), "batch-7", map[string]any{"voltage": "480V"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_OverridesForBatch_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT fields FROM correction_overrides`).
		WithArgs("no-such-batch").
		WillReturnError(pgx.ErrNoRows)

	overrides, err := s.OverridesForBatch(context.Background(), "no-such-batch")
	require.NoError(t, err)
	assert.Nil(t, overrides)
	assert.NoError(t, mock.ExpectationsWereMet())
}
