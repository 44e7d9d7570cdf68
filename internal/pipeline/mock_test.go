package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/sells-group/contract-intake/internal/backend"
	"github.com/sells-group/contract-intake/internal/model"
)

// fakeAnalyzer returns a canned result or error and counts calls. failDocs
// marks individual document IDs that always fail regardless of err.
type fakeAnalyzer struct {
	mu       sync.Mutex
	result   *model.DocumentAnalysisResult
	err      error
	failDocs map[string]bool
	calls    int
}

func (f *fakeAnalyzer) Analyze(_ context.Context, doc model.DocumentMeta, _ backend.FeatureSet) (*model.DocumentAnalysisResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.failDocs[doc.ID] {
		return nil, errors.New("analysis failed")
	}
	if f.result != nil {
		return f.result, nil
	}
	return &model.DocumentAnalysisResult{
		DocumentID: doc.ID,
		RawValues:  model.RawValueBag{},
		Stats:      model.AnalysisStats{Confidence: 0.9},
	}, nil
}

func (f *fakeAnalyzer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// memStore is an in-memory Store for pipeline tests.
type memStore struct {
	mu         sync.Mutex
	docs       map[string][]model.DocumentMeta
	blueprints map[string][]*model.ContractBlueprint
	decisions  []model.ExtractionDecision
	overrides  map[string]map[string]any
}

func newMemStore() *memStore {
	return &memStore{
		docs:       make(map[string][]model.DocumentMeta),
		blueprints: make(map[string][]*model.ContractBlueprint),
		overrides:  make(map[string]map[string]any),
	}
}

func (m *memStore) AddDocument(_ context.Context, doc model.DocumentMeta) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.BatchID] = append(m.docs[doc.BatchID], doc)
	return nil
}

func (m *memStore) DocumentsForBatch(_ context.Context, batchID string) ([]model.DocumentMeta, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[batchID], nil
}

func (m *memStore) SaveBlueprint(_ context.Context, bp *model.ContractBlueprint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.blueprints[bp.BatchID] = append(m.blueprints[bp.BatchID], bp)
	return nil
}

func (m *memStore) LatestBlueprint(_ context.Context, batchID string) (*model.ContractBlueprint, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	bps := m.blueprints[batchID]
	if len(bps) == 0 {
		return nil, nil
	}
	return bps[len(bps)-1], nil
}

func (m *memStore) SaveDecisions(_ context.Context, decisions []model.ExtractionDecision) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.decisions = append(m.decisions, decisions...)
	return nil
}

func (m *memStore) DecisionsForBatch(_ context.Context, _ string) ([]model.ExtractionDecision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.decisions, nil
}

func (m *memStore) SaveOverrides(_ context.Context, batchID string, overrides map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.overrides[batchID] = overrides
	return nil
}

func (m *memStore) OverridesForBatch(_ context.Context, batchID string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.overrides[batchID], nil
}

func (m *memStore) Migrate(_ context.Context) error { return nil }
func (m *memStore) Close() error                    { return nil }
