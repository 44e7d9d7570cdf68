package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contract-intake/internal/model"
)

const defaultLocalEndpoint = "http://localhost:8741/v1/analyze"

// Local is the secondary document-analysis backend: a self-hosted analyzer
// service reached over HTTP. It supports text and table extraction only.
type Local struct {
	endpoint string
	text     TextReader
	client   *http.Client
}

// NewLocal creates the secondary backend. Empty endpoint uses the default
// local service address.
func NewLocal(endpoint string, text TextReader, timeout time.Duration) *Local {
	if endpoint == "" {
		endpoint = defaultLocalEndpoint
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Local{
		endpoint: endpoint,
		text:     text,
		client:   &http.Client{Timeout: timeout},
	}
}

type localAnalyzeRequest struct {
	DocumentID string   `json:"document_id"`
	Filename   string   `json:"filename"`
	Features   []string `json:"features"`
	Text       string   `json:"text"`
}

// Analyze sends the document text to the local analyzer service and decodes
// the analysis payload. Returns a typed Failure on error.
func (l *Local) Analyze(ctx context.Context, doc model.DocumentMeta, feats FeatureSet) (*model.DocumentAnalysisResult, error) {
	name := string(model.BackendSecondary)

	if !feats.Subset(SecondaryCapabilities) {
		return nil, NewFailure(name, FailureMalformed,
			eris.Errorf("local backend cannot provide requested features %v", feats))
	}

	text, err := l.text.ReadText(ctx, doc.StoredPath, true)
	if err != nil {
		return nil, NewFailure(name, FailureMalformed, err)
	}

	features := make([]string, len(feats))
	for i, f := range feats {
		features[i] = string(f)
	}
	body, err := json.Marshal(localAnalyzeRequest{
		DocumentID: doc.ID,
		Filename:   doc.OriginalFilename,
		Features:   features,
		Text:       text,
	})
	if err != nil {
		return nil, NewFailure(name, FailureMalformed, eris.Wrap(err, "backend: marshal local request"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, NewFailure(name, FailureMalformed, eris.Wrap(err, "backend: create local request"))
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, NewFailure(name, KindOf(err), eris.Wrap(err, "backend: local analyzer call"))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewFailure(name, FailureMalformed, eris.Wrap(err, "backend: read local response"))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewFailure(name, classifyStatus(resp.StatusCode),
			eris.Errorf("backend: local analyzer returned %d: %s", resp.StatusCode, truncate(string(raw), 200)))
	}

	result, err := Decode(name, doc.ID, raw)
	if err != nil {
		return nil, err
	}

	zap.L().Info("backend: local analysis complete",
		zap.String("document_id", doc.ID),
		zap.Int("rules", len(result.Rules)),
		zap.Float64("confidence", result.Stats.Confidence),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
