package backend

import (
	"context"
	"strings"
	"time"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/contract-intake/internal/model"
)

const cloudSystemPrompt = `You are a contract analysis engine for on-site power
generation agreements. Given the text of one contract document, extract every
discrete contractual rule you can identify and the direct answer values you
are most confident about.

Respond with a single JSON object and nothing else, in this shape:
{
  "summary": {"contractType": "...", "parties": ["..."], "effectiveDate": "..."},
  "rules": [{"id": "...", "category": "payment|performance|compliance|risk|operational|system|technical",
             "type": "conditional|calculation|threshold|validation|constraint|workflow",
             "name": "...", "description": "...", "condition": "...", "action": "...",
             "parameters": {"...": "..."}, "confidence": 0.0, "sourceText": "..."}],
  "rawValues": {"customerName": "...", "systemCapacity": "...", "baseRate": "...",
                "contractTerm": "...", "escalationRate": "...", "voltage": "...",
                "installationType": "...", "guaranteedCriticalOutput": "..."},
  "riskFactors": ["..."], "anomalies": ["..."],
  "stats": {"ruleCount": 0, "confidence": 0.0}
}

Put your most confident direct answers in rawValues. Use the literal string
"not specified" for values the document does not state. Confidence values are
in [0,1].`

// Messenger is the narrow slice of the cloud model API the backend uses.
type Messenger interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// sdkMessenger implements Messenger with the official Anthropic SDK.
type sdkMessenger struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewSDKMessenger creates a Messenger backed by the Anthropic API.
func NewSDKMessenger(apiKey, modelID string, maxTokens int64) Messenger {
	if maxTokens <= 0 {
		maxTokens = 8192
	}
	return &sdkMessenger{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     modelID,
		maxTokens: maxTokens,
	}
}

func (m *sdkMessenger) Complete(ctx context.Context, system, user string) (string, error) {
	msg, err := m.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(m.model),
		MaxTokens: m.maxTokens,
		System:    []sdk.TextBlockParam{{Text: system}},
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(user))},
	})
	if err != nil {
		return "", eris.Wrap(err, "backend: cloud completion")
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return out.String(), nil
}

// Cloud is the primary document-analysis backend.
type Cloud struct {
	messenger Messenger
	text      TextReader
	limiter   *rate.Limiter
	timeout   time.Duration
}

// CloudOptions tunes the cloud backend.
type CloudOptions struct {
	// RequestsPerSecond throttles API calls across concurrent documents.
	RequestsPerSecond float64
	// Timeout bounds a single analysis call.
	Timeout time.Duration
}

// NewCloud creates the primary backend.
func NewCloud(m Messenger, text TextReader, opts CloudOptions) *Cloud {
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 2
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 3 * time.Minute
	}
	return &Cloud{
		messenger: m,
		text:      text,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		timeout:   timeout,
	}
}

// Analyze extracts rules and raw values from one document via the cloud
// model. Returns a typed Failure on error.
func (c *Cloud) Analyze(ctx context.Context, doc model.DocumentMeta, feats FeatureSet) (*model.DocumentAnalysisResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, NewFailure(string(model.BackendPrimary), FailureTimeout, err)
	}

	// Layout preservation matters once anything beyond plain text is asked for.
	preserveLayout := !feats.Subset(FeatureSet{FeatureText})
	text, err := c.text.ReadText(ctx, doc.StoredPath, preserveLayout)
	if err != nil {
		return nil, NewFailure(string(model.BackendPrimary), FailureMalformed, err)
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	raw, err := c.messenger.Complete(callCtx, cloudSystemPrompt, buildUserPrompt(doc, feats, text))
	if err != nil {
		return nil, NewFailure(string(model.BackendPrimary), KindOf(err), err)
	}

	result, err := Decode(string(model.BackendPrimary), doc.ID, []byte(extractJSON(raw)))
	if err != nil {
		return nil, err
	}

	zap.L().Info("backend: cloud analysis complete",
		zap.String("document_id", doc.ID),
		zap.Int("rules", len(result.Rules)),
		zap.Float64("confidence", result.Stats.Confidence),
		zap.Duration("elapsed", time.Since(start)),
	)
	return result, nil
}

// buildUserPrompt frames the document text with the requested features.
func buildUserPrompt(doc model.DocumentMeta, feats FeatureSet, text string) string {
	var b strings.Builder
	b.WriteString("Document: ")
	b.WriteString(doc.OriginalFilename)
	b.WriteString("\nRequested analysis features: ")
	for i, f := range feats {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(string(f))
	}
	b.WriteString("\n\n---\n")
	b.WriteString(text)
	return b.String()
}

// extractJSON trims any prose the model wraps around the JSON object.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return s
	}
	return s[start : end+1]
}
