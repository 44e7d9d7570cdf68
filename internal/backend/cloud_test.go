package backend

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubMessenger records the prompts and returns a canned completion.
type stubMessenger struct {
	system string
	user   string
	reply  string
	err    error
}

func (m *stubMessenger) Complete(_ context.Context, system, user string) (string, error) {
	m.system = system
	m.user = user
	return m.reply, m.err
}

func TestCloudAnalyze(t *testing.T) {
	m := &stubMessenger{reply: "Here is the analysis:\n" + minimalAnalysis + "\nLet me know if you need more."}
	c := NewCloud(m, &stubText{text: "AGREEMENT ..."}, CloudOptions{RequestsPerSecond: 1000})

	result, err := c.Analyze(context.Background(), testMeta(), FeatureSet{FeatureText, FeatureForms})
	require.NoError(t, err)

	// Prose around the JSON object is tolerated.
	require.Len(t, result.Rules, 1)
	assert.Equal(t, "doc-1", result.DocumentID)

	assert.Contains(t, m.system, "contract analysis engine")
	assert.Contains(t, m.user, "contract.pdf")
	assert.Contains(t, m.user, "text, forms")
	assert.Contains(t, m.user, "AGREEMENT ...")
}

func TestCloudAnalyzeClassifiesCompletionError(t *testing.T) {
	m := &stubMessenger{err: errors.New("429: rate limit exceeded")}
	c := NewCloud(m, &stubText{text: "x"}, CloudOptions{RequestsPerSecond: 1000})

	_, err := c.Analyze(context.Background(), testMeta(), FeatureSet{FeatureText})
	require.Error(t, err)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, FailureQuota, f.Kind)
}

func TestCloudAnalyzeMalformedReply(t *testing.T) {
	m := &stubMessenger{reply: "I could not analyze this document."}
	c := NewCloud(m, &stubText{text: "x"}, CloudOptions{RequestsPerSecond: 1000})

	_, err := c.Analyze(context.Background(), testMeta(), FeatureSet{FeatureText})
	require.Error(t, err)

	var f *Failure
	require.True(t, errors.As(err, &f))
	assert.Equal(t, FailureMalformed, f.Kind)
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bare object", `{"a": 1}`, `{"a": 1}`},
		{"prose around", "Sure:\n{\"a\": 1}\nDone.", `{"a": 1}`},
		{"no object", "no json here", "no json here"},
		{"nested braces", `x {"a": {"b": 2}} y`, `{"a": {"b": 2}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, extractJSON(tt.in))
		})
	}
}

func TestBuildUserPromptListsFeatures(t *testing.T) {
	got := buildUserPrompt(testMeta(), FeatureSet{FeatureText, FeatureTables}, "BODY")
	assert.True(t, strings.HasPrefix(got, "Document: contract.pdf"))
	assert.Contains(t, got, "text, tables")
	assert.True(t, strings.HasSuffix(got, "BODY"))
}
