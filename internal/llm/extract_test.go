package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient returns a fixed response and records the last prompt.
type stubClient struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
}

func (s *stubClient) GenerateText(_ context.Context, systemPrompt, prompt string) (string, error) {
	s.lastSystem = systemPrompt
	s.lastPrompt = prompt
	return s.response, s.err
}

func (s *stubClient) Name() string  { return "stub" }
func (s *stubClient) Model() string { return "stub-model" }

func TestExtractStampsIdentifiers(t *testing.T) {
	e := NewExtractor(NewMockClient())

	snaps, err := e.Extract(context.Background(), "narrative text", "source-7", "case-1")
	require.NoError(t, err)
	require.Len(t, snaps, 1)

	snap := snaps[0]
	assert.Equal(t, "case-1", snap.CaseStudyID)
	assert.Equal(t, "source-7", snap.SourceID)
	assert.NotEmpty(t, snap.InferredTimeWindow)
	assert.NotEmpty(t, snap.DecisionContext)
}

func TestExtractDefaultsMissingTimeWindow(t *testing.T) {
	stub := &stubClient{response: `[{"decision_context": "a choice"}]`}
	e := NewExtractor(stub)

	snaps, err := e.Extract(context.Background(), "text", "s", "c")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "unknown", snaps[0].InferredTimeWindow)
	assert.Equal(t, "You are an expert disaster analyst. Output valid JSON only.", stub.lastSystem)
}

func TestExtractStripsCodeFences(t *testing.T) {
	stub := &stubClient{response: "```json\n[{\"decision_context\": \"fenced\"}]\n```"}
	e := NewExtractor(stub)

	snaps, err := e.Extract(context.Background(), "text", "s", "c")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "fenced", snaps[0].DecisionContext)
}

func TestExtractUnparseableResponseYieldsEmpty(t *testing.T) {
	stub := &stubClient{response: "I could not find any decisions in this text."}
	e := NewExtractor(stub)

	snaps, err := e.Extract(context.Background(), "text", "s", "c")
	assert.NoError(t, err)
	assert.Empty(t, snaps)
}

func TestExtractTruncatesLongNarratives(t *testing.T) {
	stub := &stubClient{response: "[]"}
	e := NewExtractor(stub)

	long := strings.Repeat("x", maxExtractChars+500)
	_, err := e.Extract(context.Background(), long, "s", "c")
	require.NoError(t, err)
	assert.Contains(t, stub.lastPrompt, "... (truncated)")
	assert.Less(t, len(stub.lastPrompt), len(long))
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, "[]", stripFences("```json\n[]\n```"))
	assert.Equal(t, "[]", stripFences("```\n[]\n```"))
	assert.Equal(t, `{"a":1}`, stripFences(`{"a":1}`))
}
