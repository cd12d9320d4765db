package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temblorlabs/temblor/internal/snapshot"
)

func TestAdviseGroundsPromptOnSnapshots(t *testing.T) {
	stub := &stubClient{response: "In similar cases, staged search was common."}
	a := NewAdviser(stub)

	similar := []snapshot.DecisionSnapshot{
		{
			SnapshotID:           "snap-1",
			CaseStudyID:          "case-izmit",
			InferredTimeWindow:   "first 6 hours",
			DecisionContext:      "limited teams, many sites",
			ActionTakenNarrative: "staged search by severity",
			RisksPerceived:       []string{"aftershocks", "gas leaks"},
		},
		{SnapshotID: "snap-2", CaseStudyID: "case-kobe"},
	}

	adv, err := a.Advise(context.Background(), "magnitude 7.8, urban, dense", similar)
	require.NoError(t, err)
	assert.Equal(t, "In similar cases, staged search was common.", adv.Analysis)
	assert.Equal(t, []string{"snap-1", "snap-2"}, adv.DrivingSnapshots)

	assert.Contains(t, stub.lastPrompt, "magnitude 7.8, urban, dense")
	assert.Contains(t, stub.lastPrompt, "Case: case-izmit (Window: first 6 hours)")
	assert.Contains(t, stub.lastPrompt, "Risks: aftershocks, gas leaks")
	assert.Contains(t, stub.lastPrompt, "Do NOT predict the future.")
}

func TestClientFactory(t *testing.T) {
	c, err := New(Config{Provider: "mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", c.Name())

	// Provider names are case-insensitive.
	c, err = New(Config{Provider: "Mock"})
	require.NoError(t, err)
	assert.Equal(t, "mock", c.Name())

	_, err = New(Config{Provider: "bard"})
	assert.ErrorContains(t, err, "unknown TEXT_LLM_PROVIDER")
}

func TestMockClientShapesByPrompt(t *testing.T) {
	c := NewMockClient()
	ctx := context.Background()

	// Extraction path: the real extractor prompt must get the canned JSON.
	snaps, err := NewExtractor(c).Extract(ctx, "A magnitude 7.8 quake struck at dawn.", "src-1", "case-1")
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "first hours after the shock", snaps[0].InferredTimeWindow)

	// Advisory path: the real adviser prompt mentions snapshots but must
	// still get the prose paragraph, not the extraction JSON.
	adv, err := NewAdviser(c).Advise(ctx, "magnitude 7.8, urban, dense", []snapshot.DecisionSnapshot{
		{SnapshotID: "snap-1", CaseStudyID: "case-izmit"},
	})
	require.NoError(t, err)
	assert.Contains(t, adv.Analysis, "In similar cases")
	assert.NotContains(t, adv.Analysis, "inferred_time_window")
}
