package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temblorlabs/temblor/internal/embedding"
	"github.com/temblorlabs/temblor/internal/memory"
	"github.com/temblorlabs/temblor/internal/situation"
)

func structuredCase(eventID string, magnitude float64, casualties int) map[string]any {
	return map[string]any{
		"identity": map[string]any{
			"event_id":  eventID,
			"magnitude": magnitude,
		},
		"spatial": map[string]any{
			"region_type": "urban",
		},
		"human": map[string]any{
			"population_density": "dense",
		},
		"damage": map[string]any{
			"building_collapse": "severe",
		},
		"actions": map[string]any{
			"rescue":     "active",
			"evacuation": "partial",
		},
		"outcomes": map[string]any{
			"casualties": casualties,
		},
	}
}

func newExperiencePipeline(t *testing.T) (*ExperiencePipeline, *memory.InProcessStore) {
	t.Helper()
	store := memory.NewInProcessStore()
	return NewExperiencePipeline(embedding.NewMock(64), store), store
}

func TestExperienceIngestCreatesUnitPerPhase(t *testing.T) {
	p, store := newExperiencePipeline(t)
	ctx := context.Background()

	created, err := p.IngestCase(ctx, "case-1", structuredCase("eq-1", 7.4, 1200))
	require.NoError(t, err)
	assert.Equal(t, 4, created)

	// Deterministic ids make re-ingestion overwrite, not duplicate.
	created, err = p.IngestCase(ctx, "case-1", structuredCase("eq-1", 7.4, 1200))
	require.NoError(t, err)
	assert.Equal(t, 4, created)

	hits, err := store.KNN(ctx, memory.CollectionExperiences, mustEmbed(t, "probe"), 100)
	require.NoError(t, err)
	assert.Len(t, hits, 4)
}

func mustEmbed(t *testing.T, text string) []float32 {
	t.Helper()
	vec, err := embedding.NewMock(64).Embed(context.Background(), text)
	require.NoError(t, err)
	return vec
}

func TestExperienceIngestRequiresCaseID(t *testing.T) {
	p, _ := newExperiencePipeline(t)
	_, err := p.IngestCase(context.Background(), "", structuredCase("eq-1", 7.0, 10))
	assert.Error(t, err)
}

func TestExperienceIngestEmptyCaseIsNoop(t *testing.T) {
	p, _ := newExperiencePipeline(t)
	created, err := p.IngestCase(context.Background(), "case-1", map[string]any{})
	require.NoError(t, err)
	assert.Zero(t, created)
}

func TestFinalOutcomesAttachedToEveryUnit(t *testing.T) {
	p, _ := newExperiencePipeline(t)
	ctx := context.Background()

	_, err := p.IngestCase(ctx, "case-1", structuredCase("eq-1", 7.4, 1200))
	require.NoError(t, err)

	var query situation.Situation
	query.EventIdentity.Magnitude = situation.NewProperty(7.4, "query", situation.ConfidenceHigh)
	query.SpatialContext.RegionType = situation.NewProperty("urban", "query", situation.ConfidenceHigh)

	cohort, err := p.RetrieveCohort(ctx, query, 10)
	require.NoError(t, err)
	require.Len(t, cohort, 4)

	for _, member := range cohort {
		require.NotNil(t, member.Unit.SubsequentOutcomes, "phase %s missing outcomes", member.Unit.Phase)
		casualties, ok := member.Unit.SubsequentOutcomes.Casualties.Get()
		require.True(t, ok)
		assert.Equal(t, 1200, casualties)
	}
}

func TestRetrieveCohortBeforeIngestIsEmpty(t *testing.T) {
	p, _ := newExperiencePipeline(t)
	cohort, err := p.RetrieveCohort(context.Background(), situation.Situation{}, 5)
	require.NoError(t, err)
	assert.Empty(t, cohort)
}

func TestAdviseProducesFullResponse(t *testing.T) {
	p, _ := newExperiencePipeline(t)
	ctx := context.Background()

	for i, c := range []map[string]any{
		structuredCase("eq-1", 7.4, 1200),
		structuredCase("eq-2", 7.2, 800),
	} {
		_, err := p.IngestCase(ctx, []string{"case-1", "case-2"}[i], c)
		require.NoError(t, err)
	}

	var query situation.Situation
	query.EventIdentity.EventID = "eq-now"
	query.EventIdentity.Phase = situation.PhaseImpact.Label()
	query.EventIdentity.Magnitude = situation.NewProperty(7.3, "query", situation.ConfidenceHigh)
	query.SpatialContext.RegionType = situation.NewProperty("urban", "query", situation.ConfidenceHigh)
	query.HumanExposure.PopulationDensity = situation.NewProperty("dense", "query", situation.ConfidenceMedium)

	resp, err := p.Advise(ctx, query, situation.PhaseImpact)
	require.NoError(t, err)

	assert.Equal(t, "eq-now", resp.SituationSummary.EventID)
	assert.NotEmpty(t, resp.BaselineProjections)
	assert.Equal(t, 5, resp.EvidenceContext.CohortSize)
	assert.NotEmpty(t, resp.ConfidenceOverview.OverallLevel)
	for _, proj := range resp.BaselineProjections {
		assert.NotEmpty(t, proj.ConfidenceLabel)
	}
}
