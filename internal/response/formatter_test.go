package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temblorlabs/temblor/internal/confidence"
	"github.com/temblorlabs/temblor/internal/intervention"
	"github.com/temblorlabs/temblor/internal/projection"
	"github.com/temblorlabs/temblor/internal/situation"
)

func testSituation() situation.Situation {
	var s situation.Situation
	s.EventIdentity.EventID = "eq-2023-001"
	s.EventIdentity.Phase = "immediate_impact"
	s.EventIdentity.Magnitude = situation.NewProperty(7.8, "report", situation.ConfidenceHigh)
	s.SpatialContext.RegionType = situation.NewProperty("urban", "report", situation.ConfidenceHigh)
	return s
}

func TestFormatOrdersProjectionsByHorizon(t *testing.T) {
	f := NewFormatter()

	projections := map[string]projection.Projection{
		projection.Horizon24to48: {CasualtyTrend: "stabilizing", CasualtyRange: "100 - 200"},
		projection.Horizon0to12:  {CasualtyTrend: "increasing", CasualtyRange: "10 - 50"},
	}
	conf := map[string]confidence.Assessment{
		projection.Horizon24to48: {Score: 0.6, Label: "Medium"},
		projection.Horizon0to12:  {Score: 0.8, Label: "High"},
	}

	resp := f.Format(testSituation(), projections, conf, nil, CohortMeta{CohortSize: 4})

	require.Len(t, resp.BaselineProjections, 2)
	assert.Equal(t, projection.Horizon0to12, resp.BaselineProjections[0].Horizon)
	assert.Equal(t, projection.Horizon24to48, resp.BaselineProjections[1].Horizon)
	assert.Equal(t, "increasing casualty trend observed", resp.BaselineProjections[0].Trend)
	assert.Equal(t, "10 - 50 casualties (est)", resp.BaselineProjections[0].RangeDesc)
	assert.Equal(t, 4, resp.EvidenceContext.CohortSize)
}

func TestFormatSkipsHorizonsWithoutConfidence(t *testing.T) {
	f := NewFormatter()

	projections := map[string]projection.Projection{
		projection.Horizon0to12:  {CasualtyTrend: "increasing", CasualtyRange: "10 - 50"},
		projection.Horizon12to24: {CasualtyTrend: "uncertain", CasualtyRange: "unknown"},
	}
	conf := map[string]confidence.Assessment{
		projection.Horizon0to12: {Score: 0.7, Label: "Medium"},
	}

	resp := f.Format(testSituation(), projections, conf, nil, CohortMeta{})
	require.Len(t, resp.BaselineProjections, 1)
	assert.Equal(t, projection.Horizon0to12, resp.BaselineProjections[0].Horizon)
}

func TestOverallLevelIsWeakestProjection(t *testing.T) {
	f := NewFormatter()

	conf := map[string]confidence.Assessment{
		projection.Horizon0to12:  {Score: 0.8, Label: "High"},
		projection.Horizon12to24: {Score: 0.6, Label: "Medium"},
	}
	projections := map[string]projection.Projection{
		projection.Horizon0to12:  {CasualtyTrend: "increasing", CasualtyRange: "10 - 50"},
		projection.Horizon12to24: {CasualtyTrend: "stabilizing", CasualtyRange: "10 - 50"},
	}

	resp := f.Format(testSituation(), projections, conf, nil, CohortMeta{})
	assert.Equal(t, "Medium", resp.ConfidenceOverview.OverallLevel)
	assert.Equal(t, []string{"None specific"}, resp.ConfidenceOverview.RisksGaps)
}

func TestSparseDataFlaggedInGaps(t *testing.T) {
	f := NewFormatter()

	conf := map[string]confidence.Assessment{
		projection.Horizon0to12: {Score: 0.3, Label: "Low", Drivers: []string{"Sparse data (<3 cases)"}},
	}
	projections := map[string]projection.Projection{
		projection.Horizon0to12: {CasualtyTrend: "uncertain", CasualtyRange: "unknown"},
	}

	resp := f.Format(testSituation(), projections, conf, nil, CohortMeta{})
	assert.Equal(t, "Low", resp.ConfidenceOverview.OverallLevel)
	assert.Equal(t, []string{"Sparse data"}, resp.ConfidenceOverview.RisksGaps)
}

func TestDriversUnionedAndSorted(t *testing.T) {
	f := NewFormatter()

	conf := map[string]confidence.Assessment{
		projection.Horizon0to12: {Score: 0.4, Label: "Low", Drivers: []string{"Weak similarity matches"}},
	}
	projections := map[string]projection.Projection{
		projection.Horizon0to12: {CasualtyTrend: "uncertain", CasualtyRange: "unknown"},
	}
	interventions := []confidence.ScoredRecommendation{
		{
			Recommendation: intervention.Recommendation{Action: "rescue_operations", Window: "0-12h", Support: 1},
			Assessment:     confidence.Assessment{Score: 0.4, Label: "Low", Drivers: []string{"Very low support for action", "Weak similarity matches"}},
		},
	}

	resp := f.Format(testSituation(), projections, conf, interventions, CohortMeta{})
	assert.Equal(t,
		[]string{"Very low support for action", "Weak similarity matches"},
		resp.ConfidenceOverview.Drivers)
	require.Len(t, resp.InterventionOptions, 1)
	assert.Equal(t, "rescue_operations", resp.InterventionOptions[0].Action)
	assert.Equal(t, 1, resp.InterventionOptions[0].EvidenceCount)
}

func TestSummaryKnownsAndUnknowns(t *testing.T) {
	f := NewFormatter()

	resp := f.Format(testSituation(), nil, nil, nil, CohortMeta{})
	sum := resp.SituationSummary

	assert.Equal(t, "eq-2023-001", sum.EventID)
	assert.Equal(t, "immediate_impact", sum.Phase)
	assert.Contains(t, sum.KnownFacts, "Magnitude 7.8")
	assert.Contains(t, sum.KnownFacts, "Region: urban")
	assert.Contains(t, sum.ExplicitUnknowns, "Building collapse severity")
	assert.Contains(t, sum.ExplicitUnknowns, "Casualty count")
	assert.NotContains(t, sum.ExplicitUnknowns, "Magnitude")
}

func TestSummaryDefaultsForMissingIdentity(t *testing.T) {
	f := NewFormatter()

	resp := f.Format(situation.Situation{}, nil, nil, nil, CohortMeta{})
	assert.Equal(t, "Unknown", resp.SituationSummary.EventID)
	assert.Equal(t, "Unknown", resp.SituationSummary.Phase)
	assert.Contains(t, resp.SituationSummary.ExplicitUnknowns, "Magnitude")
	// No projections at all reads as low confidence.
	assert.Equal(t, "Low", resp.ConfidenceOverview.OverallLevel)
}
