package similarity

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temblorlabs/temblor/internal/memory"
	"github.com/temblorlabs/temblor/internal/situation"
)

func mkSituation(mag float64, region, density string, buildings []string) situation.Situation {
	var s situation.Situation
	s.EventIdentity.Magnitude = situation.NewProperty(mag, "test", situation.ConfidenceHigh)
	if region != "" {
		s.SpatialContext.RegionType = situation.NewProperty(region, "test", situation.ConfidenceHigh)
	}
	if density != "" {
		s.HumanExposure.PopulationDensity = situation.NewProperty(density, "test", situation.ConfidenceHigh)
	}
	for _, b := range buildings {
		s.BuiltEnvironment.DominantBuildingTypes = append(s.BuiltEnvironment.DominantBuildingTypes,
			situation.NewProperty(b, "test", situation.ConfidenceMedium))
	}
	return s
}

func mkUnit(phase situation.TimePhase, sit situation.Situation) memory.ExperienceUnit {
	return memory.ExperienceUnit{Situation: sit, Phase: phase, SourceCaseID: "case-1"}
}

func TestCompareIdenticalSituations(t *testing.T) {
	engine := NewEngine(nil)
	sit := mkSituation(7.0, "urban", "dense", []string{"concrete", "masonry"})

	res := engine.Compare(sit, mkUnit(situation.PhaseImpact, sit))

	// Every dimension matches exactly, no phase on the query so no penalty.
	assert.Equal(t, 1.0, res.Dimensions[DimScale])
	assert.Equal(t, 1.0, res.Dimensions[DimSpatial])
	assert.Equal(t, 1.0, res.Dimensions[DimHuman])
	assert.Equal(t, 1.0, res.Dimensions[DimBuilt])
	assert.Equal(t, 1.0, res.Score)
	assert.Empty(t, res.Penalties)
}

func TestScaleSimilarityFalloff(t *testing.T) {
	engine := NewEngine(nil)

	tests := []struct {
		name     string
		qMag     float64
		cMag     float64
		expected float64
	}{
		{"identical magnitudes", 7.0, 7.0, 1.0},
		{"1.5 apart is half", 7.0, 5.5, 0.5},
		{"3+ apart floors at zero", 9.0, 5.0, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := mkSituation(tt.qMag, "urban", "dense", nil)
			c := mkSituation(tt.cMag, "urban", "dense", nil)
			res := engine.Compare(q, mkUnit(situation.PhaseImpact, c))
			assert.InDelta(t, tt.expected, res.Dimensions[DimScale], 1e-9)
		})
	}
}

func TestMissingValueDefaults(t *testing.T) {
	engine := NewEngine(nil)

	var empty situation.Situation
	res := engine.Compare(empty, mkUnit(situation.PhaseImpact, situation.Situation{}))

	assert.Equal(t, 0.5, res.Dimensions[DimScale])
	assert.Equal(t, 0.5, res.Dimensions[DimSpatial])
	assert.Equal(t, 0.5, res.Dimensions[DimHuman])
	assert.Equal(t, 0.5, res.Dimensions[DimBuilt])

	// One side missing magnitude scores below the both-missing neutral.
	q := mkSituation(7.0, "", "", nil)
	res = engine.Compare(q, mkUnit(situation.PhaseImpact, situation.Situation{}))
	assert.Equal(t, 0.4, res.Dimensions[DimScale])
}

func TestBuiltJaccard(t *testing.T) {
	engine := NewEngine(nil)

	q := mkSituation(7.0, "urban", "dense", []string{"concrete", "masonry", "timber"})
	c := mkSituation(7.0, "urban", "dense", []string{"concrete", "masonry"})
	res := engine.Compare(q, mkUnit(situation.PhaseImpact, c))
	// Intersection 2, union 3.
	assert.InDelta(t, 0.6667, res.Dimensions[DimBuilt], 1e-4)

	// One side empty.
	c2 := mkSituation(7.0, "urban", "dense", nil)
	res = engine.Compare(q, mkUnit(situation.PhaseImpact, c2))
	assert.Equal(t, 0.3, res.Dimensions[DimBuilt])
}

func TestPhaseMismatchPenalty(t *testing.T) {
	engine := NewEngine(nil)

	q := mkSituation(7.0, "urban", "dense", []string{"concrete"})
	q.EventIdentity.Phase = "immediate_impact"
	c := mkSituation(7.0, "urban", "dense", []string{"concrete"})

	matched := engine.Compare(q, mkUnit(situation.PhaseImpact, c))
	assert.Equal(t, 1.0, matched.Score)
	assert.Empty(t, matched.Penalties)

	mismatched := engine.Compare(q, mkUnit(situation.PhaseStabilization, c))
	assert.Equal(t, 0.8, mismatched.Score)
	require.Len(t, mismatched.Penalties, 1)
	assert.Contains(t, mismatched.Penalties[0], "Phase mismatch")
}

func TestRankOrdersByScoreDescending(t *testing.T) {
	engine := NewEngine(nil)
	q := mkSituation(7.0, "urban", "dense", []string{"concrete"})

	candidates := []memory.ExperienceUnit{
		mkUnit(situation.PhaseImpact, mkSituation(4.5, "rural", "sparse", nil)),
		mkUnit(situation.PhaseImpact, mkSituation(7.0, "urban", "dense", []string{"concrete"})),
		mkUnit(situation.PhaseImpact, mkSituation(6.5, "urban", "dense", []string{"concrete", "steel"})),
	}

	results := engine.Rank(q, candidates)
	require.Len(t, results, 3)
	assert.True(t, results[0].Score >= results[1].Score)
	assert.True(t, results[1].Score >= results[2].Score)
	assert.Equal(t, 1.0, results[0].Score)
}

func TestRankIsPermutationStable(t *testing.T) {
	engine := NewEngine(nil)
	q := mkSituation(7.0, "urban", "dense", []string{"concrete"})

	var candidates []memory.ExperienceUnit
	regions := []string{"urban", "rural", "coastal"}
	for i := 0; i < 8; i++ {
		candidates = append(candidates, mkUnit(situation.PhaseImpact,
			mkSituation(5.0+float64(i)*0.4, regions[i%3], "dense", []string{"concrete"})))
	}

	baseline := engine.Rank(q, candidates)

	rng := rand.New(rand.NewSource(42))
	for trial := 0; trial < 5; trial++ {
		shuffled := make([]memory.ExperienceUnit, len(candidates))
		copy(shuffled, candidates)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		results := engine.Rank(q, shuffled)
		require.Len(t, results, len(baseline))
		for i := range results {
			assert.Equal(t, baseline[i].Score, results[i].Score,
				"score order diverged on trial %d position %d", trial, i)
		}
	}
}

func TestCompareIsBitStableAcrossCalls(t *testing.T) {
	engine := NewEngine(nil)
	q := mkSituation(7.3, "urban", "dense", []string{"concrete", "masonry"})
	c := mkUnit(situation.PhaseImpact, mkSituation(6.1, "urban", "sparse", []string{"concrete", "timber"}))

	// Partial dimension scores exercise the non-associativity of float
	// addition; repeated calls must still sum to the identical bits.
	first := engine.Compare(q, c)
	for i := 0; i < 100; i++ {
		res := engine.Compare(q, c)
		assert.Equal(t, first.Score, res.Score, "score diverged on call %d", i)
		assert.Equal(t, first.Dimensions, res.Dimensions)
	}
}

func TestWeightsNormalization(t *testing.T) {
	// Weights with a different total must behave like their normalized form.
	doubled := NewEngine(map[string]float64{
		DimScale: 0.6, DimSpatial: 0.5, DimHuman: 0.4, DimBuilt: 0.5,
	})
	standard := NewEngine(nil)

	q := mkSituation(7.0, "urban", "dense", []string{"concrete"})
	c := mkSituation(6.0, "rural", "dense", []string{"masonry"})

	a := doubled.Compare(q, mkUnit(situation.PhaseImpact, c))
	b := standard.Compare(q, mkUnit(situation.PhaseImpact, c))
	assert.Equal(t, b.Score, a.Score)
}
