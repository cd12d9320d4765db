// Package similarity ranks retrieved experience units against a query
// situation with a deterministic, explainable weighted metric. No
// learning: identical inputs always produce identical rankings.
package similarity

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/temblorlabs/temblor/internal/memory"
	"github.com/temblorlabs/temblor/internal/situation"
)

// Dimension names used in weights and per-dimension scores.
const (
	DimScale   = "scale"
	DimSpatial = "spatial"
	DimHuman   = "human"
	DimBuilt   = "built"
)

// Magnitude deltas at or beyond this score zero on the scale dimension.
const magnitudeRange = 3.0

// dimOrder fixes the accumulation order of the weighted sum. Float
// addition is not associative, so summing in map order would make the
// pre-rounding score depend on iteration order.
var dimOrder = []string{DimScale, DimSpatial, DimHuman, DimBuilt}

// Result explains why one candidate is considered similar: the final
// score, the per-dimension breakdown, and any penalties applied.
type Result struct {
	Unit       memory.ExperienceUnit
	Score      float64
	Dimensions map[string]float64
	Penalties  []string
}

// Engine computes weighted situation similarity.
type Engine struct {
	weights map[string]float64
}

// NewEngine creates an engine with the given dimension weights, normalized
// to sum to 1. Nil or empty weights select the defaults.
func NewEngine(weights map[string]float64) *Engine {
	if len(weights) == 0 {
		weights = map[string]float64{
			DimScale:   0.30,
			DimSpatial: 0.25,
			DimHuman:   0.20,
			DimBuilt:   0.25,
		}
	}
	var total float64
	for _, w := range weights {
		total += w
	}
	normalized := make(map[string]float64, len(weights))
	for k, w := range weights {
		if total > 0 {
			normalized[k] = w / total
		} else {
			normalized[k] = 0
		}
	}
	return &Engine{weights: normalized}
}

// Rank scores every candidate and returns them best first. The sort is
// stable, so equal scores keep the caller's candidate order.
func (e *Engine) Rank(query situation.Situation, candidates []memory.ExperienceUnit) []Result {
	results := make([]Result, 0, len(candidates))
	for _, cand := range candidates {
		results = append(results, e.Compare(query, cand))
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

// Compare scores one candidate against the query.
func (e *Engine) Compare(query situation.Situation, cand memory.ExperienceUnit) Result {
	cs := cand.Situation

	dims := map[string]float64{
		DimScale:   scaleSimilarity(query, cs),
		DimSpatial: spatialSimilarity(query, cs),
		DimHuman:   humanSimilarity(query, cs),
		DimBuilt:   builtSimilarity(query, cs),
	}

	var raw float64
	for _, k := range dimOrder {
		raw += dims[k] * e.weights[k]
	}

	var penalties []string
	if qp := query.EventIdentity.Phase; qp != "" {
		if !situation.PhaseCompatible(qp, cand.Phase) {
			raw *= 0.8
			penalties = append(penalties,
				fmt.Sprintf("Phase mismatch: Query '%s' vs Candidate '%s'", qp, cand.Phase))
		}
	}

	for k, v := range dims {
		dims[k] = round4(v)
	}
	return Result{
		Unit:       cand,
		Score:      round4(raw),
		Dimensions: dims,
		Penalties:  penalties,
	}
}

// scaleSimilarity compares magnitudes: linear falloff over a 3-unit delta,
// with neutral defaults when values are missing.
func scaleSimilarity(q, c situation.Situation) float64 {
	qMag, qOK := q.EventIdentity.Magnitude.Get()
	cMag, cOK := c.EventIdentity.Magnitude.Get()

	switch {
	case qOK && cOK:
		delta := math.Abs(qMag - cMag)
		return math.Max(0, 1-delta/magnitudeRange)
	case qOK || cOK:
		return 0.4
	default:
		return 0.5
	}
}

// spatialSimilarity compares region type as an exact categorical match.
func spatialSimilarity(q, c situation.Situation) float64 {
	qReg, qOK := q.SpatialContext.RegionType.Get()
	cReg, cOK := c.SpatialContext.RegionType.Get()
	if qOK && cOK {
		if qReg == cReg {
			return 1.0
		}
		return 0.0
	}
	return 0.5
}

// humanSimilarity compares population density as an exact categorical
// match.
func humanSimilarity(q, c situation.Situation) float64 {
	qPop, qOK := q.HumanExposure.PopulationDensity.Get()
	cPop, cOK := c.HumanExposure.PopulationDensity.Get()
	if qOK && cOK {
		if qPop == cPop {
			return 1.0
		}
		return 0.0
	}
	return 0.5
}

// builtSimilarity compares dominant building types with a Jaccard index.
func builtSimilarity(q, c situation.Situation) float64 {
	qTypes := situation.ListValueSet(q.BuiltEnvironment.DominantBuildingTypes)
	cTypes := situation.ListValueSet(c.BuiltEnvironment.DominantBuildingTypes)

	if len(qTypes) == 0 && len(cTypes) == 0 {
		return 0.5
	}
	if len(qTypes) == 0 || len(cTypes) == 0 {
		return 0.3
	}

	var intersection int
	union := len(cTypes)
	for t := range qTypes {
		if _, ok := cTypes[t]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0.0
	}
	return float64(intersection) / float64(union)
}

// Explain renders a short human-readable summary of a result.
func (r Result) Explain() string {
	var parts []string
	for _, k := range dimOrder {
		parts = append(parts, fmt.Sprintf("%s=%.4f", k, r.Dimensions[k]))
	}
	s := fmt.Sprintf("score=%.4f (%s)", r.Score, strings.Join(parts, ", "))
	if len(r.Penalties) > 0 {
		s += "; " + strings.Join(r.Penalties, "; ")
	}
	return s
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
