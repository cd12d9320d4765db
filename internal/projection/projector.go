// Package projection produces baseline horizon projections: given the
// current phase and a ranked cohort of similar past experiences, it
// aggregates what those experiences looked like at later phases into
// expected state per time horizon. Projections are correlational
// aggregates of the cohort, never causal forecasts.
package projection

import (
	"fmt"
	"math"
	"sort"

	"github.com/temblorlabs/temblor/internal/similarity"
	"github.com/temblorlabs/temblor/internal/situation"
)

// Horizon labels, in timeline order.
const (
	Horizon0to12  = "0-12h"
	Horizon12to24 = "12-24h"
	Horizon24to48 = "24-48h"
)

// HorizonOrder lists the horizons in timeline order for stable iteration.
var HorizonOrder = []string{Horizon0to12, Horizon12to24, Horizon24to48}

// Projection is the projected state for one time horizon.
type Projection struct {
	Horizon string `json:"horizon"`

	CasualtyTrend string `json:"casualty_trend"`
	CasualtyRange string `json:"casualty_range"`
	InjuryRange   string `json:"injury_range"`

	CollapseProgression string `json:"collapse_progression"`
	AccessDisruption    string `json:"access_disruption"`
	UtilityDegradation  string `json:"utility_degradation"`

	SecondaryRisks []string `json:"secondary_risks"`

	Confidence   float64 `json:"confidence"`
	SupportCount int     `json:"support_count"`
}

func emptyProjection(label string) Projection {
	return Projection{
		Horizon:             label,
		CasualtyTrend:       "unknown",
		CasualtyRange:       "unknown",
		InjuryRange:         "unknown",
		CollapseProgression: "unknown",
		AccessDisruption:    "unknown",
		UtilityDegradation:  "unknown",
	}
}

// Projector bins a similarity cohort into forward-looking horizons and
// aggregates each bin.
type Projector struct{}

// NewProjector creates a projector.
func NewProjector() *Projector { return &Projector{} }

// Project maps cohort members to horizons relative to the query phase and
// aggregates each horizon. Candidates at phases earlier than the query are
// the past and never contribute.
func (p *Projector) Project(queryPhase situation.TimePhase, cohort []similarity.Result) map[string]Projection {
	bins := map[string][]similarity.Result{
		Horizon0to12:  nil,
		Horizon12to24: nil,
		Horizon24to48: nil,
	}

	for _, res := range cohort {
		if label, ok := horizonFor(queryPhase, res.Unit.Phase); ok {
			bins[label] = append(bins[label], res)
		}
	}

	out := make(map[string]Projection, len(bins))
	for _, label := range HorizonOrder {
		out[label] = aggregate(label, bins[label])
	}
	return out
}

// horizonFor maps a candidate phase to the horizon it informs, relative to
// the query phase.
func horizonFor(query situation.TimePhase, cand situation.TimePhase) (string, bool) {
	switch query {
	case situation.PhaseImpact:
		switch cand {
		case situation.PhaseImpact:
			return Horizon0to12, true
		case situation.PhaseEarlyResponse:
			return Horizon12to24, true
		case situation.PhaseStabilization, situation.PhaseOutcome:
			return Horizon24to48, true
		}
	case situation.PhaseEarlyResponse:
		switch cand {
		case situation.PhaseEarlyResponse:
			return Horizon12to24, true
		case situation.PhaseStabilization, situation.PhaseOutcome:
			return Horizon24to48, true
		}
	case situation.PhaseStabilization:
		switch cand {
		case situation.PhaseStabilization, situation.PhaseOutcome:
			return Horizon24to48, true
		}
	case situation.PhaseOutcome:
		if cand == situation.PhaseOutcome {
			return Horizon24to48, true
		}
	}
	return "", false
}

func aggregate(label string, group []similarity.Result) Projection {
	if len(group) == 0 {
		return emptyProjection(label)
	}

	var (
		collapseVals []string
		accessVals   []string
		utilityVals  []string
		casualties   []int
		injuries     []int
		riskSet      = map[string]struct{}{}
		totalWeight  float64
	)

	for _, res := range group {
		sit := res.Unit.Situation
		totalWeight += res.Score

		if v, ok := sit.DamageIndicators.BuildingCollapseSeverity.Get(); ok {
			collapseVals = append(collapseVals, v)
		}
		if v, ok := sit.DamageIndicators.AccessDisruption.Get(); ok {
			accessVals = append(accessVals, v)
		}
		for _, v := range situation.ListValues(sit.DamageIndicators.UtilityFailures) {
			utilityVals = append(utilityVals, v)
		}
		for _, v := range situation.ListValues(sit.SpatialContext.SecondaryHazards) {
			riskSet[v] = struct{}{}
		}
		for _, v := range situation.ListValues(sit.DamageIndicators.VisibleHazards) {
			riskSet[v] = struct{}{}
		}

		if out := res.Unit.SubsequentOutcomes; out != nil {
			if v, ok := out.Casualties.Get(); ok {
				casualties = append(casualties, v)
			}
			if v, ok := out.Injuries.Get(); ok {
				injuries = append(injuries, v)
			}
		}
	}

	proj := emptyProjection(label)
	proj.SupportCount = len(group)

	if len(casualties) > 0 {
		lo, hi := intRange(casualties)
		proj.CasualtyRange = fmt.Sprintf("%d - %d", lo, hi)
		if hi > 100 {
			proj.CasualtyTrend = "increasing"
		} else {
			proj.CasualtyTrend = "stabilizing"
		}
	} else {
		proj.CasualtyTrend = "uncertain"
	}
	if len(injuries) > 0 {
		lo, hi := intRange(injuries)
		proj.InjuryRange = fmt.Sprintf("%d - %d", lo, hi)
	}

	proj.CollapseProgression = mode(collapseVals)
	proj.AccessDisruption = mode(accessVals)
	proj.UtilityDegradation = mode(utilityVals)

	risks := make([]string, 0, len(riskSet))
	for r := range riskSet {
		risks = append(risks, r)
	}
	sort.Strings(risks)
	proj.SecondaryRisks = risks

	avgSim := totalWeight / float64(len(group))
	density := math.Min(1, float64(len(group))/3)
	proj.Confidence = math.Round(avgSim*density*100) / 100

	return proj
}

// mode returns the most frequent value; ties break by higher count then
// lexicographically smaller value so the result is input-order
// independent.
func mode(vals []string) string {
	if len(vals) == 0 {
		return "unknown"
	}
	counts := make(map[string]int, len(vals))
	for _, v := range vals {
		counts[v]++
	}
	best := ""
	bestCount := -1
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	return best
}

func intRange(vals []int) (lo, hi int) {
	lo, hi = vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
