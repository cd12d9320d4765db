// Package intervention discovers candidate interventions by partitioning
// a cohort of similar past experiences into cases where an action was
// taken and cases where it was not, then comparing their subsequent
// casualty outcomes. The comparison is observational: recommendations
// report association, never causation.
package intervention

import (
	"fmt"
	"math"
	"sort"

	"github.com/temblorlabs/temblor/internal/similarity"
	"github.com/temblorlabs/temblor/internal/situation"
)

// Canonical action names surfaced in recommendations.
const (
	ActionRescue    = "rescue_operations"
	ActionEvacuate  = "evacuation"
	ActionMedical   = "medical_deployment"
	ActionLogistics = "logistics_coordination"
)

// Recommendation is one historically supported intervention.
type Recommendation struct {
	Action     string  `json:"action"`
	Window     string  `json:"window"`
	Effect     string  `json:"effect"`
	Confidence float64 `json:"confidence"`
	Support    int     `json:"support"`
	Notes      string  `json:"notes"`
}

// Reasoner evaluates cohort actions against outcomes.
type Reasoner struct{}

// NewReasoner creates a reasoner.
func NewReasoner() *Reasoner { return &Reasoner{} }

// Recommend compares outcomes of cohort members with and without each
// action present in the cohort. Results come back ordered by confidence,
// ties broken by action name so the ordering is input-order independent.
func (r *Reasoner) Recommend(cohort []similarity.Result) []Recommendation {
	present := map[string]bool{}
	for _, res := range cohort {
		acts := res.Unit.Situation.ActionsTaken
		if actionTaken(acts.RescueOperations) {
			present[ActionRescue] = true
		}
		if actionTaken(acts.EvacuationStatus) {
			present[ActionEvacuate] = true
		}
		if actionTaken(acts.MedicalDeployment) {
			present[ActionMedical] = true
		}
		if actionTaken(acts.LogisticsCoordination) {
			present[ActionLogistics] = true
		}
	}

	actions := make([]string, 0, len(present))
	for a := range present {
		actions = append(actions, a)
	}
	sort.Strings(actions)

	var recs []Recommendation
	for _, action := range actions {
		if rec, ok := evaluateAction(action, cohort); ok {
			recs = append(recs, rec)
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if recs[i].Confidence != recs[j].Confidence {
			return recs[i].Confidence > recs[j].Confidence
		}
		return recs[i].Action < recs[j].Action
	})
	return recs
}

// actionTaken reports whether the property carries a value that indicates
// the action actually happened.
func actionTaken(p situation.Property[string]) bool {
	v, ok := p.Get()
	if !ok {
		return false
	}
	switch v {
	case "none", "pending", "unknown":
		return false
	}
	return true
}

func hasAction(action string, acts situation.ActionsTaken) bool {
	switch action {
	case ActionRescue:
		return actionTaken(acts.RescueOperations)
	case ActionEvacuate:
		return actionTaken(acts.EvacuationStatus)
	case ActionMedical:
		return actionTaken(acts.MedicalDeployment)
	case ActionLogistics:
		return actionTaken(acts.LogisticsCoordination)
	}
	return false
}

// evaluateAction partitions the cohort on the action and compares average
// subsequent casualties. No recommendation is produced when either
// partition is empty, when casualty data is missing on either side, or
// when the action was not associated with lower casualties.
func evaluateAction(action string, cohort []similarity.Result) (Recommendation, bool) {
	var with, without []similarity.Result
	for _, res := range cohort {
		if hasAction(action, res.Unit.Situation.ActionsTaken) {
			with = append(with, res)
		} else {
			without = append(without, res)
		}
	}
	if len(with) == 0 || len(without) == 0 {
		return Recommendation{}, false
	}

	avgWith, okWith := avgCasualties(with)
	avgWithout, okWithout := avgCasualties(without)
	if !okWith || !okWithout {
		return Recommendation{}, false
	}
	if avgWith >= avgWithout {
		return Recommendation{}, false
	}

	var pct float64
	if avgWithout > 0 {
		pct = (avgWithout - avgWith) / avgWithout * 100
	}
	conf := math.Min(0.9, float64(len(with)+len(without))/10)

	return Recommendation{
		Action: action,
		Window: "0-12h",
		Effect: fmt.Sprintf("Associated with %d%% lower casualties in similar cases (%d vs %d)",
			int(pct), int(avgWith), int(avgWithout)),
		Confidence: math.Round(conf*100) / 100,
		Support:    len(with),
		Notes:      "Observational correlation only.",
	}, true
}

func avgCasualties(group []similarity.Result) (float64, bool) {
	var sum, n float64
	for _, res := range group {
		if out := res.Unit.SubsequentOutcomes; out != nil {
			if v, ok := out.Casualties.Get(); ok {
				sum += float64(v)
				n++
			}
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / n, true
}
