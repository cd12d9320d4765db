// Package confidence is the central calibration stage: it converts raw
// evidence-derived scores into calibrated assessments and enforces that
// confidence never increases downstream. Interventions can never be more
// confident than the baseline projections they depend on.
package confidence

import (
	"fmt"
	"math"
	"strings"

	"github.com/temblorlabs/temblor/internal/intervention"
	"github.com/temblorlabs/temblor/internal/projection"
)

// Label thresholds.
const (
	highThreshold   = 0.8
	mediumThreshold = 0.5
)

// Assessment is calibrated confidence metadata.
type Assessment struct {
	Score       float64  `json:"score"`
	Label       string   `json:"label"`
	Explanation string   `json:"explanation"`
	Drivers     []string `json:"drivers"`
}

// ScoredRecommendation pairs an intervention recommendation with its
// calibrated assessment.
type ScoredRecommendation struct {
	Recommendation intervention.Recommendation `json:"recommendation"`
	Assessment     Assessment                  `json:"assessment"`
}

// Integrator calibrates projection and intervention confidence.
type Integrator struct{}

// NewIntegrator creates an integrator.
func NewIntegrator() *Integrator { return &Integrator{} }

// CalibrateProjections assesses every horizon projection.
func (in *Integrator) CalibrateProjections(projections map[string]projection.Projection) map[string]Assessment {
	out := make(map[string]Assessment, len(projections))
	for horizon, proj := range projections {
		out[horizon] = assessProjection(proj)
	}
	return out
}

// CalibrateInterventions assesses recommendations with their confidence
// strictly capped by the best baseline assessment. Input order is
// preserved.
func (in *Integrator) CalibrateInterventions(recs []intervention.Recommendation, baselines map[string]Assessment) []ScoredRecommendation {
	out := make([]ScoredRecommendation, 0, len(recs))
	for _, rec := range recs {
		out = append(out, ScoredRecommendation{
			Recommendation: rec,
			Assessment:     assessIntervention(rec, baselines),
		})
	}
	return out
}

func assessProjection(proj projection.Projection) Assessment {
	score := proj.Confidence
	var drivers []string

	if proj.SupportCount < 3 {
		drivers = append(drivers, "Sparse data (<3 cases)")
		score = math.Min(score, 0.6)
	}
	if score < 0.4 {
		drivers = append(drivers, "Weak similarity matches")
	}
	if lo, hi, ok := parseRange(proj.CasualtyRange); ok && lo == hi && proj.SupportCount < 2 {
		drivers = append(drivers, "Single data point source")
		score *= 0.8
	}

	label := labelFor(score)
	basis := "adequate evidence"
	if len(drivers) > 0 {
		basis = strings.Join(drivers, ", ")
	}
	return Assessment{
		Score:       round2(score),
		Label:       label,
		Explanation: fmt.Sprintf("Confidence is %s (%.2f). Driven by: %s.", label, score, basis),
		Drivers:     drivers,
	}
}

func assessIntervention(rec intervention.Recommendation, baselines map[string]Assessment) Assessment {
	score := rec.Confidence
	var drivers []string

	var ceiling float64
	if len(baselines) == 0 {
		drivers = append(drivers, "No baseline projection")
	} else {
		for _, a := range baselines {
			if a.Score > ceiling {
				ceiling = a.Score
			}
		}
	}
	if score > ceiling {
		score = ceiling
		drivers = append(drivers, "Capped by baseline uncertainty")
	}
	if rec.Support < 2 {
		drivers = append(drivers, "Very low support for action")
		score = math.Min(score, 0.4)
	}

	label := labelFor(score)
	return Assessment{
		Score:       round2(score),
		Label:       label,
		Explanation: fmt.Sprintf("Confidence is %s (%.2f). %s.", label, score, strings.Join(drivers, "; ")),
		Drivers:     drivers,
	}
}

func labelFor(score float64) string {
	switch {
	case score >= highThreshold:
		return "High"
	case score >= mediumThreshold:
		return "Medium"
	default:
		return "Low"
	}
}

// parseRange parses a "lo - hi" casualty range string.
func parseRange(s string) (lo, hi int, ok bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	var err error
	if lo, err = parseInt(parts[0]); err != nil {
		return 0, 0, false
	}
	if hi, err = parseInt(parts[1]); err != nil {
		return 0, 0, false
	}
	return lo, hi, true
}

func parseInt(s string) (int, error) {
	var v int
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &v)
	return v, err
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
