// Package response assembles the final structured decision-support
// output. The formatter enforces the output contract: descriptive,
// non-prescriptive language, explicit unknowns, and confidence labels on
// every projection and intervention.
package response

import (
	"fmt"
	"sort"

	"github.com/temblorlabs/temblor/internal/confidence"
	"github.com/temblorlabs/temblor/internal/projection"
	"github.com/temblorlabs/temblor/internal/situation"
)

// SituationSummary restates what is known and explicitly unknown about
// the current situation.
type SituationSummary struct {
	EventID          string   `json:"event_id"`
	Phase            string   `json:"phase"`
	KnownFacts       []string `json:"known_facts"`
	ExplicitUnknowns []string `json:"explicit_unknowns"`
}

// FormattedProjection is one horizon of the baseline timeline.
type FormattedProjection struct {
	Horizon         string   `json:"horizon"`
	Trend           string   `json:"trend"`
	RangeDesc       string   `json:"range_desc"`
	SecondaryRisks  []string `json:"secondary_risks,omitempty"`
	ConfidenceLabel string   `json:"confidence_label"`
	ConfidenceScore float64  `json:"confidence_score"`
}

// FormattedIntervention is one historically supported option.
type FormattedIntervention struct {
	Action          string  `json:"action"`
	Window          string  `json:"window"`
	EffectDesc      string  `json:"effect_desc"`
	ConfidenceLabel string  `json:"confidence_label"`
	ConfidenceScore float64 `json:"confidence_score"`
	EvidenceCount   int     `json:"evidence_count"`
}

// EvidenceContext describes the cohort behind the analysis.
type EvidenceContext struct {
	CohortSize       int    `json:"cohort_size"`
	DominantPatterns string `json:"dominant_patterns"`
	Divergences      string `json:"divergences"`
}

// ConfidenceOverview is the aggregate confidence picture.
type ConfidenceOverview struct {
	OverallLevel string   `json:"overall_level"`
	Drivers      []string `json:"drivers"`
	RisksGaps    []string `json:"risks_gaps"`
}

// SystemResponse is the complete output contract.
type SystemResponse struct {
	SituationSummary    SituationSummary        `json:"situation_summary"`
	BaselineProjections []FormattedProjection   `json:"baseline_projections"`
	InterventionOptions []FormattedIntervention `json:"intervention_options"`
	EvidenceContext     EvidenceContext         `json:"evidence_context"`
	ConfidenceOverview  ConfidenceOverview      `json:"confidence_overview"`
}

// CohortMeta carries retrieval metadata into the evidence section.
type CohortMeta struct {
	CohortSize  int
	Patterns    string
	Divergences string
}

// Formatter builds SystemResponse values.
type Formatter struct{}

// NewFormatter creates a formatter.
func NewFormatter() *Formatter { return &Formatter{} }

// Format assembles the response. Projections appear in timeline order;
// interventions keep their calibrated order. The overall confidence level
// is the minimum across projected horizons: the response is never more
// confident than its weakest projection.
func (f *Formatter) Format(
	sit situation.Situation,
	projections map[string]projection.Projection,
	projectionConf map[string]confidence.Assessment,
	interventions []confidence.ScoredRecommendation,
	meta CohortMeta,
) SystemResponse {
	summary := buildSummary(sit)

	fmtProjections := make([]FormattedProjection, 0, len(projections))
	for _, horizon := range projection.HorizonOrder {
		proj, okP := projections[horizon]
		conf, okC := projectionConf[horizon]
		if !okP || !okC {
			continue
		}
		fmtProjections = append(fmtProjections, FormattedProjection{
			Horizon:         horizon,
			Trend:           fmt.Sprintf("%s casualty trend observed", proj.CasualtyTrend),
			RangeDesc:       fmt.Sprintf("%s casualties (est)", proj.CasualtyRange),
			SecondaryRisks:  proj.SecondaryRisks,
			ConfidenceLabel: conf.Label,
			ConfidenceScore: conf.Score,
		})
	}

	fmtInterventions := make([]FormattedIntervention, 0, len(interventions))
	for _, scored := range interventions {
		fmtInterventions = append(fmtInterventions, FormattedIntervention{
			Action:          scored.Recommendation.Action,
			Window:          scored.Recommendation.Window,
			EffectDesc:      scored.Recommendation.Effect,
			ConfidenceLabel: scored.Assessment.Label,
			ConfidenceScore: scored.Assessment.Score,
			EvidenceCount:   scored.Recommendation.Support,
		})
	}

	patterns := meta.Patterns
	if patterns == "" {
		patterns = "Historical patterns from similar events."
	}
	divergences := meta.Divergences
	if divergences == "" {
		divergences = "No major divergences inferred."
	}

	return SystemResponse{
		SituationSummary:    summary,
		BaselineProjections: fmtProjections,
		InterventionOptions: fmtInterventions,
		EvidenceContext: EvidenceContext{
			CohortSize:       meta.CohortSize,
			DominantPatterns: patterns,
			Divergences:      divergences,
		},
		ConfidenceOverview: buildOverview(projectionConf, interventions),
	}
}

func buildSummary(sit situation.Situation) SituationSummary {
	var knowns, unknowns []string

	if mag, ok := sit.EventIdentity.Magnitude.Get(); ok {
		knowns = append(knowns, fmt.Sprintf("Magnitude %v", mag))
	} else {
		unknowns = append(unknowns, "Magnitude")
	}
	if region, ok := sit.SpatialContext.RegionType.Get(); ok {
		knowns = append(knowns, "Region: "+region)
	}
	if density, ok := sit.HumanExposure.PopulationDensity.Get(); ok {
		knowns = append(knowns, "Population density: "+density)
	}
	if collapse, ok := sit.DamageIndicators.BuildingCollapseSeverity.Get(); ok {
		knowns = append(knowns, "Building collapse: "+collapse)
	} else {
		unknowns = append(unknowns, "Building collapse severity")
	}
	if sit.Outcomes.Casualties.IsMissing() {
		unknowns = append(unknowns, "Casualty count")
	}

	eventID := sit.EventIdentity.EventID
	if eventID == "" {
		eventID = "Unknown"
	}
	phase := sit.EventIdentity.Phase
	if phase == "" {
		phase = "Unknown"
	}
	return SituationSummary{
		EventID:          eventID,
		Phase:            phase,
		KnownFacts:       knowns,
		ExplicitUnknowns: unknowns,
	}
}

func buildOverview(projectionConf map[string]confidence.Assessment, interventions []confidence.ScoredRecommendation) ConfidenceOverview {
	minScore := 0.0
	if len(projectionConf) > 0 {
		minScore = 1.0
		for _, a := range projectionConf {
			if a.Score < minScore {
				minScore = a.Score
			}
		}
	}

	level := "Low"
	switch {
	case minScore >= 0.8:
		level = "High"
	case minScore >= 0.5:
		level = "Medium"
	}

	driverSet := map[string]struct{}{}
	for _, a := range projectionConf {
		for _, d := range a.Drivers {
			driverSet[d] = struct{}{}
		}
	}
	for _, scored := range interventions {
		for _, d := range scored.Assessment.Drivers {
			driverSet[d] = struct{}{}
		}
	}
	drivers := make([]string, 0, len(driverSet))
	for d := range driverSet {
		drivers = append(drivers, d)
	}
	sort.Strings(drivers)

	gaps := []string{"None specific"}
	if minScore < 0.5 {
		gaps = []string{"Sparse data"}
	}
	return ConfidenceOverview{
		OverallLevel: level,
		Drivers:      drivers,
		RisksGaps:    gaps,
	}
}
