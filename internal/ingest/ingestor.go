// Package ingest decomposes a raw case-study document into phase-bounded
// time slices. Leakage prevention is structural: each slice is built fresh
// from only the sub-aggregates its phase is allowed to see, so information
// from later phases cannot reach an earlier slice regardless of what the
// raw input contains.
package ingest

import (
	"github.com/temblorlabs/temblor/internal/logging"
	"github.com/temblorlabs/temblor/internal/situation"
)

const sourceCaseReport = "case_report"

// TimeSlice is one phase-bounded view of an event.
type TimeSlice struct {
	Phase             situation.TimePhase `json:"phase"`
	Situation         situation.Situation `json:"situation"`
	RelativeTimeLabel string              `json:"relative_time_label"`
}

// Ingestor builds ordered time slices from raw case data.
//
// Phase-content policy:
//
//	T0: identity, spatial, human, built, damage
//	T1: T0 + rescue, evacuation
//	T2: T1 + medical, logistics
//	T3: T2 + outcomes
type Ingestor struct {
	logger *logging.Logger
}

// NewIngestor creates an ingestor.
func NewIngestor() *Ingestor {
	return &Ingestor{logger: logging.GetLogger("ingest")}
}

// Ingest decomposes a raw case mapping into time slices, one per phase, in
// phase order. Empty input yields an empty list. Malformed values are
// dropped with a warning, never fatal.
func (ing *Ingestor) Ingest(raw map[string]any) []TimeSlice {
	if len(raw) == 0 {
		return nil
	}

	var slices []TimeSlice
	if ing.hasImpactData(raw) {
		slices = append(slices, ing.sliceT0(raw))
	}
	slices = append(slices,
		ing.sliceT1(raw),
		ing.sliceT2(raw),
		ing.sliceT3(raw),
	)
	return slices
}

// hasImpactData checks the minimal requirement for a T0 slice.
func (ing *Ingestor) hasImpactData(raw map[string]any) bool {
	_, hasIdentity := raw["identity"]
	_, hasSpatial := raw["spatial"]
	return hasIdentity || hasSpatial
}

// baseSituation builds the static context present in every phase: identity,
// spatial, human exposure, built environment, and damage indicators.
func (ing *Ingestor) baseSituation(raw map[string]any, phase situation.TimePhase) situation.Situation {
	var sit situation.Situation

	identity := ing.section(raw, "identity")
	hours := phase.HourAnchor()
	sit.EventIdentity = situation.EventIdentity{
		EventID:         ing.str(identity, "event_id"),
		EventType:       "earthquake",
		Magnitude:       ing.floatProp(identity, "magnitude"),
		Intensity:       ing.strProp(identity, "intensity"),
		Phase:           phase.Label(),
		HoursSinceEvent: &hours,
	}

	spatial := ing.section(raw, "spatial")
	sit.SpatialContext = situation.SpatialContext{
		RegionType:          ing.strProp(spatial, "region_type"),
		Terrain:             ing.strProp(spatial, "terrain"),
		SecondaryHazards:    ing.listProp(spatial, "secondary_hazards"),
		LocationDescription: ing.str(spatial, "location_description"),
	}

	human := ing.section(raw, "human")
	sit.HumanExposure = situation.HumanExposure{
		PopulationDensity: ing.strProp(human, "population_density"),
		VulnerableGroups:  ing.listProp(human, "vulnerable_groups"),
		TimeOfDayContext:  ing.str(human, "time_of_day"),
	}

	built := ing.section(raw, "built")
	sit.BuiltEnvironment = situation.BuiltEnvironment{
		DominantBuildingTypes:        ing.listProp(built, "building_types"),
		ConstructionQuality:          ing.strProp(built, "construction_quality"),
		CriticalInfrastructureStatus: ing.infraProp(built, "critical_infrastructure"),
	}

	damage := ing.section(raw, "damage")
	sit.DamageIndicators = situation.DamageIndicators{
		BuildingCollapseSeverity: ing.strProp(damage, "building_collapse"),
		AccessDisruption:         ing.strProp(damage, "access_disruption"),
		UtilityFailures:          ing.listProp(damage, "utility_failures"),
		VisibleHazards:           ing.listProp(damage, "visible_hazards"),
	}

	return sit
}

func (ing *Ingestor) sliceT0(raw map[string]any) TimeSlice {
	sit := ing.baseSituation(raw, situation.PhaseImpact)
	// No actions, no outcomes at impact time.
	return TimeSlice{
		Phase:             situation.PhaseImpact,
		Situation:         sit,
		RelativeTimeLabel: situation.PhaseImpact.RelativeTimeLabel(),
	}
}

func (ing *Ingestor) sliceT1(raw map[string]any) TimeSlice {
	sit := ing.baseSituation(raw, situation.PhaseEarlyResponse)

	actions := ing.section(raw, "actions")
	sit.ActionsTaken = situation.ActionsTaken{
		RescueOperations: ing.strProp(actions, "rescue"),
		EvacuationStatus: ing.strProp(actions, "evacuation"),
	}

	return TimeSlice{
		Phase:             situation.PhaseEarlyResponse,
		Situation:         sit,
		RelativeTimeLabel: situation.PhaseEarlyResponse.RelativeTimeLabel(),
	}
}

func (ing *Ingestor) sliceT2(raw map[string]any) TimeSlice {
	sit := ing.baseSituation(raw, situation.PhaseStabilization)

	actions := ing.section(raw, "actions")
	sit.ActionsTaken = situation.ActionsTaken{
		RescueOperations:      ing.strProp(actions, "rescue"),
		EvacuationStatus:      ing.strProp(actions, "evacuation"),
		MedicalDeployment:     ing.strProp(actions, "medical"),
		LogisticsCoordination: ing.strProp(actions, "logistics"),
	}

	return TimeSlice{
		Phase:             situation.PhaseStabilization,
		Situation:         sit,
		RelativeTimeLabel: situation.PhaseStabilization.RelativeTimeLabel(),
	}
}

func (ing *Ingestor) sliceT3(raw map[string]any) TimeSlice {
	sit := ing.baseSituation(raw, situation.PhaseOutcome)

	actions := ing.section(raw, "actions")
	sit.ActionsTaken = situation.ActionsTaken{
		RescueOperations:      ing.strProp(actions, "rescue"),
		EvacuationStatus:      ing.strProp(actions, "evacuation"),
		MedicalDeployment:     ing.strProp(actions, "medical"),
		LogisticsCoordination: ing.strProp(actions, "logistics"),
	}

	outcomes := ing.section(raw, "outcomes")
	sit.Outcomes = situation.Outcomes{
		Casualties:   ing.intProp(outcomes, "casualties"),
		Injuries:     ing.intProp(outcomes, "injuries"),
		Displacement: ing.intProp(outcomes, "displacement"),
		EconomicLoss: ing.strProp(outcomes, "economic_loss"),
	}

	return TimeSlice{
		Phase:             situation.PhaseOutcome,
		Situation:         sit,
		RelativeTimeLabel: situation.PhaseOutcome.RelativeTimeLabel(),
	}
}

// --- extraction helpers ---

func (ing *Ingestor) section(raw map[string]any, key string) map[string]any {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		ing.logger.Warn("dropping malformed section %q: expected mapping, got %T", key, v)
		return nil
	}
	return m
}

func (ing *Ingestor) str(sec map[string]any, key string) string {
	v, ok := sec[key]
	if !ok || v == nil {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		ing.logger.Warn("dropping malformed field %q: expected string, got %T", key, v)
		return ""
	}
	return s
}

func (ing *Ingestor) strProp(sec map[string]any, key string) situation.Property[string] {
	v, ok := sec[key]
	if !ok || v == nil {
		return situation.Property[string]{}
	}
	s, ok := v.(string)
	if !ok {
		ing.logger.Warn("dropping malformed field %q: expected string, got %T", key, v)
		return situation.Property[string]{}
	}
	return situation.NewProperty(s, sourceCaseReport, situation.ConfidenceMedium)
}

func (ing *Ingestor) floatProp(sec map[string]any, key string) situation.Property[float64] {
	v, ok := sec[key]
	if !ok || v == nil {
		return situation.Property[float64]{}
	}
	f, ok := asFloat(v)
	if !ok {
		ing.logger.Warn("dropping malformed field %q: expected number, got %T", key, v)
		return situation.Property[float64]{}
	}
	return situation.NewProperty(f, sourceCaseReport, situation.ConfidenceMedium)
}

func (ing *Ingestor) intProp(sec map[string]any, key string) situation.Property[int] {
	v, ok := sec[key]
	if !ok || v == nil {
		return situation.Property[int]{}
	}
	f, ok := asFloat(v)
	if !ok {
		ing.logger.Warn("dropping malformed field %q: expected number, got %T", key, v)
		return situation.Property[int]{}
	}
	return situation.NewProperty(int(f), sourceCaseReport, situation.ConfidenceMedium)
}

func (ing *Ingestor) listProp(sec map[string]any, key string) []situation.Property[string] {
	v, ok := sec[key]
	if !ok || v == nil {
		return nil
	}

	var items []any
	switch list := v.(type) {
	case []any:
		items = list
	case []string:
		for _, s := range list {
			items = append(items, s)
		}
	default:
		ing.logger.Warn("dropping malformed field %q: expected list, got %T", key, v)
		return nil
	}

	var props []situation.Property[string]
	for _, item := range items {
		s, ok := item.(string)
		if !ok {
			ing.logger.Warn("dropping malformed entry in %q: expected string, got %T", key, item)
			continue
		}
		props = append(props, situation.NewProperty(s, sourceCaseReport, situation.ConfidenceMedium))
	}
	return props
}

func (ing *Ingestor) infraProp(sec map[string]any, key string) map[string]situation.Property[string] {
	v, ok := sec[key]
	if !ok || v == nil {
		return nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		ing.logger.Warn("dropping malformed field %q: expected mapping, got %T", key, v)
		return nil
	}
	out := make(map[string]situation.Property[string], len(m))
	for name, raw := range m {
		s, ok := raw.(string)
		if !ok {
			ing.logger.Warn("dropping malformed entry in %q: expected string, got %T", key, raw)
			continue
		}
		out[name] = situation.NewProperty(s, sourceCaseReport, situation.ConfidenceMedium)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}
