// Package situation defines the canonical, uncertainty-tagged state of an
// earthquake event at one moment. Every observed leaf is wrapped in a
// Property envelope so partial and conflicting information stays
// representable; aggregates are plain data and immutable once built by the
// ingestor.
package situation

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// EventIdentity is the core identity and timing of the event.
type EventIdentity struct {
	EventID         string            `json:"event_id,omitempty"`
	EventType       string            `json:"event_type"`
	Magnitude       Property[float64] `json:"magnitude"`
	Intensity       Property[string]  `json:"intensity"`
	Phase           string            `json:"phase,omitempty"`
	Timestamp       *time.Time        `json:"timestamp,omitempty"`
	HoursSinceEvent *float64          `json:"time_since_event_hours,omitempty"`
}

// SpatialContext is the geographic and environmental setting.
type SpatialContext struct {
	RegionType          Property[string]   `json:"region_type"`
	Terrain             Property[string]   `json:"terrain"`
	SecondaryHazards    []Property[string] `json:"secondary_hazards,omitempty"`
	LocationDescription string             `json:"location_description,omitempty"`
}

// HumanExposure is the population and vulnerability context.
type HumanExposure struct {
	PopulationDensity Property[string]   `json:"population_density"`
	VulnerableGroups  []Property[string] `json:"vulnerable_groups,omitempty"`
	TimeOfDayContext  string             `json:"time_of_day_context,omitempty"`
}

// BuiltEnvironment is the infrastructure and building context.
type BuiltEnvironment struct {
	DominantBuildingTypes        []Property[string]          `json:"dominant_building_types,omitempty"`
	ConstructionQuality          Property[string]            `json:"construction_quality"`
	CriticalInfrastructureStatus map[string]Property[string] `json:"critical_infrastructure_status,omitempty"`
}

// DamageIndicators is the observed physical damage.
type DamageIndicators struct {
	BuildingCollapseSeverity Property[string]   `json:"building_collapse_severity"`
	AccessDisruption         Property[string]   `json:"access_disruption"`
	UtilityFailures          []Property[string] `json:"utility_failures,omitempty"`
	VisibleHazards           []Property[string] `json:"visible_hazards,omitempty"`
}

// ActionsTaken records interventions already underway.
type ActionsTaken struct {
	RescueOperations      Property[string] `json:"rescue_operations"`
	EvacuationStatus      Property[string] `json:"evacuation_status"`
	MedicalDeployment     Property[string] `json:"medical_deployment"`
	LogisticsCoordination Property[string] `json:"logistics_coordination"`
}

// IsEmpty reports whether no action carries a value.
func (a ActionsTaken) IsEmpty() bool {
	return a.RescueOperations.IsMissing() &&
		a.EvacuationStatus.IsMissing() &&
		a.MedicalDeployment.IsMissing() &&
		a.LogisticsCoordination.IsMissing()
}

// Outcomes are the known impacts, human and material.
type Outcomes struct {
	Casualties   Property[int]    `json:"casualties"`
	Injuries     Property[int]    `json:"injuries"`
	Displacement Property[int]    `json:"displacement"`
	EconomicLoss Property[string] `json:"economic_loss"`
}

// IsEmpty reports whether no outcome carries a value.
func (o Outcomes) IsEmpty() bool {
	return o.Casualties.IsMissing() &&
		o.Injuries.IsMissing() &&
		o.Displacement.IsMissing() &&
		o.EconomicLoss.IsMissing()
}

// Situation is the canonical representation of an earthquake situation at a
// specific time. It acts as a semantic container for heterogeneous,
// uncertain, and partial information.
type Situation struct {
	RecordID         string           `json:"record_id,omitempty"`
	EventIdentity    EventIdentity    `json:"event_identity"`
	SpatialContext   SpatialContext   `json:"spatial_context"`
	HumanExposure    HumanExposure    `json:"human_exposure"`
	BuiltEnvironment BuiltEnvironment `json:"built_environment"`
	DamageIndicators DamageIndicators `json:"damage_indicators"`
	ActionsTaken     ActionsTaken     `json:"actions_taken"`
	Outcomes         Outcomes         `json:"outcomes"`
}

// EmbeddingText renders the situation as retrieval text. Outcomes are
// deliberately excluded: the indexed vector must derive from the observed
// state only, never from what happened afterwards.
func (s Situation) EmbeddingText() string {
	var b strings.Builder

	b.WriteString("Event: " + orUnknown(s.EventIdentity.EventType))
	if mag, ok := s.EventIdentity.Magnitude.Get(); ok {
		fmt.Fprintf(&b, " magnitude %.1f", mag)
	}
	if s.EventIdentity.Phase != "" {
		b.WriteString("\nPhase: " + s.EventIdentity.Phase)
	}
	if region, ok := s.SpatialContext.RegionType.Get(); ok {
		b.WriteString("\nRegion: " + region)
	}
	if terrain, ok := s.SpatialContext.Terrain.Get(); ok {
		b.WriteString(", terrain " + terrain)
	}
	if s.SpatialContext.LocationDescription != "" {
		b.WriteString("\nLocation: " + s.SpatialContext.LocationDescription)
	}
	if hazards := ListValues(s.SpatialContext.SecondaryHazards); len(hazards) > 0 {
		b.WriteString("\nSecondary hazards: " + strings.Join(hazards, ", "))
	}
	if density, ok := s.HumanExposure.PopulationDensity.Get(); ok {
		b.WriteString("\nPopulation density: " + density)
	}
	if groups := ListValues(s.HumanExposure.VulnerableGroups); len(groups) > 0 {
		b.WriteString("\nVulnerable groups: " + strings.Join(groups, ", "))
	}
	if types := ListValues(s.BuiltEnvironment.DominantBuildingTypes); len(types) > 0 {
		b.WriteString("\nBuilding types: " + strings.Join(types, ", "))
	}
	if quality, ok := s.BuiltEnvironment.ConstructionQuality.Get(); ok {
		b.WriteString("\nConstruction quality: " + quality)
	}
	if collapse, ok := s.DamageIndicators.BuildingCollapseSeverity.Get(); ok {
		b.WriteString("\nBuilding collapse: " + collapse)
	}
	if access, ok := s.DamageIndicators.AccessDisruption.Get(); ok {
		b.WriteString("\nAccess: " + access)
	}
	if hazards := ListValues(s.DamageIndicators.VisibleHazards); len(hazards) > 0 {
		b.WriteString("\nVisible hazards: " + strings.Join(hazards, ", "))
	}
	if rescue, ok := s.ActionsTaken.RescueOperations.Get(); ok {
		b.WriteString("\nRescue: " + rescue)
	}
	if evac, ok := s.ActionsTaken.EvacuationStatus.Get(); ok {
		b.WriteString("\nEvacuation: " + evac)
	}

	return b.String()
}

// ListValues extracts the present values from a property list, preserving
// input order.
func ListValues(props []Property[string]) []string {
	var out []string
	for _, p := range props {
		if v, ok := p.Get(); ok {
			out = append(out, v)
		}
	}
	return out
}

// ListValueSet extracts the present values as a set.
func ListValueSet(props []Property[string]) map[string]struct{} {
	set := make(map[string]struct{})
	for _, p := range props {
		if v, ok := p.Get(); ok {
			set[v] = struct{}{}
		}
	}
	return set
}

// SortedKeys returns the keys of an infrastructure status map in stable
// order.
func SortedKeys(m map[string]Property[string]) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}
