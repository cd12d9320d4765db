package memory

import (
	"encoding/json"
	"fmt"

	"github.com/temblorlabs/temblor/internal/situation"
)

// ExperienceUnit is a single atomic unit of earthquake experience: "when
// the situation looked like this at phase P, this is what eventually
// happened". Immutable once built; the store owns persistent copies and
// yields reconstructed units on retrieval.
type ExperienceUnit struct {
	Situation          situation.Situation `json:"situation"`
	Phase              situation.TimePhase `json:"phase"`
	SourceCaseID       string              `json:"source_case_id"`
	SubsequentOutcomes *situation.Outcomes `json:"subsequent_outcomes,omitempty"`
}

// Payload serializes the unit into the persisted payload layout: flat
// filter keys plus a full dump sufficient for reconstruction.
func (u ExperienceUnit) Payload() (map[string]any, error) {
	raw, err := json.Marshal(u)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize experience unit: %w", err)
	}
	var dump map[string]any
	if err := json.Unmarshal(raw, &dump); err != nil {
		return nil, err
	}
	return map[string]any{
		"case_study_id":        u.SourceCaseID,
		"phase":                string(u.Phase),
		"inferred_time_window": u.Phase.RelativeTimeLabel(),
		"full_narrative_dump":  dump,
	}, nil
}

// UnitFromPayload reconstructs an experience unit from a stored payload.
// Payloads missing the mandatory phase or source case id are rejected so
// the caller can skip the candidate and continue.
func UnitFromPayload(payload map[string]any) (ExperienceUnit, error) {
	dump, ok := payload["full_narrative_dump"].(map[string]any)
	if !ok {
		// Older layout stored the unit fields at the top level.
		dump = payload
	}

	raw, err := json.Marshal(dump)
	if err != nil {
		return ExperienceUnit{}, err
	}
	var u ExperienceUnit
	if err := json.Unmarshal(raw, &u); err != nil {
		return ExperienceUnit{}, fmt.Errorf("malformed experience payload: %w", err)
	}
	if u.SourceCaseID == "" {
		return ExperienceUnit{}, fmt.Errorf("experience payload missing source_case_id")
	}
	if _, ok := situation.ParsePhase(string(u.Phase)); !ok {
		return ExperienceUnit{}, fmt.Errorf("experience payload has invalid phase %q", u.Phase)
	}
	return u, nil
}
