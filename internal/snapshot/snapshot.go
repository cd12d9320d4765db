// Package snapshot defines decision snapshots: moments in a historical
// case narrative where responders faced a choice under uncertainty. They
// are extracted from free text by an LLM, embedded, and stored alongside
// structured experience units as a second retrieval corpus.
package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"
)

// DecisionSnapshot captures one decision point from a case narrative.
type DecisionSnapshot struct {
	SnapshotID           string   `json:"snapshot_id,omitempty"`
	CaseStudyID          string   `json:"case_study_id"`
	SourceID             string   `json:"source_id,omitempty"`
	InferredTimeWindow   string   `json:"inferred_time_window"`
	LocationContext      string   `json:"location_context"`
	DecisionContext      string   `json:"decision_context"`
	Uncertainties        []string `json:"uncertainties"`
	RisksPerceived       []string `json:"risks_perceived"`
	ActionsConsidered    []string `json:"actions_considered"`
	ActionTakenNarrative string   `json:"action_taken_narrative"`
}

// NarrativeText renders the snapshot as the prose that gets embedded. The
// layout is stable so identical snapshots always embed identically.
func (s DecisionSnapshot) NarrativeText() string {
	var b strings.Builder
	write := func(label, value string) {
		if value != "" {
			fmt.Fprintf(&b, "%s: %s\n", label, value)
		}
	}
	write("Time window", s.InferredTimeWindow)
	write("Location", s.LocationContext)
	write("Decision context", s.DecisionContext)
	if len(s.Uncertainties) > 0 {
		write("Uncertainties", strings.Join(s.Uncertainties, "; "))
	}
	if len(s.RisksPerceived) > 0 {
		write("Risks perceived", strings.Join(s.RisksPerceived, "; "))
	}
	if len(s.ActionsConsidered) > 0 {
		write("Actions considered", strings.Join(s.ActionsConsidered, "; "))
	}
	write("Action taken", s.ActionTakenNarrative)
	return strings.TrimRight(b.String(), "\n")
}

// Payload serializes the snapshot into the persisted payload layout: flat
// filter keys plus a full dump sufficient for reconstruction.
func (s DecisionSnapshot) Payload() (map[string]any, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize decision snapshot: %w", err)
	}
	var dump map[string]any
	if err := json.Unmarshal(raw, &dump); err != nil {
		return nil, err
	}
	return map[string]any{
		"snapshot_id":          s.SnapshotID,
		"case_study_id":        s.CaseStudyID,
		"inferred_time_window": s.InferredTimeWindow,
		"source_id":            s.SourceID,
		"full_narrative_dump":  dump,
	}, nil
}

// FromPayload reconstructs a snapshot from a stored payload. Snapshots
// without a case study id are rejected so callers can skip the candidate.
func FromPayload(payload map[string]any) (DecisionSnapshot, error) {
	dump, ok := payload["full_narrative_dump"].(map[string]any)
	if !ok {
		// Older layout stored the snapshot fields at the top level.
		dump = payload
	}
	raw, err := json.Marshal(dump)
	if err != nil {
		return DecisionSnapshot{}, err
	}
	var s DecisionSnapshot
	if err := json.Unmarshal(raw, &s); err != nil {
		return DecisionSnapshot{}, fmt.Errorf("malformed snapshot payload: %w", err)
	}
	if s.CaseStudyID == "" {
		return DecisionSnapshot{}, fmt.Errorf("snapshot payload missing case_study_id")
	}
	return s, nil
}
