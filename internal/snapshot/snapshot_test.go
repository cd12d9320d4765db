package snapshot

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() DecisionSnapshot {
	return DecisionSnapshot{
		SnapshotID:           "snap-1",
		CaseStudyID:          "case-izmit",
		SourceID:             "report-42",
		InferredTimeWindow:   "first 6 hours",
		LocationContext:      "collapsed apartment blocks, Golcuk",
		DecisionContext:      "limited rescue teams, many reported collapse sites",
		Uncertainties:        []string{"number of trapped survivors unknown"},
		RisksPerceived:       []string{"aftershocks", "gas leaks"},
		ActionsConsidered:    []string{"wide-area search", "staged triage"},
		ActionTakenNarrative: "teams were staged by reported collapse severity",
	}
}

func TestNarrativeTextLayout(t *testing.T) {
	text := sampleSnapshot().NarrativeText()

	expected := "Time window: first 6 hours\n" +
		"Location: collapsed apartment blocks, Golcuk\n" +
		"Decision context: limited rescue teams, many reported collapse sites\n" +
		"Uncertainties: number of trapped survivors unknown\n" +
		"Risks perceived: aftershocks; gas leaks\n" +
		"Actions considered: wide-area search; staged triage\n" +
		"Action taken: teams were staged by reported collapse severity"
	assert.Equal(t, expected, text)
}

func TestNarrativeTextSkipsEmptyFields(t *testing.T) {
	s := DecisionSnapshot{DecisionContext: "choice under uncertainty"}
	assert.Equal(t, "Decision context: choice under uncertainty", s.NarrativeText())

	var empty DecisionSnapshot
	assert.Equal(t, "", empty.NarrativeText())
}

func TestNarrativeTextIsStable(t *testing.T) {
	s := sampleSnapshot()
	assert.Equal(t, s.NarrativeText(), s.NarrativeText())
}

func TestPayloadRoundTrip(t *testing.T) {
	s := sampleSnapshot()

	payload, err := s.Payload()
	require.NoError(t, err)
	assert.Equal(t, "snap-1", payload["snapshot_id"])
	assert.Equal(t, "case-izmit", payload["case_study_id"])
	assert.Equal(t, "first 6 hours", payload["inferred_time_window"])
	assert.Equal(t, "report-42", payload["source_id"])
	require.Contains(t, payload, "full_narrative_dump")

	got, err := FromPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, s, got)
}

func TestFromPayloadTopLevelFallback(t *testing.T) {
	payload := map[string]any{
		"case_study_id":    "case-old",
		"decision_context": "legacy layout",
	}
	got, err := FromPayload(payload)
	require.NoError(t, err)
	assert.Equal(t, "case-old", got.CaseStudyID)
	assert.Equal(t, "legacy layout", got.DecisionContext)
}

func TestFromPayloadRejectsMissingCaseID(t *testing.T) {
	payload := map[string]any{
		"full_narrative_dump": map[string]any{
			"decision_context": "anonymous snapshot",
		},
	}
	_, err := FromPayload(payload)
	assert.ErrorContains(t, err, "case_study_id")
}
