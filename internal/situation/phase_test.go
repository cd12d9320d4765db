package situation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhaseOrdering(t *testing.T) {
	phases := Phases()
	assert.Len(t, phases, 4)
	for i, p := range phases {
		assert.Equal(t, i, p.Order())
	}
	assert.Equal(t, -1, TimePhase("T9_FUTURE").Order())
}

func TestParsePhase(t *testing.T) {
	p, ok := ParsePhase("T1_EARLY_RESPONSE")
	assert.True(t, ok)
	assert.Equal(t, PhaseEarlyResponse, p)

	_, ok = ParsePhase("early_response")
	assert.False(t, ok)
}

func TestPhaseLabels(t *testing.T) {
	assert.Equal(t, "immediate_impact", PhaseImpact.Label())
	assert.Equal(t, "0-6 hours", PhaseImpact.RelativeTimeLabel())
	assert.Equal(t, "post-event", PhaseOutcome.RelativeTimeLabel())
	assert.Equal(t, "unknown", TimePhase("bogus").Label())
}

func TestPhaseCompatible(t *testing.T) {
	tests := []struct {
		query     string
		candidate TimePhase
		want      bool
	}{
		{"immediate_impact", PhaseImpact, true},
		{"immediate_impact", PhaseEarlyResponse, false},
		{"early_response", PhaseEarlyResponse, true},
		{"stabilization", PhaseStabilization, true},
		{"recovery", PhaseOutcome, true},
		{"outcome", PhaseOutcome, true},
		{"", PhaseImpact, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PhaseCompatible(tt.query, tt.candidate),
			"query %q vs %s", tt.query, tt.candidate)
	}
}
