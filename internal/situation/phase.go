package situation

import "strings"

// TimePhase is the ordinal time bucket of a situation within an earthquake
// event. Phases are strictly ordered: T0 < T1 < T2 < T3.
type TimePhase string

const (
	PhaseImpact        TimePhase = "T0_IMPACT"
	PhaseEarlyResponse TimePhase = "T1_EARLY_RESPONSE"
	PhaseStabilization TimePhase = "T2_STABILIZATION"
	PhaseOutcome       TimePhase = "T3_OUTCOME"
)

// Phases returns all phases in order.
func Phases() []TimePhase {
	return []TimePhase{PhaseImpact, PhaseEarlyResponse, PhaseStabilization, PhaseOutcome}
}

// Order returns the ordinal position of the phase, or -1 for unknown phases.
func (p TimePhase) Order() int {
	switch p {
	case PhaseImpact:
		return 0
	case PhaseEarlyResponse:
		return 1
	case PhaseStabilization:
		return 2
	case PhaseOutcome:
		return 3
	}
	return -1
}

// HourAnchor returns the representative hours-since-event for the phase.
func (p TimePhase) HourAnchor() float64 {
	switch p {
	case PhaseImpact:
		return 0
	case PhaseEarlyResponse:
		return 12
	case PhaseStabilization:
		return 24
	case PhaseOutcome:
		return 72
	}
	return 0
}

// Label returns the free-text phase string recorded on situations built for
// this phase.
func (p TimePhase) Label() string {
	switch p {
	case PhaseImpact:
		return "immediate_impact"
	case PhaseEarlyResponse:
		return "early_response"
	case PhaseStabilization:
		return "stabilization"
	case PhaseOutcome:
		return "outcome"
	}
	return "unknown"
}

// RelativeTimeLabel returns the human-readable window for the phase.
func (p TimePhase) RelativeTimeLabel() string {
	switch p {
	case PhaseImpact:
		return "0-6 hours"
	case PhaseEarlyResponse:
		return "12-24 hours"
	case PhaseStabilization:
		return "24-48 hours"
	case PhaseOutcome:
		return "post-event"
	}
	return "unknown"
}

// ParsePhase maps a stored phase string back to a TimePhase.
func ParsePhase(s string) (TimePhase, bool) {
	p := TimePhase(s)
	if p.Order() >= 0 {
		return p, true
	}
	return "", false
}

// PhaseCompatible reports whether a free-text phase string from a query
// situation is compatible with a candidate's strict phase. Matching is a
// coarse shared-token check; query strings come from our own ingestor or
// the extraction prompt, which both emit English tokens.
func PhaseCompatible(queryPhase string, candidate TimePhase) bool {
	qp := strings.ToUpper(queryPhase)
	cp := strings.ToUpper(string(candidate))

	switch {
	case strings.Contains(qp, "IMPACT") && strings.Contains(cp, "IMPACT"):
		return true
	case strings.Contains(qp, "RESPONSE") && strings.Contains(cp, "RESPONSE"):
		return true
	case strings.Contains(qp, "STABIL") && strings.Contains(cp, "STABIL"):
		return true
	case strings.Contains(qp, "OUTCOME") && strings.Contains(cp, "OUTCOME"):
		return true
	case strings.Contains(qp, "RECOVER") && strings.Contains(cp, "OUTCOME"):
		return true
	}
	return false
}
