package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/temblorlabs/temblor/internal/snapshot"
)

// Adviser composes a narrative analysis of the current situation against
// retrieved historical decision snapshots.
type Adviser struct {
	client Client
}

// NewAdviser creates an adviser backed by the given client.
func NewAdviser(client Client) *Adviser {
	return &Adviser{client: client}
}

// Advisory is the adviser's output: prose analysis plus the ids of the
// snapshots it was grounded on.
type Advisory struct {
	Analysis         string   `json:"analysis"`
	DrivingSnapshots []string `json:"driving_snapshots"`
}

// Advise generates the advisory text. The prompt forbids prediction and
// causal claims; the model is asked to phrase findings as historical
// association.
func (a *Adviser) Advise(ctx context.Context, currentNarrative string, similar []snapshot.DecisionSnapshot) (Advisory, error) {
	var sb strings.Builder
	for _, snap := range similar {
		fmt.Fprintf(&sb, `
---
Case: %s (Window: %s)
Context: %s
Action Taken: %s
Risks: %s
---
`, snap.CaseStudyID, snap.InferredTimeWindow, snap.DecisionContext,
			snap.ActionTakenNarrative, strings.Join(snap.RisksPerceived, ", "))
	}

	prompt := fmt.Sprintf(`You are an intelligent decision support assistant.

Current Situation:
%s

Relevant Historical Decision Snapshots:
%s

Task:
1. Compare the current situation to these historical moments.
2. Identify common risk patterns.
3. Surface historically effective interventions mentioned in these snapshots.
4. Explicitly state uncertainty.

Do NOT predict the future. Do NOT claim causality. Use phrases like "In similar cases...", "Historical patterns suggest...".
Provide a cohesive narrative analysis in plain text.`, currentNarrative, sb.String())

	analysis, err := a.client.GenerateText(ctx, "", prompt)
	if err != nil {
		return Advisory{}, fmt.Errorf("advisory call failed: %w", err)
	}

	ids := make([]string, 0, len(similar))
	for _, snap := range similar {
		ids = append(ids, snap.SnapshotID)
	}
	return Advisory{Analysis: analysis, DrivingSnapshots: ids}, nil
}
