package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/temblorlabs/temblor/internal/logging"
	"github.com/temblorlabs/temblor/internal/snapshot"
)

// Narratives longer than this are truncated before extraction; case study
// excerpts beyond a few pages add little and blow the context window on
// smaller models.
const maxExtractChars = 4000

const extractSystemPrompt = "You are an expert disaster analyst. Output valid JSON only."

// Extractor turns free-text case studies into decision snapshots with one
// LLM call per case.
type Extractor struct {
	client Client
	logger *logging.Logger
}

// NewExtractor creates an extractor backed by the given client.
func NewExtractor(client Client) *Extractor {
	return &Extractor{client: client, logger: logging.GetLogger("llm.extract")}
}

// Extract asks the model for decision snapshots in the case text. A
// response that cannot be parsed yields an empty list and a diagnostic
// log, never an error: one bad completion must not fail the whole ingest.
func (e *Extractor) Extract(ctx context.Context, caseText, sourceID, caseID string) ([]snapshot.DecisionSnapshot, error) {
	truncated := caseText
	if len(truncated) > maxExtractChars {
		truncated = truncated[:maxExtractChars] + "... (truncated)"
	}

	prompt := fmt.Sprintf(`Analyze the following disaster case study text.
Extract discrete 'Decision Snapshots' - moments where key decisions were made or considered.
Capture the uncertainty and context of that specific moment.
Do NOT include future knowledge or outcomes.

Text:
%s

RETURN JSON ONLY. Do not write introductory text.
Return a JSON list of objects with fields:
inferred_time_window, location_context, decision_context, uncertainties, risks_perceived, actions_considered, action_taken_narrative.`, truncated)

	response, err := e.client.GenerateText(ctx, extractSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("extraction call failed: %w", err)
	}

	var items []snapshot.DecisionSnapshot
	if err := json.Unmarshal([]byte(stripFences(response)), &items); err != nil {
		e.logger.ErrorWithErr("failed to parse extraction response", err)
		e.logger.DebugWithFields("raw extraction response", logging.Field("response", response))
		return nil, nil
	}

	for i := range items {
		items[i].CaseStudyID = caseID
		items[i].SourceID = sourceID
		if items[i].InferredTimeWindow == "" {
			items[i].InferredTimeWindow = "unknown"
		}
	}
	return items, nil
}

// stripFences removes markdown code fences that models wrap JSON in.
func stripFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}
