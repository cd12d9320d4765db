// Package replay evaluates the reasoning chain by replaying historical
// cases phase by phase against a memory that excludes the case under
// replay, then logging system output next to the historical ground truth
// for offline comparison.
package replay

import (
	"fmt"

	"github.com/temblorlabs/temblor/internal/confidence"
	"github.com/temblorlabs/temblor/internal/ingest"
	"github.com/temblorlabs/temblor/internal/intervention"
	"github.com/temblorlabs/temblor/internal/logging"
	"github.com/temblorlabs/temblor/internal/memory"
	"github.com/temblorlabs/temblor/internal/projection"
	"github.com/temblorlabs/temblor/internal/response"
	"github.com/temblorlabs/temblor/internal/similarity"
	"github.com/temblorlabs/temblor/internal/situation"
)

// Cohort size per replayed phase.
const topK = 5

// Validation is the historical ground truth for one replayed phase.
type Validation struct {
	ActualSubsequentActions []string `json:"actual_subsequent_actions"`
	ActualFinalOutcomes     string   `json:"actual_final_outcomes"`
}

// EvaluationNotes tells a reviewer which fields to compare.
type EvaluationNotes struct {
	TimelinessCheck string `json:"timeliness_check"`
	AccuracyCheck   string `json:"accuracy_check"`
}

// PhaseLog is the evaluation record for one replayed phase.
type PhaseLog struct {
	CaseID          string                  `json:"case_id"`
	Phase           situation.TimePhase     `json:"phase"`
	SystemOutput    response.SystemResponse `json:"system_output"`
	Validation      Validation              `json:"validation"`
	EvaluationNotes EvaluationNotes         `json:"evaluation_notes"`
}

// Evaluator drives the full reasoning chain over an in-memory candidate
// list, bypassing vector retrieval so the replay exercises pure reasoning
// logic.
type Evaluator struct {
	ingestor   *ingest.Ingestor
	engine     *similarity.Engine
	projector  *projection.Projector
	reasoner   *intervention.Reasoner
	integrator *confidence.Integrator
	formatter  *response.Formatter
	logger     *logging.Logger
}

// NewEvaluator assembles an evaluator with default similarity weights.
func NewEvaluator() *Evaluator {
	return &Evaluator{
		ingestor:   ingest.NewIngestor(),
		engine:     similarity.NewEngine(nil),
		projector:  projection.NewProjector(),
		reasoner:   intervention.NewReasoner(),
		integrator: confidence.NewIntegrator(),
		formatter:  response.NewFormatter(),
		logger:     logging.GetLogger("replay"),
	}
}

// ReplayCase replays one raw case phase by phase. historicalMemory must
// exclude the case under replay, otherwise the evaluation leaks the
// answer into the evidence.
func (e *Evaluator) ReplayCase(raw map[string]any, historicalMemory []memory.ExperienceUnit) []PhaseLog {
	slices := e.ingestor.Ingest(raw)
	if len(slices) == 0 {
		return nil
	}

	// Ground truth: the latest phase carrying any outcome data.
	var finalOutcomes *situation.Outcomes
	for i := len(slices) - 1; i >= 0; i-- {
		if out := slices[i].Situation.Outcomes; !out.IsEmpty() {
			o := out
			finalOutcomes = &o
			break
		}
	}

	logs := make([]PhaseLog, 0, len(slices))
	for i, slice := range slices {
		logs = append(logs, e.processPhase(slice, historicalMemory, slices[i+1:], finalOutcomes))
	}
	return logs
}

func (e *Evaluator) processPhase(
	current ingest.TimeSlice,
	candidates []memory.ExperienceUnit,
	futureSlices []ingest.TimeSlice,
	finalOutcomes *situation.Outcomes,
) PhaseLog {
	cohort := e.engine.Rank(current.Situation, candidates)
	if len(cohort) > topK {
		cohort = cohort[:topK]
	}

	projections := e.projector.Project(current.Phase, cohort)
	projConf := e.integrator.CalibrateProjections(projections)
	recs := e.reasoner.Recommend(cohort)
	scoredRecs := e.integrator.CalibrateInterventions(recs, projConf)

	out := e.formatter.Format(current.Situation, projections, projConf, scoredRecs, response.CohortMeta{
		CohortSize: len(cohort),
		Patterns:   "Evaluation Replay Mode",
	})

	var futureActions []string
	for _, f := range futureSlices {
		acts := f.Situation.ActionsTaken
		if v, ok := acts.RescueOperations.Get(); ok {
			futureActions = append(futureActions, fmt.Sprintf("%s: Rescue=%s", f.Phase, v))
		}
		if v, ok := acts.EvacuationStatus.Get(); ok {
			futureActions = append(futureActions, fmt.Sprintf("%s: Evac=%s", f.Phase, v))
		}
		if v, ok := acts.MedicalDeployment.Get(); ok {
			futureActions = append(futureActions, fmt.Sprintf("%s: Med=%s", f.Phase, v))
		}
	}

	outcomeSummary := "Unknown"
	if finalOutcomes != nil {
		cas := "?"
		if v, ok := finalOutcomes.Casualties.Get(); ok {
			cas = fmt.Sprintf("%d", v)
		}
		loss := "?"
		if v, ok := finalOutcomes.EconomicLoss.Get(); ok {
			loss = v
		}
		outcomeSummary = fmt.Sprintf("Casualties: %s, Loss: %s", cas, loss)
	}

	return PhaseLog{
		CaseID:       out.SituationSummary.EventID,
		Phase:        current.Phase,
		SystemOutput: out,
		Validation: Validation{
			ActualSubsequentActions: futureActions,
			ActualFinalOutcomes:     outcomeSummary,
		},
		EvaluationNotes: EvaluationNotes{
			TimelinessCheck: "Compare 'system_output.intervention_options' vs 'actual_subsequent_actions'",
			AccuracyCheck:   "Compare 'system_output.baseline_projections' vs 'actual_final_outcomes'",
		},
	}
}

// UnitsFromCase converts a raw case into the experience units it would
// contribute to memory, for building leave-one-out memories in replay
// runs.
func (e *Evaluator) UnitsFromCase(caseID string, raw map[string]any) []memory.ExperienceUnit {
	slices := e.ingestor.Ingest(raw)
	if len(slices) == 0 {
		return nil
	}
	var finalOutcomes *situation.Outcomes
	for i := len(slices) - 1; i >= 0; i-- {
		if out := slices[i].Situation.Outcomes; !out.IsEmpty() {
			o := out
			finalOutcomes = &o
			break
		}
	}
	units := make([]memory.ExperienceUnit, 0, len(slices))
	for _, slice := range slices {
		units = append(units, memory.ExperienceUnit{
			Situation:          slice.Situation,
			Phase:              slice.Phase,
			SourceCaseID:       caseID,
			SubsequentOutcomes: finalOutcomes,
		})
	}
	return units
}
