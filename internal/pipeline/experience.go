package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/temblorlabs/temblor/internal/confidence"
	"github.com/temblorlabs/temblor/internal/embedding"
	"github.com/temblorlabs/temblor/internal/ingest"
	"github.com/temblorlabs/temblor/internal/intervention"
	"github.com/temblorlabs/temblor/internal/logging"
	"github.com/temblorlabs/temblor/internal/memory"
	"github.com/temblorlabs/temblor/internal/projection"
	"github.com/temblorlabs/temblor/internal/response"
	"github.com/temblorlabs/temblor/internal/similarity"
	"github.com/temblorlabs/temblor/internal/situation"
)

// ExperiencePipeline is the structured path: raw case data becomes
// phase-sliced experience units, and a query situation becomes a full
// decision-support response via similarity ranking, horizon projection,
// intervention reasoning, and confidence calibration.
type ExperiencePipeline struct {
	ingestor   *ingest.Ingestor
	embedder   embedding.Embedder
	store      memory.Store
	engine     *similarity.Engine
	projector  *projection.Projector
	reasoner   *intervention.Reasoner
	integrator *confidence.Integrator
	formatter  *response.Formatter
	logger     *logging.Logger
}

// NewExperiencePipeline assembles the structured path with default
// similarity weights.
func NewExperiencePipeline(embedder embedding.Embedder, store memory.Store) *ExperiencePipeline {
	return &ExperiencePipeline{
		ingestor:   ingest.NewIngestor(),
		embedder:   embedder,
		store:      store,
		engine:     similarity.NewEngine(nil),
		projector:  projection.NewProjector(),
		reasoner:   intervention.NewReasoner(),
		integrator: confidence.NewIntegrator(),
		formatter:  response.NewFormatter(),
		logger:     logging.GetLogger("pipeline.experience"),
	}
}

// IngestCase slices the raw case into phase-bounded situations, attaches
// the final outcomes as each unit's subsequent outcomes, embeds the
// observed state, and stores the units under deterministic ids so
// re-ingesting a case overwrites rather than duplicates.
func (p *ExperiencePipeline) IngestCase(ctx context.Context, caseID string, raw map[string]any) (int, error) {
	if caseID == "" {
		return 0, fmt.Errorf("case id is required")
	}
	slices := p.ingestor.Ingest(raw)
	if len(slices) == 0 {
		p.logger.WithField("case_id", caseID).Warn("no time slices produced")
		return 0, nil
	}

	// Final outcomes come from the last phase that carries any.
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

	if err := p.store.Ensure(ctx, memory.CollectionExperiences, p.embedder.Dimensions()); err != nil {
		return 0, err
	}

	points := make([]memory.Point, len(units))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i := range units {
		g.Go(func() error {
			vec, err := p.embedder.Embed(gctx, units[i].Situation.EmbeddingText())
			if err != nil {
				return fmt.Errorf("failed to embed %s unit of case %s: %w", units[i].Phase, caseID, err)
			}
			payload, err := units[i].Payload()
			if err != nil {
				return err
			}
			points[i] = memory.Point{
				ID:      memory.ExperienceID(caseID, units[i].Phase),
				Vector:  vec,
				Payload: payload,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := p.store.Upsert(ctx, memory.CollectionExperiences, points); err != nil {
		return 0, err
	}
	p.logger.InfoWithFields("case ingested",
		logging.Field("case_id", caseID),
		logging.Field("units", len(units)),
	)
	return len(units), nil
}

// RetrieveCohort embeds the query situation and returns similar
// experience units ranked by the deterministic similarity engine.
func (p *ExperiencePipeline) RetrieveCohort(ctx context.Context, query situation.Situation, limit int) ([]similarity.Result, error) {
	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}
	exists, err := p.store.Exists(ctx, memory.CollectionExperiences)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	vec, err := p.embedder.Embed(ctx, query.EmbeddingText())
	if err != nil {
		return nil, fmt.Errorf("failed to embed query situation: %w", err)
	}
	hits, err := p.store.KNN(ctx, memory.CollectionExperiences, vec, limit)
	if err != nil {
		return nil, err
	}

	units := make([]memory.ExperienceUnit, 0, len(hits))
	for _, hit := range hits {
		unit, err := memory.UnitFromPayload(hit.Payload)
		if err != nil {
			p.logger.WithField("id", hit.ID).Warn("skipping unreadable experience payload: %v", err)
			continue
		}
		units = append(units, unit)
	}
	return p.engine.Rank(query, units), nil
}

// Advise runs the full structured reasoning chain for a query situation:
// retrieve cohort, project horizons, evaluate interventions, calibrate
// confidence, and assemble the response.
func (p *ExperiencePipeline) Advise(ctx context.Context, query situation.Situation, queryPhase situation.TimePhase) (response.SystemResponse, error) {
	cohort, err := p.RetrieveCohort(ctx, query, DefaultRetrievalLimit)
	if err != nil {
		return response.SystemResponse{}, err
	}

	projections := p.projector.Project(queryPhase, cohort)
	projConf := p.integrator.CalibrateProjections(projections)
	recs := p.reasoner.Recommend(cohort)
	scoredRecs := p.integrator.CalibrateInterventions(recs, projConf)

	meta := response.CohortMeta{CohortSize: len(cohort)}
	return p.formatter.Format(query, projections, projConf, scoredRecs, meta), nil
}
