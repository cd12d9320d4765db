// Package pipeline wires extraction, embedding, memory, ranking, and
// reasoning into the two end-to-end paths the service exposes: the
// narrative path over LLM-extracted decision snapshots and the structured
// path over phase-sliced experience units.
package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/temblorlabs/temblor/internal/embedding"
	"github.com/temblorlabs/temblor/internal/llm"
	"github.com/temblorlabs/temblor/internal/logging"
	"github.com/temblorlabs/temblor/internal/memory"
	"github.com/temblorlabs/temblor/internal/snapshot"
)

// Parallel embedding calls per ingest.
const embedConcurrency = 4

// DefaultRetrievalLimit bounds how many snapshots inform one analysis.
const DefaultRetrievalLimit = 5

// CaseInput is one raw case study submitted for ingestion.
type CaseInput struct {
	CaseID   string
	SourceID string
	RawText  string
}

// RetrievedSnapshot pairs a reconstructed snapshot with its similarity.
type RetrievedSnapshot struct {
	Snapshot snapshot.DecisionSnapshot `json:"snapshot"`
	Score    float64                   `json:"similarity_score"`
}

// HistoricalReference is one evidence entry in a decision-support answer.
type HistoricalReference struct {
	CaseStudyID        string  `json:"case_study_id"`
	InferredTimeWindow string  `json:"inferred_time_window"`
	Excerpt            string  `json:"excerpt"`
	SimilarityScore    float64 `json:"similarity_score"`
}

// DecisionSupport is the narrative-path answer.
type DecisionSupport struct {
	TopRisks           []string              `json:"top_risks"`
	RecommendedActions []string              `json:"recommended_actions"`
	Explanation        string                `json:"explanation"`
	HistoricalBasis    []HistoricalReference `json:"historical_basis"`
}

// NarrativePipeline is the snapshot path: free text in, extracted and
// embedded decision snapshots stored, advisory analysis out.
type NarrativePipeline struct {
	extractor *llm.Extractor
	adviser   *llm.Adviser
	embedder  embedding.Embedder
	store     memory.Store
	logger    *logging.Logger
}

// NewNarrativePipeline assembles the narrative path.
func NewNarrativePipeline(client llm.Client, embedder embedding.Embedder, store memory.Store) *NarrativePipeline {
	return &NarrativePipeline{
		extractor: llm.NewExtractor(client),
		adviser:   llm.NewAdviser(client),
		embedder:  embedder,
		store:     store,
		logger:    logging.GetLogger("pipeline.narrative"),
	}
}

// IngestCase extracts decision snapshots from the case text, embeds their
// narratives concurrently, and stores them. Returns the number of
// snapshots created.
func (p *NarrativePipeline) IngestCase(ctx context.Context, in CaseInput) (int, error) {
	if strings.TrimSpace(in.RawText) == "" || in.CaseID == "" {
		return 0, fmt.Errorf("case text and case id are required")
	}

	snaps, err := p.extractor.Extract(ctx, in.RawText, in.SourceID, in.CaseID)
	if err != nil {
		return 0, err
	}
	if len(snaps) == 0 {
		p.logger.WithField("case_id", in.CaseID).Warn("no snapshots extracted")
		return 0, nil
	}

	if err := p.store.Ensure(ctx, memory.CollectionSnapshots, p.embedder.Dimensions()); err != nil {
		return 0, err
	}

	points := make([]memory.Point, len(snaps))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(embedConcurrency)
	for i := range snaps {
		g.Go(func() error {
			snaps[i].SnapshotID = uuid.NewString()
			vec, err := p.embedder.Embed(gctx, snaps[i].NarrativeText())
			if err != nil {
				return fmt.Errorf("failed to embed snapshot %d of case %s: %w", i, in.CaseID, err)
			}
			payload, err := snaps[i].Payload()
			if err != nil {
				return err
			}
			points[i] = memory.Point{ID: snaps[i].SnapshotID, Vector: vec, Payload: payload}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := p.store.Upsert(ctx, memory.CollectionSnapshots, points); err != nil {
		return 0, err
	}
	p.logger.InfoWithFields("case ingested",
		logging.Field("case_id", in.CaseID),
		logging.Field("snapshots", len(snaps)),
	)
	return len(snaps), nil
}

// Retrieve embeds the query text and returns the closest stored snapshots.
func (p *NarrativePipeline) Retrieve(ctx context.Context, queryText string, limit int) ([]RetrievedSnapshot, error) {
	if limit <= 0 {
		limit = DefaultRetrievalLimit
	}
	exists, err := p.store.Exists(ctx, memory.CollectionSnapshots)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, nil
	}

	vec, err := p.embedder.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	hits, err := p.store.KNN(ctx, memory.CollectionSnapshots, vec, limit)
	if err != nil {
		return nil, err
	}

	out := make([]RetrievedSnapshot, 0, len(hits))
	for _, hit := range hits {
		snap, err := snapshot.FromPayload(hit.Payload)
		if err != nil {
			p.logger.WithField("id", hit.ID).Warn("skipping unreadable snapshot payload: %v", err)
			continue
		}
		out = append(out, RetrievedSnapshot{Snapshot: snap, Score: hit.Score})
	}
	return out, nil
}

// DecisionSupport retrieves similar historical decision moments and
// synthesizes an advisory answer: deduplicated risks and actions from the
// evidence itself, an LLM narrative comparison, and the evidence list.
func (p *NarrativePipeline) DecisionSupport(ctx context.Context, currentNarrative string) (DecisionSupport, error) {
	retrieved, err := p.Retrieve(ctx, currentNarrative, DefaultRetrievalLimit)
	if err != nil {
		return DecisionSupport{}, err
	}

	snaps := make([]snapshot.DecisionSnapshot, 0, len(retrieved))
	for _, r := range retrieved {
		snaps = append(snaps, r.Snapshot)
	}
	advisory, err := p.adviser.Advise(ctx, currentNarrative, snaps)
	if err != nil {
		return DecisionSupport{}, err
	}

	var (
		risks, actions []string
		seenRisks      = map[string]struct{}{}
		seenActions    = map[string]struct{}{}
		basis          []HistoricalReference
	)
	for _, r := range retrieved {
		snap := r.Snapshot
		basis = append(basis, HistoricalReference{
			CaseStudyID:        snap.CaseStudyID,
			InferredTimeWindow: snap.InferredTimeWindow,
			Excerpt:            snap.DecisionContext,
			SimilarityScore:    r.Score,
		})
		for _, risk := range snap.RisksPerceived {
			risk = strings.TrimSpace(risk)
			key := strings.ToLower(risk)
			if risk == "" {
				continue
			}
			if _, seen := seenRisks[key]; !seen {
				risks = append(risks, risk)
				seenRisks[key] = struct{}{}
			}
		}
		action := strings.TrimSpace(snap.ActionTakenNarrative)
		key := strings.ToLower(action)
		if action != "" {
			if _, seen := seenActions[key]; !seen {
				actions = append(actions, action)
				seenActions[key] = struct{}{}
			}
		}
	}

	if len(risks) == 0 {
		risks = []string{"Risk assessment requires more data."}
	}
	if len(actions) == 0 {
		actions = []string{"Evaluate situation further."}
	}
	if len(risks) > DefaultRetrievalLimit {
		risks = risks[:DefaultRetrievalLimit]
	}
	if len(actions) > DefaultRetrievalLimit {
		actions = actions[:DefaultRetrievalLimit]
	}

	return DecisionSupport{
		TopRisks:           risks,
		RecommendedActions: actions,
		Explanation:        advisory.Analysis,
		HistoricalBasis:    basis,
	}, nil
}
