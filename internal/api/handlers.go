package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/temblorlabs/temblor/internal/logging"
	"github.com/temblorlabs/temblor/internal/pipeline"
	"github.com/temblorlabs/temblor/internal/situation"
)

const defaultSourceID = "manual_input"

// Handlers serves the three domain endpoints over the two pipelines.
type Handlers struct {
	narrative  *pipeline.NarrativePipeline
	experience *pipeline.ExperiencePipeline
	metrics    *Metrics
	logger     *logging.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(narrative *pipeline.NarrativePipeline, experience *pipeline.ExperiencePipeline, metrics *Metrics) *Handlers {
	return &Handlers{
		narrative:  narrative,
		experience: experience,
		metrics:    metrics,
		logger:     logging.GetLogger("api.handlers"),
	}
}

type ingestRequest struct {
	CaseStudyID    string         `json:"case_study_id"`
	CaseID         string         `json:"case_id"`
	RawText        string         `json:"raw_text"`
	Text           string         `json:"text"`
	SourceID       string         `json:"source_id"`
	StructuredData map[string]any `json:"structured_data"`
}

// HandleIngestCaseStudy accepts a case study and feeds one or both
// ingestion paths: free text through extraction, structured data through
// phase slicing.
func (h *Handlers) HandleIngestCaseStudy(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "Invalid JSON body")
		return
	}

	caseID := req.CaseStudyID
	if caseID == "" {
		caseID = req.CaseID
	}
	rawText := req.RawText
	if rawText == "" {
		rawText = req.Text
	}
	sourceID := req.SourceID
	if sourceID == "" {
		sourceID = defaultSourceID
	}

	if caseID == "" || (strings.TrimSpace(rawText) == "" && len(req.StructuredData) == 0) {
		WriteError(w, http.StatusBadRequest, ErrorCodeInvalidRequest,
			"Missing required fields: raw_text, case_study_id")
		return
	}

	var snapshotsCreated, unitsCreated int
	if strings.TrimSpace(rawText) != "" {
		n, err := h.narrative.IngestCase(r.Context(), pipeline.CaseInput{
			CaseID:   caseID,
			SourceID: sourceID,
			RawText:  rawText,
		})
		if err != nil {
			h.logger.ErrorWithErr("narrative ingest failed", err)
			WriteError(w, http.StatusBadGateway, ErrorCodeUpstreamError, "Failed to ingest case text")
			return
		}
		snapshotsCreated = n
		h.metrics.SnapshotsStored.Add(float64(n))
	}
	if len(req.StructuredData) > 0 {
		n, err := h.experience.IngestCase(r.Context(), caseID, req.StructuredData)
		if err != nil {
			h.logger.ErrorWithErr("structured ingest failed", err)
			WriteError(w, http.StatusBadGateway, ErrorCodeUpstreamError, "Failed to ingest structured case data")
			return
		}
		unitsCreated = n
		h.metrics.UnitsStored.Add(float64(n))
	}

	_ = WriteSuccess(w, map[string]any{
		"status":                   "success",
		"snapshots_created":        snapshotsCreated,
		"experience_units_created": unitsCreated,
	})
}

type decisionSupportRequest struct {
	CurrentNarrative string         `json:"current_narrative"`
	Narrative        string         `json:"narrative"`
	Situation        map[string]any `json:"situation"`
	Phase            string         `json:"phase"`
}

// HandleDecisionSupport answers the main reasoning request. The narrative
// drives snapshot retrieval and advisory synthesis; when a structured
// situation is supplied, the full projection and intervention chain runs
// too and its output rides along as structured_analysis.
func (h *Handlers) HandleDecisionSupport(w http.ResponseWriter, r *http.Request) {
	var req decisionSupportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "Invalid JSON body")
		return
	}

	narrative := req.CurrentNarrative
	if narrative == "" {
		narrative = req.Narrative
	}
	if strings.TrimSpace(narrative) == "" {
		WriteError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "Missing current_narrative")
		return
	}

	support, err := h.narrative.DecisionSupport(r.Context(), narrative)
	if err != nil {
		h.logger.ErrorWithErr("decision support failed", err)
		WriteError(w, http.StatusBadGateway, ErrorCodeUpstreamError, "Failed to generate decision support")
		return
	}
	h.metrics.RetrievalResults.Observe(float64(len(support.HistoricalBasis)))

	out := map[string]any{
		"top_risks":           support.TopRisks,
		"recommended_actions": support.RecommendedActions,
		"explanation":         support.Explanation,
		"historical_basis":    support.HistoricalBasis,
	}

	if len(req.Situation) > 0 {
		query, err := situation.FromMap(req.Situation)
		if err != nil {
			WriteError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "Malformed situation object")
			return
		}
		phase, ok := situation.ParsePhase(req.Phase)
		if !ok {
			phase = situation.PhaseImpact
		}
		structured, err := h.experience.Advise(r.Context(), query, phase)
		if err != nil {
			h.logger.ErrorWithErr("structured analysis failed", err)
			WriteError(w, http.StatusBadGateway, ErrorCodeUpstreamError, "Failed to run structured analysis")
			return
		}
		out["structured_analysis"] = structured
	}

	_ = WriteSuccess(w, out)
}

type retrieveRequest struct {
	QueryText string `json:"query_text"`
	Query     string `json:"query"`
	TopK      int    `json:"top_k"`
}

// HandleMemoryRetrieve is the raw retrieval endpoint: query text in,
// stored snapshots with similarity scores out. An empty query returns an
// empty list rather than an error.
func (h *Handlers) HandleMemoryRetrieve(w http.ResponseWriter, r *http.Request) {
	var req retrieveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, ErrorCodeInvalidRequest, "Invalid JSON body")
		return
	}

	query := req.QueryText
	if query == "" {
		query = req.Query
	}
	if strings.TrimSpace(query) == "" {
		_ = WriteSuccess(w, []any{})
		return
	}

	results, err := h.narrative.Retrieve(r.Context(), query, req.TopK)
	if err != nil {
		h.logger.ErrorWithErr("retrieval failed", err)
		WriteError(w, http.StatusBadGateway, ErrorCodeUpstreamError, "Failed to retrieve from memory")
		return
	}
	h.metrics.RetrievalResults.Observe(float64(len(results)))

	out := make([]map[string]any, 0, len(results))
	for _, r := range results {
		item, err := r.Snapshot.Payload()
		if err != nil {
			continue
		}
		item["similarity_score"] = r.Score
		out = append(out, item)
	}
	_ = WriteSuccess(w, out)
}
