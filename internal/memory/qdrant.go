package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/temblorlabs/temblor/internal/logging"
)

// QdrantStore talks to a qdrant server over its REST API. Collections use
// cosine distance, so retrieval scores come back already normalized by the
// server; they are clamped to [0, 1] at the boundary.
type QdrantStore struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *logging.Logger
}

// NewQdrantStore creates a client for the given base URL (for example
// "http://localhost:6333"). apiKey may be empty for unauthenticated
// deployments.
func NewQdrantStore(baseURL, apiKey string) *QdrantStore {
	return &QdrantStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
		logger:  logging.GetLogger("memory.qdrant"),
	}
}

// Ensure creates the collection with cosine distance if it does not exist.
func (s *QdrantStore) Ensure(ctx context.Context, collection string, dim int) error {
	exists, err := s.Exists(ctx, collection)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	body := map[string]any{
		"vectors": map[string]any{
			"size":     dim,
			"distance": "Cosine",
		},
	}
	if err := s.do(ctx, http.MethodPut, "/collections/"+collection, body, nil); err != nil {
		return fmt.Errorf("failed to create collection %q: %w", collection, err)
	}
	s.logger.InfoWithFields("created collection",
		logging.Field("collection", collection),
		logging.Field("dim", dim),
	)
	return nil
}

// Exists reports whether the collection exists on the server.
func (s *QdrantStore) Exists(ctx context.Context, collection string) (bool, error) {
	req, err := s.newRequest(ctx, http.MethodGet, "/collections/"+collection, nil)
	if err != nil {
		return false, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to reach vector store: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, fmt.Errorf("unexpected status %d checking collection %q", resp.StatusCode, collection)
	}
}

// Upsert writes points with wait=true so subsequent searches see them.
func (s *QdrantStore) Upsert(ctx context.Context, collection string, points []Point) error {
	type qdrantPoint struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}
	qpoints := make([]qdrantPoint, 0, len(points))
	for _, p := range points {
		qpoints = append(qpoints, qdrantPoint{ID: p.ID, Vector: p.Vector, Payload: p.Payload})
	}
	body := map[string]any{"points": qpoints}
	if err := s.do(ctx, http.MethodPut, "/collections/"+collection+"/points?wait=true", body, nil); err != nil {
		return fmt.Errorf("failed to upsert %d points into %q: %w", len(points), collection, err)
	}
	return nil
}

// KNN queries the server for the k nearest points by cosine similarity.
func (s *QdrantStore) KNN(ctx context.Context, collection string, vector []float32, k int) ([]Scored, error) {
	if k <= 0 {
		return nil, nil
	}
	body := map[string]any{
		"query":        vector,
		"limit":        k,
		"with_payload": true,
	}
	var out struct {
		Result struct {
			Points []struct {
				ID      string         `json:"id"`
				Score   float64        `json:"score"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		} `json:"result"`
	}
	if err := s.do(ctx, http.MethodPost, "/collections/"+collection+"/points/query", body, &out); err != nil {
		return nil, fmt.Errorf("failed to query collection %q: %w", collection, err)
	}

	scored := make([]Scored, 0, len(out.Result.Points))
	for _, p := range out.Result.Points {
		scored = append(scored, Scored{
			Point: Point{ID: p.ID, Payload: p.Payload},
			Score: clamp01(p.Score),
		})
	}
	return scored, nil
}

func (s *QdrantStore) do(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}
	req, err := s.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach vector store: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("vector store returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode vector store response: %w", err)
		}
	} else {
		io.Copy(io.Discard, resp.Body)
	}
	return nil
}

func (s *QdrantStore) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}
	return req, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
