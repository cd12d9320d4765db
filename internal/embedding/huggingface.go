package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	defaultHFModel  = "BAAI/bge-small-en-v1.5"
	hfRouterBaseURL = "https://router.huggingface.co/hf-inference/models/"
)

// HuggingFaceEmbedder generates embeddings through the huggingface
// inference router.
type HuggingFaceEmbedder struct {
	token   string
	model   string
	dims    int
	baseURL string
	client  *http.Client
}

// NewHuggingFace creates a huggingface embedder. The token is required.
func NewHuggingFace(token, model string, dims int) (*HuggingFaceEmbedder, error) {
	if token == "" {
		return nil, fmt.Errorf("HF_API_TOKEN is required for the huggingface embedding provider")
	}
	if model == "" {
		model = defaultHFModel
	}
	return &HuggingFaceEmbedder{
		token:   token,
		model:   model,
		dims:    dims,
		baseURL: hfRouterBaseURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type hfEmbedRequest struct {
	Inputs string `json:"inputs"`
}

// Embed generates an embedding for a single text.
func (e *HuggingFaceEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(hfEmbedRequest{Inputs: text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+e.model, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+e.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("huggingface request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("huggingface returned status %d: %s", resp.StatusCode, string(raw))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return e.parseVector(raw)
}

// parseVector accepts both response shapes of the feature-extraction
// pipeline: a flat vector or a single-element batch.
func (e *HuggingFaceEmbedder) parseVector(raw []byte) ([]float32, error) {
	var flat []float32
	if err := json.Unmarshal(raw, &flat); err == nil && len(flat) > 0 {
		return flat, nil
	}
	var batch [][]float32
	if err := json.Unmarshal(raw, &batch); err == nil && len(batch) > 0 {
		return batch[0], nil
	}
	return nil, fmt.Errorf("unexpected huggingface response shape: %s", truncate(string(raw), 200))
}

// Dimensions returns the dimensionality of produced embeddings.
func (e *HuggingFaceEmbedder) Dimensions() int { return e.dims }

// Name returns the provider name.
func (e *HuggingFaceEmbedder) Name() string { return "huggingface" }

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
