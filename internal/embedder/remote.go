package embedder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scrypster/continuity/pkg/types"
)

// RemoteConfig configures a Remote embedder pointed at an Ollama-compatible
// /api/embed endpoint.
type RemoteConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// Remote calls an external embedding server over HTTP. Grounded on
// internal/llm/ollama.go's OllamaClient.embed: same request/response shape
// and endpoint, without the circuit breaker (outbound dispatch in this
// system is wrapped centrally by internal/connections, not per-client).
type Remote struct {
	client  *http.Client
	baseURL string
	model   string
	timeout time.Duration
}

func NewRemote(cfg RemoteConfig) *Remote {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Remote{
		client:  &http.Client{Timeout: timeout + time.Second},
		baseURL: baseURL,
		model:   cfg.Model,
		timeout: timeout,
	}
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

func (r *Remote) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := json.Marshal(embedRequest{Model: r.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("embedder: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("embedder: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedder: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("embedder: server returned %d: %s", resp.StatusCode, string(raw))
	}

	var parsed embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("embedder: decode response: %w", err)
	}
	if len(parsed.Embeddings) == 0 || len(parsed.Embeddings[0]) != types.EmbeddingDimension {
		return nil, fmt.Errorf("embedder: expected %d-dim embedding, got response with %d vectors", types.EmbeddingDimension, len(parsed.Embeddings))
	}
	return parsed.Embeddings[0], nil
}

func (r *Remote) Model() string { return r.model }
