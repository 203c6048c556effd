// Package dashscope implements the poi.Embedder interface against the
// DashScope OpenAI-compatible embeddings API.
package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tripatlas/tripatlas/internal/poi"
	"github.com/tripatlas/tripatlas/internal/provider/resilience"
)

const (
	// ProviderName identifies this embedding provider.
	ProviderName = "dashscope-embedding"

	// DefaultBaseURL is the DashScope OpenAI-compatible endpoint.
	DefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

	// DefaultModel is the embedding model.
	DefaultModel = "text-embedding-v4"
)

// EmbedderConfig holds configuration for the DashScope embedder.
type EmbedderConfig struct {
	// APIKey is the DashScope API key (required).
	APIKey string

	// BaseURL overrides the API endpoint (optional).
	BaseURL string

	// Model overrides the embedding model (optional).
	Model string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Embedder is a DashScope embeddings client.
type Embedder struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewEmbedder creates a new DashScope embedder.
func NewEmbedder(cfg EmbedderConfig) *Embedder {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = resilience.NewClient(resilience.DefaultClientConfig(ProviderName))
	}

	return &Embedder{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (e *Embedder) Name() string {
	return ProviderName
}

// Embed returns the embedding vector for the text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if e.apiKey == "" {
		return nil, fmt.Errorf("%w: DashScope API key not configured", poi.ErrEmbedderUnavailable)
	}

	payload, err := json.Marshal(embeddingRequest{Model: e.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+e.apiKey)

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", poi.ErrEmbedderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: unexpected status code %d", poi.ErrEmbedderUnavailable, resp.StatusCode)
	}

	var result embeddingResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if len(result.Data) == 0 || len(result.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: response contained no embedding", poi.ErrEmbedderUnavailable)
	}

	return result.Data[0].Embedding, nil
}

// OpenAI-compatible wire structures.

type embeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}
