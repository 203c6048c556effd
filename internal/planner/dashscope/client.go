// Package dashscope implements the itinerary.Planner interface against the
// DashScope OpenAI-compatible chat completions API.
package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tripatlas/tripatlas/internal/itinerary"
	"github.com/tripatlas/tripatlas/internal/provider/resilience"
)

const (
	// ProviderName identifies this planning provider.
	ProviderName = "dashscope"

	// DefaultBaseURL is the DashScope OpenAI-compatible endpoint.
	DefaultBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"

	// DefaultModel is the chat model used for plan generation.
	DefaultModel = "qwen-plus"

	planTemperature = 0.7
	planMaxTokens   = 4000
)

const systemPrompt = "You are a professional travel planner creating detailed " +
	"itineraries. You must respond with JSON strictly matching the requested " +
	"schema, with no extra commentary."

// ClientConfig holds configuration for the DashScope client.
type ClientConfig struct {
	// APIKey is the DashScope API key (required).
	APIKey string

	// BaseURL overrides the API endpoint (optional).
	BaseURL string

	// Model overrides the chat model (optional).
	Model string

	// HTTPClient is the HTTP client to use (optional).
	HTTPClient *resilience.Client

	// Logger for client operations.
	Logger zerolog.Logger
}

// Client is a DashScope chat completions client.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *resilience.Client
	logger     zerolog.Logger
}

// NewClient creates a new DashScope client.
func NewClient(cfg ClientConfig) *Client {
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

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: httpClient,
		logger:     cfg.Logger,
	}
}

// Name returns the provider name.
func (c *Client) Name() string {
	return ProviderName
}

// GeneratePlan asks the model for a complete itinerary and parses the JSON
// body out of the response text.
func (c *Client) GeneratePlan(ctx context.Context, req itinerary.TripRequest, hints []string) (*itinerary.TripPlan, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: DashScope API key not configured", itinerary.ErrPlannerUnavailable)
	}

	content, err := c.complete(ctx, buildPlanPrompt(req, hints))
	if err != nil {
		return nil, err
	}

	var plan itinerary.TripPlan
	if err := decodeEmbeddedJSON(content, &plan); err != nil {
		c.logger.Error().Err(err).Str("response", truncate(content, 200)).Msg("plan response is not valid JSON")
		return nil, fmt.Errorf("%w: %v", itinerary.ErrInvalidPlan, err)
	}

	if plan.Destination == "" || len(plan.DailyPlans) == 0 {
		return nil, fmt.Errorf("%w: missing destination or daily plans", itinerary.ErrInvalidPlan)
	}

	return &plan, nil
}

// ExtractRequest turns a free-text travel request into a structured one.
func (c *Client) ExtractRequest(ctx context.Context, text string) (*itinerary.TripRequest, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("%w: DashScope API key not configured", itinerary.ErrPlannerUnavailable)
	}

	content, err := c.complete(ctx, buildExtractPrompt(text))
	if err != nil {
		return nil, err
	}

	var req itinerary.TripRequest
	if err := decodeEmbeddedJSON(content, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", itinerary.ErrInvalidPlan, err)
	}

	if req.Destination == "" {
		return nil, fmt.Errorf("%w: no destination extracted", itinerary.ErrInvalidPlan)
	}
	if req.DurationDays < 1 {
		req.DurationDays = 1
	}
	if req.DurationDays > 30 {
		req.DurationDays = 30
	}

	return &req, nil
}

// complete sends a single-turn chat completion and returns the assistant
// message content.
func (c *Client) complete(ctx context.Context, userPrompt string) (string, error) {
	body := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		Temperature: planTemperature,
		MaxTokens:   planMaxTokens,
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", itinerary.ErrPlannerUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: unexpected status code %d", itinerary.ErrPlannerUnavailable, resp.StatusCode)
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("%w: response contained no choices", itinerary.ErrPlannerUnavailable)
	}

	return chat.Choices[0].Message.Content, nil
}

// decodeEmbeddedJSON extracts the JSON object between the first '{' and the
// last '}' of the text. Models sometimes wrap the JSON in prose, so the raw
// text is only tried when no braces are found.
func decodeEmbeddedJSON(text string, out interface{}) error {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start != -1 && end > start {
		text = text[start : end+1]
	}
	return json.Unmarshal([]byte(text), out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// OpenAI-compatible wire structures.

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}
