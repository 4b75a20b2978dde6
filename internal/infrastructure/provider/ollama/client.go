// Package ollama provides the primary generative provider using a local
// Ollama instance through its OpenAI-compatible chat-completions endpoint.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/infrastructure/config"
	"github.com/kruger4712/mealprep/internal/ports/outbound"
)

// Client calls an Ollama chat-completions endpoint.
type Client struct {
	name    string
	baseURL string
	model   string
	client  *http.Client
	logger  *zap.Logger
}

// NewClient creates an Ollama provider client from config.
func NewClient(cfg config.ProviderConfig, logger *zap.Logger) *Client {
	return &Client{
		name:    cfg.Name,
		baseURL: cfg.BaseURL,
		model:   cfg.Model,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  logger.Named("ollama"),
	}
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return c.name
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message      message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

const systemPrompt = `You are a meal-planning assistant. Respond with ONLY a valid JSON object:
{
  "name": "Meal name",
  "description": "Short description",
  "prep_minutes": 15,
  "cook_minutes": 25,
  "cost_cents": 1200,
  "servings": 4,
  "ingredients": [{"name": "ingredient", "amount": 1.5, "unit": "cups"}],
  "instructions": ["Step 1", "Step 2"],
  "nutrition": {"calories": 350, "protein_g": 25.0, "carbs_g": 30.0, "fat_g": 15.0, "fiber_g": 5.0},
  "tags": ["tag1"]
}
No additional text or formatting.`

// Generate invokes the model. The request honors ctx for cancellation and
// deadlines; latency and token accounting are captured on the output.
func (c *Client) Generate(ctx context.Context, prompt string, cfg outbound.GenerationConfig) (*suggestion.RawProviderOutput, error) {
	model := cfg.Model
	if model == "" {
		model = c.model
	}

	reqBody := chatCompletionRequest{
		Model: model,
		Messages: []message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: prompt},
		},
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider returned %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("no response choices returned")
	}

	latency := time.Since(start)
	c.logger.Debug("generation complete",
		zap.Duration("latency", latency),
		zap.Int("total_tokens", chatResp.Usage.TotalTokens))

	return &suggestion.RawProviderOutput{
		Text:       chatResp.Choices[0].Message.Content,
		Provider:   c.name,
		Latency:    latency,
		TokensUsed: chatResp.Usage.TotalTokens,
		// Local inference: no per-token billing.
		CostCents: 0,
	}, nil
}

var _ outbound.ProviderClient = (*Client)(nil)
