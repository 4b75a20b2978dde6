// Package openai provides the secondary generative provider backed by the
// OpenAI API through the go-openai SDK.
package openai

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/kruger4712/mealprep/internal/domain/suggestion"
	"github.com/kruger4712/mealprep/internal/infrastructure/config"
	"github.com/kruger4712/mealprep/internal/ports/outbound"
)

// Cost rates in hundredths of a cent per token. Rough gpt-4o-mini pricing;
// good enough for budget enforcement, not billing.
const (
	tokenRateCentiCents = 5
)

// Client calls the OpenAI chat-completions API. With no API key configured
// the client still constructs, and every Generate call fails; the
// coordinator then advances past the secondary level the same way it
// handles any other provider outage.
type Client struct {
	name   string
	model  string
	client *openai.Client
	logger *zap.Logger
}

// NewClient creates an OpenAI provider client from config.
func NewClient(cfg config.ProviderConfig, logger *zap.Logger) (*Client, error) {
	log := logger.Named("openai")
	c := &Client{
		name:   cfg.Name,
		model:  cfg.Model,
		logger: log,
	}
	if cfg.APIKey == "" {
		log.Warn("openai api key not configured, secondary provider disabled")
		return c, nil
	}
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	c.client = openai.NewClientWithConfig(clientCfg)
	return c, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return c.name
}

const systemPrompt = `You are a meal-planning assistant. Respond with ONLY a valid JSON object containing name, description, prep_minutes, cook_minutes, cost_cents, servings, ingredients (name/amount/unit), instructions, nutrition (calories/protein_g/carbs_g/fat_g/fiber_g), and tags. No additional text.`

// Generate invokes the model with the caller's deadline and records token
// and cost accounting on the output.
func (c *Client) Generate(ctx context.Context, prompt string, cfg outbound.GenerationConfig) (*suggestion.RawProviderOutput, error) {
	if c.client == nil {
		return nil, fmt.Errorf("openai api key not configured")
	}
	model := cfg.Model
	if model == "" {
		model = c.model
	}

	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: float32(cfg.Temperature),
		MaxTokens:   cfg.MaxTokens,
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}

	latency := time.Since(start)
	tokens := resp.Usage.TotalTokens
	costCents := tokens * tokenRateCentiCents / 100

	c.logger.Debug("generation complete",
		zap.Duration("latency", latency),
		zap.Int("total_tokens", tokens),
		zap.Int("cost_cents", costCents))

	return &suggestion.RawProviderOutput{
		Text:       resp.Choices[0].Message.Content,
		Provider:   c.name,
		Latency:    latency,
		TokensUsed: tokens,
		CostCents:  costCents,
	}, nil
}

var _ outbound.ProviderClient = (*Client)(nil)
