package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"github.com/Skufu/medicheck/internal/httpclient"
)

const (
	DefaultOpenAIModel   = "gpt-4o-mini"
	DefaultOpenAIBaseURL = "https://api.openai.com/v1/"
)

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// OpenAI talks to any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	hasKey bool
	model  string
	client openai.Client
	log    zerolog.Logger
}

func NewOpenAI(cfg OpenAIConfig, logger zerolog.Logger) *OpenAI {
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultOpenAIModel
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultOpenAIBaseURL
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	key := strings.TrimSpace(cfg.APIKey)

	// The analyzer owns the deadline and falls back on failure, so the SDK
	// does not retry.
	client := openai.NewClient(
		option.WithAPIKey(key),
		option.WithBaseURL(base),
		option.WithHTTPClient(httpclient.New(httpclient.WithTimeout(cfg.Timeout))),
		option.WithMaxRetries(0),
	)
	return &OpenAI{
		hasKey: key != "",
		model:  model,
		client: client,
		log:    logger.With().Str("component", "openai").Str("model", model).Logger(),
	}
}

func (o *OpenAI) Name() string { return "openai/" + o.model }

func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	if !o.hasKey {
		return "", ErrNoAPIKey
	}
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(o.model),
		Messages:    []openai.ChatCompletionMessageParamUnion{openai.UserMessage(prompt)},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", fmt.Errorf("openai %d: %w", apiErr.StatusCode, err)
		}
		return "", fmt.Errorf("openai call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("openai: no choices")
	}
	text := resp.Choices[0].Message.Content
	o.log.Debug().Int("chars", len(text)).Msg("openai response")
	return text, nil
}
