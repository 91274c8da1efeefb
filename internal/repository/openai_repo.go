package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trading-journal/config"
	"trading-journal/internal/dto"
	"trading-journal/pkg/logger"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"golang.org/x/time/rate"
)

const ProviderOpenAI = "openai"

type openAIRepository struct {
	cfg            config.Critique
	logger         *logger.Logger
	requestLimiter *rate.Limiter
	client         openai.Client
}

func NewOpenAIRepository(cfg config.Critique, log *logger.Logger) CritiqueProvider {
	secondsPerRequest := time.Minute / time.Duration(cfg.MaxRequestPerMinute)

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.OpenAI.APIKey),
		option.WithRequestTimeout(cfg.Timeout),
	}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.OpenAI.BaseURL))
	}

	return &openAIRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: rate.NewLimiter(rate.Every(secondsPerRequest), 1),
		client:         openai.NewClient(opts...),
	}
}

func (r *openAIRepository) Name() string {
	return ProviderOpenAI
}

func (r *openAIRepository) Critique(ctx context.Context, idea string) (*dto.CritiqueProviderResponse, error) {
	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request openai limit: %w", err)
	}

	resp, err := r.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(r.cfg.OpenAI.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(promptCritique(idea)),
		},
		MaxCompletionTokens: openai.Int(int64(r.cfg.MaxOutputTokens)),
		Temperature:         openai.Float(r.cfg.Temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("invalid response from OpenAI API: no choices")
	}

	r.logger.DebugContext(ctx, "OpenAI token usage",
		logger.IntField("prompt_tokens", int(resp.Usage.PromptTokens)),
		logger.IntField("completion_tokens", int(resp.Usage.CompletionTokens)),
	)

	return &dto.CritiqueProviderResponse{
		Provider: ProviderOpenAI,
		Model:    r.cfg.OpenAI.Model,
		Text:     strings.TrimSpace(resp.Choices[0].Message.Content),
	}, nil
}
