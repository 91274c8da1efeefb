package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trading-journal/config"
	"trading-journal/internal/dto"
	"trading-journal/pkg/logger"
	"trading-journal/pkg/ratelimit"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const ProviderGemini = "gemini"

// CritiqueProvider sends a trade idea to a language model and returns its raw answer.
type CritiqueProvider interface {
	Name() string
	Critique(ctx context.Context, idea string) (*dto.CritiqueProviderResponse, error)
}

type geminiAIRepository struct {
	cfg            config.Critique
	logger         *logger.Logger
	tokenLimiter   *ratelimit.TokenLimiter
	requestLimiter *rate.Limiter
	genAiClient    *genai.Client
}

func NewGeminiAIRepository(cfg config.Critique, log *logger.Logger) (CritiqueProvider, error) {
	secondsPerRequest := time.Minute / time.Duration(cfg.MaxRequestPerMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)

	tokenLimiter := ratelimit.NewTokenLimiter(cfg.MaxTokenPerMinute)
	genAiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  cfg.Gemini.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &geminiAIRepository{
		cfg:            cfg,
		logger:         log,
		requestLimiter: requestLimiter,
		tokenLimiter:   tokenLimiter,
		genAiClient:    genAiClient,
	}, nil
}

func (r *geminiAIRepository) Name() string {
	return ProviderGemini
}

func (r *geminiAIRepository) Critique(ctx context.Context, idea string) (*dto.CritiqueProviderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()

	prompt := promptCritique(idea)
	contents := genai.Text(prompt)

	geminiTokenResp, err := r.genAiClient.Models.CountTokens(ctx, r.cfg.Gemini.BaseModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to count tokens: %w", err)
	}

	// reserve room for the answer as well as the prompt
	tokens := int(geminiTokenResp.TotalTokens) + r.cfg.MaxOutputTokens
	r.logger.DebugContext(ctx, "Gemini token count",
		logger.IntField("total_tokens", tokens),
		logger.IntField("remaining", r.tokenLimiter.GetRemaining()),
	)
	if err := r.tokenLimiter.Wait(ctx, tokens); err != nil {
		return nil, fmt.Errorf("failed to wait for token gemini limit: %w", err)
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("failed to wait for request gemini limit: %w", err)
	}

	resp, err := r.genAiClient.Models.GenerateContent(ctx, r.cfg.Gemini.BaseModel, contents, &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(r.cfg.Temperature)),
		MaxOutputTokens:  int32(r.cfg.MaxOutputTokens),
		ResponseMIMEType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, fmt.Errorf("invalid response from Gemini API: no content found")
	}

	return &dto.CritiqueProviderResponse{
		Provider: ProviderGemini,
		Model:    r.cfg.Gemini.BaseModel,
		Text:     text,
	}, nil
}
