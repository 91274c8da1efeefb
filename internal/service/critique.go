package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"trading-journal/config"
	"trading-journal/internal/dto"
	"trading-journal/internal/model"
	"trading-journal/internal/repository"
	"trading-journal/pkg/common"
	"trading-journal/pkg/logger"
	"trading-journal/pkg/ratelimit"

	"github.com/google/uuid"
	"golang.org/x/time/rate"
	"gorm.io/datatypes"
)

type CritiqueService interface {
	// Critique never fails because of the model: a failed call yields an ERROR result.
	Critique(ctx context.Context, user dto.SessionUser, req dto.CritiqueRequest) (*dto.CritiqueResponse, error)
	ListCritiques(ctx context.Context, user dto.SessionUser, limit int) ([]dto.CritiqueResponse, error)
}

type critiqueService struct {
	cfg          *config.Config
	log          *logger.Logger
	provider     repository.CritiqueProvider
	critiqueRepo repository.CritiqueRepository
	userLimiters *ratelimit.LimiterStore
}

func NewCritiqueService(
	cfg *config.Config,
	log *logger.Logger,
	provider repository.CritiqueProvider,
	critiqueRepo repository.CritiqueRepository,
) CritiqueService {
	perMinute := cfg.Critique.UserRequestPerMinute
	if perMinute <= 0 {
		perMinute = 1
	}

	return &critiqueService{
		cfg:          cfg,
		log:          log,
		provider:     provider,
		critiqueRepo: critiqueRepo,
		userLimiters: ratelimit.NewLimiterStore(rate.Limit(float64(perMinute)/60), perMinute),
	}
}

type critiqueRawResponse struct {
	Provider string `json:"provider"`
	Model    string `json:"model,omitempty"`
	Text     string `json:"text,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (s *critiqueService) Critique(ctx context.Context, user dto.SessionUser, req dto.CritiqueRequest) (*dto.CritiqueResponse, error) {
	idea := strings.TrimSpace(req.Idea)
	if idea == "" {
		return nil, fmt.Errorf("trade idea is empty: %w", dto.ErrInvalidArgument)
	}

	if ok, retryAfter := s.userLimiters.Allow(fmt.Sprintf(common.KEY_USER_LIMITER, user.UserID)); !ok {
		s.log.WarnContext(ctx, "Critique rate limit exceeded",
			logger.IntField("user_request_per_minute", s.cfg.Critique.UserRequestPerMinute))
		return nil, fmt.Errorf("retry in %ds: %w", int(math.Ceil(retryAfter.Seconds())), dto.ErrTooManyRequests)
	}

	raw := critiqueRawResponse{Provider: s.provider.Name()}
	var result dto.CritiqueResult

	providerResp, err := s.provider.Critique(ctx, idea)
	if err != nil {
		s.log.ErrorContext(ctx, "Critique provider failed",
			logger.StringField("provider", s.provider.Name()),
			logger.ErrorField(err),
		)
		result = repository.ErrorCritique(err)
		raw.Error = err.Error()
	} else {
		result = repository.ParseCritiqueResponse(providerResp.Text)
		raw.Model = providerResp.Model
		raw.Text = providerResp.Text
		if result.Decision == dto.DecisionUnknown {
			s.log.WarnContext(ctx, "Critique response did not carry a usable decision",
				logger.StringField("provider", s.provider.Name()))
		}
	}

	resp := &dto.CritiqueResponse{
		Idea:               idea,
		Critique:           result.Critique,
		Decision:           result.Decision,
		CashRecommendation: result.CashRecommendation,
		Provider:           s.provider.Name(),
	}

	rawJSON, err := json.Marshal(raw)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to marshal critique response", logger.ErrorField(err))
		return resp, nil
	}

	critique := &model.TradeCritique{
		ID:                 uuid.NewString(),
		UserID:             user.UserID,
		Idea:               idea,
		Critique:           result.Critique,
		Decision:           string(result.Decision),
		CashRecommendation: result.CashRecommendation,
		Provider:           s.provider.Name(),
		Response:           datatypes.JSON(rawJSON),
	}
	if err := s.critiqueRepo.Create(ctx, critique); err != nil {
		// the critique is still useful without history
		s.log.ErrorContext(ctx, "Failed to save critique", logger.ErrorField(err))
		return resp, nil
	}

	resp.ID = critique.ID
	resp.CreatedAt = dto.FormatTimestamp(critique.CreatedAt)
	return resp, nil
}

func (s *critiqueService) ListCritiques(ctx context.Context, user dto.SessionUser, limit int) ([]dto.CritiqueResponse, error) {
	critiques, err := s.critiqueRepo.ListByUser(ctx, user.UserID, limit)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to list critiques", logger.ErrorField(err))
		return nil, fmt.Errorf("failed to list critiques: %w", err)
	}

	resp := make([]dto.CritiqueResponse, 0, len(critiques))
	for _, c := range critiques {
		resp = append(resp, dto.CritiqueResponse{
			ID:                 c.ID,
			Idea:               c.Idea,
			Critique:           c.Critique,
			Decision:           dto.Decision(c.Decision),
			CashRecommendation: c.CashRecommendation,
			Provider:           c.Provider,
			CreatedAt:          dto.FormatTimestamp(c.CreatedAt),
		})
	}
	return resp, nil
}
