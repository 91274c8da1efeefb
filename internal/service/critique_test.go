package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"trading-journal/internal/dto"
	"trading-journal/internal/repository"
	"trading-journal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	text string
	err  error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Critique(context.Context, string) (*dto.CritiqueProviderResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &dto.CritiqueProviderResponse{Provider: "fake", Model: "fake-1", Text: f.text}, nil
}

func newCritiqueFixture(t *testing.T, provider *fakeProvider) (CritiqueService, repository.CritiqueRepository) {
	t.Helper()
	repo := repository.NewCritiqueRepository(newTestDB(t))
	cfg := testConfig()
	cfg.Critique.UserRequestPerMinute = 100
	return NewCritiqueService(cfg, logger.Nop(), provider, repo), repo
}

func TestCritiqueService_Critique(t *testing.T) {
	ctx := context.Background()

	t.Run("structured follow is stored", func(t *testing.T) {
		svc, repo := newCritiqueFixture(t, &fakeProvider{
			text: `{"critique":"Good risk/reward.","decision":"FOLLOW","cash_recommendation":"$2,000"}`,
		})

		resp, err := svc.Critique(ctx, me, dto.CritiqueRequest{Idea: "  Buy AAPL  "})
		require.NoError(t, err)
		assert.Equal(t, dto.DecisionFollow, resp.Decision)
		assert.Equal(t, "Good risk/reward.", resp.Critique)
		assert.Equal(t, "$2,000", resp.CashRecommendation)
		require.NotEmpty(t, resp.ID)

		stored, err := repo.GetByID(ctx, resp.ID)
		require.NoError(t, err)
		require.NotNil(t, stored)
		assert.Equal(t, "Buy AAPL", stored.Idea)
		assert.Equal(t, "FOLLOW", stored.Decision)

		var raw map[string]string
		require.NoError(t, json.Unmarshal(stored.Response, &raw))
		assert.Equal(t, "fake-1", raw["model"])
	})

	t.Run("unstructured text is unknown", func(t *testing.T) {
		svc, _ := newCritiqueFixture(t, &fakeProvider{text: "I choose to FOLLOW the idea"})

		resp, err := svc.Critique(ctx, me, dto.CritiqueRequest{Idea: "Buy AAPL"})
		require.NoError(t, err)
		assert.Equal(t, dto.DecisionUnknown, resp.Decision)
		assert.Equal(t, "I choose to FOLLOW the idea", resp.Critique)
	})

	t.Run("provider failure is an error result", func(t *testing.T) {
		svc, _ := newCritiqueFixture(t, &fakeProvider{err: errors.New("upstream timeout")})

		resp, err := svc.Critique(ctx, me, dto.CritiqueRequest{Idea: "Buy AAPL"})
		require.NoError(t, err)
		assert.Equal(t, dto.DecisionError, resp.Decision)
		assert.Equal(t, "Error: upstream timeout", resp.Critique)
	})

	t.Run("empty idea", func(t *testing.T) {
		svc, _ := newCritiqueFixture(t, &fakeProvider{})
		_, err := svc.Critique(ctx, me, dto.CritiqueRequest{Idea: "   "})
		assert.ErrorIs(t, err, dto.ErrInvalidArgument)
	})
}

func TestCritiqueService_RateLimit(t *testing.T) {
	repo := repository.NewCritiqueRepository(newTestDB(t))
	cfg := testConfig()
	cfg.Critique.UserRequestPerMinute = 2
	svc := NewCritiqueService(cfg, logger.Nop(), &fakeProvider{text: "{}"}, repo)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.Critique(ctx, me, dto.CritiqueRequest{Idea: "Buy AAPL"})
		require.NoError(t, err)
	}
	_, err := svc.Critique(ctx, me, dto.CritiqueRequest{Idea: "Buy AAPL"})
	assert.ErrorIs(t, err, dto.ErrTooManyRequests)

	// other users have their own budget
	_, err = svc.Critique(ctx, dto.SessionUser{UserID: "u-2"}, dto.CritiqueRequest{Idea: "Buy AAPL"})
	assert.NoError(t, err)
}

func TestCritiqueService_ListCritiques(t *testing.T) {
	svc, _ := newCritiqueFixture(t, &fakeProvider{
		text: `{"critique":"No.","decision":"REJECT","cash_recommendation":"$0"}`,
	})
	ctx := context.Background()

	_, err := svc.Critique(ctx, me, dto.CritiqueRequest{Idea: "Short TSLA"})
	require.NoError(t, err)
	_, err = svc.Critique(ctx, dto.SessionUser{UserID: "u-2"}, dto.CritiqueRequest{Idea: "Buy GME"})
	require.NoError(t, err)

	list, err := svc.ListCritiques(ctx, me, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Short TSLA", list[0].Idea)
	assert.Equal(t, dto.DecisionReject, list[0].Decision)
}
