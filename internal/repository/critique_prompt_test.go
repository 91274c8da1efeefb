package repository

import (
	"errors"
	"testing"

	"trading-journal/internal/dto"

	"github.com/stretchr/testify/assert"
)

func TestParseCritiqueResponse(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantDecision dto.Decision
		wantCritique string
		wantCash     string
	}{
		{
			name:         "follow",
			text:         `{"critique":"Solid thesis.","decision":"FOLLOW","cash_recommendation":"$5,000"}`,
			wantDecision: dto.DecisionFollow,
			wantCritique: "Solid thesis.",
			wantCash:     "$5,000",
		},
		{
			name:         "reject lower case",
			text:         `{"critique":"Too risky.","decision":" reject ","cash_recommendation":"none"}`,
			wantDecision: dto.DecisionReject,
			wantCritique: "Too risky.",
			wantCash:     "none",
		},
		{
			name:         "fenced json",
			text:         "```json\n{\"critique\":\"Fine.\",\"decision\":\"FOLLOW\",\"cash_recommendation\":\"10%\"}\n```",
			wantDecision: dto.DecisionFollow,
			wantCritique: "Fine.",
			wantCash:     "10%",
		},
		{
			name:         "unexpected decision",
			text:         `{"critique":"Depends.","decision":"MAYBE"}`,
			wantDecision: dto.DecisionUnknown,
			wantCritique: "Depends.",
		},
		{
			name:         "free text mentioning follow",
			text:         "I choose to FOLLOW the idea because...",
			wantDecision: dto.DecisionUnknown,
			wantCritique: "I choose to FOLLOW the idea because...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseCritiqueResponse(tt.text)
			assert.Equal(t, tt.wantDecision, got.Decision)
			assert.Equal(t, tt.wantCritique, got.Critique)
			assert.Equal(t, tt.wantCash, got.CashRecommendation)
		})
	}
}

func TestErrorCritique(t *testing.T) {
	got := ErrorCritique(errors.New("quota exceeded"))
	assert.Equal(t, dto.DecisionError, got.Decision)
	assert.Equal(t, "Error: quota exceeded", got.Critique)
}

func TestPromptCritique(t *testing.T) {
	p := promptCritique("  Buy AAPL, I manage $100k with $20k cash  ")
	assert.Contains(t, p, "Trade idea:\nBuy AAPL, I manage $100k with $20k cash\n")
	assert.Contains(t, p, `"cash_recommendation"`)
}
