package dto

import "time"

type Decision string

const (
	DecisionFollow  Decision = "FOLLOW"
	DecisionReject  Decision = "REJECT"
	DecisionUnknown Decision = "UNKNOWN"
	DecisionError   Decision = "ERROR"
)

// CritiqueResult is the validated outcome of a critique call.
type CritiqueResult struct {
	Critique           string   `json:"critique"`
	Decision           Decision `json:"decision"`
	CashRecommendation string   `json:"cash_recommendation"`
}

// CritiqueModelOutput is the JSON document the language model is asked to return.
type CritiqueModelOutput struct {
	Critique           string `json:"critique"`
	Decision           string `json:"decision"`
	CashRecommendation string `json:"cash_recommendation"`
}

// CritiqueProviderResponse is what a provider hands back: the raw text plus its name.
type CritiqueProviderResponse struct {
	Provider string
	Model    string
	Text     string
}

type CritiqueRequest struct {
	Idea string `json:"idea" validate:"required,min=3,max=4000"`
}

type CritiqueResponse struct {
	ID                 string   `json:"id,omitempty"`
	Idea               string   `json:"idea"`
	Critique           string   `json:"critique"`
	Decision           Decision `json:"decision"`
	CashRecommendation string   `json:"cash_recommendation"`
	Provider           string   `json:"provider"`
	CreatedAt          string   `json:"created_at,omitempty"`
}

func FormatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
