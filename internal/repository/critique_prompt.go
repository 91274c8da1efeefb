package repository

import (
	"encoding/json"
	"fmt"
	"strings"

	"trading-journal/internal/dto"
)

func promptCritique(idea string) string {
	var sb strings.Builder

	sb.WriteString(`You are a seasoned proprietary trader managing client money. You care about survival first:
you weigh upside against risk across market regimes and you explain your view concisely without
leaving out the details that matter.

You will receive a trade idea about a single listed company (any country). The idea names the
ticker, says whether the author wants to buy or sell and why, and states the total cash the author
manages and how much of it is still liquid.

Respond with:
1. An analysis of the idea: upsides, risks, key market factors.
2. A decision, FOLLOW or REJECT, reflecting your overall view.
   - Do not reject an idea only because it has risks; if it is favourable overall, FOLLOW.
   - Do not follow an idea only because it has upside; if the risks outweigh the reward, REJECT.
3. How much cash (USD) the author should commit, given your analysis and their liquidity.
`)

	sb.WriteString("\nTrade idea:\n")
	sb.WriteString(strings.TrimSpace(idea))
	sb.WriteString("\n")

	sb.WriteString(`
Return ONLY a JSON object, no markdown and no extra text, with exactly these keys:
{
  "critique": "analysis and the reasoning behind the decision",
  "decision": "FOLLOW" or "REJECT",
  "cash_recommendation": "recommended amount with a short justification"
}
`)

	return sb.String()
}

// ParseCritiqueResponse validates raw model output. Output that is not the requested
// JSON object, or that carries a decision other than FOLLOW or REJECT, yields UNKNOWN.
func ParseCritiqueResponse(text string) dto.CritiqueResult {
	raw := strings.TrimSpace(text)
	cleaned := stripCodeFence(raw)

	var out dto.CritiqueModelOutput
	if err := json.Unmarshal([]byte(cleaned), &out); err != nil {
		return dto.CritiqueResult{
			Critique: raw,
			Decision: dto.DecisionUnknown,
		}
	}

	result := dto.CritiqueResult{
		Critique:           strings.TrimSpace(out.Critique),
		CashRecommendation: strings.TrimSpace(out.CashRecommendation),
	}
	if result.Critique == "" {
		result.Critique = raw
	}

	switch dto.Decision(strings.ToUpper(strings.TrimSpace(out.Decision))) {
	case dto.DecisionFollow:
		result.Decision = dto.DecisionFollow
	case dto.DecisionReject:
		result.Decision = dto.DecisionReject
	default:
		result.Decision = dto.DecisionUnknown
	}

	return result
}

// ErrorCritique is the degraded result for a failed provider call.
func ErrorCritique(err error) dto.CritiqueResult {
	return dto.CritiqueResult{
		Critique: fmt.Sprintf("Error: %v", err),
		Decision: dto.DecisionError,
	}
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
