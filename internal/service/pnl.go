package service

import (
	"trading-journal/internal/model"

	"github.com/shopspring/decimal"
)

type PnL struct {
	PnlUsd    float64
	ReturnPct float64
}

// CalculatePnL marks a position at markPrice. Both results are rounded to cents
// (half away from zero). The return is 0 when the cost basis is not positive.
func CalculatePnL(positionType model.PositionType, entryPrice, markPrice float64, numShares int) PnL {
	entry := decimal.NewFromFloat(entryPrice)
	mark := decimal.NewFromFloat(markPrice)
	shares := decimal.NewFromInt(int64(numShares))

	diff := mark.Sub(entry)
	if positionType == model.PositionTypeShort {
		diff = entry.Sub(mark)
	}
	pnl := diff.Mul(shares)

	returnPct := decimal.Zero
	if cost := entry.Mul(shares); cost.IsPositive() {
		returnPct = pnl.Div(cost).Mul(decimal.NewFromInt(100))
	}

	return PnL{
		PnlUsd:    pnl.Round(2).InexactFloat64(),
		ReturnPct: returnPct.Round(2).InexactFloat64(),
	}
}

func roundPrice(p float64) float64 {
	return decimal.NewFromFloat(p).Round(2).InexactFloat64()
}
