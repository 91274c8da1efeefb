package telegram

import (
	"fmt"
	"strings"
)

// FormatTradeOpened renders the message sent when a scheduled trade gets its entry price.
func FormatTradeOpened(ticker, positionType string, numShares int, entryPrice float64, entryDate string) string {
	return fmt.Sprintf("📥 [%s] %s %d shares opened\n💰 Entry: %.2f on %s",
		ticker, strings.ToUpper(positionType), numShares, entryPrice, entryDate)
}

func FormatTradeClosed(ticker, positionType string, numShares int, closePrice, pnlUsd, returnPct float64, closeDate string) string {
	emoji := "✅"
	if pnlUsd < 0 {
		emoji = "🔻"
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%s [%s] %s %d shares closed\n", emoji, ticker, strings.ToUpper(positionType), numShares))
	builder.WriteString(fmt.Sprintf("💵 Exit: %.2f on %s\n", closePrice, closeDate))
	builder.WriteString(fmt.Sprintf("📊 PnL: %+.2f USD (%+.2f%%)", pnlUsd, returnPct))
	return builder.String()
}
