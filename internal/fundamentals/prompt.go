package fundamentals

import (
	"fmt"
	"strings"
)

// BuildPrompt renders the metric groups into the analysis prompt sent to
// the external language model. The prompt is deterministic for a given
// Metrics value; the model call itself happens outside this module.
func BuildPrompt(symbol string, m Metrics) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Analyze stock %s based on the following indicators and give an overall assessment:\n\n", symbol)

	fmt.Fprintf(&b, "1. Valuation:\n")
	fmt.Fprintf(&b, "- P/E: %.2f (industry average: %.2f)\n", m.Valuation.PERatio, m.Valuation.IndustryPE)
	fmt.Fprintf(&b, "- P/B: %.2f (industry average: %.2f)\n\n", m.Valuation.PBRatio, m.Valuation.IndustryPB)

	fmt.Fprintf(&b, "2. Growth:\n")
	fmt.Fprintf(&b, "- Revenue growth: %.2f%%\n", m.Growth.RevenueGrowth)
	fmt.Fprintf(&b, "- EPS growth: %.2f%%\n\n", m.Growth.EPSGrowth)

	fmt.Fprintf(&b, "3. Operating performance:\n")
	fmt.Fprintf(&b, "- ROE: %.2f%%\n", m.Performance.ROE)
	fmt.Fprintf(&b, "- ROA: %.2f%%\n", m.Performance.ROA)
	fmt.Fprintf(&b, "- Profit margin: %.2f%%\n\n", m.Performance.ProfitMargin)

	fmt.Fprintf(&b, "4. Financial health:\n")
	fmt.Fprintf(&b, "- Debt-to-equity ratio: %.2f\n", m.FinancialHealth.DebtToEquity)
	fmt.Fprintf(&b, "- Current ratio: %.2f\n\n", m.FinancialHealth.CurrentRatio)

	fmt.Fprintf(&b, "5. Dividend:\n")
	fmt.Fprintf(&b, "- Dividend yield: %.2f%%\n", m.Dividend.DividendYield)
	fmt.Fprintf(&b, "- Payout ratio: %.2f%%\n\n", m.Dividend.PayoutRatio)

	b.WriteString("Assess the stock across the five aspects above and draw an overall conclusion. ")
	b.WriteString("Detail its strengths, weaknesses, and latent risks. Finish with an investment recommendation.")

	return b.String()
}
