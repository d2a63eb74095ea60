package risk

import (
	"context"
	"log/slog"
	"math"
	"sort"
	"time"
)

// Score applies the fitted model to every row with a complete behavior
// vector - the full universe, not just the training slice - and converts
// raw probabilities into the published daily risk scores.
//
// Probabilities from the classifier are not comparable across dates
// (volatility regimes move the baseline), so each row is percentile
// ranked against all tickers scored on the same day and the rank is
// scaled to [0, 10], rounded to one decimal.
func Score(ctx context.Context, rows []Row, model *Model, logger *slog.Logger) []ScoreRow {
	if logger == nil {
		logger = slog.Default()
	}

	scored := make([]ScoreRow, 0, len(rows))
	excluded := 0
	for _, r := range rows {
		vec, ok := r.BehaviorVector()
		if !ok {
			excluded++
			continue
		}
		scored = append(scored, ScoreRow{
			Ticker:   r.Ticker,
			Date:     r.Date,
			Exchange: r.Exchange,
			Close:    r.Close,
			Volume:   r.Volume,
			Turnover: r.Turnover,
			MktCap:   r.MktCap,
			RiskRaw:  model.Prob(vec),
		})
	}

	byDate := make(map[time.Time][]int)
	for i, s := range scored {
		byDate[s.Date] = append(byDate[s.Date], i)
	}
	for _, indices := range byDate {
		probs := make([]float64, len(indices))
		for k, idx := range indices {
			probs[k] = scored[idx].RiskRaw
		}
		pct := rankPct(probs)
		for k, idx := range indices {
			scored[idx].RiskPct = pct[k]
			scored[idx].Risk = roundRisk(pct[k] * 10)
		}
	}

	// Published ordering: date ascending, then highest risk first, with
	// ticker as the deterministic tie break.
	sort.Slice(scored, func(i, j int) bool {
		if !scored[i].Date.Equal(scored[j].Date) {
			return scored[i].Date.Before(scored[j].Date)
		}
		if scored[i].Risk != scored[j].Risk {
			return scored[i].Risk > scored[j].Risk
		}
		return scored[i].Ticker < scored[j].Ticker
	})

	logger.InfoContext(ctx, "universe scored",
		"rows_scored", len(scored),
		"rows_excluded", excluded,
		"dates", len(byDate),
	)
	return scored
}

// roundRisk clips to [0, 10] and rounds to one decimal place.
func roundRisk(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		v = 0
	}
	if v > 10 {
		v = 10
	}
	return math.Round(v*10) / 10
}
