package risk

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/LeLongFintech/GULLIVER/internal/dataset"
)

// BuildFeatures turns complete, time-ordered price bars into the full
// feature table. Bars must already be filtered to rows carrying close,
// volume, and resolved shares (dataset.FilterComplete); within each
// ticker they must be sorted by ascending date.
//
// Every within-ticker feature at position i reads only bars at positions
// <= i, so a row's features are invariant to any later session. The
// cross-sectional percentile ranks are computed last, grouped by date
// across all tickers active that day.
func BuildFeatures(ctx context.Context, bars []dataset.PriceBar, logger *slog.Logger) []Row {
	if logger == nil {
		logger = slog.Default()
	}

	rows := make([]Row, 0, len(bars))
	tickers := 0
	for start := 0; start < len(bars); {
		end := start + 1
		for end < len(bars) && bars[end].Ticker == bars[start].Ticker {
			end++
		}
		rows = append(rows, buildTickerFeatures(bars[start:end])...)
		tickers++
		start = end
	}

	applyCrossSectionRanks(rows)
	labeled := 0
	for _, r := range rows {
		labeled += r.Label
	}

	logger.InfoContext(ctx, "feature table built",
		"rows", len(rows),
		"tickers", tickers,
		"weak_labels", labeled,
	)
	return rows
}

// buildTickerFeatures computes all within-ticker features for one
// ticker's date-ordered bars.
func buildTickerFeatures(bars []dataset.PriceBar) []Row {
	n := len(bars)
	closes := make([]float64, n)
	volumes := make([]float64, n)
	for i, b := range bars {
		closes[i] = b.Close
		volumes[i] = b.Volume
	}

	volZ := rollingZScore(volumes, VolZWindow)

	rows := make([]Row, n)
	turnovers := make([]float64, n)
	ranges := make([]float64, n)
	closeLocs := make([]float64, n)
	ret1 := make([]float64, n)

	for i, b := range bars {
		r := Row{
			Ticker:   b.Ticker,
			Date:     b.Date,
			Exchange: b.Exchange,
			Open:     b.Open,
			High:     b.High,
			Low:      b.Low,
			Close:    b.Close,
			Volume:   b.Volume,
			Shares:   b.Shares,
			VolZ20:   volZ[i],
		}

		r.Ret1D = pctChange(closes, i, 1)
		r.Ret3D = pctChange(closes, i, 3)
		r.Ret5D = pctChange(closes, i, 5)

		prevClose := lag(closes, i, 1)
		r.RangeRel = safeDiv(b.High-b.Low, prevClose)
		r.GapOpen = safeDiv(b.Open-prevClose, prevClose)

		if span := b.High - b.Low; span != 0 && !math.IsNaN(span) {
			r.CloseLoc = (b.Close - (b.High+b.Low)/2) / span
		} else {
			r.CloseLoc = math.NaN()
		}

		r.Turnover = b.Volume / b.Shares
		r.MktCap = b.Close * b.Shares

		r.VolChange5D = ratioChange(volumes, i, 5)
		if math.IsNaN(r.VolZ20) {
			r.TurnoverVolRatio = math.NaN()
		} else {
			r.TurnoverVolRatio = r.Turnover / (math.Abs(r.VolZ20) + turnoverRatioEpsilon)
		}
		r.AbsRet5D = math.Abs(r.Ret5D)
		if prev5 := lag(closes, i, 5); !math.IsNaN(prev5) {
			r.PriceSlope5D = (b.Close - prev5) / 5
		} else {
			r.PriceSlope5D = math.NaN()
		}

		// The weak label reads within-ticker signals only; NaN in either
		// input leaves the session unflagged.
		if r.VolZ20 > LabelVolZThreshold && math.Abs(r.RangeRel) < LabelRangeThreshold {
			r.Label = 1
		}

		turnovers[i] = r.Turnover
		ranges[i] = r.RangeRel
		closeLocs[i] = r.CloseLoc
		ret1[i] = r.Ret1D
		rows[i] = r
	}

	vol10 := rollingStd(ret1, 10, 5)
	for i := range rows {
		rows[i].Volatility10D = vol10[i]
	}

	for _, w := range rollWindows {
		minPeriods := w / 2
		if minPeriods < 2 {
			minPeriods = 2
		}
		t := rollingMean(turnovers, w, minPeriods)
		z := rollingMean(volZ, w, minPeriods)
		rg := rollingMean(ranges, w, minPeriods)
		cl := rollingMean(closeLocs, w, minPeriods)
		for i := range rows {
			switch w {
			case 3:
				rows[i].Turnover3D, rows[i].VolZ3D, rows[i].Range3D, rows[i].CloseLoc3D = t[i], z[i], rg[i], cl[i]
			case 5:
				rows[i].Turnover5D, rows[i].VolZ5D, rows[i].Range5D, rows[i].CloseLoc5D = t[i], z[i], rg[i], cl[i]
			case 10:
				rows[i].Turnover10D, rows[i].VolZ10D, rows[i].Range10D, rows[i].CloseLoc10D = t[i], z[i], rg[i], cl[i]
			}
		}
	}

	return rows
}

// applyCrossSectionRanks fills the same-day percentile ranks of turnover
// and market cap across all tickers active on each date.
func applyCrossSectionRanks(rows []Row) {
	byDate := make(map[time.Time][]int)
	for i, r := range rows {
		byDate[r.Date] = append(byDate[r.Date], i)
	}

	for _, indices := range byDate {
		turnovers := make([]float64, len(indices))
		caps := make([]float64, len(indices))
		for k, idx := range indices {
			turnovers[k] = rows[idx].Turnover
			caps[k] = rows[idx].MktCap
		}
		turnoverPct := rankPct(turnovers)
		capPct := rankPct(caps)
		for k, idx := range indices {
			rows[idx].TurnoverPct = turnoverPct[k]
			rows[idx].MktCapPct = capPct[k]
		}
	}
}

// pctChange is the lag-k percentage return at position i, NaN when the
// lagged value is unavailable.
func pctChange(values []float64, i, k int) float64 {
	prev := lag(values, i, k)
	return safeDiv(values[i]-prev, prev)
}

// ratioChange is the lag-k growth ratio (v/v_lag - 1).
func ratioChange(values []float64, i, k int) float64 {
	prev := lag(values, i, k)
	if math.IsNaN(prev) || prev == 0 {
		return math.NaN()
	}
	return values[i]/prev - 1
}

func lag(values []float64, i, k int) float64 {
	if i < k {
		return math.NaN()
	}
	return values[i-k]
}

// safeDiv divides, mapping a NaN or zero denominator to NaN so the
// result reads as missing instead of infinite.
func safeDiv(num, den float64) float64 {
	if math.IsNaN(den) || den == 0 {
		return math.NaN()
	}
	return num / den
}
