package risk

import (
	"context"
	"errors"
	"log/slog"
	"math"
)

// ErrEmptyUniverse is returned when no ticker qualifies for the training
// universe, which makes training impossible.
var ErrEmptyUniverse = errors.New("training universe is empty")

// DefaultUniverseQuantile is the percentile cut applied to per-ticker
// median turnover and market cap.
const DefaultUniverseQuantile = 0.7

// SelectUniverse partitions tickers into the liquid "blue chip" training
// universe. A ticker qualifies when both the median turnover and the
// median market cap over its entire history sit at or above the given
// quantile of all tickers' medians. The partition is static: computed
// once from the full dataset, not per date.
func SelectUniverse(ctx context.Context, rows []Row, quantileCut float64, logger *slog.Logger) (map[string]bool, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if quantileCut <= 0 || quantileCut >= 1 {
		quantileCut = DefaultUniverseQuantile
	}

	turnoverHist := make(map[string][]float64)
	capHist := make(map[string][]float64)
	for _, r := range rows {
		turnoverHist[r.Ticker] = append(turnoverHist[r.Ticker], r.Turnover)
		capHist[r.Ticker] = append(capHist[r.Ticker], r.MktCap)
	}

	type aggregate struct {
		ticker  string
		medTurn float64
		medCap  float64
	}
	aggregates := make([]aggregate, 0, len(turnoverHist))
	for ticker := range turnoverHist {
		a := aggregate{
			ticker:  ticker,
			medTurn: median(turnoverHist[ticker]),
			medCap:  median(capHist[ticker]),
		}
		// Tickers whose whole history is missing or infinite carry no
		// liquidity signal and cannot qualify.
		if math.IsNaN(a.medTurn) || math.IsNaN(a.medCap) {
			continue
		}
		aggregates = append(aggregates, a)
	}
	if len(aggregates) == 0 {
		return nil, ErrEmptyUniverse
	}

	medTurns := make([]float64, len(aggregates))
	medCaps := make([]float64, len(aggregates))
	for i, a := range aggregates {
		medTurns[i] = a.medTurn
		medCaps[i] = a.medCap
	}
	turnCut := quantile(medTurns, quantileCut)
	capCut := quantile(medCaps, quantileCut)

	universe := make(map[string]bool)
	for _, a := range aggregates {
		if a.medTurn >= turnCut && a.medCap >= capCut {
			universe[a.ticker] = true
		}
	}
	if len(universe) == 0 {
		return nil, ErrEmptyUniverse
	}

	logger.InfoContext(ctx, "training universe selected",
		"candidates", len(aggregates),
		"selected", len(universe),
		"turnover_cut", turnCut,
		"mkt_cap_cut", capCut,
		"quantile", quantileCut,
	)
	return universe, nil
}
