package risk

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// finiteWindow collects the non-NaN values in values[i-window+1 .. i].
// Infinities are kept so they poison the aggregate and surface as an
// exclusion at the consuming stage rather than vanishing silently.
func finiteWindow(values []float64, i, window int) []float64 {
	lo := i - window + 1
	if lo < 0 {
		lo = 0
	}
	out := make([]float64, 0, window)
	for _, v := range values[lo : i+1] {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// rollingMean computes a trailing mean at every position, yielding NaN
// wherever fewer than minPeriods observed values are available.
func rollingMean(values []float64, window, minPeriods int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		obs := finiteWindow(values, i, window)
		if len(obs) < minPeriods {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Mean(obs, nil)
	}
	return out
}

// rollingStd computes a trailing sample standard deviation with a
// minimum-periods floor, NaN when history is insufficient.
func rollingStd(values []float64, window, minPeriods int) []float64 {
	out := make([]float64, len(values))
	for i := range values {
		obs := finiteWindow(values, i, window)
		if len(obs) < minPeriods || len(obs) < 2 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.StdDev(obs, nil)
	}
	return out
}

// rollingZScore standardizes each value against its trailing window.
// minPeriods is max(5, window/3), so early sessions with thin history
// read as missing rather than as unstable scores. A zero
// dispersion yields an infinite z-score, which downstream stages treat
// as an exclusion.
func rollingZScore(values []float64, window int) []float64 {
	minPeriods := window / 3
	if minPeriods < 5 {
		minPeriods = 5
	}
	means := rollingMean(values, window, minPeriods)
	stds := rollingStd(values, window, minPeriods)

	out := make([]float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) || math.IsNaN(means[i]) || math.IsNaN(stds[i]) {
			out[i] = math.NaN()
			continue
		}
		out[i] = (v - means[i]) / stds[i]
	}
	return out
}

// rankPct assigns each finite value its percentile rank within the
// slice: average rank of ties divided by the count of finite values, so
// results lie in (0, 1] and equal values share a rank regardless of
// input order. NaN and infinite inputs rank as NaN.
func rankPct(values []float64) []float64 {
	type indexed struct {
		idx int
		v   float64
	}
	finite := make([]indexed, 0, len(values))
	for i, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, indexed{i, v})
		}
	}

	out := make([]float64, len(values))
	for i := range out {
		out[i] = math.NaN()
	}
	if len(finite) == 0 {
		return out
	}

	sort.SliceStable(finite, func(a, b int) bool { return finite[a].v < finite[b].v })

	n := float64(len(finite))
	for start := 0; start < len(finite); {
		end := start + 1
		for end < len(finite) && finite[end].v == finite[start].v {
			end++
		}
		// 1-based ranks averaged across the tie group.
		avgRank := float64(start+1+end) / 2
		for k := start; k < end; k++ {
			out[finite[k].idx] = avgRank / n
		}
		start = end
	}
	return out
}

// quantile returns the linearly interpolated p-quantile of the finite
// values, NaN when none exist.
func quantile(values []float64, p float64) float64 {
	finite := make([]float64, 0, len(values))
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			finite = append(finite, v)
		}
	}
	if len(finite) == 0 {
		return math.NaN()
	}
	sort.Float64s(finite)
	return stat.Quantile(p, stat.LinInterp, finite, nil)
}

// median is the 0.5 quantile over finite values.
func median(values []float64) float64 {
	return quantile(values, 0.5)
}
