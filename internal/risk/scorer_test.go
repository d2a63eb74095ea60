package risk

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trainedModel(t *testing.T) *Model {
	t.Helper()
	model, err := Train(context.Background(), trainingRows(60, 10),
		map[string]bool{"AAA": true}, day(1000), ModelConfig{Trees: 20, LeafSize: 2}, testLogger())
	require.NoError(t, err)
	return model
}

func TestScore(t *testing.T) {
	ctx := context.Background()
	model := trainedModel(t)

	t.Run("scores lie in range and rank within the day", func(t *testing.T) {
		var rows []Row
		for i, ticker := range []string{"AAA", "BBB", "CCC", "DDD"} {
			r := completeRow()
			r.Ticker = ticker
			r.Date = day(0)
			r.Ret3D += float64(i) * 0.01
			rows = append(rows, r)
		}
		// One row carries the manipulation-like signature and must rank
		// at the top of its day.
		rows[3].Turnover5D = 0.05
		rows[3].Range5D = 0.001
		rows[3].AbsRet5D = 0.001
		scored := Score(ctx, rows, model, testLogger())
		require.Len(t, scored, 4)

		for _, s := range scored {
			assert.GreaterOrEqual(t, s.Risk, 0.0)
			assert.LessOrEqual(t, s.Risk, 10.0)
			assert.InDelta(t, s.Risk, math.Round(s.Risk*10)/10, 1e-12, "one decimal place")
			assert.GreaterOrEqual(t, s.RiskPct, 0.0)
			assert.LessOrEqual(t, s.RiskPct, 1.0)
		}

		// Published order within a date is risk descending with ticker
		// tiebreak.
		for i := 1; i < len(scored); i++ {
			if scored[i-1].Risk == scored[i].Risk {
				assert.Less(t, scored[i-1].Ticker, scored[i].Ticker)
			} else {
				assert.Greater(t, scored[i-1].Risk, scored[i].Risk)
			}
		}

		// Within a date, the published score is monotonic in the raw
		// probability.
		for i := range scored {
			for j := range scored {
				if scored[i].RiskRaw > scored[j].RiskRaw {
					assert.GreaterOrEqual(t, scored[i].Risk, scored[j].Risk)
				}
			}
		}

		// The highest raw probability takes the top percentile.
		top := scored[0]
		for _, s := range scored[1:] {
			assert.GreaterOrEqual(t, top.RiskRaw, s.RiskRaw)
		}
		assert.InDelta(t, 10.0, top.Risk, 1e-12)
	})

	t.Run("incomplete rows are excluded", func(t *testing.T) {
		good := completeRow()
		good.Ticker = "AAA"
		good.Date = day(0)

		bad := completeRow()
		bad.Ticker = "BBB"
		bad.Date = day(0)
		bad.Range10D = math.NaN()

		scored := Score(ctx, []Row{good, bad}, model, testLogger())
		require.Len(t, scored, 1)
		assert.Equal(t, "AAA", scored[0].Ticker)
	})

	t.Run("ranking is per date", func(t *testing.T) {
		var rows []Row
		for d := 0; d < 3; d++ {
			for i, ticker := range []string{"AAA", "BBB"} {
				r := completeRow()
				r.Ticker = ticker
				r.Date = day(d)
				r.Ret3D += float64(i) * 0.02
				rows = append(rows, r)
			}
		}
		scored := Score(ctx, rows, model, testLogger())
		require.Len(t, scored, 6)

		// Two rows per date must always split the day's rank mass the
		// same way: {0.5, 1.0} or a tie at 0.75.
		byDate := map[int][]float64{}
		for _, s := range scored {
			byDate[s.Date.Day()] = append(byDate[s.Date.Day()], s.RiskPct)
		}
		for _, pcts := range byDate {
			require.Len(t, pcts, 2)
			sum := pcts[0] + pcts[1]
			assert.InDelta(t, 1.5, sum, 1e-12)
		}

		// Date ascending across the published slice.
		for i := 1; i < len(scored); i++ {
			assert.False(t, scored[i].Date.Before(scored[i-1].Date))
		}
	})
}

func TestRoundRisk(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-1, 0},
		{0, 0},
		{3.14159, 3.1},
		{3.25, 3.3},
		{9.99, 10},
		{11, 10},
		{math.NaN(), 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, roundRisk(tt.in), "roundRisk(%v)", tt.in)
	}
}
