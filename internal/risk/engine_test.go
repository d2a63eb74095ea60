package risk

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixture materializes a price and shares CSV pair covering late
// 2023 into early 2024. AAA dominates both liquidity axes and carries
// volume spikes on calm sessions before the cutoff, so it anchors the
// training universe and supplies both label classes. DDD has no shares
// record and must vanish from the output.
func writeFixture(t *testing.T, spikes []int) (pricesPath, sharesPath string) {
	t.Helper()
	dir := t.TempDir()

	start := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)
	sessions := 100

	var prices strings.Builder
	prices.WriteString("ticker,date,open,high,low,close,volume,exchange\n")
	spiked := make(map[int]bool, len(spikes))
	for _, s := range spikes {
		spiked[s] = true
	}

	type tickerSpec struct {
		name   string
		close  float64
		volume float64
	}
	specs := []tickerSpec{
		{"AAA", 100, 10_000},
		{"BBB", 50, 1_000},
		{"CCC", 20, 500},
		{"DDD", 10, 800},
	}
	for _, spec := range specs {
		for i := 0; i < sessions; i++ {
			date := start.AddDate(0, 0, i)
			volume := spec.volume + float64(i%5)*spec.volume/100
			if spec.name == "AAA" && spiked[i] {
				volume = spec.volume * 10
			}
			fmt.Fprintf(&prices, "%s,%s,%g,%g,%g,%g,%g,HOSE\n",
				spec.name, date.Format("2006-01-02"),
				spec.close, spec.close+0.3, spec.close-0.1, spec.close, volume)
		}
	}

	shares := "ticker,year,shares_outstanding\n" +
		"AAA,2023,1000000\n" +
		"BBB,2023,500000\n" +
		"CCC,2023,100000\n"

	pricesPath = filepath.Join(dir, "prices.csv")
	sharesPath = filepath.Join(dir, "shares.csv")
	require.NoError(t, os.WriteFile(pricesPath, []byte(prices.String()), 0o644))
	require.NoError(t, os.WriteFile(sharesPath, []byte(shares), 0o644))
	return pricesPath, sharesPath
}

func testEngineConfig(pricesPath, sharesPath string) Config {
	return Config{
		PricesPath:       pricesPath,
		SharesPath:       sharesPath,
		TrainCutoff:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UniverseQuantile: 0.7,
		Model:            ModelConfig{Trees: 30, LeafSize: 3},
	}
}

func TestBuildEndToEnd(t *testing.T) {
	ctx := context.Background()
	pricesPath, sharesPath := writeFixture(t, []int{30, 45, 60})

	engine, err := Build(ctx, testEngineConfig(pricesPath, sharesPath), testLogger())
	require.NoError(t, err)
	require.NotZero(t, engine.Rows())

	t.Run("universe holds the dominant ticker only", func(t *testing.T) {
		assert.True(t, engine.InUniverse("AAA"))
		assert.False(t, engine.InUniverse("BBB"))
		assert.False(t, engine.InUniverse("CCC"))
	})

	t.Run("latest score resolves without a date", func(t *testing.T) {
		row, ok := engine.Score("AAA", nil)
		require.True(t, ok)
		assert.GreaterOrEqual(t, row.Risk, 0.0)
		assert.LessOrEqual(t, row.Risk, 10.0)
		latest, _ := engine.LatestDate()
		assert.True(t, row.Date.Equal(latest))
	})

	t.Run("off session date falls back to the prior session", func(t *testing.T) {
		latest, ok := engine.LatestDate()
		require.True(t, ok)
		after := latest.AddDate(0, 0, 10)
		row, ok := engine.Score("aaa", &after)
		require.True(t, ok)
		assert.True(t, row.Date.Equal(latest))
	})

	t.Run("date before history has no data", func(t *testing.T) {
		before := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
		_, ok := engine.Score("AAA", &before)
		assert.False(t, ok)
	})

	t.Run("ticker without shares outstanding is excluded entirely", func(t *testing.T) {
		_, ok := engine.Score("DDD", nil)
		assert.False(t, ok)
		assert.Empty(t, engine.History("DDD", 30))
	})

	t.Run("history is ascending and bounded", func(t *testing.T) {
		rows := engine.History("AAA", 10)
		require.Len(t, rows, 10)
		for i := 1; i < len(rows); i++ {
			assert.True(t, rows[i-1].Date.Before(rows[i].Date))
		}
	})

	t.Run("top ranks the day by risk", func(t *testing.T) {
		latest, ok := engine.LatestDate()
		require.True(t, ok)
		rows := engine.Top(latest, 10)
		require.NotEmpty(t, rows)
		for i := 1; i < len(rows); i++ {
			assert.GreaterOrEqual(t, rows[i-1].Risk, rows[i].Risk)
		}
	})

	t.Run("scored rows span the cutoff", func(t *testing.T) {
		// Scoring covers the full period, not just the training slice.
		rows := engine.History("AAA", 1000)
		require.NotEmpty(t, rows)
		first, last := rows[0], rows[len(rows)-1]
		cutoff := testEngineConfig("", "").TrainCutoff
		assert.True(t, first.Date.Before(cutoff))
		assert.True(t, last.Date.After(cutoff) || last.Date.Equal(cutoff))
	})
}

func TestBuildFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing price source names the file", func(t *testing.T) {
		_, sharesPath := writeFixture(t, []int{30})
		cfg := testEngineConfig(filepath.Join(t.TempDir(), "nope.csv"), sharesPath)
		_, err := Build(ctx, cfg, testLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "nope.csv")
	})

	t.Run("missing shares source names the file", func(t *testing.T) {
		pricesPath, _ := writeFixture(t, []int{30})
		cfg := testEngineConfig(pricesPath, filepath.Join(t.TempDir(), "gone.csv"))
		_, err := Build(ctx, cfg, testLogger())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "gone.csv")
	})

	t.Run("label never fires", func(t *testing.T) {
		pricesPath, sharesPath := writeFixture(t, nil)
		_, err := Build(ctx, testEngineConfig(pricesPath, sharesPath), testLogger())
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrSingleClassLabel)
	})
}
