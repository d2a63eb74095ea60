package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeLongFintech/GULLIVER/internal/risk"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// buildTestEngine assembles a small but trainable engine: one dominant
// ticker with calm-session volume spikes before the cutoff, two minor
// tickers filling out the cross section.
func buildTestEngine(t *testing.T) *risk.Engine {
	t.Helper()
	dir := t.TempDir()
	start := time.Date(2023, 10, 1, 0, 0, 0, 0, time.UTC)

	var prices strings.Builder
	prices.WriteString("ticker,date,open,high,low,close,volume,exchange\n")
	for _, spec := range []struct {
		name   string
		close  float64
		volume float64
	}{
		{"AAA", 100, 10_000},
		{"BBB", 50, 1_000},
		{"CCC", 20, 500},
	} {
		for i := 0; i < 100; i++ {
			volume := spec.volume + float64(i%5)*spec.volume/100
			if spec.name == "AAA" && (i == 30 || i == 45 || i == 60) {
				volume = spec.volume * 10
			}
			fmt.Fprintf(&prices, "%s,%s,%g,%g,%g,%g,%g,HOSE\n",
				spec.name, start.AddDate(0, 0, i).Format("2006-01-02"),
				spec.close, spec.close+0.3, spec.close-0.1, spec.close, volume)
		}
	}
	shares := "ticker,year,shares_outstanding\nAAA,2023,1000000\nBBB,2023,500000\nCCC,2023,100000\n"

	pricesPath := filepath.Join(dir, "prices.csv")
	sharesPath := filepath.Join(dir, "shares.csv")
	require.NoError(t, os.WriteFile(pricesPath, []byte(prices.String()), 0o644))
	require.NoError(t, os.WriteFile(sharesPath, []byte(shares), 0o644))

	engine, err := risk.Build(context.Background(), risk.Config{
		PricesPath:       pricesPath,
		SharesPath:       sharesPath,
		TrainCutoff:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		UniverseQuantile: 0.7,
		Model:            risk.ModelConfig{Trees: 30, LeafSize: 3},
	}, testLogger())
	require.NoError(t, err)
	return engine
}

func TestRiskService(t *testing.T) {
	ctx := context.Background()
	engine := buildTestEngine(t)
	service := NewRiskService(engine, 8.0, testLogger())

	t.Run("score carries value and context", func(t *testing.T) {
		resp := service.Score(ctx, "aaa", nil)
		assert.Equal(t, "AAA", resp.Ticker)
		require.NotNil(t, resp.Risk)
		assert.GreaterOrEqual(t, *resp.Risk, 0.0)
		assert.LessOrEqual(t, *resp.Risk, 10.0)
		require.NotNil(t, resp.Context)
		assert.Equal(t, 100.0, resp.Context.Close)
		assert.Empty(t, resp.Message)
		assert.Equal(t, resp.Alert, *resp.Risk >= 8.0)
	})

	t.Run("unknown ticker yields a message", func(t *testing.T) {
		resp := service.Score(ctx, "ZZZ", nil)
		assert.Nil(t, resp.Risk)
		assert.Equal(t, "No data", resp.Message)
	})

	t.Run("unknown ticker with a date still reads no data", func(t *testing.T) {
		date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
		resp := service.Score(ctx, "ZZZ", &date)
		assert.Nil(t, resp.Risk)
		assert.Equal(t, "No data", resp.Message)
	})

	t.Run("date before history yields a dated message", func(t *testing.T) {
		before := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		resp := service.Score(ctx, "AAA", &before)
		assert.Nil(t, resp.Risk)
		assert.Equal(t, "No data at selected date", resp.Message)
	})

	t.Run("history is chronological and bounded", func(t *testing.T) {
		resp := service.History(ctx, "AAA", 10)
		assert.Equal(t, "AAA", resp.Ticker)
		require.Len(t, resp.History, 10)
		for i := 1; i < len(resp.History); i++ {
			assert.Less(t, resp.History[i-1].Date, resp.History[i].Date)
		}
	})

	t.Run("history for unknown ticker is empty not nil", func(t *testing.T) {
		resp := service.History(ctx, "ZZZ", 10)
		assert.NotNil(t, resp.History)
		assert.Empty(t, resp.History)
	})

	t.Run("top is descending by risk", func(t *testing.T) {
		latest, ok := engine.LatestDate()
		require.True(t, ok)
		resp := service.Top(ctx, latest, 10)
		assert.Equal(t, latest.Format("2006-01-02"), resp.Date)
		require.NotEmpty(t, resp.Top)
		for i := 1; i < len(resp.Top); i++ {
			assert.GreaterOrEqual(t, resp.Top[i-1].Risk, resp.Top[i].Risk)
		}
	})

	t.Run("top on an empty date is empty not nil", func(t *testing.T) {
		resp := service.Top(ctx, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), 10)
		assert.NotNil(t, resp.Top)
		assert.Empty(t, resp.Top)
	})

	t.Run("health reports readiness", func(t *testing.T) {
		resp := service.Health(ctx)
		assert.Equal(t, "ok", resp.Status)
		assert.Equal(t, engine.Rows(), resp.ScoreRows)
		assert.NotEmpty(t, resp.BuiltAt)
	})
}
