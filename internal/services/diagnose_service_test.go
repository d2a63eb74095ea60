package services

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeLongFintech/GULLIVER/internal/fundamentals"
)

func newTestAnalyzer(t *testing.T) *fundamentals.Analyzer {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"Balance_sheet.csv":    "Symbol,Year,Debt to Equity,Current Ratio\nVNM,2023,0.5,2.1\n",
		"Income_statement.csv": "Symbol,Year,Revenue,EPS\nVNM,2022,100,4\nVNM,2023,110,5\n",
		"Cash_flow.csv":        "Symbol,Year,Operating Cash Flow\nVNM,2023,12\n",
		"Indicators.csv":       "Symbol,P/E,P/B,ROE,ROA,Profit Margin,Dividend Yield,Payout Ratio\nVNM,15.2,3.4,28,18.5,22.1,4.5,60\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	analyzer, err := fundamentals.NewAnalyzer(context.Background(), dir, nil)
	require.NoError(t, err)
	return analyzer
}

func TestDiagnoseService(t *testing.T) {
	ctx := context.Background()
	service := NewDiagnoseService(newTestAnalyzer(t), testLogger())

	t.Run("builds metrics and prompt", func(t *testing.T) {
		resp, err := service.Diagnose(ctx, " vnm ")
		require.NoError(t, err)
		assert.Equal(t, "VNM", resp.Symbol)
		assert.Contains(t, resp.Prompt, "Analyze stock VNM")
		assert.Contains(t, resp.Prompt, "P/E: 15.20")
		require.NotNil(t, resp.Metrics)
	})

	t.Run("unknown symbol surfaces the sentinel", func(t *testing.T) {
		_, err := service.Diagnose(ctx, "ZZZZ")
		require.Error(t, err)
		assert.ErrorIs(t, err, fundamentals.ErrUnknownSymbol)
	})
}
