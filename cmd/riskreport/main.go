package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/LeLongFintech/GULLIVER/internal/app"
	"github.com/LeLongFintech/GULLIVER/internal/config"
	"github.com/LeLongFintech/GULLIVER/internal/dataset"
	"github.com/LeLongFintech/GULLIVER/internal/risk"
)

func main() {
	dataDir := flag.String("data", "", "data directory (defaults to configured data dir)")
	outputDir := flag.String("out", "", "output directory for the report (defaults to <data>/reports)")
	dateStr := flag.String("date", "", "trading date to report on (YYYY-MM-DD, defaults to latest scored date)")
	topK := flag.Int("top", 0, "limit the report to the K riskiest tickers (0 = all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	if *dataDir != "" {
		cfg.Data.Dir = *dataDir
	}
	if *outputDir == "" {
		*outputDir = filepath.Join(cfg.Data.Dir, "reports")
	}

	logger, err := app.NewLogger(cfg.Logging)
	if err != nil {
		slog.Error("Failed to initialize logger", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(logger)

	cutoff, err := cfg.TrainCutoff()
	if err != nil {
		slog.Error("Invalid train cutoff", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	slog.Info("Building risk engine",
		"prices", cfg.PricesPath(),
		"shares", cfg.SharesPath())

	engine, err := risk.Build(ctx, risk.Config{
		PricesPath:       cfg.PricesPath(),
		SharesPath:       cfg.SharesPath(),
		TrainCutoff:      cutoff,
		UniverseQuantile: cfg.Risk.UniverseQuantile,
		Model: risk.ModelConfig{
			Trees:    cfg.Risk.Trees,
			LeafSize: cfg.Risk.LeafSize,
		},
	}, logger)
	if err != nil {
		slog.Error("Failed to build risk engine", "error", err)
		os.Exit(1)
	}

	date, err := reportDate(engine, *dateStr)
	if err != nil {
		slog.Error("Failed to resolve report date", "error", err)
		os.Exit(1)
	}

	k := *topK
	if k <= 0 {
		k = engine.Rows()
	}
	rows := engine.Top(date, k)
	if len(rows) == 0 {
		slog.Error("No scores for requested date", "date", date.Format("2006-01-02"))
		os.Exit(1)
	}

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		slog.Error("Failed to create output directory", "error", err)
		os.Exit(1)
	}
	outPath := filepath.Join(*outputDir,
		fmt.Sprintf("risk_report_%s.csv", date.Format("2006-01-02")))
	if err := writeReport(outPath, rows); err != nil {
		slog.Error("Failed to write report", "error", err)
		os.Exit(1)
	}

	slog.Info("Report written",
		"path", outPath,
		"date", date.Format("2006-01-02"),
		"tickers", len(rows))
}

// reportDate resolves the flag value, or falls back to the latest date
// carrying scores.
func reportDate(engine *risk.Engine, flagValue string) (time.Time, error) {
	if flagValue != "" {
		return dataset.ParseDate(flagValue)
	}
	latest, ok := engine.LatestDate()
	if !ok {
		return time.Time{}, fmt.Errorf("score table is empty")
	}
	return latest, nil
}

func writeReport(path string, rows []risk.ScoreRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create report file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"ticker", "date", "close", "volume", "turnover", "market_cap", "risk"}
	if err := w.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			row.Ticker,
			row.Date.Format("2006-01-02"),
			strconv.FormatFloat(row.Close, 'f', -1, 64),
			strconv.FormatFloat(row.Volume, 'f', -1, 64),
			strconv.FormatFloat(row.Turnover, 'f', 2, 64),
			strconv.FormatFloat(row.MktCap, 'f', 2, 64),
			strconv.FormatFloat(row.Risk, 'f', 1, 64),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}
