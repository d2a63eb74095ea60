package risk

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/LeLongFintech/GULLIVER/internal/dataset"
)

// Config carries everything Build needs. The train cutoff separates the
// history the classifier may see from the live period it scores; it is
// configuration, not a constant, so deployments can move the boundary.
type Config struct {
	PricesPath string
	SharesPath string

	TrainCutoff      time.Time
	UniverseQuantile float64
	Model            ModelConfig
}

// Engine is the built risk-scoring engine: an immutable score table
// plus the fitted model. Construct it once at startup and share it by
// reference; all methods are read-only and safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *slog.Logger

	table    *Table
	model    *Model
	universe map[string]bool
	builtAt  time.Time
}

// Build runs the whole pipeline synchronously: load and normalize the
// sources, build features, select the training universe, fit the
// classifier, and score the full universe. It either returns a fully
// usable engine or a descriptive error; there are no partial results
// and no retry.
func Build(ctx context.Context, cfg Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "risk_engine"))
	start := time.Now()

	for name, path := range map[string]string{
		"price source":  cfg.PricesPath,
		"shares source": cfg.SharesPath,
	} {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("%s not found: %s", name, path)
		}
	}

	bars, err := dataset.LoadPrices(ctx, cfg.PricesPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load prices: %w", err)
	}
	shares, err := dataset.LoadShares(ctx, cfg.SharesPath, logger)
	if err != nil {
		return nil, fmt.Errorf("load shares: %w", err)
	}

	bars = dataset.ResolveShares(bars, shares)
	bars = dataset.FilterComplete(ctx, bars, logger)
	if len(bars) == 0 {
		return nil, fmt.Errorf("no price rows with resolved shares outstanding remain")
	}

	rows := BuildFeatures(ctx, bars, logger)

	universe, err := SelectUniverse(ctx, rows, cfg.UniverseQuantile, logger)
	if err != nil {
		return nil, fmt.Errorf("select training universe: %w", err)
	}

	model, err := Train(ctx, rows, universe, cfg.TrainCutoff, cfg.Model, logger)
	if err != nil {
		return nil, fmt.Errorf("train classifier: %w", err)
	}

	scored := Score(ctx, rows, model, logger)
	if len(scored) == 0 {
		return nil, fmt.Errorf("no rows survived scoring")
	}

	engine := &Engine{
		cfg:      cfg,
		logger:   logger,
		table:    NewTable(scored),
		model:    model,
		universe: universe,
		builtAt:  time.Now(),
	}

	logger.InfoContext(ctx, "risk engine built",
		"duration", time.Since(start),
		"score_rows", engine.table.Len(),
		"universe_size", len(universe),
		"train_cutoff", cfg.TrainCutoff.Format("2006-01-02"),
	)
	return engine, nil
}

// Score looks up the risk row for a ticker, resolving an omitted date to
// the latest session and an off-session date to the most recent prior
// one.
func (e *Engine) Score(ticker string, date *time.Time) (ScoreRow, bool) {
	return e.table.Score(ticker, date)
}

// HasTicker reports whether any scored row exists for the ticker.
func (e *Engine) HasTicker(ticker string) bool {
	return e.table.HasTicker(ticker)
}

// History returns up to the last days rows for the ticker,
// chronologically.
func (e *Engine) History(ticker string, days int) []ScoreRow {
	return e.table.History(ticker, days)
}

// Top returns the k highest-risk rows for the exact date.
func (e *Engine) Top(date time.Time, k int) []ScoreRow {
	return e.table.Top(date, k)
}

// InUniverse reports whether the ticker was part of the training
// universe.
func (e *Engine) InUniverse(ticker string) bool {
	return e.universe[normalizeTicker(ticker)]
}

// LatestDate returns the most recent scored date.
func (e *Engine) LatestDate() (time.Time, bool) {
	return e.table.LatestDate()
}

// Rows reports the size of the materialized score table.
func (e *Engine) Rows() int { return e.table.Len() }

// BuiltAt reports when the pipeline finished.
func (e *Engine) BuiltAt() time.Time { return e.builtAt }
