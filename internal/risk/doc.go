// Package risk implements the Manipulation Watch scoring engine: a
// supervised pipeline that rates every (ticker, trading day) pair on a
// 0-10 risk scale for price-manipulation-like behavior.
//
// # Pipeline
//
// The engine builds once, eagerly, from two file sources:
//
//  1. Feature construction: per-ticker, strictly date-ordered transforms
//     over daily OHLCV bars joined with shares outstanding - returns,
//     range structure, a 20-session volume z-score, turnover, rolling
//     aggregates at 3/5/10 days, and same-day cross-sectional ranks.
//  2. Weak labeling: a volume spike paired with a compressed price range
//     (vol z-score > 2, |relative range| < 1%) marks a session as a
//     plausible manipulation signature. The label is a heuristic proxy,
//     not ground truth.
//  3. Universe selection: training is restricted to tickers whose median
//     turnover and market cap both sit at or above the 70th percentile,
//     keeping the noisy weak label away from illiquid names.
//  4. Training: a class-balanced random forest fit on behavior features
//     only. The three signals the labeling rule reads (1-day return,
//     volume z-score, open gap) are excluded so the model cannot
//     trivially reconstruct the rule. Only rows before the configured
//     cutoff date are seen at fit time.
//  5. Scoring: the forest scores the full universe; raw probabilities are
//     percentile-ranked within each trading day and scaled to [0, 10],
//     since absolute probabilities are not comparable across volatility
//     regimes.
//
// The result is an immutable in-memory score table. Query operations
// (Score, History, Top) are pure reads and safe for concurrent use.
//
// # File map
//
//   - types.go: feature rows, score rows, tunables
//   - features.go: per-ticker feature builder and cross-sectional ranks
//   - rolling.go: rolling mean/std/z-score and ranking primitives
//   - universe.go: blue-chip training universe selection
//   - model.go: random-forest training with class balancing
//   - scorer.go: probability scoring and daily percentile scaling
//   - table.go: materialized score table and query operations
//   - engine.go: orchestration and lifecycle
package risk
