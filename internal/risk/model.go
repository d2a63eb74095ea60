package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	randomforest "github.com/malaschitz/randomForest"
)

// Training failures that abort engine construction.
var (
	// ErrEmptyTrainingSet means no row survived the universe, cutoff,
	// and completeness filters.
	ErrEmptyTrainingSet = errors.New("no training rows after filtering")

	// ErrSingleClassLabel means the weak label never fired (or always
	// fired) inside the training slice, so a classifier cannot be fit.
	ErrSingleClassLabel = errors.New("training label has a single class")
)

// ModelConfig tunes the random forest.
type ModelConfig struct {
	Trees    int // number of trees in the ensemble
	LeafSize int // minimum samples per leaf
}

// DefaultModelConfig mirrors the configuration the scoring rule was
// calibrated with.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{Trees: 400, LeafSize: 3}
}

// Model is a fitted probabilistic classifier over behavior features.
// It lives in memory for the lifetime of the engine; there is no
// persistence path.
type Model struct {
	forest    randomforest.Forest
	trainRows int
	positives int
}

// TrainRows reports how many (balanced) rows the forest was fit on.
func (m *Model) TrainRows() int { return m.trainRows }

// Positives reports how many weak-label positives the raw training
// slice contained before balancing.
func (m *Model) Positives() int { return m.positives }

// Prob returns the predicted probability that the weak label is 1 for
// the given behavior vector.
func (m *Model) Prob(features []float64) float64 {
	votes := m.forest.Vote(features)
	if len(votes) < 2 {
		return 0
	}
	return votes[1]
}

// Train fits the classifier on rows that are (a) inside the training
// universe, (b) strictly before the cutoff date, and (c) complete in
// every behavior feature. The cutoff keeps the live scoring period out
// of the fit; the behavior-only vector keeps the labeling rule's inputs
// out of the model.
//
// The weak label is sparse, so the minority class is oversampled to
// parity before fitting; the forest itself applies no class weighting.
func Train(ctx context.Context, rows []Row, universe map[string]bool, cutoff time.Time, cfg ModelConfig, logger *slog.Logger) (*Model, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Trees <= 0 {
		cfg = DefaultModelConfig()
	}

	var x [][]float64
	var y []int
	excluded := 0
	for _, r := range rows {
		if !universe[r.Ticker] || !r.Date.Before(cutoff) {
			continue
		}
		vec, ok := r.BehaviorVector()
		if !ok {
			excluded++
			continue
		}
		x = append(x, vec)
		y = append(y, r.Label)
	}
	if len(x) == 0 {
		return nil, ErrEmptyTrainingSet
	}

	positives := 0
	for _, label := range y {
		positives += label
	}
	if positives == 0 || positives == len(y) {
		return nil, fmt.Errorf("%w: %d positives in %d rows", ErrSingleClassLabel, positives, len(y))
	}

	bx, by := balanceClasses(x, y)

	forest := randomforest.Forest{LeafSize: cfg.LeafSize}
	forest.Data = randomforest.ForestData{X: bx, Class: by}
	forest.Train(cfg.Trees)

	logger.InfoContext(ctx, "classifier trained",
		"train_rows", len(x),
		"balanced_rows", len(bx),
		"positives", positives,
		"rows_excluded", excluded,
		"trees", cfg.Trees,
		"leaf_size", cfg.LeafSize,
		"features", len(BehaviorFeatureNames),
	)

	return &Model{forest: forest, trainRows: len(bx), positives: positives}, nil
}

// balanceClasses oversamples the minority class to parity by cycling
// through its rows. Deterministic, so repeated builds on the same data
// train on the same matrix.
func balanceClasses(x [][]float64, y []int) ([][]float64, []int) {
	var minority, majority []int
	for i, label := range y {
		if label == 1 {
			minority = append(minority, i)
		} else {
			majority = append(majority, i)
		}
	}
	if len(minority) > len(majority) {
		minority, majority = majority, minority
	}
	if len(minority) == 0 || len(minority) == len(majority) {
		return x, y
	}

	bx := make([][]float64, 0, 2*len(majority))
	by := make([]int, 0, 2*len(majority))
	bx = append(bx, x...)
	by = append(by, y...)
	for k := 0; len(minority)+k < len(majority); k++ {
		idx := minority[k%len(minority)]
		bx = append(bx, x[idx])
		by = append(by, y[idx])
	}
	return bx, by
}
