package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/LeLongFintech/GULLIVER/internal/fundamentals"
	"github.com/LeLongFintech/GULLIVER/pkg/contracts"
)

// DiagnoseService produces fundamentals diagnoses: extracted metric
// groups plus the analysis prompt handed to the external language
// model.
type DiagnoseService struct {
	analyzer *fundamentals.Analyzer
	logger   *slog.Logger
}

// NewDiagnoseService creates a new diagnose service.
func NewDiagnoseService(analyzer *fundamentals.Analyzer, logger *slog.Logger) *DiagnoseService {
	return &DiagnoseService{
		analyzer: analyzer,
		logger:   logger.With(slog.String("component", "diagnose_service")),
	}
}

// Diagnose extracts the symbol's fundamentals and builds the analysis
// prompt.
func (s *DiagnoseService) Diagnose(ctx context.Context, symbol string) (contracts.DiagnoseResponse, error) {
	metrics, err := s.analyzer.Metrics(symbol)
	if err != nil {
		return contracts.DiagnoseResponse{}, fmt.Errorf("analyze %s: %w", symbol, err)
	}

	normalized := normalize(symbol)
	s.logger.InfoContext(ctx, "fundamentals diagnosis built", "symbol", normalized)
	return contracts.DiagnoseResponse{
		Symbol:  normalized,
		Metrics: metrics,
		Prompt:  fundamentals.BuildPrompt(normalized, metrics),
	}, nil
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}
