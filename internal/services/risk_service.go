// Package services adapts the engine and analyzer to the shapes the
// HTTP layer serves.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/LeLongFintech/GULLIVER/internal/risk"
	"github.com/LeLongFintech/GULLIVER/pkg/contracts"
)

// RiskService answers risk queries against the built engine. The engine
// is immutable, so the service holds it by reference and never locks.
type RiskService struct {
	engine         *risk.Engine
	alertThreshold float64
	logger         *slog.Logger
}

// NewRiskService creates a new risk service. alertThreshold is the
// risk score at or above which a row is flagged as an alert.
func NewRiskService(engine *risk.Engine, alertThreshold float64, logger *slog.Logger) *RiskService {
	return &RiskService{
		engine:         engine,
		alertThreshold: alertThreshold,
		logger:         logger.With(slog.String("component", "risk_service")),
	}
}

// Score resolves a point-in-time score. A nil date selects the latest
// session; an off-session date resolves to the most recent prior one.
// Missing data comes back as a message, never an error.
func (s *RiskService) Score(ctx context.Context, ticker string, date *time.Time) contracts.ScoreResponse {
	row, ok := s.engine.Score(ticker, date)
	if !ok {
		// An unknown ticker reads "No data" even when a date was given;
		// "at selected date" is reserved for a known ticker with no
		// session at or before the date.
		msg := "No data"
		if date != nil && s.engine.HasTicker(ticker) {
			msg = "No data at selected date"
		}
		s.logger.InfoContext(ctx, "score lookup without data",
			"ticker", ticker, "has_date", date != nil)
		return contracts.ScoreResponse{Ticker: normalize(ticker), Message: msg}
	}

	score := row.Risk
	return contracts.ScoreResponse{
		Ticker: row.Ticker,
		Date:   row.Date.Format("2006-01-02"),
		Risk:   &score,
		Alert:  row.Risk >= s.alertThreshold,
		Context: &contracts.ScoreContext{
			Close:    row.Close,
			Volume:   row.Volume,
			Turnover: row.Turnover,
			MktCap:   row.MktCap,
		},
	}
}

// History returns up to the last days sessions for the ticker in
// chronological order.
func (s *RiskService) History(ctx context.Context, ticker string, days int) contracts.HistoryResponse {
	rows := s.engine.History(ticker, days)
	history := make([]contracts.HistoryPoint, 0, len(rows))
	for _, row := range rows {
		history = append(history, contracts.HistoryPoint{
			Date: row.Date.Format("2006-01-02"),
			Risk: row.Risk,
		})
	}
	return contracts.HistoryResponse{Ticker: normalize(ticker), History: history}
}

// Top returns the k highest-risk tickers for the exact date.
func (s *RiskService) Top(ctx context.Context, date time.Time, k int) contracts.TopResponse {
	rows := s.engine.Top(date, k)
	top := make([]contracts.TopEntry, 0, len(rows))
	for _, row := range rows {
		top = append(top, contracts.TopEntry{
			Ticker: row.Ticker,
			Risk:   row.Risk,
			Close:  row.Close,
			Volume: row.Volume,
		})
	}
	return contracts.TopResponse{Date: date.Format("2006-01-02"), Top: top}
}

// Health reports engine readiness for the health endpoint.
func (s *RiskService) Health(ctx context.Context) contracts.HealthResponse {
	return contracts.HealthResponse{
		Status:    "ok",
		ScoreRows: s.engine.Rows(),
		BuiltAt:   s.engine.BuiltAt().Format(time.RFC3339),
	}
}
