package fundamentals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/LeLongFintech/GULLIVER/internal/dataset"
)

// Statement file names expected in the data directory.
const (
	balanceSheetFile      = "Balance_sheet.csv"
	incomeStatementFile   = "Income_statement.csv"
	cashFlowFile          = "Cash_flow.csv"
	indicatorsFile        = "Indicators.csv"
	averageIndicatorsFile = "Average_indicators.csv" // optional
)

// ErrUnknownSymbol is returned when the indicators source has no rows
// for the requested ticker.
var ErrUnknownSymbol = errors.New("no fundamentals data for symbol")

// symbolCandidates locate the ticker column in any statement file.
var symbolCandidates = []string{"symbol", "ma", "mã", "ticker", "code"}

// Metrics groups the extracted ratios the way the analysis prompt
// presents them.
type Metrics struct {
	Valuation       Valuation       `json:"valuation"`
	Growth          Growth          `json:"growth"`
	Performance     Performance     `json:"performance"`
	FinancialHealth FinancialHealth `json:"financial_health"`
	Dividend        Dividend        `json:"dividend"`
}

// Valuation compares the ticker's multiples against its industry.
type Valuation struct {
	PERatio    float64 `json:"pe_ratio"`
	PBRatio    float64 `json:"pb_ratio"`
	IndustryPE float64 `json:"industry_pe"`
	IndustryPB float64 `json:"industry_pb"`
}

// Growth holds year-over-year growth rates in percent.
type Growth struct {
	RevenueGrowth float64 `json:"revenue_growth"`
	EPSGrowth     float64 `json:"eps_growth"`
}

// Performance holds profitability ratios.
type Performance struct {
	ROE          float64 `json:"roe"`
	ROA          float64 `json:"roa"`
	ProfitMargin float64 `json:"profit_margin"`
}

// FinancialHealth holds leverage and liquidity ratios.
type FinancialHealth struct {
	DebtToEquity float64 `json:"debt_to_equity"`
	CurrentRatio float64 `json:"current_ratio"`
}

// Dividend holds payout ratios.
type Dividend struct {
	DividendYield float64 `json:"dividend_yield"`
	PayoutRatio   float64 `json:"payout_ratio"`
}

// Analyzer answers fundamentals queries from statement CSVs loaded once
// at construction.
type Analyzer struct {
	logger *slog.Logger

	balanceSheet      *dataset.Table
	incomeStatement   *dataset.Table
	cashFlow          *dataset.Table
	indicators        *dataset.Table
	averageIndicators *dataset.Table // nil when the optional file is absent
}

// NewAnalyzer loads the statement files from dataDir. The averages file
// is optional; every other file missing is a fatal construction error
// naming the file.
func NewAnalyzer(ctx context.Context, dataDir string, logger *slog.Logger) (*Analyzer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "fundamentals"))

	a := &Analyzer{logger: logger}
	required := []struct {
		name string
		dst  **dataset.Table
	}{
		{balanceSheetFile, &a.balanceSheet},
		{incomeStatementFile, &a.incomeStatement},
		{cashFlowFile, &a.cashFlow},
		{indicatorsFile, &a.indicators},
	}
	for _, src := range required {
		table, err := dataset.ReadTable(filepath.Join(dataDir, src.name))
		if err != nil {
			return nil, fmt.Errorf("load fundamentals source %s: %w", src.name, err)
		}
		*src.dst = table
	}

	avgPath := filepath.Join(dataDir, averageIndicatorsFile)
	if _, err := os.Stat(avgPath); err == nil {
		table, err := dataset.ReadTable(avgPath)
		if err != nil {
			return nil, fmt.Errorf("load fundamentals source %s: %w", averageIndicatorsFile, err)
		}
		a.averageIndicators = table
	} else {
		logger.InfoContext(ctx, "industry averages file absent, industry comparisons disabled",
			"file", averageIndicatorsFile)
	}

	logger.InfoContext(ctx, "fundamentals sources loaded",
		"indicator_rows", len(a.indicators.Rows),
		"income_rows", len(a.incomeStatement.Rows),
	)
	return a, nil
}

// Metrics extracts all metric groups for the symbol.
func (a *Analyzer) Metrics(symbol string) (Metrics, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Metrics{}, fmt.Errorf("symbol is empty")
	}

	indicatorRow, ok := a.latestRowFor(a.indicators, symbol)
	if !ok {
		return Metrics{}, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}

	return Metrics{
		Valuation:       a.valuation(indicatorRow),
		Growth:          a.growth(symbol),
		Performance:     a.performance(indicatorRow),
		FinancialHealth: a.financialHealth(symbol, indicatorRow),
		Dividend:        a.dividend(indicatorRow),
	}, nil
}

func (a *Analyzer) valuation(row []string) Valuation {
	v := Valuation{
		PERatio: a.number(a.indicators, row, []string{"p/e", "pe", "price to earnings", "pe_ratio"}),
		PBRatio: a.number(a.indicators, row, []string{"p/b", "pb", "price to book", "pb_ratio"}),
	}

	if a.averageIndicators == nil {
		return v
	}
	sector := a.text(a.indicators, row, []string{"sector", "industry", "nganh", "ngành"})
	if sector == "" {
		return v
	}
	avgRow, ok := a.latestRowWhere(a.averageIndicators,
		[]string{"sector", "industry", "nganh", "ngành"}, sector)
	if !ok {
		return v
	}
	v.IndustryPE = a.number(a.averageIndicators, avgRow, []string{"average p/e", "avg p/e", "p/e"})
	v.IndustryPB = a.number(a.averageIndicators, avgRow, []string{"average p/b", "avg p/b", "p/b"})
	return v
}

func (a *Analyzer) growth(symbol string) Growth {
	rows := a.rowsFor(a.incomeStatement, symbol)
	if len(rows) == 0 {
		return Growth{}
	}
	return Growth{
		RevenueGrowth: a.growthRate(a.incomeStatement, rows,
			[]string{"revenue", "doanh thu thuần", "doanh thu", "net revenue"}),
		EPSGrowth: a.growthRate(a.incomeStatement, rows,
			[]string{"eps", "earnings per share", "lãi cơ bản trên cổ phiếu"}),
	}
}

func (a *Analyzer) performance(row []string) Performance {
	return Performance{
		ROE:          a.number(a.indicators, row, []string{"roe", "return on equity"}),
		ROA:          a.number(a.indicators, row, []string{"roa", "return on assets"}),
		ProfitMargin: a.number(a.indicators, row, []string{"profit margin", "margin"}),
	}
}

func (a *Analyzer) financialHealth(symbol string, indicatorRow []string) FinancialHealth {
	dteCandidates := []string{"debt to equity", "debt/equity", "debt_equity", "nợ/vốn", "d/e"}
	crCandidates := []string{"current ratio", "current_ratio", "khả năng thanh toán", "thanh khoản hiện hành", "liquidity"}

	fh := FinancialHealth{
		DebtToEquity: a.number(a.indicators, indicatorRow, dteCandidates),
		CurrentRatio: a.number(a.indicators, indicatorRow, crCandidates),
	}
	if fh.DebtToEquity != 0 || fh.CurrentRatio != 0 {
		return fh
	}

	// The indicators export sometimes lacks the ratios; fall back to the
	// balance sheet.
	row, ok := a.latestRowFor(a.balanceSheet, symbol)
	if !ok {
		return fh
	}
	return FinancialHealth{
		DebtToEquity: a.number(a.balanceSheet, row, dteCandidates),
		CurrentRatio: a.number(a.balanceSheet, row, crCandidates),
	}
}

func (a *Analyzer) dividend(row []string) Dividend {
	return Dividend{
		DividendYield: a.number(a.indicators, row, []string{"dividend yield", "yield", "dividend"}),
		PayoutRatio:   a.number(a.indicators, row, []string{"payout ratio", "payout_ratio", "payout"}),
	}
}

// growthRate computes the year-over-year growth, in percent, between
// the last two rows of the located column.
func (a *Analyzer) growthRate(table *dataset.Table, rows [][]string, candidates []string) float64 {
	idx, ok := dataset.FindColumn(table.Headers, candidates)
	if !ok || len(rows) < 2 {
		return 0
	}
	latest := ParseNumber(valueAt(rows[len(rows)-1], idx))
	previous := ParseNumber(valueAt(rows[len(rows)-2], idx))
	if previous == 0 {
		return 0
	}
	rate := (latest - previous) / math.Abs(previous) * 100
	if math.IsNaN(rate) || math.IsInf(rate, 0) {
		return 0
	}
	return rate
}

// rowsFor returns all rows of the table matching the symbol, in file
// order.
func (a *Analyzer) rowsFor(table *dataset.Table, symbol string) [][]string {
	idx, ok := dataset.FindColumn(table.Headers, symbolCandidates)
	if !ok {
		return nil
	}
	var rows [][]string
	for _, row := range table.Rows {
		if strings.ToUpper(strings.TrimSpace(valueAt(row, idx))) == symbol {
			rows = append(rows, row)
		}
	}
	return rows
}

// latestRowFor returns the last row matching the symbol.
func (a *Analyzer) latestRowFor(table *dataset.Table, symbol string) ([]string, bool) {
	rows := a.rowsFor(table, symbol)
	if len(rows) == 0 {
		return nil, false
	}
	return rows[len(rows)-1], true
}

// latestRowWhere returns the last row whose located column equals value,
// case-insensitively.
func (a *Analyzer) latestRowWhere(table *dataset.Table, candidates []string, value string) ([]string, bool) {
	idx, ok := dataset.FindColumn(table.Headers, candidates)
	if !ok {
		return nil, false
	}
	want := strings.ToLower(strings.TrimSpace(value))
	var found []string
	for _, row := range table.Rows {
		if strings.ToLower(strings.TrimSpace(valueAt(row, idx))) == want {
			found = row
		}
	}
	return found, found != nil
}

// number resolves a column by candidates and parses the row's value.
func (a *Analyzer) number(table *dataset.Table, row []string, candidates []string) float64 {
	idx, ok := dataset.FindColumn(table.Headers, candidates)
	if !ok {
		return 0
	}
	return ParseNumber(valueAt(row, idx))
}

// text resolves a column by candidates and returns the trimmed value.
func (a *Analyzer) text(table *dataset.Table, row []string, candidates []string) string {
	idx, ok := dataset.FindColumn(table.Headers, candidates)
	if !ok {
		return ""
	}
	return strings.TrimSpace(valueAt(row, idx))
}

func valueAt(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
