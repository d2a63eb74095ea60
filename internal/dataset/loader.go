package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ReadTable parses a CSV file into a Table. A UTF-8 byte-order mark on
// the first header is stripped; ragged rows are tolerated and padded at
// access time.
func ReadTable(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read CSV records from %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("empty CSV file: %s", path)
	}

	headers := records[0]
	if len(headers) > 0 {
		headers[0] = strings.TrimPrefix(headers[0], "\uFEFF")
	}

	return &Table{Headers: headers, Rows: records[1:]}, nil
}

// LoadPrices loads and normalizes the price/volume source. Rows with an
// unparseable ticker or date are skipped with a warning; a duplicate
// (ticker, date) pair aborts the load because rolling computations
// downstream assume one row per session. Returned bars are sorted by
// (ticker, date ascending) and carry NaN shares until ResolveShares runs.
func LoadPrices(ctx context.Context, path string, logger *slog.Logger) ([]PriceBar, error) {
	if logger == nil {
		logger = slog.Default()
	}

	table, err := ReadTable(path)
	if err != nil {
		return nil, fmt.Errorf("load price source: %w", err)
	}

	schema, err := ResolveSchema(table.Headers, priceRequired)
	if err != nil {
		return nil, fmt.Errorf("price source %s: %w", path, err)
	}

	seen := make(map[string]struct{}, len(table.Rows))
	bars := make([]PriceBar, 0, len(table.Rows))
	skipped := 0

	for i, row := range table.Rows {
		ticker := strings.ToUpper(strings.TrimSpace(cell(row, schema, ColTicker)))
		if ticker == "" {
			skipped++
			continue
		}

		date, err := ParseDate(cell(row, schema, ColDate))
		if err != nil {
			logger.WarnContext(ctx, "skipping price row with unparseable date",
				"file", path, "line", i+2, "ticker", ticker, "error", err)
			skipped++
			continue
		}

		key := ticker + "|" + date.Format("2006-01-02")
		if _, dup := seen[key]; dup {
			return nil, fmt.Errorf("duplicate (ticker, date) row in %s: %s %s",
				path, ticker, date.Format("2006-01-02"))
		}
		seen[key] = struct{}{}

		bars = append(bars, PriceBar{
			Ticker:   ticker,
			Date:     date,
			Open:     parseNumeric(cell(row, schema, ColOpen)),
			High:     parseNumeric(cell(row, schema, ColHigh)),
			Low:      parseNumeric(cell(row, schema, ColLow)),
			Close:    parseNumeric(cell(row, schema, ColClose)),
			Volume:   parseNumeric(cell(row, schema, ColVolume)),
			Exchange: strings.TrimSpace(cell(row, schema, ColExchange)),
			Year:     date.Year(),
			Shares:   math.NaN(),
		})
	}

	if len(bars) == 0 {
		return nil, fmt.Errorf("no usable price rows in %s", path)
	}

	sort.Slice(bars, func(i, j int) bool {
		if bars[i].Ticker != bars[j].Ticker {
			return bars[i].Ticker < bars[j].Ticker
		}
		return bars[i].Date.Before(bars[j].Date)
	})

	logger.InfoContext(ctx, "price source loaded",
		"file", path,
		"rows_retained", len(bars),
		"rows_skipped", skipped,
	)
	return bars, nil
}

// LoadShares loads the shares-outstanding source. Non-positive share
// counts are treated as missing and excluded here so they never reach
// the turnover division.
func LoadShares(ctx context.Context, path string, logger *slog.Logger) ([]SharesRecord, error) {
	if logger == nil {
		logger = slog.Default()
	}

	table, err := ReadTable(path)
	if err != nil {
		return nil, fmt.Errorf("load shares source: %w", err)
	}

	schema, err := ResolveSchema(table.Headers, sharesRequired)
	if err != nil {
		return nil, fmt.Errorf("shares source %s: %w", path, err)
	}

	records := make([]SharesRecord, 0, len(table.Rows))
	skipped := 0
	for _, row := range table.Rows {
		ticker := strings.ToUpper(strings.TrimSpace(cell(row, schema, ColTicker)))
		year := parseNumeric(cell(row, schema, ColYear))
		shares := parseNumeric(cell(row, schema, ColShares))

		if ticker == "" || math.IsNaN(year) || math.IsNaN(shares) || shares <= 0 {
			skipped++
			continue
		}
		records = append(records, SharesRecord{
			Ticker: ticker,
			Year:   int(year),
			Shares: shares,
		})
	}

	logger.InfoContext(ctx, "shares source loaded",
		"file", path,
		"rows_retained", len(records),
		"rows_skipped", skipped,
	)
	return records, nil
}

// ResolveShares joins shares outstanding onto the price bars by
// (ticker, year). A year with no observation takes the nearest prior
// known year for the same ticker, then the nearest subsequent one.
// Tickers absent from the shares source keep NaN shares and are dropped
// by downstream stages.
func ResolveShares(bars []PriceBar, shares []SharesRecord) []PriceBar {
	byTicker := make(map[string]map[int]float64)
	for _, rec := range shares {
		years, ok := byTicker[rec.Ticker]
		if !ok {
			years = make(map[int]float64)
			byTicker[rec.Ticker] = years
		}
		years[rec.Year] = rec.Shares
	}

	sortedYears := make(map[string][]int, len(byTicker))
	for ticker, years := range byTicker {
		ys := make([]int, 0, len(years))
		for y := range years {
			ys = append(ys, y)
		}
		sort.Ints(ys)
		sortedYears[ticker] = ys
	}

	resolved := make([]PriceBar, len(bars))
	for i, bar := range bars {
		resolved[i] = bar
		years, ok := byTicker[bar.Ticker]
		if !ok {
			continue
		}
		if v, exact := years[bar.Year]; exact {
			resolved[i].Shares = v
			continue
		}

		ys := sortedYears[bar.Ticker]
		prior, next := 0, 0
		havePrior, haveNext := false, false
		for _, y := range ys {
			if y < bar.Year {
				prior, havePrior = y, true
			} else if y > bar.Year && !haveNext {
				next, haveNext = y, true
			}
		}
		switch {
		case havePrior:
			resolved[i].Shares = years[prior]
		case haveNext:
			resolved[i].Shares = years[next]
		}
	}
	return resolved
}

// FilterComplete drops bars lacking close, volume, or resolved shares
// and reports the exclusion count. The exclusion is stage-local data
// quality, never fatal.
func FilterComplete(ctx context.Context, bars []PriceBar, logger *slog.Logger) []PriceBar {
	if logger == nil {
		logger = slog.Default()
	}
	complete := make([]PriceBar, 0, len(bars))
	for _, bar := range bars {
		if bar.HasCore() {
			complete = append(complete, bar)
		}
	}
	logger.InfoContext(ctx, "incomplete price rows excluded",
		"rows_retained", len(complete),
		"rows_excluded", len(bars)-len(complete),
		"reason", "missing close, volume, or shares outstanding",
	)
	return complete
}

// ParseDate parses calendar dates in the formats the upstream exporters
// produce. Time-of-day components are discarded.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	formats := []string{
		"2006-01-02",
		"2006-01-02 15:04:05",
		"2006/01/02",
		"02/01/2006",
		"01/02/2006",
	}
	for _, format := range formats {
		if date, err := time.Parse(format, value); err == nil {
			return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unable to parse date: %q", value)
}

// parseNumeric coerces a source cell into a float64, tolerating
// thousands separators and non-breaking spaces. Unparseable or empty
// cells become NaN, mirroring how absent values flow through features.
func parseNumeric(value string) float64 {
	cleaned := strings.NewReplacer(",", "", " ", "", " ", "").Replace(strings.TrimSpace(value))
	if cleaned == "" {
		return math.NaN()
	}
	parsed, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return math.NaN()
	}
	return parsed
}

func cell(row []string, schema Schema, canonical string) string {
	idx, ok := schema[canonical]
	if !ok || idx >= len(row) {
		return ""
	}
	return row[idx]
}
