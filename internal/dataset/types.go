package dataset

import (
	"math"
	"time"
)

// PriceBar is one trading session for a ticker after normalization.
// Numeric fields use NaN to represent values absent from the source row.
type PriceBar struct {
	Ticker   string    `json:"ticker"`
	Date     time.Time `json:"date"`
	Open     float64   `json:"open"`
	High     float64   `json:"high"`
	Low      float64   `json:"low"`
	Close    float64   `json:"close"`
	Volume   float64   `json:"volume"`
	Exchange string    `json:"exchange,omitempty"`

	// Year is derived from Date and used to join shares outstanding.
	Year int `json:"year"`

	// Shares is populated by ResolveShares; NaN until resolved.
	Shares float64 `json:"shares_outstanding"`
}

// HasCore reports whether the bar carries the fields every feature
// computation needs. Rows failing this are dropped before feature
// construction.
func (b PriceBar) HasCore() bool {
	return !math.IsNaN(b.Close) && !math.IsNaN(b.Volume) && !math.IsNaN(b.Shares)
}

// SharesRecord is one shares-outstanding observation for a ticker-year.
type SharesRecord struct {
	Ticker string  `json:"ticker"`
	Year   int     `json:"year"`
	Shares float64 `json:"shares_outstanding"`
}

// Table is a parsed CSV file: the header row plus all data rows as raw
// strings. Column resolution and numeric coercion happen on top of it.
type Table struct {
	Headers []string
	Rows    [][]string
}
