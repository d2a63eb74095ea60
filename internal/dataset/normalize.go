package dataset

import (
	"fmt"
	"strings"
)

// Canonical column names produced by normalization.
const (
	ColTicker   = "ticker"
	ColDate     = "date"
	ColOpen     = "open"
	ColHigh     = "high"
	ColLow      = "low"
	ColClose    = "close"
	ColVolume   = "volume"
	ColExchange = "exchange"
	ColYear     = "year"
	ColShares   = "shares_outstanding"
)

// columnAliases maps each canonical column to its known source headers,
// in resolution priority order. The localized entries come from the
// Vietnamese market-data exporters this system was first built against.
var columnAliases = map[string][]string{
	ColTicker:   {"ticker", "mã", "ma", "symbol", "code"},
	ColDate:     {"date", "ngày", "ngay", "trading_date"},
	ColOpen:     {"open", "giá mở", "gia mo"},
	ColHigh:     {"high", "cao nhất", "cao nhat"},
	ColLow:      {"low", "thấp nhất", "thap nhat"},
	ColClose:    {"close", "đóng cửa", "dong cua"},
	ColVolume:   {"volume", "khối lượng", "khoi luong", "vol"},
	ColExchange: {"exchange", "sàn", "san"},
	ColYear:     {"year", "năm", "nam"},
	ColShares:   {"shares_outstanding", "shares outstanding", "số lượng cổ phiếu"},
}

// priceRequired are the canonical columns the price source must resolve.
var priceRequired = []string{ColTicker, ColDate, ColClose, ColVolume}

// sharesRequired are the canonical columns the shares source must resolve.
var sharesRequired = []string{ColTicker, ColYear, ColShares}

// Resolution records the outcome of resolving one canonical column
// against a header row, including every candidate alias tried. Keeping
// the trail makes "why didn't my file load" questions answerable.
type Resolution struct {
	Canonical string   `json:"canonical"`
	Header    string   `json:"header,omitempty"`
	Index     int      `json:"index"`
	Tried     []string `json:"tried"`
}

// Found reports whether a source header was resolved.
func (r Resolution) Found() bool { return r.Index >= 0 }

// ResolveColumn resolves one canonical column against the header row.
// Matching is case-insensitive: an exact match against the alias list is
// tried first (in listed order), then substring containment.
func ResolveColumn(headers []string, canonical string) Resolution {
	res := Resolution{Canonical: canonical, Index: -1}
	aliases, ok := columnAliases[canonical]
	if !ok {
		return res
	}
	res.Tried = aliases

	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}

	for _, alias := range aliases {
		for i, h := range lowered {
			if h == alias {
				res.Header = headers[i]
				res.Index = i
				return res
			}
		}
	}
	for _, alias := range aliases {
		for i, h := range lowered {
			if strings.Contains(h, alias) {
				res.Header = headers[i]
				res.Index = i
				return res
			}
		}
	}
	return res
}

// Schema maps canonical column names to indices in a source table.
type Schema map[string]int

// ResolveSchema resolves every canonical column this package knows about
// against the header row and verifies that the required set is present.
// Optional columns that fail to resolve are simply absent from the
// returned schema.
func ResolveSchema(headers []string, required []string) (Schema, error) {
	schema := make(Schema)
	for canonical := range columnAliases {
		if res := ResolveColumn(headers, canonical); res.Found() {
			schema[canonical] = res.Index
		}
	}

	var missing []string
	for _, col := range required {
		if _, ok := schema[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("required columns not found after normalization: %s (headers: %s)",
			strings.Join(missing, ", "), strings.Join(headers, ", "))
	}
	return schema, nil
}

// FindColumn locates a column by an ordered candidate list without going
// through the canonical alias table. Used by the fundamentals analyzer,
// whose statement files carry free-form ratio columns. Matching policy is
// the same as ResolveColumn: exact first, then containment.
func FindColumn(headers []string, candidates []string) (int, bool) {
	lowered := make([]string, len(headers))
	for i, h := range headers {
		lowered[i] = strings.ToLower(strings.TrimSpace(h))
	}
	for _, cand := range candidates {
		lc := strings.ToLower(cand)
		for i, h := range lowered {
			if h == lc {
				return i, true
			}
		}
		for i, h := range lowered {
			if strings.Contains(h, lc) {
				return i, true
			}
		}
	}
	return -1, false
}
