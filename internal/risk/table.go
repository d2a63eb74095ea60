package risk

import (
	"sort"
	"strings"
	"time"
)

// Table is the materialized risk score table. It is built once and
// never mutated, so all query methods are safe for concurrent use
// without locking.
type Table struct {
	rows []ScoreRow

	// byTicker holds row indices per ticker in ascending date order.
	byTicker map[string][]int
	// byDate holds row indices per date, highest risk first.
	byDate map[time.Time][]int
}

// NewTable indexes scored rows for querying. The input slice is owned by
// the table afterwards.
func NewTable(rows []ScoreRow) *Table {
	t := &Table{
		rows:     rows,
		byTicker: make(map[string][]int),
		byDate:   make(map[time.Time][]int),
	}
	for i, r := range rows {
		t.byTicker[r.Ticker] = append(t.byTicker[r.Ticker], i)
		t.byDate[r.Date] = append(t.byDate[r.Date], i)
	}
	for ticker := range t.byTicker {
		indices := t.byTicker[ticker]
		sort.Slice(indices, func(a, b int) bool {
			return rows[indices[a]].Date.Before(rows[indices[b]].Date)
		})
	}
	for date := range t.byDate {
		indices := t.byDate[date]
		sort.Slice(indices, func(a, b int) bool {
			if rows[indices[a]].Risk != rows[indices[b]].Risk {
				return rows[indices[a]].Risk > rows[indices[b]].Risk
			}
			return rows[indices[a]].Ticker < rows[indices[b]].Ticker
		})
	}
	return t
}

// Len reports the number of score rows held.
func (t *Table) Len() int { return len(t.rows) }

// Score returns the row for the ticker at the given date. A nil date
// selects the most recent row. A date between sessions resolves to the
// most recent session at or before it; a date before all sessions, or an
// unknown ticker, yields ok=false - absence of data is a result, not an
// error.
func (t *Table) Score(ticker string, date *time.Time) (ScoreRow, bool) {
	indices, ok := t.byTicker[normalizeTicker(ticker)]
	if !ok || len(indices) == 0 {
		return ScoreRow{}, false
	}
	if date == nil {
		return t.rows[indices[len(indices)-1]], true
	}

	// First index strictly after the requested date; the answer is the
	// row just before it.
	pos := sort.Search(len(indices), func(i int) bool {
		return t.rows[indices[i]].Date.After(*date)
	})
	if pos == 0 {
		return ScoreRow{}, false
	}
	return t.rows[indices[pos-1]], true
}

// HasTicker reports whether the table holds any row for the ticker.
func (t *Table) HasTicker(ticker string) bool {
	return len(t.byTicker[normalizeTicker(ticker)]) > 0
}

// History returns up to the last days rows for the ticker in ascending
// date order. An unknown ticker yields an empty slice.
func (t *Table) History(ticker string, days int) []ScoreRow {
	indices := t.byTicker[normalizeTicker(ticker)]
	if days <= 0 || len(indices) == 0 {
		return nil
	}
	if days < len(indices) {
		indices = indices[len(indices)-days:]
	}
	out := make([]ScoreRow, len(indices))
	for i, idx := range indices {
		out[i] = t.rows[idx]
	}
	return out
}

// Top returns the k highest-risk rows for exactly the given date,
// descending by risk. There is no nearest-date fallback: a date with no
// rows yields an empty slice.
func (t *Table) Top(date time.Time, k int) []ScoreRow {
	indices := t.byDate[date]
	if k <= 0 || len(indices) == 0 {
		return nil
	}
	if k < len(indices) {
		indices = indices[:k]
	}
	out := make([]ScoreRow, len(indices))
	for i, idx := range indices {
		out[i] = t.rows[idx]
	}
	return out
}

// LatestDate returns the most recent date carrying scores. ok is false
// when the table is empty.
func (t *Table) LatestDate() (time.Time, bool) {
	var latest time.Time
	for date := range t.byDate {
		if date.After(latest) {
			latest = date
		}
	}
	return latest, !latest.IsZero()
}

// normalizeTicker applies the same uppercase-and-trim rule the loader
// applies, so lookups match regardless of caller formatting.
func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}
