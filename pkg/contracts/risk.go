// Package contracts defines the response shapes the GULLIVER API
// exposes to clients. They mirror the engine's score table without
// leaking its internals.
package contracts

// ScoreContext carries the market context of a score row.
type ScoreContext struct {
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
	Turnover float64 `json:"turnover"`
	MktCap   float64 `json:"mkt_cap"`
}

// ScoreResponse answers a point-in-time score lookup. When no data
// exists for the requested ticker/date, Message is set and the remaining
// fields are zero - absence of data is a result, not an error.
type ScoreResponse struct {
	Ticker  string        `json:"ticker"`
	Date    string        `json:"date,omitempty"`
	Risk    *float64      `json:"risk_0_10,omitempty"`
	Alert   bool          `json:"alert,omitempty"`
	Context *ScoreContext `json:"context,omitempty"`
	Message string        `json:"message,omitempty"`
}

// HistoryPoint is one session in a risk history.
type HistoryPoint struct {
	Date string  `json:"date"`
	Risk float64 `json:"risk_0_10"`
}

// HistoryResponse answers a time-bounded history request. History is
// empty (never null) for unknown tickers.
type HistoryResponse struct {
	Ticker  string         `json:"ticker"`
	History []HistoryPoint `json:"history"`
}

// TopEntry is one row of a top-k ranking.
type TopEntry struct {
	Ticker string  `json:"ticker"`
	Risk   float64 `json:"risk_0_10"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// TopResponse answers a top-k-per-day request. Top is empty (never
// null) when the date has no rows.
type TopResponse struct {
	Date string     `json:"date"`
	Top  []TopEntry `json:"top"`
}

// DiagnoseRequest asks for a fundamentals diagnosis of one symbol.
type DiagnoseRequest struct {
	Symbol string `json:"symbol" validate:"required,min=2,max=10"`
}

// DiagnoseResponse carries the extracted metrics and the analysis
// prompt assembled for the external language model.
type DiagnoseResponse struct {
	Symbol  string      `json:"symbol"`
	Metrics interface{} `json:"metrics"`
	Prompt  string      `json:"prompt"`
}

// HealthResponse reports engine readiness.
type HealthResponse struct {
	Status    string `json:"status"`
	ScoreRows int    `json:"score_rows"`
	BuiltAt   string `json:"built_at"`
}
