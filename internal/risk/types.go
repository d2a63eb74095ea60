package risk

import (
	"math"
	"time"
)

// Tunables for feature construction and labeling. The label thresholds
// define the weak supervision rule and are deliberately not configurable:
// changing them silently changes what "risk" means.
const (
	// VolZWindow is the rolling window for the volume z-score.
	VolZWindow = 20

	// LabelVolZThreshold and LabelRangeThreshold define the weak label:
	// a session is flagged when the volume z-score spikes above the
	// former while the relative range stays below the latter.
	LabelVolZThreshold  = 2.0
	LabelRangeThreshold = 0.01

	// turnoverRatioEpsilon keeps the turnover/volatility ratio finite
	// when the volume z-score is near zero.
	turnoverRatioEpsilon = 1e-6
)

// rollWindows are the rolling-mean windows for behavior aggregates.
var rollWindows = [...]int{3, 5, 10}

// Row is one (ticker, date) observation with every engineered feature.
// Missing values are NaN; consumers of each stage exclude non-finite
// values locally rather than dropping the row globally.
type Row struct {
	Ticker   string
	Date     time.Time
	Exchange string

	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
	Shares float64

	// Return features.
	Ret1D float64
	Ret3D float64
	Ret5D float64

	// Structural features.
	RangeRel float64 // (high-low) relative to prior close
	CloseLoc float64 // close position within the day's range, [-0.5, 0.5]
	GapOpen  float64 // open gap versus prior close

	// Volume anomaly.
	VolZ20 float64

	// Liquidity scale.
	Turnover float64 // volume / shares outstanding
	MktCap   float64 // close * shares outstanding

	// Rolling behavior aggregates, means over 3/5/10 sessions.
	Turnover3D  float64
	Turnover5D  float64
	Turnover10D float64
	VolZ3D      float64
	VolZ5D      float64
	VolZ10D     float64
	Range3D     float64
	Range5D     float64
	Range10D    float64
	CloseLoc3D  float64
	CloseLoc5D  float64
	CloseLoc10D float64

	// Cross-sectional percentile ranks within the trading day.
	TurnoverPct float64
	MktCapPct   float64

	// Extra behavior features.
	VolChange5D      float64 // 5-day volume growth ratio
	TurnoverVolRatio float64 // turnover / (|vol z-score| + eps)
	AbsRet5D         float64
	Volatility10D    float64 // 10-day rolling std of 1-day return
	PriceSlope5D     float64 // (close - close 5 sessions ago) / 5

	// Label is the weak supervision target (1 = manipulation-like).
	Label int
}

// BehaviorFeatureNames lists the model inputs in vector order. The rule
// features behind the weak label (1-day return, volume z-score, open
// gap) are deliberately absent.
var BehaviorFeatureNames = []string{
	"ret_3d", "ret_5d",
	"range_rel", "close_loc",
	"turnover_3d", "volz_3d", "range_3d", "close_loc_3d",
	"turnover_5d", "volz_5d", "range_5d", "close_loc_5d",
	"turnover_10d", "volz_10d", "range_10d", "close_loc_10d",
	"turnover_pct", "mkt_cap_pct",
	"vol_change_5d", "turnover_vol_ratio", "abs_ret_5d",
	"volatility_10d", "price_slope_5d",
}

// BehaviorVector extracts the model input vector for the row. ok is
// false when any component is NaN or infinite, in which case the row is
// excluded from training and scoring.
func (r Row) BehaviorVector() (vec []float64, ok bool) {
	vec = []float64{
		r.Ret3D, r.Ret5D,
		r.RangeRel, r.CloseLoc,
		r.Turnover3D, r.VolZ3D, r.Range3D, r.CloseLoc3D,
		r.Turnover5D, r.VolZ5D, r.Range5D, r.CloseLoc5D,
		r.Turnover10D, r.VolZ10D, r.Range10D, r.CloseLoc10D,
		r.TurnoverPct, r.MktCapPct,
		r.VolChange5D, r.TurnoverVolRatio, r.AbsRet5D,
		r.Volatility10D, r.PriceSlope5D,
	}
	for _, v := range vec {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return vec, false
		}
	}
	return vec, true
}

// ScoreRow is one published risk observation. Rows are immutable once
// the engine is built.
type ScoreRow struct {
	Ticker   string    `json:"ticker"`
	Date     time.Time `json:"date"`
	Exchange string    `json:"exchange,omitempty"`

	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
	Turnover float64 `json:"turnover"`
	MktCap   float64 `json:"mkt_cap"`

	RiskRaw float64 `json:"risk_raw"`      // classifier probability of the weak label
	RiskPct float64 `json:"risk_pct_daily"` // percentile rank of RiskRaw within the day
	Risk    float64 `json:"risk_0_10"`     // published score, one decimal, in [0, 10]
}
