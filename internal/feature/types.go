package feature

import "time"

// #region bar
// Book is an optional top-of-book snapshot attached to a bar.
type Book struct {
	Ask     float64 `json:"ba"`
	Bid     float64 `json:"bb"`
	AskSize float64 `json:"ba_sz,omitempty"`
	BidSize float64 `json:"bb_sz,omitempty"`
}

// Bar is a one-second OHLCV bar, stamped at its close.
type Bar struct {
	TS     time.Time `json:"ts"`
	Open   float64   `json:"o"`
	High   float64   `json:"h"`
	Low    float64   `json:"l"`
	Close  float64   `json:"c"`
	Volume float64   `json:"v"`
	Book   *Book     `json:"ob,omitempty"`
}

// Mid is the open/close midpoint used as the reference price.
func (b Bar) Mid() float64 { return (b.Open + b.Close) / 2 }

// #endregion bar

// #region frame
// Regime is a coarse market state tag.
type Regime string

const (
	RegimeTrend Regime = "trend"
	RegimeChop  Regime = "chop"
	RegimeShock Regime = "shock"
)

// Frame is the per-tick feature vector consumed by observers.
type Frame struct {
	TS     time.Time
	Ret1s  float64 // 1-second log return
	Ret5s  float64 // 5-second log return
	Vol30s float64 // realized volatility over the trailing window
	Regime Regime
	Close  float64
}

// #endregion frame

// #region config
// Config sizes the feature window.
type Config struct {
	Warmup    int // bars buffered before the first frame
	VolWindow int // returns in the realized-vol window
}

// DefaultConfig returns a 60-bar warm-up and a 30-return vol window.
func DefaultConfig() Config {
	return Config{Warmup: 60, VolWindow: 30}
}

// #endregion config
