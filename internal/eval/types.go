package eval

// #region eval-config
// Config holds the proxy screen thresholds.
type Config struct {
	EdgeThreshold float64 // minimum edge net of impact
	ImpactK       float64 // impact scale, in return units
	ImpactBeta    float64 // impact exponent over relative size
}

// DefaultConfig returns a zero threshold and an impact curve scaled to
// one-second returns.
func DefaultConfig() Config {
	return Config{
		EdgeThreshold: 0,
		ImpactK:       2e-5,
		ImpactBeta:    0.6,
	}
}

// #endregion eval-config

// #region eval-result
// ProxyResult is the pre-trade screen for one action.
type ProxyResult struct {
	Pass   bool
	Edge   float64 // estimated edge, signed toward the action's side
	Impact float64 // estimated cost
	Reason string
}

// Objective is the realized outcome of one evaluation.
type Objective struct {
	PnL              float64
	Fee              float64
	InventoryPenalty float64
	Slippage         float64
}

// #endregion eval-result
