package risk

// #region veto-type
// VetoType enumerates hard veto categories.
type VetoType string

const (
	VetoInventory VetoType = "inventory_cap"
	VetoNotional  VetoType = "notional_cap"
	VetoShock     VetoType = "shock_regime"
	VetoLossFloor VetoType = "loss_floor"
)

// #endregion veto-type

// #region veto
// Veto is one tripped limit.
type Veto struct {
	Type   VetoType
	Reason string
}

// #endregion veto

// #region limits
// Limits holds the hard caps applied before routing.
type Limits struct {
	MaxNotional  float64 // quote currency
	MaxInventory float64 // absolute units after the trade
	LossFloor    float64 // reject once equity falls below this
	UnitSize     float64 // units per size step
}

// DefaultLimits returns 1000 notional, 0.03 inventory, a −25 loss floor and a
// 0.002 unit.
func DefaultLimits() Limits {
	return Limits{
		MaxNotional:  1000,
		MaxInventory: 0.03,
		LossFloor:    -25,
		UnitSize:     0.002,
	}
}

// #endregion limits

// #region decision
// Decision is the gate's verdict on one action.
type Decision struct {
	Action string // "accept" | "reject"
	Reason string
	Vetoed bool
	Vetoes []Veto // non-empty if vetoed
}

// #endregion decision
