package risk

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
	"github.com/danielpatrickdp/guild-ecology/internal/broker"
	"github.com/danielpatrickdp/guild-ecology/internal/feature"
)

// #region gate
// Gate vetoes actions that would breach a hard limit.
type Gate struct {
	limits Limits
	sizes  action.SizeTable
}

// NewGate creates a gate. Order quantity follows the broker's bucket table so
// the gate sizes exactly what would be routed.
func NewGate(limits Limits) *Gate {
	return &Gate{
		limits: limits,
		sizes:  broker.Config{UnitSize: limits.UnitSize}.Sizes(),
	}
}

// Limits returns the configured caps.
func (g *Gate) Limits() Limits { return g.limits }

// Precheck runs every hard veto against n given the current position and
// frame. All tripped vetoes are reported; any one rejects.
func (g *Gate) Precheck(n action.Code, pos broker.Position, f feature.Frame) Decision {
	var vetoes []Veto

	qty := action.Quantity(n, g.sizes)
	side := action.SideOf(n)

	// 1. Inventory after the trade
	after := pos.Qty + side.Sign()*qty
	if math.Abs(after) > g.limits.MaxInventory {
		vetoes = append(vetoes, Veto{
			Type:   VetoInventory,
			Reason: fmt.Sprintf("inventory %.4f exceeds cap %.4f", after, g.limits.MaxInventory),
		})
	}

	// 2. Order notional, priced at entry or the last close when flat
	px := pos.AvgPrice
	if px == 0 {
		px = f.Close
	}
	if notional := qty * px; notional > g.limits.MaxNotional {
		vetoes = append(vetoes, Veto{
			Type:   VetoNotional,
			Reason: fmt.Sprintf("notional %.2f exceeds cap %.2f", notional, g.limits.MaxNotional),
		})
	}

	// 3. Shock regime
	if f.Regime == feature.RegimeShock {
		vetoes = append(vetoes, Veto{
			Type:   VetoShock,
			Reason: "shock regime",
		})
	}

	// 4. Loss floor
	if eq := pos.Equity(); eq < g.limits.LossFloor {
		vetoes = append(vetoes, Veto{
			Type:   VetoLossFloor,
			Reason: fmt.Sprintf("equity %.2f below floor %.2f", eq, g.limits.LossFloor),
		})
	}

	if len(vetoes) > 0 {
		return Decision{
			Action: "reject",
			Reason: fmt.Sprintf("hard veto: %s", vetoes[0].Reason),
			Vetoed: true,
			Vetoes: vetoes,
		}
	}
	return Decision{Action: "accept", Reason: "within limits"}
}

// #endregion gate
