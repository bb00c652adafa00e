package eval

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
	"github.com/danielpatrickdp/guild-ecology/internal/feature"
)

// #region eval-harness
// Harness screens actions before they reach the broker and packages the
// realized objective afterwards.
type Harness struct {
	config Config
}

// NewHarness creates a harness with the given configuration.
func NewHarness(config Config) *Harness {
	return &Harness{config: config}
}

// Proxy estimates edge from the frame and impact from the size bucket. The
// edge is signed by the action's side, so a short only passes on a falling
// edge; flat and hold never pass.
func (h *Harness) Proxy(n action.Code, f feature.Frame) ProxyResult {
	side := action.SideOf(n)
	edge := side.Sign() * Edge(f)
	d := action.Decode(n)
	qtyRel := float64(d.SizeBucket+1) / 8
	impact := h.config.ImpactK * math.Pow(qtyRel, h.config.ImpactBeta)

	res := ProxyResult{Edge: edge, Impact: impact}
	switch {
	case side == action.OrderNone:
		res.Reason = fmt.Sprintf("no execution side (%s)", d.Side)
	case edge-impact <= h.config.EdgeThreshold:
		res.Reason = fmt.Sprintf("edge %.3g net of impact %.3g below threshold %.3g", edge, impact, h.config.EdgeThreshold)
	default:
		res.Pass = true
		res.Reason = "proxy passed"
	}
	return res
}

// Objective packages an evaluation's realized outcome.
func (h *Harness) Objective(pnl, fee, inventoryPenalty, slippage float64) Objective {
	return Objective{PnL: pnl, Fee: fee, InventoryPenalty: inventoryPenalty, Slippage: slippage}
}

// #endregion eval-harness

// #region helpers
// Edge is the crude unsigned micro-alpha estimate 5·ret1 + 2·ret5 − 3·vol.
func Edge(f feature.Frame) float64 {
	return 5*f.Ret1s + 2*f.Ret5s - 3*f.Vol30s
}

// #endregion helpers
