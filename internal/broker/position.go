package broker

import (
	"math"
	"time"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
)

// Position is a signed inventory with average entry price.
type Position struct {
	TS         time.Time
	Qty        float64 // positive long, negative short
	AvgPrice   float64
	Realized   float64 // closed P&L net of fees and carrying cost
	Unrealized float64
	Peak       float64 // highest equity seen
	Drawdown   float64 // peak minus current equity
}

// Equity is realized plus unrealized P&L.
func (p Position) Equity() float64 { return p.Realized + p.Unrealized }

// Apply books a fill on side. Reducing the position realizes P&L against the
// average price, and crossing zero re-opens at the fill price.
func (p *Position) Apply(side action.OrderSide, f Fill) {
	q := side.Sign() * f.Qty
	if q == 0 {
		return
	}
	switch {
	case p.Qty == 0 || sameSign(p.Qty, q):
		total := math.Abs(p.Qty) + math.Abs(q)
		p.AvgPrice = (math.Abs(p.Qty)*p.AvgPrice + math.Abs(q)*f.Price) / total
		p.Qty += q
	default:
		closed := math.Min(math.Abs(q), math.Abs(p.Qty))
		dir := math.Copysign(1, p.Qty)
		p.Realized += closed * (f.Price - p.AvgPrice) * dir
		p.Qty += q
		switch {
		case math.Abs(p.Qty) < 1e-12:
			p.Qty = 0
			p.AvgPrice = 0
		case !sameSign(p.Qty, dir):
			p.AvgPrice = f.Price
		}
	}
	p.Realized -= f.Fee
	p.TS = f.TS
}

// Charge deducts a carrying cost from realized P&L.
func (p *Position) Charge(cost float64) { p.Realized -= cost }

// MarkTo revalues the open quantity at px and tracks drawdown.
func (p *Position) MarkTo(px float64, ts time.Time) {
	p.Unrealized = p.Qty * (px - p.AvgPrice)
	if p.Qty == 0 {
		p.Unrealized = 0
	}
	if eq := p.Equity(); eq > p.Peak {
		p.Peak = eq
	}
	p.Drawdown = p.Peak - p.Equity()
	p.TS = ts
}

func sameSign(a, b float64) bool { return (a > 0) == (b > 0) }
