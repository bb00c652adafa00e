package broker

import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
	"github.com/danielpatrickdp/guild-ecology/internal/feature"
)

// InventoryCost is the per-second carrying cost per unit of inventory.
const InventoryCost = 0.1 / 86400

// #region sequencer
// Sequencer hands out order and fill IDs. IDs are monotonic and never reused
// for the lifetime of the sequencer.
type Sequencer struct {
	orders uint64
	fills  uint64
}

// NextOrderID returns o1, o2, ...
func (s *Sequencer) NextOrderID() string {
	s.orders++
	return fmt.Sprintf("o%d", s.orders)
}

// NextFillID returns f1, f2, ...
func (s *Sequencer) NextFillID() string {
	s.fills++
	return fmt.Sprintf("f%d", s.fills)
}

// Counts returns how many order and fill IDs have been issued.
func (s *Sequencer) Counts() (orders, fills uint64) { return s.orders, s.fills }

// #endregion sequencer

// #region paper
// Paper is a simulated venue that fills against the current bar.
type Paper struct {
	config Config
	seq    *Sequencer
	sizes  action.SizeTable
}

// NewPaper creates a paper venue. A nil seq gets a fresh sequencer.
func NewPaper(config Config, seq *Sequencer) *Paper {
	if seq == nil {
		seq = &Sequencer{}
	}
	return &Paper{config: config, seq: seq, sizes: config.Sizes()}
}

// Sequencer returns the venue's ID source.
func (p *Paper) Sequencer() *Sequencer { return p.seq }

// Route turns n into an order and simulates it against bar.
// Market orders take at mid ± half spread ± impact. Post-only and IOC orders
// fill at the near or far touch only if the bar range reaches it.
func (p *Paper) Route(n action.Code, bar feature.Bar) (Execution, error) {
	side := action.SideOf(n)
	if side == action.OrderNone {
		return Execution{}, fmt.Errorf("route %s: %w", n, ErrNoSide)
	}
	d := action.Decode(n)
	if !d.Ord.Valid() {
		return Execution{}, fmt.Errorf("route %s: %w", n, ErrReservedOrder)
	}

	sign := side.Sign()
	qty := action.Quantity(n, p.sizes)
	mid := bar.Mid()
	half := p.spread(bar, mid) / 2

	order := Order{
		ID:     p.seq.NextOrderID(),
		TS:     bar.TS,
		Symbol: p.config.Symbol,
		Price:  mid,
		Qty:    qty,
		Side:   side,
		Type:   d.Ord,
		Action: n,
	}

	exec := Execution{Order: order}
	switch d.Ord {
	case action.OrdMarket:
		exec.Order.TIF = TIFGTC
		impact := p.config.ImpactAlpha * math.Pow(qty, p.config.ImpactBeta)
		exec.Fills = append(exec.Fills, p.fill(order, mid+sign*half+sign*impact, Taker))
	case action.OrdPostOnly:
		exec.Order.TIF = TIFPostOnly
		limit := mid - sign*half
		if (side == action.OrderBuy && bar.Low <= limit) || (side == action.OrderSell && bar.High >= limit) {
			exec.Fills = append(exec.Fills, p.fill(order, limit, Maker))
		}
	case action.OrdIOC:
		exec.Order.TIF = TIFIOC
		touch := mid + sign*half
		if (side == action.OrderBuy && bar.High >= touch) || (side == action.OrderSell && bar.Low <= touch) {
			exec.Fills = append(exec.Fills, p.fill(order, touch, Taker))
		}
	}
	return exec, nil
}

func (p *Paper) spread(bar feature.Bar, mid float64) float64 {
	if bar.Book != nil {
		return bar.Book.Ask - bar.Book.Bid
	}
	return p.config.SpreadBps * 1e-4 * mid
}

func (p *Paper) fill(o Order, px float64, liq Liquidity) Fill {
	return Fill{
		ID:        p.seq.NextFillID(),
		OrderID:   o.ID,
		TS:        o.TS,
		Price:     px,
		Qty:       o.Qty,
		Fee:       p.config.FeeRate * px * o.Qty,
		Liquidity: liq,
	}
}

// #endregion paper

// #region mark
// Mark values exec against the bar close. Slippage is measured per fill
// against the bar mid, positive when the fill was worse than mid. The
// inventory penalty is charged on the position held when the order was routed.
func Mark(exec Execution, bar feature.Bar, inventory float64) Outcome {
	sign := exec.Order.Side.Sign()
	mid := bar.Mid()
	out := Outcome{InventoryPenalty: InventoryPenalty(inventory)}
	for _, f := range exec.Fills {
		out.Fee += f.Fee
		out.PnL += sign * (bar.Close - f.Price) * f.Qty
		out.Slippage += sign * (f.Price - mid)
	}
	return out
}

// InventoryPenalty is the one-second carrying cost of holding qty.
func InventoryPenalty(qty float64) float64 {
	return math.Abs(qty) * InventoryCost
}

// #endregion mark
