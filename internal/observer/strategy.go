package observer

import (
	"math"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
	"github.com/danielpatrickdp/guild-ecology/internal/feature"
)

// #region strategy
// Strategy proposes a raw action from one feature frame. Implementations
// must be pure: the refinement pipeline assumes the same frame yields the
// same proposal.
type Strategy interface {
	Propose(f feature.Frame) action.Code
}

// StrategyFunc adapts a plain function to Strategy.
type StrategyFunc func(f feature.Frame) action.Code

// Propose calls fn(f).
func (fn StrategyFunc) Propose(f feature.Frame) action.Code { return fn(f) }

// #endregion strategy

// #region linear
// LinearStrategy maps a linear edge over short-horizon returns and volatility
// to a side and a size bucket. Order type, TIF and bracket are fixed.
type LinearStrategy struct {
	Ret1Weight float64
	Ret5Weight float64
	VolWeight  float64
	Deadband   float64 // |edge| below this proposes flat
	SizeScale  float64 // |edge|·SizeScale floors to the size bucket
	TIF        uint8
	Bracket    uint8
}

// DefaultLinearStrategy returns edge = 5·ret1 + 2·ret5 − 3·vol with a 5e-5
// dead band.
func DefaultLinearStrategy() LinearStrategy {
	return LinearStrategy{
		Ret1Weight: 5,
		Ret5Weight: 2,
		VolWeight:  3,
		Deadband:   0.00005,
		SizeScale:  1e5,
		TIF:        1,
		Bracket:    3,
	}
}

// Edge is the strategy's directional score for f.
func (s LinearStrategy) Edge(f feature.Frame) float64 {
	return s.Ret1Weight*f.Ret1s + s.Ret5Weight*f.Ret5s - s.VolWeight*f.Vol30s
}

// Propose implements Strategy. Market orders in a trend, post-only otherwise.
func (s LinearStrategy) Propose(f feature.Frame) action.Code {
	edge := s.Edge(f)

	side := action.SideFlat
	switch {
	case edge > s.Deadband:
		side = action.SideLong
	case edge < -s.Deadband:
		side = action.SideShort
	}

	size := math.Floor(math.Abs(edge) * s.SizeScale)
	size = math.Min(7, math.Max(0, size))

	ord := action.OrdPostOnly
	if f.Regime == feature.RegimeTrend {
		ord = action.OrdMarket
	}

	return action.Encode(action.Fields{
		Side:       side,
		SizeBucket: uint8(size),
		Ord:        ord,
		TIF:        s.TIF,
		Bracket:    s.Bracket,
	})
}

// #endregion linear
