package guild

import (
	"math"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
	"github.com/danielpatrickdp/guild-ecology/internal/hilbert"
)

// DefaultAlpha is the phase smoothing constant.
const DefaultAlpha = 0.15

// #region residues
// Residues returns (n mod p)/p for every prime in basis.
func Residues(n action.Code, u *hilbert.Universe, basis hilbert.Basis) hilbert.PhaseVec {
	var r hilbert.PhaseVec
	for _, i := range basis {
		p := uint32(u.Prime(i))
		r.Set(i, float64(uint32(n)%p)/float64(p))
	}
	return r
}

// #endregion residues

// #region ema
// EMAPhaseUpdate blends res into phi for every prime present in res:
// φ'[p] = (1−α)·φ[p] + α·(res[p] mod 1). Other entries are copied.
func EMAPhaseUpdate(phi, res hilbert.PhaseVec, alpha float64) hilbert.PhaseVec {
	out := phi
	for _, i := range res.Positions() {
		out.Set(i, (1-alpha)*phi.At(i)+alpha*math.Mod(res.Phase[i], 1))
	}
	return out
}

// #endregion ema

// #region commit
// PhaseUpdate reports what Commit changed.
type PhaseUpdate struct {
	Action    action.Code
	DeltaNorm float64 // L2 norm of the phase change
}

// Commit folds the tick's best action into the shared phase memory. It is the
// only writer of g.Phase.
func (g *Guild) Commit(best action.Code, alpha float64) PhaseUpdate {
	old := g.Phase
	g.Phase = EMAPhaseUpdate(old, Residues(best, g.universe, g.Basis), alpha)

	var sumSq float64
	for _, i := range g.Phase.Positions() {
		d := g.Phase.At(i) - old.At(i)
		sumSq += d * d
	}
	return PhaseUpdate{Action: best, DeltaNorm: math.Sqrt(sumSq)}
}

// #endregion commit
