package guild

import (
	"fmt"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
	"github.com/danielpatrickdp/guild-ecology/internal/feature"
	"github.com/danielpatrickdp/guild-ecology/internal/hilbert"
	"github.com/danielpatrickdp/guild-ecology/internal/observer"
)

// #region types
// Guild is a population of observers sharing one basis and one phase memory.
type Guild struct {
	ID        string
	Basis     hilbert.Basis
	Phase     hilbert.PhaseVec
	Observers []*observer.Observer

	universe *hilbert.Universe
}

// Params are the per-tick refinement knobs.
type Params struct {
	Tau   float64 // entropy cap
	Gamma float64 // collapse tail attenuation
}

// DefaultParams returns τ=1.5, γ=0.2.
func DefaultParams() Params {
	return Params{Tau: 1.5, Gamma: hilbert.DefaultGamma}
}

// Candidate is one observer's finalized action for a tick.
type Candidate struct {
	Observer   *observer.Observer
	Refinement observer.Refinement
}

// Action returns the fused action.
func (c Candidate) Action() action.Code { return c.Refinement.Action }

// State returns the collapsed state the action was measured from.
func (c Candidate) State() hilbert.State { return c.Refinement.Collapsed }

// #endregion types

// #region constructor
// New creates a guild over basis with a zero phase on every basis prime.
func New(id string, u *hilbert.Universe, basis hilbert.Basis, observers []*observer.Observer) *Guild {
	return &Guild{
		ID:        id,
		Basis:     basis.Clone(),
		Phase:     hilbert.NewPhaseVec(basis),
		Observers: observers,
		universe:  u,
	}
}

// Seed creates a guild with count founding observers named <id>-obs<i>.
// strategy builds each observer's strategy.
func Seed(id string, u *hilbert.Universe, basis hilbert.Basis, count int, strategy func(i int) observer.Strategy) *Guild {
	obs := make([]*observer.Observer, count)
	for i := range obs {
		obs[i] = observer.New(fmt.Sprintf("%s-obs%d", id, i), strategy(i))
	}
	return New(id, u, basis, obs)
}

// Universe returns the prime universe the guild embeds over.
func (g *Guild) Universe() *hilbert.Universe { return g.universe }

// #endregion constructor

// #region step
// Step refines one proposal per observer against the guild's current phase.
// It does not touch the phase; Commit does that once the tick's best action
// is known.
func (g *Guild) Step(f feature.Frame, p Params) []Candidate {
	lens := &observer.Lens{
		Universe: g.universe,
		Phase:    g.Phase,
		Basis:    g.Basis,
		Tau:      p.Tau,
		Gamma:    p.Gamma,
	}
	out := make([]Candidate, len(g.Observers))
	for i, o := range g.Observers {
		out[i] = Candidate{Observer: o, Refinement: o.Refine(f, lens)}
	}
	return out
}

// #endregion step

// #region replace
// ReplacePopulation swaps in a new generation. An empty generation leaves the
// current population in place.
func (g *Guild) ReplacePopulation(next []*observer.Observer) bool {
	if len(next) == 0 {
		return false
	}
	g.Observers = next
	return true
}

// SetBasis replaces the basis. Newly added primes start at phase 0. Dropped
// primes keep their phase so it comes back if the prime is swapped in again;
// use Phase.Restrict(Basis) for the live memory.
func (g *Guild) SetBasis(b hilbert.Basis) {
	for _, i := range b {
		if !g.Phase.Present.Has(i) {
			g.Phase.Set(i, 0)
		}
	}
	g.Basis = b.Clone()
}

// #endregion replace
