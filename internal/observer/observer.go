package observer

import (
	"github.com/danielpatrickdp/guild-ecology/internal/action"
	"github.com/danielpatrickdp/guild-ecology/internal/feature"
	"github.com/danielpatrickdp/guild-ecology/internal/hilbert"
)

// #region types
// GenomeLen is the length of an observer's mutation payload.
const GenomeLen = 8

// Genome is the numeric payload evolution mutates. The capability methods
// never read it.
type Genome [GenomeLen]int32

// Observer is one agent in a guild: an identity, a proposal strategy and a
// genome.
type Observer struct {
	ID         string
	Lineage    string // root ID of the founding observer
	Generation int
	Strategy   Strategy
	Genome     Genome
}

// New creates a founding observer.
func New(id string, s Strategy) *Observer {
	return &Observer{ID: id, Lineage: id, Strategy: s}
}

// Lens is the guild context an observer refines a proposal through.
type Lens struct {
	Universe *hilbert.Universe
	Phase    hilbert.PhaseVec
	Basis    hilbert.Basis
	Tau      float64 // entropy cap
	Gamma    float64 // tail attenuation
}

// Refinement records every stage of one pass through the pipeline.
type Refinement struct {
	Proposal    action.Code
	Embedded    hilbert.State
	Projected   hilbert.State
	Collapsed   hilbert.State
	Measurement uint32
	Action      action.Code
}

// #endregion types

// #region capabilities
// Propose asks the strategy for a raw action.
func (o *Observer) Propose(f feature.Frame) action.Code {
	return o.Strategy.Propose(f)
}

// Embed seeds a state over the full universe.
func (o *Observer) Embed(n0 action.Code, u *hilbert.Universe, phi hilbert.PhaseVec) hilbert.State {
	return hilbert.Embed(n0, u, phi)
}

// Project restricts h to b.
func (o *Observer) Project(h hilbert.State, b hilbert.Basis) hilbert.State {
	return hilbert.Project(h, b)
}

// Collapse prunes h toward entropy tau.
func (o *Observer) Collapse(h hilbert.State, tau, gamma float64) hilbert.State {
	return hilbert.Collapse(h, tau, gamma)
}

// Measure hashes h into refinement bits.
func (o *Observer) Measure(h hilbert.State) uint32 {
	return hilbert.Measure(h)
}

// Fuse writes m into the refinement field of n0.
func (o *Observer) Fuse(n0 action.Code, m uint32) action.Code {
	return hilbert.Fuse(n0, m)
}

// Refine runs propose→embed→project→collapse→measure→fuse.
func (o *Observer) Refine(f feature.Frame, lens *Lens) Refinement {
	var r Refinement
	r.Proposal = o.Propose(f)
	r.Embedded = o.Embed(r.Proposal, lens.Universe, lens.Phase)
	r.Projected = o.Project(r.Embedded, lens.Basis)
	r.Collapsed = o.Collapse(r.Projected, lens.Tau, lens.Gamma)
	r.Measurement = o.Measure(r.Collapsed)
	r.Action = o.Fuse(r.Proposal, r.Measurement)
	return r
}

// #endregion capabilities
