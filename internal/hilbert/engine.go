package hilbert

import (
	"math"
	"sort"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
)

// DefaultGamma is the tail attenuation factor used by Collapse.
const DefaultGamma = 0.2

// #region embed
// Embed seeds a state over the whole universe from a raw proposal. A prime
// whose residue is small gets a high amplitude; the phase mixes the residue
// angle with the remembered phase.
func Embed(n0 action.Code, u *Universe, phi PhaseVec) State {
	h := State{Basis: u.Full()}
	for _, i := range h.Basis {
		p := uint32(u.Prime(i))
		ratio := float64(uint32(n0)%p) / float64(p)
		h.Amps[i] = math.Max(0, 1-ratio)
		h.Phases[i] = 2*math.Pi*ratio + 2*math.Pi*math.Mod(phi.At(i), 1)
	}
	Normalize(&h)
	return h
}

// #endregion embed

// #region project
// Project restricts h to b (in b's order) and renormalizes. Channels outside
// b are dropped.
func Project(h State, b Basis) State {
	in := h.Basis.Mask()
	out := State{Basis: b.Clone()}
	for _, i := range out.Basis {
		if in.Has(i) {
			out.Amps[i] = h.Amps[i]
			out.Phases[i] = h.Phases[i]
		}
	}
	Normalize(&out)
	return out
}

// #endregion project

// #region collapse
// Collapse softly prunes h toward entropy tau. Each round multiplies every
// channel ranked below keep by gamma, renormalizes, and shrinks keep by one,
// stopping once the entropy is at most tau or a single channel is kept.
// Equal amplitudes rank by ascending prime.
func Collapse(h State, tau, gamma float64) State {
	out := h.clone()
	if Entropy(out) <= tau {
		return out
	}

	ranked := out.Basis.Clone()
	sort.SliceStable(ranked, func(a, b int) bool {
		ai, bi := out.Amps[ranked[a]], out.Amps[ranked[b]]
		if ai != bi {
			return ai > bi
		}
		return ranked[a] < ranked[b]
	})

	for keep := len(ranked); keep > 1; keep-- {
		for _, i := range ranked[keep:] {
			out.Amps[i] *= gamma
		}
		Normalize(&out)
		if Entropy(out) <= tau {
			break
		}
	}
	return out
}

// #endregion collapse

// #region measure
// Measure hashes h into an 18-bit refinement.
func Measure(h State) uint32 {
	return MeasureBits(h, action.RefinementBits)
}

// MeasureBits hashes the (a·cos φ, a·sin φ) components of h, in basis
// order, and keeps the low bits. Identical content always measures the same.
func MeasureBits(h State, bits int) uint32 {
	n := len(h.Basis)
	v := make([]float64, 2*n)
	for k, i := range h.Basis {
		v[k] = h.Amps[i] * math.Cos(h.Phases[i])
		v[n+k] = h.Amps[i] * math.Sin(h.Phases[i])
	}
	sum := hashFloats(v)
	switch {
	case bits <= 0:
		return 0
	case bits >= 32:
		return sum
	}
	return sum & uint32(1<<uint(bits)-1)
}

// #endregion measure

// #region fuse
// Fuse writes the refinement m into bits 14..31 of n0. The lower 14 bits pass
// through.
func Fuse(n0 action.Code, m uint32) action.Code {
	return action.WithRefinement(n0, m)
}

// #endregion fuse
