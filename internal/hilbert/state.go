package hilbert

import "math"

// #region phase-vec
// PhaseVec holds a phase fraction in [0,1) per universe position. Positions
// not in Present read as 0.
type PhaseVec struct {
	Phase   [MaxPrimes]float64
	Present Mask
}

// NewPhaseVec returns a vector with every basis position present at phase 0.
func NewPhaseVec(b Basis) PhaseVec {
	return PhaseVec{Present: b.Mask()}
}

// At returns the phase at position i, or 0 when absent.
func (v PhaseVec) At(i int) float64 {
	if !v.Present.Has(i) {
		return 0
	}
	return v.Phase[i]
}

// Set stores x at position i and marks it present.
func (v *PhaseVec) Set(i int, x float64) {
	v.Phase[i] = x
	v.Present = v.Present.With(i)
}

// Positions returns present positions in ascending order.
func (v PhaseVec) Positions() []int {
	out := make([]int, 0, v.Present.Count())
	for i := 0; i < MaxPrimes; i++ {
		if v.Present.Has(i) {
			out = append(out, i)
		}
	}
	return out
}

// Restrict returns a copy with only the positions of b present.
func (v PhaseVec) Restrict(b Basis) PhaseVec {
	v.Present &= b.Mask()
	return v
}

// #endregion phase-vec

// #region state
// State is an amplitude/phase representation over an ordered basis. Amps sum
// to 1 over the basis unless every raw amplitude was zero. Channels outside
// the basis are zero.
type State struct {
	Amps   [MaxPrimes]float64
	Phases [MaxPrimes]float64 // radians
	Basis  Basis
}

// Amp returns the amplitude at position i and whether i is in the basis.
func (h State) Amp(i int) (float64, bool) {
	if !h.Basis.Mask().Has(i) {
		return 0, false
	}
	return h.Amps[i], true
}

// Sum returns the total amplitude over the basis.
func (h State) Sum() float64 {
	var s float64
	for _, i := range h.Basis {
		s += h.Amps[i]
	}
	return s
}

// Normalize divides amplitudes by their sum in place. A non-positive sum is
// left untouched.
func Normalize(h *State) {
	sum := h.Sum()
	if sum <= 0 {
		return
	}
	for _, i := range h.Basis {
		h.Amps[i] /= sum
	}
}

// Entropy is the Shannon entropy (bits) of the amplitudes over the basis.
func Entropy(h State) float64 {
	var H float64
	for _, i := range h.Basis {
		if w := h.Amps[i]; w > 0 {
			H -= w * math.Log2(w)
		}
	}
	return H
}

// clone copies h with an independent basis slice.
func (h State) clone() State {
	h.Basis = h.Basis.Clone()
	return h
}

// #endregion state
