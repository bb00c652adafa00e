package fitness

import (
	"math"
	"sort"
	"time"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
	"github.com/danielpatrickdp/guild-ecology/internal/hilbert"
)

// DefaultTopK is the support size compared by Coherence.
const DefaultTopK = 3

// #region types
// ObserverEval is one observer's scored evaluation within a tick.
type ObserverEval struct {
	ObserverID string
	Action     action.Code
	State      hilbert.State
	LZ         float64
	Timestamp  time.Time
}

// Metrics summarizes a set of evaluations.
type Metrics struct {
	LZ2       float64 // mean squared LZ
	MaxLZ     float64
	Coherence float64
	Hint      float64 // mean internal entropy
}

// Weights are the fitness coefficients.
type Weights struct {
	Lambda1 float64 // LZ²
	Lambda2 float64 // max LZ
	Lambda3 float64 // coherence
	Lambda4 float64 // Hmax − Hint
	Hmax    float64
}

// DefaultWeights returns λ=(1, 2, 0.5, 0.3) and Hmax=4.
func DefaultWeights() Weights {
	return Weights{Lambda1: 1.0, Lambda2: 2.0, Lambda3: 0.5, Lambda4: 0.3, Hmax: 4.0}
}

// #endregion types

// #region lz
// LZ maps a net outcome into (0,1): sigmoid(10·(pnl − fee − |slippage|)).
func LZ(pnl, fee, slippage float64) float64 {
	net := pnl - fee - math.Abs(slippage)
	return 1 / (1 + math.Exp(-10*net))
}

// #endregion lz

// #region coherence
// Coherence is the mean pairwise Jaccard similarity of the states' top-k
// supports. Fewer than two states is fully coherent.
func Coherence(states []hilbert.State, topK int) float64 {
	if len(states) < 2 {
		return 1.0
	}
	sets := make([]hilbert.Mask, len(states))
	for i, h := range states {
		sets[i] = topSupport(h, topK)
	}

	var total float64
	var pairs int
	for i := 0; i < len(sets); i++ {
		for j := i + 1; j < len(sets); j++ {
			union := (sets[i] | sets[j]).Count()
			if union > 0 {
				total += float64((sets[i] & sets[j]).Count()) / float64(union)
			}
			pairs++
		}
	}
	return total / float64(pairs)
}

// topSupport returns the k highest-amplitude positions of h. Ties keep basis
// order.
func topSupport(h hilbert.State, k int) hilbert.Mask {
	ranked := h.Basis.Clone()
	sort.SliceStable(ranked, func(a, b int) bool {
		return h.Amps[ranked[a]] > h.Amps[ranked[b]]
	})
	if k < len(ranked) {
		ranked = ranked[:max(k, 0)]
	}
	return ranked.Mask()
}

// MeanInternalEntropy is the mean Shannon entropy of states, 0 when empty.
func MeanInternalEntropy(states []hilbert.State) float64 {
	if len(states) == 0 {
		return 0
	}
	var sum float64
	for _, h := range states {
		sum += hilbert.Entropy(h)
	}
	return sum / float64(len(states))
}

// #endregion coherence

// #region aggregate
// Aggregate reduces evals to guild metrics. An empty input yields zeros.
func Aggregate(evals []ObserverEval) Metrics {
	if len(evals) == 0 {
		return Metrics{}
	}
	states := make([]hilbert.State, len(evals))
	var m Metrics
	for i, e := range evals {
		m.LZ2 += e.LZ * e.LZ
		if i == 0 || e.LZ > m.MaxLZ {
			m.MaxLZ = e.LZ
		}
		states[i] = e.State
	}
	m.LZ2 /= float64(len(evals))
	m.Coherence = Coherence(states, DefaultTopK)
	m.Hint = MeanInternalEntropy(states)
	return m
}

// Compute is λ1·LZ2 + λ2·maxLZ + λ3·coherence + λ4·(Hmax − Hint).
func Compute(m Metrics, w Weights) float64 {
	return w.Lambda1*m.LZ2 +
		w.Lambda2*m.MaxLZ +
		w.Lambda3*m.Coherence +
		w.Lambda4*(w.Hmax-m.Hint)
}

// #endregion aggregate
