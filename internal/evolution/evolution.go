package evolution

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
	"github.com/danielpatrickdp/guild-ecology/internal/fitness"
	"github.com/danielpatrickdp/guild-ecology/internal/hilbert"
	"github.com/danielpatrickdp/guild-ecology/internal/observer"
)

// #region config
// Config holds the generation knobs.
type Config struct {
	Every        int     // ticks between reproduction boundaries; 0 disables
	TopN         int     // observers considered elite
	EliteCount   int     // elites carried over unmutated
	MutationRate float64 // per-gene perturbation probability
	BasisProb    float64 // probability of a basis swap per guild per generation
}

// DefaultConfig reproduces every 120 ticks, keeps the top 2 and swaps a
// basis prime 5% of the time.
func DefaultConfig() Config {
	return Config{
		Every:        120,
		TopN:         2,
		EliteCount:   2,
		MutationRate: 0.1,
		BasisProb:    0.05,
	}
}

// #endregion config

// #region select
// Elite is an observer selected for the next generation.
type Elite struct {
	Observer *observer.Observer
	Fitness  float64
	Best     action.Code // highest-scoring action seen this generation
}

// SelectElite ranks pop by score (descending; ties keep population order) and
// returns the first topN. Observers with no score rank at zero.
func SelectElite(pop []*observer.Observer, scores map[string]fitness.Score, topN int) []Elite {
	ranked := make([]Elite, len(pop))
	for i, o := range pop {
		s := scores[o.ID]
		ranked[i] = Elite{Observer: o, Fitness: s.Value, Best: s.Best}
	}
	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].Fitness > ranked[b].Fitness
	})
	if topN < 0 {
		topN = 0
	}
	if topN < len(ranked) {
		ranked = ranked[:topN]
	}
	return ranked
}

// IDs returns the observer IDs of elites in order.
func IDs(elites []Elite) []string {
	out := make([]string, len(elites))
	for i, e := range elites {
		out[i] = e.Observer.ID
	}
	return out
}

// #endregion select

// #region mutate
// Mutator owns the random source and the mutant ID sequence.
type Mutator struct {
	rng *rand.Rand
	seq uint64
}

// NewMutator creates a mutator drawing from rng.
func NewMutator(rng *rand.Rand) *Mutator {
	return &Mutator{rng: rng}
}

// Mutate derives a child of parent. The child shares the parent's strategy
// and lineage; its ID is <lineage>-m<seq>. Each gene moves by ±1 with
// probability rate.
func (m *Mutator) Mutate(parent *observer.Observer, rate float64) *observer.Observer {
	m.seq++
	child := &observer.Observer{
		ID:         fmt.Sprintf("%s-m%d", parent.Lineage, m.seq),
		Lineage:    parent.Lineage,
		Generation: parent.Generation + 1,
		Strategy:   parent.Strategy,
		Genome:     parent.Genome,
	}
	for i := range child.Genome {
		if m.rng.Float64() < rate {
			if m.rng.IntN(2) == 0 {
				child.Genome[i]++
			} else {
				child.Genome[i]--
			}
		}
	}
	return child
}

// Reproduce builds a population of exactly target observers: the first
// min(eliteCount, len(elites), target) elites unchanged, then mutants of
// uniformly chosen elites. No elites yields nil so the caller keeps its
// current population.
func (m *Mutator) Reproduce(elites []Elite, target, eliteCount int, rate float64) []*observer.Observer {
	if len(elites) == 0 || target <= 0 {
		return nil
	}
	keep := min(max(eliteCount, 0), len(elites), target)
	next := make([]*observer.Observer, 0, target)
	for _, e := range elites[:keep] {
		next = append(next, e.Observer)
	}
	for len(next) < target {
		parent := elites[m.rng.IntN(len(elites))].Observer
		next = append(next, m.Mutate(parent, rate))
	}
	return next
}

// #endregion mutate

// #region basis
// MutateBasis swaps one basis position for a universe prime outside the
// basis with probability prob. Otherwise, or when the basis already covers
// the universe, basis is returned unchanged.
func MutateBasis(rng *rand.Rand, basis hilbert.Basis, u *hilbert.Universe, prob float64) hilbert.Basis {
	if len(basis) == 0 || rng.Float64() >= prob {
		return basis
	}
	in := basis.Mask()
	var available []int
	for i := 0; i < u.Len(); i++ {
		if !in.Has(i) {
			available = append(available, i)
		}
	}
	if len(available) == 0 {
		return basis
	}
	out := basis.Clone()
	out[rng.IntN(len(out))] = available[rng.IntN(len(available))]
	return out
}

// #endregion basis
