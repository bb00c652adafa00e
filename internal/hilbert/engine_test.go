package hilbert

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danielpatrickdp/guild-ecology/internal/action"
)

func mustBasis(t *testing.T, u *Universe, primes ...Prime) Basis {
	t.Helper()
	b, err := u.Basis(primes...)
	require.NoError(t, err)
	return b
}

func TestNewUniverseValidation(t *testing.T) {
	_, err := NewUniverse()
	assert.Error(t, err)
	_, err = NewUniverse(2, 4)
	assert.Error(t, err, "4 is not prime")
	_, err = NewUniverse(3, 2)
	assert.Error(t, err, "descending order")
	_, err = NewUniverse(2, 2)
	assert.Error(t, err, "duplicate")

	u, err := NewUniverse(2, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, []Prime{2, 3, 5}, u.Primes())

	_, err = u.Basis(7)
	assert.ErrorIs(t, err, ErrUnknownPrime)
	_, err = u.Basis(3, 3)
	assert.Error(t, err)
}

func TestEmbedNormalizes(t *testing.T) {
	u := DefaultUniverse()
	rng := rand.New(rand.NewPCG(11, 13))
	for i := 0; i < 500; i++ {
		h := Embed(action.Code(rng.Uint32()), u, PhaseVec{})
		assert.Equal(t, u.Full(), h.Basis)
		assert.InDelta(t, 1.0, h.Sum(), 1e-9)
	}
}

func TestEmbedRewardsRoundProposals(t *testing.T) {
	u, err := NewUniverse(2, 3, 5)
	require.NoError(t, err)

	// 30 is divisible by every prime: all residues zero, uniform amplitudes.
	h := Embed(30, u, PhaseVec{})
	for _, i := range h.Basis {
		assert.InDelta(t, 1.0/3, h.Amps[i], 1e-12)
		assert.InDelta(t, 0, h.Phases[i], 1e-12)
	}

	// 1 leaves residue 1 everywhere: amplitude (1-1/p) grows with p.
	h = Embed(1, u, PhaseVec{})
	assert.Less(t, h.Amps[0], h.Amps[1])
	assert.Less(t, h.Amps[1], h.Amps[2])
}

func TestEmbedMixesRememberedPhase(t *testing.T) {
	u, err := NewUniverse(2, 3)
	require.NoError(t, err)
	var phi PhaseVec
	phi.Set(1, 1.25)

	h := Embed(6, u, phi)
	assert.InDelta(t, 0, h.Phases[0], 1e-12)
	assert.InDelta(t, 2*math.Pi*0.25, h.Phases[1], 1e-12)
}

func TestProjectKeepsOnlyBasis(t *testing.T) {
	u := DefaultUniverse()
	h := Embed(123457, u, PhaseVec{})
	b := mustBasis(t, u, 7, 3, 11)

	p := Project(h, b)
	require.Equal(t, b, p.Basis)
	assert.InDelta(t, 1.0, p.Sum(), 1e-9)

	for i := 0; i < u.Len(); i++ {
		_, ok := p.Amp(i)
		assert.Equal(t, b.Mask().Has(i), ok, "position %d", i)
		if !ok {
			assert.Zero(t, p.Amps[i])
		}
	}

	// Relative weights and phases survive the projection.
	i7, i3 := b[0], b[1]
	assert.InDelta(t, h.Amps[i7]/h.Amps[i3], p.Amps[i7]/p.Amps[i3], 1e-9)
	assert.Equal(t, h.Phases[i7], p.Phases[i7])
}

func TestProjectDoesNotAliasBasis(t *testing.T) {
	u := DefaultUniverse()
	b := mustBasis(t, u, 2, 3)
	p := Project(Embed(9, u, PhaseVec{}), b)
	b[0] = 5
	assert.Equal(t, 0, p.Basis[0])
}

func TestPhaseVecRestrict(t *testing.T) {
	u := DefaultUniverse()
	var phi PhaseVec
	phi.Set(1, 0.3) // 3
	phi.Set(2, 0.6) // 5
	phi.Set(3, 0.9) // 7

	r := phi.Restrict(mustBasis(t, u, 5, 11))
	assert.Equal(t, []int{2}, r.Positions())
	assert.Equal(t, 0.6, r.At(2))
	assert.Zero(t, r.At(1))

	// the receiver keeps every stored phase
	assert.Equal(t, []int{1, 2, 3}, phi.Positions())
	assert.Equal(t, 0.3, phi.At(1))
}

func TestEntropyBounds(t *testing.T) {
	u := DefaultUniverse()
	pure := State{Basis: Basis{0}}
	pure.Amps[0] = 1
	assert.Zero(t, Entropy(pure))

	uniform := State{Basis: u.Full()}
	for _, i := range uniform.Basis {
		uniform.Amps[i] = 1
	}
	Normalize(&uniform)
	assert.InDelta(t, math.Log2(float64(u.Len())), Entropy(uniform), 1e-12)
}

func TestDegenerateStateIsLeftAlone(t *testing.T) {
	h := State{Basis: Basis{0, 1, 2}}
	Normalize(&h)
	assert.Zero(t, h.Sum())
	assert.Zero(t, Entropy(h))

	c := Collapse(h, 0.5, DefaultGamma)
	assert.Zero(t, c.Sum())
	assert.Less(t, Measure(c), uint32(1<<18))
}

func TestCollapseReducesEntropy(t *testing.T) {
	u := DefaultUniverse()
	rng := rand.New(rand.NewPCG(3, 5))
	for i := 0; i < 200; i++ {
		h := Project(Embed(action.Code(rng.Uint32()), u, PhaseVec{}), u.Full())
		H := Entropy(h)
		tau := H * rng.Float64()

		c := Collapse(h, tau, DefaultGamma)
		assert.LessOrEqual(t, Entropy(c), H+1e-12)
		assert.Equal(t, h.Basis, c.Basis)
		assert.InDelta(t, 1.0, c.Sum(), 1e-9)
	}
}

func TestCollapseNoOpAboveEntropy(t *testing.T) {
	u := DefaultUniverse()
	h := Embed(987654321, u, PhaseVec{})

	c := Collapse(h, Entropy(h)+0.01, DefaultGamma)
	assert.Equal(t, h.Amps, c.Amps)
	assert.Equal(t, h.Phases, c.Phases)
	assert.Equal(t, h.Basis, c.Basis)
}

func TestCollapseDoesNotMutateInput(t *testing.T) {
	u := DefaultUniverse()
	h := Embed(4242, u, PhaseVec{})
	before := h.Amps

	_ = Collapse(h, 0.1, DefaultGamma)
	assert.Equal(t, before, h.Amps)
}

func TestCollapseTowardZeroKeepsLeader(t *testing.T) {
	u := DefaultUniverse()
	h := Embed(30, u, PhaseVec{}) // residues 0 for 2, 3, 5
	c := Collapse(h, 0, DefaultGamma)

	// Entropy never reaches zero with attenuated tails, so every round runs.
	// 2, 3 and 5 tie; ascending prime order keeps 2 and 3 and attenuates 5.
	assert.Equal(t, c.Amps[0], c.Amps[1])
	assert.Greater(t, c.Amps[1], c.Amps[2])
	for _, i := range c.Basis[2:] {
		assert.Greater(t, c.Amps[1], c.Amps[i])
	}
	assert.Less(t, Entropy(c), Entropy(h))
}

func TestMeasureRangeAndDeterminism(t *testing.T) {
	u := DefaultUniverse()
	b := mustBasis(t, u, 5, 7, 11, 13)
	rng := rand.New(rand.NewPCG(17, 19))
	for i := 0; i < 500; i++ {
		n := action.Code(rng.Uint32())
		h1 := Collapse(Project(Embed(n, u, PhaseVec{}), b), 1.2, DefaultGamma)
		h2 := Collapse(Project(Embed(n, u, PhaseVec{}), b), 1.2, DefaultGamma)

		m := Measure(h1)
		assert.Less(t, m, uint32(1<<18))
		assert.Equal(t, m, Measure(h2))
	}
}

func TestMeasureDependsOnBasisOrder(t *testing.T) {
	u := DefaultUniverse()
	h := Embed(1234567, u, PhaseVec{})
	a := Project(h, mustBasis(t, u, 3, 5, 7))
	b := Project(h, mustBasis(t, u, 7, 5, 3))
	assert.NotEqual(t, MeasureBits(a, 32), MeasureBits(b, 32))
}

func TestHashFloatsKnownValues(t *testing.T) {
	assert.Equal(t, uint32(0), hashFloats(nil))
	assert.Equal(t, uint32(0x89025cc1), hashFloats([]float64{0}))
	assert.Equal(t, uint32(0xf4294622), hashFloats([]float64{0.5, -0.25}))
}

func TestFuse(t *testing.T) {
	n := Fuse(0x3FFF, 0x3FFFF)
	assert.Equal(t, uint32(0x3FFFF), uint32(n)>>14)
	assert.Equal(t, uint32(0x3FFF), uint32(n)&0x3FFF)

	n = Fuse(0xFFFFFFFF, 0x1)
	assert.Equal(t, uint32(1), uint32(n)>>14)
	assert.Equal(t, uint32(0x3FFF), uint32(n)&0x3FFF)
}
