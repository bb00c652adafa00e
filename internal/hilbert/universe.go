package hilbert

import (
	"errors"
	"fmt"
	"math/bits"
)

// MaxPrimes bounds the universe so every channel fits one bit of a Mask.
const MaxPrimes = 64

// Prime identifies one basis channel.
type Prime uint32

// ErrUnknownPrime is returned when a basis names a prime outside the universe.
var ErrUnknownPrime = errors.New("prime not in universe")

// #region universe
// Universe is the fixed, ascending prime set every guild draws its basis
// from. Channel data is stored at a prime's position in the universe, so
// position order is prime order.
type Universe struct {
	primes []Prime
}

// NewUniverse validates primes and fixes their order.
func NewUniverse(primes ...Prime) (*Universe, error) {
	if len(primes) == 0 {
		return nil, errors.New("universe: no primes")
	}
	if len(primes) > MaxPrimes {
		return nil, fmt.Errorf("universe: %d primes exceeds capacity %d", len(primes), MaxPrimes)
	}
	for k, p := range primes {
		if !isPrime(p) {
			return nil, fmt.Errorf("universe: %d is not prime", p)
		}
		if k > 0 && p <= primes[k-1] {
			return nil, fmt.Errorf("universe: primes must be strictly ascending at %d", p)
		}
	}
	return &Universe{primes: append([]Prime(nil), primes...)}, nil
}

// DefaultUniverse is the eleven primes 2..31.
func DefaultUniverse() *Universe {
	u, _ := NewUniverse(2, 3, 5, 7, 11, 13, 17, 19, 23, 29, 31)
	return u
}

// Len returns the number of primes.
func (u *Universe) Len() int { return len(u.primes) }

// Prime returns the prime at position i.
func (u *Universe) Prime(i int) Prime { return u.primes[i] }

// Primes returns a copy of the ordered primes.
func (u *Universe) Primes() []Prime { return append([]Prime(nil), u.primes...) }

// Index returns the position of p.
func (u *Universe) Index(p Prime) (int, bool) {
	for i, q := range u.primes {
		if q == p {
			return i, true
		}
	}
	return -1, false
}

// Full returns a basis covering the whole universe in order.
func (u *Universe) Full() Basis {
	b := make(Basis, len(u.primes))
	for i := range b {
		b[i] = i
	}
	return b
}

// Basis resolves primes to positions, preserving their order.
func (u *Universe) Basis(primes ...Prime) (Basis, error) {
	b := make(Basis, 0, len(primes))
	var seen Mask
	for _, p := range primes {
		i, ok := u.Index(p)
		if !ok {
			return nil, fmt.Errorf("basis prime %d: %w", p, ErrUnknownPrime)
		}
		if seen.Has(i) {
			return nil, fmt.Errorf("basis: duplicate prime %d", p)
		}
		seen = seen.With(i)
		b = append(b, i)
	}
	return b, nil
}

func isPrime(p Prime) bool {
	if p < 2 {
		return false
	}
	for d := uint64(2); d*d <= uint64(p); d++ {
		if uint64(p)%d == 0 {
			return false
		}
	}
	return true
}

// #endregion universe

// #region basis
// Mask marks which universe positions are present.
type Mask uint64

// Has reports whether position i is set.
func (m Mask) Has(i int) bool { return m&(1<<uint(i)) != 0 }

// With returns m with position i set.
func (m Mask) With(i int) Mask { return m | 1<<uint(i) }

// Count returns the number of set positions.
func (m Mask) Count() int { return bits.OnesCount64(uint64(m)) }

// Basis is an ordered list of universe positions.
type Basis []int

// Mask returns the presence mask of b.
func (b Basis) Mask() Mask {
	var m Mask
	for _, i := range b {
		m = m.With(i)
	}
	return m
}

// Primes maps b back to primes of u.
func (b Basis) Primes(u *Universe) []Prime {
	out := make([]Prime, len(b))
	for k, i := range b {
		out[k] = u.Prime(i)
	}
	return out
}

// Clone returns an independent copy.
func (b Basis) Clone() Basis { return append(Basis(nil), b...) }

// Equal reports element-wise equality, order included.
func (b Basis) Equal(o Basis) bool {
	if len(b) != len(o) {
		return false
	}
	for i := range b {
		if b[i] != o[i] {
			return false
		}
	}
	return true
}

// #endregion basis
