package hilbert

import "math"

// splitMix64 is the SplitMix64 finalizer with its golden-ratio increment.
func splitMix64(x uint64) uint64 {
	x += 0x9E3779B97F4A7C15
	x = (x ^ x>>30) * 0xBF58476D1CE4E5B9
	x = (x ^ x>>27) * 0x94D049BB133111EB
	return x ^ x>>31
}

// hashFloats quantizes xs to 1e-9 and mixes them in order, seeding each step
// with the element's 1-based position. Returns the low 32 bits.
func hashFloats(xs []float64) uint32 {
	var acc uint64
	for i, x := range xs {
		q := int64(math.Floor(x * 1e9))
		acc = splitMix64(acc ^ uint64(q+int64(i+1)))
	}
	return uint32(acc)
}
