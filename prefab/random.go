package prefab

import "math/rand/v2"

// MaxSeed is the largest seed RandomSeed draws.
const MaxSeed = 10_000_000

// NewRandom returns a deterministic generator: equal seeds give equal
// streams. A generator must not be shared by concurrent build passes.
func NewRandom(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// NewUnseededRandom returns a generator seeded from the runtime's entropy.
// Builds using it are not reproducible.
func NewUnseededRandom() *rand.Rand {
	return NewRandom(rand.Uint64())
}

// RandomSeed draws a node seed in [0, MaxSeed].
func RandomSeed(r *rand.Rand) int64 {
	if r == nil {
		r = NewUnseededRandom()
	}
	return r.Int64N(MaxSeed + 1)
}
