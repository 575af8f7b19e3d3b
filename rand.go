package edition

import "math/rand/v2"

// streamMix decorrelates the two PCG seed words derived from one seed.
const streamMix = 0x9e3779b97f4a7c15

// Stream is the random source shared by every uniform rule of a property set.
// Reseeding it affects all draws that follow, in the order rules are
// evaluated. A Stream is not safe for concurrent use.
type Stream struct {
	src *rand.PCG
	r   *rand.Rand
}

// NewStream returns a Stream seeded with seed. A zero seed produces a
// non-reproducible stream seeded from the runtime's random source.
func NewStream(seed uint64) *Stream {
	if seed == 0 {
		seed = rand.Uint64()
	}
	src := rand.NewPCG(seed, seed^streamMix)
	return &Stream{src: src, r: rand.New(src)}
}

// Seed resets the stream so that subsequent draws are reproducible.
func (s *Stream) Seed(seed uint64) {
	s.src.Seed(seed, seed^streamMix)
}

// Float64 returns a value in [0, 1).
func (s *Stream) Float64() float64 {
	return s.r.Float64()
}

// Between returns a value in [a, b).
func (s *Stream) Between(a, b float64) float64 {
	return a + s.r.Float64()*(b-a)
}
