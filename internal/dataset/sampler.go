package dataset

import "math/rand"

// Batches shuffles [0,n) and cuts it into consecutive batches of at most size
// indices. The last batch may be short.
func Batches(n, size int, rng *rand.Rand) [][]int {
	if n <= 0 || size <= 0 {
		return nil
	}
	perm := rng.Perm(n)
	out := make([][]int, 0, (n+size-1)/size)
	for i := 0; i < n; i += size {
		j := i + size
		if j > n {
			j = n
		}
		out = append(out, perm[i:j])
	}
	return out
}

// Sampler hands out batches from an endlessly reshuffled index stream, so a
// fixed number of steps can be drawn regardless of dataset size.
type Sampler struct {
	n, size int
	rng     *rand.Rand
	perm    []int
	pos     int
}

// NewSampler returns a sampler over [0,n). Batches never exceed n indices.
func NewSampler(n, size int, rng *rand.Rand) *Sampler {
	if size > n {
		size = n
	}
	return &Sampler{n: n, size: size, rng: rng}
}

// Next returns the next batch; indices within a batch are distinct.
func (s *Sampler) Next() []int {
	if s.n <= 0 || s.size <= 0 {
		return nil
	}
	if s.perm == nil || s.pos+s.size > s.n {
		s.perm = s.rng.Perm(s.n)
		s.pos = 0
	}
	b := s.perm[s.pos : s.pos+s.size]
	s.pos += s.size
	return b
}
