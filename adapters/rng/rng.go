// Package rng provides the explicit and process-default random generators.
package rng

import (
	"hash/fnv"
	"math/rand/v2"
	"sync"

	"goampute/ports"
)

// stream increment used when a generator is built from a bare seed
const baseStream = 0x9e3779b97f4a7c15

// New returns a reproducible generator for seed
func New(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, baseStream))
}

// SeededRNG implements ports.RNGPort
type SeededRNG struct{}

var _ ports.RNGPort = SeededRNG{}

// NewSeededRNG creates the RNG adapter
func NewSeededRNG() SeededRNG {
	return SeededRNG{}
}

// SeededStream derives an independent PCG stream from the operation name
func (SeededRNG) SeededStream(name string, seed uint64) *rand.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return rand.New(rand.NewPCG(seed, h.Sum64()|1))
}

// Default returns the process-wide generator
func (SeededRNG) Default() *rand.Rand {
	return Default()
}

var (
	defaultOnce sync.Once
	defaultRand *rand.Rand
)

// Default lazily creates the process-wide generator on first use and reuses
// it for the lifetime of the process. Its seed comes from the runtime, so
// results drawn from it are not reproducible across runs.
func Default() *rand.Rand {
	defaultOnce.Do(func() {
		defaultRand = rand.New(&lockedSource{src: rand.NewPCG(rand.Uint64(), rand.Uint64())})
	})
	return defaultRand
}

// lockedSource serializes access so the shared generator can be used from
// several goroutines.
type lockedSource struct {
	mu  sync.Mutex
	src rand.Source
}

func (s *lockedSource) Uint64() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.Uint64()
}
