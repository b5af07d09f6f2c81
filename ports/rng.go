package ports

import (
	"math/rand/v2"
)

// RNGPort provides random generators for amputation runs
type RNGPort interface {
	// SeededStream creates a deterministic generator for a named operation.
	// The same name and seed always yield the same sequence.
	SeededStream(name string, seed uint64) *rand.Rand

	// Default returns the process-wide generator. It is safe for concurrent
	// use but its sequence is not reproducible across runs.
	Default() *rand.Rand
}
