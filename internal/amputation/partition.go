package amputation

import (
	"math"
	"math/rand/v2"
	"strings"

	"goampute/domain/core"
)

// PartitionMode controls how rows are cut into pattern groups
type PartitionMode int

const (
	// PartitionShuffled shuffles row indices before cutting consecutive groups
	PartitionShuffled PartitionMode = iota
	// PartitionContiguous assigns the first rows to the first pattern, and so on
	PartitionContiguous
)

func (m PartitionMode) String() string {
	if m == PartitionContiguous {
		return "contiguous"
	}
	return "shuffled"
}

// ParsePartitionMode parses "shuffled" or "contiguous"
func ParsePartitionMode(s string) (PartitionMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "shuffled", "random":
		return PartitionShuffled, nil
	case "contiguous":
		return PartitionContiguous, nil
	}
	return 0, core.NewConfigurationError("unknown partition mode %q", s)
}

// GroupSizes splits n rows by normalized frequencies. Every pattern but the
// last gets floor(freq*n) rows; the last absorbs the remainder.
func GroupSizes(n int, freqs []float64) []int {
	sizes := make([]int, len(freqs))
	if len(freqs) == 0 {
		return sizes
	}
	used := 0
	for k := 0; k < len(freqs)-1; k++ {
		// the epsilon keeps 0.3*10 from flooring to 2
		size := int(math.Floor(freqs[k]*float64(n) + 1e-9))
		if size < 0 {
			size = 0
		}
		if used+size > n {
			size = n - used
		}
		sizes[k] = size
		used += size
	}
	sizes[len(freqs)-1] = n - used
	return sizes
}

// Partition assigns every row to exactly one pattern. It returns the
// row → pattern assignment and the row indices of each group.
func Partition(n int, freqs []float64, mode PartitionMode, r *rand.Rand) ([]int, [][]int) {
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	if mode == PartitionShuffled {
		r.Shuffle(n, func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	sizes := GroupSizes(n, freqs)
	assignment := make([]int, n)
	groups := make([][]int, len(freqs))
	start := 0
	for k, size := range sizes {
		group := make([]int, size)
		copy(group, order[start:start+size])
		for _, row := range group {
			assignment[row] = k
		}
		groups[k] = group
		start += size
	}
	return assignment, groups
}
