// Package diagnostics inspects incomplete matrices: which missingness
// patterns occur, and whether the missingness looks completely at random.
package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"goampute/domain/core"
)

// patternGroup is the set of rows sharing one observed/missing bit-vector
type patternGroup struct {
	key      string
	observed []bool
	obs      []int // observed column indices
	miss     []int // missing column indices
	rows     []int
}

// groupPatterns buckets rows by their observed bit-vector in first-seen order
func groupPatterns(m mat.Matrix) []*patternGroup {
	rows, cols := m.Dims()
	index := make(map[string]*patternGroup)
	var groups []*patternGroup
	key := make([]byte, cols)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.IsNaN(m.At(i, j)) {
				key[j] = '0'
			} else {
				key[j] = '1'
			}
		}
		g, ok := index[string(key)]
		if !ok {
			g = newPatternGroup(string(key))
			index[g.key] = g
			groups = append(groups, g)
		}
		g.rows = append(g.rows, i)
	}
	return groups
}

func newPatternGroup(key string) *patternGroup {
	g := &patternGroup{key: key, observed: make([]bool, len(key))}
	for j := 0; j < len(key); j++ {
		if key[j] == '1' {
			g.observed[j] = true
			g.obs = append(g.obs, j)
		} else {
			g.miss = append(g.miss, j)
		}
	}
	return g
}

// checkIncomplete rejects matrices no missingness diagnostic can work on
func checkIncomplete(m mat.Matrix) error {
	rows, cols := m.Dims()
	if rows < 2 {
		return core.NewInputError("need at least 2 rows, got %d", rows)
	}
	missing := 0
	for j := 0; j < cols; j++ {
		colMissing := 0
		for i := 0; i < rows; i++ {
			if math.IsNaN(m.At(i, j)) {
				colMissing++
			}
		}
		if colMissing == rows {
			return core.NewInputError("column %d has no observed values", j)
		}
		missing += colMissing
	}
	if missing == 0 {
		return core.NewInputError("matrix is fully observed")
	}
	return nil
}
