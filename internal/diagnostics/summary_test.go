package diagnostics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

var nan = math.NaN()

func TestSummarize_Complete(t *testing.T) {
	m := mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 6, 7, 8})
	s := Summarize(m)

	require.Len(t, s.Patterns, 1)
	assert.Equal(t, "11", s.Patterns[0].Key())
	assert.Equal(t, 4, s.Patterns[0].Count)
	assert.Zero(t, s.TotalMissing)
	assert.True(t, s.Complete())
	assert.Equal(t, []int{0, 0}, s.ColumnMissing)
}

func TestSummarize_Ordering(t *testing.T) {
	m := mat.NewDense(10, 3, []float64{
		nan, nan, nan, // fully missing, listed last
		1, nan, 3, // 101 x2
		nan, 2, 3, // 011 x3
		1, 2, 3, // complete x1, listed first
		nan, 2, 3,
		1, nan, nan, // 100 x2
		1, nan, 3,
		nan, 2, 3,
		1, nan, nan,
		nan, nan, 3, // 001 x1
	})
	s := Summarize(m)

	keys := make([]string, len(s.Patterns))
	counts := make([]int, len(s.Patterns))
	for k, p := range s.Patterns {
		keys[k] = p.Key()
		counts[k] = p.Count
	}
	// 101 and 100 tie on count; 101 has fewer missing columns
	assert.Equal(t, []string{"111", "011", "101", "100", "001", "000"}, keys)
	assert.Equal(t, []int{1, 3, 2, 2, 1, 1}, counts)

	assert.Equal(t, []int{5, 6, 3}, s.ColumnMissing)
	assert.Equal(t, 14, s.TotalMissing)
	assert.Equal(t, 4, s.Patterns[3].MissingCells)
	assert.InDeltaSlice(t, []float64{0.5, 0.6, 0.3}, s.ColumnMissingRate(), 1e-12)
	assert.InDelta(t, 1.0, sum(s.Proportions()), 1e-12)
	assert.False(t, s.Complete())
}

func TestSummarize_TiesKeepFirstAppearance(t *testing.T) {
	m := mat.NewDense(4, 3, []float64{
		1, 2, nan,
		nan, 2, 3,
		1, 2, nan,
		nan, 2, 3,
	})
	s := Summarize(m)
	require.Len(t, s.Patterns, 2)
	assert.Equal(t, "110", s.Patterns[0].Key())
	assert.Equal(t, "011", s.Patterns[1].Key())
}

func TestSummarize_DoesNotMutate(t *testing.T) {
	m := mat.NewDense(2, 2, []float64{1, nan, 3, 4})
	before := mat.DenseCopyOf(m)
	Summarize(m)
	assert.Equal(t, before.At(0, 0), m.At(0, 0))
	assert.True(t, math.IsNaN(m.At(0, 1)))
}

func sum(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}
