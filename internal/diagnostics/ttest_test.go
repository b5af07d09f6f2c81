package diagnostics

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"goampute/domain/core"
	"goampute/domain/pattern"
	"goampute/domain/probability"
)

func TestMCARTTests_MAR(t *testing.T) {
	m := amputed(t, 2000, 5, []pattern.Pattern{{
		IncompleteVars: []int{0},
		Weights:        map[int]float64{2: 1},
		Mechanism:      pattern.MAR,
		Prop:           0.4,
		Kind:           probability.SigmoidRight,
	}})

	res, err := MCARTTests(m)
	require.NoError(t, err)
	r, c := res.Statistic.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)

	// rows missing column 0 have high column 2 values
	assert.Less(t, res.Statistic.At(0, 2), -3.0)
	assert.Less(t, res.PValue.At(0, 2), 1e-3)
	assert.Greater(t, res.DF.At(0, 2), 1.0)

	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(res.Statistic.At(i, i)))
	}
	// columns 1 and 2 have no missing values to split on
	for _, i := range []int{1, 2} {
		for j := 0; j < 3; j++ {
			assert.True(t, math.IsNaN(res.Statistic.At(i, j)), "(%d,%d)", i, j)
			assert.True(t, math.IsNaN(res.PValue.At(i, j)), "(%d,%d)", i, j)
		}
	}
}

func TestMCARTTests_SmallGroupsAreUndefined(t *testing.T) {
	m := mat.NewDense(4, 2, []float64{
		1, 10,
		nan, 11,
		3, 12,
		4, 13,
	})
	res, err := MCARTTests(m)
	require.NoError(t, err)
	// a single row is missing column 0
	assert.True(t, math.IsNaN(res.Statistic.At(0, 1)))
}

func TestMCARTTests_InputErrors(t *testing.T) {
	_, err := MCARTTests(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	assert.True(t, errors.Is(err, core.ErrInput))

	_, err = MCARTTests(mat.NewDense(1, 2, []float64{1, nan}))
	assert.True(t, errors.Is(err, core.ErrInput))
}

func TestWelch(t *testing.T) {
	tStat, df := welch([]float64{1, 2, 3, 4}, []float64{2, 3, 4, 5})
	// equal variances and sizes: t = -1 / sqrt(2*(5/3)/4), df = 6
	assert.InDelta(t, -1/math.Sqrt(2*(5.0/3)/4), tStat, 1e-12)
	assert.InDelta(t, 6, df, 1e-12)

	tStat, _ = welch([]float64{1, 1}, []float64{1, 1})
	assert.True(t, math.IsNaN(tStat))
}
