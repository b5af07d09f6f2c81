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
	"goampute/internal/amputation"
	"goampute/internal/testkit"
)

func amputed(t *testing.T, rows int, seed uint64, patterns []pattern.Pattern) *mat.Dense {
	cfg := testkit.DefaultMVNConfig()
	cfg.Rows = rows
	cfg.Seed = seed
	data, err := testkit.MultivariateNormal(cfg)
	require.NoError(t, err)
	res, err := amputation.Amputate(data, patterns, seed)
	require.NoError(t, err)
	return res.Incomplete
}

func mcarPatterns() []pattern.Pattern {
	return []pattern.Pattern{
		{IncompleteVars: []int{0}, Mechanism: pattern.MCAR, Prop: 0.4},
		{IncompleteVars: []int{1, 2}, Mechanism: pattern.MCAR, Prop: 0.4},
	}
}

func TestLittleMCARTest_MCARData(t *testing.T) {
	m := amputed(t, 2000, 19, mcarPatterns())

	res, err := LittleMCARTest(m)
	require.NoError(t, err)
	assert.Equal(t, EstimatePairwise, res.Estimator)
	assert.Equal(t, 3, res.Patterns)
	assert.Equal(t, 3+2+1-3, res.DF)
	assert.Greater(t, res.PValue, 0.001)
	assert.GreaterOrEqual(t, res.Statistic, 0.0)

	total := 0.0
	for _, c := range res.Contributions {
		assert.GreaterOrEqual(t, c.Statistic, 0.0)
		total += c.Statistic
	}
	assert.InDelta(t, res.Statistic, total, 1e-9)
}

func TestLittleMCARTest_MARDataIsRejected(t *testing.T) {
	m := amputed(t, 2000, 19, []pattern.Pattern{{
		IncompleteVars: []int{0},
		Weights:        map[int]float64{2: 1},
		Mechanism:      pattern.MAR,
		Prop:           0.5,
		Kind:           probability.SigmoidRight,
	}})

	for _, est := range []Estimator{EstimatePairwise, EstimateEM} {
		res, err := LittleMCARTest(m, WithEstimator(est))
		require.NoError(t, err, est.String())
		assert.Less(t, res.PValue, 1e-3, est.String())
		assert.Equal(t, 3+2-3, res.DF)
	}
}

func TestLittleMCARTest_EM(t *testing.T) {
	m := amputed(t, 2000, 23, mcarPatterns())

	res, err := LittleMCARTest(m, WithEMOptions(EMOptions{MaxIter: 500, Tolerance: 1e-8}))
	require.NoError(t, err)
	assert.Equal(t, EstimateEM, res.Estimator)
	assert.Greater(t, res.PValue, 0.001)
}

func TestLittleMCARTest_InputErrors(t *testing.T) {
	tests := []struct {
		name string
		m    *mat.Dense
	}{
		{"one row", mat.NewDense(1, 2, []float64{1, nan})},
		{"fully observed", mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})},
		{"column never observed", mat.NewDense(3, 2, []float64{1, nan, 3, nan, 5, nan})},
		{"no degrees of freedom", mat.NewDense(4, 2, []float64{1, 2, 3, 4, 5, 7, nan, nan})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LittleMCARTest(tt.m)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrInput), err.Error())
		})
	}
}

func TestLittleMCARTest_SingularCovariance(t *testing.T) {
	// column 1 is constant, so every pattern observing it has a singular block
	m := mat.NewDense(6, 3, []float64{
		1, 5, 2,
		2, 5, nan,
		3, 5, 1,
		nan, 5, 4,
		5, 5, 3,
		4, 5, nan,
	})
	_, err := LittleMCARTest(m)
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrSingularCovariance))
}

func TestPairwiseMoments(t *testing.T) {
	m := mat.NewDense(4, 2, []float64{
		1, 2,
		2, nan,
		3, 6,
		nan, 8,
	})
	est := PairwiseMoments(m)
	assert.InDeltaSlice(t, []float64{2, 16.0 / 3}, est.Mean, 1e-12)
	assert.InDelta(t, 1.0, est.Cov.At(0, 0), 1e-12)
	// rows 0 and 2 observe both columns
	assert.InDelta(t, 4.0, est.Cov.At(0, 1), 1e-12)
	assert.Zero(t, est.Iterations)
}

func TestEMMoments_RecoversCovariance(t *testing.T) {
	m := amputed(t, 3000, 31, mcarPatterns())

	est, err := EMMoments(m, DefaultEMOptions())
	require.NoError(t, err)
	assert.Greater(t, est.Iterations, 1)
	for j := 0; j < 3; j++ {
		assert.InDelta(t, 0, est.Mean[j], 0.1)
		assert.InDelta(t, 1, est.Cov.At(j, j), 0.1)
	}
	assert.InDelta(t, 0.5, est.Cov.At(0, 1), 0.1)
	assert.InDelta(t, 0.5, est.Cov.At(1, 2), 0.1)
}

func TestEMMoments_ColumnWithoutVariance(t *testing.T) {
	m := mat.NewDense(3, 2, []float64{1, 2, nan, 3, nan, 4})
	_, err := EMMoments(m, DefaultEMOptions())
	assert.True(t, errors.Is(err, core.ErrInput))
}

func TestDistributions(t *testing.T) {
	assert.InDelta(t, 0.05, ChiSquarePValue(3.841459, 1), 1e-5)
	assert.InDelta(t, 0.05, TTestPValue(1.959964, 1e7), 1e-4)
	assert.InDelta(t, 1.0, TTestPValue(0, 5), 1e-12)
	assert.True(t, math.IsNaN(ChiSquarePValue(1, 0)))
	assert.True(t, math.IsNaN(TTestPValue(nan, 5)))
}
