// Package testkit generates complete synthetic matrices and helpers for
// inspecting amputed ones.
package testkit

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distmv"
)

// MVNConfig configures a multivariate-normal complete matrix
type MVNConfig struct {
	Rows int         `json:"rows"`
	Mean []float64   `json:"mean"`
	Cov  [][]float64 `json:"cov"` // symmetric positive definite
	Seed uint64      `json:"seed"`
}

// DefaultMVNConfig returns 1000 rows of three unit-variance columns with pairwise correlation 0.5
func DefaultMVNConfig() MVNConfig {
	return MVNConfig{
		Rows: 1000,
		Mean: []float64{0, 0, 0},
		Cov: [][]float64{
			{1, 0.5, 0.5},
			{0.5, 1, 0.5},
			{0.5, 0.5, 1},
		},
		Seed: 42,
	}
}

// MultivariateNormal draws a complete matrix from cfg
func MultivariateNormal(cfg MVNConfig) (*mat.Dense, error) {
	p := len(cfg.Mean)
	if cfg.Rows < 1 || p < 1 {
		return nil, fmt.Errorf("need at least one row and column, got %dx%d", cfg.Rows, p)
	}
	if len(cfg.Cov) != p {
		return nil, fmt.Errorf("covariance has %d rows, mean has %d entries", len(cfg.Cov), p)
	}
	sigma := mat.NewSymDense(p, nil)
	for i := 0; i < p; i++ {
		if len(cfg.Cov[i]) != p {
			return nil, fmt.Errorf("covariance row %d has %d entries, expected %d", i, len(cfg.Cov[i]), p)
		}
		for j := i; j < p; j++ {
			sigma.SetSym(i, j, cfg.Cov[i][j])
		}
	}

	dist, ok := distmv.NewNormal(cfg.Mean, sigma, rand.NewPCG(cfg.Seed, cfg.Seed^0x5851f42d4c957f2d))
	if !ok {
		return nil, fmt.Errorf("covariance is not positive definite")
	}

	out := mat.NewDense(cfg.Rows, p, nil)
	row := make([]float64, p)
	for i := 0; i < cfg.Rows; i++ {
		dist.Rand(row)
		out.SetRow(i, row)
	}
	return out, nil
}

// Column copies column j
func Column(m mat.Matrix, j int) []float64 {
	return mat.Col(nil, j, m)
}

// MissingIndicator returns 1 where column j is NaN and 0 elsewhere
func MissingIndicator(m mat.Matrix, j int) []float64 {
	col := mat.Col(nil, j, m)
	for i, v := range col {
		if math.IsNaN(v) {
			col[i] = 1
		} else {
			col[i] = 0
		}
	}
	return col
}

// CountMissing counts NaN cells in column j
func CountMissing(m mat.Matrix, j int) int {
	n := 0
	for _, v := range MissingIndicator(m, j) {
		n += int(v)
	}
	return n
}

// Correlation is the Pearson correlation of x and y
func Correlation(x, y []float64) float64 {
	return stat.Correlation(x, y, nil)
}

// Equal reports whether a and b hold identical values, treating NaN as equal to NaN
func Equal(a, b mat.Matrix) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return false
	}
	for i := 0; i < ar; i++ {
		for j := 0; j < ac; j++ {
			x, y := a.At(i, j), b.At(i, j)
			if math.IsNaN(x) && math.IsNaN(y) {
				continue
			}
			if x != y {
				return false
			}
		}
	}
	return true
}
