package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"goampute/domain/core"
)

// Estimator selects how the population mean and covariance are estimated
// from incomplete data
type Estimator int

const (
	// EstimatePairwise uses available-case means and pairwise covariances
	EstimatePairwise Estimator = iota
	// EstimateEM uses the EM maximum-likelihood estimate for a multivariate normal
	EstimateEM
)

func (e Estimator) String() string {
	if e == EstimateEM {
		return "em"
	}
	return "pairwise"
}

// Moments is a mean vector and covariance matrix
type Moments struct {
	Mean       []float64
	Cov        *mat.SymDense
	Iterations int // EM iterations, zero for pairwise
}

// PairwiseMoments estimates column means from every observed value and each
// covariance from the rows where both columns are observed. Entries with
// fewer than two joint observations are NaN.
func PairwiseMoments(m mat.Matrix) Moments {
	rows, cols := m.Dims()
	mean := make([]float64, cols)
	column := make([]float64, 0, rows)
	for j := 0; j < cols; j++ {
		column = column[:0]
		for i := 0; i < rows; i++ {
			if v := m.At(i, j); !math.IsNaN(v) {
				column = append(column, v)
			}
		}
		if len(column) == 0 {
			mean[j] = math.NaN()
			continue
		}
		mean[j] = stat.Mean(column, nil)
	}

	cov := mat.NewSymDense(cols, nil)
	x := make([]float64, 0, rows)
	y := make([]float64, 0, rows)
	for a := 0; a < cols; a++ {
		for b := a; b < cols; b++ {
			x, y = x[:0], y[:0]
			for i := 0; i < rows; i++ {
				va, vb := m.At(i, a), m.At(i, b)
				if math.IsNaN(va) || math.IsNaN(vb) {
					continue
				}
				x = append(x, va)
				y = append(y, vb)
			}
			if len(x) < 2 {
				cov.SetSym(a, b, math.NaN())
				continue
			}
			cov.SetSym(a, b, stat.Covariance(x, y, nil))
		}
	}
	return Moments{Mean: mean, Cov: cov}
}

// EMOptions bound the EM iteration
type EMOptions struct {
	MaxIter   int
	Tolerance float64 // on the largest absolute change of any mean or covariance entry
}

// DefaultEMOptions returns the standard EM bounds
func DefaultEMOptions() EMOptions {
	return EMOptions{MaxIter: 200, Tolerance: 1e-6}
}

// EMMoments runs expectation-maximization for a multivariate normal from the
// pairwise means and variances. It returns the last estimate when MaxIter is
// reached without converging.
func EMMoments(m mat.Matrix, opts EMOptions) (Moments, error) {
	rows, cols := m.Dims()
	start := PairwiseMoments(m)
	mean := start.Mean
	cov := mat.NewSymDense(cols, nil)
	for j := 0; j < cols; j++ {
		v := start.Cov.At(j, j)
		if math.IsNaN(mean[j]) || math.IsNaN(v) || v <= 0 {
			return Moments{}, core.NewInputError("column %d has too few observed values to estimate a variance", j)
		}
		cov.SetSym(j, j, v)
	}

	groups := groupPatterns(m)
	n := float64(rows)
	sum := make([]float64, cols)
	xhat := make([]float64, cols)

	iter := 0
	for iter < opts.MaxIter {
		iter++
		for j := range sum {
			sum[j] = 0
		}
		cross := mat.NewSymDense(cols, nil)

		for _, g := range groups {
			cond, err := conditional(g, mean, cov)
			if err != nil {
				return Moments{}, err
			}
			for _, i := range g.rows {
				cond.impute(m, i, xhat)
				for a := 0; a < cols; a++ {
					sum[a] += xhat[a]
					for b := a; b < cols; b++ {
						cross.SetSym(a, b, cross.At(a, b)+xhat[a]*xhat[b])
					}
				}
				cond.addResidual(cross)
			}
		}

		delta := 0.0
		next := make([]float64, cols)
		for a := range next {
			next[a] = sum[a] / n
			delta = math.Max(delta, math.Abs(next[a]-mean[a]))
		}
		nextCov := mat.NewSymDense(cols, nil)
		for a := 0; a < cols; a++ {
			for b := a; b < cols; b++ {
				v := cross.At(a, b)/n - next[a]*next[b]
				delta = math.Max(delta, math.Abs(v-cov.At(a, b)))
				nextCov.SetSym(a, b, v)
			}
		}
		mean, cov = next, nextCov
		if delta < opts.Tolerance {
			break
		}
	}
	return Moments{Mean: mean, Cov: cov, Iterations: iter}, nil
}

// conditionalNormal holds the regression of one pattern's missing columns on
// its observed columns under the current estimate.
type conditionalNormal struct {
	g      *patternGroup
	mean   []float64
	coef   *mat.Dense    // len(obs) x len(miss), Σoo⁻¹ Σom
	resid  *mat.SymDense // Σmm − Σmo Σoo⁻¹ Σom
	deltaO []float64
}

func conditional(g *patternGroup, mean []float64, cov *mat.SymDense) (*conditionalNormal, error) {
	c := &conditionalNormal{g: g, mean: mean, deltaO: make([]float64, len(g.obs))}
	nm := len(g.miss)
	if nm == 0 {
		return c, nil
	}
	c.resid = mat.NewSymDense(nm, nil)
	if len(g.obs) == 0 {
		for a, ja := range g.miss {
			for b := a; b < nm; b++ {
				c.resid.SetSym(a, b, cov.At(ja, g.miss[b]))
			}
		}
		return c, nil
	}

	chol, ok := factorize(cov, g.obs)
	if !ok {
		return nil, core.NewSingularCovarianceError(g.key, len(g.obs))
	}
	om := mat.NewDense(len(g.obs), nm, nil)
	for a, ja := range g.obs {
		for b, jb := range g.miss {
			om.Set(a, b, cov.At(ja, jb))
		}
	}
	c.coef = mat.NewDense(len(g.obs), nm, nil)
	if err := chol.SolveTo(c.coef, om); err != nil {
		return nil, core.NewSingularCovarianceError(g.key, len(g.obs))
	}
	var explained mat.Dense
	explained.Mul(om.T(), c.coef)
	for a, ja := range g.miss {
		for b := a; b < nm; b++ {
			c.resid.SetSym(a, b, cov.At(ja, g.miss[b])-explained.At(a, b))
		}
	}
	return c, nil
}

// impute writes the conditional expectation of row i into dst
func (c *conditionalNormal) impute(m mat.Matrix, i int, dst []float64) {
	for k, j := range c.g.obs {
		v := m.At(i, j)
		dst[j] = v
		c.deltaO[k] = v - c.mean[j]
	}
	for b, j := range c.g.miss {
		v := c.mean[j]
		if c.coef != nil {
			for k := range c.g.obs {
				v += c.coef.At(k, b) * c.deltaO[k]
			}
		}
		dst[j] = v
	}
}

// addResidual adds the conditional covariance of the missing block
func (c *conditionalNormal) addResidual(cross *mat.SymDense) {
	if c.resid == nil {
		return
	}
	for a, ja := range c.g.miss {
		for b := a; b < len(c.g.miss); b++ {
			jb := c.g.miss[b]
			cross.SetSym(ja, jb, cross.At(ja, jb)+c.resid.At(a, b))
		}
	}
}

// factorize takes the Cholesky factor of cov restricted to idx. It fails on
// NaN entries and on matrices that are not positive definite.
func factorize(cov mat.Symmetric, idx []int) (*mat.Cholesky, bool) {
	sub := mat.NewSymDense(len(idx), nil)
	for a, ja := range idx {
		for b := a; b < len(idx); b++ {
			v := cov.At(ja, idx[b])
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, false
			}
			sub.SetSym(a, b, v)
		}
	}
	var chol mat.Cholesky
	if !chol.Factorize(sub) {
		return nil, false
	}
	return &chol, true
}
