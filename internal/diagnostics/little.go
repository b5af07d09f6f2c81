package diagnostics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"goampute/domain/core"
)

// LittleResult is the outcome of Little's MCAR test
type LittleResult struct {
	Statistic     float64               `json:"statistic"`
	PValue        float64               `json:"p_value"`
	DF            int                   `json:"df"`
	Patterns      int                   `json:"patterns"` // patterns contributing to the statistic
	Estimator     Estimator             `json:"estimator"`
	Contributions []PatternContribution `json:"contributions"`
}

// PatternContribution is one pattern's term of the statistic
type PatternContribution struct {
	Pattern   string  `json:"pattern"` // bit string, 1 for observed
	Rows      int     `json:"rows"`
	Observed  int     `json:"observed"`
	Statistic float64 `json:"statistic"`
}

type testConfig struct {
	estimator Estimator
	em        EMOptions
}

// TestOption configures LittleMCARTest
type TestOption func(*testConfig)

// WithEstimator selects the mean/covariance estimator
func WithEstimator(e Estimator) TestOption {
	return func(c *testConfig) { c.estimator = e }
}

// WithEMOptions bounds the EM iteration and implies EstimateEM
func WithEMOptions(opts EMOptions) TestOption {
	return func(c *testConfig) {
		c.estimator = EstimateEM
		c.em = opts
	}
}

// LittleMCARTest computes Little's chi-square statistic for the hypothesis
// that the missingness of m is completely at random.
//
// Each pattern with at least one observed column contributes
// n_j (ȳ_j − μ_j)ᵀ Σ_j⁻¹ (ȳ_j − μ_j) over its observed columns, and the
// degrees of freedom are the summed observed counts minus the column count.
// A covariance submatrix that is not positive definite is reported as
// ErrSingularCovariance rather than pseudo-inverted.
func LittleMCARTest(m mat.Matrix, opts ...TestOption) (LittleResult, error) {
	cfg := testConfig{estimator: EstimatePairwise, em: DefaultEMOptions()}
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := checkIncomplete(m); err != nil {
		return LittleResult{}, err
	}

	var est Moments
	switch cfg.estimator {
	case EstimateEM:
		var err error
		if est, err = EMMoments(m, cfg.em); err != nil {
			return LittleResult{}, err
		}
	default:
		est = PairwiseMoments(m)
	}

	_, cols := m.Dims()
	result := LittleResult{Estimator: cfg.estimator}
	observedTotal := 0
	for _, g := range groupPatterns(m) {
		if len(g.obs) == 0 {
			continue
		}
		chol, ok := factorize(est.Cov, g.obs)
		if !ok {
			return LittleResult{}, core.NewSingularCovarianceError(g.key, len(g.obs))
		}

		diff := make([]float64, len(g.obs))
		for k, j := range g.obs {
			s := 0.0
			for _, i := range g.rows {
				s += m.At(i, j)
			}
			diff[k] = s/float64(len(g.rows)) - est.Mean[j]
		}
		var solved mat.VecDense
		if err := chol.SolveVecTo(&solved, mat.NewVecDense(len(diff), diff)); err != nil {
			return LittleResult{}, core.NewSingularCovarianceError(g.key, len(g.obs))
		}
		term := float64(len(g.rows)) * floats.Dot(diff, solved.RawVector().Data)

		result.Statistic += term
		result.Patterns++
		observedTotal += len(g.obs)
		result.Contributions = append(result.Contributions, PatternContribution{
			Pattern:   g.key,
			Rows:      len(g.rows),
			Observed:  len(g.obs),
			Statistic: term,
		})
	}

	result.DF = observedTotal - cols
	if result.DF <= 0 {
		return LittleResult{}, core.NewInputError("degrees of freedom %d: need more than one pattern with observed columns", result.DF)
	}
	if math.IsNaN(result.Statistic) || math.IsInf(result.Statistic, 0) {
		return LittleResult{}, fmt.Errorf("statistic is %v: %w", result.Statistic, core.ErrSingularCovariance)
	}
	result.PValue = ChiSquarePValue(result.Statistic, result.DF)
	return result, nil
}
