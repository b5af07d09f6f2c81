package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// TTestResult holds Welch t statistics for every column pair. Entry (i, j)
// compares the mean of column j in rows where column i is observed against
// rows where it is missing. Undefined entries are NaN.
type TTestResult struct {
	Statistic *mat.Dense
	PValue    *mat.Dense
	DF        *mat.Dense
}

// MCARTTests computes the per-pair Welch t statistics. It is a companion to
// LittleMCARTest, not a global test.
func MCARTTests(m mat.Matrix) (TTestResult, error) {
	if err := checkIncomplete(m); err != nil {
		return TTestResult{}, err
	}
	rows, cols := m.Dims()
	res := TTestResult{
		Statistic: mat.NewDense(cols, cols, nil),
		PValue:    mat.NewDense(cols, cols, nil),
		DF:        mat.NewDense(cols, cols, nil),
	}

	observed := make([]float64, 0, rows)
	missing := make([]float64, 0, rows)
	for i := 0; i < cols; i++ {
		for j := 0; j < cols; j++ {
			t, df := math.NaN(), math.NaN()
			if i != j {
				observed, missing = observed[:0], missing[:0]
				for r := 0; r < rows; r++ {
					v := m.At(r, j)
					if math.IsNaN(v) {
						continue
					}
					if math.IsNaN(m.At(r, i)) {
						missing = append(missing, v)
					} else {
						observed = append(observed, v)
					}
				}
				t, df = welch(observed, missing)
			}
			res.Statistic.Set(i, j, t)
			res.DF.Set(i, j, df)
			res.PValue.Set(i, j, TTestPValue(t, df))
		}
	}
	return res, nil
}

// welch returns the Welch t statistic of mean(a) − mean(b) and its
// Welch–Satterthwaite degrees of freedom
func welch(a, b []float64) (float64, float64) {
	if len(a) < 2 || len(b) < 2 {
		return math.NaN(), math.NaN()
	}
	n1, n2 := float64(len(a)), float64(len(b))
	mean1, var1 := stat.MeanVariance(a, nil)
	mean2, var2 := stat.MeanVariance(b, nil)

	s1, s2 := var1/n1, var2/n2
	se := math.Sqrt(s1 + s2)
	if se == 0 {
		return math.NaN(), math.NaN()
	}
	df := (s1 + s2) * (s1 + s2) / (s1*s1/(n1-1) + s2*s2/(n2-1))
	return (mean1 - mean2) / se, df
}
