package diagnostics

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// ChiSquarePValue is the upper-tail probability of a chi-square statistic
func ChiSquarePValue(chiSquare float64, degreesOfFreedom int) float64 {
	if degreesOfFreedom <= 0 || math.IsNaN(chiSquare) {
		return math.NaN()
	}
	return distuv.ChiSquared{K: float64(degreesOfFreedom)}.Survival(chiSquare)
}

// TTestPValue is the two-sided p-value of a t statistic. Degrees of freedom
// may be fractional, as with Welch's approximation.
func TTestPValue(tStatistic, degreesOfFreedom float64) float64 {
	if !(degreesOfFreedom > 0) || math.IsNaN(tStatistic) {
		return math.NaN()
	}
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: degreesOfFreedom}
	return 2 * t.Survival(math.Abs(tStatistic))
}
