package amputation

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// weightedSumScores returns one score per row of group: the row values,
// optionally standardized within the group, dotted with weights.
func weightedSumScores(data mat.Matrix, group []int, weights []float64, standardize bool) []float64 {
	cols := len(weights)
	means := make([]float64, cols)
	scales := make([]float64, cols)
	for c := range scales {
		scales[c] = 1
	}

	if standardize {
		column := make([]float64, len(group))
		for c, w := range weights {
			if w == 0 {
				continue
			}
			for i, row := range group {
				column[i] = data.At(row, c)
			}
			if len(group) < 2 {
				scales[c] = 0
				continue
			}
			mean, sd := stat.MeanStdDev(column, nil)
			means[c] = mean
			if sd == 0 || math.IsNaN(sd) {
				scales[c] = 0
			} else {
				scales[c] = 1 / sd
			}
		}
	}

	scores := make([]float64, len(group))
	values := make([]float64, cols)
	for i, row := range group {
		for c, w := range weights {
			if w == 0 {
				values[c] = 0
				continue
			}
			values[c] = (data.At(row, c) - means[c]) * scales[c]
		}
		scores[i] = floats.Dot(values, weights)
	}
	return scores
}
