package diagnostics

import (
	"math"

	"github.com/montanaflynn/stats"

	"goampute/domain/core"
)

// Profile summarizes the distribution of a sample, such as the per-row
// missingness probabilities of a pattern or the p-values of a replication study
type Profile struct {
	N        int     `json:"n"`
	Mean     float64 `json:"mean"`
	StdDev   float64 `json:"std_dev"`
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Median   float64 `json:"median"`
	Q25      float64 `json:"q25"`
	Q75      float64 `json:"q75"`
	Skewness float64 `json:"skewness"`
}

// ProfileValues computes the summary statistics of data. NaN values are skipped.
func ProfileValues(data []float64) (Profile, error) {
	values := make([]float64, 0, len(data))
	for _, v := range data {
		if !math.IsNaN(v) {
			values = append(values, v)
		}
	}
	if len(values) == 0 {
		return Profile{}, core.NewInputError("no values to profile")
	}

	p := Profile{N: len(values)}
	var err error
	if p.Mean, err = stats.Mean(values); err != nil {
		return Profile{}, err
	}
	if p.StdDev, err = stats.StandardDeviationSample(values); err != nil {
		return Profile{}, err
	}
	if p.Min, err = stats.Min(values); err != nil {
		return Profile{}, err
	}
	if p.Max, err = stats.Max(values); err != nil {
		return Profile{}, err
	}
	if p.Median, err = stats.Median(values); err != nil {
		return Profile{}, err
	}
	if p.Q25, err = stats.Percentile(values, 25); err != nil {
		return Profile{}, err
	}
	if p.Q75, err = stats.Percentile(values, 75); err != nil {
		return Profile{}, err
	}
	p.Skewness = skewness(values, p.Mean, p.StdDev)
	return p, nil
}

// skewness is the adjusted Fisher-Pearson coefficient; zero when undefined
func skewness(data []float64, mean, stdDev float64) float64 {
	if len(data) < 3 || stdDev == 0 || math.IsNaN(stdDev) {
		return 0
	}
	n := float64(len(data))
	sum := 0.0
	for _, x := range data {
		d := (x - mean) / stdDev
		sum += d * d * d
	}
	return sum / n * math.Sqrt(n*(n-1)) / (n - 2)
}
