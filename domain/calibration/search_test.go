package calibration

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"goampute/domain/core"
)

func logistic(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

type strategy interface {
	Name() string
	Calibrate(fn ProportionFunc, target float64, s Search) (Outcome, error)
}

var strategies = []strategy{Bisection{}, FalsePosition{}}

func TestCalibrate_SmoothCurve(t *testing.T) {
	fn := func(b float64) float64 { return logistic(b - 1.2) }

	for _, st := range strategies {
		t.Run(st.Name(), func(t *testing.T) {
			for _, target := range []float64{0.05, 0.3, 0.5, 0.9} {
				out, err := st.Calibrate(fn, target, DefaultSearch())
				require.NoError(t, err)
				assert.InDelta(t, target, out.Proportion, 1e-3)
				assert.InDelta(t, target, fn(out.Offset), 1e-3)
				assert.LessOrEqual(t, out.Iterations, 100)
			}
		})
	}
}

func TestCalibrate_WidensBracket(t *testing.T) {
	// the target sits far outside the initial [-3, 3] range
	fn := func(b float64) float64 { return logistic(b + 25) }

	for _, st := range strategies {
		t.Run(st.Name(), func(t *testing.T) {
			out, err := st.Calibrate(fn, 0.2, DefaultSearch())
			require.NoError(t, err)
			assert.Less(t, out.Offset, -3.0)
			assert.InDelta(t, 0.2, out.Proportion, 1e-3)
		})
	}
}

func TestCalibrate_StepFunction(t *testing.T) {
	// realized proportion over 1000 fixed thresholds
	n := 1000
	thresholds := make([]float64, n)
	for i := range thresholds {
		thresholds[i] = -4 + 8*float64(i)/float64(n)
	}
	fn := func(b float64) float64 {
		count := 0
		for _, th := range thresholds {
			if b > th {
				count++
			}
		}
		return float64(count) / float64(n)
	}

	for _, st := range strategies {
		t.Run(st.Name(), func(t *testing.T) {
			out, err := st.Calibrate(fn, 0.377, DefaultSearch())
			require.NoError(t, err)
			assert.InDelta(t, 0.377, out.Proportion, 1e-3)
		})
	}
}

func TestCalibrate_ExhaustedBudget(t *testing.T) {
	fn := func(b float64) float64 { return logistic(b) }
	s := DefaultSearch()
	s.Tolerance = 1e-15
	s.MaxIter = 5

	for _, st := range strategies {
		t.Run(st.Name(), func(t *testing.T) {
			_, err := st.Calibrate(fn, 0.123456, s)
			require.Error(t, err)
			assert.True(t, errors.Is(err, core.ErrCalibration))
		})
	}
}

func TestCalibrate_UnreachableTarget(t *testing.T) {
	// a proportion that never exceeds 0.5 cannot be calibrated to 0.8
	fn := func(b float64) float64 { return 0.5 * logistic(b) }

	_, err := Bisection{}.Calibrate(fn, 0.8, DefaultSearch())
	assert.True(t, errors.Is(err, core.ErrCalibration))
}

func TestSearch_Validate(t *testing.T) {
	cases := map[string]Search{
		"empty range":  {Lower: 1, Upper: 1, Tolerance: 1e-3, MaxIter: 10},
		"no tolerance": {Lower: -1, Upper: 1, Tolerance: 0, MaxIter: 10},
		"no budget":    {Lower: -1, Upper: 1, Tolerance: 1e-3, MaxIter: 0},
	}
	for name, s := range cases {
		t.Run(name, func(t *testing.T) {
			err := s.Validate()
			assert.True(t, errors.Is(err, core.ErrConfiguration))
		})
	}
	assert.NoError(t, DefaultSearch().Validate())
}
