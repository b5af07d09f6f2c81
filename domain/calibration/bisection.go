package calibration

import (
	"math"

	"goampute/domain/core"
)

// Bisection halves the bracket until the proportion is within tolerance.
// It is robust for step-shaped proportion functions.
type Bisection struct{}

// Name identifies the strategy in logs and configuration
func (Bisection) Name() string { return "bisection" }

// Calibrate returns the offset whose proportion is within tolerance of target
func (Bisection) Calibrate(fn ProportionFunc, target float64, s Search) (Outcome, error) {
	if err := s.Validate(); err != nil {
		return Outcome{}, err
	}
	b, err := newBracket(fn, target, s)
	if err != nil {
		return Outcome{}, err
	}
	if b.done != nil {
		return *b.done, nil
	}

	last := b.flo
	for b.iter < s.MaxIter {
		mid := b.lo + (b.hi-b.lo)/2
		f := fn(mid)
		b.iter++
		last = f
		if math.Abs(f-target) <= s.Tolerance {
			return Outcome{Offset: mid, Proportion: f, Iterations: b.iter}, nil
		}
		if f > target {
			b.hi = mid
		} else {
			b.lo = mid
		}
	}
	return Outcome{}, core.NewCalibrationError(target, last, b.iter)
}
