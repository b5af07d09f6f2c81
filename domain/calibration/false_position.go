package calibration

import (
	"math"

	"goampute/domain/core"
)

// FalsePosition is the Illinois variant of regula falsi: a secant step that
// keeps the root bracketed. It usually needs fewer evaluations than
// bisection on smooth proportion curves.
type FalsePosition struct{}

// Name identifies the strategy in logs and configuration
func (FalsePosition) Name() string { return "false-position" }

// Calibrate returns the offset whose proportion is within tolerance of target
func (FalsePosition) Calibrate(fn ProportionFunc, target float64, s Search) (Outcome, error) {
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

	glo, ghi := b.flo-target, b.fhi-target
	side := 0
	last := b.flo
	for b.iter < s.MaxIter {
		x := b.lo + (b.hi-b.lo)/2
		if denom := ghi - glo; denom != 0 {
			x = (b.lo*ghi - b.hi*glo) / denom
		}
		// a degenerate secant (flat plateau) falls back to the midpoint
		if !(x > b.lo && x < b.hi) {
			x = b.lo + (b.hi-b.lo)/2
		}

		f := fn(x)
		b.iter++
		last = f
		g := f - target
		if math.Abs(g) <= s.Tolerance {
			return Outcome{Offset: x, Proportion: f, Iterations: b.iter}, nil
		}

		if g > 0 {
			b.hi, ghi = x, g
			if side == 1 {
				glo /= 2
			}
			side = 1
		} else {
			b.lo, glo = x, g
			if side == -1 {
				ghi /= 2
			}
			side = -1
		}
	}
	return Outcome{}, core.NewCalibrationError(target, last, b.iter)
}
