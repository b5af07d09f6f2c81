// Package calibration searches for the score offset that makes a
// missingness proportion hit its target.
package calibration

import (
	"math"

	"goampute/domain/core"
)

// ProportionFunc maps an offset added to the scores to the resulting
// missingness proportion. It must be nondecreasing in the offset.
type ProportionFunc func(offset float64) float64

// Search bounds one calibration
type Search struct {
	Lower     float64 // initial lower bracket
	Upper     float64 // initial upper bracket
	Tolerance float64 // accepted |proportion - target|
	MaxIter   int     // evaluation budget, bracket widening included
}

// DefaultSearch mirrors the classic ampute defaults
func DefaultSearch() Search {
	return Search{Lower: -3, Upper: 3, Tolerance: 1e-3, MaxIter: 100}
}

// Outcome is the result of a converged search
type Outcome struct {
	Offset     float64
	Proportion float64
	Iterations int
}

// Validate rejects unusable search parameters
func (s Search) Validate() error {
	switch {
	case math.IsNaN(s.Lower) || math.IsNaN(s.Upper) || s.Lower >= s.Upper:
		return core.NewConfigurationError("search range [%g, %g] is empty", s.Lower, s.Upper)
	case !(s.Tolerance > 0):
		return core.NewConfigurationError("tolerance must be positive, got %g", s.Tolerance)
	case s.MaxIter < 1:
		return core.NewConfigurationError("max iterations must be at least 1, got %d", s.MaxIter)
	}
	return nil
}

// bracket widens [lo, hi] geometrically until fn(lo) <= target <= fn(hi),
// or returns early when an endpoint is already within tolerance.
type bracket struct {
	lo, hi   float64
	flo, fhi float64
	iter     int
	done     *Outcome
}

func newBracket(fn ProportionFunc, target float64, s Search) (*bracket, error) {
	b := &bracket{lo: s.Lower, hi: s.Upper}
	b.flo = fn(b.lo)
	b.fhi = fn(b.hi)
	b.iter = 2

	width := b.hi - b.lo
	for b.flo > target+s.Tolerance {
		if b.iter >= s.MaxIter {
			return nil, core.NewCalibrationError(target, b.flo, b.iter)
		}
		b.hi, b.fhi = b.lo, b.flo
		b.lo -= width
		width *= 2
		b.flo = fn(b.lo)
		b.iter++
	}
	width = b.hi - b.lo
	for b.fhi < target-s.Tolerance {
		if b.iter >= s.MaxIter {
			return nil, core.NewCalibrationError(target, b.fhi, b.iter)
		}
		b.lo, b.flo = b.hi, b.fhi
		b.hi += width
		width *= 2
		b.fhi = fn(b.hi)
		b.iter++
	}

	if math.Abs(b.flo-target) <= s.Tolerance {
		b.done = &Outcome{Offset: b.lo, Proportion: b.flo, Iterations: b.iter}
	} else if math.Abs(b.fhi-target) <= s.Tolerance {
		b.done = &Outcome{Offset: b.hi, Proportion: b.fhi, Iterations: b.iter}
	}
	return b, nil
}
