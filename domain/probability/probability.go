// Package probability maps standardized missingness scores to per-row
// missingness probabilities.
package probability

import (
	"math"
	"strings"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"goampute/domain/calibration"
	"goampute/domain/core"
)

// Kind selects the shape of the score-to-probability mapping
type Kind string

const (
	// Logistic is a unit-slope sigmoid centred on the standardized mean.
	Logistic Kind = "LOGISTIC"
	// SigmoidRight gives high scores a high probability, with a steeper cutoff.
	SigmoidRight Kind = "SIGMOID-RIGHT"
	// SigmoidLeft gives low scores a high probability.
	SigmoidLeft Kind = "SIGMOID-LEFT"
	// SigmoidMid gives scores near the median a high probability.
	SigmoidMid Kind = "SIGMOID-MID"
	// SigmoidTail gives both extremes a high probability.
	SigmoidTail Kind = "SIGMOID-TAIL"
)

// DefaultKind is used when a pattern does not name one
const DefaultKind = SigmoidRight

const (
	tailSlope  = 2.0
	bumpCentre = 0.75
)

var aliases = map[string]Kind{
	"LOGISTIC":       Logistic,
	"SIGMOID-LINEAR": Logistic,
	"LINEAR":         Logistic,
	"SIGMOID-RIGHT":  SigmoidRight,
	"RIGHT":          SigmoidRight,
	"SIGMOID-LEFT":   SigmoidLeft,
	"LEFT":           SigmoidLeft,
	"SIGMOID-MID":    SigmoidMid,
	"MID":            SigmoidMid,
	"SIGMOID-TAIL":   SigmoidTail,
	"TAIL":           SigmoidTail,
}

// ParseKind accepts kind names case-insensitively, with '-' or '_' separators.
// An empty string yields DefaultKind.
func ParseKind(s string) (Kind, error) {
	norm := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "_", "-"))
	if norm == "" {
		return DefaultKind, nil
	}
	if k, ok := aliases[norm]; ok {
		return k, nil
	}
	return "", core.NewConfigurationError("unknown probability function kind %q", s)
}

// Kinds lists the supported kinds in a stable order
func Kinds() []Kind {
	return []Kind{Logistic, SigmoidRight, SigmoidLeft, SigmoidMid, SigmoidTail}
}

// Sigmoid is the logistic function. It saturates to 0 or 1 for extreme
// inputs instead of overflowing.
func Sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

// Standardize returns z-scores. A constant or single-element vector maps to zeros.
func Standardize(scores []float64) []float64 {
	z := make([]float64, len(scores))
	if len(scores) < 2 {
		return z
	}
	mean, sd := stat.MeanStdDev(scores, nil)
	if sd == 0 || math.IsNaN(sd) || math.IsInf(sd, 0) {
		return z
	}
	for i, s := range scores {
		z[i] = (s - mean) / sd
	}
	return z
}

// Curve is one probability function bound to a standardized score vector.
// The probability of row i at offset b is Sigmoid(base[i] + b), so every
// curve is nondecreasing in b.
type Curve struct {
	kind Kind
	base []float64
}

// NewCurve precomputes the pre-sigmoid argument of every score
func NewCurve(kind Kind, z []float64) (*Curve, error) {
	base := make([]float64, len(z))
	switch kind {
	case Logistic:
		copy(base, z)
	case SigmoidRight:
		for i, v := range z {
			base[i] = tailSlope * v
		}
	case SigmoidLeft:
		for i, v := range z {
			base[i] = -tailSlope * v
		}
	case SigmoidMid, SigmoidTail:
		if len(z) > 0 {
			median, err := stats.Median(z)
			if err != nil {
				return nil, core.NewConfigurationError("median of scores: %v", err)
			}
			for i, v := range z {
				d := math.Abs(v - median)
				if kind == SigmoidMid {
					base[i] = -d + bumpCentre
				} else {
					base[i] = d - bumpCentre
				}
			}
		}
	default:
		return nil, core.NewConfigurationError("unknown probability function kind %q", kind)
	}
	return &Curve{kind: kind, base: base}, nil
}

// Kind returns the curve's shape
func (c *Curve) Kind() Kind { return c.kind }

// Len returns the number of scores
func (c *Curve) Len() int { return len(c.base) }

// At returns the probability of row i at the given offset
func (c *Curve) At(i int, offset float64) float64 {
	return Sigmoid(c.base[i] + offset)
}

// Fill writes every probability at the given offset into dst, allocating when dst is short
func (c *Curve) Fill(dst []float64, offset float64) []float64 {
	if len(dst) < len(c.base) {
		dst = make([]float64, len(c.base))
	}
	for i, v := range c.base {
		dst[i] = Sigmoid(v + offset)
	}
	return dst[:len(c.base)]
}

// Mean returns the expected missingness proportion at the given offset
func (c *Curve) Mean(offset float64) float64 {
	if len(c.base) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range c.base {
		sum += Sigmoid(v + offset)
	}
	return sum / float64(len(c.base))
}

// Apply standardizes scores and evaluates kind at the given shift, without calibration
func Apply(kind Kind, scores []float64, shift float64) ([]float64, error) {
	curve, err := NewCurve(kind, Standardize(scores))
	if err != nil {
		return nil, err
	}
	return curve.Fill(nil, shift), nil
}

// Calibrate returns one probability per score whose mean is targetProp.
// The shift biases the curve before the offset search; targetProp 0 and 1
// are exact (all zeros, all ones).
func Calibrate(scores []float64, targetProp, shift float64, kind Kind) ([]float64, error) {
	if math.IsNaN(targetProp) || targetProp < 0 || targetProp > 1 {
		return nil, core.NewConfigurationError("target proportion %g outside [0,1]", targetProp)
	}
	curve, err := NewCurve(kind, Standardize(scores))
	if err != nil {
		return nil, err
	}

	probs := make([]float64, len(scores))
	switch {
	case len(scores) == 0 || targetProp == 0:
		return probs, nil
	case targetProp == 1:
		for i := range probs {
			probs[i] = 1
		}
		return probs, nil
	}

	out, err := calibration.Bisection{}.Calibrate(func(b float64) float64 {
		return curve.Mean(shift + b)
	}, targetProp, calibration.DefaultSearch())
	if err != nil {
		return nil, err
	}
	return curve.Fill(probs, shift+out.Offset), nil
}
