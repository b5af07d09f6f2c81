package pattern

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"goampute/domain/core"
	"goampute/domain/probability"
)

// Validate checks one pattern against a matrix with nColumns columns and
// returns its dense form. Freq is kept as given; ValidateSet normalizes it.
func Validate(p Pattern, nColumns int) (ValidatedPattern, error) {
	return validate(0, p, nColumns)
}

// ValidateSet validates every pattern and normalizes their frequencies
func ValidateSet(ps []Pattern, nColumns int) ([]ValidatedPattern, error) {
	if len(ps) == 0 {
		return nil, core.NewPatternError(-1, core.ReasonNoPatterns, "at least one pattern is required")
	}

	out := make([]ValidatedPattern, len(ps))
	freqs := make([]float64, len(ps))
	for i, p := range ps {
		v, err := validate(i, p, nColumns)
		if err != nil {
			return nil, err
		}
		out[i] = v
		freqs[i] = v.freq
	}

	norm, err := NormalizeFreqs(freqs)
	if err != nil {
		return nil, err
	}
	for i := range out {
		out[i].freq = norm[i]
	}
	return out, nil
}

// NormalizeFreqs scales frequencies to sum to 1. All-zero input means
// "unspecified" and yields equal frequencies.
func NormalizeFreqs(freqs []float64) ([]float64, error) {
	if len(freqs) == 0 {
		return nil, core.NewPatternError(-1, core.ReasonNoPatterns, "at least one pattern is required")
	}
	sum := 0.0
	for i, f := range freqs {
		if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
			return nil, core.NewPatternError(i, core.ReasonFreq, "freq %g must be a finite non-negative number", f)
		}
		sum += f
	}

	out := make([]float64, len(freqs))
	if sum == 0 {
		for i := range out {
			out[i] = 1 / float64(len(freqs))
		}
		return out, nil
	}
	for i, f := range freqs {
		out[i] = f / sum
	}
	return out, nil
}

func validate(idx int, p Pattern, nColumns int) (ValidatedPattern, error) {
	if nColumns < 1 {
		return ValidatedPattern{}, core.NewInputError("matrix has no columns")
	}

	mech, ok := ParseMechanism(string(p.Mechanism))
	if !ok {
		return ValidatedPattern{}, core.NewPatternError(idx, core.ReasonMechanism, "unknown mechanism %q", p.Mechanism)
	}
	kind, err := probability.ParseKind(string(p.Kind))
	if err != nil {
		return ValidatedPattern{}, fmt.Errorf("pattern %d: %w", idx, err)
	}

	if len(p.IncompleteVars) == 0 {
		return ValidatedPattern{}, core.NewPatternError(idx, core.ReasonEmptyIncomplete, "incomplete_vars is empty")
	}
	amputed := make([]bool, nColumns)
	for _, c := range p.IncompleteVars {
		if c < 0 || c >= nColumns {
			return ValidatedPattern{}, core.NewPatternError(idx, core.ReasonIncompleteRange,
				"column %d outside [0,%d)", c, nColumns)
		}
		if amputed[c] {
			return ValidatedPattern{}, core.NewPatternError(idx, core.ReasonDuplicateIncomplete, "column %d listed twice", c)
		}
		amputed[c] = true
	}

	if math.IsNaN(p.Prop) || p.Prop < 0 || p.Prop > 1 {
		return ValidatedPattern{}, core.NewPatternError(idx, core.ReasonProp, "prop %g outside [0,1]", p.Prop)
	}
	if math.IsNaN(p.Freq) || math.IsInf(p.Freq, 0) || p.Freq < 0 {
		return ValidatedPattern{}, core.NewPatternError(idx, core.ReasonFreq, "freq %g must be a finite non-negative number", p.Freq)
	}
	if math.IsNaN(p.Shift) || math.IsInf(p.Shift, 0) {
		return ValidatedPattern{}, fmt.Errorf("pattern %d: %w", idx,
			core.NewConfigurationError("shift %g must be finite", p.Shift))
	}

	weights, err := denseWeights(idx, p.Weights, mech, amputed)
	if err != nil {
		return ValidatedPattern{}, err
	}
	if err := checkMechanism(idx, mech, weights, amputed); err != nil {
		return ValidatedPattern{}, err
	}

	return ValidatedPattern{
		index:     idx,
		columns:   nColumns,
		amputed:   amputed,
		weights:   weights,
		mechanism: mech,
		freq:      p.Freq,
		prop:      p.Prop,
		kind:      kind,
		shift:     p.Shift,
	}, nil
}

func denseWeights(idx int, given map[int]float64, mech Mechanism, amputed []bool) ([]float64, error) {
	weights := make([]float64, len(amputed))
	if given == nil {
		switch mech {
		case MAR:
			for c, a := range amputed {
				if !a {
					weights[c] = 1
				}
			}
		case MNAR:
			for c, a := range amputed {
				if a {
					weights[c] = 1
				}
			}
		case MARMNAR:
			return nil, core.NewPatternError(idx, core.ReasonMixedNeedsWeights, "MAR+MNAR needs explicit weights")
		}
		return weights, nil
	}

	for c, w := range given {
		if c < 0 || c >= len(amputed) {
			return nil, core.NewPatternError(idx, core.ReasonWeightRange, "weight column %d outside [0,%d)", c, len(amputed))
		}
		if math.IsNaN(w) || math.IsInf(w, 0) {
			return nil, core.NewPatternError(idx, core.ReasonWeightNotFinite, "weight %g on column %d", w, c)
		}
		weights[c] = w
	}
	return weights, nil
}

func checkMechanism(idx int, mech Mechanism, weights []float64, amputed []bool) error {
	var onAmputed, onObserved, observedCols int
	for c, w := range weights {
		if !amputed[c] {
			observedCols++
		}
		if w == 0 {
			continue
		}
		if amputed[c] {
			onAmputed++
		} else {
			onObserved++
		}
	}

	switch mech {
	case MCAR:
		if onAmputed+onObserved > 0 {
			return core.NewPatternError(idx, core.ReasonMCARWeights, "MCAR pattern has %d nonzero weights", onAmputed+onObserved)
		}
	case MAR:
		if observedCols == 0 {
			return core.NewPatternError(idx, core.ReasonMARAllColumns, "MAR cannot ampute every column")
		}
		if onAmputed > 0 {
			return core.NewPatternError(idx, core.ReasonMARWeightsIncomplete,
				"MAR pattern weights %d amputed columns", onAmputed)
		}
		if onObserved == 0 {
			return core.NewPatternError(idx, core.ReasonZeroWeights, "MAR pattern has all-zero weights")
		}
	case MNAR:
		if onAmputed == 0 {
			return core.NewPatternError(idx, core.ReasonMNARNoWeight, "MNAR pattern weights no amputed column")
		}
	case MARMNAR:
		if onAmputed+onObserved == 0 {
			return core.NewPatternError(idx, core.ReasonZeroWeights, "MAR+MNAR pattern has all-zero weights")
		}
	}
	return nil
}

// Default returns the classic single pattern: a random half of the columns
// amputed under MAR with a right-tailed sigmoid and prop 0.5.
func Default(nColumns int, rng *rand.Rand) Pattern {
	k := nColumns / 2
	if k < 1 {
		k = 1
	}
	vars := rng.Perm(nColumns)[:k]
	sort.Ints(vars)
	return Pattern{
		IncompleteVars: vars,
		Mechanism:      MAR,
		Freq:           1,
		Prop:           0.5,
		Kind:           probability.SigmoidRight,
	}
}

func itoa(i int) string { return strconv.Itoa(i) }

func ftoa(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func joinInts(xs []int) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = strconv.Itoa(x)
	}
	return strings.Join(parts, ",")
}
