// Package pattern holds the declarative description of a missingness
// pattern and its validated, dense form.
package pattern

import (
	"strings"

	"goampute/domain/core"
	"goampute/domain/probability"
)

// Mechanism is the missing-data mechanism a pattern simulates
type Mechanism string

const (
	MCAR    Mechanism = "MCAR"
	MAR     Mechanism = "MAR"
	MNAR    Mechanism = "MNAR"
	MARMNAR Mechanism = "MAR+MNAR"
)

// DefaultMechanism is used when a pattern leaves Mechanism empty
const DefaultMechanism = MAR

// ParseMechanism accepts mechanism names case-insensitively
func ParseMechanism(s string) (Mechanism, bool) {
	switch m := Mechanism(strings.ToUpper(strings.TrimSpace(s))); m {
	case "":
		return DefaultMechanism, true
	case MCAR, MAR, MNAR, MARMNAR:
		return m, true
	case "MNAR+MAR":
		return MARMNAR, true
	}
	return "", false
}

// Pattern is one caller-supplied missingness pattern.
//
// Weights nil means "default for the mechanism": MCAR all zero, MAR 1 on
// every column outside IncompleteVars, MNAR 1 on every incomplete column.
// Freq 0 on every pattern of a set means equal frequencies.
type Pattern struct {
	IncompleteVars []int            `yaml:"incomplete_vars" json:"incomplete_vars"`
	Weights        map[int]float64  `yaml:"weights,omitempty" json:"weights,omitempty"`
	Mechanism      Mechanism        `yaml:"mechanism,omitempty" json:"mechanism,omitempty"`
	Freq           float64          `yaml:"freq,omitempty" json:"freq,omitempty"`
	Prop           float64          `yaml:"prop" json:"prop"`
	Kind           probability.Kind `yaml:"kind,omitempty" json:"kind,omitempty"`
	Shift          float64          `yaml:"shift,omitempty" json:"shift,omitempty"`
}

// ValidatedPattern is the immutable, dense form of a Pattern
type ValidatedPattern struct {
	index     int
	columns   int
	amputed   []bool
	weights   []float64
	mechanism Mechanism
	freq      float64
	prop      float64
	kind      probability.Kind
	shift     float64
}

func (v ValidatedPattern) Index() int             { return v.index }
func (v ValidatedPattern) Columns() int           { return v.columns }
func (v ValidatedPattern) Mechanism() Mechanism   { return v.mechanism }
func (v ValidatedPattern) Freq() float64          { return v.freq }
func (v ValidatedPattern) Prop() float64          { return v.prop }
func (v ValidatedPattern) Kind() probability.Kind { return v.kind }
func (v ValidatedPattern) Shift() float64         { return v.shift }
func (v ValidatedPattern) Amputes(col int) bool   { return v.amputed[col] }
func (v ValidatedPattern) Weight(col int) float64 { return v.weights[col] }

// Weights returns a copy of the dense weight vector
func (v ValidatedPattern) Weights() []float64 {
	out := make([]float64, len(v.weights))
	copy(out, v.weights)
	return out
}

// IncompleteVars returns the amputed columns in ascending order
func (v ValidatedPattern) IncompleteVars() []int {
	var out []int
	for c, a := range v.amputed {
		if a {
			out = append(out, c)
		}
	}
	return out
}

// WeightedColumns returns the columns carrying a nonzero weight
func (v ValidatedPattern) WeightedColumns() []int {
	var out []int
	for c, w := range v.weights {
		if w != 0 {
			out = append(out, c)
		}
	}
	return out
}

// ObservedIndicator returns 1 for every column the pattern keeps, 0 for amputed ones
func (v ValidatedPattern) ObservedIndicator() []int {
	out := make([]int, len(v.amputed))
	for c, a := range v.amputed {
		if !a {
			out[c] = 1
		}
	}
	return out
}

// Fingerprint hashes everything that influences amputation
func (v ValidatedPattern) Fingerprint() core.Hash {
	weights := make(map[int]float64, len(v.weights))
	for c, w := range v.weights {
		if w != 0 {
			weights[c] = w
		}
	}
	return core.HashFields(
		"cols:"+itoa(v.columns),
		"amputed:"+joinInts(v.IncompleteVars()),
		"weights:"+core.SortedPairs(weights),
		"mechanism:"+string(v.mechanism),
		"freq:"+ftoa(v.freq),
		"prop:"+ftoa(v.prop),
		"kind:"+string(v.kind),
		"shift:"+ftoa(v.shift),
	)
}

// SetFingerprint hashes an ordered pattern set
func SetFingerprint(vs []ValidatedPattern) core.Hash {
	fields := make([]string, len(vs))
	for i, v := range vs {
		fields[i] = v.Fingerprint().String()
	}
	return core.HashFields(fields...)
}
