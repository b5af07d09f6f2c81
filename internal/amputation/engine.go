// Package amputation turns a complete matrix into an incomplete one by
// applying a set of missingness patterns.
package amputation

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"

	"gonum.org/v1/gonum/mat"

	"goampute/adapters/rng"
	"goampute/domain/calibration"
	"goampute/domain/core"
	"goampute/domain/pattern"
	"goampute/domain/probability"
	"goampute/domain/run"
	"goampute/internal"
	"goampute/ports"
)

// TargetMode selects what the calibration matches against prop
type TargetMode int

const (
	// TargetRealized matches the fraction of rows actually amputed, given
	// the run's fixed per-row uniform draws.
	TargetRealized TargetMode = iota
	// TargetExpected matches the mean calibrated probability; the realized
	// fraction then varies binomially around prop.
	TargetExpected
)

func (m TargetMode) String() string {
	if m == TargetExpected {
		return "expected"
	}
	return "realized"
}

// ParseTargetMode parses "realized" or "expected"
func ParseTargetMode(s string) (TargetMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "realized":
		return TargetRealized, nil
	case "expected":
		return TargetExpected, nil
	}
	return 0, core.NewConfigurationError("unknown calibration target %q", s)
}

// Options tune the engine
type Options struct {
	Search      calibration.Search
	Standardize bool // z-score weighted columns within each pattern group before scoring
	Target      TargetMode
	Partition   PartitionMode
}

// DefaultOptions returns the standard engine settings
func DefaultOptions() Options {
	return Options{
		Search:      calibration.DefaultSearch(),
		Standardize: true,
		Target:      TargetRealized,
		Partition:   PartitionShuffled,
	}
}

// Engine applies validated patterns to complete matrices.
// An Engine holds no per-run state and may be shared between goroutines,
// provided each call gets its own generator.
type Engine struct {
	opts       Options
	calibrator ports.CalibratorPort
	rngs       ports.RNGPort
	logger     *internal.Logger
}

// NewEngine creates an engine. A nil calibrator selects bisection; a nil
// logger selects the default logger.
func NewEngine(opts Options, calibrator ports.CalibratorPort, logger *internal.Logger) *Engine {
	if calibrator == nil {
		calibrator = calibration.Bisection{}
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Engine{
		opts:       opts,
		calibrator: calibrator,
		rngs:       rng.NewSeededRNG(),
		logger:     logger.With("amputation"),
	}
}

// Options returns the engine settings
func (e *Engine) Options() Options { return e.opts }

// PatternOutcome reports what happened to one pattern's row group
type PatternOutcome struct {
	Rows       int     `json:"rows"`
	Amputed    int     `json:"amputed"`
	Offset     float64 `json:"offset"`   // calibrated offset added to the pattern shift
	Realized   float64 `json:"realized"` // Amputed / Rows
	Expected   float64 `json:"expected"` // mean calibrated probability
	Iterations int     `json:"iterations"`
}

// Result is a successful amputation
type Result struct {
	Incomplete    *mat.Dense
	Assignment    []int     // row → pattern index
	Probabilities []float64 // calibrated missingness probability per row
	Amputed       []bool    // whether the row's pattern was applied
	Patterns      []PatternOutcome
	Manifest      run.Manifest
}

// MissingCells counts the NaN cells written by the run
func (r *Result) MissingCells() int {
	rows, cols := r.Incomplete.Dims()
	n := 0
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if math.IsNaN(r.Incomplete.At(i, j)) {
				n++
			}
		}
	}
	return n
}

// Run validates raw patterns against data and amputes reproducibly from seed
func (e *Engine) Run(data mat.Matrix, patterns []pattern.Pattern, seed uint64) (*Result, error) {
	_, cols := data.Dims()
	validated, err := pattern.ValidateSet(patterns, cols)
	if err != nil {
		return nil, err
	}
	return e.AmputateSeed(data, validated, seed)
}

// AmputateSeed amputes with a generator derived from seed; identical inputs
// and seed always give an identical matrix.
func (e *Engine) AmputateSeed(data mat.Matrix, patterns []pattern.ValidatedPattern, seed uint64) (*Result, error) {
	return e.amputate(data, patterns, e.rngs.SeededStream("amputation", seed), seed, true)
}

// Amputate amputes with the caller's generator. A nil generator selects the
// process default, whose results are not reproducible between runs.
func (e *Engine) Amputate(data mat.Matrix, patterns []pattern.ValidatedPattern, r *rand.Rand) (*Result, error) {
	if r == nil {
		return e.amputate(data, patterns, e.rngs.Default(), 0, false)
	}
	return e.amputate(data, patterns, r, 0, false)
}

func (e *Engine) amputate(data mat.Matrix, patterns []pattern.ValidatedPattern, r *rand.Rand, seed uint64, seeded bool) (*Result, error) {
	rows, cols := data.Dims()
	if rows < 1 || cols < 1 {
		return nil, core.NewInputError("matrix is %dx%d, need at least one row and column", rows, cols)
	}
	if len(patterns) == 0 {
		return nil, core.NewPatternError(-1, core.ReasonNoPatterns, "at least one pattern is required")
	}
	if err := e.opts.Search.Validate(); err != nil {
		return nil, err
	}

	freqs := make([]float64, len(patterns))
	for k, p := range patterns {
		if p.Columns() != cols {
			return nil, core.NewInputError("pattern %d was validated for %d columns, matrix has %d", k, p.Columns(), cols)
		}
		freqs[k] = p.Freq()
	}
	freqs, err := pattern.NormalizeFreqs(freqs)
	if err != nil {
		return nil, err
	}
	if err := checkWeightedColumns(data, patterns); err != nil {
		return nil, err
	}

	patternHash := pattern.SetFingerprint(patterns)
	manifest := run.NewManifest(rows, cols, patternHash, e.settings(), seed, seeded)
	e.logger.Info("amputating %dx%d matrix with %d patterns (run %s, fingerprint %s)",
		rows, cols, len(patterns), manifest.RunID, manifest.Fingerprint.Short())
	if !seeded {
		e.logger.Debug("run %s uses an unseeded generator and is not reproducible", manifest.RunID)
	}

	assignment, groups := Partition(rows, freqs, e.opts.Partition, r)

	result := &Result{
		Assignment:    assignment,
		Probabilities: make([]float64, rows),
		Amputed:       make([]bool, rows),
		Patterns:      make([]PatternOutcome, len(patterns)),
		Manifest:      manifest,
	}

	for k, p := range patterns {
		group := groups[k]
		if len(group) == 0 {
			e.logger.Warn("pattern %d received no rows (freq %.4f, %d rows); nothing amputed", k, freqs[k], rows)
			continue
		}
		if p.Mechanism() == pattern.MNAR && hasObservedWeight(p) {
			e.logger.Warn("pattern %d is MNAR but also weights observed columns; did you mean MAR+MNAR?", k)
		}

		dec, err := e.decide(data, group, p, r)
		if err != nil {
			return nil, fmt.Errorf("pattern %d: %w", k, err)
		}
		for i, row := range group {
			result.Probabilities[row] = dec.probs[i]
			result.Amputed[row] = dec.amputed[i]
		}
		out := dec.outcome
		result.Patterns[k] = out
		e.logger.Debug("pattern %d: rows=%d amputed=%d realized=%.4f expected=%.4f offset=%.4f iterations=%d",
			k, out.Rows, out.Amputed, out.Realized, out.Expected, out.Offset, out.Iterations)
	}

	incomplete := mat.DenseCopyOf(data)
	nan := math.NaN()
	for row, hit := range result.Amputed {
		if !hit {
			continue
		}
		p := patterns[assignment[row]]
		for _, c := range p.IncompleteVars() {
			incomplete.Set(row, c, nan)
		}
	}
	result.Incomplete = incomplete
	return result, nil
}

type decision struct {
	probs   []float64
	amputed []bool
	outcome PatternOutcome
}

// decide scores one pattern group, calibrates the offset and draws the
// per-row missingness decisions.
func (e *Engine) decide(data mat.Matrix, group []int, p pattern.ValidatedPattern, r *rand.Rand) (decision, error) {
	n := len(group)
	scores := weightedSumScores(data, group, p.Weights(), e.opts.Standardize)
	curve, err := probability.NewCurve(p.Kind(), probability.Standardize(scores))
	if err != nil {
		return decision{}, err
	}

	// draws are taken for every group so the stream does not depend on prop
	draws := make([]float64, n)
	for i := range draws {
		draws[i] = r.Float64()
	}

	d := decision{
		probs:   make([]float64, n),
		amputed: make([]bool, n),
		outcome: PatternOutcome{Rows: n},
	}
	prop := p.Prop()
	switch {
	case prop == 0:
		return d, nil
	case prop == 1:
		for i := range d.probs {
			d.probs[i] = 1
			d.amputed[i] = true
		}
		d.outcome.Amputed, d.outcome.Realized, d.outcome.Expected = n, 1, 1
		return d, nil
	}

	shift := p.Shift()
	search := e.opts.Search
	var objective calibration.ProportionFunc
	if e.opts.Target == TargetExpected {
		objective = func(b float64) float64 { return curve.Mean(shift + b) }
	} else {
		// a single row moves the realized fraction by 1/n
		search.Tolerance = math.Max(search.Tolerance, 1/float64(n))
		objective = func(b float64) float64 {
			hits := 0
			for i, u := range draws {
				if u < curve.At(i, shift+b) {
					hits++
				}
			}
			return float64(hits) / float64(n)
		}
	}

	out, err := e.calibrator.Calibrate(objective, prop, search)
	if err != nil {
		return decision{}, err
	}

	curve.Fill(d.probs, shift+out.Offset)
	sum := 0.0
	for i, u := range draws {
		sum += d.probs[i]
		if u < d.probs[i] {
			d.amputed[i] = true
			d.outcome.Amputed++
		}
	}
	d.outcome.Offset = out.Offset
	d.outcome.Iterations = out.Iterations
	d.outcome.Realized = float64(d.outcome.Amputed) / float64(n)
	d.outcome.Expected = sum / float64(n)
	return d, nil
}

func (e *Engine) settings() string {
	s := e.opts.Search
	return fmt.Sprintf("calibrator=%s,target=%s,partition=%s,standardize=%t,tol=%g,maxiter=%d,range=%g:%g",
		e.calibrator.Name(), e.opts.Target, e.opts.Partition, e.opts.Standardize,
		s.Tolerance, s.MaxIter, s.Lower, s.Upper)
}

// checkWeightedColumns rejects missing or infinite values in any column a
// pattern uses for scoring.
func checkWeightedColumns(data mat.Matrix, patterns []pattern.ValidatedPattern) error {
	rows, cols := data.Dims()
	weighted := make([]bool, cols)
	for _, p := range patterns {
		for _, c := range p.WeightedColumns() {
			weighted[c] = true
		}
	}
	for c, w := range weighted {
		if !w {
			continue
		}
		for i := 0; i < rows; i++ {
			v := data.At(i, c)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return core.NewInputError("column %d is used for scoring but row %d holds %v", c, i, v)
			}
		}
	}
	return nil
}

func hasObservedWeight(p pattern.ValidatedPattern) bool {
	for _, c := range p.WeightedColumns() {
		if !p.Amputes(c) {
			return true
		}
	}
	return false
}

// Amputate validates patterns and amputes data with default engine settings,
// reproducibly from seed.
func Amputate(data mat.Matrix, patterns []pattern.Pattern, seed uint64) (*Result, error) {
	return NewEngine(DefaultOptions(), nil, nil).Run(data, patterns, seed)
}

// AmputateDefault is Amputate on the process-wide generator. Repeated calls
// give different matrices and are not reproducible across runs.
func AmputateDefault(data mat.Matrix, patterns []pattern.Pattern) (*Result, error) {
	_, cols := data.Dims()
	validated, err := pattern.ValidateSet(patterns, cols)
	if err != nil {
		return nil, err
	}
	return NewEngine(DefaultOptions(), nil, nil).Amputate(data, validated, nil)
}

// FromRows builds a matrix from row slices of equal length
func FromRows(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, core.NewInputError("matrix needs at least one row and column")
	}
	cols := len(rows[0])
	flat := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, core.NewInputError("row %d has %d values, expected %d", i, len(row), cols)
		}
		flat = append(flat, row...)
	}
	return mat.NewDense(len(rows), cols, flat), nil
}
