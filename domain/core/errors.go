package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error taxonomy
var (
	// ErrConfiguration covers malformed probability-function kinds or engine parameters.
	ErrConfiguration = errors.New("configuration error")
	// ErrPattern covers invalid pattern fields and mechanism/weight contradictions.
	ErrPattern = errors.New("pattern error")
	// ErrCalibration is returned when the proportion search exhausts its iteration budget.
	ErrCalibration = errors.New("calibration error")
	// ErrInput covers degenerate matrices.
	ErrInput = errors.New("input error")
	// ErrSingularCovariance is returned when a pattern's covariance submatrix cannot be inverted.
	ErrSingularCovariance = errors.New("singular covariance")
)

// PatternReason identifies why a pattern failed validation
type PatternReason string

const (
	ReasonNoPatterns           PatternReason = "no_patterns"
	ReasonEmptyIncomplete      PatternReason = "empty_incomplete_vars"
	ReasonIncompleteRange      PatternReason = "incomplete_var_out_of_range"
	ReasonDuplicateIncomplete  PatternReason = "duplicate_incomplete_var"
	ReasonWeightRange          PatternReason = "weight_column_out_of_range"
	ReasonWeightNotFinite      PatternReason = "weight_not_finite"
	ReasonMCARWeights          PatternReason = "mcar_nonzero_weight"
	ReasonMARWeightsIncomplete PatternReason = "mar_weight_on_incomplete_var"
	ReasonMARAllColumns        PatternReason = "mar_amputes_all_columns"
	ReasonMNARNoWeight         PatternReason = "mnar_zero_weight_on_incomplete_vars"
	ReasonMixedNeedsWeights    PatternReason = "mar_mnar_requires_weights"
	ReasonZeroWeights          PatternReason = "all_zero_weights"
	ReasonProp                 PatternReason = "prop_out_of_range"
	ReasonFreq                 PatternReason = "freq_negative"
	ReasonFreqSum              PatternReason = "freq_sum_not_positive"
	ReasonMechanism            PatternReason = "unknown_mechanism"
)

// PatternError describes a validation failure for one pattern.
// Index is -1 when the failure concerns the pattern set as a whole.
type PatternError struct {
	Index  int
	Reason PatternReason
	Detail string
}

func (e *PatternError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s: %s", ErrPattern, e.Reason, e.Detail)
	}
	return fmt.Sprintf("%s: pattern %d: %s: %s", ErrPattern, e.Index, e.Reason, e.Detail)
}

func (e *PatternError) Unwrap() error {
	return ErrPattern
}

// Error constructors with context
func NewPatternError(index int, reason PatternReason, format string, args ...interface{}) error {
	return &PatternError{Index: index, Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func NewConfigurationError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func NewCalibrationError(target, reached float64, iterations int) error {
	return fmt.Errorf("%w: target proportion %.4f not reached after %d iterations (last %.4f)",
		ErrCalibration, target, iterations, reached)
}

func NewInputError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInput, fmt.Sprintf(format, args...))
}

func NewSingularCovarianceError(pattern string, observed int) error {
	return fmt.Errorf("%w: pattern %s (%d observed columns)", ErrSingularCovariance, pattern, observed)
}

// Error checking helpers
func IsPatternError(err error) bool {
	return errors.Is(err, ErrPattern)
}

func IsInputError(err error) bool {
	return errors.Is(err, ErrInput)
}

// PatternReasonOf extracts the validation reason, if err is a PatternError
func PatternReasonOf(err error) (PatternReason, bool) {
	var pe *PatternError
	if errors.As(err, &pe) {
		return pe.Reason, true
	}
	return "", false
}
