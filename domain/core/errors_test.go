package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPatternError_Unwraps(t *testing.T) {
	err := NewPatternError(2, ReasonProp, "prop %.2f outside [0,1]", 1.5)

	assert.True(t, errors.Is(err, ErrPattern))
	assert.True(t, IsPatternError(fmt.Errorf("validate: %w", err)))
	assert.Contains(t, err.Error(), "pattern 2")

	reason, ok := PatternReasonOf(fmt.Errorf("wrapped: %w", err))
	assert.True(t, ok)
	assert.Equal(t, ReasonProp, reason)
}

func TestPatternError_SetLevel(t *testing.T) {
	err := NewPatternError(-1, ReasonNoPatterns, "at least one pattern is required")
	assert.NotContains(t, err.Error(), "pattern -1")
}

func TestTaxonomy_Distinct(t *testing.T) {
	errs := []error{
		NewConfigurationError("kind %q", "bogus"),
		NewCalibrationError(0.3, 0.1, 100),
		NewInputError("zero rows"),
		NewSingularCovarianceError("1101", 3),
	}
	sentinels := []error{ErrConfiguration, ErrCalibration, ErrInput, ErrSingularCovariance}

	for i, err := range errs {
		for j, s := range sentinels {
			assert.Equal(t, i == j, errors.Is(err, s), "error %d vs sentinel %d", i, j)
		}
		assert.False(t, errors.Is(err, ErrPattern))
	}
	assert.True(t, IsInputError(errs[2]))
}
