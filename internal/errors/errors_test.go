package errors

import (
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"goampute/domain/core"
)

func TestWrap_KeepsCodeAndCause(t *testing.T) {
	base := ConfigInvalid("AMPUTE_TOLERANCE must be positive")
	wrapped := Wrap(base, "failed to load engine configuration")

	assert.Equal(t, CodeConfigInvalid, GetCode(wrapped))
	assert.Contains(t, wrapped.Error(), "AMPUTE_TOLERANCE")
	assert.True(t, stderrors.Is(wrapped, base))
}

func TestWrap_DomainErrors(t *testing.T) {
	cause := core.NewCalibrationError(0.3, 0.1, 100)

	wrapped := Wrapf(cause, "replicate %d", 4)
	assert.Equal(t, CodeInternalError, GetCode(wrapped))
	assert.True(t, stderrors.Is(wrapped, core.ErrCalibration))

	sim := SimulationFailed(4, cause)
	assert.Equal(t, CodeSimulationFailed, GetCode(sim))
	assert.True(t, stderrors.Is(sim, core.ErrCalibration))
}

func TestNilPassThrough(t *testing.T) {
	assert.Nil(t, Wrap(nil, "x"))
	assert.Nil(t, Wrapf(nil, "x %d", 1))
	assert.Nil(t, WithCode(CodeInvalidInput, nil))
	assert.Equal(t, "UNKNOWN", GetCode(stderrors.New("plain")))
	assert.Equal(t, CodeInvalidInput, GetCode(WithCode(CodeInvalidInput, stderrors.New("plain"))))
}
