package ports

import (
	"goampute/domain/calibration"
)

// CalibratorPort searches for the score offset whose missingness proportion
// matches a target. Implementations must not depend on the engine's row or
// pattern bookkeeping.
type CalibratorPort interface {
	Name() string
	Calibrate(fn calibration.ProportionFunc, target float64, s calibration.Search) (calibration.Outcome, error)
}
