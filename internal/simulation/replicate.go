// Package simulation repeats amputation over independent seeds and collects
// the distribution of MCAR test results.
package simulation

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"goampute/adapters/rng"
	"goampute/domain/pattern"
	"goampute/internal"
	"goampute/internal/amputation"
	"goampute/internal/diagnostics"
	apperrors "goampute/internal/errors"
)

// Config controls a replication study
type Config struct {
	Runs        int
	Seed        uint64 // base seed; per-run seeds are derived from it
	Concurrency int
	Alpha       float64 // significance level for the rejection rate
	Estimator   diagnostics.Estimator
}

// DefaultConfig returns 200 runs at alpha 0.05 on every available CPU
func DefaultConfig() Config {
	return Config{
		Runs:        200,
		Seed:        1,
		Concurrency: runtime.GOMAXPROCS(0),
		Alpha:       0.05,
		Estimator:   diagnostics.EstimatePairwise,
	}
}

// RunOutcome is one replicate
type RunOutcome struct {
	Run          int
	Seed         uint64
	Statistic    float64
	PValue       float64
	MissingCells int
	Err          error
}

// Report aggregates a replication study
type Report struct {
	Runs          int
	Failures      int
	PValues       []float64 // successful runs in run order
	MedianPValue  float64
	MeanPValue    float64
	RejectionRate float64 // share of successful runs with p < Alpha
	PValueProfile diagnostics.Profile
	Outcomes      []RunOutcome
}

// Replicator runs replication studies on one engine
type Replicator struct {
	engine *amputation.Engine
	logger *internal.Logger
}

// NewReplicator creates a replicator; a nil logger selects the default logger
func NewReplicator(engine *amputation.Engine, logger *internal.Logger) *Replicator {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Replicator{engine: engine, logger: logger.With("simulation")}
}

// Replicate amputes data cfg.Runs times with independent seeds and runs
// Little's test on each result. A failing run is recorded in its outcome;
// the study fails only when ctx is cancelled or every run fails.
func (r *Replicator) Replicate(ctx context.Context, data mat.Matrix, patterns []pattern.ValidatedPattern, cfg Config) (*Report, error) {
	if cfg.Runs < 1 {
		return nil, apperrors.ConfigInvalid(fmt.Sprintf("runs must be positive, got %d", cfg.Runs))
	}
	if !(cfg.Alpha > 0 && cfg.Alpha < 1) {
		return nil, apperrors.ConfigInvalid(fmt.Sprintf("alpha must be in (0, 1), got %g", cfg.Alpha))
	}
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}

	// seeds are fixed up front so results do not depend on scheduling
	seeder := rng.NewSeededRNG().SeededStream("replicate", cfg.Seed)
	outcomes := make([]RunOutcome, cfg.Runs)
	for i := range outcomes {
		outcomes[i] = RunOutcome{Run: i, Seed: seeder.Uint64()}
	}

	r.logger.Info("replicating %d runs (concurrency %d, base seed %d)", cfg.Runs, cfg.Concurrency, cfg.Seed)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(cfg.Concurrency)
	for i := range outcomes {
		out := &outcomes[i]
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			res, err := r.engine.AmputateSeed(data, patterns, out.Seed)
			if err != nil {
				out.Err = apperrors.SimulationFailed(out.Run, err)
				return nil
			}
			out.MissingCells = res.MissingCells()
			little, err := diagnostics.LittleMCARTest(res.Incomplete, diagnostics.WithEstimator(cfg.Estimator))
			if err != nil {
				out.Err = apperrors.SimulationFailed(out.Run, err)
				return nil
			}
			out.Statistic, out.PValue = little.Statistic, little.PValue
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Runs: cfg.Runs, Outcomes: outcomes}
	var firstErr error
	rejected := 0
	for _, out := range outcomes {
		if out.Err != nil {
			report.Failures++
			if firstErr == nil {
				firstErr = out.Err
			}
			r.logger.Debug("run %d (seed %d): %v", out.Run, out.Seed, out.Err)
			continue
		}
		report.PValues = append(report.PValues, out.PValue)
		if out.PValue < cfg.Alpha {
			rejected++
		}
	}
	if len(report.PValues) == 0 {
		return nil, apperrors.Wrapf(firstErr, "all %d runs failed", cfg.Runs)
	}
	if report.Failures > 0 {
		r.logger.Warn("%d of %d runs failed; first: %v", report.Failures, cfg.Runs, firstErr)
	}

	profile, err := diagnostics.ProfileValues(report.PValues)
	if err != nil {
		return nil, apperrors.Wrap(err, "profile p-values")
	}
	report.PValueProfile = profile
	report.MedianPValue, report.MeanPValue = profile.Median, profile.Mean
	report.RejectionRate = float64(rejected) / float64(len(report.PValues))

	r.logger.Info("replication done: median p=%.4f rejection rate=%.3f failures=%d",
		report.MedianPValue, report.RejectionRate, report.Failures)
	return report, nil
}

// Replicate runs a replication study with a default-logged replicator
func Replicate(ctx context.Context, engine *amputation.Engine, data mat.Matrix, patterns []pattern.ValidatedPattern, cfg Config) (*Report, error) {
	return NewReplicator(engine, nil).Replicate(ctx, data, patterns, cfg)
}
