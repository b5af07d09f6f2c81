package run

import (
	"fmt"
	"time"

	"goampute/domain/core"
)

// Manifest records everything needed to replay an amputation run
type Manifest struct {
	RunID       core.RunID `json:"run_id"`
	Rows        int        `json:"rows"`
	Cols        int        `json:"cols"`
	PatternHash core.Hash  `json:"pattern_hash"`
	Settings    string     `json:"settings"` // engine settings that influence the outcome
	Seed        uint64     `json:"seed"`
	Seeded      bool       `json:"seeded"` // false when the process default generator was used
	Fingerprint core.Hash  `json:"fingerprint"`
	CreatedAt   time.Time  `json:"created_at"`
}

// NewManifest creates a manifest with a fresh run ID
func NewManifest(rows, cols int, patternHash core.Hash, settings string, seed uint64, seeded bool) Manifest {
	return Manifest{
		RunID:       core.NewRunID(),
		Rows:        rows,
		Cols:        cols,
		PatternHash: patternHash,
		Settings:    settings,
		Seed:        seed,
		Seeded:      seeded,
		Fingerprint: computeFingerprint(rows, cols, patternHash, settings, seed, seeded),
		CreatedAt:   time.Now().UTC(),
	}
}

// Reproducible reports whether replaying the manifest yields the same matrix
func (m Manifest) Reproducible() bool {
	return m.Seeded
}

// Validate checks if the manifest is complete
func (m Manifest) Validate() error {
	if core.ID(m.RunID).IsEmpty() {
		return fmt.Errorf("run_manifest: run_id cannot be empty")
	}
	if m.PatternHash.IsEmpty() {
		return fmt.Errorf("run_manifest: pattern_hash cannot be empty")
	}
	if m.Rows < 1 || m.Cols < 1 {
		return fmt.Errorf("run_manifest: shape %dx%d is empty", m.Rows, m.Cols)
	}
	if m.Fingerprint != computeFingerprint(m.Rows, m.Cols, m.PatternHash, m.Settings, m.Seed, m.Seeded) {
		return fmt.Errorf("run_manifest: fingerprint does not match contents")
	}
	return nil
}

// computeFingerprint excludes RunID and CreatedAt so identical configurations match
func computeFingerprint(rows, cols int, patternHash core.Hash, settings string, seed uint64, seeded bool) core.Hash {
	seedField := "seed:default"
	if seeded {
		seedField = fmt.Sprintf("seed:%d", seed)
	}
	return core.HashFields(
		fmt.Sprintf("shape:%dx%d", rows, cols),
		"patterns:"+patternHash.String(),
		"settings:"+settings,
		seedField,
	)
}
