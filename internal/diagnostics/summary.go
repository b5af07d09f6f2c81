package diagnostics

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// PatternRow is one distinct missingness pattern of a matrix
type PatternRow struct {
	Observed     []bool `json:"observed"`      // per column, true when observed
	Count        int    `json:"count"`         // rows with exactly this pattern
	Missing      int    `json:"missing"`       // missing columns in the pattern
	MissingCells int    `json:"missing_cells"` // Count * Missing
}

// Key renders the pattern as a bit string, 1 for observed
func (p PatternRow) Key() string {
	var b strings.Builder
	for _, o := range p.Observed {
		if o {
			b.WriteByte('1')
		} else {
			b.WriteByte('0')
		}
	}
	return b.String()
}

// Summary tabulates the missingness patterns of a matrix
type Summary struct {
	Rows          int          `json:"rows"`
	Cols          int          `json:"cols"`
	Patterns      []PatternRow `json:"patterns"`
	ColumnMissing []int        `json:"column_missing"`
	TotalMissing  int          `json:"total_missing"`
}

// Summarize lists the distinct patterns of m. The all-observed pattern comes
// first and the fully-missing pattern last; the rest are ordered by row count
// descending, then missing columns ascending, then first appearance.
func Summarize(m mat.Matrix) Summary {
	rows, cols := m.Dims()
	groups := groupPatterns(m)

	s := Summary{
		Rows:          rows,
		Cols:          cols,
		Patterns:      make([]PatternRow, len(groups)),
		ColumnMissing: make([]int, cols),
	}
	for k, g := range groups {
		s.Patterns[k] = PatternRow{
			Observed:     g.observed,
			Count:        len(g.rows),
			Missing:      len(g.miss),
			MissingCells: len(g.rows) * len(g.miss),
		}
		for _, j := range g.miss {
			s.ColumnMissing[j] += len(g.rows)
		}
		s.TotalMissing += s.Patterns[k].MissingCells
	}

	rank := func(p PatternRow) int {
		switch p.Missing {
		case 0:
			return 0
		case cols:
			return 2
		}
		return 1
	}
	sort.SliceStable(s.Patterns, func(a, b int) bool {
		pa, pb := s.Patterns[a], s.Patterns[b]
		if ra, rb := rank(pa), rank(pb); ra != rb {
			return ra < rb
		}
		if pa.Count != pb.Count {
			return pa.Count > pb.Count
		}
		return pa.Missing < pb.Missing
	})
	return s
}

// Proportions returns the share of rows in each pattern, in pattern order
func (s Summary) Proportions() []float64 {
	out := make([]float64, len(s.Patterns))
	if s.Rows == 0 {
		return out
	}
	for k, p := range s.Patterns {
		out[k] = float64(p.Count) / float64(s.Rows)
	}
	return out
}

// ColumnMissingRate returns the share of missing cells per column
func (s Summary) ColumnMissingRate() []float64 {
	out := make([]float64, len(s.ColumnMissing))
	if s.Rows == 0 {
		return out
	}
	for j, c := range s.ColumnMissing {
		out[j] = float64(c) / float64(s.Rows)
	}
	return out
}

// Complete reports whether the matrix has no missing cells
func (s Summary) Complete() bool { return s.TotalMissing == 0 }
