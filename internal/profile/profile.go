package profile

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/dataprep-cli/internal/dataset"
)

// Report is the per-column data-quality profile of a dataset.
type Report struct {
	Name     string          `json:"name" yaml:"name"`
	Rows     int             `json:"rows" yaml:"rows"`
	Columns  []ColumnProfile `json:"columns" yaml:"columns"`
	Warnings []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ColumnProfile captures missingness, cardinality and, for numeric columns,
// summary statistics.
type ColumnProfile struct {
	Name       string  `json:"column" yaml:"column"`
	Kind       string  `json:"kind" yaml:"kind"`
	DType      string  `json:"dtype" yaml:"dtype"`
	Missing    int     `json:"missing" yaml:"missing"`
	MissingPct float64 `json:"missing_pct" yaml:"missing_pct"`
	// Unique counts distinct values, with missing counted as one more value.
	Unique int `json:"unique" yaml:"unique"`
	// Duplicates counts cells equal to an earlier cell in the column.
	Duplicates int           `json:"duplicates" yaml:"duplicates"`
	Stats      *NumericStats `json:"stats,omitempty" yaml:"stats,omitempty"`
}

// NumericStats summarises the non-missing values of a numeric column.
// A nil field is undefined for the column, e.g. Std with fewer than two values.
type NumericStats struct {
	Count  int      `json:"count" yaml:"count"`
	Mean   *float64 `json:"mean" yaml:"mean"`
	Std    *float64 `json:"std" yaml:"std"`
	Min    *float64 `json:"min" yaml:"min"`
	Q25    *float64 `json:"q25" yaml:"q25"`
	Median *float64 `json:"median" yaml:"median"`
	Q75    *float64 `json:"q75" yaml:"q75"`
	Max    *float64 `json:"max" yaml:"max"`
}

// Profile computes one ColumnProfile per column, in column order.
func Profile(ds *dataset.Dataset) *Report {
	rep := &Report{Name: ds.Name, Rows: ds.NumRows()}
	rep.Columns = make([]ColumnProfile, 0, ds.NumCols())
	for _, c := range ds.Columns() {
		rep.Columns = append(rep.Columns, profileColumn(c))
	}
	return rep
}

func profileColumn(c dataset.Column) ColumnProfile {
	n := c.Len()
	p := ColumnProfile{Name: c.Name(), Kind: c.Kind().String(), DType: dtype(c)}
	seen := make(map[string]struct{})
	for i := 0; i < n; i++ {
		if c.IsMissing(i) {
			p.Missing++
			continue
		}
		seen[c.Key(i)] = struct{}{}
	}
	p.Unique = len(seen)
	if p.Missing > 0 {
		p.Unique++
	}
	p.Duplicates = n - p.Unique
	if n > 0 {
		p.MissingPct = round(float64(p.Missing)/float64(n)*100, 2)
	}
	if nc, ok := c.(*dataset.NumericColumn); ok {
		p.Stats = describe(nc.NonMissing())
	}
	return p
}

func dtype(c dataset.Column) string {
	switch col := c.(type) {
	case *dataset.NumericColumn:
		if col.Integer {
			return "int64"
		}
		return "float64"
	case *dataset.BoolColumn:
		if dataset.MissingCount(col) == 0 {
			return "bool"
		}
	}
	return "object"
}

func describe(vals []float64) *NumericStats {
	s := &NumericStats{Count: len(vals)}
	if len(vals) == 0 {
		return s
	}
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	s.Mean = defined(stat.Mean(vals, nil))
	if len(vals) > 1 {
		s.Std = defined(stat.StdDev(vals, nil))
	}
	s.Min = defined(sorted[0])
	s.Q25 = defined(quantile(sorted, 0.25))
	s.Median = defined(quantile(sorted, 0.5))
	s.Q75 = defined(quantile(sorted, 0.75))
	s.Max = defined(sorted[len(sorted)-1])
	return s
}

// defined returns nil for NaN and infinities.
func defined(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// round rounds half to even at the given number of decimals.
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.RoundToEven(v*p) / p
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
