package profile

import (
	"encoding/json"
	"iter"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/dataprep-cli/internal/dataset"
)

// DefaultBins is the histogram bin count used when Options.Bins is unset.
const DefaultBins = 30

// Options controls visual summaries.
type Options struct {
	Bins int
}

// DefaultOptions returns 30-bin histograms.
func DefaultOptions() Options {
	return Options{Bins: DefaultBins}
}

// Histogram is a pre-binned distribution of one numeric column. Edges has
// len(Counts)+1 entries; every bin is half-open except the last, which also
// holds the maximum.
type Histogram struct {
	Column string    `json:"column" yaml:"column"`
	Values []float64 `json:"-" yaml:"-"`
	Edges  []float64 `json:"edges" yaml:"edges"`
	Counts []int     `json:"counts" yaml:"counts"`
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric
// columns. Undefined entries are NaN.
type CorrMatrix struct {
	Columns []string    `json:"columns" yaml:"columns"`
	Values  [][]float64 `json:"values" yaml:"values"` // row-major, Values[i][j]
}

// MarshalJSON writes undefined entries as null.
func (m *CorrMatrix) MarshalJSON() ([]byte, error) {
	vals := make([][]*float64, len(m.Values))
	for i, row := range m.Values {
		vals[i] = make([]*float64, len(row))
		for j := range row {
			vals[i][j] = defined(row[j])
		}
	}
	return json.Marshal(struct {
		Columns []string     `json:"columns"`
		Values  [][]*float64 `json:"values"`
	}{m.Columns, vals})
}

// Visuals are the image-ready arrays for a dataset.
type Visuals struct {
	Histograms  []Histogram `json:"histograms" yaml:"histograms"`
	Correlation *CorrMatrix `json:"correlation,omitempty" yaml:"correlation,omitempty"`
}

// Visualize builds one histogram per numeric column and, when there are at
// least two numeric columns, their correlation matrix.
func Visualize(ds *dataset.Dataset, opt Options) *Visuals {
	v := &Visuals{Histograms: []Histogram{}}
	for h := range Histograms(ds, opt.Bins) {
		v.Histograms = append(v.Histograms, h)
	}
	v.Correlation = Correlation(ds)
	return v
}

// Histograms lazily yields a histogram per numeric column, in column order.
func Histograms(ds *dataset.Dataset, bins int) iter.Seq[Histogram] {
	if bins <= 0 {
		bins = DefaultBins
	}
	return func(yield func(Histogram) bool) {
		for _, c := range ds.Columns() {
			nc, ok := c.(*dataset.NumericColumn)
			if !ok {
				continue
			}
			if !yield(histogram(nc.Name(), finite(nc.NonMissing()), bins)) {
				return
			}
		}
	}
}

func histogram(name string, vals []float64, bins int) Histogram {
	h := Histogram{Column: name, Values: vals, Counts: make([]int, bins)}
	lo, hi := 0.0, 1.0
	if len(vals) > 0 {
		lo, hi = floats.Min(vals), floats.Max(vals)
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	h.Edges = make([]float64, bins+1)
	floats.Span(h.Edges, lo, hi)
	h.Edges[bins] = hi
	if len(vals) == 0 {
		return h
	}
	dividers := append([]float64(nil), h.Edges...)
	dividers[bins] = math.Nextafter(hi, math.Inf(1))
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	counts := stat.Histogram(nil, dividers, sorted, nil)
	for i, n := range counts {
		h.Counts[i] = int(n)
	}
	return h
}

// Correlation returns the pairwise Pearson matrix of the numeric columns, or
// nil when there are fewer than two. Each pair uses only rows where both
// cells are present.
func Correlation(ds *dataset.Dataset) *CorrMatrix {
	var num []*dataset.NumericColumn
	for _, c := range ds.Columns() {
		if nc, ok := c.(*dataset.NumericColumn); ok {
			num = append(num, nc)
		}
	}
	if len(num) < 2 {
		return nil
	}
	m := &CorrMatrix{Columns: make([]string, len(num)), Values: make([][]float64, len(num))}
	for i, c := range num {
		m.Columns[i] = c.Name()
		m.Values[i] = make([]float64, len(num))
	}
	for a := range num {
		for b := a; b < len(num); b++ {
			r := pearson(num[a], num[b])
			if a == b && !math.IsNaN(r) {
				r = 1
			}
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m
}

func pearson(a, b *dataset.NumericColumn) float64 {
	var x, y []float64
	for i := range a.Values {
		if !a.Valid[i] || !b.Valid[i] {
			continue
		}
		xi, yi := a.Values[i], b.Values[i]
		if !isFinite(xi) || !isFinite(yi) {
			continue
		}
		x = append(x, xi)
		y = append(y, yi)
	}
	if len(x) < 2 || constant(x) || constant(y) {
		return math.NaN()
	}
	r := stat.Correlation(x, y, nil)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return math.NaN()
	}
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r
}

func constant(v []float64) bool {
	for _, x := range v[1:] {
		if x != v[0] {
			return false
		}
	}
	return true
}

// finite drops NaN and infinite values.
func finite(v []float64) []float64 {
	out := v[:0:0]
	for _, x := range v {
		if isFinite(x) {
			out = append(out, x)
		}
	}
	return out
}

func isFinite(x float64) bool { return !math.IsNaN(x) && !math.IsInf(x, 0) }
