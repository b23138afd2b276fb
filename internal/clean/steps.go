package clean

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/KaramelBytes/dataprep-cli/internal/dataset"
)

// DropColumns removes the named columns.
type DropColumns []string

func (DropColumns) Name() string { return "drop_columns" }

func (d DropColumns) Apply(ds *dataset.Dataset, rec *StepRecord) *dataset.Dataset {
	drop := make(map[string]bool, len(d))
	for _, n := range d {
		drop[n] = false
	}
	out := ds.Select(func(c dataset.Column) bool {
		if _, ok := drop[c.Name()]; ok {
			drop[c.Name()] = true
			rec.ColumnsRemoved = append(rec.ColumnsRemoved, c.Name())
			return false
		}
		return true
	})
	for _, n := range d {
		if !drop[n] {
			rec.IgnoredColumns = append(rec.IgnoredColumns, n)
		}
	}
	return out
}

// DropDuplicateRows keeps the first occurrence of each distinct row.
// Missing cells compare equal to each other.
type DropDuplicateRows struct{}

func (DropDuplicateRows) Name() string { return "drop_duplicates" }

func (DropDuplicateRows) Apply(ds *dataset.Dataset, rec *StepRecord) *dataset.Dataset {
	if ds.NumCols() == 0 {
		return ds
	}
	seen := make(map[string]struct{}, ds.NumRows())
	keep := make([]int, 0, ds.NumRows())
	for i := 0; i < ds.NumRows(); i++ {
		k := ds.RowKey(i)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}
	rec.RowsRemoved = ds.NumRows() - len(keep)
	if rec.RowsRemoved == 0 {
		return ds
	}
	return ds.TakeRows(keep)
}

// DropSparseColumns removes columns where fewer than half of the current
// rows are present.
type DropSparseColumns struct{}

func (DropSparseColumns) Name() string { return "drop_sparse_columns" }

func (DropSparseColumns) Apply(ds *dataset.Dataset, rec *StepRecord) *dataset.Dataset {
	rows := ds.NumRows()
	return ds.Select(func(c dataset.Column) bool {
		present := rows - dataset.MissingCount(c)
		if present*2 >= rows {
			return true
		}
		rec.ColumnsRemoved = append(rec.ColumnsRemoved, c.Name())
		return false
	})
}

// FillNumericMean fills missing numeric cells with the mean of the present
// ones. Columns with nothing present are left alone.
type FillNumericMean struct{}

func (FillNumericMean) Name() string { return "fill_numeric_mean" }

func (FillNumericMean) Apply(ds *dataset.Dataset, rec *StepRecord) *dataset.Dataset {
	for _, c := range ds.Columns() {
		nc, ok := c.(*dataset.NumericColumn)
		if !ok {
			continue
		}
		vals := nc.NonMissing()
		if len(vals) == 0 || len(vals) == nc.Len() {
			continue
		}
		mean := stat.Mean(vals, nil)
		if math.IsNaN(mean) {
			continue
		}
		for i := range nc.Values {
			if !nc.Valid[i] {
				nc.Values[i] = mean
				nc.Valid[i] = true
				rec.CellsFilled++
			}
		}
	}
	return ds
}

// FillCategoricalMode fills missing cells of text and boolean columns with
// the most frequent present value. Ties go to the value seen first.
type FillCategoricalMode struct{}

func (FillCategoricalMode) Name() string { return "fill_categorical_mode" }

func (FillCategoricalMode) Apply(ds *dataset.Dataset, rec *StepRecord) *dataset.Dataset {
	for _, c := range ds.Columns() {
		if c.Kind() == dataset.Numeric {
			continue
		}
		src, ok := modeRow(c)
		if !ok {
			continue
		}
		switch col := c.(type) {
		case *dataset.TextColumn:
			for i := range col.Values {
				if !col.Valid[i] {
					col.Values[i], col.Valid[i] = col.Values[src], true
					rec.CellsFilled++
				}
			}
		case *dataset.BoolColumn:
			for i := range col.Values {
				if !col.Valid[i] {
					col.Values[i], col.Valid[i] = col.Values[src], true
					rec.CellsFilled++
				}
			}
		}
	}
	return ds
}

// modeRow returns the first row holding the most frequent present value of
// c. It reports false when c has no missing cells or no present ones.
func modeRow(c dataset.Column) (int, bool) {
	counts := make(map[string]int)
	first := make(map[string]int)
	var order []string
	missing := false
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			missing = true
			continue
		}
		k := c.Key(i)
		if _, ok := first[k]; !ok {
			first[k] = i
			order = append(order, k)
		}
		counts[k]++
	}
	if !missing || len(order) == 0 {
		return 0, false
	}
	best := order[0]
	for _, k := range order[1:] {
		if counts[k] > counts[best] {
			best = k
		}
	}
	return first[best], true
}
