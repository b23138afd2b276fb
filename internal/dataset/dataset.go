package dataset

import (
	"errors"
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// ErrShape reports a dataset whose columns disagree in length or whose names
// are not unique.
var ErrShape = errors.New("invalid dataset shape")

// Dataset is an ordered set of equally long, uniquely named columns.
type Dataset struct {
	Name string
	cols []Column
	rows int
}

// New builds a dataset from cols, checking that names are unique and that
// all columns have the same length.
func New(name string, cols ...Column) (*Dataset, error) {
	d := &Dataset{Name: name, cols: cols}
	seen := make(map[string]struct{}, len(cols))
	for i, c := range cols {
		if _, dup := seen[c.Name()]; dup {
			return nil, fmt.Errorf("%w: duplicate column name %q", ErrShape, c.Name())
		}
		seen[c.Name()] = struct{}{}
		if i == 0 {
			d.rows = c.Len()
			continue
		}
		if c.Len() != d.rows {
			return nil, fmt.Errorf("%w: column %q has %d rows, want %d", ErrShape, c.Name(), c.Len(), d.rows)
		}
	}
	return d, nil
}

// MustNew is New for fixtures; it panics on error.
func MustNew(name string, cols ...Column) *Dataset {
	d, err := New(name, cols...)
	if err != nil {
		panic(err)
	}
	return d
}

func (d *Dataset) NumRows() int { return d.rows }
func (d *Dataset) NumCols() int { return len(d.cols) }

// Empty reports whether the dataset has no rows or no columns.
func (d *Dataset) Empty() bool { return d.rows == 0 || len(d.cols) == 0 }

// Columns returns the columns in order. The slice is a copy; the columns are not.
func (d *Dataset) Columns() []Column {
	return append([]Column(nil), d.cols...)
}

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.Name()
	}
	return out
}

// Column looks up a column by exact name.
func (d *Dataset) Column(name string) (Column, bool) {
	for _, c := range d.cols {
		if c.Name() == name {
			return c, true
		}
	}
	return nil, false
}

// Clone returns a deep copy.
func (d *Dataset) Clone() *Dataset {
	cols := make([]Column, len(d.cols))
	for i, c := range d.cols {
		cols[i] = c.Clone()
	}
	return &Dataset{Name: d.Name, cols: cols, rows: d.rows}
}

// Select returns a dataset holding the columns for which keep returns true.
// Row count is preserved even when no column survives.
func (d *Dataset) Select(keep func(Column) bool) *Dataset {
	out := &Dataset{Name: d.Name, rows: d.rows}
	for _, c := range d.cols {
		if keep(c) {
			out.cols = append(out.cols, c)
		}
	}
	return out
}

// TakeRows returns a dataset holding the given rows in order.
func (d *Dataset) TakeRows(rows []int) *Dataset {
	out := &Dataset{Name: d.Name, cols: make([]Column, len(d.cols)), rows: len(rows)}
	for i, c := range d.cols {
		out.cols[i] = c.Take(rows)
	}
	return out
}

// Replace swaps the column at index i. The replacement must keep the name
// and length.
func (d *Dataset) Replace(i int, c Column) error {
	if i < 0 || i >= len(d.cols) {
		return fmt.Errorf("%w: column index %d out of range", ErrShape, i)
	}
	if c.Len() != d.rows || c.Name() != d.cols[i].Name() {
		return fmt.Errorf("%w: replacement for %q does not match", ErrShape, d.cols[i].Name())
	}
	d.cols[i] = c
	return nil
}

// RowKey returns a string identifying the full content of row i. Two rows
// have the same key exactly when every column holds equal values, with a
// missing cell equal only to another missing cell.
func (d *Dataset) RowKey(i int) string {
	var b strings.Builder
	for _, c := range d.cols {
		if c.IsMissing(i) {
			b.WriteString("~;")
			continue
		}
		k := c.Key(i)
		b.WriteString(strconv.Itoa(len(k)))
		b.WriteByte(':')
		b.WriteString(k)
	}
	return b.String()
}

// Records yields each row formatted as CSV fields. The slice is reused
// between iterations.
func (d *Dataset) Records() iter.Seq2[int, []string] {
	return func(yield func(int, []string) bool) {
		rec := make([]string, len(d.cols))
		for i := 0; i < d.rows; i++ {
			for j, c := range d.cols {
				rec[j] = c.Format(i)
			}
			if !yield(i, rec) {
				return
			}
		}
	}
}

// Equal reports whether d and o have the same columns, kinds and cells.
func (d *Dataset) Equal(o *Dataset) bool {
	if d.rows != o.rows || len(d.cols) != len(o.cols) {
		return false
	}
	for j, c := range d.cols {
		oc := o.cols[j]
		if c.Name() != oc.Name() || c.Kind() != oc.Kind() {
			return false
		}
		for i := 0; i < d.rows; i++ {
			if c.IsMissing(i) != oc.IsMissing(i) {
				return false
			}
			if !c.IsMissing(i) && c.Key(i) != oc.Key(i) {
				return false
			}
		}
	}
	return true
}
