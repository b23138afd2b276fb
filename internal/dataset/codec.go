package dataset

import (
	"encoding/json"
	"fmt"
	"strconv"
)

type wireColumn struct {
	Name    string    `json:"name"`
	Kind    string    `json:"kind"`
	Integer bool      `json:"integer,omitempty"`
	Cells   []*string `json:"cells"`
}

type wireDataset struct {
	Name    string       `json:"name"`
	Rows    int          `json:"rows"`
	Columns []wireColumn `json:"columns"`
}

// MarshalJSON encodes the dataset losslessly, including kinds and missing
// cells, so it can be restored with UnmarshalJSON.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	w := wireDataset{Name: d.Name, Rows: d.rows, Columns: make([]wireColumn, len(d.cols))}
	for j, c := range d.cols {
		wc := wireColumn{Name: c.Name(), Kind: c.Kind().String(), Cells: make([]*string, c.Len())}
		if nc, ok := c.(*NumericColumn); ok {
			wc.Integer = nc.Integer
		}
		for i := 0; i < c.Len(); i++ {
			if c.IsMissing(i) {
				continue
			}
			k := c.Key(i)
			wc.Cells[i] = &k
		}
		w.Columns[j] = wc
	}
	return json.Marshal(w)
}

// UnmarshalJSON restores a dataset written by MarshalJSON.
func (d *Dataset) UnmarshalJSON(b []byte) error {
	var w wireDataset
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	cols := make([]Column, len(w.Columns))
	for j, wc := range w.Columns {
		kind, ok := ParseKind(wc.Kind)
		if !ok {
			return fmt.Errorf("column %q: unknown kind %q", wc.Name, wc.Kind)
		}
		col, err := decodeColumn(wc, kind)
		if err != nil {
			return err
		}
		cols[j] = col
	}
	nd, err := New(w.Name, cols...)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		nd.rows = w.Rows
	}
	*d = *nd
	return nil
}

func decodeColumn(wc wireColumn, kind Kind) (Column, error) {
	n := len(wc.Cells)
	valid := make([]bool, n)
	for i, p := range wc.Cells {
		valid[i] = p != nil
	}
	switch kind {
	case Numeric:
		col := &NumericColumn{Header: wc.Name, Values: make([]float64, n), Valid: valid, Integer: wc.Integer}
		if wc.Integer {
			col.Ints = make([]int64, n)
		}
		for i, p := range wc.Cells {
			if p == nil {
				continue
			}
			if wc.Integer {
				v, err := strconv.ParseInt(*p, 10, 64)
				if err != nil {
					return nil, fmt.Errorf("column %q row %d: %w", wc.Name, i, err)
				}
				col.Ints[i] = v
				col.Values[i] = float64(v)
				continue
			}
			v, err := strconv.ParseFloat(*p, 64)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", wc.Name, i, err)
			}
			col.Values[i] = v
		}
		return col, nil
	case Boolean:
		col := &BoolColumn{Header: wc.Name, Values: make([]bool, n), Valid: valid}
		for i, p := range wc.Cells {
			if p == nil {
				continue
			}
			v, err := strconv.ParseBool(*p)
			if err != nil {
				return nil, fmt.Errorf("column %q row %d: %w", wc.Name, i, err)
			}
			col.Values[i] = v
		}
		return col, nil
	default:
		col := &TextColumn{Header: wc.Name, Values: make([]string, n), Valid: valid}
		for i, p := range wc.Cells {
			if p != nil {
				col.Values[i] = *p
			}
		}
		return col, nil
	}
}
