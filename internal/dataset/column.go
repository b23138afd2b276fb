package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Kind is the type of a column, decided once at ingestion.
type Kind int

const (
	Text Kind = iota
	Numeric
	Boolean
)

func (k Kind) String() string {
	switch k {
	case Numeric:
		return "numeric"
	case Boolean:
		return "boolean"
	default:
		return "text"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "numeric":
		return Numeric, true
	case "boolean":
		return Boolean, true
	case "text":
		return Text, true
	}
	return Text, false
}

// Column is one named, typed sequence of cells. Every implementation keeps a
// validity mask where false marks a missing cell.
type Column interface {
	Name() string
	Kind() Kind
	Len() int
	IsMissing(i int) bool
	// Key returns a canonical string for the cell value, used for equality.
	// It is only meaningful for non-missing cells.
	Key(i int) string
	// Format renders the cell the way it is written to CSV. Missing cells
	// render as the empty string.
	Format(i int) string
	// Value returns the Go value of the cell, or nil when missing.
	Value(i int) any
	// Take returns a new column holding the given rows in order.
	Take(rows []int) Column
	Clone() Column
}

// NumericColumn holds float64 cells. Integer is set when every cell was
// written as a whole number and none were missing; Ints then holds the exact
// values, since float64 cannot represent every int64.
type NumericColumn struct {
	Header  string
	Values  []float64
	Valid   []bool
	Integer bool
	Ints    []int64
}

func (c *NumericColumn) Name() string         { return c.Header }
func (c *NumericColumn) Kind() Kind           { return Numeric }
func (c *NumericColumn) Len() int             { return len(c.Values) }
func (c *NumericColumn) IsMissing(i int) bool { return !c.Valid[i] }

func (c *NumericColumn) Key(i int) string {
	if c.Integer {
		return strconv.FormatInt(c.Int(i), 10)
	}
	v := c.Values[i]
	if v == 0 {
		// fold -0 into 0
		v = 0
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func (c *NumericColumn) Format(i int) string {
	if !c.Valid[i] {
		return ""
	}
	if c.Integer {
		return strconv.FormatInt(c.Int(i), 10)
	}
	return FormatFloat(c.Values[i])
}

// Int returns cell i of an Integer column.
func (c *NumericColumn) Int(i int) int64 {
	if c.Ints != nil {
		return c.Ints[i]
	}
	return int64(c.Values[i])
}

func (c *NumericColumn) Value(i int) any {
	if !c.Valid[i] {
		return nil
	}
	if c.Integer {
		return c.Int(i)
	}
	return c.Values[i]
}

// NonMissing returns the valid values in row order.
func (c *NumericColumn) NonMissing() []float64 {
	out := make([]float64, 0, len(c.Values))
	for i, v := range c.Values {
		if c.Valid[i] {
			out = append(out, v)
		}
	}
	return out
}

func (c *NumericColumn) Take(rows []int) Column {
	out := &NumericColumn{Header: c.Header, Integer: c.Integer, Values: make([]float64, len(rows)), Valid: make([]bool, len(rows))}
	if c.Ints != nil {
		out.Ints = make([]int64, len(rows))
	}
	for j, i := range rows {
		out.Values[j] = c.Values[i]
		out.Valid[j] = c.Valid[i]
		if c.Ints != nil {
			out.Ints[j] = c.Ints[i]
		}
	}
	return out
}

func (c *NumericColumn) Clone() Column {
	out := &NumericColumn{
		Header:  c.Header,
		Integer: c.Integer,
		Values:  append([]float64(nil), c.Values...),
		Valid:   append([]bool(nil), c.Valid...),
	}
	if c.Ints != nil {
		out.Ints = append([]int64(nil), c.Ints...)
	}
	return out
}

// TextColumn holds free-form string cells.
type TextColumn struct {
	Header string
	Values []string
	Valid  []bool
}

func (c *TextColumn) Name() string         { return c.Header }
func (c *TextColumn) Kind() Kind           { return Text }
func (c *TextColumn) Len() int             { return len(c.Values) }
func (c *TextColumn) IsMissing(i int) bool { return !c.Valid[i] }
func (c *TextColumn) Key(i int) string     { return c.Values[i] }

func (c *TextColumn) Format(i int) string {
	if !c.Valid[i] {
		return ""
	}
	return c.Values[i]
}

func (c *TextColumn) Value(i int) any {
	if !c.Valid[i] {
		return nil
	}
	return c.Values[i]
}

func (c *TextColumn) Take(rows []int) Column {
	out := &TextColumn{Header: c.Header, Values: make([]string, len(rows)), Valid: make([]bool, len(rows))}
	for j, i := range rows {
		out.Values[j] = c.Values[i]
		out.Valid[j] = c.Valid[i]
	}
	return out
}

func (c *TextColumn) Clone() Column {
	return &TextColumn{
		Header: c.Header,
		Values: append([]string(nil), c.Values...),
		Valid:  append([]bool(nil), c.Valid...),
	}
}

// BoolColumn holds true/false cells.
type BoolColumn struct {
	Header string
	Values []bool
	Valid  []bool
}

func (c *BoolColumn) Name() string         { return c.Header }
func (c *BoolColumn) Kind() Kind           { return Boolean }
func (c *BoolColumn) Len() int             { return len(c.Values) }
func (c *BoolColumn) IsMissing(i int) bool { return !c.Valid[i] }
func (c *BoolColumn) Key(i int) string     { return strconv.FormatBool(c.Values[i]) }

func (c *BoolColumn) Format(i int) string {
	if !c.Valid[i] {
		return ""
	}
	if c.Values[i] {
		return "True"
	}
	return "False"
}

func (c *BoolColumn) Value(i int) any {
	if !c.Valid[i] {
		return nil
	}
	return c.Values[i]
}

func (c *BoolColumn) Take(rows []int) Column {
	out := &BoolColumn{Header: c.Header, Values: make([]bool, len(rows)), Valid: make([]bool, len(rows))}
	for j, i := range rows {
		out.Values[j] = c.Values[i]
		out.Valid[j] = c.Valid[i]
	}
	return out
}

func (c *BoolColumn) Clone() Column {
	return &BoolColumn{
		Header: c.Header,
		Values: append([]bool(nil), c.Values...),
		Valid:  append([]bool(nil), c.Valid...),
	}
}

// MissingCount returns the number of missing cells in c.
func MissingCount(c Column) int {
	n := 0
	for i := 0; i < c.Len(); i++ {
		if c.IsMissing(i) {
			n++
		}
	}
	return n
}

// FormatFloat renders v as the shortest round-trip decimal, always with a
// fractional part or an exponent, e.g. 10 -> "10.0", 1e16 -> "1e+16".
func FormatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return ""
	}
	e := strconv.FormatFloat(v, 'e', -1, 64)
	exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	if exp < -4 || exp >= 16 {
		return e
	}
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
