package dataset

import (
	"math"
	"strconv"
	"strings"
)

// Infer decides the kind of a column from its raw cell text and builds it.
// missing[i] marks cells that were recognised as missing markers; their raw
// text is ignored.
//
// A column is numeric when every present cell parses as a number, and it is
// flagged Integer when all of them are whole numbers and none is missing.
// Numeric cells spelled as NaN count as missing. A column whose cells are all
// true/false spellings is boolean. Anything else is text. A column with rows
// but no present cells is numeric; one with no rows at all is text.
func Infer(name string, raw []string, missing []bool) Column {
	if len(raw) == 0 {
		return &TextColumn{Header: name, Values: []string{}, Valid: []bool{}}
	}
	allInt, allFloat, allBool := true, true, true
	anyMissing := false
	for i, s := range raw {
		if missing[i] {
			anyMissing = true
			continue
		}
		t := strings.TrimSpace(s)
		if allInt {
			if _, err := strconv.ParseInt(t, 10, 64); err != nil {
				allInt = false
			}
		}
		if allFloat {
			if _, ok := parseFloat(t); !ok {
				allFloat = false
			}
		}
		if allBool {
			if _, ok := parseBool(t); !ok {
				allBool = false
			}
		}
		if !allInt && !allFloat && !allBool {
			break
		}
	}

	valid := make([]bool, len(raw))
	for i := range raw {
		valid[i] = !missing[i]
	}
	switch {
	case allFloat:
		if allInt && !anyMissing {
			col := &NumericColumn{Header: name, Values: make([]float64, len(raw)), Valid: valid, Integer: true, Ints: make([]int64, len(raw))}
			for i, s := range raw {
				col.Ints[i], _ = strconv.ParseInt(strings.TrimSpace(s), 10, 64)
				col.Values[i] = float64(col.Ints[i])
			}
			return col
		}
		col := &NumericColumn{Header: name, Values: make([]float64, len(raw)), Valid: valid}
		for i, s := range raw {
			if !valid[i] {
				continue
			}
			v, _ := parseFloat(strings.TrimSpace(s))
			if math.IsNaN(v) {
				valid[i] = false
				continue
			}
			col.Values[i] = v
		}
		return col
	case allBool:
		col := &BoolColumn{Header: name, Values: make([]bool, len(raw)), Valid: valid}
		for i, s := range raw {
			if valid[i] {
				col.Values[i], _ = parseBool(strings.TrimSpace(s))
			}
		}
		return col
	default:
		col := &TextColumn{Header: name, Values: make([]string, len(raw)), Valid: valid}
		for i, s := range raw {
			if valid[i] {
				col.Values[i] = s
			}
		}
		return col
	}
}

func parseFloat(s string) (float64, bool) {
	if s == "" || strings.ContainsAny(s, "xX_") {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func parseBool(s string) (bool, bool) {
	switch s {
	case "True", "TRUE", "true":
		return true, true
	case "False", "FALSE", "false":
		return false, true
	}
	return false, false
}
