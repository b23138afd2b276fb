package profile

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"
)

// Markdown renders a compact summary of the report. v may be nil.
func (r *Report) Markdown(v *Visuals) string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n\n", len(r.Columns)))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Columns {
		b.WriteString(fmt.Sprintf("- %s: %s (missing %d, %.2f%%; unique %d; duplicates %d)",
			safeName(c.Name), c.DType, c.Missing, c.MissingPct, c.Unique, c.Duplicates))
		if s := c.Stats; s != nil && s.Count > 0 {
			b.WriteString(fmt.Sprintf("; count %d, mean %s, std %s, min %s, median %s, max %s",
				s.Count, g4(s.Mean), g4(s.Std), g4(s.Min), g4(s.Median), g4(s.Max)))
		}
		b.WriteString("\n")
	}

	if v != nil && len(v.Histograms) > 0 {
		b.WriteString("\n[DISTRIBUTIONS]\n")
		for _, h := range v.Histograms {
			b.WriteString(fmt.Sprintf("- %s [%s, %s]: %s\n", safeName(h.Column),
				strconv.FormatFloat(h.Edges[0], 'g', 4, 64),
				strconv.FormatFloat(h.Edges[len(h.Edges)-1], 'g', 4, 64),
				sparkline(h.Counts)))
		}
	}

	if v != nil && v.Correlation != nil && len(v.Correlation.Columns) >= 2 {
		b.WriteString("\n[CORRELATIONS]\n")
		type pr struct {
			A, B string
			R    float64
		}
		var pairs []pr
		m := v.Correlation
		n := len(m.Columns)
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if math.IsNaN(m.Values[i][j]) {
					continue
				}
				pairs = append(pairs, pr{A: m.Columns[i], B: m.Columns[j], R: m.Values[i][j]})
			}
		}
		sort.Slice(pairs, func(i, j int) bool {
			ai := math.Abs(pairs[i].R)
			aj := math.Abs(pairs[j].R)
			if ai == aj {
				return pairs[i].A+pairs[i].B < pairs[j].A+pairs[j].B
			}
			return ai > aj
		})
		if len(pairs) > 10 {
			pairs = pairs[:10]
		}
		for _, p := range pairs {
			b.WriteString(fmt.Sprintf("- %s ~ %s: r=%.3f\n", p.A, p.B, p.R))
		}
		if len(pairs) == 0 {
			b.WriteString("- no defined pairs\n")
		}
	}

	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

var tableHeader = []string{
	"column", "dtype", "missing", "missing_pct", "unique", "duplicates",
	"count", "mean", "std", "min", "25%", "50%", "75%", "max",
}

// Table renders the report as an aligned text table, one row per column,
// with statistics rounded to 3 decimals and blanks where undefined.
func (r *Report) Table() string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, strings.Join(tableHeader, "\t"))
	for _, c := range r.Columns {
		cells := []string{
			safeName(c.Name), c.DType,
			strconv.Itoa(c.Missing), r3(&c.MissingPct),
			strconv.Itoa(c.Unique), strconv.Itoa(c.Duplicates),
		}
		if s := c.Stats; s != nil {
			cells = append(cells, strconv.Itoa(s.Count),
				r3(s.Mean), r3(s.Std), r3(s.Min), r3(s.Q25), r3(s.Median), r3(s.Q75), r3(s.Max))
		} else {
			cells = append(cells, "", "", "", "", "", "", "", "")
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
	return b.String()
}

func r3(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(round(*v, 3), 'f', -1, 64)
}

func g4(v *float64) string {
	if v == nil {
		return "n/a"
	}
	return strconv.FormatFloat(*v, 'g', 4, 64)
}

var sparks = []rune("▁▂▃▄▅▆▇█")

func sparkline(counts []int) string {
	peak := 0
	for _, c := range counts {
		peak = max(peak, c)
	}
	out := make([]rune, len(counts))
	for i, c := range counts {
		switch {
		case c == 0:
			out[i] = ' '
		case peak == 0:
			out[i] = sparks[0]
		default:
			out[i] = sparks[(c*(len(sparks)-1))/peak]
		}
	}
	return string(out)
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/")
}
