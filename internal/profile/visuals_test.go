package profile

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/KaramelBytes/dataprep-cli/internal/dataset"
)

func sum(counts []int) int {
	n := 0
	for _, c := range counts {
		n += c
	}
	return n
}

func TestHistogramsOnePerNumericColumn(t *testing.T) {
	ds := dataset.MustNew("h",
		col("x", "1", "2", "", "4", "10"),
		col("name", "a", "b", "c", "d", "e"),
		col("y", "0.5", "0.5", "0.5", "", ""),
	)
	v := Visualize(ds, DefaultOptions())
	if len(v.Histograms) != 2 {
		t.Fatalf("histograms = %d, want 2", len(v.Histograms))
	}
	x := v.Histograms[0]
	if x.Column != "x" || len(x.Counts) != DefaultBins || len(x.Edges) != DefaultBins+1 {
		t.Fatalf("x histogram shape: %s %d counts %d edges", x.Column, len(x.Counts), len(x.Edges))
	}
	if sum(x.Counts) != 4 {
		t.Fatalf("x counts sum = %d, want 4", sum(x.Counts))
	}
	if x.Counts[DefaultBins-1] != 1 {
		t.Fatalf("max value should land in the last bin, counts = %v", x.Counts)
	}
	if x.Edges[0] != 1 || x.Edges[DefaultBins] != 10 {
		t.Fatalf("x edges span [%v, %v], want [1, 10]", x.Edges[0], x.Edges[DefaultBins])
	}

	y := v.Histograms[1]
	if y.Edges[0] != 0 || y.Edges[DefaultBins] != 1 {
		t.Fatalf("constant column range = [%v, %v], want [0, 1]", y.Edges[0], y.Edges[DefaultBins])
	}
	if sum(y.Counts) != 3 {
		t.Fatalf("y counts sum = %d, want 3", sum(y.Counts))
	}
}

func TestHistogramsCustomBinsAndLaziness(t *testing.T) {
	ds := dataset.MustNew("h",
		col("a", "1", "2", "3"),
		col("b", "4", "5", "6"),
	)
	seen := 0
	for h := range Histograms(ds, 5) {
		seen++
		if len(h.Counts) != 5 {
			t.Fatalf("bins = %d, want 5", len(h.Counts))
		}
		break
	}
	if seen != 1 {
		t.Fatalf("early break should stop iteration, saw %d", seen)
	}
}

func TestHistogramAllMissing(t *testing.T) {
	ds := dataset.MustNew("h", col("a", "", ""))
	v := Visualize(ds, DefaultOptions())
	if len(v.Histograms) != 1 || sum(v.Histograms[0].Counts) != 0 {
		t.Fatalf("all-missing histogram = %+v", v.Histograms)
	}
}

func TestHistogramSkipsNaNValues(t *testing.T) {
	nc := &dataset.NumericColumn{
		Header: "a",
		Values: []float64{1, math.NaN(), 3},
		Valid:  []bool{true, true, true},
	}
	h := histogram(nc.Name(), finite(nc.NonMissing()), 30)
	if sum(h.Counts) != 2 || h.Edges[0] != 1 || h.Edges[30] != 3 {
		t.Fatalf("histogram = %+v", h)
	}
}

func TestCorrelationPresence(t *testing.T) {
	one := dataset.MustNew("one", col("a", "1", "2"), col("t", "x", "y"))
	if Visualize(one, DefaultOptions()).Correlation != nil {
		t.Fatalf("one numeric column must not produce a correlation matrix")
	}
	two := dataset.MustNew("two", col("a", "1", "2", "3"), col("b", "2", "4", "7"))
	m := Visualize(two, DefaultOptions()).Correlation
	if m == nil || len(m.Columns) != 2 {
		t.Fatalf("two numeric columns must produce a 2x2 matrix, got %+v", m)
	}
	if m.Values[0][0] != 1 || m.Values[1][1] != 1 {
		t.Fatalf("diagonal = %v %v", m.Values[0][0], m.Values[1][1])
	}
	if m.Values[0][1] != m.Values[1][0] {
		t.Fatalf("matrix not symmetric")
	}
	if m.Values[0][1] < 0.98 {
		t.Fatalf("r = %v, want strongly positive", m.Values[0][1])
	}
}

func TestCorrelationPairwiseAndUndefined(t *testing.T) {
	ds := dataset.MustNew("pw",
		col("a", "1", "2", "3", "", "100"),
		col("b", "2", "4", "6", "8", ""),
		col("c", "5", "5", "5", "5", "5"),
	)
	m := Correlation(ds)
	if !almostEqual(m.Values[0][1], 1, 1e-12) {
		t.Fatalf("pairwise r(a,b) = %v, want 1", m.Values[0][1])
	}
	if !math.IsNaN(m.Values[0][2]) || !math.IsNaN(m.Values[2][2]) {
		t.Fatalf("constant column should give NaN, got %v %v", m.Values[0][2], m.Values[2][2])
	}
	b, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), "null") {
		t.Fatalf("NaN should encode as null: %s", b)
	}
}

func TestVisualizeCorrelationFollowsNumericCount(t *testing.T) {
	two := dataset.MustNew("two", col("a", "1", "2"), col("b", "2", "4"), col("t", "x", "y"))
	if Visualize(two, Options{Bins: 10}).Correlation == nil {
		t.Fatalf("two numeric columns should give a correlation matrix")
	}
	one := dataset.MustNew("one", col("a", "1", "2"), col("t", "x", "y"))
	if Visualize(one, Options{Bins: 10}).Correlation != nil {
		t.Fatalf("one numeric column should give no correlation matrix")
	}
}
