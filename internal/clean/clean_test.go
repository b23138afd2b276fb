package clean

import (
	"math"
	"slices"
	"strings"
	"testing"

	"github.com/KaramelBytes/dataprep-cli/internal/dataset"
)

func col(name string, cells ...string) dataset.Column {
	missing := make([]bool, len(cells))
	for i, c := range cells {
		missing[i] = c == ""
	}
	return dataset.Infer(name, cells, missing)
}

func scores() *dataset.Dataset {
	return dataset.MustNew("scores.csv",
		col("id", "1", "2", "3", "4"),
		col("score", "10", "", "10", "30"),
	)
}

func allOptions() Options {
	return Options{
		DropDuplicateRows:   true,
		DropSparseColumns:   true,
		FillNumericMean:     true,
		FillCategoricalMode: true,
	}
}

func TestCleanAllDisabledIsIdentity(t *testing.T) {
	ds := dataset.MustNew("t",
		col("a", "1", "1", ""),
		col("b", "x", "x", ""),
	)
	out, sum := Clean(ds, Options{})
	if !out.Equal(ds) {
		t.Fatalf("disabled options changed the dataset")
	}
	if len(sum.Steps) != 0 {
		t.Fatalf("steps = %v, want none", sum.Steps)
	}
}

func TestCleanFillMeanScenario(t *testing.T) {
	out, _ := Clean(scores(), Options{FillNumericMean: true})
	score, _ := out.Column("score")
	nc := score.(*dataset.NumericColumn)
	if dataset.MissingCount(nc) != 0 {
		t.Fatalf("score still has missing cells")
	}
	if math.Abs(nc.Values[1]-16.6667) > 1e-4 {
		t.Fatalf("filled value = %v, want 16.6667", nc.Values[1])
	}
	if nc.Values[0] != 10 || nc.Values[2] != 10 || nc.Values[3] != 30 {
		t.Fatalf("present values changed: %v", nc.Values)
	}
}

func TestCleanDropDuplicatesKeepsFirst(t *testing.T) {
	ds := dataset.MustNew("dup",
		col("a", "1", "1", "1"),
		col("b", "x", "x", "x"),
	)
	out, sum := Clean(ds, Options{DropDuplicateRows: true})
	if out.NumRows() != 1 {
		t.Fatalf("rows = %d, want 1", out.NumRows())
	}
	if sum.Steps[0].RowsRemoved != 2 {
		t.Fatalf("rows removed = %d, want 2", sum.Steps[0].RowsRemoved)
	}
}

func TestCleanDuplicatesTreatMissingAsEqual(t *testing.T) {
	ds := dataset.MustNew("dup",
		col("a", "1", "1", "2", "1"),
		col("b", "", "", "", "y"),
	)
	out, _ := Clean(ds, Options{DropDuplicateRows: true})
	a, _ := out.Column("a")
	b, _ := out.Column("b")
	if out.NumRows() != 3 {
		t.Fatalf("rows = %d, want 3", out.NumRows())
	}
	if a.Format(0) != "1" || a.Format(1) != "2" || b.Format(2) != "y" {
		t.Fatalf("kept rows in wrong order")
	}
}

func TestCleanSparseThreshold(t *testing.T) {
	// ten rows; "sixty" is 60% missing, "fifty" exactly 50%
	sixty := []string{"1", "2", "3", "4", "", "", "", "", "", ""}
	fifty := []string{"a", "b", "c", "d", "e", "", "", "", "", ""}
	ds := dataset.MustNew("sparse", col("sixty", sixty...), col("fifty", fifty...))
	out, sum := Clean(ds, Options{DropSparseColumns: true})
	if got := strings.Join(out.Names(), ","); got != "fifty" {
		t.Fatalf("columns = %s, want fifty", got)
	}
	if !slices.Equal(sum.Steps[0].ColumnsRemoved, []string{"sixty"}) {
		t.Fatalf("removed = %v", sum.Steps[0].ColumnsRemoved)
	}
}

func TestCleanSparseUsesRowCountAfterDedupe(t *testing.T) {
	ds := dataset.MustNew("order",
		col("a", "1", "1", "1", "2"),
		col("b", "", "", "", "y"),
	)
	// before dedupe b is 25% present; after it, 1 of 2 rows
	out, _ := Clean(ds, Options{DropDuplicateRows: true, DropSparseColumns: true})
	if out.NumRows() != 2 {
		t.Fatalf("rows = %d, want 2", out.NumRows())
	}
	if _, ok := out.Column("b"); !ok {
		t.Fatalf("b should survive once duplicates are gone")
	}

	sparseOnly, _ := Clean(ds, Options{DropSparseColumns: true})
	if _, ok := sparseOnly.Column("b"); ok {
		t.Fatalf("b should be dropped without dedupe")
	}
}

func TestCleanUnknownDropColumnsIgnored(t *testing.T) {
	out, sum := Clean(scores(), Options{DropColumns: []string{"nope", "id"}})
	if got := strings.Join(out.Names(), ","); got != "score" {
		t.Fatalf("columns = %s, want score", got)
	}
	rec := sum.Steps[0]
	if !slices.Equal(rec.ColumnsRemoved, []string{"id"}) || !slices.Equal(rec.IgnoredColumns, []string{"nope"}) {
		t.Fatalf("record = %+v", rec)
	}

	out, _ = Clean(scores(), Options{DropColumns: []string{"nope"}})
	if !out.Equal(scores()) {
		t.Fatalf("dropping only unknown names should change nothing")
	}
}

func TestCleanFillsLeaveNoMissing(t *testing.T) {
	ds := dataset.MustNew("mixed",
		col("n", "1.5", "", "2.5", ""),
		col("t", "b", "a", "", "a"),
		col("flag", "True", "", "False", "False"),
		col("empty", "", "", "", ""),
	)
	out, sum := Clean(ds, Options{FillNumericMean: true, FillCategoricalMode: true})
	for _, name := range []string{"n", "t", "flag"} {
		c, _ := out.Column(name)
		if dataset.MissingCount(c) != 0 {
			t.Fatalf("%s still has missing cells", name)
		}
	}
	empty, _ := out.Column("empty")
	if dataset.MissingCount(empty) != 4 {
		t.Fatalf("all-missing column should be left alone")
	}
	n, _ := out.Column("n")
	if n.Format(1) != "2.0" {
		t.Fatalf("n[1] = %s, want 2.0", n.Format(1))
	}
	tc, _ := out.Column("t")
	if tc.Format(2) != "a" {
		t.Fatalf("t[2] = %s, want a", tc.Format(2))
	}
	flag, _ := out.Column("flag")
	if flag.Format(1) != "False" {
		t.Fatalf("flag[1] = %s, want False", flag.Format(1))
	}
	if sum.Steps[0].CellsFilled != 2 || sum.Steps[1].CellsFilled != 2 {
		t.Fatalf("filled = %d, %d", sum.Steps[0].CellsFilled, sum.Steps[1].CellsFilled)
	}
}

func TestCleanModeTieGoesToFirstSeen(t *testing.T) {
	ds := dataset.MustNew("tie", col("t", "b", "a", "a", "b", ""))
	out, _ := Clean(ds, Options{FillCategoricalMode: true})
	c, _ := out.Column("t")
	if c.Format(4) != "b" {
		t.Fatalf("tie filled with %q, want b", c.Format(4))
	}
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	ds := scores()
	before := ds.Clone()
	opts := allOptions()
	opts.DropColumns = []string{"id"}
	Clean(ds, opts)
	if !ds.Equal(before) {
		t.Fatalf("input dataset was modified")
	}
}

func TestCleanNeverGrows(t *testing.T) {
	ds := dataset.MustNew("g",
		col("a", "1", "1", "", "4"),
		col("b", "", "", "", "x"),
		col("c", "p", "p", "q", ""),
	)
	opts := allOptions()
	opts.DropColumns = []string{"zzz"}
	out, sum := Clean(ds, opts)
	if out.NumRows() > ds.NumRows() || out.NumCols() > ds.NumCols() {
		t.Fatalf("output %dx%d larger than input %dx%d", out.NumRows(), out.NumCols(), ds.NumRows(), ds.NumCols())
	}
	if sum.RowsBefore != 4 || sum.RowsAfter != out.NumRows() || sum.ColsAfter != out.NumCols() {
		t.Fatalf("summary = %+v", sum)
	}
	names := make([]string, len(sum.Steps))
	for i, s := range sum.Steps {
		names[i] = s.Step
	}
	want := []string{"drop_columns", "drop_duplicates", "drop_sparse_columns", "fill_numeric_mean", "fill_categorical_mode"}
	if !slices.Equal(names, want) {
		t.Fatalf("steps = %v, want %v", names, want)
	}
}

func TestCleanEmptyDataset(t *testing.T) {
	ds := dataset.MustNew("empty", col("a"), col("b"))
	out, _ := Clean(ds, allOptions())
	if !out.Equal(ds) {
		t.Fatalf("empty dataset should pass through unchanged")
	}
	none := dataset.MustNew("none")
	out, _ = Clean(none, allOptions())
	if out.NumCols() != 0 || out.NumRows() != 0 {
		t.Fatalf("no-column dataset changed")
	}
}

func TestCleanDropDuplicatesKeepsDistinctLargeIDs(t *testing.T) {
	ds := dataset.MustNew("ids", col("id", "9007199254740993", "9007199254740992", "9007199254740993"))
	out, sum := Clean(ds, Options{DropDuplicateRows: true})
	if out.NumRows() != 2 || sum.Steps[0].RowsRemoved != 1 {
		t.Fatalf("rows = %d, removed = %d, want 2 and 1", out.NumRows(), sum.Steps[0].RowsRemoved)
	}
	id, _ := out.Column("id")
	if id.Format(0) != "9007199254740993" || id.Format(1) != "9007199254740992" {
		t.Fatalf("ids = %s, %s", id.Format(0), id.Format(1))
	}
}
