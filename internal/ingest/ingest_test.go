package ingest

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KaramelBytes/dataprep-cli/internal/dataset"
)

func mustRead(t *testing.T, name, body string, opt Options) *Result {
	t.Helper()
	res, err := Read(strings.NewReader(body), name, opt)
	if err != nil {
		t.Fatalf("Read(%s): %v", name, err)
	}
	return res
}

func TestReadCSVInfersKindsAndMissing(t *testing.T) {
	res := mustRead(t, "scores.csv", "id,score,city,ok\n1,10,Oslo,True\n2,NA,,False\n3,10,Lima,\n4,30,N/A,True\n", DefaultOptions())
	ds := res.Data
	if ds.NumRows() != 4 || ds.NumCols() != 4 {
		t.Fatalf("shape = %dx%d, want 4x4", ds.NumRows(), ds.NumCols())
	}
	want := []dataset.Kind{dataset.Numeric, dataset.Numeric, dataset.Text, dataset.Boolean}
	for j, c := range ds.Columns() {
		if c.Kind() != want[j] {
			t.Fatalf("%s kind = %v, want %v", c.Name(), c.Kind(), want[j])
		}
	}
	score, _ := ds.Column("score")
	if got := dataset.MissingCount(score); got != 1 {
		t.Fatalf("score missing = %d, want 1", got)
	}
	city, _ := ds.Column("city")
	if got := dataset.MissingCount(city); got != 2 {
		t.Fatalf("city missing = %d, want 2", got)
	}
	id, _ := ds.Column("id")
	if !id.(*dataset.NumericColumn).Integer {
		t.Fatalf("id should be an integer column")
	}
	if score.(*dataset.NumericColumn).Integer {
		t.Fatalf("score has a gap and must not be an integer column")
	}
}

func TestReadCSVPadsShortRows(t *testing.T) {
	res := mustRead(t, "short.csv", "a,b,c\n1,2\n3,4,5\n", DefaultOptions())
	c, _ := res.Data.Column("c")
	if !c.IsMissing(0) || c.IsMissing(1) {
		t.Fatalf("short row should be padded with a missing cell")
	}
}

func TestReadCSVRejectsLongRows(t *testing.T) {
	_, err := Read(strings.NewReader("a,b\n1,2\n3,4,5\n"), "long.csv", DefaultOptions())
	var me *MalformedInputError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want MalformedInputError", err)
	}
	if me.Line != 3 {
		t.Fatalf("line = %d, want 3", me.Line)
	}
}

func TestReadEmptyInputIsMalformed(t *testing.T) {
	_, err := Read(strings.NewReader(""), "empty.csv", DefaultOptions())
	var me *MalformedInputError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want MalformedInputError", err)
	}
}

func TestReadHeaderOnly(t *testing.T) {
	res := mustRead(t, "h.csv", "a,b\n", DefaultOptions())
	if res.Data.NumRows() != 0 || res.Data.NumCols() != 2 {
		t.Fatalf("shape = %dx%d, want 0x2", res.Data.NumRows(), res.Data.NumCols())
	}
	for _, c := range res.Data.Columns() {
		if c.Kind() != dataset.Text {
			t.Fatalf("%s kind = %v, want text", c.Name(), c.Kind())
		}
	}
}

func TestReadNaNSpellingIsMissing(t *testing.T) {
	res := mustRead(t, "nan.csv", "a,b\n1,1\nNAN,2\n3,3\n", DefaultOptions())
	a, _ := res.Data.Column("a")
	if a.Kind() != dataset.Numeric || !a.IsMissing(1) || dataset.MissingCount(a) != 1 {
		t.Fatalf("NAN should load as a missing numeric cell")
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, res.Data); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != "a,b\n1.0,1\n,2\n3.0,3\n" {
		t.Fatalf("csv = %q", buf.String())
	}
}

func TestReadLargeIntegersRoundTrip(t *testing.T) {
	body := "id\n9007199254740993\n9007199254740992\n"
	res := mustRead(t, "ids.csv", body, DefaultOptions())
	var buf bytes.Buffer
	if err := WriteCSV(&buf, res.Data); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	if buf.String() != body {
		t.Fatalf("csv = %q, want %q", buf.String(), body)
	}
}

func TestHeaderNamesAreUnique(t *testing.T) {
	res := mustRead(t, "dup.csv", "a,a,,a\n1,2,3,4\n", DefaultOptions())
	got := strings.Join(res.Data.Names(), "|")
	if got != "a|a.1|Unnamed: 2|a.2" {
		t.Fatalf("names = %s", got)
	}
}

func TestTSVDelimiterSniffed(t *testing.T) {
	res := mustRead(t, "x.tsv", "a\tb\n1\t2\n", DefaultOptions())
	if res.Data.NumCols() != 2 {
		t.Fatalf("cols = %d, want 2", res.Data.NumCols())
	}
}

func TestExtraNAValues(t *testing.T) {
	opt := DefaultOptions()
	opt.NAValues = []string{"?"}
	res := mustRead(t, "q.csv", "a\n1\n?\n", opt)
	c, _ := res.Data.Column("a")
	if c.Kind() != dataset.Numeric || !c.IsMissing(1) {
		t.Fatalf("'?' should be missing and the column numeric")
	}
}

func TestSizeLimit(t *testing.T) {
	opt := DefaultOptions()
	opt.MaxBytes = 8
	_, err := Read(strings.NewReader("a,b\n1,2\n3,4\n5,6\n"), "big.csv", opt)
	if !errors.Is(err, ErrTooLarge) {
		t.Fatalf("err = %v, want ErrTooLarge", err)
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "big.csv")
	if err := os.WriteFile(path, []byte("a\n1\n2\n3\n4\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadFile(path, opt); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("ReadFile err = %v, want ErrTooLarge", err)
	}
}

func TestRowWarning(t *testing.T) {
	opt := DefaultOptions()
	opt.RowWarningThreshold = 2
	res := mustRead(t, "w.csv", "a\n1\n2\n3\n", opt)
	if len(res.Warnings) != 1 || !strings.Contains(res.Warnings[0], "3 rows") {
		t.Fatalf("warnings = %v", res.Warnings)
	}
	if groupThousands(2000001) != "2,000,001" {
		t.Fatalf("groupThousands = %s", groupThousands(2000001))
	}
}

func TestReadJSONSplit(t *testing.T) {
	body := `{"columns":["id","score","ok"],"data":[[1,10.5,true],[2,null,false],[3,7,null]]}`
	res := mustRead(t, "t.json", body, DefaultOptions())
	ds := res.Data
	score, _ := ds.Column("score")
	ok, _ := ds.Column("ok")
	if score.Kind() != dataset.Numeric || !score.IsMissing(1) {
		t.Fatalf("score should be numeric with row 1 missing")
	}
	if ok.Kind() != dataset.Boolean || !ok.IsMissing(2) {
		t.Fatalf("ok should be boolean with row 2 missing")
	}
}

func TestWriteCSV(t *testing.T) {
	res := mustRead(t, "s.csv", "id,score,name\n1,10,a\n2,,b\n3,30.5,\n", DefaultOptions())
	var buf bytes.Buffer
	if err := WriteCSV(&buf, res.Data); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}
	want := "id,score,name\n1,10.0,a\n2,,b\n3,30.5,\n"
	if buf.String() != want {
		t.Fatalf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestXLSXRoundTrip(t *testing.T) {
	res := mustRead(t, "s.csv", "id,score,name\n1,10,a\n2,,b\n3,30.5,c\n", DefaultOptions())
	dir := t.TempDir()
	path := filepath.Join(dir, "out.xlsx")
	if err := WriteFile(path, res.Data); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	back, err := ReadFile(path, DefaultOptions())
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if back.Data.NumRows() != 3 || back.Data.NumCols() != 3 {
		t.Fatalf("shape = %dx%d, want 3x3", back.Data.NumRows(), back.Data.NumCols())
	}
	score, _ := back.Data.Column("score")
	if score.Kind() != dataset.Numeric || !score.IsMissing(1) {
		t.Fatalf("score should survive as numeric with a gap")
	}
	name, _ := back.Data.Column("name")
	if name.Format(2) != "c" {
		t.Fatalf("name[2] = %q", name.Format(2))
	}
}

func TestXLSXMissingSheet(t *testing.T) {
	res := mustRead(t, "s.csv", "a\n1\n", DefaultOptions())
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, res.Data); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	opt := DefaultOptions()
	opt.SheetName = "Nope"
	_, err := Read(&buf, "b.xlsx", opt)
	var me *MalformedInputError
	if !errors.As(err, &me) {
		t.Fatalf("err = %v, want MalformedInputError", err)
	}
}
