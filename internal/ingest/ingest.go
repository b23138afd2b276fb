package ingest

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/KaramelBytes/dataprep-cli/internal/dataset"
)

// DefaultNAValues are the cell spellings treated as missing on every load.
var DefaultNAValues = []string{
	"", "#N/A", "#N/A N/A", "#NA", "-1.#IND", "-1.#QNAN", "-NaN", "-nan",
	"1.#IND", "1.#QNAN", "<NA>", "N/A", "NA", "NULL", "NaN", "None", "n/a", "nan", "null",
}

const (
	DefaultMaxBytes            = 200 << 20
	DefaultRowWarningThreshold = 2_000_000
)

// ErrTooLarge is returned when the input exceeds Options.MaxBytes.
var ErrTooLarge = errors.New("input exceeds size limit")

// MalformedInputError reports input that cannot be read as a table.
type MalformedInputError struct {
	// Line is the 1-based line (or sheet row) of the problem, 0 when unknown.
	Line   int
	Reason string
	Err    error
}

func (e *MalformedInputError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("malformed input at line %d: %s", e.Line, e.Reason)
	}
	return "malformed input: " + e.Reason
}

func (e *MalformedInputError) Unwrap() error { return e.Err }

// Options controls how tables are read.
type Options struct {
	// Delimiter for CSV. If 0, '\t' for .tsv names and ',' otherwise.
	Delimiter rune
	// NAValues are extra missing markers on top of DefaultNAValues.
	NAValues []string
	// MaxBytes rejects larger inputs with ErrTooLarge; 0 means unlimited.
	MaxBytes int64
	// RowWarningThreshold attaches a warning above this many rows; 0 disables it.
	RowWarningThreshold int
	// XLSX sheet selection. SheetIndex is 1-based and used when SheetName is empty.
	SheetName  string
	SheetIndex int
}

// DefaultOptions returns the standard ingestion limits.
func DefaultOptions() Options {
	return Options{
		MaxBytes:            DefaultMaxBytes,
		RowWarningThreshold: DefaultRowWarningThreshold,
		SheetIndex:          1,
	}
}

// Result is a loaded dataset plus any non-fatal notes about it.
type Result struct {
	Data     *dataset.Dataset
	Warnings []string
}

// Format reads one kind of tabular file into a header and raw rows.
type Format interface {
	CanRead(name string) bool
	ReadRaw(r io.Reader, name string, opt Options) (header []string, rows [][]string, err error)
}

var registry []Format

// Register adds a format to the registry. Later registrations win ties.
func Register(f Format) {
	registry = append([]Format{f}, registry...)
}

func init() {
	Register(csvFormat{})
	Register(xlsxFormat{})
	Register(jsonFormat{})
}

func formatFor(name string) Format {
	for _, f := range registry {
		if f.CanRead(name) {
			return f
		}
	}
	return csvFormat{}
}

// ReadFile loads the table at path, choosing the format by extension.
func ReadFile(path string, opt Options) (*Result, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if opt.MaxBytes > 0 && st.Size() > opt.MaxBytes {
		return nil, fmt.Errorf("%s is %d bytes: %w", filepath.Base(path), st.Size(), ErrTooLarge)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer f.Close()
	return Read(f, filepath.Base(path), opt)
}

// Read loads a table from r. name selects the format by extension and
// becomes the dataset name.
func Read(r io.Reader, name string, opt Options) (*Result, error) {
	if opt.MaxBytes > 0 {
		r = &guardReader{r: r, left: opt.MaxBytes}
	}
	header, rows, err := formatFor(name).ReadRaw(r, name, opt)
	if err != nil {
		if errors.Is(err, ErrTooLarge) {
			return nil, err
		}
		var me *MalformedInputError
		if errors.As(err, &me) {
			return nil, err
		}
		return nil, &MalformedInputError{Reason: err.Error(), Err: err}
	}
	return build(name, header, rows, opt)
}

// guardReader fails with ErrTooLarge once more than left bytes are read.
type guardReader struct {
	r    io.Reader
	left int64
}

func (g *guardReader) Read(p []byte) (int, error) {
	if g.left < 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > g.left+1 {
		p = p[:g.left+1]
	}
	n, err := g.r.Read(p)
	g.left -= int64(n)
	if g.left < 0 {
		return n, ErrTooLarge
	}
	return n, err
}

func build(name string, header []string, rows [][]string, opt Options) (*Result, error) {
	if len(header) == 0 {
		return nil, &MalformedInputError{Reason: "no columns to parse"}
	}
	names := headerNames(header)
	ncol := len(names)
	for i, row := range rows {
		if len(row) > ncol {
			return nil, &MalformedInputError{
				Line:   i + 2,
				Reason: fmt.Sprintf("expected %d fields, saw %d", ncol, len(row)),
			}
		}
	}
	na := naSet(opt.NAValues)
	cols := make([]dataset.Column, ncol)
	raw := make([]string, len(rows))
	for j := 0; j < ncol; j++ {
		missing := make([]bool, len(rows))
		for i, row := range rows {
			s := ""
			if j < len(row) {
				s = row[j]
			}
			raw[i] = s
			_, missing[i] = na[s]
		}
		cols[j] = dataset.Infer(names[j], raw, missing)
	}
	ds, err := dataset.New(name, cols...)
	if err != nil {
		return nil, &MalformedInputError{Reason: err.Error(), Err: err}
	}
	res := &Result{Data: ds}
	if opt.RowWarningThreshold > 0 && ds.NumRows() > opt.RowWarningThreshold {
		res.Warnings = append(res.Warnings, fmt.Sprintf("large file with %s rows may be slow", groupThousands(ds.NumRows())))
	}
	return res, nil
}

func naSet(extra []string) map[string]struct{} {
	m := make(map[string]struct{}, len(DefaultNAValues)+len(extra))
	for _, s := range DefaultNAValues {
		m[s] = struct{}{}
	}
	for _, s := range extra {
		m[s] = struct{}{}
	}
	return m
}

// headerNames fills blank names and suffixes repeats: a, a -> a, a.1.
func headerNames(header []string) []string {
	out := make([]string, len(header))
	used := make(map[string]struct{}, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		if strings.TrimSpace(h) == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for k := 1; ; k++ {
			if _, dup := used[name]; !dup {
				break
			}
			name = h + "." + strconv.Itoa(k)
		}
		used[name] = struct{}{}
		out[i] = name
	}
	return out
}

func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
	}
	for i := pre; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
