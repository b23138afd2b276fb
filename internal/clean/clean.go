package clean

import (
	"github.com/KaramelBytes/dataprep-cli/internal/dataset"
)

// Options selects the cleaning steps. The zero value disables everything.
type Options struct {
	// DropColumns names columns to remove. Unknown names are ignored.
	DropColumns []string `json:"drop_columns" yaml:"drop_columns"`
	// DropDuplicateRows keeps the first of each set of identical rows.
	DropDuplicateRows bool `json:"drop_duplicates" yaml:"drop_duplicates"`
	// DropSparseColumns removes columns with fewer than half their cells present.
	DropSparseColumns bool `json:"drop_sparse_columns" yaml:"drop_sparse_columns"`
	// FillNumericMean replaces missing numeric cells with the column mean.
	FillNumericMean bool `json:"fill_numeric_mean" yaml:"fill_numeric_mean"`
	// FillCategoricalMode replaces missing non-numeric cells with the column mode.
	FillCategoricalMode bool `json:"fill_categorical_mode" yaml:"fill_categorical_mode"`
}

// Step is one transformation in the cleaning pipeline. Apply may modify ds
// in place; the pipeline hands it a private copy.
type Step interface {
	Name() string
	Apply(ds *dataset.Dataset, rec *StepRecord) *dataset.Dataset
}

// StepRecord describes what a step did.
type StepRecord struct {
	Step           string   `json:"step"`
	RowsRemoved    int      `json:"rows_removed,omitempty"`
	ColumnsRemoved []string `json:"columns_removed,omitempty"`
	CellsFilled    int      `json:"cells_filled,omitempty"`
	// IgnoredColumns lists drop requests that matched no column.
	IgnoredColumns []string `json:"ignored_columns,omitempty"`
}

// Summary is the log of a cleaning run.
type Summary struct {
	RowsBefore int          `json:"rows_before"`
	RowsAfter  int          `json:"rows_after"`
	ColsBefore int          `json:"cols_before"`
	ColsAfter  int          `json:"cols_after"`
	Steps      []StepRecord `json:"steps"`
}

// Pipeline runs steps in the order they were added.
type Pipeline struct {
	steps []Step
}

func NewPipeline() *Pipeline { return &Pipeline{} }

func (p *Pipeline) Add(s Step) *Pipeline {
	p.steps = append(p.steps, s)
	return p
}

// Run applies every step to a copy of ds. ds itself is never modified.
func (p *Pipeline) Run(ds *dataset.Dataset) (*dataset.Dataset, *Summary) {
	sum := &Summary{RowsBefore: ds.NumRows(), ColsBefore: ds.NumCols(), Steps: []StepRecord{}}
	cur := ds.Clone()
	for _, s := range p.steps {
		rec := StepRecord{Step: s.Name()}
		cur = s.Apply(cur, &rec)
		sum.Steps = append(sum.Steps, rec)
	}
	sum.RowsAfter = cur.NumRows()
	sum.ColsAfter = cur.NumCols()
	return cur, sum
}

// Build returns the pipeline for opts. Steps always run in this order:
// drop columns, drop duplicate rows, drop sparse columns, mean fill, mode fill.
// Disabled steps are left out.
func Build(opts Options) *Pipeline {
	p := NewPipeline()
	if len(opts.DropColumns) > 0 {
		p.Add(DropColumns(opts.DropColumns))
	}
	if opts.DropDuplicateRows {
		p.Add(DropDuplicateRows{})
	}
	if opts.DropSparseColumns {
		p.Add(DropSparseColumns{})
	}
	if opts.FillNumericMean {
		p.Add(FillNumericMean{})
	}
	if opts.FillCategoricalMode {
		p.Add(FillCategoricalMode{})
	}
	return p
}

// Clean applies opts to ds and returns the cleaned dataset with a summary.
// The result never has more rows or columns than ds.
func Clean(ds *dataset.Dataset, opts Options) (*dataset.Dataset, *Summary) {
	return Build(opts).Run(ds)
}
