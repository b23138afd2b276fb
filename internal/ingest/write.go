package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/dataprep-cli/internal/dataset"
	"github.com/KaramelBytes/dataprep-cli/internal/utils"
)

// WriteCSV writes the header and every row, without an index column.
// Missing cells are written as empty fields.
func WriteCSV(w io.Writer, ds *dataset.Dataset) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ds.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, rec := range ds.Records() {
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the dataset to the first sheet of a new workbook.
// Missing cells are left blank.
func WriteXLSX(w io.Writer, ds *dataset.Dataset) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)

	header := make([]any, ds.NumCols())
	for j, n := range ds.Names() {
		header[j] = n
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	cols := ds.Columns()
	row := make([]any, len(cols))
	for i := 0; i < ds.NumRows(); i++ {
		for j, c := range cols {
			row[j] = c.Value(i)
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

// Write encodes ds in the format implied by name: XLSX for .xlsx, CSV otherwise.
func Write(w io.Writer, name string, ds *dataset.Dataset) error {
	if strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		return WriteXLSX(w, ds)
	}
	return WriteCSV(w, ds)
}

// WriteFile encodes ds and atomically replaces path.
func WriteFile(path string, ds *dataset.Dataset) error {
	var buf bytes.Buffer
	if err := Write(&buf, path, ds); err != nil {
		return err
	}
	return utils.SafeWriteFile(path, buf.Bytes())
}
