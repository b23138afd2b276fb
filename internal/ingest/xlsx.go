package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

type xlsxFormat struct{}

func (xlsxFormat) CanRead(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".xlsx")
}

func (xlsxFormat) ReadRaw(in io.Reader, name string, opt Options) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(in)
	if err != nil {
		return nil, nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheet, err := pickSheet(f.GetSheetList(), name, opt)
	if err != nil {
		return nil, nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0], rows[1:], nil
}

func pickSheet(sheets []string, name string, opt Options) (string, error) {
	if len(sheets) == 0 {
		return "", &MalformedInputError{Reason: "workbook has no sheets"}
	}
	if opt.SheetName != "" {
		for _, s := range sheets {
			if strings.EqualFold(s, opt.SheetName) {
				return s, nil
			}
		}
		return "", &MalformedInputError{Reason: fmt.Sprintf("sheet %q not found in workbook %q; available sheets: %s",
			opt.SheetName, name, strings.Join(sheets, ", "))}
	}
	idx := opt.SheetIndex
	if idx <= 0 {
		idx = 1
	}
	if idx > len(sheets) {
		return "", &MalformedInputError{Reason: fmt.Sprintf("sheet index %d out of range (workbook has %d)", idx, len(sheets))}
	}
	return sheets[idx-1], nil
}
