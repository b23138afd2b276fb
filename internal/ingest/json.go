package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cast"
)

// jsonFormat reads the split layout: {"columns": [...], "data": [[...], ...]}.
type jsonFormat struct{}

type splitTable struct {
	Columns []any   `json:"columns"`
	Data    [][]any `json:"data"`
}

func (jsonFormat) CanRead(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".json")
}

func (jsonFormat) ReadRaw(in io.Reader, _ string, _ Options) ([]string, [][]string, error) {
	dec := json.NewDecoder(in)
	dec.UseNumber()
	var t splitTable
	if err := dec.Decode(&t); err != nil {
		if err == io.EOF {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("decode json: %w", err)
	}
	header := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		s, err := cast.ToStringE(c)
		if err != nil {
			return nil, nil, &MalformedInputError{Reason: fmt.Sprintf("column %d name: %v", i, err)}
		}
		header[i] = s
	}
	rows := make([][]string, len(t.Data))
	for i, rec := range t.Data {
		row := make([]string, len(rec))
		for j, v := range rec {
			if v == nil {
				continue
			}
			s, err := cast.ToStringE(v)
			if err != nil {
				return nil, nil, &MalformedInputError{Line: i + 2, Reason: fmt.Sprintf("cell %d: %v", j, err)}
			}
			row[j] = s
		}
		rows[i] = row
	}
	return header, rows, nil
}
