package output

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"survey/pkg/records"
)

// WriteCSV writes rs as a header row followed by one line per record, in row
// order. nil cells are empty.
func WriteCSV(w io.Writer, rs records.RecordSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rs.Columns); err != nil {
		return err
	}
	line := make([]string, len(rs.Columns))
	for _, r := range rs.Rows {
		for i, c := range rs.Columns {
			line[i] = records.FormatValue(r[c])
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteTable writes a derived table as CSV.
func WriteTable(w io.Writer, t records.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Columns); err != nil {
		return err
	}
	line := make([]string, len(t.Columns))
	for n, row := range t.Rows {
		if len(row) != len(t.Columns) {
			return fmt.Errorf("table %s: row %d has %d values, want %d", t.Name, n, len(row), len(t.Columns))
		}
		for i, v := range row {
			line[i] = records.FormatValue(v)
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV reads what WriteCSV wrote. Columns named in numeric are parsed back
// to float64; every other non-empty cell stays a string.
func ReadCSV(r io.Reader, numeric ...string) (records.RecordSet, error) {
	isNum := make(map[string]bool, len(numeric))
	for _, c := range numeric {
		isNum[c] = true
	}
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return records.RecordSet{}, fmt.Errorf("read csv: empty input")
	}
	if err != nil {
		return records.RecordSet{}, fmt.Errorf("read csv header: %w", err)
	}
	rs := records.New(header, nil)
	for {
		line, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return records.RecordSet{}, fmt.Errorf("read csv: %w", err)
		}
		rec := make(records.Record, len(header))
		for i, c := range header {
			rec[c] = records.ParseCell(line[i], isNum[c])
		}
		rs.Rows = append(rs.Rows, rec)
	}
	return rs, nil
}
