package output

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"survey/pkg/records"
)

// columnsKey stores the schema's column order in the file footer; parquet
// groups sort their fields by name.
const columnsKey = "survey.columns"

// buildSchema derives a flat schema from rs: numeric columns become optional
// DOUBLE, everything else optional UTF-8 strings.
func buildSchema(rs records.RecordSet) *parquet.Schema {
	group := make(parquet.Group, len(rs.Columns))
	for _, c := range rs.Columns {
		if rs.ColumnKind(c) == records.KindFloat {
			group[c] = parquet.Optional(parquet.Leaf(parquet.DoubleType))
		} else {
			group[c] = parquet.Optional(parquet.String())
		}
	}
	return parquet.NewSchema("survey", group)
}

// WriteParquet writes rs in Parquet format, preserving row order.
func WriteParquet(w io.Writer, rs records.RecordSet) error {
	schema := buildSchema(rs)

	order, err := json.Marshal(rs.Columns)
	if err != nil {
		return err
	}

	leaves := make([]int, len(rs.Columns))
	for i, c := range rs.Columns {
		leaf, ok := schema.Lookup(c)
		if !ok {
			return fmt.Errorf("parquet: column %q missing from schema", c)
		}
		leaves[i] = leaf.ColumnIndex
	}

	pw := parquet.NewWriter(w,
		schema,
		parquet.Compression(&parquet.Snappy),
		parquet.KeyValueMetadata(columnsKey, string(order)),
	)

	const batch = 1024
	rows := make([]parquet.Row, 0, batch)
	for _, r := range rs.Rows {
		row := make(parquet.Row, len(rs.Columns))
		for i, c := range rs.Columns {
			row[leaves[i]] = toValue(r[c]).Level(0, definitionLevel(r[c]), leaves[i])
		}
		rows = append(rows, row)
		if len(rows) == batch {
			if _, err := pw.WriteRows(rows); err != nil {
				return fmt.Errorf("parquet: write rows: %w", err)
			}
			rows = rows[:0]
		}
	}
	if len(rows) > 0 {
		if _, err := pw.WriteRows(rows); err != nil {
			return fmt.Errorf("parquet: write rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("parquet: close: %w", err)
	}
	return nil
}

func toValue(v any) parquet.Value {
	switch t := v.(type) {
	case nil:
		return parquet.NullValue()
	case float64:
		return parquet.DoubleValue(t)
	default:
		return parquet.ByteArrayValue([]byte(records.FormatValue(t)))
	}
}

func definitionLevel(v any) int {
	if v == nil {
		return 0
	}
	return 1
}

// ReadParquet reads what WriteParquet wrote.
func ReadParquet(r io.ReaderAt, size int64) (records.RecordSet, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return records.RecordSet{}, fmt.Errorf("parquet: open: %w", err)
	}

	var columns []string
	if raw, ok := f.Lookup(columnsKey); ok {
		if err := json.Unmarshal([]byte(raw), &columns); err != nil {
			return records.RecordSet{}, fmt.Errorf("parquet: column order: %w", err)
		}
	} else {
		for _, field := range f.Schema().Fields() {
			columns = append(columns, field.Name())
		}
	}

	names := make(map[int]string, len(columns))
	for _, c := range columns {
		leaf, ok := f.Schema().Lookup(c)
		if !ok {
			return records.RecordSet{}, fmt.Errorf("parquet: column %q missing from schema", c)
		}
		names[leaf.ColumnIndex] = c
	}

	rs := records.New(columns, make([]records.Record, 0, f.NumRows()))
	buf := make([]parquet.Row, 256)
	for _, rg := range f.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				rec := make(records.Record, len(columns))
				for _, v := range row {
					name, ok := names[v.Column()]
					if !ok {
						continue
					}
					rec[name] = fromValue(v)
				}
				rs.Rows = append(rs.Rows, rec)
			}
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				_ = rows.Close()
				return records.RecordSet{}, fmt.Errorf("parquet: read rows: %w", err)
			}
		}
		if err := rows.Close(); err != nil {
			return records.RecordSet{}, fmt.Errorf("parquet: close rows: %w", err)
		}
	}
	return rs, nil
}

func fromValue(v parquet.Value) any {
	if v.IsNull() {
		return nil
	}
	switch v.Kind() {
	case parquet.Double:
		return v.Double()
	default:
		return string(v.ByteArray())
	}
}
