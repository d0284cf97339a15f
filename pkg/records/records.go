// Package records defines the in-memory tabular model shared by every stage of
// the survey pipeline.
//
// A Record is one respondent: a mapping of column name to value. Values are
// restricted to string, float64 or nil so that both output formats can carry
// them losslessly. A RecordSet pairs records with the ordered column schema
// they share. Stages never edit a RecordSet in place; they build a new one.
package records

import (
	"fmt"
	"sort"
	"strings"
)

// Record is a single row keyed by column name.
type Record map[string]any

// Clone returns a shallow copy of r. Values are immutable scalars, so a
// shallow copy is a full copy.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RecordSet is an ordered sequence of records sharing a fixed column schema.
type RecordSet struct {
	Columns []string
	Rows    []Record
}

// New builds a RecordSet from columns and rows. The column slice is copied.
func New(columns []string, rows []Record) RecordSet {
	return RecordSet{Columns: append([]string(nil), columns...), Rows: rows}
}

// Len returns the number of rows.
func (rs RecordSet) Len() int { return len(rs.Rows) }

// Has reports whether column is part of the schema.
func (rs RecordSet) Has(column string) bool {
	for _, c := range rs.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// RequireColumns returns a *SchemaError listing every name that is not part
// of the schema, or nil when all are present.
func (rs RecordSet) RequireColumns(names ...string) error {
	var missing []string
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		if !rs.Has(n) {
			missing = append(missing, n)
		}
	}
	if len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}

// Column returns the values of one column in row order.
func (rs RecordSet) Column(name string) []any {
	out := make([]any, len(rs.Rows))
	for i, r := range rs.Rows {
		out[i] = r[name]
	}
	return out
}

// Clone returns a deep copy of the set (rows are copied, not shared).
func (rs RecordSet) Clone() RecordSet {
	rows := make([]Record, len(rs.Rows))
	for i, r := range rs.Rows {
		rows[i] = r.Clone()
	}
	return New(rs.Columns, rows)
}

// Project returns a new RecordSet restricted to columns, in the given order.
// Missing columns are reported as a *SchemaError.
func (rs RecordSet) Project(columns []string) (RecordSet, error) {
	if err := rs.RequireColumns(columns...); err != nil {
		return RecordSet{}, err
	}
	rows := make([]Record, len(rs.Rows))
	for i, r := range rs.Rows {
		nr := make(Record, len(columns))
		for _, c := range columns {
			nr[c] = r[c]
		}
		rows[i] = nr
	}
	return New(columns, rows), nil
}

// Values returns r's values aligned to the schema order.
func (rs RecordSet) Values(r Record) []any {
	out := make([]any, len(rs.Columns))
	for i, c := range rs.Columns {
		out[i] = r[c]
	}
	return out
}

// SchemaError reports required columns absent from the input.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	m := append([]string(nil), e.Missing...)
	sort.Strings(m)
	return fmt.Sprintf("schema: missing required column(s): %s", strings.Join(m, ", "))
}

// Table is a derived output table such as a top-N frequency view or a
// grouped aggregation.
type Table struct {
	// Name is the output base name, e.g. "top10_lang".
	Name    string
	Columns []string
	Rows    [][]any
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }

// Table renders rs as a named Table with rows aligned to the schema.
func (rs RecordSet) Table(name string) Table {
	t := Table{Name: name, Columns: append([]string(nil), rs.Columns...), Rows: make([][]any, len(rs.Rows))}
	for i, r := range rs.Rows {
		t.Rows[i] = rs.Values(r)
	}
	return t
}
