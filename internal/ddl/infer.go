package ddl

import "survey/pkg/records"

// Infer derives a nullable TableDef from the values of t. A column whose
// non-nil values are all ints is KindInt, all numeric with at least one
// float64 is KindFloat, anything else (including all-nil) is KindText.
func Infer(fqn string, t records.Table) TableDef {
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, len(t.Columns))}
	for i, name := range t.Columns {
		def.Columns[i] = ColumnDef{Name: name, Kind: columnKind(t, i), Nullable: true}
	}
	return def
}

func columnKind(t records.Table, col int) string {
	sawInt, sawFloat := false, false
	for _, row := range t.Rows {
		if col >= len(row) {
			continue
		}
		switch row[col].(type) {
		case nil:
		case int, int32, int64:
			sawInt = true
		case float32, float64:
			sawFloat = true
		default:
			return KindText
		}
	}
	switch {
	case sawFloat:
		return KindFloat
	case sawInt:
		return KindInt
	default:
		return KindText
	}
}
