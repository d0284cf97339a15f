package builtin

import "survey/pkg/records"

// Require removes any record missing a value for one of Fields. nil and the
// empty string both count as missing.
type Require struct {
	Fields []string
}

// Filter returns the surviving records and how many were removed. The count
// is reported even when it is zero.
func (r Require) Filter(in records.RecordSet) (records.RecordSet, int, error) {
	if err := in.RequireColumns(r.Fields...); err != nil {
		return records.RecordSet{}, 0, err
	}
	out := make([]records.Record, 0, len(in.Rows))
	for _, rec := range in.Rows {
		ok := true
		for _, f := range r.Fields {
			v := rec[f]
			if v == nil || v == "" {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, rec.Clone())
		}
	}
	return records.New(in.Columns, out), len(in.Rows) - len(out), nil
}

// Apply implements transformer.Transformer.
func (r Require) Apply(in records.RecordSet) (records.RecordSet, error) {
	out, _, err := r.Filter(in)
	return out, err
}

// Project restricts a RecordSet to Columns, in that order.
type Project struct {
	Columns []string
}

// Apply implements transformer.Transformer.
func (p Project) Apply(in records.RecordSet) (records.RecordSet, error) {
	return in.Project(p.Columns)
}
