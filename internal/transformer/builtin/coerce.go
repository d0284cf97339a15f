package builtin

import (
	"fmt"

	"github.com/spf13/cast"

	"survey/pkg/records"
)

// Coerce converts column values to the model's scalar types. Types maps a
// column to "float" or "string". Values that fail to convert to float become
// nil when Strict is false and abort the run when Strict is true.
type Coerce struct {
	Types  map[string]string
	Strict bool
}

// Apply returns a coerced copy of in.
func (c Coerce) Apply(in records.RecordSet) (records.RecordSet, error) {
	if len(c.Types) == 0 {
		return in, nil
	}
	cols := make([]string, 0, len(c.Types))
	for col := range c.Types {
		cols = append(cols, col)
	}
	if err := in.RequireColumns(cols...); err != nil {
		return records.RecordSet{}, err
	}

	out := in.Clone()
	for i, r := range out.Rows {
		for field, typ := range c.Types {
			v := r[field]
			if v == nil {
				continue
			}
			switch typ {
			case "float":
				f, err := cast.ToFloat64E(v)
				if err != nil {
					if c.Strict {
						return records.RecordSet{}, fmt.Errorf("coerce: row %d column %q: %w", i, field, err)
					}
					r[field] = nil
					continue
				}
				r[field] = f
			case "string":
				r[field] = cast.ToString(v)
			default:
				return records.RecordSet{}, fmt.Errorf("coerce: column %q: unknown type %q", field, typ)
			}
		}
	}
	return out, nil
}
