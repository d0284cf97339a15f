package records

import (
	"math"
	"strconv"
	"strings"
)

// FormatValue renders a cell the way every text writer in the module does:
// nil is empty, integral floats keep a trailing ".0" so numeric columns stay
// visibly numeric (21.0, 29.5), strings are returned unchanged.
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return formatFloat(t)
	case float32:
		return formatFloat(float64(t))
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return strconv.FormatFloat(f, 'g', -1, 64)
	}
	s := strconv.FormatFloat(f, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// ParseCell converts a textual cell back into a model value. Empty strings
// become nil. When numeric is true the text is parsed as float64; a parse
// failure keeps the original string.
func ParseCell(s string, numeric bool) any {
	if s == "" {
		return nil
	}
	if numeric {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	}
	return s
}

// Kind classifies a column by the values it holds.
type Kind int

const (
	// KindString is the default for empty or mixed columns.
	KindString Kind = iota
	// KindFloat means every non-nil value is a float64.
	KindFloat
)

// ColumnKind inspects the values of column and reports KindFloat when every
// non-nil value is a float64 and at least one exists.
func (rs RecordSet) ColumnKind(column string) Kind {
	seen := false
	for _, r := range rs.Rows {
		switch r[column].(type) {
		case nil:
			continue
		case float64:
			seen = true
		default:
			return KindString
		}
	}
	if seen {
		return KindFloat
	}
	return KindString
}
