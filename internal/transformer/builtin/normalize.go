package builtin

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"survey/pkg/records"
)

// Normalize cleans string cells: NBSP becomes a plain space, invisible format
// characters (BOM, zero-width joiners) are dropped, the text is composed to
// NFC and surrounding whitespace is trimmed. Columns limits the work to the
// named columns; empty means every column. A cell that normalizes to "" is
// set to nil so Require treats it as missing.
type Normalize struct {
	Columns []string
}

func newNormalizer() transform.Transformer {
	return transform.Chain(
		runes.Map(func(r rune) rune {
			if r == '\u00a0' {
				return ' '
			}
			return r
		}),
		runes.Remove(runes.In(unicode.Cf)),
		norm.NFC,
	)
}

// Apply returns a normalized copy of in.
func (n Normalize) Apply(in records.RecordSet) (records.RecordSet, error) {
	cols := n.Columns
	if len(cols) == 0 {
		cols = in.Columns
	}
	if err := in.RequireColumns(cols...); err != nil {
		return records.RecordSet{}, err
	}

	t := newNormalizer()
	out := in.Clone()
	for _, r := range out.Rows {
		for _, c := range cols {
			s, ok := r[c].(string)
			if !ok {
				continue
			}
			ns, _, err := transform.String(t, s)
			if err != nil {
				// Keep the raw value; only the trim applies.
				ns = s
			}
			ns = strings.TrimSpace(ns)
			if ns == "" {
				r[c] = nil
			} else {
				r[c] = ns
			}
		}
	}
	return out, nil
}
