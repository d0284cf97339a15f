package builtin

import (
	"survey/pkg/records"
)

// CanonicalTable maps raw category labels of one column to their standard
// label. It is immutable once built.
type CanonicalTable struct {
	m map[string]string
}

// NewCanonicalTable copies m into a new table.
func NewCanonicalTable(m map[string]string) CanonicalTable {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return CanonicalTable{m: cp}
}

// Lookup returns the standard label for raw, or raw itself when the table has
// no entry for it.
func (t CanonicalTable) Lookup(raw string) string {
	if v, ok := t.m[raw]; ok {
		return v
	}
	return raw
}

// Len returns the number of entries.
func (t CanonicalTable) Len() int { return len(t.m) }

// Map returns a copy of the entries.
func (t CanonicalTable) Map() map[string]string {
	cp := make(map[string]string, len(t.m))
	for k, v := range t.m {
		cp[k] = v
	}
	return cp
}

// BucketTable maps ordinal category labels of one column to a representative
// number. Sentinel labels are listed explicitly and map to nil, as does any
// label without an entry.
type BucketTable struct {
	values    map[string]float64
	sentinels map[string]struct{}
}

// NewBucketTable copies values into a new table and records sentinels as
// labels that deliberately carry no value.
func NewBucketTable(values map[string]float64, sentinels ...string) BucketTable {
	t := BucketTable{
		values:    make(map[string]float64, len(values)),
		sentinels: make(map[string]struct{}, len(sentinels)),
	}
	for k, v := range values {
		t.values[k] = v
	}
	for _, s := range sentinels {
		t.sentinels[s] = struct{}{}
	}
	return t
}

// Lookup returns the bucket value for raw as a float64, or nil when raw is a
// sentinel or unmapped.
func (t BucketTable) Lookup(raw string) any {
	if _, ok := t.sentinels[raw]; ok {
		return nil
	}
	if v, ok := t.values[raw]; ok {
		return v
	}
	return nil
}

// IsSentinel reports whether raw is one of the table's explicit sentinels.
func (t BucketTable) IsSentinel(raw string) bool {
	_, ok := t.sentinels[raw]
	return ok
}

// Canonicalize replaces every string value of Column with its standard label.
// Non-string values pass through.
type Canonicalize struct {
	Column string
	Table  CanonicalTable
}

// Apply returns a copy of in with Column canonicalized.
func (c Canonicalize) Apply(in records.RecordSet) (records.RecordSet, error) {
	if err := in.RequireColumns(c.Column); err != nil {
		return records.RecordSet{}, err
	}
	out := in.Clone()
	for _, r := range out.Rows {
		if s, ok := r[c.Column].(string); ok {
			r[c.Column] = c.Table.Lookup(s)
		}
	}
	return out, nil
}

// Bucket replaces every value of Column with its bucket number. Values that
// are not strings or have no entry become nil.
type Bucket struct {
	Column string
	Table  BucketTable
}

// Apply returns a copy of in with Column bucketed.
func (b Bucket) Apply(in records.RecordSet) (records.RecordSet, error) {
	if err := in.RequireColumns(b.Column); err != nil {
		return records.RecordSet{}, err
	}
	out := in.Clone()
	for _, r := range out.Rows {
		s, ok := r[b.Column].(string)
		if !ok {
			r[b.Column] = nil
			continue
		}
		r[b.Column] = b.Table.Lookup(s)
	}
	return out, nil
}
