// Package aggregate groups a RecordSet by a key column and produces count
// and mean summaries joined per key.
package aggregate

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cast"

	"survey/pkg/records"
)

// Group is one key and the number of records sharing it.
type Group struct {
	Key   any
	Count int
}

// CountTable holds per-key counts, highest first. Equal counts keep the order
// in which their key was first seen.
type CountTable struct {
	Groups []Group
}

// Keys returns the keys in table order.
func (ct CountTable) Keys() []any {
	out := make([]any, len(ct.Groups))
	for i, g := range ct.Groups {
		out[i] = g.Key
	}
	return out
}

// Total returns the sum of all counts.
func (ct CountTable) Total() int {
	n := 0
	for _, g := range ct.Groups {
		n += g.Count
	}
	return n
}

// Table renders ct as {keyLabel, Count}.
func (ct CountTable) Table(name, keyLabel string) records.Table {
	t := records.Table{Name: name, Columns: []string{keyLabel, "Count"}, Rows: make([][]any, 0, len(ct.Groups))}
	for _, g := range ct.Groups {
		t.Rows = append(t.Rows, []any{g.Key, g.Count})
	}
	return t
}

// CountBy counts records per distinct value of key. nil keys are not counted.
func CountBy(rs records.RecordSet, key string) (CountTable, error) {
	if err := rs.RequireColumns(key); err != nil {
		return CountTable{}, err
	}
	idx := make(map[any]int)
	var ct CountTable
	for _, r := range rs.Rows {
		k := r[key]
		if k == nil {
			continue
		}
		if i, ok := idx[k]; ok {
			ct.Groups[i].Count++
			continue
		}
		idx[k] = len(ct.Groups)
		ct.Groups = append(ct.Groups, Group{Key: k, Count: 1})
	}
	sort.SliceStable(ct.Groups, func(i, j int) bool { return ct.Groups[i].Count > ct.Groups[j].Count })
	return ct, nil
}

// MeanBy returns the arithmetic mean of companion per key, computed over the
// non-nil companion values only. Keys whose companion values are all nil are
// absent from the result. A companion value that is not numeric is an error.
func MeanBy(rs records.RecordSet, key, companion string) (map[any]float64, error) {
	if err := rs.RequireColumns(key, companion); err != nil {
		return nil, err
	}
	type acc struct {
		sum float64
		n   int
	}
	accs := make(map[any]*acc)
	for i, r := range rs.Rows {
		k := r[key]
		if k == nil || r[companion] == nil {
			continue
		}
		f, err := cast.ToFloat64E(r[companion])
		if err != nil {
			return nil, fmt.Errorf("aggregate: row %d: %s is not numeric: %w", i, companion, err)
		}
		a, ok := accs[k]
		if !ok {
			a = &acc{}
			accs[k] = a
		}
		a.sum += f
		a.n++
	}
	out := make(map[any]float64, len(accs))
	for k, a := range accs {
		out[k] = a.sum / float64(a.n)
	}
	return out, nil
}

// JoinError reports a key-set mismatch between a count table and the means
// joined onto it.
type JoinError struct {
	// MissingMean are count-table keys with no mean.
	MissingMean []any
	// Unexpected are mean keys absent from the count table.
	Unexpected []any
}

func (e *JoinError) Error() string {
	var parts []string
	if len(e.MissingMean) > 0 {
		parts = append(parts, fmt.Sprintf("no mean for %v", e.MissingMean))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("mean for unknown key(s) %v", e.Unexpected))
	}
	return "aggregate: join key mismatch: " + strings.Join(parts, "; ")
}

// Joined is one row of a count/mean join.
type Joined struct {
	Key     any
	Count   int
	Average float64
}

// JoinCountMean inner-joins counts with means. The key sets must match
// exactly; otherwise a *JoinError is returned. Rows keep the count table's
// order (highest count first).
func JoinCountMean(ct CountTable, means map[any]float64) ([]Joined, error) {
	var je JoinError
	seen := make(map[any]struct{}, len(ct.Groups))
	out := make([]Joined, 0, len(ct.Groups))
	for _, g := range ct.Groups {
		seen[g.Key] = struct{}{}
		m, ok := means[g.Key]
		if !ok {
			je.MissingMean = append(je.MissingMean, g.Key)
			continue
		}
		out = append(out, Joined{Key: g.Key, Count: g.Count, Average: m})
	}
	for k := range means {
		if _, ok := seen[k]; !ok {
			je.Unexpected = append(je.Unexpected, k)
		}
	}
	if len(je.MissingMean) > 0 || len(je.Unexpected) > 0 {
		sort.Slice(je.Unexpected, func(i, j int) bool {
			return records.FormatValue(je.Unexpected[i]) < records.FormatValue(je.Unexpected[j])
		})
		return nil, &je
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out, nil
}
