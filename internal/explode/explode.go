// Package explode turns delimiter-packed multi-valued cells into individual
// tag occurrences and ranks them into frequency tables.
package explode

import (
	"sort"
	"strings"

	"survey/pkg/records"
)

// DefaultDelimiter separates tags inside a multi-valued survey cell.
const DefaultDelimiter = ";"

// CountLabel is the name of the count column in every frequency table.
const CountLabel = "Count"

// Field describes one multi-valued column to rank.
type Field struct {
	// Column is the source column, e.g. "LanguageHaveWorkedWith".
	Column string
	// Label is the first column header of the output table; defaults to Column.
	Label string
	// Output is the table name, e.g. "top10_lang"; defaults to Column.
	Output string
}

// Explode returns one occurrence per non-empty delimiter-separated element of
// every string cell of column, in row order. nil and empty cells contribute
// nothing.
func Explode(rs records.RecordSet, column, delim string) []string {
	if delim == "" {
		delim = DefaultDelimiter
	}
	var out []string
	for _, r := range rs.Rows {
		s, ok := r[column].(string)
		if !ok || s == "" {
			continue
		}
		for _, tag := range strings.Split(s, delim) {
			if tag == "" {
				continue
			}
			out = append(out, tag)
		}
	}
	return out
}

// Entry is one tag and how often it occurred.
type Entry struct {
	Tag   string
	Count int
}

// FrequencyTable holds tag counts in first-seen order.
type FrequencyTable struct {
	Entries []Entry
}

// Count tallies occurrences. Entries appear in the order their tag was first
// seen.
func Count(occurrences []string) FrequencyTable {
	idx := make(map[string]int)
	var ft FrequencyTable
	for _, tag := range occurrences {
		if i, ok := idx[tag]; ok {
			ft.Entries[i].Count++
			continue
		}
		idx[tag] = len(ft.Entries)
		ft.Entries = append(ft.Entries, Entry{Tag: tag, Count: 1})
	}
	return ft
}

// Total returns the sum of all counts.
func (ft FrequencyTable) Total() int {
	n := 0
	for _, e := range ft.Entries {
		n += e.Count
	}
	return n
}

// Get returns the count for tag, zero when absent.
func (ft FrequencyTable) Get(tag string) int {
	for _, e := range ft.Entries {
		if e.Tag == tag {
			return e.Count
		}
	}
	return 0
}

// Top returns the n most frequent entries, highest count first. Equal counts
// keep their first-seen order. n <= 0 returns every entry ranked.
func (ft FrequencyTable) Top(n int) FrequencyTable {
	ranked := append([]Entry(nil), ft.Entries...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return FrequencyTable{Entries: ranked}
}

// Table renders ft as a two-column output table {label, Count}.
func (ft FrequencyTable) Table(name, label string) records.Table {
	t := records.Table{
		Name:    name,
		Columns: []string{label, CountLabel},
		Rows:    make([][]any, 0, len(ft.Entries)),
	}
	for _, e := range ft.Entries {
		t.Rows = append(t.Rows, []any{e.Tag, e.Count})
	}
	return t
}

// TopN explodes f's column, counts the tags and returns the top n as a table.
func TopN(rs records.RecordSet, f Field, delim string, n int) (records.Table, error) {
	if err := rs.RequireColumns(f.Column); err != nil {
		return records.Table{}, err
	}
	label := f.Label
	if label == "" {
		label = f.Column
	}
	name := f.Output
	if name == "" {
		name = f.Column
	}
	return Count(Explode(rs, f.Column, delim)).Top(n).Table(name, label), nil
}
