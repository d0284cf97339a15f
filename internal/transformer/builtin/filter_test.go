package builtin

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey/pkg/records"
)

func rec(country string, age any, lang any) records.Record {
	return records.Record{"Country": country, "Age": age, "Lang": lang}
}

var cols = []string{"Country", "Age", "Lang"}

func TestRequire_RemovesNullsAndReportsCount(t *testing.T) {
	in := records.New(cols, []records.Record{
		rec("Russia", 29.5, "Go"),
		rec("Russia", nil, "Go"),
		rec("Peru", 21.0, nil),
		rec("Peru", 21.0, ""),
		rec("Chile", 17.0, "Python"),
	})

	out, removed, err := Require{Fields: []string{"Age", "Lang"}}.Filter(in)
	require.NoError(t, err)

	assert.Equal(t, 3, removed)
	assert.Equal(t, 2, out.Len())
	for _, r := range out.Rows {
		for _, f := range []string{"Age", "Lang"} {
			assert.NotNil(t, r[f])
		}
	}
}

func TestRequire_ZeroRemovedIsReported(t *testing.T) {
	in := records.New(cols, []records.Record{rec("Peru", 21.0, "Go")})
	out, removed, err := Require{Fields: cols}.Filter(in)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.Equal(t, 1, out.Len())
}

func TestRequire_MissingColumnFails(t *testing.T) {
	in := records.New([]string{"Country"}, nil)
	_, _, err := Require{Fields: []string{"Country", "Age"}}.Filter(in)
	assert.ErrorContains(t, err, "Age")
}

func TestDeDup_DropAllRemovesEveryMember(t *testing.T) {
	in := records.New(cols, []records.Record{
		rec("Russia", 29.5, "Go"),
		rec("Peru", 21.0, "Go"), // group of three
		rec("Peru", 21.0, "Go"),
		rec("Chile", 17.0, "Python"),
		rec("Peru", 21.0, "Go"),
		rec("Chile", 17.0, "Rust"),
		rec("Chile", 17.0, "Rust"), // pair
	})

	out, st, err := DeDup{}.Filter(in)
	require.NoError(t, err)

	assert.Equal(t, DedupStats{Before: 7, Duplicates: 5, Removed: 5, After: 2}, st)
	assert.Equal(t, []records.Record{
		rec("Russia", 29.5, "Go"),
		rec("Chile", 17.0, "Python"),
	}, out.Rows)
}

func TestDeDup_KeepPolicies(t *testing.T) {
	in := records.New(cols, []records.Record{
		{"Country": "A", "Age": 1.0, "Lang": "x"},
		{"Country": "A", "Age": 1.0, "Lang": "y"},
		{"Country": "B", "Age": 2.0, "Lang": "z"},
	})

	first, st, err := DeDup{Keys: []string{"Country", "Age"}, Policy: PolicyKeepFirst}.Filter(in)
	require.NoError(t, err)
	assert.Equal(t, []any{"x", "z"}, first.Column("Lang"))
	assert.Equal(t, 2, st.Duplicates)
	assert.Equal(t, 1, st.Removed)

	last, _, err := DeDup{Keys: []string{"Country", "Age"}, Policy: "Keep-Last"}.Filter(in)
	require.NoError(t, err)
	assert.Equal(t, []any{"y", "z"}, last.Column("Lang"))
}

func TestDeDup_TypeTaggedKeys(t *testing.T) {
	in := records.New([]string{"v"}, []records.Record{
		{"v": nil},
		{"v": ""},
		{"v": "1.0"},
		{"v": 1.0},
	})
	out, st, err := DeDup{}.Filter(in)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Duplicates)
	assert.Equal(t, 4, out.Len())
}

func TestDeDup_ScopeIsCurrentColumns(t *testing.T) {
	// Rows differ only in a column that projection drops.
	in := records.New([]string{"Country", "Extra"}, []records.Record{
		{"Country": "Peru", "Extra": "a"},
		{"Country": "Peru", "Extra": "b"},
	})

	_, st, err := DeDup{}.Filter(in)
	require.NoError(t, err)
	assert.Equal(t, 0, st.Duplicates)

	projected, err := Project{Columns: []string{"Country"}}.Apply(in)
	require.NoError(t, err)
	out, st, err := DeDup{}.Filter(projected)
	require.NoError(t, err)
	assert.Equal(t, 2, st.Duplicates)
	assert.Equal(t, 0, out.Len())
}

func TestDeDup_UnknownPolicy(t *testing.T) {
	_, _, err := DeDup{Policy: "keep-random"}.Filter(records.New(cols, nil))
	assert.ErrorContains(t, err, "unknown policy")
}

func TestDeDup_Idempotent(t *testing.T) {
	in := records.New(cols, []records.Record{
		rec("Peru", 21.0, "Go"),
		rec("Peru", 21.0, "Go"),
		rec("Chile", 17.0, "Go"),
	})
	once, _, err := DeDup{}.Filter(in)
	require.NoError(t, err)
	twice, st, err := DeDup{}.Filter(once)
	require.NoError(t, err)
	assert.Equal(t, once, twice)
	assert.Equal(t, 0, st.Removed)
}
