package aggregate

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey/pkg/records"
)

func people(rows ...[2]any) records.RecordSet {
	rs := records.New([]string{"Country", "Age"}, nil)
	for _, r := range rows {
		rs.Rows = append(rs.Rows, records.Record{"Country": r[0], "Age": r[1]})
	}
	return rs
}

func TestCountBy_DescendingStable(t *testing.T) {
	rs := people(
		[2]any{"Peru", 21.0},
		[2]any{"Russia", 29.5},
		[2]any{"Chile", 21.0},
		[2]any{"Russia", 39.5},
		[2]any{nil, 21.0},
		[2]any{"Chile", 49.5},
	)
	ct, err := CountBy(rs, "Country")
	require.NoError(t, err)

	assert.Equal(t, []Group{{"Russia", 2}, {"Chile", 2}, {"Peru", 1}}, ct.Groups)
	assert.Equal(t, 5, ct.Total())
}

func TestSummarize_RussiaScenario(t *testing.T) {
	rs := people(
		[2]any{"Russia", 29.5},
		[2]any{"Russia", 39.5},
		[2]any{"Russia", 49.5},
	)
	sum, err := Summarize(rs, Spec{Key: "Country", Companion: "Age", AverageLabel: "Average Age"})
	require.NoError(t, err)

	require.Len(t, sum.Joined, 1)
	assert.Equal(t, Joined{Key: "Russia", Count: 3, Average: 39.5}, sum.Joined[0])

	require.Len(t, sum.Tables, 2)
	assert.Equal(t, "countries_age", sum.Tables[0].Name)
	assert.Equal(t, []string{"Country", "Count", "Average Age"}, sum.Tables[0].Columns)
	assert.Equal(t, [][]any{{"Russia", 3, 39.5}}, sum.Tables[0].Rows)

	assert.Equal(t, "dev_age", sum.Tables[1].Name)
	assert.Equal(t, []string{"Age", "Count"}, sum.Tables[1].Columns)
	assert.Len(t, sum.Tables[1].Rows, 3)
}

func TestSummarize_JoinCompleteness(t *testing.T) {
	rs := people(
		[2]any{"Peru", 21.0},
		[2]any{"Russia", 29.5},
		[2]any{"Chile", 17.0},
		[2]any{"Russia", 39.5},
	)
	sum, err := Summarize(rs, Spec{Key: "Country", Companion: "Age"})
	require.NoError(t, err)

	var joinedKeys []any
	for _, j := range sum.Joined {
		joinedKeys = append(joinedKeys, j.Key)
	}
	assert.ElementsMatch(t, sum.Counts.Keys(), joinedKeys)
	assert.Equal(t, "Average Age", sum.Tables[0].Columns[2])
	assert.Equal(t, 34.5, sum.Joined[0].Average)
}

func TestSummarize_CompanionTable(t *testing.T) {
	rs := people(
		[2]any{"Peru", 21.0},
		[2]any{"Peru", 29.5},
		[2]any{"Chile", 29.5},
	)
	sum, err := Summarize(rs, Spec{Key: "Country", Companion: "Age"})
	require.NoError(t, err)
	assert.Equal(t, []Group{{29.5, 2}, {21.0, 1}}, sum.CompanionCounts.Groups)
}

func TestSummarize_NoCompanion(t *testing.T) {
	rs := people([2]any{"Peru", nil}, [2]any{"Peru", nil})
	sum, err := Summarize(rs, Spec{Key: "Country"})
	require.NoError(t, err)
	require.Len(t, sum.Tables, 1)
	assert.Equal(t, "countries", sum.Tables[0].Name)
	assert.Equal(t, [][]any{{"Peru", 2}}, sum.Tables[0].Rows)
	assert.Nil(t, sum.Joined)
}

func TestMeanBy_CastsAndSkipsNil(t *testing.T) {
	rs := people([2]any{"Peru", "20"}, [2]any{"Peru", 30.0}, [2]any{"Peru", nil})
	m, err := MeanBy(rs, "Country", "Age")
	require.NoError(t, err)
	assert.Equal(t, 25.0, m["Peru"])
}

func TestMeanBy_NonNumeric(t *testing.T) {
	rs := people([2]any{"Peru", "old"})
	_, err := MeanBy(rs, "Country", "Age")
	assert.ErrorContains(t, err, "not numeric")
}

func TestJoinCountMean_Mismatch(t *testing.T) {
	ct := CountTable{Groups: []Group{{"Peru", 1}, {"Chile", 1}}}
	_, err := JoinCountMean(ct, map[any]float64{"Peru": 1, "Narnia": 2})

	var je *JoinError
	require.True(t, errors.As(err, &je))
	assert.Equal(t, []any{"Chile"}, je.MissingMean)
	assert.Equal(t, []any{"Narnia"}, je.Unexpected)
	assert.Contains(t, err.Error(), "Narnia")
}

func TestSummarize_AllNullCompanionIsJoinError(t *testing.T) {
	rs := people([2]any{"Peru", 21.0}, [2]any{"Chile", nil})
	_, err := Summarize(rs, Spec{Key: "Country", Companion: "Age"})

	var je *JoinError
	assert.True(t, errors.As(err, &je))
}
