package pipeline

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey/internal/aggregate"
	"survey/internal/config"
	"survey/internal/output"
	"survey/internal/transformer"
	"survey/internal/transformer/builtin"
	"survey/pkg/records"
)

var rawColumns = append([]string{"ResponseId"}, config.SurveyColumns()...)

// respondent builds a raw survey row; lang "" leaves LanguageHaveWorkedWith
// null. Every other multi-valued column gets a fixed value.
func respondent(id, country, age, lang string) records.Record {
	r := records.Record{
		"ResponseId":           id,
		config.ColCountry:      country,
		config.ColAge:          age,
		config.ColLanguageHave: nil,
		config.ColLanguageWant: "Go;Rust",
		config.ColDatabaseHave: "PostgreSQL",
		config.ColDatabaseWant: "PostgreSQL;Redis",
		config.ColPlatformHave: "AWS",
		config.ColPlatformWant: "AWS;Google Cloud",
	}
	if lang != "" {
		r[config.ColLanguageHave] = lang
	}
	return r
}

// russiaScenario has three Russian Federation rows, one row missing a
// language and an exact duplicate pair that differs only in ResponseId.
func russiaScenario() records.RecordSet {
	return records.New(rawColumns, []records.Record{
		respondent("1", "Russian Federation", "25-34 years old", "Python;Go"),
		respondent("2", "Russian Federation", "35-44 years old", "Go"),
		respondent("3", "Russian Federation", "45-54 years old", "Go;SQL"),
		respondent("4", "Viet Nam", "18-24 years old", ""),
		respondent("5", "United States of America", "25-34 years old", "Java"),
		respondent("6", "United States of America", "25-34 years old", "Java"),
	})
}

func defaultConfig(t *testing.T) Config {
	t.Helper()
	cfg, err := FromPipeline(config.Default())
	require.NoError(t, err)
	return cfg
}

func tableByName(t *testing.T, tables []records.Table, name string) records.Table {
	t.Helper()
	for _, tb := range tables {
		if tb.Name == name {
			return tb
		}
	}
	t.Fatalf("table %q not produced", name)
	return records.Table{}
}

func TestTransform_RussiaScenario(t *testing.T) {
	res, err := Transform(russiaScenario(), defaultConfig(t))
	require.NoError(t, err)

	assert.Equal(t, 6, res.Stats.Rows)
	assert.Equal(t, 1, res.Stats.NullRemoved)
	assert.Equal(t, builtin.DedupStats{Before: 5, Duplicates: 2, Removed: 2, After: 3}, res.Stats.Dedup)
	assert.Equal(t, 3, res.Stats.Clean)

	assert.Equal(t, config.SurveyColumns(), res.Clean.Columns)
	for _, r := range res.Clean.Rows {
		assert.Equal(t, "Russia", r[config.ColCountry])
	}
	assert.Equal(t, []any{29.5, 39.5, 49.5}, res.Clean.Column(config.ColAge))

	countries := tableByName(t, res.Tables, "countries_age")
	assert.Equal(t, []string{"Country", "Count", "Average Age"}, countries.Columns)
	assert.Equal(t, [][]any{{"Russia", 3, 39.5}}, countries.Rows)

	ages := tableByName(t, res.Tables, "dev_age")
	assert.Equal(t, [][]any{{29.5, 1}, {39.5, 1}, {49.5, 1}}, ages.Rows)

	langFuture := tableByName(t, res.Tables, "top10_lang_future")
	assert.Equal(t, [][]any{{"Go", 3}, {"Python", 1}, {"SQL", 1}}, langFuture.Rows)

	require.Len(t, res.Summary.Joined, 1)
	assert.Equal(t, aggregate.Joined{Key: "Russia", Count: 3, Average: 39.5}, res.Summary.Joined[0])
}

func TestTransform_Idempotent(t *testing.T) {
	cfg := defaultConfig(t)
	in := russiaScenario()

	a, err := Transform(in, cfg)
	require.NoError(t, err)
	b, err := Transform(in, cfg)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	var ba, bb bytes.Buffer
	require.NoError(t, output.WriteCSV(&ba, a.Clean))
	require.NoError(t, output.WriteCSV(&bb, b.Clean))
	assert.Equal(t, ba.Bytes(), bb.Bytes())

	assert.Equal(t, russiaScenario(), in, "input must not be modified")
}

func TestTransform_Invariants(t *testing.T) {
	cfg := defaultConfig(t)
	res, err := Transform(russiaScenario(), cfg)
	require.NoError(t, err)

	for _, r := range res.Clean.Rows {
		for _, c := range config.SurveyColumns() {
			assert.NotNil(t, r[c], "column %s", c)
		}
	}

	for _, f := range cfg.Fields {
		tb := tableByName(t, res.Tables, f.Output)
		var want, got int
		for _, v := range res.Clean.Column(f.Column) {
			s, _ := v.(string)
			for _, p := range bytes.Split([]byte(s), []byte(cfg.Delimiter)) {
				if len(p) > 0 {
					want++
				}
			}
		}
		for _, row := range tb.Rows {
			got += row[1].(int)
		}
		assert.Equal(t, want, got, "conservation for %s (below top-n)", f.Column)
	}
}

func TestTransform_NoAggregateWithoutKey(t *testing.T) {
	cfg := defaultConfig(t)
	cfg.Aggregate = aggregate.Spec{}
	cfg.Fields = nil

	res, err := Transform(russiaScenario(), cfg)
	require.NoError(t, err)
	assert.Empty(t, res.Tables)
}

func TestTransform_SchemaError(t *testing.T) {
	cfg := defaultConfig(t)
	in := records.New([]string{"Country", "Age"}, []records.Record{{"Country": "Peru", "Age": "18-24 years old"}})

	_, err := Transform(in, cfg)
	var se *records.SchemaError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Contains(t, err.Error(), "transform[2]")
}

func TestTransform_CustomStage(t *testing.T) {
	upper := transformer.Func(func(in records.RecordSet) (records.RecordSet, error) {
		out := in.Clone()
		for _, r := range out.Rows {
			r["Country"] = "X"
		}
		return out, nil
	})
	cfg := Config{
		Stages:    []transformer.Transformer{upper, builtin.Require{Fields: []string{"Country"}}},
		Aggregate: aggregate.Spec{Key: "Country"},
	}
	in := records.New([]string{"Country"}, []records.Record{{"Country": "a"}, {"Country": nil}, {"Country": "b"}})

	res, err := Transform(in, cfg)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Stats.NullRemoved)
	assert.Equal(t, [][]any{{"X", 3}}, tableByName(t, res.Tables, "countries").Rows)
}
