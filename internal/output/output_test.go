package output

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey/pkg/records"
)

func cleanSet() records.RecordSet {
	return records.New(
		[]string{"Country", "Age", "LanguageHaveWorkedWith", "Note"},
		[]records.Record{
			{"Country": "Russia", "Age": 39.5, "LanguageHaveWorkedWith": "Go;Python", "Note": nil},
			{"Country": "Peru", "Age": 21.0, "LanguageHaveWorkedWith": nil, "Note": "says \"hi\", twice"},
			{"Country": "United States", "Age": nil, "LanguageHaveWorkedWith": "Rust", "Note": "line\nbreak"},
			{"Country": "Côte d'Ivoire", "Age": 65.0, "LanguageHaveWorkedWith": "C", "Note": ""},
		},
	)
}

func TestCSVRoundTrip(t *testing.T) {
	in := cleanSet()
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, in))

	assert.Contains(t, buf.String(), "Country,Age,LanguageHaveWorkedWith,Note\n")
	assert.Contains(t, buf.String(), "Russia,39.5,Go;Python,\n")

	got, err := ReadCSV(&buf, "Age")
	require.NoError(t, err)
	assert.Equal(t, in.Columns, got.Columns)
	require.Len(t, got.Rows, 4)
	assert.Equal(t, 21.0, got.Rows[1]["Age"])
	assert.Nil(t, got.Rows[2]["Age"])
	assert.Equal(t, "line\nbreak", got.Rows[2]["Note"])
	// empty strings and nil share one textual form
	assert.Nil(t, got.Rows[3]["Note"])
}

func TestParquetRoundTrip(t *testing.T) {
	in := cleanSet()
	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, in))

	got, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, in.Columns, got.Columns)
	require.Len(t, got.Rows, len(in.Rows))
	for i := range in.Rows {
		assert.Equal(t, in.Rows[i], got.Rows[i], "row %d", i)
	}
}

func TestFormatEquivalence(t *testing.T) {
	in := cleanSet()
	// the CSV form cannot tell "" from nil
	in.Rows[3]["Note"] = nil

	var c, p bytes.Buffer
	require.NoError(t, WriteCSV(&c, in))
	require.NoError(t, WriteParquet(&p, in))

	fromCSV, err := ReadCSV(&c, "Age")
	require.NoError(t, err)
	fromPQ, err := ReadParquet(bytes.NewReader(p.Bytes()), int64(p.Len()))
	require.NoError(t, err)

	assert.Equal(t, fromCSV.Columns, fromPQ.Columns)
	assert.Equal(t, fromCSV.Rows, fromPQ.Rows)
}

func TestParquetManyRows(t *testing.T) {
	rows := make([]records.Record, 3000)
	for i := range rows {
		rows[i] = records.Record{"id": float64(i), "name": "n"}
	}
	in := records.New([]string{"name", "id"}, rows)

	var buf bytes.Buffer
	require.NoError(t, WriteParquet(&buf, in))
	got, err := ReadParquet(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	require.Len(t, got.Rows, 3000)
	assert.Equal(t, []string{"name", "id"}, got.Columns)
	assert.Equal(t, 2999.0, got.Rows[2999]["id"])
}

func TestWriteTable(t *testing.T) {
	tbl := records.Table{
		Name:    "countries_age",
		Columns: []string{"Country", "Count", "Average Age"},
		Rows:    [][]any{{"Russia", 3, 39.5}, {"Peru", 1, 21.0}},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, tbl))
	assert.Equal(t, "Country,Count,Average Age\nRussia,3,39.5\nPeru,1,21.0\n", buf.String())
}

func TestWriteTable_RaggedRow(t *testing.T) {
	tbl := records.Table{Name: "x", Columns: []string{"a", "b"}, Rows: [][]any{{"only"}}}
	err := WriteTable(&bytes.Buffer{}, tbl)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 0 has 1 values")
}

func TestWriterWriteAll(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	tables := []records.Table{
		{Name: "top10_lang", Columns: []string{"Language", "Count"}, Rows: [][]any{{"Go", 2}}},
		{Name: "dev_age", Columns: []string{"Age", "Count"}, Rows: [][]any{{39.5, 3}}},
	}

	rep, err := Writer{Dir: dir, Workers: 1}.WriteAll(context.Background(), cleanSet(), tables)
	require.NoError(t, err)

	for _, name := range []string{"survey_clean.csv", "survey_clean.parquet", "top10_lang.csv", "dev_age.csv"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	st, err := os.Stat(filepath.Join(dir, "survey_clean.csv"))
	require.NoError(t, err)
	assert.Equal(t, st.Size(), rep.CSVBytes)
	assert.Positive(t, rep.ParquetBytes)
	assert.GreaterOrEqual(t, rep.Ratio, 1.0)

	got, err := ReadCSVFile(filepath.Join(dir, "dev_age.csv"))
	require.NoError(t, err)
	assert.Equal(t, "39.5", got.Rows[0]["Age"])
}

func TestWriterWriteAll_FailureIsWriteError(t *testing.T) {
	dir := t.TempDir()
	// a directory where a table file should go makes the create fail
	require.NoError(t, os.Mkdir(filepath.Join(dir, "blocked.csv"), 0o755))

	_, err := Writer{Dir: dir}.WriteAll(context.Background(), cleanSet(), []records.Table{
		{Name: "blocked", Columns: []string{"a"}},
	})
	var we *WriteError
	require.True(t, errors.As(err, &we))
	assert.Equal(t, filepath.Join(dir, "blocked.csv"), we.Path)
}

func TestSizeReport(t *testing.T) {
	r := newSizeReport(1000, 250)
	assert.Equal(t, 4.0, r.Ratio)
	assert.Equal(t, "parquet", r.Smaller())

	r = newSizeReport(100, 400)
	assert.Equal(t, 4.0, r.Ratio)
	assert.Equal(t, "csv", r.Smaller())

	assert.Zero(t, newSizeReport(0, 10).Ratio)
}
