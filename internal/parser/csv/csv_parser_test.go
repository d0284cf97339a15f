package csv_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pcsv "survey/internal/parser/csv"
)

func TestParseSample(t *testing.T) {
	f, err := os.Open(filepath.Join("testdata", "survey_sample.csv"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	rs, skipped, err := pcsv.NewParser(pcsv.Options{}).Parse(f)
	require.NoError(t, err)

	assert.Equal(t, 0, skipped)
	assert.Equal(t, []string{"ResponseId", "Country", "Age", "LanguageHaveWorkedWith", "LanguageWantToWorkWith"}, rs.Columns)
	require.Equal(t, 4, rs.Len())
	assert.Equal(t, "Iran, Islamic Republic of...", rs.Rows[2]["Country"])
	assert.Nil(t, rs.Rows[1]["LanguageHaveWorkedWith"], "empty cell must be nil")
	assert.Equal(t, "Kotlin;Java", rs.Rows[3]["LanguageWantToWorkWith"])
}

func TestParse_SkipsRaggedRows(t *testing.T) {
	in := "a,b\n1,2\n3\n4,5,6\n7,8\n"
	rs, skipped, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, []any{"1", "7"}, rs.Column("a"))
}

func TestParse_HeaderHandling(t *testing.T) {
	in := "\uFEFFFirst Name, Age ,\nAda,36,x\n"
	rs, _, err := pcsv.NewParser(pcsv.Options{
		NormalizeHeaders: true,
		TrimSpace:        true,
		HeaderMap:        map[string]string{"Age": "age_years"},
	}).Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"first_name", "age_years", "col_2"}, rs.Columns)
	assert.Equal(t, "36", rs.Rows[0]["age_years"])
}

func TestParse_Semicolon(t *testing.T) {
	rs, _, err := pcsv.NewParser(pcsv.Options{Comma: ';'}).Parse(strings.NewReader("a;b\n1; 2 \n"))
	require.NoError(t, err)
	assert.Equal(t, " 2 ", rs.Rows[0]["b"])
}

func TestParse_Empty(t *testing.T) {
	_, _, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, pcsv.ErrNoHeader)
}

func TestStripHeaderBOM(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, pcsv.StripHeaderBOM([]string{"\uFEFFa", "b"}))
	assert.Empty(t, pcsv.StripHeaderBOM(nil))
}

func TestParse_LazyQuotes(t *testing.T) {
	in := "Country,Age\nPeru,5\"9\nChile,21\n"

	rs, skipped, err := pcsv.NewParser(pcsv.Options{}).Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []any{"Chile"}, rs.Column("Country"))

	rs, skipped, err = pcsv.NewParser(pcsv.Options{LazyQuotes: true}).Parse(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, 0, skipped)
	assert.Equal(t, []any{"5\"9", "21"}, rs.Column("Age"))
}
