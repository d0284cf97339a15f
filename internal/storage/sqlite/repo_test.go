package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"survey/internal/ddl"
	"survey/internal/storage"
	"survey/pkg/records"
)

func ddlDef() ddl.TableDef {
	return ddl.TableDef{FQN: "dev_age", Columns: []ddl.ColumnDef{
		{Name: "Age", Kind: ddl.KindFloat, Nullable: true},
		{Name: "Count", Kind: ddl.KindInt, Nullable: true},
	}}
}

func openTemp(t *testing.T) (storage.Repository, *Repository) {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "survey.db")
	repo, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo, repo.(*wrappedRepo).Repository
}

func TestNewRepository_EmptyDSN(t *testing.T) {
	_, _, err := NewRepository(context.Background(), Config{})
	require.Error(t, err)
}

func TestRegistrationUsesHook(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var gotDSN string
	closed := false
	newRepository = func(_ context.Context, cfg Config) (*Repository, func(), error) {
		gotDSN = cfg.DSN
		return &Repository{}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "sqlite", DSN: "memory.db"})
	require.NoError(t, err)
	assert.Equal(t, "memory.db", gotDSN)

	repo.Close()
	assert.True(t, closed)
}

func TestLoadTables_CreatesAndCopies(t *testing.T) {
	ctx := context.Background()
	repo, raw := openTemp(t)

	tables := []records.Table{
		{
			Name:    "countries_age",
			Columns: []string{"Country", "Count", "Average Age"},
			Rows:    [][]any{{"Russia", 3, 39.5}, {"Peru", 1, 21.0}},
		},
		{
			Name:    "top10_lang",
			Columns: []string{"LanguageWantToWorkWith", "Count"},
			Rows:    [][]any{{"Go", 2}, {"Python", 1}, {"Rust", 1}},
		},
	}

	res, err := storage.LoadTables(ctx, repo, storage.LoadOptions{
		Kind: "sqlite", Job: "test", Prefix: "survey_", AutoCreate: true, BatchSize: 2, Workers: 2,
	}, tables...)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{"survey_countries_age": 2, "survey_top10_lang": 3}, res.Rows)
	assert.Equal(t, int64(5), res.Total())

	rows, err := raw.Query(ctx, `SELECT "Country", "Count", "Average Age" FROM "survey_countries_age" ORDER BY "Count" DESC`)
	require.NoError(t, err)
	defer rows.Close()

	var got []string
	for rows.Next() {
		var country string
		var count int64
		var avg float64
		require.NoError(t, rows.Scan(&country, &count, &avg))
		got = append(got, country)
		if country == "Russia" {
			assert.Equal(t, int64(3), count)
			assert.Equal(t, 39.5, avg)
		}
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"Russia", "Peru"}, got)

	// a second load appends to the existing table
	_, err = storage.LoadTables(ctx, repo, storage.LoadOptions{Kind: "sqlite", Prefix: "survey_", AutoCreate: true}, tables[1])
	require.NoError(t, err)
	var n int
	require.NoError(t, raw.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM "survey_top10_lang"`).Scan(&n))
	assert.Equal(t, 6, n)
}

func TestCopyFrom_NullsAndErrors(t *testing.T) {
	ctx := context.Background()
	_, raw := openTemp(t)

	require.NoError(t, raw.Exec(ctx, `CREATE TABLE t ("a" TEXT, "b" REAL)`))

	n, err := raw.CopyFrom(ctx, "t", []string{"a", "b"}, [][]any{{"x", nil}, {nil, 1.5}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = raw.CopyFrom(ctx, "t", []string{"a", "b"}, [][]any{{"only-one"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row length 1")

	_, err = raw.CopyFrom(ctx, "t", nil, [][]any{{"x"}})
	require.Error(t, err)

	n, err = raw.CopyFrom(ctx, "t", []string{"a"}, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	var count int
	require.NoError(t, raw.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM t WHERE b IS NULL`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestLoadTables_MissingTableWithoutAutoCreate(t *testing.T) {
	repo, _ := openTemp(t)
	_, err := storage.LoadTables(context.Background(), repo, storage.LoadOptions{Kind: "sqlite"},
		records.Table{Name: "absent", Columns: []string{"a"}, Rows: [][]any{{"x"}}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load table absent")
}

func TestDialect(t *testing.T) {
	stmt, err := Dialect.CreateTable(ddlDef())
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS \"dev_age\" (\n  \"Age\" REAL,\n  \"Count\" INTEGER\n);", stmt)
}
