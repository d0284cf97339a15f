// Package ddl is a small, backend-agnostic model for the CREATE TABLE
// statements issued by the database sink, plus the dialect hooks each backend
// supplies to render it.
package ddl

import (
	"fmt"
	"strings"
)

// Dialect captures what differs between SQL backends when creating a table.
type Dialect struct {
	// Name is the storage kind, e.g. "postgres".
	Name string

	// QuoteIdent quotes one identifier segment. Nil leaves names as-is.
	QuoteIdent func(string) string

	// MapType renders a logical kind (KindInt, KindFloat, KindText) as a
	// column type.
	MapType func(kind string) string

	// Wrap turns the rendered "name (cols)" body into the final statement.
	// Nil produces CREATE TABLE IF NOT EXISTS.
	Wrap func(quotedFQN, body string) string
}

// Quote quotes one identifier with the dialect's rules.
func (d Dialect) Quote(id string) string {
	if d.QuoteIdent == nil {
		return id
	}
	return d.QuoteIdent(id)
}

// QuoteFQN quotes each dot-separated segment of a possibly schema-qualified
// table name.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.Quote(p))
	}
	return strings.Join(out, ".")
}

// CreateTable renders a CREATE TABLE statement for t. Columns without an
// SQLType are typed through MapType from their Kind.
//
// Primary-key columns are collected into a trailing PRIMARY KEY clause.
func (d Dialect) CreateTable(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.label())
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.label())
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.label(), fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" && d.MapType != nil {
			typ = d.MapType(c.Kind)
		}
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.label(), name)
		}

		var sb strings.Builder
		sb.WriteString(d.Quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable || c.PrimaryKey {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.Quote(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	quoted := d.QuoteFQN(fqn)
	body := fmt.Sprintf("%s (\n  %s\n)", quoted, strings.Join(cols, ",\n  "))
	if d.Wrap != nil {
		return d.Wrap(quoted, body), nil
	}
	return "CREATE TABLE IF NOT EXISTS " + body + ";", nil
}

func (d Dialect) label() string {
	if d.Name == "" {
		return "sql"
	}
	return d.Name
}

// DoubleQuote is the ANSI identifier quoting shared by Postgres and SQLite.
func DoubleQuote(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
