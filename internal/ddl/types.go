package ddl

// ColumnDef describes a single column in a table definition.
//
// Name is unquoted; quoting happens at render time. Kind is the logical type
// inferred from the data ("int", "float" or "text") and SQLType its rendering
// in the target dialect.
type ColumnDef struct {
	Name       string
	Kind       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	// Default is a raw SQL expression, e.g. CURRENT_TIMESTAMP.
	Default string
}

// TableDef holds the table name (FQN, dotted "schema.table" or plain) and an
// ordered list of columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// Logical kinds produced by Infer.
const (
	KindInt   = "int"
	KindFloat = "float"
	KindText  = "text"
)
