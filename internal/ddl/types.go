package ddl

import (
	"strings"

	"warehouse/internal/table"
)

// ColumnDef describes one column. Name is unquoted; quoting happens when a
// Dialect renders the statement. Default is raw SQL.
type ColumnDef struct {
	Name       string
	SQLType    string
	Nullable   bool
	PrimaryKey bool
	Default    string
}

// TableDef holds a dotted table name ("schema.table") and ordered columns.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// FromTable derives a definition from a table's column kinds. Every column
// is nullable because nil is a legal value for every kind. Columns named in
// keys become the primary key and lose nullability.
func FromTable(t *table.Table, fqn string, mapType func(table.Kind) string, keys ...string) TableDef {
	pk := make(map[string]bool, len(keys))
	for _, k := range keys {
		pk[k] = true
	}
	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, len(t.Columns))}
	for _, c := range t.Columns {
		def.Columns = append(def.Columns, ColumnDef{
			Name:       c.Name,
			SQLType:    mapType(c.Kind),
			Nullable:   !pk[c.Name],
			PrimaryKey: pk[c.Name],
		})
	}
	return def
}

// QualifiedName joins an optional schema and a table name.
func QualifiedName(schema, name string) string {
	schema = strings.TrimSpace(schema)
	if schema == "" {
		return name
	}
	return schema + "." + name
}
