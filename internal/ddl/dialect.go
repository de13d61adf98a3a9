// Package ddl renders CREATE TABLE and table-clearing statements for the
// warehouse backends. A Dialect bundles identifier quoting, the mapping from
// table kinds to SQL types and the statement shape of one database.
package ddl

import (
	"fmt"
	"strings"

	"warehouse/internal/table"
)

// Dialect describes one SQL flavour.
type Dialect struct {
	Name string

	// QuoteIdent quotes a single identifier segment.
	QuoteIdent func(id string) string

	// MapType returns the column type used for a table kind.
	MapType func(k table.Kind) string

	// Guard wraps the bare CREATE TABLE statement so it is idempotent.
	// Nil means "CREATE TABLE IF NOT EXISTS".
	Guard func(quotedFQN, create string) string

	// Clear returns the statement that empties a table. Nil means
	// "DELETE FROM <fqn>".
	Clear func(quotedFQN string) string
}

// DoubleQuote is the ANSI identifier quoting used by Postgres and SQLite.
func DoubleQuote(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// Backtick quotes MySQL identifiers.
func Backtick(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }

// Brackets quotes SQL Server identifiers.
func Brackets(id string) string { return "[" + strings.ReplaceAll(id, "]", "]]") + "]" }

// QuoteFQN quotes each non-empty segment of a dotted name.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.QuoteIdent(p))
	}
	return strings.Join(out, ".")
}

// TableDef derives a definition for t using this dialect's type mapping.
func (d Dialect) TableDef(t *table.Table, fqn string, keys ...string) TableDef {
	return FromTable(t, fqn, d.MapType, keys...)
}

// CreateTableSQL renders an idempotent CREATE TABLE for def:
//
//	CREATE TABLE IF NOT EXISTS "schema"."table" (
//	  "col1" TYPE [NOT NULL] [DEFAULT expr],
//	  PRIMARY KEY ("pk1")
//	);
func (d Dialect) CreateTableSQL(def TableDef) (string, error) {
	fqn := strings.TrimSpace(def.FQN)
	if fqn == "" {
		return "", fmt.Errorf("%s ddl: table FQN must not be empty", d.Name)
	}
	if len(def.Columns) == 0 {
		return "", fmt.Errorf("%s ddl: at least one column is required", d.Name)
	}

	cols := make([]string, 0, len(def.Columns)+1)
	var pks []string
	for _, c := range def.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("%s ddl: column with empty name in table %s", d.Name, fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("%s ddl: column %s missing SQLType", d.Name, name)
		}

		var sb strings.Builder
		sb.WriteString(d.QuoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())
		if c.PrimaryKey {
			pks = append(pks, d.QuoteIdent(name))
		}
	}
	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	quoted := d.QuoteFQN(fqn)
	if d.Guard != nil {
		create := fmt.Sprintf("CREATE TABLE %s (\n    %s\n  );", quoted, strings.Join(cols, ",\n    "))
		return d.Guard(quoted, create), nil
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);", quoted, strings.Join(cols, ",\n  ")), nil
}

// ClearTableSQL renders the statement that removes every row of fqn.
func (d Dialect) ClearTableSQL(fqn string) string {
	quoted := d.QuoteFQN(fqn)
	if d.Clear != nil {
		return d.Clear(quoted)
	}
	return "DELETE FROM " + quoted
}
