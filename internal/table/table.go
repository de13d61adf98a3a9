// Package table defines the in-memory record set shared by every stage of a
// warehouse run: parsed source extracts, dimension and fact tables, and the
// date dimension.
//
// A Table is column-ordered and row-major. Cells hold one of the Go values
// listed for each Kind, or nil for "unset". Nil is the only empty sentinel;
// empty strings from the source are converted to nil by the parser.
package table

import (
	"fmt"
	"time"

	"github.com/golang-sql/civil"
)

// Kind is the logical type of a column.
type Kind int

const (
	String    Kind = iota // string
	Int64                 // int64
	Float64               // float64
	Bool                  // bool
	Date                  // civil.Date
	Time                  // civil.Time
	Timestamp             // time.Time
)

var kindNames = [...]string{"string", "int64", "float64", "bool", "date", "time", "timestamp"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// KindOfValue returns the Kind matching a cell value. ok is false for nil
// and for values outside the model.
func KindOfValue(v any) (k Kind, ok bool) {
	switch v.(type) {
	case string:
		return String, true
	case int64:
		return Int64, true
	case float64:
		return Float64, true
	case bool:
		return Bool, true
	case civil.Date:
		return Date, true
	case civil.Time:
		return Time, true
	case time.Time:
		return Timestamp, true
	}
	return 0, false
}

// Column names a column and its logical type.
type Column struct {
	Name string
	Kind Kind
}

// Table is a named record set.
type Table struct {
	Name    string
	Columns []Column
	Rows    [][]any
}

// New returns an empty table with the given columns.
func New(name string, cols ...Column) *Table {
	return &Table{Name: name, Columns: cols}
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Column returns a copy of the named column's values.
func (t *Table) Column(name string) ([]any, error) {
	i := t.Index(name)
	if i < 0 {
		return nil, Errorf(ErrSchemaMismatch, t.Name, "column %q not found", name)
	}
	out := make([]any, len(t.Rows))
	for r, row := range t.Rows {
		out[r] = row[i]
	}
	return out, nil
}

// Append adds a row. The row must have one value per column.
func (t *Table) Append(row ...any) error {
	if len(row) != len(t.Columns) {
		return Errorf(ErrSchemaMismatch, t.Name, "row has %d values, want %d", len(row), len(t.Columns))
	}
	t.Rows = append(t.Rows, row)
	return nil
}

// AddColumn appends a column filled by fn, which is called once per row.
func (t *Table) AddColumn(c Column, fn func(row []any) any) error {
	if t.Has(c.Name) {
		return Errorf(ErrSchemaMismatch, t.Name, "column %q already exists", c.Name)
	}
	t.Columns = append(t.Columns, c)
	for i, row := range t.Rows {
		t.Rows[i] = append(row, fn(row))
	}
	return nil
}

// Clone returns a deep copy of the column list and row slices. Cell values
// are immutable and shared.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:    t.Name,
		Columns: append([]Column(nil), t.Columns...),
		Rows:    make([][]any, len(t.Rows)),
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]any(nil), row...)
	}
	return out
}
