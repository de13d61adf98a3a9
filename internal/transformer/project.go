package transformer

import (
	"warehouse/internal/table"
)

// Project selects exactly the listed columns, in order. Values are carried
// over unchanged. A missing column is a schema mismatch.
type Project []string

func (p Project) Apply(in *table.Table) (*table.Table, error) {
	idx := make([]int, len(p))
	cols := make([]table.Column, len(p))
	for i, name := range p {
		j := in.Index(name)
		if j < 0 {
			return nil, table.Errorf(table.ErrSchemaMismatch, "project "+in.Name, "column %q not found", name)
		}
		idx[i] = j
		cols[i] = in.Columns[j]
	}

	out := &table.Table{Name: in.Name, Columns: cols, Rows: make([][]any, len(in.Rows))}
	for r, row := range in.Rows {
		nr := make([]any, len(idx))
		for i, j := range idx {
			nr[i] = row[j]
		}
		out.Rows[r] = nr
	}
	return out, nil
}

// Rename maps old column names to new ones. Every old name must exist, and
// the result must not contain duplicate names.
type Rename map[string]string

func (m Rename) Apply(in *table.Table) (*table.Table, error) {
	if len(m) == 0 {
		return in, nil
	}
	for from := range m {
		if !in.Has(from) {
			return nil, table.Errorf(table.ErrSchemaMismatch, "rename "+in.Name, "column %q not found", from)
		}
	}

	cols := make([]table.Column, len(in.Columns))
	seen := make(map[string]bool, len(cols))
	for i, c := range in.Columns {
		if to, ok := m[c.Name]; ok {
			c.Name = to
		}
		if seen[c.Name] {
			return nil, table.Errorf(table.ErrSchemaMismatch, "rename "+in.Name, "duplicate column %q after rename", c.Name)
		}
		seen[c.Name] = true
		cols[i] = c
	}
	return &table.Table{Name: in.Name, Columns: cols, Rows: in.Rows}, nil
}
