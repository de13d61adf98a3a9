// Package transformer holds the table-to-table steps used to shape source
// extracts into warehouse tables. Each step returns a new table and leaves
// its input untouched.
package transformer

import (
	"warehouse/internal/schema"
	"warehouse/internal/table"
)

// Transformer turns one table into another.
type Transformer interface {
	Apply(*table.Table) (*table.Table, error)
}

// Func adapts a plain function to Transformer.
type Func func(*table.Table) (*table.Table, error)

func (f Func) Apply(t *table.Table) (*table.Table, error) { return f(t) }

// Chain is an ordered list of transformers. It stops at the first error.
type Chain []Transformer

func (c Chain) Apply(in *table.Table) (*table.Table, error) {
	out := in
	for _, t := range c {
		var err error
		if out, err = t.Apply(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Named sets the output table name.
type Named string

func (n Named) Apply(in *table.Table) (*table.Table, error) {
	out := *in
	out.Name = string(n)
	return &out, nil
}

// Contract projects a table onto a schema contract: select the contract's
// source columns in order, rename them to the output names, and take the
// contract's table name.
func Contract(c schema.Contract) Transformer {
	return Chain{
		Project(c.Sources()),
		Rename(c.Renames()),
		Named(c.Name),
	}
}
