// Package schema describes the shape of every warehouse output table as an
// explicit contract: an ordered list of output fields, each optionally taken
// from a differently named source column.
package schema

import "fmt"

// Field is one output column. From names the source column when it differs
// from Name.
type Field struct {
	Name string `json:"name"`
	From string `json:"from,omitempty"`
}

// Source returns the column the field is read from.
func (f Field) Source() string {
	if f.From != "" {
		return f.From
	}
	return f.Name
}

// Contract is the named-field specification of one output table.
type Contract struct {
	Name   string  `json:"name"`
	Fields []Field `json:"fields"`
}

// Sources returns the source column names in output order.
func (c Contract) Sources() []string {
	out := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = f.Source()
	}
	return out
}

// Columns returns the output column names in order.
func (c Contract) Columns() []string {
	out := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		out[i] = f.Name
	}
	return out
}

// Renames returns source → output names for fields that are renamed.
func (c Contract) Renames() map[string]string {
	m := map[string]string{}
	for _, f := range c.Fields {
		if f.From != "" && f.From != f.Name {
			m[f.From] = f.Name
		}
	}
	return m
}

// Validate checks the contract for empty or duplicate names.
func (c Contract) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("schema: contract name is empty")
	}
	if len(c.Fields) == 0 {
		return fmt.Errorf("schema: contract %s has no fields", c.Name)
	}
	seenOut := map[string]bool{}
	seenSrc := map[string]bool{}
	for i, f := range c.Fields {
		if f.Name == "" {
			return fmt.Errorf("schema: contract %s field %d has no name", c.Name, i)
		}
		if seenOut[f.Name] {
			return fmt.Errorf("schema: contract %s duplicates output column %q", c.Name, f.Name)
		}
		if seenSrc[f.Source()] {
			return fmt.Errorf("schema: contract %s reads source column %q twice", c.Name, f.Source())
		}
		seenOut[f.Name] = true
		seenSrc[f.Source()] = true
	}
	return nil
}

func fields(names ...string) []Field {
	out := make([]Field, len(names))
	for i, n := range names {
		out[i] = Field{Name: n}
	}
	return out
}
