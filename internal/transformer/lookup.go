package transformer

import "warehouse/internal/table"

// Case maps one literal source value to a label.
type Case struct {
	Equals any
	Label  string
}

// Lookup derives Target from Source: the label of the first case whose
// literal equals the source value, or nil when none match.
type Lookup struct {
	Source string
	Target string
	Cases  []Case
}

func (l Lookup) Apply(in *table.Table) (*table.Table, error) {
	src := in.Index(l.Source)
	if src < 0 {
		return nil, table.Errorf(table.ErrSchemaMismatch, "lookup "+in.Name, "column %q not found", l.Source)
	}
	out := in.Clone()
	err := out.AddColumn(table.Column{Name: l.Target, Kind: table.String}, func(row []any) any {
		v := row[src]
		if v == nil {
			return nil
		}
		for _, c := range l.Cases {
			if v == c.Equals {
				return c.Label
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
