package transformer

import (
	"math"

	"warehouse/internal/table"
)

// Join describes a left join of a primary table to an auxiliary one.
// The auxiliary Key column is consumed by the join and does not appear in
// the output. Other column names present in both tables get PrimarySuffix
// or AuxSuffix appended.
type Join struct {
	ForeignKey    string
	Key           string
	PrimarySuffix string
	AuxSuffix     string
}

// LeftJoin keeps every primary row. Unmatched rows get nil auxiliary
// values; an auxiliary key that occurs more than once fans the primary row
// out once per match.
func LeftJoin(primary, aux *table.Table, j Join) (*table.Table, error) {
	op := "join " + primary.Name + " " + aux.Name
	fk := primary.Index(j.ForeignKey)
	if fk < 0 {
		return nil, table.Errorf(table.ErrSchemaMismatch, op, "column %q not found in %s", j.ForeignKey, primary.Name)
	}
	key := aux.Index(j.Key)
	if key < 0 {
		return nil, table.Errorf(table.ErrSchemaMismatch, op, "column %q not found in %s", j.Key, aux.Name)
	}

	auxIdx := make([]int, 0, len(aux.Columns)-1)
	auxNames := map[string]bool{}
	for i, c := range aux.Columns {
		if i == key {
			continue
		}
		auxIdx = append(auxIdx, i)
		auxNames[c.Name] = true
	}
	primNames := map[string]bool{}
	for _, c := range primary.Columns {
		primNames[c.Name] = true
	}

	cols := make([]table.Column, 0, len(primary.Columns)+len(auxIdx))
	for _, c := range primary.Columns {
		if auxNames[c.Name] {
			if j.PrimarySuffix == "" && j.AuxSuffix == "" {
				return nil, table.Errorf(table.ErrSchemaMismatch, op, "column %q overlaps and no suffix given", c.Name)
			}
			c.Name += j.PrimarySuffix
		}
		cols = append(cols, c)
	}
	for _, i := range auxIdx {
		c := aux.Columns[i]
		if primNames[c.Name] {
			c.Name += j.AuxSuffix
		}
		cols = append(cols, c)
	}
	seen := map[string]bool{}
	for _, c := range cols {
		if seen[c.Name] {
			return nil, table.Errorf(table.ErrSchemaMismatch, op, "duplicate column %q after suffixing", c.Name)
		}
		seen[c.Name] = true
	}

	index := make(map[any][]int, len(aux.Rows))
	for r, row := range aux.Rows {
		if k, ok := joinKey(row[key]); ok {
			index[k] = append(index[k], r)
		}
	}

	out := &table.Table{Name: primary.Name, Columns: cols, Rows: make([][]any, 0, len(primary.Rows))}
	width := len(cols)
	for _, prow := range primary.Rows {
		var matches []int
		if k, ok := joinKey(prow[fk]); ok {
			matches = index[k]
		}
		if len(matches) == 0 {
			nr := make([]any, width)
			copy(nr, prow)
			out.Rows = append(out.Rows, nr)
			continue
		}
		for _, m := range matches {
			nr := make([]any, len(prow), width)
			copy(nr, prow)
			arow := aux.Rows[m]
			for _, i := range auxIdx {
				nr = append(nr, arow[i])
			}
			out.Rows = append(out.Rows, nr)
		}
	}
	return out, nil
}

// joinKey normalizes numeric keys so an integral float matches the int64
// with the same value. Nil never matches.
func joinKey(v any) (any, bool) {
	switch k := v.(type) {
	case nil:
		return nil, false
	case float64:
		if k == math.Trunc(k) && math.Abs(k) < 1<<53 {
			return int64(k), true
		}
		return k, true
	default:
		return k, true
	}
}
