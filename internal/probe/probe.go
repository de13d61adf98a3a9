// Package probe dry-runs the warehouse transforms: it reads every configured
// extract, builds each table in memory and reports the inferred columns of
// inputs and outputs without writing anything. Use it to check a new batch
// of extracts against the table contracts before a real run.
package probe

import (
	"context"
	"fmt"

	"warehouse/internal/schema"
	"warehouse/internal/table"
	"warehouse/internal/warehouse"
)

// Column is one column of a probed table.
type Column struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Input describes one parsed extract.
type Input struct {
	FileID  string   `json:"file_id"`
	Rows    int      `json:"rows"`
	Columns []Column `json:"columns"`
}

// Report is the outcome for one warehouse table.
type Report struct {
	Table   string   `json:"table"`
	Inputs  []Input  `json:"inputs,omitempty"`
	Rows    int      `json:"rows"`
	Columns []Column `json:"columns,omitempty"`
	Skipped bool     `json:"skipped,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Files resolves the file ids of a warehouse table.
type Files func(name string) ([]string, bool)

type builder struct {
	inputs int
	build  func(in []*table.Table) (*table.Table, error)
}

func one(fn func(*table.Table) (*table.Table, error)) builder {
	return builder{1, func(in []*table.Table) (*table.Table, error) { return fn(in[0]) }}
}

func two(fn func(a, b *table.Table) (*table.Table, error)) builder {
	return builder{2, func(in []*table.Table) (*table.Table, error) { return fn(in[0], in[1]) }}
}

var builders = map[string]builder{
	schema.DimDesign:         one(warehouse.BuildDesign),
	schema.DimPaymentType:    one(warehouse.BuildPaymentType),
	schema.DimLocation:       one(warehouse.BuildLocation),
	schema.DimTransaction:    one(warehouse.BuildTransaction),
	schema.DimStaff:          two(warehouse.BuildStaff),
	schema.DimCurrency:       one(warehouse.BuildCurrency),
	schema.DimCounterparty:   two(warehouse.BuildCounterparty),
	schema.FactSalesOrder:    one(warehouse.BuildSalesOrder),
	schema.FactPurchaseOrder: one(warehouse.BuildPurchaseOrder),
	schema.FactPayment:       one(warehouse.BuildPayment),
}

// Run probes every table in run order. dim_date is built from the dates
// of the facts that succeeded.
func Run(ctx context.Context, src warehouse.Source, files Files) []Report {
	dates := warehouse.NewDateSet()
	reports := make([]Report, 0, len(schema.TableNames))
	for _, name := range schema.TableNames {
		if name == schema.DimDate {
			reports = append(reports, describe(Report{Table: name}, warehouse.BuildDateDimension(dates)))
			continue
		}
		rep := Report{Table: name}
		ids, ok := files(name)
		if !ok {
			rep.Skipped = true
			reports = append(reports, rep)
			continue
		}
		out, err := probeTable(ctx, src, &rep, ids, builders[name])
		if err == nil {
			if cols := schema.FactDateColumns[name]; len(cols) > 0 {
				err = dates.AddColumns(out, cols...)
			}
		}
		if err != nil {
			rep.Error = err.Error()
			reports = append(reports, rep)
			continue
		}
		reports = append(reports, describe(rep, out))
	}
	return reports
}

func probeTable(ctx context.Context, src warehouse.Source, rep *Report, ids []string, b builder) (*table.Table, error) {
	if b.build == nil {
		return nil, fmt.Errorf("probe: no builder for %s", rep.Table)
	}
	if len(ids) < b.inputs {
		return nil, table.Errorf(table.ErrSchemaMismatch, "probe "+rep.Table, "got %d file ids, want %d", len(ids), b.inputs)
	}
	ins := make([]*table.Table, 0, len(ids))
	for _, id := range ids[:b.inputs] {
		t, err := src.Read(ctx, id)
		if err != nil {
			return nil, err
		}
		rep.Inputs = append(rep.Inputs, Input{FileID: id, Rows: t.Len(), Columns: columns(t)})
		ins = append(ins, t)
	}
	return b.build(ins)
}

func describe(rep Report, t *table.Table) Report {
	rep.Rows = t.Len()
	rep.Columns = columns(t)
	return rep
}

func columns(t *table.Table) []Column {
	out := make([]Column, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = Column{Name: c.Name, Kind: c.Kind.String()}
	}
	return out
}

// Failed counts reports that carry an error.
func Failed(reports []Report) int {
	n := 0
	for _, r := range reports {
		if r.Error != "" {
			n++
		}
	}
	return n
}
