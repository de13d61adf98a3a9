// Package warehouse turns OLTP source extracts into the star-schema tables
// of the data warehouse: seven dimensions, three facts and a date
// dimension built from every date the facts reference.
//
// Each Transformer method reads its source extracts, shapes them, writes a
// single output table, logs one line, and returns any error unchanged.
package warehouse

import (
	"context"
	"log"
	"time"

	"warehouse/internal/schema"
	"warehouse/internal/table"
	"warehouse/internal/transformer"
)

// Source reads a source extract by file id.
type Source interface {
	Read(ctx context.Context, fileID string) (*table.Table, error)
}

// Sink writes one output table for the run at ts.
type Sink interface {
	Write(ctx context.Context, t *table.Table, ts time.Time) error
}

// CurrencyNames labels the currency codes the business trades in.
var CurrencyNames = []transformer.Case{
	{Equals: "EUR", Label: "Euro"},
	{Equals: "GBP", Label: "British Pound"},
	{Equals: "USD", Label: "US Dollar"},
}

var (
	staffJoin = transformer.Join{
		ForeignKey: "department_id", Key: "department_id",
		PrimarySuffix: "_staff", AuxSuffix: "_department",
	}
	counterpartyJoin = transformer.Join{
		ForeignKey: "legal_address_id", Key: "address_id",
		PrimarySuffix: "_counterparty", AuxSuffix: "_address",
	}
)

// Transformer runs table transforms against one source, one sink and one
// run timestamp.
type Transformer struct {
	Source    Source
	Sink      Sink
	Target    string // sink location, for log lines
	Timestamp time.Time
}

// Design writes dim_design.
func (w *Transformer) Design(ctx context.Context, file string) error {
	return w.single(ctx, "transform_design", file, BuildDesign, nil)
}

// PaymentType writes dim_payment_type.
func (w *Transformer) PaymentType(ctx context.Context, file string) error {
	return w.single(ctx, "transform_payment_type", file, BuildPaymentType, nil)
}

// Location writes dim_location from the address extract.
func (w *Transformer) Location(ctx context.Context, file string) error {
	return w.single(ctx, "transform_location", file, BuildLocation, nil)
}

// Transaction writes dim_transaction.
func (w *Transformer) Transaction(ctx context.Context, file string) error {
	return w.single(ctx, "transform_transaction", file, BuildTransaction, nil)
}

// Currency writes dim_currency.
func (w *Transformer) Currency(ctx context.Context, file string) error {
	return w.single(ctx, "transform_currency", file, BuildCurrency, nil)
}

// Staff writes dim_staff from the staff and department extracts.
func (w *Transformer) Staff(ctx context.Context, staffFile, departmentFile string) error {
	return w.joined(ctx, "transform_staff", staffFile, departmentFile, BuildStaff)
}

// Counterparty writes dim_counterparty from the counterparty and address
// extracts.
func (w *Transformer) Counterparty(ctx context.Context, counterpartyFile, addressFile string) error {
	return w.joined(ctx, "transform_counterparty", counterpartyFile, addressFile, BuildCounterparty)
}

// SalesOrder writes fact_sales_order and adds its dates to dates.
func (w *Transformer) SalesOrder(ctx context.Context, file string, dates *DateSet) error {
	return w.single(ctx, "transform_sales_order", file, BuildSalesOrder, collect(dates, schema.FactSalesOrder))
}

// PurchaseOrder writes fact_purchase_order and adds its dates to dates.
func (w *Transformer) PurchaseOrder(ctx context.Context, file string, dates *DateSet) error {
	return w.single(ctx, "transform_purchase_order", file, BuildPurchaseOrder, collect(dates, schema.FactPurchaseOrder))
}

// Payment writes fact_payment and adds its dates to dates.
func (w *Transformer) Payment(ctx context.Context, file string, dates *DateSet) error {
	return w.single(ctx, "transform_payment", file, BuildPayment, collect(dates, schema.FactPayment))
}

// Date writes dim_date from every date collected so far.
func (w *Transformer) Date(ctx context.Context, dates *DateSet) error {
	return w.finish(ctx, "create_date", BuildDateDimension(dates), nil)
}

func collect(dates *DateSet, fact string) func(*table.Table) error {
	return func(t *table.Table) error {
		return dates.AddColumns(t, schema.FactDateColumns[fact]...)
	}
}

func (w *Transformer) single(
	ctx context.Context,
	op, file string,
	build func(*table.Table) (*table.Table, error),
	after func(*table.Table) error,
) error {
	src, err := w.Source.Read(ctx, file)
	if err != nil {
		return w.fail(op, err)
	}
	out, err := build(src)
	if err != nil {
		return w.fail(op, err)
	}
	return w.finish(ctx, op, out, after)
}

func (w *Transformer) joined(
	ctx context.Context,
	op, primaryFile, auxFile string,
	build func(primary, aux *table.Table) (*table.Table, error),
) error {
	primary, err := w.Source.Read(ctx, primaryFile)
	if err != nil {
		return w.fail(op, err)
	}
	aux, err := w.Source.Read(ctx, auxFile)
	if err != nil {
		return w.fail(op, err)
	}
	out, err := build(primary, aux)
	if err != nil {
		return w.fail(op, err)
	}
	return w.finish(ctx, op, out, nil)
}

func (w *Transformer) finish(ctx context.Context, op string, out *table.Table, after func(*table.Table) error) error {
	if err := w.Sink.Write(ctx, out, w.Timestamp); err != nil {
		return w.fail(op, err)
	}
	log.Printf("%s.parquet successfully created in %s", out.Name, w.Target)
	if after != nil {
		if err := after(out); err != nil {
			return w.fail(op, err)
		}
	}
	return nil
}

func (w *Transformer) fail(op string, err error) error {
	log.Printf("ERROR: %s: %v", op, err)
	return err
}
