package warehouse

import (
	"warehouse/internal/schema"
	"warehouse/internal/table"
	"warehouse/internal/transformer"
)

// BuildDesign projects the design extract onto dim_design.
func BuildDesign(src *table.Table) (*table.Table, error) {
	return transformer.Contract(schema.Design).Apply(src)
}

// BuildPaymentType projects the payment_type extract onto dim_payment_type.
func BuildPaymentType(src *table.Table) (*table.Table, error) {
	return transformer.Contract(schema.PaymentType).Apply(src)
}

// BuildLocation projects the address extract onto dim_location.
func BuildLocation(src *table.Table) (*table.Table, error) {
	return transformer.Contract(schema.Location).Apply(src)
}

// BuildTransaction projects the transaction extract onto dim_transaction.
func BuildTransaction(src *table.Table) (*table.Table, error) {
	return transformer.Contract(schema.Transaction).Apply(src)
}

// BuildCurrency projects the currency extract and labels each code.
func BuildCurrency(src *table.Table) (*table.Table, error) {
	return transformer.Chain{
		transformer.Contract(schema.Currency),
		transformer.Lookup{Source: "currency_code", Target: "currency_name", Cases: CurrencyNames},
	}.Apply(src)
}

// BuildStaff joins staff to department and projects onto dim_staff.
func BuildStaff(staff, department *table.Table) (*table.Table, error) {
	joined, err := transformer.LeftJoin(staff, department, staffJoin)
	if err != nil {
		return nil, err
	}
	return transformer.Contract(schema.Staff).Apply(joined)
}

// BuildCounterparty joins counterparty to its legal address and projects
// onto dim_counterparty.
func BuildCounterparty(counterparty, address *table.Table) (*table.Table, error) {
	joined, err := transformer.LeftJoin(counterparty, address, counterpartyJoin)
	if err != nil {
		return nil, err
	}
	return transformer.Contract(schema.Counterparty).Apply(joined)
}

// BuildSalesOrder splits timestamps and projects onto fact_sales_order.
func BuildSalesOrder(src *table.Table) (*table.Table, error) {
	return fact(src, schema.SalesOrder, "agreed_payment_date", "agreed_delivery_date")
}

// BuildPurchaseOrder splits timestamps and projects onto fact_purchase_order.
func BuildPurchaseOrder(src *table.Table) (*table.Table, error) {
	return fact(src, schema.PurchaseOrder, "agreed_delivery_date", "agreed_payment_date")
}

// BuildPayment splits timestamps and projects onto fact_payment.
func BuildPayment(src *table.Table) (*table.Table, error) {
	return fact(src, schema.Payment, "payment_date")
}

func fact(src *table.Table, c schema.Contract, dateCols ...string) (*table.Table, error) {
	return transformer.Chain{
		transformer.SplitTimestamps(nil),
		transformer.Contract(c),
		transformer.ParseDates(dateCols),
	}.Apply(src)
}
