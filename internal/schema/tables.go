package schema

// Output table names.
const (
	DimDesign         = "dim_design"
	DimPaymentType    = "dim_payment_type"
	DimLocation       = "dim_location"
	DimTransaction    = "dim_transaction"
	DimStaff          = "dim_staff"
	DimCurrency       = "dim_currency"
	DimCounterparty   = "dim_counterparty"
	FactSalesOrder    = "fact_sales_order"
	FactPurchaseOrder = "fact_purchase_order"
	FactPayment       = "fact_payment"
	DimDate           = "dim_date"
)

// TableNames lists every output table in run order.
var TableNames = []string{
	DimDesign, DimPaymentType, DimLocation, DimTransaction, DimStaff,
	DimCurrency, DimCounterparty, FactSalesOrder, FactPurchaseOrder,
	FactPayment, DimDate,
}

var (
	Design = Contract{Name: DimDesign, Fields: fields(
		"design_id", "design_name", "file_location", "file_name",
	)}

	PaymentType = Contract{Name: DimPaymentType, Fields: fields(
		"payment_type_id", "payment_type_name",
	)}

	Location = Contract{Name: DimLocation, Fields: append(
		[]Field{{Name: "location_id", From: "address_id"}},
		fields("address_line_1", "address_line_2", "district", "city", "postal_code", "country", "phone")...,
	)}

	Transaction = Contract{Name: DimTransaction, Fields: fields(
		"transaction_id", "transaction_type", "sales_order_id", "purchase_order_id",
	)}

	Staff = Contract{Name: DimStaff, Fields: fields(
		"staff_id", "first_name", "last_name", "department_name", "location", "email_address",
	)}

	// Currency covers the projected source columns; currency_name is derived.
	Currency = Contract{Name: DimCurrency, Fields: fields(
		"currency_id", "currency_code",
	)}

	Counterparty = Contract{Name: DimCounterparty, Fields: []Field{
		{Name: "counterparty_id"},
		{Name: "counterparty_legal_name"},
		{Name: "counterparty_legal_address_line_1", From: "address_line_1"},
		{Name: "counterparty_legal_address_line_2", From: "address_line_2"},
		{Name: "counterparty_legal_district", From: "district"},
		{Name: "counterparty_legal_city", From: "city"},
		{Name: "counterparty_legal_postal_code", From: "postal_code"},
		{Name: "counterparty_legal_country", From: "country"},
		{Name: "counterparty_legal_phone_number", From: "phone"},
	}}

	SalesOrder = Contract{Name: FactSalesOrder, Fields: []Field{
		{Name: "sales_order_id"},
		{Name: "created_date"},
		{Name: "created_time"},
		{Name: "last_updated_date"},
		{Name: "last_updated_time"},
		{Name: "sales_staff_id", From: "staff_id"},
		{Name: "counterparty_id"},
		{Name: "units_sold"},
		{Name: "unit_price"},
		{Name: "currency_id"},
		{Name: "design_id"},
		{Name: "agreed_payment_date"},
		{Name: "agreed_delivery_date"},
		{Name: "agreed_delivery_location_id"},
	}}

	PurchaseOrder = Contract{Name: FactPurchaseOrder, Fields: fields(
		"purchase_order_id", "created_date", "created_time", "last_updated_date",
		"last_updated_time", "staff_id", "counterparty_id", "item_code",
		"item_quantity", "item_unit_price", "currency_id", "agreed_delivery_date",
		"agreed_payment_date", "agreed_delivery_location_id",
	)}

	Payment = Contract{Name: FactPayment, Fields: fields(
		"payment_id", "created_date", "created_time", "last_updated_date",
		"last_updated_time", "transaction_id", "counterparty_id", "payment_amount",
		"currency_id", "payment_type_id", "paid", "payment_date",
	)}

	Date = Contract{Name: DimDate, Fields: fields(
		"date_id", "year", "month", "day", "day_of_week", "day_name", "month_name", "quarter",
	)}
)

// FactDateColumns lists, per fact table, the output columns whose dates feed
// the date dimension.
var FactDateColumns = map[string][]string{
	FactSalesOrder:    {"created_date", "last_updated_date", "agreed_payment_date", "agreed_delivery_date"},
	FactPurchaseOrder: {"created_date", "last_updated_date", "agreed_delivery_date", "agreed_payment_date"},
	FactPayment:       {"created_date", "last_updated_date", "payment_date"},
}

// Contracts returns every contract keyed by output table name.
func Contracts() map[string]Contract {
	all := []Contract{
		Design, PaymentType, Location, Transaction, Staff, Currency,
		Counterparty, SalesOrder, PurchaseOrder, Payment, Date,
	}
	m := make(map[string]Contract, len(all))
	for _, c := range all {
		m[c.Name] = c
	}
	return m
}
