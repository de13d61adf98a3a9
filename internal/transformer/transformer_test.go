package transformer

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/golang-sql/civil"

	"warehouse/internal/schema"
	"warehouse/internal/table"
)

func mustTable(t *testing.T, name string, cols []string, rows ...[]any) *table.Table {
	t.Helper()
	tb := &table.Table{Name: name}
	for _, c := range cols {
		tb.Columns = append(tb.Columns, table.Column{Name: c})
	}
	for _, r := range rows {
		if err := tb.Append(r...); err != nil {
			t.Fatalf("Append(%v) error = %v", r, err)
		}
	}
	return tb
}

func TestProject_ExactColumnsInOrder(t *testing.T) {
	t.Parallel()

	in := mustTable(t, "address",
		[]string{"address_id", "city", "country", "created_at"},
		[]any{int64(1), "Leeds", "UK", "2022-11-03 14:20:49.962"},
		[]any{int64(2), nil, "France", "2022-11-03 14:20:49.962"},
	)

	out, err := Project{"country", "address_id"}.Apply(in)
	if err != nil {
		t.Fatalf("Project error = %v", err)
	}
	if got := out.Names(); !reflect.DeepEqual(got, []string{"country", "address_id"}) {
		t.Fatalf("columns = %v", got)
	}
	want := [][]any{{"UK", int64(1)}, {"France", int64(2)}}
	if !reflect.DeepEqual(out.Rows, want) {
		t.Fatalf("rows = %v, want %v", out.Rows, want)
	}
	if len(in.Columns) != 4 {
		t.Fatalf("input mutated: %v", in.Names())
	}
}

func TestProject_MissingColumn(t *testing.T) {
	t.Parallel()

	in := mustTable(t, "design", []string{"design_id"})
	_, err := Project{"design_id", "design_name"}.Apply(in)
	if !errors.Is(err, table.ErrSchemaMismatch) {
		t.Fatalf("error = %v, want ErrSchemaMismatch", err)
	}
}

func TestRename(t *testing.T) {
	t.Parallel()

	in := mustTable(t, "address", []string{"address_id", "city"}, []any{int64(1), "Leeds"})

	out, err := Rename{"address_id": "location_id"}.Apply(in)
	if err != nil {
		t.Fatalf("Rename error = %v", err)
	}
	if got := out.Names(); !reflect.DeepEqual(got, []string{"location_id", "city"}) {
		t.Fatalf("columns = %v", got)
	}
	if in.Columns[0].Name != "address_id" {
		t.Fatalf("input mutated")
	}

	if _, err := (Rename{"missing": "x"}).Apply(in); !errors.Is(err, table.ErrSchemaMismatch) {
		t.Fatalf("missing source error = %v, want ErrSchemaMismatch", err)
	}
	if _, err := (Rename{"address_id": "city"}).Apply(in); !errors.Is(err, table.ErrSchemaMismatch) {
		t.Fatalf("collision error = %v, want ErrSchemaMismatch", err)
	}
}

func TestContract_ProjectsRenamesAndNames(t *testing.T) {
	t.Parallel()

	in := mustTable(t, "address",
		[]string{"address_id", "address_line_1", "address_line_2", "district", "city", "postal_code", "country", "phone", "created_at"},
		[]any{int64(1), "6826 Herzog Via", nil, "Avon", "New Patienceburgh", "28441", "Turkey", "1803 637401", "2022-11-03 14:20:49.962"},
	)

	out, err := Contract(schema.Location).Apply(in)
	if err != nil {
		t.Fatalf("Contract error = %v", err)
	}
	if out.Name != schema.DimLocation {
		t.Fatalf("name = %q, want %q", out.Name, schema.DimLocation)
	}
	if got, want := out.Names(), schema.Location.Columns(); !reflect.DeepEqual(got, want) {
		t.Fatalf("columns = %v, want %v", got, want)
	}
	if out.Rows[0][0] != int64(1) || out.Rows[0][2] != nil {
		t.Fatalf("row = %v", out.Rows[0])
	}
}

func TestLookup_FirstMatchWinsAndUnset(t *testing.T) {
	t.Parallel()

	in := mustTable(t, "currency", []string{"currency_id", "currency_code"},
		[]any{int64(1), "EUR"},
		[]any{int64(2), "GBP"},
		[]any{int64(3), "USD"},
		[]any{int64(4), "JPY"},
		[]any{int64(5), nil},
	)
	l := Lookup{
		Source: "currency_code",
		Target: "currency_name",
		Cases: []Case{
			{Equals: "EUR", Label: "Euro"},
			{Equals: "GBP", Label: "British Pound"},
			{Equals: "USD", Label: "US Dollar"},
			{Equals: "EUR", Label: "shadowed"},
		},
	}

	out, err := l.Apply(in)
	if err != nil {
		t.Fatalf("Lookup error = %v", err)
	}
	got, _ := out.Column("currency_name")
	want := []any{"Euro", "British Pound", "US Dollar", nil, nil}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("currency_name = %v, want %v", got, want)
	}
	if in.Has("currency_name") {
		t.Fatalf("input mutated")
	}

	if _, err := (Lookup{Source: "nope", Target: "x"}).Apply(in); !errors.Is(err, table.ErrSchemaMismatch) {
		t.Fatalf("missing source error = %v, want ErrSchemaMismatch", err)
	}
}

func TestLeftJoin_UniqueKey(t *testing.T) {
	t.Parallel()

	staff := mustTable(t, "staff",
		[]string{"staff_id", "first_name", "department_id", "created_at"},
		[]any{int64(1), "Jeremie", int64(2), "s1"},
		[]any{int64(2), "Deron", int64(9), "s2"},
		[]any{int64(3), "Jeanette", nil, "s3"},
	)
	dept := mustTable(t, "department",
		[]string{"department_id", "department_name", "location", "created_at"},
		[]any{int64(1), "Sales", "Manchester", "d1"},
		[]any{float64(2), "Purchasing", "Leeds", "d2"},
	)

	out, err := LeftJoin(staff, dept, Join{
		ForeignKey: "department_id", Key: "department_id",
		PrimarySuffix: "_staff", AuxSuffix: "_department",
	})
	if err != nil {
		t.Fatalf("LeftJoin error = %v", err)
	}

	wantCols := []string{"staff_id", "first_name", "department_id", "created_at_staff", "department_name", "location", "created_at_department"}
	if got := out.Names(); !reflect.DeepEqual(got, wantCols) {
		t.Fatalf("columns = %v, want %v", got, wantCols)
	}
	if out.Len() != staff.Len() {
		t.Fatalf("rows = %d, want %d", out.Len(), staff.Len())
	}
	wantRows := [][]any{
		{int64(1), "Jeremie", int64(2), "s1", "Purchasing", "Leeds", "d2"},
		{int64(2), "Deron", int64(9), "s2", nil, nil, nil},
		{int64(3), "Jeanette", nil, "s3", nil, nil, nil},
	}
	if !reflect.DeepEqual(out.Rows, wantRows) {
		t.Fatalf("rows = %v, want %v", out.Rows, wantRows)
	}
}

func TestLeftJoin_DuplicateKeyFansOut(t *testing.T) {
	t.Parallel()

	cp := mustTable(t, "counterparty", []string{"counterparty_id", "legal_address_id"},
		[]any{int64(1), int64(10)},
	)
	addr := mustTable(t, "address", []string{"address_id", "city"},
		[]any{int64(10), "Leeds"},
		[]any{int64(10), "York"},
	)

	out, err := LeftJoin(cp, addr, Join{ForeignKey: "legal_address_id", Key: "address_id"})
	if err != nil {
		t.Fatalf("LeftJoin error = %v", err)
	}
	if out.Len() != 2 {
		t.Fatalf("rows = %d, want 2", out.Len())
	}
	if out.Rows[0][2] != "Leeds" || out.Rows[1][2] != "York" {
		t.Fatalf("rows = %v", out.Rows)
	}
}

func TestLeftJoin_Errors(t *testing.T) {
	t.Parallel()

	a := mustTable(t, "a", []string{"id", "name"})
	b := mustTable(t, "b", []string{"id", "name"})

	cases := map[string]Join{
		"missing foreign key": {ForeignKey: "nope", Key: "id", PrimarySuffix: "_a"},
		"missing aux key":     {ForeignKey: "id", Key: "nope", PrimarySuffix: "_a"},
		"overlap no suffix":   {ForeignKey: "id", Key: "id"},
	}
	for name, j := range cases {
		if _, err := LeftJoin(a, b, j); !errors.Is(err, table.ErrSchemaMismatch) {
			t.Errorf("%s: error = %v, want ErrSchemaMismatch", name, err)
		}
	}
}

func TestSplitTimestamps(t *testing.T) {
	t.Parallel()

	in := mustTable(t, "sales_order", []string{"sales_order_id", "created_at", "last_updated"},
		[]any{int64(1), "2022-11-03 14:20:52.186", "2022-11-03T14:20:52.186123Z"},
		[]any{int64(2), "2023-01-01 00:00:00", nil},
	)

	out, err := SplitTimestamps(nil).Apply(in)
	if err != nil {
		t.Fatalf("SplitTimestamps error = %v", err)
	}
	want := []string{"sales_order_id", "created_at", "last_updated", "created_date", "created_time", "last_updated_date", "last_updated_time"}
	if got := out.Names(); !reflect.DeepEqual(got, want) {
		t.Fatalf("columns = %v, want %v", got, want)
	}
	row := out.Rows[0]
	if row[3] != (civil.Date{Year: 2022, Month: 11, Day: 3}) {
		t.Fatalf("created_date = %v", row[3])
	}
	if row[4] != (civil.Time{Hour: 14, Minute: 20, Second: 52, Nanosecond: 186000000}) {
		t.Fatalf("created_time = %v", row[4])
	}
	if row[6] != (civil.Time{Hour: 14, Minute: 20, Second: 52, Nanosecond: 186123000}) {
		t.Fatalf("last_updated_time = %v", row[6])
	}
	if out.Rows[1][5] != nil || out.Rows[1][6] != nil {
		t.Fatalf("nil timestamp split = %v", out.Rows[1])
	}
	if k := out.Columns[3].Kind; k != table.Date {
		t.Fatalf("created_date kind = %v", k)
	}
}

func TestSplitTimestamps_RoundTrip(t *testing.T) {
	t.Parallel()

	for _, s := range []string{
		"2022-11-03 14:20:52.186",
		"2023-12-31 23:59:59.999999",
		"2024-02-29 00:00:00",
	} {
		in := mustTable(t, "p", []string{"created_at"}, []any{s})
		out, err := SplitTimestamps(nil).Apply(in)
		if err != nil {
			t.Fatalf("split %q: %v", s, err)
		}
		orig, _ := ParseTimestamp(s)
		d := out.Rows[0][1].(civil.Date)
		tm := out.Rows[0][2].(civil.Time)
		got := civil.DateTime{Date: d, Time: tm}.In(time.UTC)
		if !got.Equal(orig.Truncate(time.Microsecond)) {
			t.Fatalf("round trip %q = %v, want %v", s, got, orig)
		}
	}
}

func TestSplitTimestamps_Malformed(t *testing.T) {
	t.Parallel()

	in := mustTable(t, "payment", []string{"created_at"}, []any{"yesterday"})
	_, err := SplitTimestamps(nil).Apply(in)
	if !errors.Is(err, table.ErrParse) {
		t.Fatalf("error = %v, want ErrParse", err)
	}
}

func TestSplitTimestamps_AbsentSourceSkipped(t *testing.T) {
	t.Parallel()

	in := mustTable(t, "design", []string{"design_id"}, []any{int64(1)})
	out, err := SplitTimestamps(nil).Apply(in)
	if err != nil {
		t.Fatalf("error = %v", err)
	}
	if got := out.Names(); !reflect.DeepEqual(got, []string{"design_id"}) {
		t.Fatalf("columns = %v", got)
	}
}

func TestParseDates(t *testing.T) {
	t.Parallel()

	in := mustTable(t, "payment", []string{"payment_date"},
		[]any{"2022-11-07"},
		[]any{nil},
		[]any{"2022-11-08 10:00:00"},
	)
	out, err := ParseDates{"payment_date"}.Apply(in)
	if err != nil {
		t.Fatalf("ParseDates error = %v", err)
	}
	got, _ := out.Column("payment_date")
	want := []any{civil.Date{Year: 2022, Month: 11, Day: 7}, nil, civil.Date{Year: 2022, Month: 11, Day: 8}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("payment_date = %v, want %v", got, want)
	}
	if in.Rows[0][0] != "2022-11-07" {
		t.Fatalf("input mutated")
	}

	if _, err := (ParseDates{"nope"}).Apply(in); !errors.Is(err, table.ErrSchemaMismatch) {
		t.Fatalf("missing column error = %v, want ErrSchemaMismatch", err)
	}
	bad := mustTable(t, "payment", []string{"payment_date"}, []any{"07/11/2022"})
	if _, err := (ParseDates{"payment_date"}).Apply(bad); !errors.Is(err, table.ErrParse) {
		t.Fatalf("malformed error = %v, want ErrParse", err)
	}
}

func TestParseDates_BlankIsUnset(t *testing.T) {
	t.Parallel()

	in := mustTable(t, "payment", []string{"payment_date"},
		[]any{"2022-11-07"},
		[]any{""},
		[]any{"   "},
	)
	out, err := ParseDates{"payment_date"}.Apply(in)
	if err != nil {
		t.Fatalf("ParseDates error = %v", err)
	}
	got, _ := out.Column("payment_date")
	want := []any{civil.Date{Year: 2022, Month: 11, Day: 7}, nil, nil}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("payment_date = %v, want %v", got, want)
	}
}

func TestChain_StopsAtFirstError(t *testing.T) {
	t.Parallel()

	in := mustTable(t, "t", []string{"a"}, []any{int64(1)})
	called := false
	c := Chain{
		Project{"missing"},
		Func(func(t *table.Table) (*table.Table, error) { called = true; return t, nil }),
	}
	if _, err := c.Apply(in); !errors.Is(err, table.ErrSchemaMismatch) {
		t.Fatalf("error = %v, want ErrSchemaMismatch", err)
	}
	if called {
		t.Fatalf("chain continued after error")
	}
}
