package table

import (
	"errors"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/golang-sql/civil"
)

func sample() *Table {
	t := New("design",
		Column{Name: "design_id", Kind: Int64},
		Column{Name: "design_name", Kind: String},
	)
	t.Rows = [][]any{{int64(1), "Wooden"}, {int64(2), nil}}
	return t
}

func TestColumn(t *testing.T) {
	t.Parallel()

	tb := sample()
	got, err := tb.Column("design_name")
	if err != nil {
		t.Fatalf("Column() error = %v", err)
	}
	if want := []any{"Wooden", nil}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Column() = %v, want %v", got, want)
	}

	_, err = tb.Column("missing")
	if !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Column(missing) error = %v, want ErrSchemaMismatch", err)
	}
}

func TestAppend_WidthChecked(t *testing.T) {
	t.Parallel()

	tb := sample()
	if err := tb.Append(int64(3)); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("Append(short) error = %v, want ErrSchemaMismatch", err)
	}
	if err := tb.Append(int64(3), "Steel"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if tb.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", tb.Len())
	}
}

func TestAddColumn(t *testing.T) {
	t.Parallel()

	tb := sample()
	err := tb.AddColumn(Column{Name: "has_name", Kind: Bool}, func(row []any) any {
		return row[1] != nil
	})
	if err != nil {
		t.Fatalf("AddColumn() error = %v", err)
	}
	if got := tb.Names(); !reflect.DeepEqual(got, []string{"design_id", "design_name", "has_name"}) {
		t.Fatalf("Names() = %v", got)
	}
	if tb.Rows[0][2] != true || tb.Rows[1][2] != false {
		t.Fatalf("rows = %v", tb.Rows)
	}
	if err := tb.AddColumn(Column{Name: "has_name"}, func([]any) any { return nil }); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("duplicate AddColumn error = %v, want ErrSchemaMismatch", err)
	}
}

func TestClone_Independent(t *testing.T) {
	t.Parallel()

	a := sample()
	b := a.Clone()
	b.Rows[0][1] = "changed"
	b.Columns[0].Name = "x"
	if a.Rows[0][1] != "Wooden" || a.Columns[0].Name != "design_id" {
		t.Fatalf("Clone shares storage with original")
	}
}

func TestKindOfValue(t *testing.T) {
	t.Parallel()

	cases := []struct {
		v    any
		want Kind
		ok   bool
	}{
		{"x", String, true},
		{int64(1), Int64, true},
		{1.5, Float64, true},
		{true, Bool, true},
		{civil.Date{Year: 2023, Month: 1, Day: 1}, Date, true},
		{civil.Time{Hour: 1}, Time, true},
		{time.Unix(0, 0), Timestamp, true},
		{nil, 0, false},
		{int32(1), 0, false},
	}
	for _, c := range cases {
		got, ok := KindOfValue(c.v)
		if ok != c.ok || (ok && got != c.want) {
			t.Errorf("KindOfValue(%#v) = %v, %v; want %v, %v", c.v, got, ok, c.want, c.ok)
		}
	}
}

func TestError_IsAndKindOf(t *testing.T) {
	t.Parallel()

	cause := errors.New("no such file")
	err := fmt.Errorf("read staff: %w", Wrap(ErrNotFound, "source", cause))

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("errors.Is(err, ErrNotFound) = false")
	}
	if !errors.Is(err, cause) {
		t.Fatalf("errors.Is(err, cause) = false")
	}
	if errors.Is(err, ErrIO) {
		t.Fatalf("errors.Is(err, ErrIO) = true")
	}
	if got := KindOf(err); got != ErrNotFound {
		t.Fatalf("KindOf() = %q, want %q", got, ErrNotFound)
	}
	if got := KindOf(cause); got != "" {
		t.Fatalf("KindOf(untagged) = %q, want empty", got)
	}
	if Wrap(ErrIO, "x", nil) != nil {
		t.Fatalf("Wrap(nil) != nil")
	}
	if got, want := err.Error(), "read staff: source: not found: no such file"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}
