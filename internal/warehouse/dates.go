package warehouse

import (
	"fmt"
	"sort"
	"time"

	"github.com/golang-sql/civil"

	"warehouse/internal/schema"
	"warehouse/internal/table"
	"warehouse/internal/transformer"
)

// DateSet collects the distinct calendar dates seen in fact tables during
// one run. It is owned by the caller and is not safe for concurrent use.
type DateSet struct {
	m map[civil.Date]struct{}
}

// NewDateSet returns an empty set.
func NewDateSet() *DateSet {
	return &DateSet{m: map[civil.Date]struct{}{}}
}

// Add inserts every non-nil date from the given columns. Values may be
// civil.Date, time.Time or date strings. If any value is not a date the set
// is left unchanged and a parse error is returned.
func (s *DateSet) Add(cols ...[]any) error {
	var batch []civil.Date
	for c, col := range cols {
		for r, v := range col {
			d, ok, err := transformer.ParseDate(v)
			if err != nil {
				return table.Wrap(table.ErrParse, fmt.Sprintf("add dates column %d row %d", c, r+1), err)
			}
			if ok {
				batch = append(batch, d)
			}
		}
	}
	for _, d := range batch {
		s.m[d] = struct{}{}
	}
	return nil
}

// AddColumns adds the named columns of t.
func (s *DateSet) AddColumns(t *table.Table, names ...string) error {
	cols := make([][]any, 0, len(names))
	for _, n := range names {
		c, err := t.Column(n)
		if err != nil {
			return err
		}
		cols = append(cols, c)
	}
	return s.Add(cols...)
}

// Len returns the number of distinct dates.
func (s *DateSet) Len() int { return len(s.m) }

// Contains reports whether d is in the set.
func (s *DateSet) Contains(d civil.Date) bool {
	_, ok := s.m[d]
	return ok
}

// Sorted returns the dates in ascending order.
func (s *DateSet) Sorted() []civil.Date {
	out := make([]civil.Date, 0, len(s.m))
	for d := range s.m {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return dateLess(out[i], out[j]) })
	return out
}

func dateLess(a, b civil.Date) bool {
	if a.Year != b.Year {
		return a.Year < b.Year
	}
	if a.Month != b.Month {
		return a.Month < b.Month
	}
	return a.Day < b.Day
}

var dateColumns = []table.Column{
	{Name: "date_id", Kind: table.Date},
	{Name: "year", Kind: table.Int64},
	{Name: "month", Kind: table.Int64},
	{Name: "day", Kind: table.Int64},
	{Name: "day_of_week", Kind: table.Int64},
	{Name: "day_name", Kind: table.String},
	{Name: "month_name", Kind: table.String},
	{Name: "quarter", Kind: table.Int64},
}

// BuildDateDimension returns one row per date in s, ascending. day_of_week
// counts from Monday = 0. An empty set yields a table with no rows.
func BuildDateDimension(s *DateSet) *table.Table {
	t := table.New(schema.DimDate, dateColumns...)
	for _, d := range s.Sorted() {
		wd := d.In(time.UTC).Weekday()
		m := int64(d.Month)
		t.Rows = append(t.Rows, []any{
			d,
			int64(d.Year),
			m,
			int64(d.Day),
			int64((int(wd) + 6) % 7),
			wd.String(),
			d.Month.String(),
			(m-1)/3 + 1,
		})
	}
	return t
}
