package transformer

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"warehouse/internal/table"
)

// ParseDate interprets v as a calendar date. Accepted values are
// civil.Date, time.Time, ISO dates ("2006-01-02") and the timestamp
// layouts accepted by ParseTimestamp. ok is false for nil and for blank
// strings.
func ParseDate(v any) (d civil.Date, ok bool, err error) {
	switch x := v.(type) {
	case nil:
		return civil.Date{}, false, nil
	case civil.Date:
		return x, true, nil
	case time.Time:
		return civil.DateOf(x), true, nil
	case civil.DateTime:
		return x.Date, true, nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return civil.Date{}, false, nil
		}
		if d, err := civil.ParseDate(s); err == nil {
			return d, true, nil
		}
		if t, err := ParseTimestamp(s); err == nil {
			return civil.DateOf(t), true, nil
		}
		return civil.Date{}, false, fmt.Errorf("malformed date %q", x)
	}
	return civil.Date{}, false, fmt.Errorf("unexpected %T value %v", v, v)
}

// ParseDates converts the listed columns to Date values. A missing column
// is a schema mismatch; an unparseable value is a parse error.
type ParseDates []string

func (p ParseDates) Apply(in *table.Table) (*table.Table, error) {
	out := in.Clone()
	for _, name := range p {
		i := out.Index(name)
		if i < 0 {
			return nil, table.Errorf(table.ErrSchemaMismatch, "dates "+in.Name, "column %q not found", name)
		}
		for r, row := range out.Rows {
			d, ok, err := ParseDate(row[i])
			if err != nil {
				return nil, table.Wrap(table.ErrParse, fmt.Sprintf("dates %s.%s row %d", in.Name, name, r+1), err)
			}
			if ok {
				row[i] = d
			} else {
				row[i] = nil
			}
		}
		out.Columns[i].Kind = table.Date
	}
	return out, nil
}
