package transformer

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-sql/civil"

	"warehouse/internal/table"
)

// Split names a combined timestamp column and the date and time columns
// derived from it.
type Split struct {
	Source string
	Date   string
	Time   string
}

// DefaultSplits are the timestamp columns carried by every OLTP extract.
var DefaultSplits = []Split{
	{Source: "created_at", Date: "created_date", Time: "created_time"},
	{Source: "last_updated", Date: "last_updated_date", Time: "last_updated_time"},
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999Z07:00",
}

// ParseTimestamp parses the timestamp formats found in OLTP extracts.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("malformed timestamp %q", s)
}

// SplitTimestamps adds a date column and a time column for each split whose
// source column is present. Times keep microsecond precision. Source
// columns are left in place.
type SplitTimestamps []Split

func (s SplitTimestamps) Apply(in *table.Table) (*table.Table, error) {
	splits := s
	if len(splits) == 0 {
		splits = DefaultSplits
	}
	out := in.Clone()
	for _, sp := range splits {
		src := out.Index(sp.Source)
		if src < 0 {
			continue
		}
		dates := make([]any, len(out.Rows))
		times := make([]any, len(out.Rows))
		for r, row := range out.Rows {
			ts, ok, err := timestampValue(row[src])
			if err != nil {
				return nil, table.Wrap(table.ErrParse, fmt.Sprintf("split %s.%s row %d", in.Name, sp.Source, r+1), err)
			}
			if !ok {
				continue
			}
			dates[r] = civil.DateOf(ts)
			times[r] = civil.TimeOf(ts.Truncate(time.Microsecond))
		}
		if err := addValues(out, table.Column{Name: sp.Date, Kind: table.Date}, dates); err != nil {
			return nil, err
		}
		if err := addValues(out, table.Column{Name: sp.Time, Kind: table.Time}, times); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func timestampValue(v any) (time.Time, bool, error) {
	switch x := v.(type) {
	case nil:
		return time.Time{}, false, nil
	case time.Time:
		return x, true, nil
	case civil.DateTime:
		return x.In(time.UTC), true, nil
	case string:
		t, err := ParseTimestamp(x)
		return t, err == nil, err
	}
	return time.Time{}, false, fmt.Errorf("unexpected %T value %v", v, v)
}

func addValues(t *table.Table, c table.Column, vals []any) error {
	r := 0
	return t.AddColumn(c, func([]any) any {
		v := vals[r]
		r++
		return v
	})
}
