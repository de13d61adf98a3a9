// Package csv parses delimited OLTP extracts into tables. The first row is
// the header; every later row must have the same width or it is skipped and
// counted. Column types are inferred from the data unless disabled.
package csv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"warehouse/internal/table"
)

// Options configures the CSV parser behavior. The zero value reads a
// comma-separated file with a header row and infers column types.
type Options struct {
	// NoHeader treats the first row as data; columns are named col_0..col_N.
	NoHeader bool

	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each field value.
	TrimSpace bool

	// HeaderMap maps source header names to canonical column names. Keys are
	// matched against the raw header cell and its normalized form.
	HeaderMap map[string]string

	// KeepStrings disables type inference; every column is a String.
	KeepStrings bool

	// MaxSkipLogs caps how many skipped rows are logged. Zero means 400.
	MaxSkipLogs int
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads all of r into a table named name. It returns the number of
// rows skipped because they could not be read or had the wrong width. An
// input without a header row fails with table.ErrEmptyInput.
func (p *Parser) Parse(r io.Reader, name string) (*table.Table, int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = false
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}

	limit := p.opt.MaxSkipLogs
	if limit <= 0 {
		limit = 400
	}

	first, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, 0, table.Errorf(table.ErrEmptyInput, "parse "+name, "no header row")
	}
	if err != nil {
		return nil, 0, table.Wrap(table.ErrParse, "parse "+name+" header", err)
	}

	var headers []string
	var raw [][]string
	if p.opt.NoHeader {
		headers = make([]string, len(first))
		for i := range headers {
			headers[i] = fmt.Sprintf("col_%d", i)
		}
		raw = append(raw, first)
	} else {
		headers = normalizeHeaders(first, p.opt)
		if dup := duplicate(headers); dup != "" {
			return nil, 0, table.Errorf(table.ErrSchemaMismatch, "parse "+name, "duplicate column %q", dup)
		}
	}

	skipped := 0
	for line := 2; ; line++ {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if !errors.As(err, &pe) {
				return nil, skipped, table.Wrap(table.ErrIO, "parse "+name, err)
			}
			if skipped < limit {
				log.Printf("csv: %s: skipping row %d: %v", name, line, err)
			}
			skipped++
			continue
		}
		if len(row) != len(headers) {
			if skipped < limit {
				log.Printf("csv: %s: skipping row %d: incorrect number of fields (expected %d, got %d)", name, line, len(headers), len(row))
			}
			skipped++
			continue
		}
		if p.opt.TrimSpace {
			for i := range row {
				row[i] = strings.TrimSpace(row[i])
			}
		}
		raw = append(raw, row)
	}

	return build(name, headers, raw, !p.opt.KeepStrings), skipped, nil
}

func build(name string, headers []string, raw [][]string, infer bool) *table.Table {
	t := &table.Table{Name: name, Columns: make([]table.Column, len(headers)), Rows: make([][]any, len(raw))}
	for c, h := range headers {
		kind := table.String
		if infer {
			kind = inferKind(raw, c)
		}
		t.Columns[c] = table.Column{Name: h, Kind: kind}
	}
	for r, row := range raw {
		vals := make([]any, len(row))
		for c, s := range row {
			vals[c] = convert(s, t.Columns[c].Kind)
		}
		t.Rows[r] = vals
	}
	return t
}

func duplicate(names []string) string {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return n
		}
		seen[n] = true
	}
	return ""
}
