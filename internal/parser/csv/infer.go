package csv

import (
	"strconv"
	"strings"

	"warehouse/internal/table"
)

// inferKind picks the narrowest kind every non-empty value in column c
// satisfies: int64, then bool, then float64, else string. Timestamps stay
// strings; they are split downstream.
func inferKind(rows [][]string, c int) table.Kind {
	var vals []string
	for _, row := range rows {
		if row[c] != "" {
			vals = append(vals, row[c])
		}
	}
	switch {
	case len(vals) == 0:
		return table.String
	case allMatch(vals, isInt):
		return table.Int64
	case allMatch(vals, isBool):
		return table.Bool
	case allMatch(vals, isFloat):
		return table.Float64
	}
	return table.String
}

// convert turns one raw cell into a value of kind k. Empty cells are nil.
// inferKind guarantees the conversion succeeds.
func convert(s string, k table.Kind) any {
	if s == "" {
		return nil
	}
	switch k {
	case table.Int64:
		n, _ := strconv.ParseInt(s, 10, 64)
		return n
	case table.Bool:
		return strings.EqualFold(s, "true")
	case table.Float64:
		f, _ := strconv.ParseFloat(s, 64)
		return f
	}
	return s
}

func allMatch(vals []string, fn func(string) bool) bool {
	for _, v := range vals {
		if !fn(v) {
			return false
		}
	}
	return true
}

// isInt accepts canonical integers only, so codes such as "02134" keep
// their leading zero as strings.
func isInt(s string) bool {
	digits := strings.TrimPrefix(s, "-")
	if digits == "" || (len(digits) > 1 && digits[0] == '0') {
		return false
	}
	_, err := strconv.ParseInt(s, 10, 64)
	return err == nil
}

func isBool(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}

// isFloat accepts plain decimal notation with an optional exponent. NaN and
// Inf spellings are rejected.
func isFloat(s string) bool {
	digits := strings.TrimPrefix(s, "-")
	if digits == "" {
		return false
	}
	if len(digits) > 1 && digits[0] == '0' && digits[1] != '.' {
		return false
	}
	for _, r := range digits {
		if (r < '0' || r > '9') && r != '.' && r != 'e' && r != 'E' && r != '-' && r != '+' {
			return false
		}
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
