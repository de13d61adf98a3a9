// Package parser defines the contract between raw source bytes and tables.
package parser

import (
	"io"

	"warehouse/internal/table"
)

// Parser turns one source stream into a table named name. It also returns
// the number of rows it had to skip.
type Parser interface {
	Parse(r io.Reader, name string) (*table.Table, int, error)
}
