// Package datasource reads source extracts by file id and parses them into
// tables. Concrete stores live in subpackages (file, s3ds, httpds).
package datasource

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"warehouse/internal/metrics"
	"warehouse/internal/parser"
	"warehouse/internal/table"
)

// Source opens one extract by file id. Implementations return errors tagged
// table.ErrNotFound when the extract does not exist and table.ErrIO for
// other failures.
type Source interface {
	Open(ctx context.Context, fileID string) (io.ReadCloser, error)
}

// Reader combines a Source and a Parser.
type Reader struct {
	Source Source
	Parser parser.Parser
	Job    string // metrics job label
}

// Read opens fileID and parses it. The table is named after the file id
// without directory or extension, e.g. "staff" for "2023/staff.csv".
func (r *Reader) Read(ctx context.Context, fileID string) (*table.Table, error) {
	rc, err := r.Source.Open(ctx, fileID)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileID, err)
	}
	defer rc.Close()

	t, skipped, err := r.Parser.Parse(rc, TableName(fileID))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileID, err)
	}
	if skipped > 0 {
		log.Printf("source: file=%s skipped=%d malformed rows", fileID, skipped)
	}
	metrics.RecordRows(r.Job, "read", int64(t.Len()))
	metrics.RecordRows(r.Job, "skipped", int64(skipped))
	return t, nil
}

// TableName derives a table name from a file id.
func TableName(fileID string) string {
	base := path.Base(strings.ReplaceAll(fileID, "\\", "/"))
	if ext := path.Ext(base); ext != "" {
		base = strings.TrimSuffix(base, ext)
	}
	return base
}
