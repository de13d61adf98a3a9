// Package sink persists warehouse tables. The Parquet sink encodes a table
// with Apache Arrow and hands the bytes to an ObjectStore (local directory
// or S3); the Database sink loads the same table into a relational
// warehouse; Multi fans one table out to several sinks.
package sink

import (
	"context"
	"fmt"
	"path"
	"time"

	"golang.org/x/sync/errgroup"

	"warehouse/internal/table"
)

// KeyTimeFormat formats the run timestamp in object keys.
const KeyTimeFormat = "20060102T150405Z"

// Sink writes one table produced by the run started at ts.
type Sink interface {
	Write(ctx context.Context, t *table.Table, ts time.Time) error
}

// Key returns "<ts>/<name>.parquet".
func Key(name string, ts time.Time) string {
	return path.Join(ts.UTC().Format(KeyTimeFormat), name+".parquet")
}

// Multi writes each table to every sink. Workers bounds concurrency; values
// below 1 mean sequential. The first error cancels the remaining writes.
type Multi struct {
	Sinks   []Sink
	Workers int
}

// Write implements Sink.
func (m Multi) Write(ctx context.Context, t *table.Table, ts time.Time) error {
	if len(m.Sinks) == 0 {
		return fmt.Errorf("sink: no sinks configured")
	}
	if len(m.Sinks) == 1 {
		return m.Sinks[0].Write(ctx, t, ts)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, m.Workers))
	for _, s := range m.Sinks {
		g.Go(func() error { return s.Write(gctx, t, ts) })
	}
	return g.Wait()
}
