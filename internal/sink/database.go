package sink

import (
	"context"
	"fmt"
	"log"
	"time"

	"warehouse/internal/ddl"
	"warehouse/internal/metrics"
	"warehouse/internal/storage"
	"warehouse/internal/table"
)

// DefaultBatchSize is used when Database.BatchSize is not positive.
const DefaultBatchSize = 5000

// Database loads each table into a relational warehouse through the storage
// registry. The target table is named after the warehouse table, optionally
// inside Schema.
type Database struct {
	Kind       string
	DSN        string
	Schema     string
	AutoCreate bool // create missing tables from the column kinds
	Replace    bool // empty the table before loading
	BatchSize  int
	Job        string
}

// Write implements Sink.
func (d *Database) Write(ctx context.Context, t *table.Table, _ time.Time) error {
	fqn := ddl.QualifiedName(d.Schema, t.Name)
	cols := t.Names()
	repo, err := storage.New(ctx, storage.Config{Kind: d.Kind, DSN: d.DSN, Table: fqn, Columns: cols})
	if err != nil {
		return table.Wrap(table.ErrIO, "open "+d.Kind, err)
	}
	defer repo.Close()

	if d.AutoCreate {
		if err := storage.EnsureTable(ctx, d.Kind, repo, t, fqn); err != nil {
			return table.Wrap(table.ErrIO, "ensure "+fqn, err)
		}
	}
	if d.Replace {
		if err := storage.ClearTable(ctx, d.Kind, repo, fqn); err != nil {
			return table.Wrap(table.ErrIO, "clear "+fqn, err)
		}
	}

	batch := d.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	n, err := storage.LoadRows(ctx, d.Job, cols, t.Rows, batch, repo.CopyFrom)
	if err != nil {
		return table.Wrap(table.ErrIO, fmt.Sprintf("load %s after %d rows", fqn, n), err)
	}
	metrics.RecordRows(d.Job, "loaded", n)
	log.Printf("sink: loaded table=%s kind=%s rows=%d", fqn, d.Kind, n)
	return nil
}
