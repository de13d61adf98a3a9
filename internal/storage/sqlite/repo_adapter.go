// Package sqlite registers the "sqlite" storage kind.
package sqlite

import (
	"context"

	"warehouse/internal/ddl"
	"warehouse/internal/storage"
	"warehouse/internal/table"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo adds Close to *Repository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// Dialect renders SQLite DDL. Dates and times are ISO-8601 TEXT.
var Dialect = ddl.Dialect{
	Name:       "sqlite",
	QuoteIdent: ddl.DoubleQuote,
	MapType:    MapType,
}

// MapType maps table kinds to SQLite type affinities.
func MapType(k table.Kind) string {
	switch k {
	case table.Int64, table.Bool:
		return "INTEGER"
	case table.Float64:
		return "REAL"
	default:
		return "TEXT"
	}
}

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, Config{
			DSN:     cfg.DSN,
			Table:   cfg.Table,
			Columns: cfg.Columns,
		})
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})
	storage.RegisterDDL("sqlite", Dialect)
}
