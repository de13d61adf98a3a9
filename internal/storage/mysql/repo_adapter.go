// Package mysql registers the "mysql" storage kind.
package mysql

import (
	"context"

	"warehouse/internal/ddl"
	"warehouse/internal/storage"
	"warehouse/internal/table"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

var _ storage.Repository = (*wrappedRepo)(nil)

// wrappedRepo adds Close to *Repository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// Dialect renders MySQL DDL.
var Dialect = ddl.Dialect{
	Name:       "mysql",
	QuoteIdent: ddl.Backtick,
	MapType:    MapType,
	Clear:      func(fqn string) string { return "TRUNCATE TABLE " + fqn },
}

// MapType maps table kinds to MySQL column types.
func MapType(k table.Kind) string {
	switch k {
	case table.Int64:
		return "BIGINT"
	case table.Float64:
		return "DOUBLE"
	case table.Bool:
		return "BOOLEAN"
	case table.Date:
		return "DATE"
	case table.Time:
		return "TIME(6)"
	case table.Timestamp:
		return "DATETIME(6)"
	default:
		return "LONGTEXT"
	}
}

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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
	storage.RegisterDDL("mysql", Dialect)
}
