package postgres

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

// Dialect renders Postgres DDL.
var Dialect = ddl.Dialect{
	Name:       "postgres",
	QuoteIdent: ddl.DoubleQuote,
	MapType:    MapType,
	Clear:      func(fqn string) string { return "TRUNCATE TABLE " + fqn },
}

// MapType maps table kinds to Postgres column types.
func MapType(k table.Kind) string {
	switch k {
	case table.Int64:
		return "BIGINT"
	case table.Float64:
		return "DOUBLE PRECISION"
	case table.Bool:
		return "BOOLEAN"
	case table.Date:
		return "DATE"
	case table.Time:
		return "TIME"
	case table.Timestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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
	storage.RegisterDDL("postgres", Dialect)
}
