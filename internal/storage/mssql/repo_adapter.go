package mssql

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

// Dialect renders T-SQL. CREATE TABLE has no IF NOT EXISTS, so it is
// guarded with OBJECT_ID.
var Dialect = ddl.Dialect{
	Name:       "mssql",
	QuoteIdent: ddl.Brackets,
	MapType:    MapType,
	Guard: func(fqn, create string) string {
		return "IF OBJECT_ID(N'" + fqn + "', N'U') IS NULL\nBEGIN\n  " + create + "\nEND;"
	},
	Clear: func(fqn string) string { return "TRUNCATE TABLE " + fqn },
}

// MapType maps table kinds to SQL Server column types.
func MapType(k table.Kind) string {
	switch k {
	case table.Int64:
		return "BIGINT"
	case table.Float64:
		return "FLOAT"
	case table.Bool:
		return "BIT"
	case table.Date:
		return "DATE"
	case table.Time:
		return "TIME(6)"
	case table.Timestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(MAX)"
	}
}

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
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
	storage.RegisterDDL("mssql", Dialect)
}
