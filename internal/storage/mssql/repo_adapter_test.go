package mssql

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-sql/civil"

	"warehouse/internal/storage"
	"warehouse/internal/table"
)

// Not parallel: swaps the newRepository hook.
func TestRegistration(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var gotCfg Config
	closed := false
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) {
		gotCfg = cfg
		return &Repository{cfg: cfg}, func() { closed = true }, nil
	}

	repo, err := storage.New(context.Background(), storage.Config{
		Kind:    "mssql",
		DSN:     "sqlserver://sa:pw@localhost:1433?database=warehouse",
		Table:   "dbo.dim_location",
		Columns: []string{"location_id"},
	})
	if err != nil {
		t.Fatalf("storage.New() error = %v", err)
	}
	if gotCfg.Table != "dbo.dim_location" {
		t.Fatalf("cfg.Table = %q", gotCfg.Table)
	}
	repo.Close()
	if !closed {
		t.Fatalf("Close() did not invoke closeFn")
	}

	boom := errors.New("boom")
	newRepository = func(ctx context.Context, cfg Config) (*Repository, func(), error) { return nil, nil, boom }
	if _, err := storage.New(context.Background(), storage.Config{Kind: "mssql"}); !errors.Is(err, boom) {
		t.Fatalf("factory error = %v, want %v", err, boom)
	}
}

func TestNewRepository_BadDSN(t *testing.T) {
	t.Parallel()

	if _, _, err := NewRepository(context.Background(), Config{DSN: "sqlserver://%zz"}); err == nil {
		t.Fatal("expected DSN parse error")
	}
}

func TestDialect(t *testing.T) {
	t.Parallel()

	tb := table.New("dim_location",
		table.Column{Name: "location_id", Kind: table.Int64},
		table.Column{Name: "city", Kind: table.String},
	)
	got, err := Dialect.CreateTableSQL(Dialect.TableDef(tb, "dbo.dim_location"))
	if err != nil {
		t.Fatalf("CreateTableSQL error: %v", err)
	}
	want := "IF OBJECT_ID(N'[dbo].[dim_location]', N'U') IS NULL\nBEGIN\n" +
		"  CREATE TABLE [dbo].[dim_location] (\n    [location_id] BIGINT,\n    [city] NVARCHAR(MAX)\n  );\nEND;"
	if got != want {
		t.Fatalf("CreateTableSQL =\n%s\nwant:\n%s", got, want)
	}
	if got := Dialect.ClearTableSQL("dbo.dim_location"); got != "TRUNCATE TABLE [dbo].[dim_location]" {
		t.Fatalf("ClearTableSQL = %q", got)
	}
}

func TestToBulkValue(t *testing.T) {
	t.Parallel()

	d := toBulkValue(civil.Date{Year: 2022, Month: time.November, Day: 3}).(time.Time)
	if !d.Equal(time.Date(2022, 11, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("date = %v", d)
	}
	tm := toBulkValue(civil.Time{Hour: 14, Minute: 20, Second: 52}).(time.Time)
	if tm.Hour() != 14 || tm.Minute() != 20 || tm.Second() != 52 {
		t.Fatalf("time = %v", tm)
	}
	if toBulkValue("x") != "x" || toBulkValue(nil) != nil {
		t.Fatalf("passthrough broken")
	}
}
