package storage

import (
	"context"
	"fmt"
	"sync"

	"warehouse/internal/ddl"
	"warehouse/internal/table"
)

var (
	ddlMu    sync.RWMutex
	dialects = map[string]ddl.Dialect{}
)

// RegisterDDL registers (or replaces) the DDL dialect for kind. Backends
// call it from init alongside Register.
func RegisterDDL(kind string, d ddl.Dialect) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	dialects[kind] = d
}

// DialectFor returns the dialect registered for kind.
func DialectFor(kind string) (ddl.Dialect, error) {
	ddlMu.RLock()
	d, ok := dialects[kind]
	ddlMu.RUnlock()
	if !ok {
		return ddl.Dialect{}, fmt.Errorf("no DDL dialect registered for storage.kind=%q", kind)
	}
	return d, nil
}

// EnsureTable creates fqn with columns inferred from t if it does not exist.
func EnsureTable(ctx context.Context, kind string, repo Repository, t *table.Table, fqn string) error {
	d, err := DialectFor(kind)
	if err != nil {
		return err
	}
	stmt, err := d.CreateTableSQL(d.TableDef(t, fqn))
	if err != nil {
		return fmt.Errorf("build DDL: %w", err)
	}
	if err := repo.Exec(ctx, stmt); err != nil {
		return fmt.Errorf("apply DDL: %w", err)
	}
	return nil
}

// ClearTable removes every row from fqn.
func ClearTable(ctx context.Context, kind string, repo Repository, fqn string) error {
	d, err := DialectFor(kind)
	if err != nil {
		return err
	}
	if err := repo.Exec(ctx, d.ClearTableSQL(fqn)); err != nil {
		return fmt.Errorf("clear %s: %w", fqn, err)
	}
	return nil
}
