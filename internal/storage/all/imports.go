// Package all registers every built-in storage backend. Import it for side
// effects:
//
//	import _ "warehouse/internal/storage/all"
//
// Kinds made available: "postgres", "sqlite", "mysql", "mssql".
package all

import (
	_ "warehouse/internal/storage/mssql"
	_ "warehouse/internal/storage/mysql"
	_ "warehouse/internal/storage/postgres"
	_ "warehouse/internal/storage/sqlite"
)
