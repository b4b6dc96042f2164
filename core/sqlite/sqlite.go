// Package sqlite provides a unified SQLite interface supporting both
// pure Go (modernc.org/sqlite) and CGO (mattn/go-sqlite3) implementations.
//
// Build modes:
//   - Default (CGO_ENABLED=0): Uses pure Go modernc.org/sqlite
//   - CGO mode (CGO_ENABLED=1 -tags "cgo_sqlite sqlite_fts5"): Uses
//     mattn/go-sqlite3 via contrib/sqlite-external
//
// The corpus store needs FTS5. modernc.org/sqlite always has it; the CGO
// driver only has it when built with the sqlite_fts5 tag. HasFTS5 probes a
// connection so callers can fail with a clear message.
//
// Use Open() instead of sql.Open() to ensure the correct driver is used.
package sqlite

import (
	"context"
	"database/sql"
)

// DriverName returns the SQL driver name to use.
func DriverName() string {
	return driverName
}

// DriverType returns a string identifying the underlying implementation.
// Returns "cgo" for mattn/go-sqlite3, "purego" for modernc.org/sqlite.
func DriverType() string {
	return driverType
}

// IsCGO returns true if the CGO implementation is being used.
func IsCGO() bool {
	return driverType == "cgo"
}

// Open opens a SQLite database using the appropriate driver.
func Open(dataSourceName string) (*sql.DB, error) {
	return sql.Open(driverName, dataSourceName)
}

// OpenReadOnly opens a SQLite database file in read-only mode.
func OpenReadOnly(path string) (*sql.DB, error) {
	return Open("file:" + path + "?mode=ro")
}

// HasFTS5 reports whether the driver behind db was compiled with FTS5.
func HasFTS5(ctx context.Context, db *sql.DB) bool {
	var enabled int
	err := db.QueryRowContext(ctx, `SELECT sqlite_compileoption_used('ENABLE_FTS5')`).Scan(&enabled)
	if err == nil && enabled == 1 {
		return true
	}
	// Some builds register FTS5 without reporting the compile option.
	if _, err := db.ExecContext(ctx, `CREATE VIRTUAL TABLE temp.fts5_probe USING fts5(x)`); err != nil {
		return false
	}
	_, _ = db.ExecContext(ctx, `DROP TABLE temp.fts5_probe`)
	return true
}

// Info contains information about the SQLite driver configuration.
type Info struct {
	DriverName string `json:"driver_name"`
	DriverType string `json:"driver_type"`
	IsCGO      bool   `json:"is_cgo"`
	Package    string `json:"package"`
}

// GetInfo returns information about the current SQLite configuration.
func GetInfo() Info {
	return Info{
		DriverName: driverName,
		DriverType: driverType,
		IsCGO:      IsCGO(),
		Package:    driverPackage,
	}
}
