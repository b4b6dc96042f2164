//go:build !cgo_sqlite

package sqlite

import (
	_ "modernc.org/sqlite" // pure Go SQLite driver with FTS5
)

const (
	driverName    = "sqlite"
	driverType    = "purego"
	driverPackage = "modernc.org/sqlite"
)
