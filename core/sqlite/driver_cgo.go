//go:build cgo_sqlite

// CGO SQLite driver using mattn/go-sqlite3.
// This is used when the cgo_sqlite build tag is set.
//
// Build with: go build -tags "cgo_sqlite sqlite_fts5"
// Requires: CGO_ENABLED=1
package sqlite

import (
	_ "github.com/FocuswithJustin/JuniperCorpus/contrib/sqlite-external" // CGO SQLite driver
)

const (
	driverName    = "sqlite3"
	driverType    = "cgo"
	driverPackage = "github.com/mattn/go-sqlite3 (via contrib/sqlite-external)"
)
