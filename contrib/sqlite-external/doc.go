// Package sqliteexternal provides the optional CGO SQLite driver.
//
// To use the CGO driver (github.com/mattn/go-sqlite3) for corpus builds:
//
//	CGO_ENABLED=1 go build -tags "cgo_sqlite sqlite_fts5" ./cmd/bible-etl
//
// The sqlite_fts5 tag is required: without it mattn/go-sqlite3 is compiled
// without FTS5 and the store builder refuses to run.
//
// By default the pure Go modernc.org/sqlite driver is used. See
// github.com/FocuswithJustin/JuniperCorpus/core/sqlite for details.
package sqliteexternal
