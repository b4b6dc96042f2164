// Package store materializes a corpus into a SQLite database with an FTS5
// index over verse text, and reads such a database back.
//
// A build never touches the target until it is complete: rows are written
// to a sibling file named <target>.build-<uuid>, the file is verified, and
// only then renamed over the target.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
	"github.com/FocuswithJustin/JuniperCorpus/core/ir"
	"github.com/FocuswithJustin/JuniperCorpus/core/sqlite"
	"github.com/FocuswithJustin/JuniperCorpus/internal/logging"
)

// Builder writes stores. The zero value is usable.
type Builder struct {
	Logger *slog.Logger
	// Now is the clock used for built_at. Defaults to time.Now.
	Now func() time.Time
}

// BuildReport describes a finished build.
type BuildReport struct {
	Path      string
	BuildID   string
	BuiltAt   time.Time
	Versions  []string
	Books     int64
	Chapters  int64
	Verses    int64
	Footnotes int64
	Checksum  string
	Duration  time.Duration
	Verify    *VerifyReport
}

// Build writes corpus to target.
//
// The corpus is validated before any file is created. Every row is inserted
// with a plain INSERT and foreign keys enforced, so a duplicate key or a
// dangling reference aborts the build with a *errors.ConstraintError. On
// any failure the temporary file is removed and target is left as it was.
func (b *Builder) Build(ctx context.Context, corpus *ir.Corpus, target string) (report *BuildReport, err error) {
	logger := logging.Or(b.Logger)
	now := time.Now
	if b.Now != nil {
		now = b.Now
	}
	start := time.Now()

	if err := corpus.Validate(); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return nil, errors.NewIO("create", filepath.Dir(target), err)
	}

	buildID := uuid.NewString()
	tmp := target + ".build-" + buildID
	defer func() {
		if err != nil {
			removeDB(tmp)
		}
	}()

	db, err := sqlite.Open(tmp)
	if err != nil {
		return nil, errors.NewIO("open", tmp, err)
	}
	defer func() {
		if db != nil {
			db.Close()
		}
	}()
	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		return nil, errors.Wrap(err, "enable foreign keys")
	}
	if !sqlite.HasFTS5(ctx, db) {
		return nil, errors.NewUnsupported("sqlite driver",
			fmt.Sprintf("%s (%s) has no FTS5 module; build with -tags sqlite_fts5", sqlite.DriverName(), sqlite.DriverType()))
	}

	w := &writer{db: db, logger: logger, bookIDs: make(map[ir.BookKey]int64)}
	builtAt := now().UTC()
	report = &BuildReport{
		BuildID:  buildID,
		BuiltAt:  builtAt,
		Versions: corpus.VersionIDs(),
		Checksum: corpus.BookChecksum(),
	}

	steps := []struct {
		name string
		fn   func(context.Context) (int64, error)
	}{
		{"schema", w.createSchema},
		{"versions", func(ctx context.Context) (int64, error) { return w.insertVersions(ctx, corpus.Versions) }},
		{"books", func(ctx context.Context) (int64, error) { return w.insertBooks(ctx, corpus.Books) }},
		{"chapters", func(ctx context.Context) (int64, error) { return w.insertChapters(ctx, corpus.Chapters) }},
		{"verses", func(ctx context.Context) (int64, error) { return w.insertVerses(ctx, corpus.Verses) }},
		{"footnotes", func(ctx context.Context) (int64, error) { return w.insertFootnotes(ctx, corpus.Footnotes) }},
		{"chapter_counts", w.updateChapterCounts},
		{"search_index", w.buildSearchIndex},
		{"optimize", w.optimize},
	}
	counts := make(map[string]int64, len(steps))
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		t := time.Now()
		n, err := step.fn(ctx)
		if err != nil {
			return nil, err
		}
		counts[step.name] = n
		logging.BuildStep(logger, step.name, n, time.Since(t), "build_id", buildID)
	}
	report.Books = counts["books"]
	report.Chapters = counts["chapters"]
	report.Verses = counts["verses"]
	report.Footnotes = counts["footnotes"]

	meta := [][2]string{
		{MetaSchemaVersion, SchemaVersion},
		{MetaBuiltAt, builtAt.Format(time.RFC3339)},
		{MetaBuildID, buildID},
		{MetaBookCount, strconv.FormatInt(report.Books, 10)},
		{MetaChapterCount, strconv.FormatInt(report.Chapters, 10)},
		{MetaVerseCount, strconv.FormatInt(report.Verses, 10)},
		{MetaFootnoteCount, strconv.FormatInt(report.Footnotes, 10)},
		{MetaVersions, strings.Join(report.Versions, ",")},
		{MetaChecksum, report.Checksum},
	}
	if err := w.insertMetadata(ctx, meta); err != nil {
		return nil, err
	}

	if err := db.Close(); err != nil {
		db = nil
		return nil, errors.NewIO("close", tmp, err)
	}
	db = nil

	vr, err := Verify(ctx, tmp)
	if err != nil {
		return nil, err
	}
	report.Verify = vr

	if err := os.Rename(tmp, target); err != nil {
		return nil, errors.NewIO("rename", target, err)
	}
	report.Path = target
	report.Duration = time.Since(start)

	logger.Info("store_built",
		"path", target,
		"build_id", buildID,
		"books", report.Books,
		"verses", report.Verses,
		"footnotes", report.Footnotes,
		"warnings", len(vr.Warnings),
		"duration_ms", report.Duration.Milliseconds(),
	)
	return report, nil
}

// removeDB deletes a database file and the journal files SQLite may have
// left next to it.
func removeDB(path string) {
	for _, suffix := range []string{"", "-journal", "-wal", "-shm"} {
		os.Remove(path + suffix)
	}
}

type writer struct {
	db      *sql.DB
	logger  *slog.Logger
	bookIDs map[ir.BookKey]int64
}

func (w *writer) createSchema(ctx context.Context) (int64, error) {
	stmts := append(append([]string{}, schema...), ftsSchema)
	for _, stmt := range stmts {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return 0, errors.Wrap(err, "create schema")
		}
	}
	return int64(len(stmts)), nil
}

// inTx runs fn in one transaction with a prepared statement.
func (w *writer) inTx(ctx context.Context, query string, fn func(*sql.Stmt) (int64, error)) (int64, error) {
	tx, err := w.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	n, err := fn(stmt)
	stmt.Close()
	if err != nil {
		tx.Rollback()
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

func (w *writer) insertVersions(ctx context.Context, versions []ir.Version) (int64, error) {
	return w.inTx(ctx, `INSERT INTO bible_versions (id, name, full_name, language, description, is_default)
		VALUES (?, ?, ?, ?, ?, ?)`, func(stmt *sql.Stmt) (int64, error) {
		var n int64
		for _, v := range versions {
			if _, err := stmt.ExecContext(ctx, v.ID, v.Name, v.FullName, v.Language, v.Description, boolInt(v.IsDefault)); err != nil {
				return n, constraintErr("version", v.ID, err)
			}
			n++
		}
		return n, nil
	})
}

func (w *writer) insertBooks(ctx context.Context, books []*ir.Book) (int64, error) {
	return w.inTx(ctx, `INSERT INTO books (code, version_id, name, abbreviation, short_name, long_name, alt_name, testament, book_order)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, func(stmt *sql.Stmt) (int64, error) {
		var n int64
		for _, b := range books {
			res, err := stmt.ExecContext(ctx, string(b.Code), b.VersionID, b.Name,
				b.Names.Abbreviation, b.Names.Short, b.Names.Long, nullString(b.Names.Alt),
				string(b.Testament), b.Order)
			if err != nil {
				return n, constraintErr("book", b.Key().String(), err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return n, err
			}
			w.bookIDs[b.Key()] = id
			n++
		}
		return n, nil
	})
}

func (w *writer) bookID(entity string, key ir.BookKey) (int64, error) {
	id, ok := w.bookIDs[key]
	if !ok {
		return 0, errors.NewConstraint(entity, "foreign key", "book "+key.String())
	}
	return id, nil
}

func (w *writer) insertChapters(ctx context.Context, chapters []*ir.Chapter) (int64, error) {
	return w.inTx(ctx, `INSERT INTO chapters (book_id, chapter_number, verse_count) VALUES (?, ?, ?)`,
		func(stmt *sql.Stmt) (int64, error) {
			var n int64
			for _, c := range chapters {
				id, err := w.bookID("chapter", ir.BookKey{Code: c.Book, VersionID: c.VersionID})
				if err != nil {
					return n, err
				}
				if _, err := stmt.ExecContext(ctx, id, c.Number, c.VerseCount); err != nil {
					return n, constraintErr("chapter", c.Key().String(), err)
				}
				n++
			}
			return n, nil
		})
}

func (w *writer) insertVerses(ctx context.Context, verses []*ir.Verse) (int64, error) {
	return w.inTx(ctx, `INSERT INTO verses (book_id, chapter_number, verse_number, text, version_id) VALUES (?, ?, ?, ?, ?)`,
		func(stmt *sql.Stmt) (int64, error) {
			var n int64
			for _, v := range verses {
				id, err := w.bookID("verse", ir.BookKey{Code: v.Book, VersionID: v.VersionID})
				if err != nil {
					return n, err
				}
				if _, err := stmt.ExecContext(ctx, id, v.Chapter, v.Verse, v.Text, v.VersionID); err != nil {
					return n, constraintErr("verse", v.Key().String(), err)
				}
				n++
			}
			return n, nil
		})
}

func (w *writer) insertFootnotes(ctx context.Context, notes []*ir.Footnote) (int64, error) {
	return w.inTx(ctx, `INSERT INTO footnotes (book_id, chapter_number, verse_number, version_id, footnote_type, caller, content, reference, keyword, quotation)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, func(stmt *sql.Stmt) (int64, error) {
		var n int64
		for _, f := range notes {
			key := ir.BookKey{Code: f.Book, VersionID: f.VersionID}
			id, err := w.bookID("footnote", key)
			if err != nil {
				return n, err
			}
			if _, err := stmt.ExecContext(ctx, id, f.Chapter, f.Verse, f.VersionID, string(f.Kind),
				nullString(f.Caller), f.Content, nullString(f.Reference), nullString(f.Keyword), nullString(f.Quotation)); err != nil {
				return n, constraintErr("footnote", fmt.Sprintf("%s %d:%d", key, f.Chapter, f.Verse), err)
			}
			n++
		}
		return n, nil
	})
}

func (w *writer) updateChapterCounts(ctx context.Context) (int64, error) {
	res, err := w.db.ExecContext(ctx, `UPDATE books SET chapter_count = (
		SELECT COUNT(*) FROM chapters WHERE chapters.book_id = books.id
	)`)
	if err != nil {
		return 0, errors.Wrap(err, "update chapter counts")
	}
	return res.RowsAffected()
}

func (w *writer) buildSearchIndex(ctx context.Context) (int64, error) {
	res, err := w.db.ExecContext(ctx, ftsPopulate)
	if err != nil {
		return 0, errors.Wrap(err, "populate search index")
	}
	for _, stmt := range ftsTriggers {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return 0, errors.Wrap(err, "create search triggers")
		}
	}
	return res.RowsAffected()
}

func (w *writer) optimize(ctx context.Context) (int64, error) {
	for _, stmt := range []string{
		`ANALYZE`,
		`INSERT INTO verses_fts(verses_fts) VALUES ('optimize')`,
		`VACUUM`,
		`PRAGMA optimize`,
	} {
		if _, err := w.db.ExecContext(ctx, stmt); err != nil {
			return 0, errors.Wrapf(err, "optimize: %s", stmt)
		}
	}
	return 0, nil
}

func (w *writer) insertMetadata(ctx context.Context, rows [][2]string) error {
	_, err := w.inTx(ctx, `INSERT INTO metadata (key, value) VALUES (?, ?)`, func(stmt *sql.Stmt) (int64, error) {
		for _, kv := range rows {
			if _, err := stmt.ExecContext(ctx, kv[0], kv[1]); err != nil {
				return 0, constraintErr("metadata", kv[0], err)
			}
		}
		return int64(len(rows)), nil
	})
	return err
}

// constraintErr turns a SQLite constraint failure into a ConstraintError.
// Any other driver failure becomes an InternalError naming the row.
func constraintErr(entity, key string, err error) error {
	msg := err.Error()
	var constraint string
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"), strings.Contains(msg, "PRIMARY KEY"):
		constraint = "unique"
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		constraint = "foreign key"
	case strings.Contains(msg, "CHECK constraint failed"):
		constraint = "check"
	case strings.Contains(msg, "NOT NULL constraint failed"):
		constraint = "not null"
	default:
		return errors.NewInternal("insert "+entity+" "+key, err)
	}
	return &errors.ConstraintError{Entity: entity, Constraint: constraint, Key: key, Err: err}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
