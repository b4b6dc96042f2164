package store

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
	"github.com/FocuswithJustin/JuniperCorpus/core/sqlite"
)

// Check is the outcome of one hard verification check.
type Check struct {
	Name   string
	Passed bool
	Detail string
}

// VerifyReport lists hard checks and degraded findings for one store.
type VerifyReport struct {
	Path     string
	Checks   []Check
	Warnings []string
}

// Failed returns the hard checks that did not pass.
func (r *VerifyReport) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// Err returns a *errors.ValidationError naming the failed checks, or nil.
func (r *VerifyReport) Err() error {
	failed := r.Failed()
	if len(failed) == 0 {
		return nil
	}
	msgs := make([]string, len(failed))
	for i, c := range failed {
		msgs[i] = c.Name + ": " + c.Detail
	}
	return errors.NewValidation("store", strings.Join(msgs, "; "))
}

// Open opens a built store read-only.
func Open(path string) (*sqlx.DB, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.NewNotFound("store", path)
	}
	db, err := sqlite.OpenReadOnly(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	return sqlx.NewDb(db, sqlite.DriverName()), nil
}

type countCheck struct {
	name  string
	query string
	what  string
}

// Hard checks: each query counts offending rows.
var hardChecks = []countCheck{
	{"orphan_books", `SELECT COUNT(*) FROM books b WHERE NOT EXISTS (SELECT 1 FROM bible_versions v WHERE v.id = b.version_id)`, "books without a version"},
	{"orphan_chapters", `SELECT COUNT(*) FROM chapters c WHERE NOT EXISTS (SELECT 1 FROM books b WHERE b.id = c.book_id)`, "chapters without a book"},
	{"orphan_verses", `SELECT COUNT(*) FROM verses v WHERE NOT EXISTS (SELECT 1 FROM books b WHERE b.id = v.book_id)
		OR NOT EXISTS (SELECT 1 FROM bible_versions bv WHERE bv.id = v.version_id)`, "verses without a book or version"},
	{"orphan_footnotes", `SELECT COUNT(*) FROM footnotes f WHERE NOT EXISTS (SELECT 1 FROM books b WHERE b.id = f.book_id)`, "footnotes without a book"},
	{"testament", `SELECT COUNT(*) FROM books WHERE testament NOT IN ('OT', 'NT')`, "books with an invalid testament"},
	{"empty_verses", `SELECT COUNT(*) FROM verses WHERE length(trim(text)) = 0`, "verses with empty text"},
}

// Verify inspects the store at path.
//
// Hard checks cover database integrity, orphaned rows, testament values and
// the search index row count; any failure is returned as an error along
// with the report. Books without verses and chapters whose verse_count
// differs from their verse rows are reported as warnings only.
func Verify(ctx context.Context, path string) (*VerifyReport, error) {
	db, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	report := &VerifyReport{Path: path}

	var integrity string
	if err := db.GetContext(ctx, &integrity, `PRAGMA integrity_check`); err != nil {
		return nil, errors.Wrap(err, "integrity check")
	}
	report.Checks = append(report.Checks, Check{Name: "integrity", Passed: integrity == "ok", Detail: integrity})

	for _, c := range hardChecks {
		var n int64
		if err := db.GetContext(ctx, &n, c.query); err != nil {
			return nil, errors.Wrapf(err, "check %s", c.name)
		}
		report.Checks = append(report.Checks, Check{Name: c.name, Passed: n == 0, Detail: fmt.Sprintf("%d %s", n, c.what)})
	}

	// verses_fts_docsize holds one row per indexed document.
	var verses, indexed int64
	if err := db.GetContext(ctx, &verses, `SELECT COUNT(*) FROM verses`); err != nil {
		return nil, errors.Wrap(err, "count verses")
	}
	if err := db.GetContext(ctx, &indexed, `SELECT COUNT(*) FROM verses_fts_docsize`); err != nil {
		return nil, errors.Wrap(err, "count search index")
	}
	report.Checks = append(report.Checks, Check{
		Name:   "search_index",
		Passed: verses == indexed,
		Detail: fmt.Sprintf("%d verses, %d indexed", verses, indexed),
	})

	var empty []struct {
		Code      string `db:"code"`
		VersionID string `db:"version_id"`
	}
	if err := db.SelectContext(ctx, &empty, `SELECT b.code, b.version_id FROM books b
		WHERE NOT EXISTS (SELECT 1 FROM verses v WHERE v.book_id = b.id)
		ORDER BY b.version_id, b.book_order`); err != nil {
		return nil, errors.Wrap(err, "find empty books")
	}
	for _, b := range empty {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s (%s): book has no verses", b.Code, b.VersionID))
	}

	var mismatched []struct {
		Code       string `db:"code"`
		VersionID  string `db:"version_id"`
		Chapter    int    `db:"chapter_number"`
		VerseCount int    `db:"verse_count"`
		Rows       int    `db:"row_count"`
	}
	if err := db.SelectContext(ctx, &mismatched, `SELECT b.code, b.version_id, c.chapter_number, c.verse_count,
			(SELECT COUNT(*) FROM verses v WHERE v.book_id = c.book_id AND v.chapter_number = c.chapter_number) AS row_count
		FROM chapters c JOIN books b ON b.id = c.book_id
		WHERE c.verse_count != (SELECT COUNT(*) FROM verses v WHERE v.book_id = c.book_id AND v.chapter_number = c.chapter_number)
		ORDER BY b.version_id, b.book_order, c.chapter_number`); err != nil {
		return nil, errors.Wrap(err, "compare chapter verse counts")
	}
	for _, m := range mismatched {
		report.Warnings = append(report.Warnings, fmt.Sprintf("%s %d (%s): verse_count %d but %d verse rows",
			m.Code, m.Chapter, m.VersionID, m.VerseCount, m.Rows))
	}

	return report, report.Err()
}
