package store

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/FocuswithJustin/JuniperCorpus/core/canon"
	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
)

// DefaultSearchLimit caps a search with no explicit limit.
const DefaultSearchLimit = 20

// SearchFilter narrows a full-text search. Zero fields do not filter.
type SearchFilter struct {
	VersionID string
	Book      canon.Code
	Chapter   int
	Limit     int
}

// SearchHit is one matching verse.
type SearchHit struct {
	VersionID string     `db:"version_id" json:"version_id"`
	Book      canon.Code `db:"book_code" json:"book_code"`
	Chapter   int        `db:"chapter_number" json:"chapter"`
	Verse     int        `db:"verse_number" json:"verse"`
	Text      string     `db:"text" json:"text"`
	Rank      float64    `db:"rank" json:"rank"`
}

// Search runs an FTS5 MATCH query over verse text, best matches first.
// query uses FTS5 query syntax.
func Search(ctx context.Context, db *sqlx.DB, query string, filter SearchFilter) ([]SearchHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.NewValidation("query", "search query is empty")
	}

	var sb strings.Builder
	sb.WriteString(`SELECT v.version_id, b.code AS book_code, v.chapter_number, v.verse_number, v.text, verses_fts.rank AS rank
		FROM verses_fts
		JOIN verses v ON v.id = verses_fts.rowid
		JOIN books b ON b.id = v.book_id
		WHERE verses_fts MATCH ?`)
	args := []any{query}

	if filter.VersionID != "" {
		sb.WriteString(` AND v.version_id = ?`)
		args = append(args, filter.VersionID)
	}
	if filter.Book != "" {
		sb.WriteString(` AND b.code = ?`)
		args = append(args, string(filter.Book))
	}
	if filter.Chapter > 0 {
		sb.WriteString(` AND v.chapter_number = ?`)
		args = append(args, filter.Chapter)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultSearchLimit
	}
	sb.WriteString(` ORDER BY rank, b.book_order, v.chapter_number, v.verse_number LIMIT ?`)
	args = append(args, limit)

	hits := []SearchHit{}
	if err := db.SelectContext(ctx, &hits, sb.String(), args...); err != nil {
		return nil, errors.Wrapf(err, "search %q", query)
	}
	return hits, nil
}
