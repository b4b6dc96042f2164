package store

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
)

// StoreStats are row counts and metadata read back from a store.
type StoreStats struct {
	Versions  []string          `json:"versions"`
	Books     int64             `json:"book_count"`
	Chapters  int64             `json:"chapter_count"`
	Verses    int64             `json:"verse_count"`
	Footnotes int64             `json:"footnote_count"`
	Metadata  map[string]string `json:"metadata"`
}

// Checksum returns the checksum metadata row, empty when missing.
func (s *StoreStats) Checksum() string {
	return s.Metadata[MetaChecksum]
}

// Stats counts rows and reads the metadata table.
func Stats(ctx context.Context, db *sqlx.DB) (*StoreStats, error) {
	s := &StoreStats{Metadata: make(map[string]string)}

	counts := []struct {
		dst   *int64
		table string
	}{
		{&s.Books, "books"},
		{&s.Chapters, "chapters"},
		{&s.Verses, "verses"},
		{&s.Footnotes, "footnotes"},
	}
	for _, c := range counts {
		if err := db.GetContext(ctx, c.dst, `SELECT COUNT(*) FROM `+c.table); err != nil {
			return nil, errors.Wrapf(err, "count %s", c.table)
		}
	}

	if err := db.SelectContext(ctx, &s.Versions, `SELECT id FROM bible_versions ORDER BY is_default DESC, id`); err != nil {
		return nil, errors.Wrap(err, "list versions")
	}

	var rows []struct {
		Key   string         `db:"key"`
		Value sql.NullString `db:"value"`
	}
	if err := db.SelectContext(ctx, &rows, `SELECT key, value FROM metadata`); err != nil {
		return nil, errors.Wrap(err, "read metadata")
	}
	for _, r := range rows {
		s.Metadata[r.Key] = r.Value.String
	}
	return s, nil
}

// MetaVersions splits the versions metadata row.
func (s *StoreStats) MetaVersions() []string {
	v := s.Metadata[MetaVersions]
	if v == "" {
		return nil
	}
	return strings.Split(v, ",")
}
