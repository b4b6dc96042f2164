package ir

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
)

// Validate checks the invariants the store enforces and returns the first
// violation as a *errors.ConstraintError:
//
//   - Book unique on (code, version), Book.Version known
//   - Chapter unique on (code, chapter, version), Chapter -> Book
//   - Verse unique on (code, chapter, verse, version), text non-empty,
//     Verse -> Book, Verse -> Version
//   - Footnote -> Book, Footnote kind valid
func (c *Corpus) Validate() error {
	versions := make(map[string]bool, len(c.Versions))
	for _, v := range c.Versions {
		if v.ID == "" {
			return errors.NewConstraint("version", "not null", "empty id")
		}
		if versions[v.ID] {
			return errors.NewConstraint("version", "unique", v.ID)
		}
		versions[v.ID] = true
	}

	books := make(map[BookKey]bool, len(c.Books))
	for _, b := range c.Books {
		key := b.Key()
		if books[key] {
			return errors.NewConstraint("book", "unique", key.String())
		}
		if !versions[b.VersionID] {
			return errors.NewConstraint("book", "foreign key", fmt.Sprintf("%s references unknown version", key))
		}
		books[key] = true
	}

	chapters := make(map[ChapterKey]bool, len(c.Chapters))
	for _, ch := range c.Chapters {
		key := ch.Key()
		if chapters[key] {
			return errors.NewConstraint("chapter", "unique", key.String())
		}
		if !books[BookKey{Code: ch.Book, VersionID: ch.VersionID}] {
			return errors.NewConstraint("chapter", "foreign key", fmt.Sprintf("%s references unknown book", key))
		}
		chapters[key] = true
	}

	verses := make(map[VerseKey]bool, len(c.Verses))
	for _, v := range c.Verses {
		key := v.Key()
		if verses[key] {
			return errors.NewConstraint("verse", "unique", key.String())
		}
		if strings.TrimSpace(v.Text) == "" {
			return errors.NewConstraint("verse", "not empty", key.String())
		}
		if !versions[v.VersionID] {
			return errors.NewConstraint("verse", "foreign key", fmt.Sprintf("%s references unknown version", key))
		}
		if !books[BookKey{Code: v.Book, VersionID: v.VersionID}] {
			return errors.NewConstraint("verse", "foreign key", fmt.Sprintf("%s references unknown book", key))
		}
		verses[key] = true
	}

	for _, f := range c.Footnotes {
		if !f.Kind.IsValid() {
			return errors.NewConstraint("footnote", "check", fmt.Sprintf("kind %q", f.Kind))
		}
		if !books[BookKey{Code: f.Book, VersionID: f.VersionID}] {
			return errors.NewConstraint("footnote", "foreign key",
				fmt.Sprintf("%s %d:%d (%s) references unknown book", f.Book, f.Chapter, f.Verse, f.VersionID))
		}
	}

	return nil
}
