package ir

// MergeStats reports what Merge did with one SourceRecord.
type MergeStats struct {
	BooksAdded        int
	BooksReplaced     int
	ChaptersAdded     int
	ChaptersDiscarded int
	Verses            int
	Footnotes         int
}

// Merge folds rec into the corpus under versionID.
//
// Books are keyed by (code, version), so the same book from two versions
// becomes two rows; a repeated key replaces the earlier book metadata.
// Chapters are keyed by (code, chapter, version) and the first writer wins:
// a later duplicate is discarded so an already derived verse count is never
// clobbered. Verses, footnotes and diagnostics are appended; verse
// uniqueness is checked by Validate, not here.
//
// Every row merged is stamped with versionID.
func (c *Corpus) Merge(rec *SourceRecord, versionID string) MergeStats {
	c.ensureIndexes()
	var stats MergeStats

	for _, b := range rec.Books {
		book := *b
		book.VersionID = versionID
		key := book.Key()
		if i, ok := c.bookIndex[key]; ok {
			c.Books[i] = &book
			stats.BooksReplaced++
			continue
		}
		c.bookIndex[key] = len(c.Books)
		c.Books = append(c.Books, &book)
		stats.BooksAdded++
	}

	for _, ch := range rec.Chapters {
		chapter := *ch
		chapter.VersionID = versionID
		key := chapter.Key()
		if _, ok := c.chapterIndex[key]; ok {
			stats.ChaptersDiscarded++
			continue
		}
		c.chapterIndex[key] = len(c.Chapters)
		c.Chapters = append(c.Chapters, &chapter)
		stats.ChaptersAdded++
	}

	for _, v := range rec.Verses {
		verse := *v
		verse.VersionID = versionID
		c.Verses = append(c.Verses, &verse)
	}
	stats.Verses = len(rec.Verses)

	for _, f := range rec.Footnotes {
		note := *f
		note.VersionID = versionID
		c.Footnotes = append(c.Footnotes, &note)
	}
	stats.Footnotes = len(rec.Footnotes)

	c.Diagnostics = append(c.Diagnostics, rec.Diagnostics...)
	return stats
}
