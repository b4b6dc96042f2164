package ir

import "github.com/FocuswithJustin/JuniperCorpus/core/canon"

// Corpus accumulates every source of a run. It is append-only and owned by
// a single control flow; it is not safe for concurrent use.
type Corpus struct {
	Versions    []Version
	Books       []*Book
	Chapters    []*Chapter
	Verses      []*Verse
	Footnotes   []*Footnote
	Diagnostics []Diagnostic

	bookIndex    map[BookKey]int
	chapterIndex map[ChapterKey]int
}

// NewCorpus creates an empty corpus.
func NewCorpus() *Corpus {
	return &Corpus{
		bookIndex:    make(map[BookKey]int),
		chapterIndex: make(map[ChapterKey]int),
	}
}

// AddVersion appends a version row. Versions are stored in insertion order.
func (c *Corpus) AddVersion(v Version) {
	c.Versions = append(c.Versions, v)
}

// Version returns the version with the given id.
func (c *Corpus) Version(id string) (Version, bool) {
	for _, v := range c.Versions {
		if v.ID == id {
			return v, true
		}
	}
	return Version{}, false
}

// Book returns the book for (code, version).
func (c *Corpus) Book(code canon.Code, versionID string) (*Book, bool) {
	c.ensureIndexes()
	i, ok := c.bookIndex[BookKey{Code: code, VersionID: versionID}]
	if !ok {
		return nil, false
	}
	return c.Books[i], true
}

// Chapter returns the chapter for (code, number, version).
func (c *Corpus) Chapter(code canon.Code, number int, versionID string) (*Chapter, bool) {
	c.ensureIndexes()
	i, ok := c.chapterIndex[ChapterKey{Code: code, Number: number, VersionID: versionID}]
	if !ok {
		return nil, false
	}
	return c.Chapters[i], true
}

// VersionIDs returns the distinct version ids present on verses, in first
// appearance order.
func (c *Corpus) VersionIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for _, v := range c.Verses {
		if !seen[v.VersionID] {
			seen[v.VersionID] = true
			ids = append(ids, v.VersionID)
		}
	}
	return ids
}

// ensureIndexes rebuilds the lookup maps for a Corpus built as a literal.
func (c *Corpus) ensureIndexes() {
	if c.bookIndex != nil && len(c.bookIndex) == len(c.Books) &&
		c.chapterIndex != nil && len(c.chapterIndex) == len(c.Chapters) {
		return
	}
	c.bookIndex = make(map[BookKey]int, len(c.Books))
	for i, b := range c.Books {
		if _, ok := c.bookIndex[b.Key()]; !ok {
			c.bookIndex[b.Key()] = i
		}
	}
	c.chapterIndex = make(map[ChapterKey]int, len(c.Chapters))
	for i, ch := range c.Chapters {
		if _, ok := c.chapterIndex[ch.Key()]; !ok {
			c.chapterIndex[ch.Key()] = i
		}
	}
}
