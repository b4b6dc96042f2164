package ir

import (
	"fmt"

	"github.com/FocuswithJustin/JuniperCorpus/core/canon"
)

// FootnoteKind classifies an annotation attached to a verse.
type FootnoteKind string

// Footnote kinds, as stored in footnotes.footnote_type.
const (
	KindFootnote       FootnoteKind = "footnote"
	KindCrossReference FootnoteKind = "cross_reference"
)

// IsValid returns true if the kind is one of the known kinds.
func (k FootnoteKind) IsValid() bool {
	return k == KindFootnote || k == KindCrossReference
}

// Severity classifies a Diagnostic.
type Severity string

const (
	// SeveritySkip means a unit (book, verse, token) was dropped.
	SeveritySkip Severity = "skip"
	// SeverityWarn means the unit was kept in a degraded state.
	SeverityWarn Severity = "warn"
)

// Version is one translation or edition of the text.
type Version struct {
	// ID is the version identifier used as foreign key (e.g., "KJV").
	ID string `json:"id"`

	// Name is the short display name.
	Name string `json:"name"`

	// FullName is the long display name (e.g., "King James Version").
	FullName string `json:"full_name"`

	// Language is the language tag of the text.
	Language string `json:"language"`

	// Description is a free-form description.
	Description string `json:"description"`

	// IsDefault marks the version shown first by consumers.
	IsDefault bool `json:"is_default"`
}

// BookNames holds the localized names of a book in one version.
// Alt is empty when the source has no alternative name.
type BookNames struct {
	Abbreviation string `json:"abbreviation"`
	Short        string `json:"short_name"`
	Long         string `json:"long_name"`
	Alt          string `json:"alt_name,omitempty"`
}

// Book is one canonical book within one version.
type Book struct {
	// Code is the canonical book code.
	Code canon.Code `json:"code"`

	// VersionID is the owning version.
	VersionID string `json:"version_id"`

	// Name is the canonical English name.
	Name string `json:"name"`

	// Names are the localized names, already resolved through fallbacks.
	Names BookNames `json:"names"`

	// Testament is OT or NT.
	Testament canon.Testament `json:"testament"`

	// Order is the canonical position 1..66.
	Order int `json:"order"`
}

// Key returns the (code, version) key of the book.
func (b *Book) Key() BookKey {
	return BookKey{Code: b.Code, VersionID: b.VersionID}
}

// BookKey identifies a Book.
type BookKey struct {
	Code      canon.Code
	VersionID string
}

func (k BookKey) String() string {
	return fmt.Sprintf("%s (%s)", k.Code, k.VersionID)
}

// Chapter is one chapter of a book within one version.
type Chapter struct {
	Book       canon.Code `json:"book_code"`
	Number     int        `json:"chapter_number"`
	VerseCount int        `json:"verse_count"`
	VersionID  string     `json:"version_id"`
}

// Key returns the (code, chapter, version) key of the chapter.
func (c *Chapter) Key() ChapterKey {
	return ChapterKey{Code: c.Book, Number: c.Number, VersionID: c.VersionID}
}

// ChapterKey identifies a Chapter.
type ChapterKey struct {
	Code      canon.Code
	Number    int
	VersionID string
}

func (k ChapterKey) String() string {
	return fmt.Sprintf("%s %d (%s)", k.Code, k.Number, k.VersionID)
}

// Verse is the normalized text of one verse in one version.
type Verse struct {
	Book      canon.Code `json:"book_code"`
	Chapter   int        `json:"chapter"`
	Verse     int        `json:"verse"`
	Text      string     `json:"text"`
	VersionID string     `json:"version_id"`
}

// Key returns the (code, chapter, verse, version) key of the verse.
func (v *Verse) Key() VerseKey {
	return VerseKey{Code: v.Book, Chapter: v.Chapter, Verse: v.Verse, VersionID: v.VersionID}
}

// VerseKey identifies a Verse.
type VerseKey struct {
	Code      canon.Code
	Chapter   int
	Verse     int
	VersionID string
}

func (k VerseKey) String() string {
	return fmt.Sprintf("%s %d:%d (%s)", k.Code, k.Chapter, k.Verse, k.VersionID)
}

// Footnote is a footnote or cross reference attached to a verse.
// Footnotes have no uniqueness constraint; their order is document order.
type Footnote struct {
	Book      canon.Code   `json:"book_code"`
	Chapter   int          `json:"chapter"`
	Verse     int          `json:"verse"`
	VersionID string       `json:"version_id"`
	Kind      FootnoteKind `json:"type"`

	// Caller is the inline marker glyph ("+", "a", "*"), empty if absent.
	Caller string `json:"caller,omitempty"`

	// Content is the main note text.
	Content string `json:"content"`

	// Reference, Keyword and Quotation are structured sub-fields, empty when
	// the source note had none.
	Reference string `json:"reference,omitempty"`
	Keyword   string `json:"keyword,omitempty"`
	Quotation string `json:"quotation,omitempty"`
}

// Diagnostic records a recoverable problem found while parsing.
type Diagnostic struct {
	Severity  Severity `json:"severity"`
	VersionID string   `json:"version_id,omitempty"`
	Book      string   `json:"book,omitempty"`
	Message   string   `json:"message"`
}

func (d Diagnostic) String() string {
	if d.Book != "" {
		return fmt.Sprintf("[%s] %s %s: %s", d.Severity, d.VersionID, d.Book, d.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", d.Severity, d.VersionID, d.Message)
}

// SourceRecord is everything parsed from one source.
type SourceRecord struct {
	VersionID   string
	Books       []*Book
	Chapters    []*Chapter
	Verses      []*Verse
	Footnotes   []*Footnote
	BookNames   map[canon.Code]BookNames
	Diagnostics []Diagnostic
}

// NewSourceRecord creates an empty record for versionID.
func NewSourceRecord(versionID string) *SourceRecord {
	return &SourceRecord{
		VersionID: versionID,
		BookNames: make(map[canon.Code]BookNames),
	}
}

// Diagnose appends a diagnostic tagged with the record's version.
func (r *SourceRecord) Diagnose(sev Severity, book, format string, args ...any) Diagnostic {
	d := Diagnostic{
		Severity:  sev,
		VersionID: r.VersionID,
		Book:      book,
		Message:   fmt.Sprintf(format, args...),
	}
	r.Diagnostics = append(r.Diagnostics, d)
	return d
}
