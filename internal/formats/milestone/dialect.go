// Package milestone walks milestone-marked scripture documents, where a verse
// is delimited by two sibling tokens inside a block container rather than by
// element nesting, and turns them into flat IR rows.
//
// The walk itself is dialect independent. A Dialect tells the walker which
// elements are books, verse tokens, notes, styling and chapter markers, and
// how to read addresses and notes out of them. See the usfx, usx and osis
// packages for the concrete dialects.
package milestone

import (
	"github.com/FocuswithJustin/JuniperCorpus/core/ir"
	"github.com/FocuswithJustin/JuniperCorpus/core/xml"
)

// Kind classifies an element for the walk.
type Kind int

const (
	// Ignore contributes nothing: headings, figures, breaks, metadata.
	Ignore Kind = iota
	// Styled is inline markup flattened into the verse text.
	Styled
	// VerseStart opens a verse at the address it carries.
	VerseStart
	// VerseEnd closes the open verse.
	VerseEnd
	// VerseSpan is a verse in container form: start, content, end.
	VerseSpan
	// Annotation is a footnote or cross reference.
	Annotation
	// ChapterMarker sets the chapter for verse tokens without a full address.
	ChapterMarker
)

func (k Kind) String() string {
	switch k {
	case Styled:
		return "styled"
	case VerseStart:
		return "verse-start"
	case VerseEnd:
		return "verse-end"
	case VerseSpan:
		return "verse-span"
	case Annotation:
		return "annotation"
	case ChapterMarker:
		return "chapter"
	default:
		return "ignore"
	}
}

// opensVerse reports whether an element of kind k marks a container.
func (k Kind) opensVerse() bool {
	return k == VerseStart || k == VerseSpan
}

// Note is an annotation as read by a dialect. Content is the main note text;
// the walker cleans it and drops the note when it is empty.
type Note struct {
	Kind      ir.FootnoteKind
	Caller    string
	Content   string
	Reference string
	Keyword   string
	Quotation string
}

// BookNode is one book subtree of a document. ID is the raw identifying
// attribute, empty when the element had none.
type BookNode struct {
	ID   string
	Root *xml.Node
}

// Dialect adapts one markup vocabulary to the walk.
type Dialect interface {
	// Name returns the dialect tag ("usfx", "usx", "osis").
	Name() string

	// Books returns the book subtrees of doc in document order.
	Books(doc *xml.Document) []BookNode

	// Classify returns the role of an element.
	Classify(n *xml.Node) Kind

	// Address reads the verse address of a VerseStart or VerseSpan element.
	// chapter is the last chapter marker seen, 0 if none, for tokens that
	// only carry a verse number.
	Address(n *xml.Node, chapter int) (ir.Address, error)

	// Chapter reads the number of a ChapterMarker element.
	Chapter(n *xml.Node) (int, bool)

	// Annotation reads an Annotation element.
	Annotation(n *xml.Node) Note
}
