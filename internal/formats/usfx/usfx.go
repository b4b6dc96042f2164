// Package usfx implements the USFX dialect of the milestone walk.
//
// USFX is the XML rendering of USFM. Books are <book id="GEN"> elements under
// the <usfx> root, chapters are <c id="1"/> markers, verses are delimited by
// <v id="1" bcv="GEN.1.1"/> and <ve/>, footnotes are <f>/<fe> with fr ft fk
// fq parts and cross references are <x> with xo xt xk xq parts.
package usfx

import (
	"fmt"

	"github.com/FocuswithJustin/JuniperCorpus/core/ir"
	"github.com/FocuswithJustin/JuniperCorpus/core/xml"
	"github.com/FocuswithJustin/JuniperCorpus/internal/formats/base"
	"github.com/FocuswithJustin/JuniperCorpus/internal/formats/milestone"
)

// Detect finds USFX documents in a source directory.
var Detect = base.DetectConfig{
	XMLExtensions:  []string{".xml"},
	NameHints:      []string{"usfx"},
	ContentMarkers: []string{"<usfx"},
	Exclude:        []string{"BookNames.xml"},
	FormatName:     "USFX",
}

// ignored elements contribute nothing to verse text.
var ignored = map[string]bool{
	"id": true, "ide": true, "h": true, "toc": true, "rem": true,
	"s": true, "d": true, "r": true, "mt": true, "ms": true, "mr": true,
	"cl": true, "cp": true, "ca": true, "va": true, "vp": true,
	"fig": true, "b": true, "periph": true, "sp": true, "generated": true,
}

var (
	footnoteParts = milestone.NoteParts{
		Reference: []string{"fr"},
		Text:      []string{"ft"},
		Keyword:   []string{"fk"},
		Quotation: []string{"fq", "fqa"},
	}
	crossRefParts = milestone.NoteParts{
		Reference: []string{"xo"},
		Text:      []string{"xt"},
		Keyword:   []string{"xk"},
		Quotation: []string{"xq"},
	}
)

// Dialect is the USFX vocabulary.
type Dialect struct{}

// New returns the USFX dialect.
func New() *Dialect { return &Dialect{} }

// Name implements milestone.Dialect.
func (*Dialect) Name() string { return "usfx" }

// Books returns every <book> element, identified by id or code.
func (*Dialect) Books(doc *xml.Document) []milestone.BookNode {
	var books []milestone.BookNode
	doc.Root().Walk(func(n *xml.Node) bool {
		if !n.IsElement("book") {
			return true
		}
		id := n.Attr("id")
		if id == "" {
			id = n.Attr("code")
		}
		books = append(books, milestone.BookNode{ID: id, Root: n})
		return false
	})
	return books
}

// Classify implements milestone.Dialect. Unknown elements are styled.
func (*Dialect) Classify(n *xml.Node) milestone.Kind {
	name := n.Name()
	switch name {
	case "v":
		return milestone.VerseStart
	case "ve":
		return milestone.VerseEnd
	case "c":
		return milestone.ChapterMarker
	case "f", "fe", "x":
		return milestone.Annotation
	}
	if ignored[name] {
		return milestone.Ignore
	}
	return milestone.Styled
}

// Address reads bcv when present, else the chapter-relative id.
func (*Dialect) Address(n *xml.Node, chapter int) (ir.Address, error) {
	if bcv, ok := n.LookupAttr("bcv"); ok {
		return ir.ParseAddress(bcv)
	}
	id := n.Attr("id")
	if chapter <= 0 {
		return ir.Address{}, fmt.Errorf("verse %q before any chapter marker", id)
	}
	verse, err := ir.ParseVerseNumber(id)
	if err != nil {
		return ir.Address{}, err
	}
	return ir.Address{Chapter: chapter, Verse: verse}, nil
}

// Chapter implements milestone.Dialect.
func (*Dialect) Chapter(n *xml.Node) (int, bool) {
	ch, err := ir.ParseVerseNumber(n.Attr("id"))
	return ch, err == nil
}

// Annotation implements milestone.Dialect.
func (*Dialect) Annotation(n *xml.Node) milestone.Note {
	if n.Name() == "x" {
		return milestone.ReadNote(n, ir.KindCrossReference, n.Attr("caller"), crossRefParts, (*xml.Node).Name)
	}
	return milestone.ReadNote(n, ir.KindFootnote, n.Attr("caller"), footnoteParts, (*xml.Node).Name)
}
