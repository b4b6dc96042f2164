// Package usx implements the USX dialect of the milestone walk.
//
// A USX document holds one book: a <usx> root with a <book code> child,
// <chapter number/> markers and <para> blocks. USX 3 delimits verses with
// <verse sid="GEN 1:1"/> and <verse eid="GEN 1:1"/>; USX 2 only has
// <verse number="1"/>, resolved against the last chapter marker. Notes are
// <note style caller> with <char style> parts.
package usx

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/JuniperCorpus/core/ir"
	"github.com/FocuswithJustin/JuniperCorpus/core/xml"
	"github.com/FocuswithJustin/JuniperCorpus/internal/formats/base"
	"github.com/FocuswithJustin/JuniperCorpus/internal/formats/milestone"
)

// Detect finds USX documents in a source directory.
var Detect = base.DetectConfig{
	Extensions:     []string{".usx"},
	XMLExtensions:  []string{".xml"},
	ContentMarkers: []string{"<usx"},
	Exclude:        []string{"BookNames.xml"},
	FormatName:     "USX",
}

var ignoredElements = map[string]bool{
	"book": true, "figure": true, "optbreak": true, "ms": true,
	"sidebar": true, "periph": true, "category": true,
}

// ignoredParaStyles are paragraph styles that never carry verse text.
// Styles are compared without their trailing level digit.
var ignoredParaStyles = map[string]bool{
	"h": true, "toc": true, "toca": true, "mt": true, "mte": true, "ms": true, "mr": true,
	"s": true, "sr": true, "r": true, "d": true, "sp": true, "cl": true,
	"rem": true, "ide": true, "sts": true, "restore": true, "imt": true, "is": true,
	"ip": true, "iot": true, "io": true, "cd": true,
}

var (
	crossRefStyles = map[string]bool{"x": true, "ex": true}

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

// Dialect is the USX vocabulary.
type Dialect struct{}

// New returns the USX dialect.
func New() *Dialect { return &Dialect{} }

// Name implements milestone.Dialect.
func (*Dialect) Name() string { return "usx" }

// Books returns the single book of a USX document, rooted at <usx>.
func (*Dialect) Books(doc *xml.Document) []milestone.BookNode {
	root := doc.Root()
	if !root.IsElement("usx") {
		return nil
	}
	var id string
	for _, c := range root.Children() {
		if c.IsElement("book") {
			id = c.Attr("code")
			break
		}
	}
	return []milestone.BookNode{{ID: id, Root: root}}
}

// Classify implements milestone.Dialect.
func (*Dialect) Classify(n *xml.Node) milestone.Kind {
	switch n.Name() {
	case "verse":
		if _, ok := n.LookupAttr("eid"); ok {
			return milestone.VerseEnd
		}
		return milestone.VerseStart
	case "chapter":
		if _, ok := n.LookupAttr("number"); ok {
			return milestone.ChapterMarker
		}
		return milestone.Ignore
	case "note":
		return milestone.Annotation
	case "para":
		if ignoredParaStyles[baseStyle(n.Attr("style"))] {
			return milestone.Ignore
		}
		return milestone.Styled
	}
	if ignoredElements[n.Name()] {
		return milestone.Ignore
	}
	return milestone.Styled
}

// Address reads sid when present, else the chapter-relative number.
func (*Dialect) Address(n *xml.Node, chapter int) (ir.Address, error) {
	if sid, ok := n.LookupAttr("sid"); ok {
		return ir.ParseAddress(sid)
	}
	number := n.Attr("number")
	if chapter <= 0 {
		return ir.Address{}, fmt.Errorf("verse %q before any chapter marker", number)
	}
	verse, err := ir.ParseVerseNumber(number)
	if err != nil {
		return ir.Address{}, err
	}
	return ir.Address{Chapter: chapter, Verse: verse}, nil
}

// Chapter implements milestone.Dialect.
func (*Dialect) Chapter(n *xml.Node) (int, bool) {
	ch, err := ir.ParseVerseNumber(n.Attr("number"))
	return ch, err == nil
}

// Annotation implements milestone.Dialect. Note styles other than
// footnotes and cross references are read as footnotes.
func (*Dialect) Annotation(n *xml.Node) milestone.Note {
	style := n.Attr("style")
	if crossRefStyles[style] {
		return milestone.ReadNote(n, ir.KindCrossReference, n.Attr("caller"), crossRefParts, charStyle)
	}
	return milestone.ReadNote(n, ir.KindFootnote, n.Attr("caller"), footnoteParts, charStyle)
}

func charStyle(n *xml.Node) string {
	if !n.IsElement("char") {
		return ""
	}
	return n.Attr("style")
}

// baseStyle drops the level digit from a style name ("s1" -> "s").
func baseStyle(style string) string {
	return strings.TrimRight(style, "0123456789")
}
