// Package osis implements the OSIS dialect of the milestone walk.
//
// Books are <div type="book" osisID="Gen">. Verses come either as milestone
// pairs <verse sID="Gen.1.1" osisID="Gen.1.1"/> ... <verse eID="Gen.1.1"/>
// or in container form <verse osisID="Gen.1.1">...</verse>; the walk treats
// the latter as start, content, end. Notes are <note n> with
// type="crossReference" for cross references.
package osis

import (
	"fmt"
	"strings"

	"github.com/FocuswithJustin/JuniperCorpus/core/ir"
	"github.com/FocuswithJustin/JuniperCorpus/core/xml"
	"github.com/FocuswithJustin/JuniperCorpus/internal/formats/base"
	"github.com/FocuswithJustin/JuniperCorpus/internal/formats/milestone"
)

// Detect finds OSIS documents in a source directory.
var Detect = base.DetectConfig{
	Extensions:     []string{".osis"},
	XMLExtensions:  []string{".xml"},
	ContentMarkers: []string{"<osis"},
	Exclude:        []string{"BookNames.xml"},
	FormatName:     "OSIS",
}

var ignored = map[string]bool{
	"title": true, "milestone": true, "lb": true, "index": true,
	"figure": true, "header": true, "speaker": true,
}

var (
	footnoteParts = milestone.NoteParts{
		Keyword:   []string{"catchWord"},
		Quotation: []string{"rdg"},
	}
	crossRefParts = milestone.NoteParts{
		Text: []string{"reference"},
	}
)

// Dialect is the OSIS vocabulary.
type Dialect struct{}

// New returns the OSIS dialect.
func New() *Dialect { return &Dialect{} }

// Name implements milestone.Dialect.
func (*Dialect) Name() string { return "osis" }

// Books returns every <div type="book">, identified by osisID.
func (*Dialect) Books(doc *xml.Document) []milestone.BookNode {
	var books []milestone.BookNode
	doc.Root().Walk(func(n *xml.Node) bool {
		if !n.IsElement("div") || n.Attr("type") != "book" {
			return true
		}
		books = append(books, milestone.BookNode{ID: firstID(n.Attr("osisID")), Root: n})
		return false
	})
	return books
}

// Classify implements milestone.Dialect.
func (*Dialect) Classify(n *xml.Node) milestone.Kind {
	switch n.Name() {
	case "verse":
		if _, ok := n.LookupAttr("eID"); ok {
			return milestone.VerseEnd
		}
		if _, ok := n.LookupAttr("sID"); ok {
			return milestone.VerseStart
		}
		if len(n.Nodes()) > 0 {
			return milestone.VerseSpan
		}
		return milestone.VerseStart
	case "chapter":
		if _, ok := n.LookupAttr("eID"); ok {
			return milestone.Ignore
		}
		return milestone.ChapterMarker
	case "note":
		return milestone.Annotation
	case "q":
		// Milestone quotes mark boundaries only.
		if _, ok := n.LookupAttr("sID"); ok {
			return milestone.Ignore
		}
		if _, ok := n.LookupAttr("eID"); ok {
			return milestone.Ignore
		}
		return milestone.Styled
	}
	if ignored[n.Name()] {
		return milestone.Ignore
	}
	return milestone.Styled
}

// Address reads osisID, falling back to sID. Only the first id of a
// multi-verse osisID is used.
func (*Dialect) Address(n *xml.Node, chapter int) (ir.Address, error) {
	id := firstID(n.Attr("osisID"))
	if id == "" {
		id = firstID(n.Attr("sID"))
	}
	if strings.Contains(id, ".") {
		return ir.ParseAddress(id)
	}
	if chapter <= 0 {
		return ir.Address{}, fmt.Errorf("verse %q before any chapter marker", id)
	}
	verse, err := ir.ParseVerseNumber(id)
	if err != nil {
		return ir.Address{}, err
	}
	return ir.Address{Chapter: chapter, Verse: verse}, nil
}

// Chapter reads the last component of osisID or sID ("Gen.1" -> 1).
func (*Dialect) Chapter(n *xml.Node) (int, bool) {
	id := firstID(n.Attr("osisID"))
	if id == "" {
		id = firstID(n.Attr("sID"))
	}
	if id == "" {
		id = n.Attr("n")
	}
	if i := strings.LastIndexByte(id, '.'); i >= 0 {
		id = id[i+1:]
	}
	ch, err := ir.ParseVerseNumber(id)
	return ch, err == nil
}

// Annotation implements milestone.Dialect.
func (*Dialect) Annotation(n *xml.Node) milestone.Note {
	var note milestone.Note
	if n.Attr("type") == "crossReference" {
		note = milestone.ReadNote(n, ir.KindCrossReference, n.Attr("n"), crossRefParts, (*xml.Node).Name)
	} else {
		note = milestone.ReadNote(n, ir.KindFootnote, n.Attr("n"), footnoteParts, (*xml.Node).Name)
	}
	if note.Reference == "" {
		note.Reference = n.Attr("osisRef")
	}
	return note
}

// firstID returns the first of a space separated osisID list.
func firstID(s string) string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
