package milestone

import (
	"strings"

	"github.com/FocuswithJustin/JuniperCorpus/core/ir"
	"github.com/FocuswithJustin/JuniperCorpus/core/xml"
)

// NoteParts names the sub-elements of a note by the key a dialect uses for
// them: the element name in USFX, the style attribute in USX.
type NoteParts struct {
	Reference []string
	Text      []string
	Keyword   []string
	Quotation []string
}

// ReadNote extracts the structured parts of a note element. key returns the
// part key of a descendant element.
//
// Content is the main text part when the note has one. Otherwise it is the
// text outside the reference and keyword parts, or failing that the text
// outside the reference part.
func ReadNote(n *xml.Node, kind ir.FootnoteKind, caller string, parts NoteParts, key func(*xml.Node) string) Note {
	r := noteReader{parts: parts, key: key}
	r.read(n)

	note := Note{
		Kind:      kind,
		Caller:    caller,
		Reference: r.ref.String(),
		Keyword:   r.keyword.String(),
		Quotation: r.quote.String(),
	}
	switch {
	case r.hasText:
		note.Content = r.text.String()
	case strings.TrimSpace(r.rest.String()) != "":
		note.Content = r.rest.String()
	default:
		note.Content = r.keyword.String() + " " + r.rest.String()
	}
	return note
}

type noteReader struct {
	parts NoteParts
	key   func(*xml.Node) string

	ref, text, keyword, quote, rest strings.Builder
	hasText                         bool
}

func (r *noteReader) read(n *xml.Node) {
	for _, c := range n.Nodes() {
		switch c.Kind() {
		case xml.TextNode:
			r.rest.WriteString(c.Data())
		case xml.ElementNode:
			k := r.key(c)
			switch {
			case contains(r.parts.Reference, k):
				r.ref.WriteString(c.InnerText())
			case contains(r.parts.Keyword, k):
				r.keyword.WriteString(c.InnerText())
				r.keyword.WriteString(" ")
			case contains(r.parts.Text, k):
				r.text.WriteString(c.InnerText())
				r.text.WriteString(" ")
				r.rest.WriteString(c.InnerText())
				r.hasText = true
			case contains(r.parts.Quotation, k):
				r.quote.WriteString(c.InnerText())
				r.quote.WriteString(" ")
				r.rest.WriteString(c.InnerText())
			default:
				r.read(c)
			}
		}
	}
}

func contains(list []string, s string) bool {
	if s == "" {
		return false
	}
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
