package milestone

import (
	"sort"
	"strings"

	"github.com/FocuswithJustin/JuniperCorpus/core/canon"
	"github.com/FocuswithJustin/JuniperCorpus/core/ir"
	"github.com/FocuswithJustin/JuniperCorpus/core/xml"
)

// Parser runs the milestone walk for one dialect.
type Parser struct {
	Registry *canon.Registry
	Dialect  Dialect
}

// BookResult summarizes one parsed book.
type BookResult struct {
	Code      canon.Code
	Verses    int
	Footnotes int
	Skipped   bool
}

// ParseDocument walks every book in doc and appends the rows to rec.
// Problems inside a book never escape it: they become diagnostics on rec.
func (p *Parser) ParseDocument(doc *xml.Document, rec *ir.SourceRecord) []BookResult {
	var results []BookResult
	for _, b := range p.Dialect.Books(doc) {
		results = append(results, p.ParseBook(b, rec))
	}
	return results
}

// ParseBook walks a single book subtree.
//
// A book without an identifying attribute or with a code the registry does
// not know is skipped with a diagnostic. A book that yields no verses is
// kept and reported.
func (p *Parser) ParseBook(b BookNode, rec *ir.SourceRecord) BookResult {
	if strings.TrimSpace(b.ID) == "" {
		rec.Diagnose(ir.SeveritySkip, "", "%s book element has no identifying attribute", p.Dialect.Name())
		return BookResult{Skipped: true}
	}
	code, ok := p.Registry.Normalize(b.ID)
	if !ok {
		rec.Diagnose(ir.SeveritySkip, b.ID, "unknown book code %q", b.ID)
		return BookResult{Skipped: true}
	}

	if !hasBook(rec, code) {
		rec.Books = append(rec.Books, &ir.Book{
			Code:      code,
			VersionID: rec.VersionID,
			Name:      p.Registry.Name(code),
			Testament: p.Registry.Testament(code),
			Order:     p.Registry.Order(code),
		})
	} else {
		rec.Diagnose(ir.SeverityWarn, string(code), "book appears more than once")
	}

	w := &walker{
		dialect:  p.Dialect,
		rec:      rec,
		code:     code,
		maxVerse: make(map[int]int),
	}
	w.walkBook(b.Root)

	chapters := make([]int, 0, len(w.maxVerse))
	for ch := range w.maxVerse {
		chapters = append(chapters, ch)
	}
	sort.Ints(chapters)
	for _, ch := range chapters {
		rec.Chapters = append(rec.Chapters, &ir.Chapter{
			Book:       code,
			Number:     ch,
			VerseCount: w.maxVerse[ch],
			VersionID:  rec.VersionID,
		})
	}

	if w.verses == 0 {
		rec.Diagnose(ir.SeverityWarn, string(code), "book has no verses")
	}
	return BookResult{Code: code, Verses: w.verses, Footnotes: w.footnotes}
}

func hasBook(rec *ir.SourceRecord, code canon.Code) bool {
	for _, b := range rec.Books {
		if b.Code == code {
			return true
		}
	}
	return false
}

// walker holds the per-book state of the walk. Within a container it is
// either Idle (inVerse false) or InVerse(addr, text, notes).
type walker struct {
	dialect Dialect
	rec     *ir.SourceRecord
	code    canon.Code

	// chapter is the fallback chapter from the last marker seen.
	chapter int

	inVerse bool
	addr    ir.Address
	text    strings.Builder
	notes   []Note

	maxVerse  map[int]int
	verses    int
	footnotes int
}

// walkBook visits the book in document order. Each element with a direct
// verse-opening child is a container; containers are not descended into.
// The book element itself is a container when verse tokens sit directly
// under it.
func (w *walker) walkBook(root *xml.Node) {
	if w.isContainer(root) {
		w.bookContainer(root)
		return
	}
	w.walkTree(root)
}

// bookContainer runs the state machine over the children of the book
// element. Child blocks that hold their own containers close any open verse
// and are walked separately.
func (w *walker) bookContainer(root *xml.Node) {
	w.inVerse = false
	for _, child := range root.Nodes() {
		if child.Kind() == xml.ElementNode && w.holdsVerses(child) {
			if w.inVerse {
				w.flush()
			}
			if w.dialect.Classify(child) == ChapterMarker {
				w.setChapter(child)
			}
			if w.isContainer(child) {
				w.container(child)
			} else {
				w.walkTree(child)
			}
			w.inVerse = false
			continue
		}
		w.step(child)
	}
	if w.inVerse {
		w.flush()
	}
}

// holdsVerses reports whether n is a block, not a verse token or a note,
// with a container at or below it.
func (w *walker) holdsVerses(n *xml.Node) bool {
	kind := w.dialect.Classify(n)
	if kind.opensVerse() || kind == Annotation {
		return false
	}
	if w.isContainer(n) {
		return true
	}
	found := false
	n.Walk(func(c *xml.Node) bool {
		if found || w.dialect.Classify(c) == Annotation {
			return false
		}
		if w.isContainer(c) {
			found = true
			return false
		}
		return true
	})
	return found
}

func (w *walker) walkTree(root *xml.Node) {
	root.Walk(func(n *xml.Node) bool {
		kind := w.dialect.Classify(n)
		if kind == ChapterMarker {
			w.setChapter(n)
		}
		if kind == Annotation {
			return false
		}
		if w.isContainer(n) {
			w.container(n)
			return false
		}
		return true
	})
}

func (w *walker) isContainer(n *xml.Node) bool {
	for _, c := range n.Children() {
		if w.dialect.Classify(c).opensVerse() {
			return true
		}
	}
	return false
}

// container runs the state machine over the flat child list of n.
func (w *walker) container(n *xml.Node) {
	w.inVerse = false
	for _, child := range n.Nodes() {
		w.step(child)
	}
	// Verses never span containers.
	if w.inVerse {
		w.flush()
	}
}

func (w *walker) step(n *xml.Node) {
	switch n.Kind() {
	case xml.TextNode:
		if w.inVerse {
			w.text.WriteString(n.Data())
		}
		return
	case xml.ElementNode:
	default:
		return
	}

	switch w.dialect.Classify(n) {
	case VerseStart:
		w.start(n)
	case VerseEnd:
		if w.inVerse {
			w.flush()
		}
	case VerseSpan:
		w.start(n)
		if w.inVerse {
			w.inline(n)
			w.flush()
		}
	case ChapterMarker:
		w.setChapter(n)
	case Annotation:
		if w.inVerse {
			w.note(n)
		}
	case Styled:
		if w.inVerse {
			w.inline(n)
		}
	}
}

// start handles a verse-start token: flush any open verse, then open a new
// one if the address parses. An unparseable address leaves the walk Idle.
func (w *walker) start(n *xml.Node) {
	if w.inVerse {
		w.flush()
	}
	addr, err := w.dialect.Address(n, w.chapter)
	if err != nil {
		w.rec.Diagnose(ir.SeverityWarn, string(w.code), "ignoring verse token %s: %v", n, err)
		return
	}
	w.inVerse = true
	w.addr = addr
	w.text.Reset()
	w.notes = w.notes[:0]
}

// inline flattens the children of a styled element into the text buffer.
// Notes nested inside become footnotes; nested verse tokens are ignored.
func (w *walker) inline(n *xml.Node) {
	for _, child := range n.Nodes() {
		switch child.Kind() {
		case xml.TextNode:
			w.text.WriteString(child.Data())
		case xml.ElementNode:
			switch w.dialect.Classify(child) {
			case Annotation:
				w.note(child)
			case Styled, VerseSpan:
				w.inline(child)
			}
		}
	}
}

func (w *walker) note(n *xml.Node) {
	note := w.dialect.Annotation(n)
	note.Content = Clean(note.Content)
	if note.Content == "" {
		return
	}
	note.Caller = strings.TrimSpace(note.Caller)
	note.Reference = Clean(note.Reference)
	note.Keyword = Clean(note.Keyword)
	note.Quotation = Clean(note.Quotation)
	w.notes = append(w.notes, note)
}

func (w *walker) setChapter(n *xml.Node) {
	if ch, ok := w.dialect.Chapter(n); ok {
		w.chapter = ch
	}
}

// flush emits the open verse and its notes and returns to Idle. A verse
// whose cleaned text is empty is dropped with its notes.
func (w *walker) flush() {
	w.inVerse = false
	text := Clean(w.text.String())
	w.text.Reset()
	notes := w.notes
	w.notes = nil

	if text == "" {
		w.rec.Diagnose(ir.SeveritySkip, string(w.code), "verse %d:%d has no text", w.addr.Chapter, w.addr.Verse)
		return
	}

	w.rec.Verses = append(w.rec.Verses, &ir.Verse{
		Book:      w.code,
		Chapter:   w.addr.Chapter,
		Verse:     w.addr.Verse,
		Text:      text,
		VersionID: w.rec.VersionID,
	})
	w.verses++
	if w.addr.Verse > w.maxVerse[w.addr.Chapter] {
		w.maxVerse[w.addr.Chapter] = w.addr.Verse
	}

	for _, note := range notes {
		kind := note.Kind
		if !kind.IsValid() {
			kind = ir.KindFootnote
		}
		w.rec.Footnotes = append(w.rec.Footnotes, &ir.Footnote{
			Book:      w.code,
			Chapter:   w.addr.Chapter,
			Verse:     w.addr.Verse,
			VersionID: w.rec.VersionID,
			Kind:      kind,
			Caller:    note.Caller,
			Content:   note.Content,
			Reference: note.Reference,
			Keyword:   note.Keyword,
			Quotation: note.Quotation,
		})
		w.footnotes++
	}
}
