// Package canon provides the canonical registry of the 66 books of the
// Protestant canon: codes, order, testament, English names and aliases.
//
// A Registry is immutable once built. Build one with New and pass it to every
// consumer; nothing in this package holds mutable package-level state.
package canon

import (
	"fmt"
	"strings"
)

// Code is a canonical three-character book code (e.g., "GEN", "1SA").
type Code string

// Testament identifies the Old or New Testament.
type Testament string

// Testament values, as stored in the books table.
const (
	OT Testament = "OT"
	NT Testament = "NT"
)

// lastOTOrder is the order of Malachi; every later book is NT.
const lastOTOrder = 39

// Book is one entry of the canonical table.
type Book struct {
	Code      Code
	Name      string // English display name
	OSIS      string // OSIS book identifier
	Order     int    // 1..66
	Testament Testament
}

// books is the canonical table in canonical order.
var books = []struct {
	code Code
	name string
	osis string
}{
	{"GEN", "Genesis", "Gen"},
	{"EXO", "Exodus", "Exod"},
	{"LEV", "Leviticus", "Lev"},
	{"NUM", "Numbers", "Num"},
	{"DEU", "Deuteronomy", "Deut"},
	{"JOS", "Joshua", "Josh"},
	{"JDG", "Judges", "Judg"},
	{"RUT", "Ruth", "Ruth"},
	{"1SA", "1 Samuel", "1Sam"},
	{"2SA", "2 Samuel", "2Sam"},
	{"1KI", "1 Kings", "1Kgs"},
	{"2KI", "2 Kings", "2Kgs"},
	{"1CH", "1 Chronicles", "1Chr"},
	{"2CH", "2 Chronicles", "2Chr"},
	{"EZR", "Ezra", "Ezra"},
	{"NEH", "Nehemiah", "Neh"},
	{"EST", "Esther", "Esth"},
	{"JOB", "Job", "Job"},
	{"PSA", "Psalms", "Ps"},
	{"PRO", "Proverbs", "Prov"},
	{"ECC", "Ecclesiastes", "Eccl"},
	{"SNG", "Song of Solomon", "Song"},
	{"ISA", "Isaiah", "Isa"},
	{"JER", "Jeremiah", "Jer"},
	{"LAM", "Lamentations", "Lam"},
	{"EZK", "Ezekiel", "Ezek"},
	{"DAN", "Daniel", "Dan"},
	{"HOS", "Hosea", "Hos"},
	{"JOL", "Joel", "Joel"},
	{"AMO", "Amos", "Amos"},
	{"OBA", "Obadiah", "Obad"},
	{"JON", "Jonah", "Jonah"},
	{"MIC", "Micah", "Mic"},
	{"NAM", "Nahum", "Nah"},
	{"HAB", "Habakkuk", "Hab"},
	{"ZEP", "Zephaniah", "Zeph"},
	{"HAG", "Haggai", "Hag"},
	{"ZEC", "Zechariah", "Zech"},
	{"MAL", "Malachi", "Mal"},
	{"MAT", "Matthew", "Matt"},
	{"MRK", "Mark", "Mark"},
	{"LUK", "Luke", "Luke"},
	{"JHN", "John", "John"},
	{"ACT", "Acts", "Acts"},
	{"ROM", "Romans", "Rom"},
	{"1CO", "1 Corinthians", "1Cor"},
	{"2CO", "2 Corinthians", "2Cor"},
	{"GAL", "Galatians", "Gal"},
	{"EPH", "Ephesians", "Eph"},
	{"PHP", "Philippians", "Phil"},
	{"COL", "Colossians", "Col"},
	{"1TH", "1 Thessalonians", "1Thess"},
	{"2TH", "2 Thessalonians", "2Thess"},
	{"1TI", "1 Timothy", "1Tim"},
	{"2TI", "2 Timothy", "2Tim"},
	{"TIT", "Titus", "Titus"},
	{"PHM", "Philemon", "Phlm"},
	{"HEB", "Hebrews", "Heb"},
	{"JAS", "James", "Jas"},
	{"1PE", "1 Peter", "1Pet"},
	{"2PE", "2 Peter", "2Pet"},
	{"1JN", "1 John", "1John"},
	{"2JN", "2 John", "2John"},
	{"3JN", "3 John", "3John"},
	{"JUD", "Jude", "Jude"},
	{"REV", "Revelation", "Rev"},
}

// extraAliases covers spellings seen in the wild that are neither the code,
// the OSIS id nor the English name.
var extraAliases = map[string]Code{
	"PSALM":            "PSA",
	"PSS":              "PSA",
	"SONGOFSONGS":      "SNG",
	"SONGOFSOLOMON":    "SNG",
	"CANTICLES":        "SNG",
	"SOS":              "SNG",
	"QOHELETH":         "ECC",
	"EZE":              "EZK",
	"JOE":              "JOL",
	"NAH":              "NAM",
	"PHI":              "PHP",
	"PHL":              "PHP",
	"JAM":              "JAS",
	"REVELATIONOFJOHN": "REV",
	"APOCALYPSE":       "REV",
	"MAR":              "MRK",
	"MRKS":             "MRK",
	"JOH":              "JHN",
}

// Registry is the immutable lookup structure over the canonical table.
type Registry struct {
	ordered []Book
	byCode  map[Code]int
	aliases map[string]Code
}

// New builds the registry. It panics if the static tables are inconsistent,
// which can only happen through a programming error in this file.
func New() *Registry {
	r := &Registry{
		ordered: make([]Book, 0, len(books)),
		byCode:  make(map[Code]int, len(books)),
		aliases: make(map[string]Code, len(books)*3+len(extraAliases)),
	}

	for i, b := range books {
		order := i + 1
		testament := NT
		if order <= lastOTOrder {
			testament = OT
		}
		r.ordered = append(r.ordered, Book{
			Code:      b.code,
			Name:      b.name,
			OSIS:      b.osis,
			Order:     order,
			Testament: testament,
		})
		r.byCode[b.code] = i
		r.addAlias(string(b.code), b.code)
		r.addAlias(b.osis, b.code)
		r.addAlias(b.name, b.code)
	}
	for alias, code := range extraAliases {
		r.addAlias(alias, code)
	}
	return r
}

func (r *Registry) addAlias(alias string, code Code) {
	key := aliasKey(alias)
	if existing, ok := r.aliases[key]; ok && existing != code {
		panic(fmt.Sprintf("canon: alias %q maps to both %s and %s", alias, existing, code))
	}
	r.aliases[key] = code
}

// aliasKey folds case and drops spaces, underscores, hyphens and dots.
func aliasKey(s string) string {
	var sb strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		switch r {
		case ' ', '_', '-', '.', '\t':
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Normalize resolves a raw book identifier to its canonical code.
// The second result is false when the identifier is not recognized; callers
// must drop the book rather than keep it under a fallback code.
func (r *Registry) Normalize(raw string) (Code, bool) {
	key := aliasKey(raw)
	if key == "" {
		return "", false
	}
	code, ok := r.aliases[key]
	return code, ok
}

// Book returns the canonical entry for code.
func (r *Registry) Book(code Code) (Book, bool) {
	i, ok := r.byCode[code]
	if !ok {
		return Book{}, false
	}
	return r.ordered[i], true
}

// Order returns the 1-based canonical position, or 0 for unknown codes.
func (r *Registry) Order(code Code) int {
	b, ok := r.Book(code)
	if !ok {
		return 0
	}
	return b.Order
}

// Testament returns OT or NT, or "" for unknown codes.
func (r *Registry) Testament(code Code) Testament {
	b, ok := r.Book(code)
	if !ok {
		return ""
	}
	return b.Testament
}

// Name returns the English display name, or the code itself when unknown.
func (r *Registry) Name(code Code) string {
	b, ok := r.Book(code)
	if !ok {
		return string(code)
	}
	return b.Name
}

// Books returns a copy of the canonical table in order.
func (r *Registry) Books() []Book {
	out := make([]Book, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// Len returns the number of canonical books.
func (r *Registry) Len() int {
	return len(r.ordered)
}
