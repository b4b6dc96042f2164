package ir

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Address is a parsed verse reference as found in milestone attributes.
// Book is the raw book token; callers normalize it through canon.
type Address struct {
	Book     string `json:"book"`
	Chapter  int    `json:"chapter"`
	Verse    int    `json:"verse"`
	SubVerse string `json:"sub_verse,omitempty"`

	// VerseEnd is the last verse of a range ("1-3"), 0 for a single verse.
	VerseEnd int `json:"verse_end,omitempty"`
}

// addressGrammar accepts "GEN.1.1", "Gen.1.1", "GEN 1:1", "1JN 3:16a" and
// "Gen.1.1-3".
//
//nolint:govet // participle grammar tags are not standard struct tags
type addressGrammar struct {
	Book     string  `@Ident "."?`
	Chapter  int     `@Int ( "." | ":" )`
	Verse    int     `@Int`
	SubVerse *string `@SubVerse?`
	VerseEnd *int    `( "-" @Int )?`
}

// Ident must come before Int so that "1JN" lexes as a book and "1" as a number.
var addressLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Ident", Pattern: `[0-9]?[A-Za-z]{2,}[A-Za-z0-9]*`},
	{Name: "Int", Pattern: `[0-9]+`},
	{Name: "SubVerse", Pattern: `[a-z]`},
	{Name: "Punct", Pattern: `[.:\-]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var addressParser = participle.MustBuild[addressGrammar](
	participle.Lexer(addressLexer),
	participle.Elide("Whitespace"),
)

// ParseAddress parses a book-chapter-verse identifier. Chapter and verse
// must be positive.
func ParseAddress(s string) (Address, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Address{}, fmt.Errorf("empty address")
	}

	parsed, err := addressParser.ParseString("", s)
	if err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if parsed.Chapter <= 0 || parsed.Verse <= 0 {
		return Address{}, fmt.Errorf("invalid address %q: chapter and verse must be positive", s)
	}

	addr := Address{
		Book:    parsed.Book,
		Chapter: parsed.Chapter,
		Verse:   parsed.Verse,
	}
	if parsed.SubVerse != nil {
		addr.SubVerse = *parsed.SubVerse
	}
	if parsed.VerseEnd != nil {
		addr.VerseEnd = *parsed.VerseEnd
	}
	return addr, nil
}

// ParseVerseNumber parses a bare verse token such as "3", "3a" or "3-4",
// returning the first verse. It is used for chapter-relative milestones.
func ParseVerseNumber(s string) (int, error) {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, fmt.Errorf("invalid verse number %q", s)
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid verse number %q", s)
	}
	return n, nil
}

// String returns the address in dotted form.
func (a Address) String() string {
	var sb strings.Builder
	sb.WriteString(a.Book)
	sb.WriteString(".")
	sb.WriteString(strconv.Itoa(a.Chapter))
	sb.WriteString(".")
	sb.WriteString(strconv.Itoa(a.Verse))
	sb.WriteString(a.SubVerse)
	if a.VerseEnd > 0 {
		sb.WriteString("-")
		sb.WriteString(strconv.Itoa(a.VerseEnd))
	}
	return sb.String()
}

// IsRange returns true if the address spans several verses.
func (a Address) IsRange() bool {
	return a.VerseEnd > a.Verse
}
