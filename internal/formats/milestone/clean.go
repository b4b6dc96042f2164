package milestone

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// markupEscape matches residual USFM markers left in text content, such as
// \wj, \wj*, \+nd, \f* and \q1.
var markupEscape = regexp.MustCompile(`\\\+?[a-z]+[0-9]*\*?`)

// Clean strips residual markup escapes, applies Unicode NFC, collapses
// whitespace runs to a single space and trims.
func Clean(s string) string {
	if strings.IndexByte(s, '\\') >= 0 {
		s = markupEscape.ReplaceAllString(s, "")
	}
	s = norm.NFC.String(s)
	return strings.Join(strings.Fields(s), " ")
}
