// Package booknames reads the localized book names that ship next to a
// source document (BookNames.xml) and resolves the names of a book through
// one fallback chain.
package booknames

import (
	"log/slog"
	"os"
	"strings"

	"github.com/FocuswithJustin/JuniperCorpus/core/canon"
	"github.com/FocuswithJustin/JuniperCorpus/core/ir"
	"github.com/FocuswithJustin/JuniperCorpus/core/xml"
	"github.com/FocuswithJustin/JuniperCorpus/internal/logging"
)

// FileName is the side document looked up in every source directory.
const FileName = "BookNames.xml"

// Entry is one <book> row as found in the file. Empty fields are absent.
type Entry struct {
	Abbreviation string
	Short        string
	Long         string
	Alt          string
}

// Table maps canonical codes to entries. A nil or empty Table is valid.
type Table map[canon.Code]Entry

// Load parses a BookNames.xml file:
//
//	<BookNames>
//	  <book code="GEN" abbr="Gen" short="Genesis" long="The First Book of Moses" alt="1 Moses"/>
//	</BookNames>
//
// Rows whose code the registry does not know are dropped. A missing,
// unreadable or malformed file yields an empty table and a warning; it is
// never an error.
func Load(path string, reg *canon.Registry, logger *slog.Logger) Table {
	logger = logging.Or(logger)
	table := Table{}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("book names unavailable", "path", path, "error", err)
		return table
	}
	doc, err := xml.Parse(data)
	if err != nil {
		logger.Warn("book names malformed", "path", path, "error", err)
		return table
	}
	nodes, err := doc.XPath("//book")
	if err != nil {
		logger.Warn("book names query failed", "path", path, "error", err)
		return table
	}

	for _, n := range nodes {
		raw := n.Attr("code")
		code, ok := reg.Normalize(raw)
		if !ok {
			logger.Debug("book names row skipped", "path", path, "code", raw)
			continue
		}
		if _, dup := table[code]; dup {
			continue
		}
		table[code] = Entry{
			Abbreviation: strings.TrimSpace(n.Attr("abbr")),
			Short:        strings.TrimSpace(n.Attr("short")),
			Long:         strings.TrimSpace(n.Attr("long")),
			Alt:          strings.TrimSpace(n.Attr("alt")),
		}
	}
	return table
}

// Resolve returns the names of code. It is total:
//
//	abbreviation -> the canonical code
//	short        -> the canonical English name
//	long         -> the resolved short name
//	alt          -> absent (empty)
func Resolve(table Table, reg *canon.Registry, code canon.Code) ir.BookNames {
	e := table[code]

	names := ir.BookNames{
		Abbreviation: e.Abbreviation,
		Short:        e.Short,
		Long:         e.Long,
		Alt:          e.Alt,
	}
	if names.Abbreviation == "" {
		names.Abbreviation = string(code)
	}
	if names.Short == "" {
		names.Short = reg.Name(code)
	}
	if names.Long == "" {
		names.Long = names.Short
	}
	return names
}
