package source

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/FocuswithJustin/JuniperCorpus/core/canon"
	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
	"github.com/FocuswithJustin/JuniperCorpus/core/ir"
	"github.com/FocuswithJustin/JuniperCorpus/core/xml"
	"github.com/FocuswithJustin/JuniperCorpus/internal/formats/base"
	"github.com/FocuswithJustin/JuniperCorpus/internal/formats/booknames"
	"github.com/FocuswithJustin/JuniperCorpus/internal/formats/milestone"
	"github.com/FocuswithJustin/JuniperCorpus/internal/logging"
)

// Normalizer parses source directories. The zero value is usable.
type Normalizer struct {
	Registry *canon.Registry
	Logger   *slog.Logger
}

// Normalize parses every document of desc's dialect found in dir.
//
// An unsupported format, a missing directory, a directory without
// documents, or a document that is not well-formed XML is fatal. Anything
// wrong inside a book becomes a diagnostic on the returned record.
func (n *Normalizer) Normalize(desc Descriptor, dir string) (*ir.SourceRecord, error) {
	format, err := ParseFormat(desc.Format)
	if err != nil {
		return nil, err
	}
	reg := n.Registry
	if reg == nil {
		reg = canon.New()
	}
	root := logging.Or(n.Logger)
	logger := root.With("version", desc.VersionID(), "format", format.String())

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, errors.NewNotFound("source directory", dir)
	}

	docs, err := base.FindDocuments(dir, format.Detect())
	if err != nil {
		return nil, errors.NewIO("list", dir, err)
	}
	if len(docs) == 0 {
		return nil, errors.NewNotFound(format.String()+" document", dir)
	}

	rec := ir.NewSourceRecord(desc.VersionID())
	parser := &milestone.Parser{Registry: reg, Dialect: format.Dialect()}

	for _, path := range docs {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.NewIO("read", path, err)
		}
		doc, err := xml.Parse(data)
		if err != nil {
			return nil, errors.NewParse(strings.ToUpper(format.String()), path, err.Error())
		}
		results := parser.ParseDocument(doc, rec)
		logger.Debug("document parsed", "path", path, "books", len(results))
	}

	table := booknames.Load(filepath.Join(dir, booknames.FileName), reg, logger)
	for _, b := range rec.Books {
		b.Names = booknames.Resolve(table, reg, b.Code)
		rec.BookNames[b.Code] = b.Names
	}

	for _, d := range rec.Diagnostics {
		logging.Diagnostic(root, string(d.Severity), d.VersionID, d.Book, d.Message)
	}
	logging.SourceParsed(root, rec.VersionID, format.String(),
		len(rec.Books), len(rec.Verses), len(rec.Footnotes), len(rec.Diagnostics),
		"documents", len(docs))

	return rec, nil
}
