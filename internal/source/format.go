package source

import (
	"strings"

	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
	"github.com/FocuswithJustin/JuniperCorpus/internal/formats/base"
	"github.com/FocuswithJustin/JuniperCorpus/internal/formats/milestone"
	"github.com/FocuswithJustin/JuniperCorpus/internal/formats/osis"
	"github.com/FocuswithJustin/JuniperCorpus/internal/formats/usfx"
	"github.com/FocuswithJustin/JuniperCorpus/internal/formats/usx"
)

// Format is a supported markup dialect.
type Format string

const (
	FormatUSFX Format = "usfx"
	FormatUSX  Format = "usx"
	FormatOSIS Format = "osis"
)

// Formats lists the supported dialects.
var Formats = []Format{FormatUSFX, FormatUSX, FormatOSIS}

// ParseFormat resolves a descriptor's format tag, ignoring case.
func ParseFormat(tag string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(tag)))
	switch f {
	case FormatUSFX, FormatUSX, FormatOSIS:
		return f, nil
	}
	return "", errors.NewUnsupported("format", "\""+tag+"\" is not one of usfx, usx, osis")
}

// Dialect returns the milestone dialect for f.
func (f Format) Dialect() milestone.Dialect {
	switch f {
	case FormatUSX:
		return usx.New()
	case FormatOSIS:
		return osis.New()
	default:
		return usfx.New()
	}
}

// Detect returns the document discovery rules for f.
func (f Format) Detect() base.DetectConfig {
	switch f {
	case FormatUSX:
		return usx.Detect
	case FormatOSIS:
		return osis.Detect
	default:
		return usfx.Detect
	}
}

func (f Format) String() string { return string(f) }
