// Package source turns one configured source directory into an
// ir.SourceRecord.
//
// A source is described by a Descriptor read from bible_sources.json. The
// Normalizer picks the dialect from the descriptor's format tag, finds the
// documents of that dialect in the directory, walks each one with the
// milestone parser and resolves localized book names.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
	"github.com/FocuswithJustin/JuniperCorpus/core/ir"
)

// Descriptor is one entry of the sources file.
type Descriptor struct {
	// Key is the object key in the sources file. It names the download
	// directory.
	Key string `json:"-"`

	Name         string `json:"name"`
	Format       string `json:"format"`
	URL          string `json:"url"`
	Language     string `json:"language,omitempty"`
	Abbreviation string `json:"abbreviation,omitempty"`
	Description  string `json:"description,omitempty"`
	Default      bool   `json:"default,omitempty"`
}

// VersionID is the identifier rows of this source are stored under.
func (d Descriptor) VersionID() string {
	if d.Abbreviation != "" {
		return d.Abbreviation
	}
	return strings.ToUpper(d.Key)
}

// Version builds the version row for the descriptor.
func (d Descriptor) Version(isDefault bool) ir.Version {
	id := d.VersionID()
	lang := d.Language
	if lang == "" {
		lang = "en"
	}
	desc := d.Description
	if desc == "" {
		desc = fmt.Sprintf("%s - %s format", d.Name, strings.ToUpper(d.Format))
	}
	return ir.Version{
		ID:          id,
		Name:        id,
		FullName:    d.Name,
		Language:    lang,
		Description: desc,
		IsDefault:   isDefault,
	}
}

// DefaultIndex returns the position of the default source: the one marked
// default, else the first.
func DefaultIndex(descs []Descriptor) int {
	for i, d := range descs {
		if d.Default {
			return i
		}
	}
	return 0
}

// LoadDescriptors reads a sources file.
func LoadDescriptors(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("sources file", path)
		}
		return nil, errors.NewIO("read", path, err)
	}
	descs, err := ParseDescriptors(data)
	if err != nil {
		var pe *errors.ParseError
		if errors.As(err, &pe) {
			pe.Path = path
		}
		return nil, err
	}
	return descs, nil
}

// ParseDescriptors decodes the sources JSON object. Entries keep the order
// they have in the file.
//
//	{
//	  "web": {"name": "World English Bible", "format": "usfx", "url": "...", "abbreviation": "WEB"}
//	}
func ParseDescriptors(data []byte) ([]Descriptor, error) {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return nil, parseErr(err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, errors.NewParse("sources", "", "top level must be an object")
	}

	var (
		descs    []Descriptor
		seen     = make(map[string]bool)
		defaults int
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, parseErr(err)
		}
		key, _ := tok.(string)

		var d Descriptor
		if err := dec.Decode(&d); err != nil {
			return nil, parseErr(err)
		}
		d.Key = key

		if err := d.validate(); err != nil {
			return nil, err
		}
		id := d.VersionID()
		if seen[id] {
			return nil, errors.NewValidation(key, fmt.Sprintf("duplicate version id %q", id))
		}
		seen[id] = true
		if d.Default {
			defaults++
		}
		descs = append(descs, d)
	}
	if _, err := dec.Token(); err != nil {
		return nil, parseErr(err)
	}

	if len(descs) == 0 {
		return nil, errors.NewValidation("sources", "no sources configured")
	}
	if defaults > 1 {
		return nil, errors.NewValidation("default", "more than one source is marked default")
	}
	return descs, nil
}

func (d Descriptor) validate() error {
	switch {
	case strings.TrimSpace(d.Key) == "":
		return errors.NewValidation("key", "source key is empty")
	case strings.ContainsAny(d.Key, `/\`) || d.Key == "." || d.Key == "..":
		return errors.NewValidation(d.Key, "source key must be a plain directory name")
	case strings.TrimSpace(d.Name) == "":
		return errors.NewValidation(d.Key, "name is required")
	case strings.TrimSpace(d.Format) == "":
		return errors.NewValidation(d.Key, "format is required")
	}
	return nil
}

func parseErr(err error) error {
	return errors.NewParse("sources", "", err.Error())
}
