// Package archive unpacks downloaded source archives: zip, tar.gz and
// tar.xz. Entries that would land outside the destination are rejected.
package archive

import (
	"archive/tar"
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/ulikunitz/xz"
)

// Kind is an archive container format.
type Kind int

const (
	// None means the payload is a single plain file.
	None Kind = iota
	Zip
	TarGz
	TarXz
)

func (k Kind) String() string {
	switch k {
	case Zip:
		return "zip"
	case TarGz:
		return "tar.gz"
	case TarXz:
		return "tar.xz"
	default:
		return "none"
	}
}

var (
	zipMagic  = []byte("PK\x03\x04")
	gzipMagic = []byte{0x1f, 0x8b}
	xzMagic   = []byte{0xfd, '7', 'z', 'X', 'Z', 0x00}
)

// DetectKind decides the container format from the file name, falling back
// to the leading magic bytes of data.
func DetectKind(name string, data []byte) Kind {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return Zip
	case strings.HasSuffix(lower, ".tar.gz"), strings.HasSuffix(lower, ".tgz"):
		return TarGz
	case strings.HasSuffix(lower, ".tar.xz"), strings.HasSuffix(lower, ".txz"):
		return TarXz
	}
	switch {
	case bytes.HasPrefix(data, zipMagic):
		return Zip
	case bytes.HasPrefix(data, gzipMagic):
		return TarGz
	case bytes.HasPrefix(data, xzMagic):
		return TarXz
	}
	return None
}

// Entry is one regular file inside an archive.
type Entry struct {
	Name string
	Size int64
	Mode int64
}

// Visitor is a callback function for iterating archive entries.
// Return true to stop iteration, false to continue.
type Visitor func(entry Entry, content io.Reader) (stop bool, err error)

// Iterate walks the regular files of an archive held in memory. Directories,
// links and other special entries are not visited.
func Iterate(data []byte, kind Kind, visitor Visitor) error {
	switch kind {
	case Zip:
		return iterateZip(data, visitor)
	case TarGz:
		gzr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("gzip reader: %w", err)
		}
		defer gzr.Close()
		return iterateTar(gzr, visitor)
	case TarXz:
		xzr, err := xz.NewReader(bytes.NewReader(data))
		if err != nil {
			return fmt.Errorf("xz reader: %w", err)
		}
		return iterateTar(xzr, visitor)
	default:
		return fmt.Errorf("unsupported archive format: %s", kind)
	}
}

func iterateTar(r io.Reader, visitor Visitor) error {
	tr := tar.NewReader(r)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}

		stop, err := visitor(Entry{Name: header.Name, Size: header.Size, Mode: header.Mode}, tr)
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
}

func iterateZip(data []byte, visitor Visitor) error {
	// A reader is still returned for insecure entry names; those are
	// rejected entry by entry.
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if zr == nil {
		return fmt.Errorf("zip reader: %w", err)
	}
	for _, f := range zr.File {
		if !f.Mode().IsRegular() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("open %s: %w", f.Name, err)
		}
		stop, err := visitor(Entry{Name: f.Name, Size: int64(f.UncompressedSize64), Mode: int64(f.Mode().Perm())}, rc)
		rc.Close()
		if err != nil {
			return err
		}
		if stop {
			return nil
		}
	}
	return nil
}

// ReadFile returns the content of the entry whose name, with or without
// its leading directory, equals filename.
func ReadFile(data []byte, kind Kind, filename string) ([]byte, error) {
	var content []byte
	err := Iterate(data, kind, func(e Entry, r io.Reader) (bool, error) {
		name := e.Name
		if idx := strings.Index(name, "/"); idx >= 0 {
			name = name[idx+1:]
		}
		if name == filename || e.Name == filename {
			var err error
			content, err = io.ReadAll(r)
			return true, err
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}
	if content == nil {
		return nil, fmt.Errorf("file not found: %s", filename)
	}
	return content, nil
}
