package archive

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
)

type file struct {
	name, body string
}

func makeZip(t *testing.T, files []file) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		if _, err := w.Write([]byte(f.body)); err != nil {
			t.Fatalf("zip write: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func writeTar(t *testing.T, tw *tar.Writer, files []file) {
	t.Helper()
	for _, f := range files {
		if err := tw.WriteHeader(&tar.Header{Name: f.name, Mode: 0644, Size: int64(len(f.body)), Typeflag: tar.TypeReg}); err != nil {
			t.Fatalf("write header: %v", err)
		}
		if _, err := tw.Write([]byte(f.body)); err != nil {
			t.Fatalf("write content: %v", err)
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatal(err)
	}
}

func makeTarGz(t *testing.T, files []file) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	writeTar(t, tar.NewWriter(gw), files)
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func makeTarXz(t *testing.T, files []file) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatalf("xz writer: %v", err)
	}
	writeTar(t, tar.NewWriter(xw), files)
	if err := xw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var sourceFiles = []file{
	{"eng-web/eng-web_usfx.xml", "<usfx/>"},
	{"eng-web/BookNames.xml", "<BookNames/>"},
}

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind Kind
	}{
		{"zip", makeZip(t, sourceFiles), Zip},
		{"tar.gz", makeTarGz(t, sourceFiles), TarGz},
		{"tar.xz", makeTarXz(t, sourceFiles), TarXz},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectKind("download.bin", tt.data); got != tt.kind {
				t.Errorf("DetectKind by magic = %s, want %s", got, tt.kind)
			}

			dest := t.TempDir()
			written, err := Extract(tt.data, tt.kind, dest)
			if err != nil {
				t.Fatalf("Extract: %v", err)
			}
			if len(written) != 2 {
				t.Fatalf("written = %v", written)
			}
			data, err := os.ReadFile(filepath.Join(dest, "eng-web_usfx.xml"))
			if err != nil || string(data) != "<usfx/>" {
				t.Errorf("extracted document = %q, %v", data, err)
			}
		})
	}
}

func TestExtractKeepsMixedRoots(t *testing.T) {
	data := makeZip(t, []file{{"a/one.usx", "1"}, {"two.usx", "2"}})
	dest := t.TempDir()
	if _, err := Extract(data, Zip, dest); err != nil {
		t.Fatal(err)
	}
	for _, p := range []string{"a/one.usx", "two.usx"} {
		if _, err := os.Stat(filepath.Join(dest, filepath.FromSlash(p))); err != nil {
			t.Errorf("missing %s: %v", p, err)
		}
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		kind Kind
	}{
		{"zip parent", makeZip(t, []file{{"ok.xml", "x"}, {"../evil.xml", "x"}}), Zip},
		{"tar nested parent", makeTarGz(t, []file{{"docs/../../evil.xml", "x"}}), TarGz},
		{"tar absolute", makeTarXz(t, []file{{"/etc/evil.xml", "x"}}), TarXz},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parent := t.TempDir()
			dest := filepath.Join(parent, "out")
			_, err := Extract(tt.data, tt.kind, dest)
			if !errors.Is(err, errors.ErrInvalidInput) {
				t.Fatalf("error = %v, want invalid input", err)
			}
			if _, err := os.Stat(filepath.Join(parent, "evil.xml")); !os.IsNotExist(err) {
				t.Error("entry escaped destination")
			}
			if _, err := os.Stat(dest); !os.IsNotExist(err) {
				t.Error("nothing should be written when an entry is rejected")
			}
		})
	}
}

func TestDetectKindByName(t *testing.T) {
	tests := map[string]Kind{
		"eng-web_usfx.zip": Zip,
		"kjv.tar.gz":       TarGz,
		"kjv.TGZ":          TarGz,
		"bsb.tar.xz":       TarXz,
		"kjv.osis.xml":     None,
	}
	for name, want := range tests {
		if got := DetectKind(name, []byte("<osis")); got != want {
			t.Errorf("DetectKind(%q) = %s, want %s", name, got, want)
		}
	}
}

func TestReadFile(t *testing.T) {
	data := makeTarGz(t, sourceFiles)
	got, err := ReadFile(data, TarGz, "BookNames.xml")
	if err != nil || string(got) != "<BookNames/>" {
		t.Errorf("ReadFile = %q, %v", got, err)
	}
	if _, err := ReadFile(data, TarGz, "missing.xml"); err == nil {
		t.Error("expected error for missing file")
	}
	if err := Iterate(data, None, nil); err == nil {
		t.Error("expected error for plain payload")
	}
}
