package fetch

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"

	"github.com/FocuswithJustin/JuniperCorpus/core/cas"
	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
	"github.com/FocuswithJustin/JuniperCorpus/internal/logging"
	"github.com/FocuswithJustin/JuniperCorpus/internal/source"
)

func sourceZip(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range map[string]string{
		"eng-web_usfx.xml": `<usfx><book id="GEN"/></usfx>`,
		"BookNames.xml":    `<BookNames/>`,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		w.Write([]byte(body))
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type testServer struct {
	*httptest.Server
	hits atomic.Int32
}

func newTestServer(t *testing.T, payload []byte) *testServer {
	ts := &testServer{}
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.hits.Add(1)
		switch r.URL.Path {
		case "/eng-web_usfx.zip":
			w.Write(payload)
		case "/kjv.osis.xml":
			w.Write([]byte(`<osis/>`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newFetcher(t *testing.T, ts *testServer) *Fetcher {
	return &Fetcher{
		Client: ts.Client(),
		Root:   t.TempDir(),
		Logger: logging.Discard(),
		Now:    func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) },
	}
}

func TestFetchIsIdempotent(t *testing.T) {
	payload := sourceZip(t)
	ts := newTestServer(t, payload)
	f := newFetcher(t, ts)
	desc := source.Descriptor{Key: "web", Name: "WEB", Format: "usfx", URL: ts.URL + "/eng-web_usfx.zip"}
	ctx := context.Background()

	dir, err := f.Fetch(ctx, desc)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if dir != filepath.Join(f.Root, "web") {
		t.Errorf("dir = %s", dir)
	}
	if _, err := os.Stat(filepath.Join(dir, "eng-web_usfx.xml")); err != nil {
		t.Errorf("document not extracted: %v", err)
	}

	m := ReadMarker(dir)
	want := cas.Sum(payload)
	if m == nil || m.SHA256 != want.SHA256 || m.BLAKE3 != want.BLAKE3 || m.URL != desc.URL || m.Size != want.Size {
		t.Fatalf("marker = %+v, want %+v", m, want)
	}
	if !m.FetchedAt.Equal(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)) {
		t.Errorf("FetchedAt = %v", m.FetchedAt)
	}

	if _, err := f.Fetch(ctx, desc); err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if n := ts.hits.Load(); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
}

func TestFetchRestoresFromCache(t *testing.T) {
	ts := newTestServer(t, sourceZip(t))
	f := newFetcher(t, ts)
	desc := source.Descriptor{Key: "web", URL: ts.URL + "/eng-web_usfx.zip"}
	ctx := context.Background()

	dir, err := f.Fetch(ctx, desc)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"eng-web_usfx.xml", "BookNames.xml"} {
		if err := os.Remove(filepath.Join(dir, name)); err != nil {
			t.Fatal(err)
		}
	}

	if _, err := f.Fetch(ctx, desc); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if n := ts.hits.Load(); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "eng-web_usfx.xml")); err != nil {
		t.Errorf("document not restored: %v", err)
	}
}

func TestFetchRedownloadsOnURLChange(t *testing.T) {
	ts := newTestServer(t, sourceZip(t))
	f := newFetcher(t, ts)
	ctx := context.Background()

	if _, err := f.Fetch(ctx, source.Descriptor{Key: "src", URL: ts.URL + "/eng-web_usfx.zip"}); err != nil {
		t.Fatal(err)
	}
	dir, err := f.Fetch(ctx, source.Descriptor{Key: "src", URL: ts.URL + "/kjv.osis.xml"})
	if err != nil {
		t.Fatal(err)
	}
	if n := ts.hits.Load(); n != 2 {
		t.Errorf("server hits = %d, want 2", n)
	}
	if _, err := os.Stat(filepath.Join(dir, "kjv.osis.xml")); err != nil {
		t.Errorf("single file not written: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "eng-web_usfx.xml")); !os.IsNotExist(err) {
		t.Error("stale documents were kept")
	}
}

func TestFetchErrors(t *testing.T) {
	ts := newTestServer(t, nil)
	f := newFetcher(t, ts)

	_, err := f.Fetch(context.Background(), source.Descriptor{Key: "gone", URL: ts.URL + "/missing.zip"})
	var ioErr *errors.IOError
	if !errors.As(err, &ioErr) || ioErr.Operation != "download" {
		t.Errorf("404 error = %v, want download IOError", err)
	}
	if ReadMarker(filepath.Join(f.Root, "gone")) != nil {
		t.Error("marker written for failed download")
	}

	if _, err := f.Fetch(context.Background(), source.Descriptor{Key: "nourl"}); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("missing url error = %v", err)
	}
}

func TestFileName(t *testing.T) {
	tests := map[string]string{
		"https://example.org/files/eng-web_usfx.zip?dl=1": "eng-web_usfx.zip",
		"https://example.org/":                            "source.xml",
		"https://example.org":                             "source.xml",
	}
	for in, want := range tests {
		if got := fileName(in); got != want {
			t.Errorf("fileName(%q) = %q, want %q", in, got, want)
		}
	}
}
