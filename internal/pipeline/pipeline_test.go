package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/klauspost/compress/zip"

	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
	"github.com/FocuswithJustin/JuniperCorpus/internal/logging"
	"github.com/FocuswithJustin/JuniperCorpus/internal/publish"
	"github.com/FocuswithJustin/JuniperCorpus/internal/store"
)

const webUSFX = `<usfx>
<book id="GEN"><c id="1"/>
<p><v id="1" bcv="GEN.1.1"/>In the beginning, God<f caller="+"><fr>1:1 </fr><ft>Elohim</ft></f> created the heavens and the earth.<ve/>
<v id="2" bcv="GEN.1.2"/>The earth was formless and empty.<ve/></p>
</book>
</usfx>`

const kjvOSIS = `<osis><osisText>
<div type="book" osisID="Gen">
<chapter osisID="Gen.1">
<verse osisID="Gen.1.1">In the beginning God created the heaven and the earth.</verse>
</chapter>
</div>
</osisText></osis>`

func zipOf(t *testing.T, name, body string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	if err != nil {
		t.Fatal(err)
	}
	w.Write([]byte(body))
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

type fixture struct {
	cfg  Config
	hits *atomic.Int32
}

func newFixture(t *testing.T, kjvFormat string) fixture {
	t.Helper()
	webZip := zipOf(t, "eng-web_usfx.xml", webUSFX)
	hits := &atomic.Int32{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/web.zip":
			w.Write(webZip)
		case "/kjv.osis":
			w.Write([]byte(kjvOSIS))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	root := t.TempDir()
	sources := fmt.Sprintf(`{
  "web": {"name": "World English Bible", "format": "usfx", "url": "%s/web.zip", "abbreviation": "WEB"},
  "kjv": {"name": "King James Version", "format": %q, "url": "%s/kjv.osis"}
}`, srv.URL, kjvFormat, srv.URL)
	sourcesFile := filepath.Join(root, "bible_sources.json")
	if err := os.WriteFile(sourcesFile, []byte(sources), 0644); err != nil {
		t.Fatal(err)
	}

	return fixture{
		cfg: Config{
			SourcesFile:  sourcesFile,
			DownloadsDir: filepath.Join(root, "downloads"),
			OutputPath:   filepath.Join(root, "dist", "bible.db"),
			AssetsDir:    filepath.Join(root, "assets"),
			Client:       srv.Client(),
			Logger:       logging.Discard(),
		},
		hits: hits,
	}
}

func TestRunAllStages(t *testing.T) {
	fx := newFixture(t, "osis")
	ctx := context.Background()

	res, err := Run(ctx, fx.cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Fetched) != 2 || res.RunID == "" {
		t.Errorf("result = %+v", res)
	}
	if res.Merge.Verses != 3 || res.Merge.Footnotes != 1 || res.Merge.BooksAdded != 2 {
		t.Errorf("merge = %+v", res.Merge)
	}
	if res.Build == nil || res.Build.Verses != 3 || res.Build.Books != 2 {
		t.Fatalf("build = %+v", res.Build)
	}
	if res.Publish == nil || res.Publish.Checksum != res.Build.Checksum {
		t.Errorf("publish = %+v", res.Publish)
	}
	if _, err := os.Stat(filepath.Join(fx.cfg.AssetsDir, publish.DatabaseFile)); err != nil {
		t.Errorf("published database missing: %v", err)
	}

	db, err := store.Open(fx.cfg.OutputPath)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	stats, err := store.Stats(ctx, db)
	if err != nil {
		t.Fatal(err)
	}
	if len(stats.Versions) != 2 || stats.Versions[0] != "WEB" {
		t.Errorf("versions = %v, want WEB first as default", stats.Versions)
	}
	var desc string
	if err := db.Get(&desc, `SELECT description FROM bible_versions WHERE id = 'KJV'`); err != nil {
		t.Fatal(err)
	}
	if desc != "King James Version - OSIS format" {
		t.Errorf("description = %q", desc)
	}

	// A second build-only run reuses the downloads.
	cfg := fx.cfg
	cfg.Stages = []Stage{StageFetch, StageBuild}
	if _, err := Run(ctx, cfg); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if n := fx.hits.Load(); n != 2 {
		t.Errorf("server hits = %d, want 2", n)
	}
}

func TestRunRejectsUnsupportedFormatFirst(t *testing.T) {
	fx := newFixture(t, "usfm")

	_, err := Run(context.Background(), fx.cfg)
	if !errors.Is(err, errors.ErrUnsupported) {
		t.Fatalf("error = %v, want unsupported", err)
	}
	if n := fx.hits.Load(); n != 0 {
		t.Errorf("server hits = %d, want 0", n)
	}
	if _, err := os.Stat(fx.cfg.DownloadsDir); !os.IsNotExist(err) {
		t.Error("downloads dir created before the format check")
	}
}

func TestRunStopsBeforePublishOnBuildFailure(t *testing.T) {
	fx := newFixture(t, "osis")
	cfg := fx.cfg
	cfg.Stages = []Stage{StageBuild, StagePublish}

	_, err := Run(context.Background(), cfg)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Fatalf("error = %v, want missing source directory", err)
	}
	if _, err := os.Stat(cfg.AssetsDir); !os.IsNotExist(err) {
		t.Error("publish ran after a failed build")
	}
}

func TestParseStages(t *testing.T) {
	got, err := ParseStages(nil)
	if err != nil || len(got) != 3 {
		t.Errorf("ParseStages(nil) = %v, %v", got, err)
	}
	got, err = ParseStages([]string{"Build", " publish"})
	if err != nil || len(got) != 2 || got[0] != StageBuild || got[1] != StagePublish {
		t.Errorf("ParseStages = %v, %v", got, err)
	}
	if _, err := ParseStages([]string{"deploy"}); !errors.Is(err, errors.ErrInvalidInput) {
		t.Errorf("unknown stage error = %v", err)
	}
}
