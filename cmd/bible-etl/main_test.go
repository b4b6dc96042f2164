package main

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"

	"github.com/FocuswithJustin/JuniperCorpus/internal/store"
)

const testUSFX = `<usfx>
<book id="JHN"><c id="3"/>
<p><v id="16" bcv="JHN.3.16"/>For God so loved the world, that he gave his one and only Son.<ve/>
<v id="17" bcv="JHN.3.17"/>For God didn't send his Son into the world to judge the world.<ve/></p>
</book>
</usfx>`

// runCLI parses args and runs the selected command, returning its stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	var cli CLI
	parser, err := newParser(&cli,
		kong.Writers(&out, io.Discard),
		kong.Exit(func(int) { t.Fatalf("unexpected exit for %v", args) }),
	)
	if err != nil {
		t.Fatalf("newParser: %v", err)
	}
	ctx, err := parser.Parse(args)
	if err != nil {
		return "", err
	}
	if err := cli.initLogging(io.Discard); err != nil {
		return "", err
	}
	err = ctx.Run(ctx)
	return out.String(), err
}

// writeSources lays out a fetched source so the build stage can run offline.
func writeSources(t *testing.T) (root string, paths []string) {
	t.Helper()
	root = t.TempDir()
	srcDir := filepath.Join(root, "downloads", "web")
	if err := os.MkdirAll(srcDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(srcDir, "eng-web_usfx.xml"), []byte(testUSFX), 0644); err != nil {
		t.Fatal(err)
	}
	sources := `{"web": {"name": "World English Bible", "format": "usfx", "url": "https://example.org/web.zip", "abbreviation": "WEB"}}`
	if err := os.WriteFile(filepath.Join(root, "bible_sources.json"), []byte(sources), 0644); err != nil {
		t.Fatal(err)
	}
	return root, []string{
		"--sources", filepath.Join(root, "bible_sources.json"),
		"--downloads", filepath.Join(root, "downloads"),
		"--output", filepath.Join(root, "dist", "bible.db"),
		"--assets", filepath.Join(root, "assets"),
	}
}

func TestBuildVerifySearch(t *testing.T) {
	root, paths := writeSources(t)
	db := filepath.Join(root, "dist", "bible.db")

	out, err := runCLI(t, append([]string{"build"}, paths...)...)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if !strings.Contains(out, "Versions:  WEB") || !strings.Contains(out, "2 verses") {
		t.Errorf("build output:\n%s", out)
	}

	out, err = runCLI(t, "verify", db)
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}
	if !strings.Contains(out, "integrity_check") || strings.Contains(out, "FAIL") {
		t.Errorf("verify output:\n%s", out)
	}
	if strings.Contains(out, "warning:") {
		t.Errorf("verify reported warnings:\n%s", out)
	}

	out, err = runCLI(t, "search", db, "world", "--book", "John")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if !strings.Contains(out, "WEB JHN 3:16") || !strings.Contains(out, "WEB JHN 3:17") {
		t.Errorf("search output:\n%s", out)
	}

	out, err = runCLI(t, "search", db, "loved", "--json")
	if err != nil {
		t.Fatalf("search --json: %v", err)
	}
	var hits []store.SearchHit
	if err := json.Unmarshal([]byte(out), &hits); err != nil {
		t.Fatalf("decode hits: %v\n%s", err, out)
	}
	if len(hits) != 1 || hits[0].Verse != 16 {
		t.Errorf("hits = %+v", hits)
	}

	out, err = runCLI(t, "search", db, "pharaoh")
	if err != nil || !strings.Contains(out, "No matches.") {
		t.Errorf("search no hits = %q, %v", out, err)
	}

	out, err = runCLI(t, "stats", db)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	for _, want := range []string{"Versions:  WEB", "Books:     1", "Verses:    2", "Checksum:  "} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q:\n%s", want, out)
		}
	}
}

func TestRunBuildAndPublishStages(t *testing.T) {
	root, paths := writeSources(t)

	args := append([]string{"run", "--stage", "build", "--stage", "publish"}, paths...)
	out, err := runCLI(t, args...)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out, "Published:") {
		t.Errorf("run output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(root, "assets", "database_info.json")); err != nil {
		t.Errorf("info file: %v", err)
	}
	if _, err := os.Stat(filepath.Join(root, "downloads", ".cache")); !os.IsNotExist(err) {
		t.Errorf("fetch stage ran: %v", err)
	}
}

func TestCommandErrors(t *testing.T) {
	_, paths := writeSources(t)

	if _, err := runCLI(t, append([]string{"run", "--stage", "deploy"}, paths...)...); err == nil {
		t.Error("unknown stage should fail")
	}
	if _, err := runCLI(t, "verify", filepath.Join(t.TempDir(), "missing.db")); err == nil {
		t.Error("verify of a missing store should fail")
	}
	if _, err := runCLI(t, "search", filepath.Join(t.TempDir(), "missing.db"), "x", "--book", "Hezekiah"); err == nil {
		t.Error("unknown book should fail")
	}
	if _, err := runCLI(t, "--log-level", "loud", "version"); err == nil {
		t.Error("bad log level should fail")
	}
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if out != "bible-etl version "+version+"\n" {
		t.Errorf("version = %q", out)
	}

	out, err = runCLI(t, "version", "--verbose")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "sqlite driver: ") {
		t.Errorf("version --verbose = %q", out)
	}
}

func TestLoadEnv(t *testing.T) {
	if err := loadEnv(filepath.Join(t.TempDir(), ".env")); err != nil {
		t.Errorf("missing .env: %v", err)
	}

	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("BIBLE_ETL_TEST_VALUE=psalms\n"), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BIBLE_ETL_TEST_VALUE", "")
	os.Unsetenv("BIBLE_ETL_TEST_VALUE")
	if err := loadEnv(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("BIBLE_ETL_TEST_VALUE"); got != "psalms" {
		t.Errorf("env = %q", got)
	}
}
