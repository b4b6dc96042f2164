package base

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var usxConfig = DetectConfig{
	Extensions:     []string{".usx"},
	XMLExtensions:  []string{".xml"},
	ContentMarkers: []string{"<usx"},
	Exclude:        []string{"BookNames.xml"},
	FormatName:     "USX",
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDetectFile_ExtensionOnly(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "GEN.usx", "anything")

	result, err := DetectFile(path, usxConfig)
	if err != nil {
		t.Fatal(err)
	}
	if !result.Detected {
		t.Errorf("Expected detection to succeed, got: %s", result.Reason)
	}
	if result.Format != "USX" {
		t.Errorf("Expected format USX, got %s", result.Format)
	}
}

func TestDetectFile_XMLNeedsMarker(t *testing.T) {
	dir := t.TempDir()
	with := writeFile(t, dir, "040MAT.xml", `<?xml version="1.0"?><usx version="3.0"><book code="MAT"/></usx>`)
	without := writeFile(t, dir, "notes.xml", `<notes/>`)

	if r, _ := DetectFile(with, usxConfig); !r.Detected {
		t.Errorf("xml with marker not detected: %s", r.Reason)
	}
	if r, _ := DetectFile(without, usxConfig); r.Detected {
		t.Error("xml without marker detected")
	}
}

func TestDetectFile_NameHint(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "eng-kjv_USFX.xml", `<x/>`)

	result, err := DetectFile(path, DetectConfig{
		XMLExtensions: []string{".xml"},
		NameHints:     []string{"usfx"},
		FormatName:    "USFX",
	})
	if err != nil {
		t.Fatal(err)
	}
	if !result.Detected {
		t.Errorf("Expected name hint detection, got: %s", result.Reason)
	}
}

func TestDetectFile_Directory(t *testing.T) {
	result, err := DetectFile(t.TempDir(), usxConfig)
	if err != nil {
		t.Fatal(err)
	}
	if result.Detected {
		t.Error("Expected detection to fail for directory")
	}
	if !strings.Contains(result.Reason, "directory") {
		t.Errorf("Expected reason to mention directory, got: %s", result.Reason)
	}
}

func TestDetectFile_Excluded(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "BookNames.xml", `<usx/>`)
	if r, _ := DetectFile(path, usxConfig); r.Detected {
		t.Error("excluded file detected")
	}
}

func TestDetectFile_Missing(t *testing.T) {
	r, err := DetectFile(filepath.Join(t.TempDir(), "nope.usx"), usxConfig)
	if err != nil {
		t.Fatal(err)
	}
	if r.Detected || !strings.Contains(r.Reason, "cannot stat") {
		t.Errorf("result = %+v", r)
	}
}

func TestFindDocumentsSorted(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "041MRK.usx", "x")
	writeFile(t, dir, "040MAT.usx", "x")
	writeFile(t, dir, "BookNames.xml", "<usx/>")
	writeFile(t, dir, "readme.txt", "x")
	if err := os.Mkdir(filepath.Join(dir, "sub.usx"), 0755); err != nil {
		t.Fatal(err)
	}

	docs, err := FindDocuments(dir, usxConfig)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 {
		t.Fatalf("FindDocuments = %v, want 2 files", docs)
	}
	if filepath.Base(docs[0]) != "040MAT.usx" || filepath.Base(docs[1]) != "041MRK.usx" {
		t.Errorf("FindDocuments order = %v", docs)
	}

	if _, err := FindDocuments(filepath.Join(dir, "missing"), usxConfig); err == nil {
		t.Error("FindDocuments on a missing directory should fail")
	}
}
