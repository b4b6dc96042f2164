// Package base provides document discovery shared by the markup dialects:
// deciding whether a file in a source directory is a document of a given
// dialect, and listing those documents in a stable order.
package base

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// sniffSize is how much of a file is read when looking for content markers.
const sniffSize = 16 << 10

// DetectConfig contains configuration for format detection.
type DetectConfig struct {
	// Extensions are accepted without further checks (e.g., ".usx").
	Extensions []string
	// XMLExtensions are accepted only when the file name contains one of
	// NameHints or its head contains one of ContentMarkers (e.g., ".xml").
	XMLExtensions []string
	// NameHints are case-insensitive substrings of the file name.
	NameHints []string
	// ContentMarkers are strings looked for in the first bytes of the file.
	ContentMarkers []string
	// Exclude lists file names that are never documents (e.g., "BookNames.xml").
	Exclude []string
	// FormatName is the name to return in DetectResult.
	FormatName string
}

// DetectResult is the outcome of DetectFile.
type DetectResult struct {
	Detected bool
	Format   string
	Reason   string
}

// DetectFile checks a single path against config.
func DetectFile(path string, config DetectConfig) (*DetectResult, error) {
	info, err := os.Stat(path)
	if err != nil {
		return &DetectResult{Detected: false, Reason: fmt.Sprintf("cannot stat: %v", err)}, nil
	}
	if info.IsDir() {
		return &DetectResult{Detected: false, Reason: "path is a directory, not a file"}, nil
	}

	name := filepath.Base(path)
	for _, ex := range config.Exclude {
		if strings.EqualFold(name, ex) {
			return &DetectResult{Detected: false, Reason: "excluded file name"}, nil
		}
	}

	ext := strings.ToLower(filepath.Ext(name))
	if hasExt(config.Extensions, ext) {
		return &DetectResult{
			Detected: true,
			Format:   config.FormatName,
			Reason:   fmt.Sprintf("%s file extension detected", config.FormatName),
		}, nil
	}
	if !hasExt(config.XMLExtensions, ext) {
		return &DetectResult{Detected: false, Reason: fmt.Sprintf("not a %s file", config.FormatName)}, nil
	}

	lower := strings.ToLower(name)
	for _, hint := range config.NameHints {
		if strings.Contains(lower, strings.ToLower(hint)) {
			return &DetectResult{
				Detected: true,
				Format:   config.FormatName,
				Reason:   fmt.Sprintf("%s file name detected", config.FormatName),
			}, nil
		}
	}

	if len(config.ContentMarkers) > 0 {
		head, err := readHead(path)
		if err != nil {
			return &DetectResult{Detected: false, Reason: fmt.Sprintf("cannot read: %v", err)}, nil
		}
		for _, marker := range config.ContentMarkers {
			if strings.Contains(head, marker) {
				return &DetectResult{
					Detected: true,
					Format:   config.FormatName,
					Reason:   fmt.Sprintf("%s markers detected", config.FormatName),
				}, nil
			}
		}
	}

	return &DetectResult{Detected: false, Reason: fmt.Sprintf("not a %s file", config.FormatName)}, nil
}

// FindDocuments lists the files directly inside dir that match config,
// sorted by name.
func FindDocuments(dir string, config DetectConfig) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var docs []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		res, err := DetectFile(path, config)
		if err != nil {
			return nil, err
		}
		if res.Detected {
			docs = append(docs, path)
		}
	}
	sort.Strings(docs)
	return docs, nil
}

func hasExt(exts []string, ext string) bool {
	for _, e := range exts {
		if strings.EqualFold(e, ext) {
			return true
		}
	}
	return false
}

func readHead(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, sniffSize))
	if err != nil {
		return "", err
	}
	return string(data), nil
}
