// Package fetch downloads source archives into per-source directories.
//
// Each directory carries a .checksum marker recording what was extracted
// into it. A directory whose marker matches the configured URL is left
// alone, so repeated runs do not hit the network. Downloaded payloads are
// also kept in a content-addressed cache under <root>/.cache, from which a
// damaged directory is re-extracted without downloading again.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/JuniperCorpus/core/cas"
	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
	"github.com/FocuswithJustin/JuniperCorpus/internal/archive"
	"github.com/FocuswithJustin/JuniperCorpus/internal/logging"
	"github.com/FocuswithJustin/JuniperCorpus/internal/source"
)

// MarkerFile is the name of the checksum marker inside a source directory.
const MarkerFile = ".checksum"

// CacheDir is the cache directory name under the fetch root.
const CacheDir = ".cache"

// Marker records the payload a source directory was extracted from.
type Marker struct {
	SHA256    string    `json:"sha256"`
	BLAKE3    string    `json:"blake3"`
	URL       string    `json:"url"`
	Size      int64     `json:"size"`
	FetchedAt time.Time `json:"fetched_at"`
}

// Valid reports whether m was written for rawURL.
func (m *Marker) Valid(rawURL string) bool {
	return m != nil && m.URL == rawURL && cas.IsValidHash(m.SHA256)
}

// ReadMarker loads the marker of dir. A missing or unreadable marker
// returns nil.
func ReadMarker(dir string) *Marker {
	data, err := os.ReadFile(filepath.Join(dir, MarkerFile))
	if err != nil {
		return nil
	}
	var m Marker
	if err := json.Unmarshal(data, &m); err != nil {
		return nil
	}
	return &m
}

// Fetcher downloads sources under Root.
type Fetcher struct {
	Client *http.Client
	Root   string
	Logger *slog.Logger
	// Now stamps markers. Defaults to time.Now.
	Now func() time.Time
}

// Fetch makes sure the source directory of desc is populated and returns
// its path.
func (f *Fetcher) Fetch(ctx context.Context, desc source.Descriptor) (string, error) {
	logger := logging.Or(f.Logger).With("source", desc.Key)
	dir := filepath.Join(f.Root, desc.Key)

	if desc.URL == "" {
		return "", errors.NewValidation(desc.Key, "url is required")
	}

	cache, err := cas.NewStore(filepath.Join(f.Root, CacheDir))
	if err != nil {
		return "", errors.NewIO("create", filepath.Join(f.Root, CacheDir), err)
	}

	if m := ReadMarker(dir); m.Valid(desc.URL) {
		if hasContent(dir) {
			logger.Info("source_cached", "dir", dir, "sha256", m.SHA256)
			return dir, nil
		}
		if data, err := cache.Get(m.SHA256); err == nil {
			logger.Info("source_restored", "dir", dir, "sha256", m.SHA256)
			if err := f.install(dir, desc.URL, data, cas.Sum(data)); err != nil {
				return "", err
			}
			return dir, nil
		}
	}

	start := time.Now()
	data, err := f.download(ctx, desc.URL)
	if err != nil {
		return "", err
	}
	hash, err := cache.Put(data)
	if err != nil {
		return "", errors.NewIO("cache", desc.URL, err)
	}
	if err := f.install(dir, desc.URL, data, hash); err != nil {
		return "", err
	}

	logger.Info("source_fetched",
		"url", desc.URL,
		"dir", dir,
		"size", humanize.Bytes(uint64(hash.Size)),
		"sha256", hash.SHA256,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return dir, nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.NewValidation("url", err.Error())
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.NewIO("download", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, errors.NewIO("download", rawURL, fmt.Errorf("HTTP %s", resp.Status))
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.NewIO("download", rawURL, err)
	}
	return data, nil
}

// install replaces dir with the content of data and writes the marker last.
func (f *Fetcher) install(dir, rawURL string, data []byte, hash cas.HashResult) error {
	if err := os.RemoveAll(dir); err != nil {
		return errors.NewIO("clear", dir, err)
	}

	name := fileName(rawURL)
	if kind := archive.DetectKind(name, data); kind != archive.None {
		if _, err := archive.Extract(data, kind, dir); err != nil {
			return err
		}
	} else {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return errors.NewIO("create", dir, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return errors.NewIO("write", filepath.Join(dir, name), err)
		}
	}

	now := time.Now
	if f.Now != nil {
		now = f.Now
	}
	m := Marker{
		SHA256:    hash.SHA256,
		BLAKE3:    hash.BLAKE3,
		URL:       rawURL,
		Size:      hash.Size,
		FetchedAt: now().UTC(),
	}
	out, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, MarkerFile), out, 0644); err != nil {
		return errors.NewIO("write", filepath.Join(dir, MarkerFile), err)
	}
	return nil
}

// fileName is the last path element of rawURL, or "source.xml".
func fileName(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "source.xml"
	}
	name := path.Base(u.Path)
	if name == "" || name == "." || name == "/" {
		return "source.xml"
	}
	return name
}

// hasContent reports whether dir holds anything besides the marker.
func hasContent(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Name() != MarkerFile {
			return true
		}
	}
	return false
}
