// Package publish copies a built store into an application's asset
// directory together with a database_info.json summary.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"

	"github.com/FocuswithJustin/JuniperCorpus/core/errors"
	"github.com/FocuswithJustin/JuniperCorpus/internal/logging"
	"github.com/FocuswithJustin/JuniperCorpus/internal/store"
)

// File names written into the assets directory.
const (
	DatabaseFile = "bible.db"
	InfoFile     = "database_info.json"
)

// Info is the content of database_info.json.
type Info struct {
	Version      string   `json:"version"`
	BuiltAt      string   `json:"built_at"`
	BookCount    int64    `json:"book_count"`
	ChapterCount int64    `json:"chapter_count"`
	VerseCount   int64    `json:"verse_count"`
	Versions     []string `json:"versions"`
	SizeBytes    int64    `json:"size_bytes"`
	Checksum     string   `json:"checksum"`
}

// Publisher writes into AssetsDir.
type Publisher struct {
	AssetsDir string
	Logger    *slog.Logger
}

// Publish copies the store at storePath to <AssetsDir>/bible.db and writes
// <AssetsDir>/database_info.json. A store without a checksum metadata row
// is refused. Both files are replaced atomically.
func (p *Publisher) Publish(ctx context.Context, storePath string) (*Info, error) {
	logger := logging.Or(p.Logger)

	db, err := store.Open(storePath)
	if err != nil {
		return nil, err
	}
	stats, err := store.Stats(ctx, db)
	db.Close()
	if err != nil {
		return nil, err
	}
	if stats.Checksum() == "" {
		return nil, errors.NewValidation("store", storePath+" has no checksum metadata row")
	}

	fi, err := os.Stat(storePath)
	if err != nil {
		return nil, errors.NewIO("stat", storePath, err)
	}

	info := &Info{
		Version:      stats.Metadata[store.MetaSchemaVersion],
		BuiltAt:      stats.Metadata[store.MetaBuiltAt],
		BookCount:    stats.Books,
		ChapterCount: stats.Chapters,
		VerseCount:   stats.Verses,
		Versions:     stats.MetaVersions(),
		SizeBytes:    fi.Size(),
		Checksum:     stats.Checksum(),
	}
	if info.Versions == nil {
		info.Versions = []string{}
	}

	if err := os.MkdirAll(p.AssetsDir, 0755); err != nil {
		return nil, errors.NewIO("create", p.AssetsDir, err)
	}

	src, err := os.Open(storePath)
	if err != nil {
		return nil, errors.NewIO("open", storePath, err)
	}
	defer src.Close()
	dbPath := filepath.Join(p.AssetsDir, DatabaseFile)
	if err := writeAtomic(dbPath, src); err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, err
	}
	infoPath := filepath.Join(p.AssetsDir, InfoFile)
	if err := writeAtomic(infoPath, bytes.NewReader(data)); err != nil {
		return nil, err
	}

	logger.Info("store_published",
		"path", dbPath,
		"size", humanize.Bytes(uint64(info.SizeBytes)),
		"books", info.BookCount,
		"chapters", info.ChapterCount,
		"verses", info.VerseCount,
		"versions", info.Versions,
	)
	return info, nil
}

// writeAtomic copies r into a temp file next to path and renames it.
func writeAtomic(path string, r io.Reader) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+"-*")
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.NewIO("write", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("write", path, err)
	}
	if err := os.Chmod(tmpPath, 0644); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("chmod", path, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return errors.NewIO("rename", path, err)
	}
	return nil
}
