// Package cas hashes downloaded source archives and keeps them in a
// content-addressed cache keyed by SHA-256, so an extracted source can be
// rebuilt without another download.
package cas

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrBlobNotFound is returned when a blob with the given hash does not exist.
var ErrBlobNotFound = errors.New("blob not found")

// ErrInvalidHash is returned when a hash string is not a valid SHA-256 hex string.
var ErrInvalidHash = errors.New("invalid hash format")

// ErrCorrupt is returned when a cached blob no longer matches its name.
var ErrCorrupt = errors.New("blob content does not match hash")

// Store is a directory of blobs named by their SHA-256 digest.
type Store struct {
	root string
}

// NewStore creates a store rooted at root, creating the directory layout.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(root, "blobs", "sha256"), 0755); err != nil {
		return nil, fmt.Errorf("failed to create blob directory: %w", err)
	}
	return &Store{root: root}, nil
}

// Put stores data and returns its digests. Storing the same bytes twice is
// a no-op.
func (s *Store) Put(data []byte) (HashResult, error) {
	sum := Sum(data)
	blobPath := s.pathForHash(sum.SHA256)
	if _, err := os.Stat(blobPath); err == nil {
		return sum, nil
	}

	dir := filepath.Dir(blobPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return HashResult{}, fmt.Errorf("failed to create prefix directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".blob-*")
	if err != nil {
		return HashResult{}, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return HashResult{}, fmt.Errorf("failed to write blob: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return HashResult{}, fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, blobPath); err != nil {
		os.Remove(tmpPath)
		return HashResult{}, fmt.Errorf("failed to rename blob: %w", err)
	}
	return sum, nil
}

// Get returns the blob with the given SHA-256 hash after re-verifying it.
func (s *Store) Get(hash string) ([]byte, error) {
	if !IsValidHash(hash) {
		return nil, ErrInvalidHash
	}
	data, err := os.ReadFile(s.pathForHash(hash))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	if Sum(data).SHA256 != hash {
		return nil, ErrCorrupt
	}
	return data, nil
}

// Exists checks if a blob with the given hash is present.
func (s *Store) Exists(hash string) bool {
	if !IsValidHash(hash) {
		return false
	}
	_, err := os.Stat(s.pathForHash(hash))
	return err == nil
}

// pathForHash returns <root>/blobs/sha256/<first2>/<hash>.
func (s *Store) pathForHash(hash string) string {
	return filepath.Join(s.root, "blobs", "sha256", hash[:2], hash)
}
