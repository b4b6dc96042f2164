package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

// BookChecksum returns the SHA-256 hex digest of the sorted distinct book
// codes in the corpus, joined by newlines. Two corpora covering the same
// books share a checksum regardless of version count or merge order.
func (c *Corpus) BookChecksum() string {
	seen := make(map[string]bool, len(c.Books))
	codes := make([]string, 0, len(c.Books))
	for _, b := range c.Books {
		code := string(b.Code)
		if !seen[code] {
			seen[code] = true
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)

	sum := sha256.Sum256([]byte(strings.Join(codes, "\n")))
	return hex.EncodeToString(sum[:])
}
