package cas

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"regexp"

	"github.com/zeebo/blake3"
)

// HashResult contains both SHA-256 and BLAKE3 digests of one blob.
type HashResult struct {
	SHA256 string `json:"sha256"`
	BLAKE3 string `json:"blake3"`
	Size   int64  `json:"size"`
}

// sha256Pattern matches a valid lowercase SHA-256 hex string (64 characters).
var sha256Pattern = regexp.MustCompile(`^[a-f0-9]{64}$`)

// IsValidHash checks if a string is a lowercase 64-character hex digest.
func IsValidHash(hash string) bool {
	return sha256Pattern.MatchString(hash)
}

// Sum hashes data with SHA-256 and BLAKE3.
func Sum(data []byte) HashResult {
	s := sha256.Sum256(data)
	b := blake3.Sum256(data)
	return HashResult{
		SHA256: hex.EncodeToString(s[:]),
		BLAKE3: hex.EncodeToString(b[:]),
		Size:   int64(len(data)),
	}
}

// SumReader hashes everything read from r with SHA-256 and BLAKE3.
func SumReader(r io.Reader) (HashResult, error) {
	s := sha256.New()
	b := blake3.New()
	n, err := io.Copy(io.MultiWriter(s, b), r)
	if err != nil {
		return HashResult{}, err
	}
	return HashResult{
		SHA256: hex.EncodeToString(s.Sum(nil)),
		BLAKE3: hex.EncodeToString(b.Sum(nil)),
		Size:   n,
	}, nil
}
