package project

import (
	"crypto/sha256"
	"encoding/hex"
)

// Digest is a sha256 content hash. Library cache entries are keyed by it.
type Digest [32]byte

// HashBytes hashes a file's content.
func HashBytes(data []byte) Digest { return sha256.Sum256(data) }

// Combine hashes content followed by deps, in the given order.
func Combine(content Digest, deps ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, d := range deps {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// IsZero reports whether the digest was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

func (d Digest) String() string { return hex.EncodeToString(d[:]) }
