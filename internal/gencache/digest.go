package gencache

import (
	"crypto/sha256"
	"encoding/hex"
	"strconv"
)

// Digest is a SHA-256 hash.
type Digest [32]byte

func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// IsZero reports whether d was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }

// Sum hashes b.
func Sum(b []byte) Digest { return sha256.Sum256(b) }

// Combine hashes content followed by parts, in order.
func Combine(content Digest, parts ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(content[:])
	for _, p := range parts {
		_, _ = h.Write(p[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// Key identifies one generation: the manifest bytes, the target and its
// options, and the generator version.
type Key struct {
	Manifest []byte
	Lang     string
	Package  string
	Library  string
	Format   bool
	Version  string
}

// Digest folds k into a cache key.
func (k Key) Digest() Digest {
	return Combine(Sum(k.Manifest),
		Sum([]byte(k.Lang)),
		Sum([]byte(k.Package)),
		Sum([]byte(k.Library)),
		Sum([]byte(strconv.FormatBool(k.Format))),
		Sum([]byte(k.Version)))
}
