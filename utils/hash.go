package utils

import (
	"encoding/binary"

	"github.com/zeebo/xxh3"
)

const ContentHashSize = 16

// ContentHash fingerprints buf[offset:offset+length] with 128-bit xxh3.
// It is a change marker only, not a security primitive.
func ContentHash(buf []byte, offset, length int) []byte {
	h := xxh3.Hash128(buf[offset : offset+length])
	out := make([]byte, ContentHashSize)
	binary.BigEndian.PutUint64(out[0:], h.Hi)
	binary.BigEndian.PutUint64(out[8:], h.Lo)
	return out
}

// ContentHashOfHashes folds several digests into one.
func ContentHashOfHashes(hashes [][]byte) []byte {
	joined := make([]byte, 0, len(hashes)*ContentHashSize)
	for _, h := range hashes {
		joined = append(joined, h...)
	}
	return ContentHash(joined, 0, len(joined))
}
