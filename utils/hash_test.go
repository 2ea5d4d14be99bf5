package utils

import (
	"bytes"
	"testing"
)

var hashRangeTests = []struct {
	offset, length int
}{
	{0, 0},
	{0, 16},
	{3, 9},
	{15, 1},
}

func TestContentHashDeterministic(t *testing.T) {
	buf := []byte("0123456789abcdef")
	for _, test := range hashRangeTests {
		a := ContentHash(buf, test.offset, test.length)
		b := ContentHash(buf, test.offset, test.length)
		if !bytes.Equal(a, b) {
			t.Errorf("ContentHash(%d,%d) not stable: %x != %x", test.offset, test.length, a, b)
		}
		if len(a) != ContentHashSize {
			t.Errorf("ContentHash(%d,%d) len=%d; expected %d", test.offset, test.length, len(a), ContentHashSize)
		}
	}
}

func TestContentHashRange(t *testing.T) {
	buf := []byte("namePAYLOADname")
	base := ContentHash(buf, 4, 7)

	outside := append([]byte(nil), buf...)
	outside[0] = 'N'
	outside[14] = 'E'
	if !bytes.Equal(base, ContentHash(outside, 4, 7)) {
		t.Error("bytes outside of the range changed the digest")
	}

	for i := 4; i < 11; i++ {
		inside := append([]byte(nil), buf...)
		inside[i] ^= 0x01
		if bytes.Equal(base, ContentHash(inside, 4, 7)) {
			t.Errorf("flipping byte %d did not change the digest", i)
		}
	}
}

func TestContentHashOfHashes(t *testing.T) {
	a := ContentHash([]byte("a"), 0, 1)
	b := ContentHash([]byte("b"), 0, 1)
	if bytes.Equal(ContentHashOfHashes([][]byte{a, b}), ContentHashOfHashes([][]byte{b, a})) {
		t.Error("digest order must matter")
	}
	joined := append(append([]byte(nil), a...), b...)
	if !bytes.Equal(ContentHashOfHashes([][]byte{a, b}), ContentHash(joined, 0, len(joined))) {
		t.Error("ContentHashOfHashes must hash the concatenation")
	}
}
