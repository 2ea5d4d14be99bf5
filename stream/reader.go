package stream

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

var (
	ErrTruncated      = errors.New("truncated stream")
	ErrNegativeLength = errors.New("negative length")
)

// Order is the byte order shared by the content tool and the asset files.
var Order = binary.LittleEndian

// Reader walks a fully buffered byte slice. Every read checks the remaining
// size first, so a short buffer yields ErrTruncated instead of a panic.
type Reader struct {
	buf []byte
	pos int
}

func NewReader(b []byte) *Reader {
	return &Reader{buf: b}
}

func (r *Reader) Pos() int  { return r.pos }
func (r *Reader) Size() int { return len(r.buf) }
func (r *Reader) Len() int  { return len(r.buf) - r.pos }

func (r *Reader) truncated(want int) error {
	return errors.Wrapf(ErrTruncated, "need %d bytes at 0x%x, have %d", want, r.pos, r.Len())
}

// Read returns the next amount bytes without copying them.
func (r *Reader) Read(amount int) ([]byte, error) {
	if amount < 0 {
		return nil, errors.Wrapf(ErrNegativeLength, "read of %d bytes at 0x%x", amount, r.pos)
	}
	if amount > r.Len() {
		return nil, r.truncated(amount)
	}
	old := r.pos
	r.pos += amount
	return r.buf[old:r.pos], nil
}

func (r *Reader) Skip(amount int) error {
	_, err := r.Read(amount)
	return err
}

// ReadBytes returns a copy of the next n bytes.
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	b, err := r.Read(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (r *Reader) ReadByte() (byte, error) {
	b, err := r.Read(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadBool() (bool, error) {
	b, err := r.ReadByte()
	return b != 0, err
}

func (r *Reader) ReadUint16() (uint16, error) {
	b, err := r.Read(2)
	if err != nil {
		return 0, err
	}
	return Order.Uint16(b), nil
}

func (r *Reader) ReadUint32() (uint32, error) {
	b, err := r.Read(4)
	if err != nil {
		return 0, err
	}
	return Order.Uint32(b), nil
}

func (r *Reader) ReadInt32() (int32, error) {
	v, err := r.ReadUint32()
	return int32(v), err
}

func (r *Reader) ReadInt64() (int64, error) {
	b, err := r.Read(8)
	if err != nil {
		return 0, err
	}
	return int64(Order.Uint64(b)), nil
}

func (r *Reader) ReadFloat32() (float32, error) {
	v, err := r.ReadUint32()
	return math.Float32frombits(v), err
}

// ReadLength reads an int32 length prefix and checks that many bytes remain.
func (r *Reader) ReadLength() (int, error) {
	at := r.pos
	l, err := r.ReadInt32()
	if err != nil {
		return 0, err
	}
	if l < 0 {
		return 0, errors.Wrapf(ErrNegativeLength, "length prefix %d at 0x%x", l, at)
	}
	if int(l) > r.Len() {
		return 0, r.truncated(int(l))
	}
	return int(l), nil
}

// ReadBuffer reads an int32 length prefixed opaque buffer.
func (r *Reader) ReadBuffer() ([]byte, error) {
	l, err := r.ReadLength()
	if err != nil {
		return nil, err
	}
	return r.ReadBytes(l)
}

// ReadString reads an int32 length prefixed UTF-8 string.
func (r *Reader) ReadString() (string, error) {
	l, err := r.ReadLength()
	if err != nil {
		return "", err
	}
	b, err := r.Read(l)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
