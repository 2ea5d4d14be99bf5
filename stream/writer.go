package stream

import (
	"bytes"
	"io"
	"math"

	"github.com/pkg/errors"
)

// Writer mirrors Reader. The first failed write is kept and every
// following call becomes a no-op, check Err once at the end.
type Writer struct {
	w   io.Writer
	buf *bytes.Buffer
	pos int64
	err error
	tmp [8]byte
}

// NewBufferWriter writes into memory, Bytes returns the result.
func NewBufferWriter() *Writer {
	buf := &bytes.Buffer{}
	return &Writer{w: buf, buf: buf}
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (w *Writer) Err() error { return w.err }
func (w *Writer) Pos() int64 { return w.pos }

// Bytes is only valid for writers created with NewBufferWriter.
func (w *Writer) Bytes() []byte {
	if w.buf == nil {
		panic("stream: Bytes called on a non buffered writer")
	}
	return w.buf.Bytes()
}

func (w *Writer) WriteBytes(b []byte) {
	if w.err != nil {
		return
	}
	n, err := w.w.Write(b)
	w.pos += int64(n)
	if err != nil {
		w.err = errors.Wrapf(err, "write of %d bytes at 0x%x", len(b), w.pos)
	}
}

func (w *Writer) WriteByte(b byte) error {
	w.tmp[0] = b
	w.WriteBytes(w.tmp[:1])
	return w.err
}

func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteByte(1)
	} else {
		w.WriteByte(0)
	}
}

func (w *Writer) WriteUint16(v uint16) {
	Order.PutUint16(w.tmp[:2], v)
	w.WriteBytes(w.tmp[:2])
}

func (w *Writer) WriteUint32(v uint32) {
	Order.PutUint32(w.tmp[:4], v)
	w.WriteBytes(w.tmp[:4])
}

func (w *Writer) WriteInt32(v int32) { w.WriteUint32(uint32(v)) }

func (w *Writer) WriteInt64(v int64) {
	Order.PutUint64(w.tmp[:8], uint64(v))
	w.WriteBytes(w.tmp[:8])
}

func (w *Writer) WriteFloat32(v float32) { w.WriteUint32(math.Float32bits(v)) }

// WriteBuffer writes an int32 length prefix followed by b. A nil slice is
// written as zero length.
func (w *Writer) WriteBuffer(b []byte) {
	w.WriteInt32(int32(len(b)))
	w.WriteBytes(b)
}

func (w *Writer) WriteString(s string) {
	w.WriteInt32(int32(len(s)))
	w.WriteBytes([]byte(s))
}
