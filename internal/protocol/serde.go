package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrTrailingBytes is returned when deserialization leaves unconsumed input.
var ErrTrailingBytes = errors.New("miden: trailing bytes after deserialization")

// writer accumulates the little-endian byte encoding of a value.
type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *writer) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *writer) felt(f Felt) { w.u64(uint64(f)) }

func (w *writer) word(wd Word) {
	for _, f := range wd {
		w.felt(f)
	}
}

func (w *writer) bytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *writer) lenBytes(b []byte) {
	w.u32(uint32(len(b)))
	w.bytes(b)
}

// reader consumes a little-endian byte encoding, failing on truncation.
type reader struct {
	buf []byte
	pos int
	err error
}

func (r *reader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if r.pos+n > len(r.buf) {
		r.err = fmt.Errorf("miden: truncated input at offset %d (need %d bytes)", r.pos, n)
		return nil
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out
}

func (r *reader) u8() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *reader) u16() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint16(b)
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

func (r *reader) felt() Felt { return Felt(r.u64()) }

func (r *reader) word() Word {
	var w Word
	for i := range w {
		w[i] = r.felt()
	}
	return w
}

func (r *reader) lenBytes() []byte {
	n := r.u32()
	if r.err != nil {
		return nil
	}
	if uint64(n) > uint64(len(r.buf)-r.pos) {
		r.err = fmt.Errorf("miden: length prefix %d exceeds remaining input", n)
		return nil
	}
	b := r.take(int(n))
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// finish verifies full consumption of the input.
func (r *reader) finish() error {
	if r.err != nil {
		return r.err
	}
	if r.pos != len(r.buf) {
		return ErrTrailingBytes
	}
	return nil
}
