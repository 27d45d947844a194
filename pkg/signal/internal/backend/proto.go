//go:build !signalffi || !cgo

package backend

import "encoding/binary"

// Minimal protobuf wire helpers for the fallback engine's record formats.
// The native engine serializes records as protobuf messages; the fallback
// mirrors the framing (varint and length-delimited fields) so the
// leading-tag sniff in pkg/signal/validate holds for both builds.

const (
	wireVarint = 0
	wireBytes  = 2
)

func appendTag(b []byte, num int, wt int) []byte {
	return binary.AppendUvarint(b, uint64(num)<<3|uint64(wt))
}

func appendVarintField(b []byte, num int, v uint64) []byte {
	b = appendTag(b, num, wireVarint)
	return binary.AppendUvarint(b, v)
}

func appendBytesField(b []byte, num int, data []byte) []byte {
	b = appendTag(b, num, wireBytes)
	b = binary.AppendUvarint(b, uint64(len(data)))
	return append(b, data...)
}

// fieldReader walks a serialized message field by field. All methods fail
// soft: after the first malformed byte, done() reports true and the caller
// surfaces a protobuf error.
type fieldReader struct {
	buf  []byte
	pos  int
	bad  bool
	num  int
	wt   int
}

func newFieldReader(buf []byte) *fieldReader {
	return &fieldReader{buf: buf}
}

func (r *fieldReader) done() bool {
	return r.bad || r.pos >= len(r.buf)
}

func (r *fieldReader) malformed() bool { return r.bad }

func (r *fieldReader) uvarint() uint64 {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		r.bad = true
		return 0
	}
	r.pos += n
	return v
}

// next advances to the next field and returns its number.
func (r *fieldReader) next() int {
	tag := r.uvarint()
	if r.bad {
		return 0
	}
	r.num = int(tag >> 3)
	r.wt = int(tag & 7)
	return r.num
}

// varint consumes the current field as a varint, or skips it when the wire
// type does not match.
func (r *fieldReader) varint() uint64 {
	if r.wt != wireVarint {
		r.skip()
		return 0
	}
	return r.uvarint()
}

// bytes consumes the current field as length-delimited data. The returned
// slice aliases the input.
func (r *fieldReader) bytes() []byte {
	if r.wt != wireBytes {
		r.skip()
		return nil
	}
	n := r.uvarint()
	if r.bad || n > uint64(len(r.buf)-r.pos) {
		r.bad = true
		return nil
	}
	out := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return out
}

func (r *fieldReader) skip() {
	switch r.wt {
	case wireVarint:
		r.uvarint()
	case wireBytes:
		n := r.uvarint()
		if r.bad || n > uint64(len(r.buf)-r.pos) {
			r.bad = true
			return
		}
		r.pos += int(n)
	default:
		r.bad = true
	}
}
