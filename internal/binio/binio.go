// Package binio reads and writes the little-endian primitives shared by
// osu!'s binary formats (.osr replays and osu!.db).
package binio

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/bnch/uleb128"
)

// DotnetEpochTicks is the number of 100ns ticks between 0001-01-01 and
// the unix epoch.
const DotnetEpochTicks = 621355968000000000

// TicksTime converts .NET ticks to UTC wall time. Zero ticks stay the
// zero time.
func TicksTime(ticks int64) time.Time {
	if ticks == 0 {
		return time.Time{}
	}
	return time.Unix(0, (ticks-DotnetEpochTicks)*100).UTC()
}

var (
	ErrTruncated = errors.New("unexpected end of data")
	ErrMalformed = errors.New("malformed data")
)

// Error is the failure recorded by a Reader without a FailFunc.
type Error struct {
	Kind   error
	Field  string
	Offset int
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s at byte %d: %v", e.Field, e.Offset, e.Kind)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// FailFunc builds the error a Reader records. kind is ErrTruncated,
// ErrMalformed or a kind passed to Fail.
type FailFunc func(kind error, field string, offset int, err error) error

// Reader is a cursor over an in-memory buffer. The first failure sticks;
// later reads return zero values.
type Reader struct {
	buf  []byte
	off  int
	err  error
	fail FailFunc
}

// NewReader reads buf. A nil fail records *Error values.
func NewReader(buf []byte, fail FailFunc) *Reader {
	if fail == nil {
		fail = func(kind error, field string, offset int, err error) error {
			return &Error{Kind: kind, Field: field, Offset: offset, Err: err}
		}
	}
	return &Reader{buf: buf, fail: fail}
}

func (r *Reader) Err() error     { return r.err }
func (r *Reader) Offset() int    { return r.off }
func (r *Reader) Remaining() int { return len(r.buf) - r.off }

// Fail records a failure at the current offset.
func (r *Reader) Fail(kind error, field string, err error) {
	r.FailAt(r.off, kind, field, err)
}

// FailAt records a failure at offset, typically the start of the field
// that was just read.
func (r *Reader) FailAt(offset int, kind error, field string, err error) {
	if r.err == nil {
		r.err = r.fail(kind, field, offset, err)
	}
}

// Take returns the next n bytes without copying.
func (r *Reader) Take(n int, field string) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.Remaining() < n {
		r.Fail(ErrTruncated, field, nil)
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *Reader) U8(field string) uint8 {
	if b := r.Take(1, field); b != nil {
		return b[0]
	}
	return 0
}

func (r *Reader) Bool(field string) bool { return r.U8(field) != 0 }

func (r *Reader) U16(field string) uint16 {
	if b := r.Take(2, field); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (r *Reader) U32(field string) uint32 {
	if b := r.Take(4, field); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (r *Reader) U64(field string) uint64 {
	if b := r.Take(8, field); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

func (r *Reader) F32(field string) float32 {
	return math.Float32frombits(r.U32(field))
}

func (r *Reader) F64(field string) float64 {
	return math.Float64frombits(r.U64(field))
}

// Str reads an osu! string: 0x00 for absent, or 0x0b followed by a
// ULEB128 byte length and the UTF-8 bytes.
func (r *Reader) Str(field string) string {
	start := r.off
	switch r.U8(field) {
	case 0x00:
		return ""
	case 0x0b:
	default:
		r.FailAt(start, ErrMalformed, field, nil)
		return ""
	}
	if r.err != nil {
		return ""
	}

	rest := bytes.NewReader(r.buf[r.off:])
	n, err := uleb128.UnmarshalReader(rest)
	if err != nil {
		r.Fail(ErrTruncated, field, nil)
		return ""
	}
	if n < 0 || n > math.MaxInt32 {
		r.FailAt(start, ErrMalformed, field, fmt.Errorf("string length %d", n))
		return ""
	}
	r.off = len(r.buf) - rest.Len()
	return string(r.Take(n, field))
}

// Writer appends the same primitives to a buffer.
type Writer struct {
	buf []byte
}

func (w *Writer) Bytes() []byte { return w.buf }

func (w *Writer) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	return len(p), nil
}

func (w *Writer) U8(v uint8)   { w.buf = append(w.buf, v) }
func (w *Writer) U16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *Writer) U32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *Writer) U64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *Writer) F32(v float32) {
	w.U32(math.Float32bits(v))
}
func (w *Writer) F64(v float64) {
	w.U64(math.Float64bits(v))
}

func (w *Writer) Bool(v bool) {
	if v {
		w.U8(1)
		return
	}
	w.U8(0)
}

// Str writes s, using the absent marker for the empty string.
func (w *Writer) Str(s string) {
	if s == "" {
		w.U8(0x00)
		return
	}
	w.U8(0x0b)
	w.buf = append(w.buf, uleb128.Marshal(len(s))...)
	w.buf = append(w.buf, s...)
}
