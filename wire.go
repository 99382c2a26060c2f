// Copyright 2022 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tls12hs

import (
	"sync"

	"golang.org/x/crypto/cryptobyte"

	tlserrors "github.com/nullmacro/tls12hs/errors"
)

// Reader is a read cursor over an immutable byte slice, wrapping
// cryptobyte.String. Every method fails closed: on truncation, oversize, or
// a declared sub-length that would extend past the parent frame, it returns
// a DecodeError and leaves the cursor in an unspecified state, which is safe
// because callers abort parsing on the first error.
type Reader struct {
	s cryptobyte.String
}

// NewReader wraps data for reading. data is not copied; the caller must not
// mutate it while the Reader is in use.
func NewReader(data []byte) *Reader {
	return &Reader{s: cryptobyte.String(data)}
}

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.s) }

// HasRemaining reports whether any unread bytes remain.
func (r *Reader) HasRemaining() bool { return len(r.s) > 0 }

// GetByte reads one byte.
func (r *Reader) GetByte() (byte, error) {
	var b []byte
	if !r.s.ReadBytes(&b, 1) {
		return 0, tlserrors.DecodeErrorf("wire: truncated reading byte")
	}
	return b[0], nil
}

// GetUint16 reads a big-endian uint16.
func (r *Reader) GetUint16() (uint16, error) {
	var v uint16
	if !r.s.ReadUint16(&v) {
		return 0, tlserrors.DecodeErrorf("wire: truncated reading uint16")
	}
	return v, nil
}

// GetUint24 reads a big-endian 24-bit unsigned integer.
func (r *Reader) GetUint24() (uint32, error) {
	var v uint32
	if !r.s.ReadUint24(&v) {
		return 0, tlserrors.DecodeErrorf("wire: truncated reading uint24")
	}
	return v, nil
}

// GetUint32 reads a big-endian uint32.
func (r *Reader) GetUint32() (uint32, error) {
	var v uint32
	if !r.s.ReadUint32(&v) {
		return 0, tlserrors.DecodeErrorf("wire: truncated reading uint32")
	}
	return v, nil
}

// GetFixed reads exactly n raw bytes, with no length prefix.
func (r *Reader) GetFixed(n int) ([]byte, error) {
	var b []byte
	if !r.s.ReadBytes(&b, n) {
		return nil, tlserrors.DecodeErrorf("wire: truncated reading %d fixed bytes", n)
	}
	return b, nil
}

// DiscardNext skips n bytes without returning them.
func (r *Reader) DiscardNext(n int) error {
	if !r.s.Skip(n) {
		return tlserrors.DecodeErrorf("wire: truncated skipping %d bytes", n)
	}
	return nil
}

// GetRange reads a lenPrefixBytes-byte length prefix (1, 2, or 3 bytes)
// followed by that many raw bytes, validates that the declared byte length
// is a multiple of elemSize, and checks the resulting element count against
// [minElems, maxElems]. It returns the raw payload bytes, not split into
// elements, since every caller in this codec re-reads the sub-range with its
// own element-typed accessor.
func (r *Reader) GetRange(lenPrefixBytes, elemSize, minElems, maxElems int) ([]byte, error) {
	var sub cryptobyte.String
	var ok bool
	switch lenPrefixBytes {
	case 1:
		ok = r.s.ReadUint8LengthPrefixed(&sub)
	case 2:
		ok = r.s.ReadUint16LengthPrefixed(&sub)
	case 3:
		ok = r.s.ReadUint24LengthPrefixed(&sub)
	default:
		return nil, tlserrors.InvalidArgumentf("wire: unsupported length-prefix width %d", lenPrefixBytes)
	}
	if !ok {
		return nil, tlserrors.DecodeErrorf("wire: truncated reading length-prefixed range")
	}
	if elemSize > 0 && len(sub)%elemSize != 0 {
		return nil, tlserrors.DecodeErrorf("wire: range length %d not a multiple of element size %d", len(sub), elemSize)
	}
	n := len(sub)
	if elemSize > 0 {
		n = len(sub) / elemSize
	}
	if n < minElems || (maxElems >= 0 && n > maxElems) {
		return nil, tlserrors.DecodeErrorf("wire: range element count %d out of bounds [%d,%d]", n, minElems, maxElems)
	}
	return []byte(sub), nil
}

// GetString reads a length-prefixed opaque byte string (UTF-8 is not
// validated here; callers that need textual validation do so themselves,
// e.g. the SNI carrier via idna).
func (r *Reader) GetString(lenPrefixBytes, minLen, maxLen int) ([]byte, error) {
	return r.GetRange(lenPrefixBytes, 1, minLen, maxLen)
}

// Empty reports whether the reader has no unread bytes.
func (r *Reader) Empty() bool { return r.s.Empty() }

// RequireEmpty fails with a DecodeError if unread bytes remain; callers use
// this to enforce that a message or extension consumes exactly its frame.
func (r *Reader) RequireEmpty() error {
	if !r.s.Empty() {
		return tlserrors.DecodeErrorf("wire: %d trailing bytes after expected end of frame", len(r.s))
	}
	return nil
}

// writerBufPool reuses the Writer's backing array across repeated
// constructions in the same handshake. A plain, single-tier sync.Pool is
// enough here since cryptobyte.Builder grows the slice itself on overflow.
var writerBufPool = sync.Pool{
	New: func() any {
		buf := make([]byte, 0, 512)
		return &buf
	},
}

// Writer is a growable, big-endian byte buffer wrapping cryptobyte.Builder.
// Nested length prefixes are patched in place after their enclosed region is
// written, exactly as cryptobyte.Builder's AddUintNLengthPrefixed does.
type Writer struct {
	b        *cryptobyte.Builder
	pooled   *[]byte
	released bool
}

// NewWriter returns a Writer backed by a pooled buffer. Callers that intend
// to discard the Writer without calling Bytes should call Release to return
// the buffer to the pool.
func NewWriter() *Writer {
	buf := writerBufPool.Get().(*[]byte)
	*buf = (*buf)[:0]
	b := cryptobyte.NewBuilder(*buf)
	return &Writer{b: b, pooled: buf}
}

// Release returns the Writer's backing buffer to the pool. It is safe to
// call Release more than once and safe to omit if the buffer escaped (e.g.
// grew past its pooled capacity); cryptobyte.Builder may have reallocated,
// in which case the original pooled slice is simply dropped by the GC.
func (w *Writer) Release() {
	if w.released || w.pooled == nil {
		return
	}
	w.released = true
	writerBufPool.Put(w.pooled)
}

func (w *Writer) AppendU8(v uint8)   { w.b.AddUint8(v) }
func (w *Writer) AppendU16(v uint16) { w.b.AddUint16(v) }
func (w *Writer) AppendU24(v uint32) { w.b.AddUint24(v) }
func (w *Writer) AppendU32(v uint32) { w.b.AddUint32(v) }

// AppendBytes appends raw bytes with no length prefix.
func (w *Writer) AppendBytes(p []byte) { w.b.AddBytes(p) }

// AppendLengthValue writes a lenPrefixBytes-byte length prefix for payload,
// then payload itself. lenPrefixBytes must be 1, 2, or 3.
func (w *Writer) AppendLengthValue(payload []byte, lenPrefixBytes int) error {
	switch lenPrefixBytes {
	case 1:
		w.b.AddUint8LengthPrefixed(func(b *cryptobyte.Builder) { b.AddBytes(payload) })
	case 2:
		w.b.AddUint16LengthPrefixed(func(b *cryptobyte.Builder) { b.AddBytes(payload) })
	case 3:
		w.b.AddUint24LengthPrefixed(func(b *cryptobyte.Builder) { b.AddBytes(payload) })
	default:
		return tlserrors.InvalidArgumentf("wire: unsupported length-prefix width %d", lenPrefixBytes)
	}
	return nil
}

// AppendLengthPrefixed reserves a lenPrefixBytes-byte length prefix, invokes
// fill to write the enclosed region, and patches the prefix in place once
// the enclosed region's length is known. This is the nested-frame primitive
// handshake messages and extensions use to build their own sub-blocks.
func (w *Writer) AppendLengthPrefixed(lenPrefixBytes int, fill func(*Writer)) error {
	nested := func(b *cryptobyte.Builder) { fill(&Writer{b: b}) }
	switch lenPrefixBytes {
	case 1:
		w.b.AddUint8LengthPrefixed(nested)
	case 2:
		w.b.AddUint16LengthPrefixed(nested)
	case 3:
		w.b.AddUint24LengthPrefixed(nested)
	default:
		return tlserrors.InvalidArgumentf("wire: unsupported length-prefix width %d", lenPrefixBytes)
	}
	return nil
}

// Bytes returns the accumulated buffer as a freshly allocated copy, then
// releases the Writer's pooled backing array. The copy is mandatory, not an
// optimization the caller can opt out of: cryptobyte.Builder.Bytes may
// return a slice that still aliases the pooled array, and the pool can hand
// that same array to an unrelated NewWriter before the caller is done with
// the result — silently corrupting it. Do not call Release before copying
// out of a slice obtained this way.
func (w *Writer) Bytes() ([]byte, error) {
	out, err := w.b.Bytes()
	if err != nil {
		w.Release()
		return nil, tlserrors.InvalidStatef("wire: builder error: %v", err)
	}
	result := append([]byte(nil), out...)
	w.Release()
	return result, nil
}
