// Copyright 2022 uTLS Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tls12hs

import (
	"bytes"
	"testing"
)

func TestReaderFixedWidthFields(t *testing.T) {
	r := NewReader([]byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08, 0x09, 0x0a})
	if b, err := r.GetByte(); err != nil || b != 0x01 {
		t.Fatalf("GetByte() = %v, %v", b, err)
	}
	if v, err := r.GetUint16(); err != nil || v != 0x0203 {
		t.Fatalf("GetUint16() = %#x, %v", v, err)
	}
	if v, err := r.GetUint24(); err != nil || v != 0x040506 {
		t.Fatalf("GetUint24() = %#x, %v", v, err)
	}
	if v, err := r.GetUint32(); err != nil || v != 0x0708090a {
		t.Fatalf("GetUint32() = %#x, %v", v, err)
	}
	if r.HasRemaining() {
		t.Fatalf("expected reader exhausted")
	}
}

func TestReaderTruncation(t *testing.T) {
	r := NewReader([]byte{0x00, 0x01})
	if _, err := r.GetUint32(); err == nil {
		t.Fatalf("expected truncation error")
	}
}

func TestReaderGetRangeBounds(t *testing.T) {
	// A 1-byte-prefixed range of odd length when elemSize=2 must fail.
	r := NewReader([]byte{0x03, 0xaa, 0xbb, 0xcc})
	if _, err := r.GetRange(1, 2, 0, -1); err == nil {
		t.Fatalf("expected element-size mismatch to fail")
	}

	// A range below minElems must fail.
	r = NewReader([]byte{0x00})
	if _, err := r.GetRange(1, 1, 1, -1); err == nil {
		t.Fatalf("expected below-minimum range to fail")
	}

	// A well-formed range round-trips its raw bytes.
	r = NewReader([]byte{0x02, 0xaa, 0xbb})
	got, err := r.GetRange(1, 1, 1, 4)
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if !bytes.Equal(got, []byte{0xaa, 0xbb}) {
		t.Fatalf("GetRange = %x", got)
	}
}

func TestReaderRequireEmpty(t *testing.T) {
	r := NewReader([]byte{0x01})
	if err := r.RequireEmpty(); err == nil {
		t.Fatalf("expected trailing-byte error")
	}
	r = NewReader(nil)
	if err := r.RequireEmpty(); err != nil {
		t.Fatalf("RequireEmpty on empty reader: %v", err)
	}
}

func TestWriterAppendLengthValue(t *testing.T) {
	w := NewWriter()
	if err := w.AppendLengthValue([]byte{0x01, 0x02, 0x03}, 2); err != nil {
		t.Fatalf("AppendLengthValue: %v", err)
	}
	out, err := w.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	want := []byte{0x00, 0x03, 0x01, 0x02, 0x03}
	if !bytes.Equal(out, want) {
		t.Fatalf("got %x, want %x", out, want)
	}
}

func TestWriterNestedLengthPrefixed(t *testing.T) {
	w := NewWriter()
	err := w.AppendLengthPrefixed(2, func(b *Writer) {
		b.AppendU8(0xaa)
		_ = b.AppendLengthValue([]byte{0xbb, 0xcc}, 1)
	})
	if err != nil {
		t.Fatalf("AppendLengthPrefixed: %v", err)
	}
	out, err := w.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	// outer length = 4 (1 byte 0xaa + 1 byte inner-len + 2 bytes payload)
	want := []byte{0x00, 0x04, 0xaa, 0x02, 0xbb, 0xcc}
	if !bytes.Equal(out, want) {
		t.Fatalf("got %x, want %x", out, want)
	}
}

func TestWriterRoundTripsThroughReader(t *testing.T) {
	w := NewWriter()
	w.AppendU32(0xdeadbeef)
	if err := w.AppendLengthValue([]byte("hello"), 1); err != nil {
		t.Fatalf("AppendLengthValue: %v", err)
	}
	out, err := w.Bytes()
	if err != nil {
		t.Fatalf("Bytes: %v", err)
	}
	r := NewReader(out)
	v, err := r.GetUint32()
	if err != nil || v != 0xdeadbeef {
		t.Fatalf("GetUint32() = %#x, %v", v, err)
	}
	s, err := r.GetRange(1, 1, 0, -1)
	if err != nil || string(s) != "hello" {
		t.Fatalf("GetRange() = %q, %v", s, err)
	}
	if err := r.RequireEmpty(); err != nil {
		t.Fatalf("RequireEmpty: %v", err)
	}
}
